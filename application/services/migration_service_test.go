package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"flavourvault-backend/application/ports"
	pkgerrors "flavourvault-backend/pkg/errors"
)

// fakeLegacyStore keeps the legacy slots in memory
type fakeLegacyStore struct {
	recipes   []ports.LegacyRecipe
	completed bool
	loadErr   error
	markErr   error
	loadCalls int
}

func (s *fakeLegacyStore) LoadRecipes() ([]ports.LegacyRecipe, error) {
	s.loadCalls++
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.recipes, nil
}

func (s *fakeLegacyStore) SaveRecipes(recipes []ports.LegacyRecipe) error {
	s.recipes = recipes
	return nil
}

func (s *fakeLegacyStore) Clear() error {
	s.recipes = nil
	return nil
}

func (s *fakeLegacyStore) MigrationCompleted() bool {
	return s.completed
}

func (s *fakeLegacyStore) MarkMigrationCompleted() error {
	if s.markErr != nil {
		return s.markErr
	}
	s.completed = true
	return nil
}

func (s *fakeLegacyStore) ResetMigration() error {
	s.completed = false
	return nil
}

func legacyFixture() []ports.LegacyRecipe {
	return []ports.LegacyRecipe{
		{
			ID:       "legacy-1",
			Name:     "Pancakes",
			Servings: 2,
			Notes:    "from the old app",
			Ingredients: []ports.LegacyIngredient{
				{ID: "i1", Name: "flour", Amount: 200, Unit: "g"},
			},
			CreatedAt: 1600000000000,
			Order:     3,
		},
		{
			ID:        "legacy-2",
			Name:      "Waffles",
			Servings:  4,
			CreatedAt: 1600000001000,
			Order:     1,
		},
	}
}

func newTestMigration(legacy *fakeLegacyStore, repo *fakeRepo, session ports.SessionProvider) *MigrationService {
	return NewMigrationService(legacy, repo, session, nil, zap.NewNop(), 0)
}

func TestMigrationService_MigratesLegacyRecipes(t *testing.T) {
	legacy := &fakeLegacyStore{recipes: legacyFixture()}
	repo := &fakeRepo{}
	svc := newTestMigration(legacy, repo, &fakeSession{})

	result := svc.Migrate(context.Background())

	require.True(t, result.Success)
	assert.Equal(t, 2, result.MigratedCount)
	assert.Empty(t, result.Error)
	assert.True(t, legacy.MigrationCompleted())
	assert.Equal(t, 1, repo.bulkCreateCalls)

	// The legacy display order is carried into the new order index
	found := map[string]int{}
	for _, rec := range repo.recipes {
		found[rec.Name()] = rec.OrderIndex()
	}
	assert.Equal(t, 3, found["Pancakes"])
	assert.Equal(t, 1, found["Waffles"])
}

func TestMigrationService_SecondCallIsNoOpWithZeroRemoteCalls(t *testing.T) {
	legacy := &fakeLegacyStore{recipes: legacyFixture()}
	repo := &fakeRepo{}
	svc := newTestMigration(legacy, repo, &fakeSession{})

	first := svc.Migrate(context.Background())
	require.True(t, first.Success)
	loadsAfterFirst := legacy.loadCalls

	second := svc.Migrate(context.Background())

	require.True(t, second.Success)
	assert.Equal(t, 0, second.MigratedCount)
	assert.Equal(t, 1, repo.bulkCreateCalls, "completed migration must not touch the repository")
	assert.Equal(t, loadsAfterFirst, legacy.loadCalls, "completed migration must not reread legacy data")
}

func TestMigrationService_EmptyStoreCompletesImmediately(t *testing.T) {
	legacy := &fakeLegacyStore{}
	repo := &fakeRepo{}
	svc := newTestMigration(legacy, repo, &fakeSession{})

	result := svc.Migrate(context.Background())

	require.True(t, result.Success)
	assert.Equal(t, 0, result.MigratedCount)
	assert.True(t, legacy.MigrationCompleted())
	assert.Equal(t, 0, repo.bulkCreateCalls)
}

func TestMigrationService_FailureLeavesFlagPendingAndRetries(t *testing.T) {
	legacy := &fakeLegacyStore{recipes: legacyFixture()}
	repo := &fakeRepo{bulkCreateErr: pkgerrors.NewNetworkError("offline", nil)}
	svc := newTestMigration(legacy, repo, &fakeSession{})
	ctx := context.Background()

	result := svc.Migrate(ctx)

	require.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
	assert.False(t, legacy.MigrationCompleted(), "failed migration must stay pending")

	// A later qualifying run retries and succeeds
	repo.bulkCreateErr = nil
	retry := svc.Migrate(ctx)
	require.True(t, retry.Success)
	assert.Equal(t, 2, retry.MigratedCount)
	assert.True(t, legacy.MigrationCompleted())
}

func TestMigrationService_RequiresAuthentication(t *testing.T) {
	legacy := &fakeLegacyStore{recipes: legacyFixture()}
	repo := &fakeRepo{}
	svc := newTestMigration(legacy, repo, &fakeSession{err: pkgerrors.NewUnauthorizedError("")})

	result := svc.Migrate(context.Background())

	require.False(t, result.Success)
	assert.Equal(t, pkgerrors.MsgNotAuthenticated, result.Error)
	assert.False(t, legacy.MigrationCompleted())
	assert.Equal(t, 0, repo.bulkCreateCalls)
}

func TestMigrationService_StopsAfterRepeatedFailures(t *testing.T) {
	legacy := &fakeLegacyStore{recipes: legacyFixture()}
	repo := &fakeRepo{bulkCreateErr: pkgerrors.NewNetworkError("offline", nil)}
	svc := newTestMigration(legacy, repo, &fakeSession{})
	ctx := context.Background()

	for i := 0; i < maxMigrationAttempts; i++ {
		result := svc.Migrate(ctx)
		require.False(t, result.Success)
	}
	callsAfterBudget := repo.bulkCreateCalls

	result := svc.Migrate(ctx)

	require.False(t, result.Success)
	assert.Equal(t, callsAfterBudget, repo.bulkCreateCalls, "exhausted budget must stop remote attempts")
}

func TestMigrationService_AuthFailuresDoNotConsumeRetryBudget(t *testing.T) {
	legacy := &fakeLegacyStore{recipes: legacyFixture()}
	repo := &fakeRepo{}
	session := &fakeSession{err: pkgerrors.NewUnauthorizedError("")}
	svc := newTestMigration(legacy, repo, session)
	ctx := context.Background()

	for i := 0; i < maxMigrationAttempts+1; i++ {
		result := svc.Migrate(ctx)
		require.False(t, result.Success)
	}

	// Signing in afterwards must still get a real attempt
	session.err = nil
	result := svc.Migrate(ctx)

	require.True(t, result.Success)
	assert.Equal(t, 2, result.MigratedCount)
	assert.Equal(t, 1, repo.bulkCreateCalls)
}

func TestMigrationService_RejectsCollectionOverBulkLimit(t *testing.T) {
	legacy := &fakeLegacyStore{recipes: legacyFixture()}
	repo := &fakeRepo{}
	svc := newTestMigration(legacy, repo, &fakeSession{})
	svc.SetBulkLimit(1)

	result := svc.Migrate(context.Background())

	require.False(t, result.Success)
	assert.Equal(t, 0, repo.bulkCreateCalls)
	assert.False(t, legacy.MigrationCompleted())
}

func TestMigrationService_AllOrNothingOnInvalidLegacyRecord(t *testing.T) {
	// One of the two legacy records is invalid; the whole run fails
	// rather than partially migrating
	legacy := &fakeLegacyStore{recipes: []ports.LegacyRecipe{
		{ID: "ok", Name: "Pancakes", Servings: 2, Order: 0},
		{ID: "bad", Name: "", Servings: 2, Order: 1},
	}}
	repo := &fakeRepo{}
	svc := newTestMigration(legacy, repo, &fakeSession{})

	result := svc.Migrate(context.Background())

	require.False(t, result.Success)
	assert.Equal(t, 0, repo.bulkCreateCalls)
	assert.False(t, legacy.MigrationCompleted())
}

func TestMigrationService_Info(t *testing.T) {
	legacy := &fakeLegacyStore{recipes: legacyFixture()}
	svc := newTestMigration(legacy, &fakeRepo{}, &fakeSession{})

	info := svc.Info()
	assert.False(t, info.Completed)
	assert.True(t, info.HasLegacyData)
	assert.Equal(t, 2, info.LegacyCount)

	require.True(t, svc.Migrate(context.Background()).Success)

	info = svc.Info()
	assert.True(t, info.Completed)
}

func TestMigrationService_Reset(t *testing.T) {
	legacy := &fakeLegacyStore{recipes: legacyFixture()}
	repo := &fakeRepo{}
	svc := newTestMigration(legacy, repo, &fakeSession{})
	ctx := context.Background()

	require.True(t, svc.Migrate(ctx).Success)
	require.NoError(t, svc.Reset())
	assert.False(t, legacy.MigrationCompleted())

	// A reset flag allows the engine to run again
	result := svc.Migrate(ctx)
	require.True(t, result.Success)
	assert.Equal(t, 2, repo.bulkCreateCalls)
}
