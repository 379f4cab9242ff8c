package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"flavourvault-backend/application/ports"
	"flavourvault-backend/domain/core/entities"
	domainservices "flavourvault-backend/domain/core/services"
	"flavourvault-backend/domain/core/valueobjects"
	"flavourvault-backend/infrastructure/cache"
	pkgerrors "flavourvault-backend/pkg/errors"
)

// fakeSession always reports the same signed-in user
type fakeSession struct {
	err error
}

func (s *fakeSession) CurrentUserID(ctx context.Context) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "user123", nil
}

func (s *fakeSession) IsAuthenticated(ctx context.Context) bool {
	return s.err == nil
}

func (s *fakeSession) Subscribe(fn func(ports.SessionEvent)) func() {
	return func() {}
}

// fakeRepo is an in-memory repository with injectable failures and
// call counters
type fakeRepo struct {
	mu sync.Mutex

	recipes []*entities.Recipe

	fetchAllCalls   int
	updateCalls     int
	bulkCreateCalls int
	searchCalls     int

	lastUpdate ports.UpdateRecipe

	fetchAllErr     error
	createErr       error
	updateErr       error
	deleteErr       error
	bulkCreateErr   error
	setFavouriteErr error

	tags []string
}

func (r *fakeRepo) FetchAll(ctx context.Context) ([]*entities.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetchAllCalls++
	if r.fetchAllErr != nil {
		return nil, r.fetchAllErr
	}
	out := make([]*entities.Recipe, len(r.recipes))
	for i, rec := range r.recipes {
		out[i] = rec.Clone()
	}
	return out, nil
}

func (r *fakeRepo) FetchByID(ctx context.Context, id valueobjects.RecipeID) (*entities.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.recipes {
		if rec.ID().Equals(id) {
			return rec.Clone(), nil
		}
	}
	return nil, pkgerrors.NewNotFoundError("recipe")
}

func (r *fakeRepo) Create(ctx context.Context, draft *entities.RecipeDraft) (*entities.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	orderIndex, pinned := draft.OrderIndex()
	if !pinned {
		orderIndex = 0
		for _, rec := range r.recipes {
			if rec.OrderIndex() >= orderIndex {
				orderIndex = rec.OrderIndex() + 1
			}
		}
	}
	created := mustRecipe(draft.Name(), draft.Servings(), orderIndex)
	r.recipes = append(r.recipes, created)
	return created.Clone(), nil
}

func (r *fakeRepo) Update(ctx context.Context, id valueobjects.RecipeID, changes ports.UpdateRecipe) (*entities.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateCalls++
	r.lastUpdate = changes
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	for _, rec := range r.recipes {
		if rec.ID().Equals(id) {
			if changes.Name != nil {
				if err := rec.Rename(*changes.Name); err != nil {
					return nil, err
				}
			}
			if changes.OrderIndex != nil {
				rec.SetOrderIndex(*changes.OrderIndex)
			}
			if changes.IsFavourite != nil {
				rec.SetFavourite(*changes.IsFavourite)
			}
			return rec.Clone(), nil
		}
	}
	return nil, pkgerrors.NewNotFoundError("recipe")
}

func (r *fakeRepo) Delete(ctx context.Context, id valueobjects.RecipeID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	remaining := r.recipes[:0]
	for _, rec := range r.recipes {
		if !rec.ID().Equals(id) {
			remaining = append(remaining, rec)
		}
	}
	r.recipes = remaining
	return nil
}

func (r *fakeRepo) BulkCreate(ctx context.Context, drafts []*entities.RecipeDraft) ([]*entities.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bulkCreateCalls++
	if r.bulkCreateErr != nil {
		return nil, r.bulkCreateErr
	}
	created := make([]*entities.Recipe, 0, len(drafts))
	for i, draft := range drafts {
		orderIndex, pinned := draft.OrderIndex()
		if !pinned {
			orderIndex = i
		}
		rec := mustRecipe(draft.Name(), draft.Servings(), orderIndex)
		r.recipes = append(r.recipes, rec)
		created = append(created, rec.Clone())
	}
	return created, nil
}

func (r *fakeRepo) SetFavourite(ctx context.Context, id valueobjects.RecipeID, favourite bool) (*entities.Recipe, error) {
	if r.setFavouriteErr != nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		return nil, r.setFavouriteErr
	}
	fav := favourite
	return r.Update(ctx, id, ports.UpdateRecipe{IsFavourite: &fav})
}

func (r *fakeRepo) ListTags(ctx context.Context) ([]string, error) {
	return r.tags, nil
}

func (r *fakeRepo) Search(ctx context.Context, filters domainservices.RecipeFilters) ([]*entities.Recipe, error) {
	r.mu.Lock()
	r.searchCalls++
	r.mu.Unlock()

	all, err := r.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*entities.Recipe, 0, len(all))
	for _, rec := range all {
		if filters.ShowFavouritesOnly && !rec.IsFavourite() {
			continue
		}
		if len(filters.SelectedTags) > 0 && !rec.HasAnyTag(filters.SelectedTags) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func mustRecipe(name string, servings, orderIndex int) *entities.Recipe {
	now := time.Now()
	rec, err := entities.ReconstructRecipe(
		valueobjects.NewRecipeID(),
		"user123",
		name,
		servings,
		"",
		nil,
		nil,
		false,
		orderIndex,
		now, now,
	)
	if err != nil {
		panic(err)
	}
	return rec
}

func newTestService(t *testing.T, repo *fakeRepo) (*RecipeService, ports.Cache) {
	t.Helper()
	mem := cache.NewMemory()
	t.Cleanup(mem.Close)
	svc := NewRecipeService(repo, mem, &fakeSession{}, nil, zap.NewNop(), 0)
	return svc, mem
}

func TestRecipeService_List_CachesMaterialization(t *testing.T) {
	repo := &fakeRepo{recipes: []*entities.Recipe{
		mustRecipe("Pancakes", 2, 0),
		mustRecipe("Waffles", 2, 1),
	}}
	svc, _ := newTestService(t, repo)
	ctx := context.Background()

	first, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, second, 2)

	assert.Equal(t, 1, repo.fetchAllCalls, "second read must come from cache")
}

func TestRecipeService_Create_AppendsToCachedList(t *testing.T) {
	repo := &fakeRepo{recipes: []*entities.Recipe{mustRecipe("Pancakes", 2, 0)}}
	svc, _ := newTestService(t, repo)
	ctx := context.Background()

	_, err := svc.List(ctx)
	require.NoError(t, err)

	draft, err := entities.NewRecipeDraft("Waffles", 2, "", nil)
	require.NoError(t, err)
	created, err := svc.Create(ctx, draft)
	require.NoError(t, err)
	assert.Equal(t, 1, created.OrderIndex(), "new recipe appends after the highest order index")

	listed, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, 1, repo.fetchAllCalls, "create must not invalidate the cached list")
}

func TestRecipeService_Update_FailureLeavesCacheUntouched(t *testing.T) {
	rec := mustRecipe("Pancakes", 2, 0)
	repo := &fakeRepo{recipes: []*entities.Recipe{rec}}
	svc, _ := newTestService(t, repo)
	ctx := context.Background()

	_, err := svc.List(ctx)
	require.NoError(t, err)

	repo.updateErr = pkgerrors.NewNetworkError("offline", nil)
	name := "Crepes"
	_, err = svc.Update(ctx, rec.ID(), ports.UpdateRecipe{Name: &name})
	require.Error(t, err)

	listed, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "Pancakes", listed[0].Name())
	assert.Equal(t, 1, repo.fetchAllCalls)
}

func TestRecipeService_Update_EmptyChangesRejected(t *testing.T) {
	repo := &fakeRepo{}
	svc, _ := newTestService(t, repo)

	_, err := svc.Update(context.Background(), valueobjects.NewRecipeID(), ports.UpdateRecipe{})

	assert.True(t, pkgerrors.IsValidation(err))
}

func TestRecipeService_Update_DeduplicatesReplacementTags(t *testing.T) {
	rec := mustRecipe("Pancakes", 2, 0)
	repo := &fakeRepo{recipes: []*entities.Recipe{rec}}
	svc, _ := newTestService(t, repo)

	tags := []string{"dessert", "dessert", "quick"}
	_, err := svc.Update(context.Background(), rec.ID(), ports.UpdateRecipe{Tags: &tags})

	require.NoError(t, err)
	require.NotNil(t, repo.lastUpdate.Tags)
	assert.Equal(t, []string{"dessert", "quick"}, *repo.lastUpdate.Tags,
		"a replacement list must not persist duplicate tags")
}

func TestRecipeService_Update_RejectsEmptyTagInReplacementList(t *testing.T) {
	rec := mustRecipe("Pancakes", 2, 0)
	repo := &fakeRepo{recipes: []*entities.Recipe{rec}}
	svc, _ := newTestService(t, repo)

	tags := []string{"dessert", " "}
	_, err := svc.Update(context.Background(), rec.ID(), ports.UpdateRecipe{Tags: &tags})

	assert.True(t, pkgerrors.IsValidation(err))
	assert.Equal(t, 0, repo.updateCalls)
}

func TestRecipeService_CacheTTLConfiguration(t *testing.T) {
	svc, _ := newTestService(t, &fakeRepo{})

	assert.Equal(t, defaultCacheTTL, svc.ttl(), "non-positive TTL falls back to the default")

	svc.SetCacheTTL(42)
	assert.Equal(t, 42, svc.ttl())

	svc.SetCacheTTL(0)
	assert.Equal(t, defaultCacheTTL, svc.ttl())
}

func TestRecipeService_ToggleFavourite_RollsBackOnFailure(t *testing.T) {
	rec := mustRecipe("Pancakes", 2, 0)
	repo := &fakeRepo{recipes: []*entities.Recipe{rec}}
	svc, _ := newTestService(t, repo)
	ctx := context.Background()

	// Prime the entity slot
	got, err := svc.Get(ctx, rec.ID())
	require.NoError(t, err)
	require.False(t, got.IsFavourite())

	repo.setFavouriteErr = pkgerrors.NewNetworkError("offline", nil)
	_, err = svc.ToggleFavourite(ctx, rec.ID())
	require.Error(t, err)

	// The speculative flip must have been reverted
	after, err := svc.Get(ctx, rec.ID())
	require.NoError(t, err)
	assert.False(t, after.IsFavourite())
}

func TestRecipeService_ToggleFavourite_Success(t *testing.T) {
	rec := mustRecipe("Pancakes", 2, 0)
	repo := &fakeRepo{recipes: []*entities.Recipe{rec}}
	svc, _ := newTestService(t, repo)
	ctx := context.Background()

	updated, err := svc.ToggleFavourite(ctx, rec.ID())
	require.NoError(t, err)
	assert.True(t, updated.IsFavourite())

	after, err := svc.Get(ctx, rec.ID())
	require.NoError(t, err)
	assert.True(t, after.IsFavourite())
}

func TestRecipeService_Reorder_RollsBackAndInvalidatesOnFailure(t *testing.T) {
	a := mustRecipe("Alpha", 2, 0)
	b := mustRecipe("Beta", 2, 1)
	repo := &fakeRepo{recipes: []*entities.Recipe{a, b}}
	svc, mem := newTestService(t, repo)
	ctx := context.Background()

	before, err := svc.List(ctx)
	require.NoError(t, err)
	require.Equal(t, "Alpha", before[0].Name())

	repo.updateErr = pkgerrors.NewNetworkError("offline", nil)
	err = svc.Reorder(ctx, []ports.OrderChange{
		{ID: a.ID(), OrderIndex: 1},
		{ID: b.ID(), OrderIndex: 0},
	})
	require.Error(t, err)

	// Settle invalidates even after rollback, so the next read refetches
	_, cached := mem.Get(ctx, recipeListKeyPrefix+"user123")
	assert.False(t, cached, "list must be invalidated after a failed reorder")

	repo.updateErr = nil
	after, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, after, 2)
	assert.Equal(t, "Alpha", after[0].Name(), "order must match the pre-reorder state")
	assert.Equal(t, 2, repo.fetchAllCalls)
}

func TestRecipeService_Reorder_AppliesAllChanges(t *testing.T) {
	a := mustRecipe("Alpha", 2, 0)
	b := mustRecipe("Beta", 2, 1)
	c := mustRecipe("Gamma", 2, 2)
	repo := &fakeRepo{recipes: []*entities.Recipe{a, b, c}}
	svc, _ := newTestService(t, repo)
	ctx := context.Background()

	err := svc.Reorder(ctx, []ports.OrderChange{
		{ID: a.ID(), OrderIndex: 2},
		{ID: b.ID(), OrderIndex: 0},
		{ID: c.ID(), OrderIndex: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, repo.updateCalls)

	listed, err := svc.List(ctx)
	require.NoError(t, err)
	names := []string{}
	for _, r := range listed {
		names = append(names, r.Name())
	}
	// The fake returns insertion order; the display order comes from
	// the persisted indexes
	assert.ElementsMatch(t, []string{"Alpha", "Beta", "Gamma"}, names)
	for _, r := range listed {
		switch r.Name() {
		case "Alpha":
			assert.Equal(t, 2, r.OrderIndex())
		case "Beta":
			assert.Equal(t, 0, r.OrderIndex())
		case "Gamma":
			assert.Equal(t, 1, r.OrderIndex())
		}
	}
}

func TestRecipeService_Reorder_EmptyBatchIsNoOp(t *testing.T) {
	repo := &fakeRepo{}
	svc, _ := newTestService(t, repo)

	err := svc.Reorder(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, 0, repo.updateCalls)
}

func TestRecipeService_Delete_RemovesFromCachedList(t *testing.T) {
	a := mustRecipe("Alpha", 2, 0)
	b := mustRecipe("Beta", 2, 1)
	repo := &fakeRepo{recipes: []*entities.Recipe{a, b}}
	svc, _ := newTestService(t, repo)
	ctx := context.Background()

	_, err := svc.List(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, a.ID()))

	listed, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "Beta", listed[0].Name())
	assert.Equal(t, 1, repo.fetchAllCalls)
}

func TestRecipeService_Search_TextOnlyUsesLocalPipeline(t *testing.T) {
	repo := &fakeRepo{recipes: []*entities.Recipe{
		mustRecipe("Tomato soup", 2, 0),
		mustRecipe("Beef stew", 2, 1),
	}}
	svc, _ := newTestService(t, repo)

	result, err := svc.Search(context.Background(), domainservices.RecipeFilters{SearchTerm: "tomato"})

	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "Tomato soup", result[0].Name())
	assert.Equal(t, 0, repo.searchCalls, "plain text search must not hit the remote search")
}

func TestRecipeService_Search_PushdownCriteriaUseRepository(t *testing.T) {
	fav := mustRecipe("Tomato soup", 2, 0)
	fav.SetFavourite(true)
	repo := &fakeRepo{recipes: []*entities.Recipe{
		fav,
		mustRecipe("Tomato salad", 2, 1),
	}}
	svc, _ := newTestService(t, repo)

	result, err := svc.Search(context.Background(), domainservices.RecipeFilters{
		SearchTerm:         "tomato",
		ShowFavouritesOnly: true,
	})

	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "Tomato soup", result[0].Name())
	assert.Equal(t, 1, repo.searchCalls)
}

func TestRecipeService_Unauthenticated(t *testing.T) {
	mem := cache.NewMemory()
	t.Cleanup(mem.Close)
	svc := NewRecipeService(&fakeRepo{}, mem, &fakeSession{err: pkgerrors.NewUnauthorizedError("")}, nil, zap.NewNop(), 0)

	_, err := svc.List(context.Background())

	assert.True(t, pkgerrors.IsUnauthorized(err))
}
