package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"flavourvault-backend/application/ports"
	"flavourvault-backend/domain/core/entities"
	"flavourvault-backend/domain/core/valueobjects"
	pkgerrors "flavourvault-backend/pkg/errors"
	"flavourvault-backend/pkg/observability"
)

// maxMigrationAttempts bounds in-process retries. The persisted flag
// stays PENDING after a failure so a restart can try again, but
// repeatedly failing within one process stops hammering the store.
const maxMigrationAttempts = 5

// defaultBulkCreateLimit caps how many legacy rows one migration run
// may submit in its single bulk create
const defaultBulkCreateLimit = 200

// MigrationResult is the error-as-data outcome of a migration run
type MigrationResult struct {
	Success       bool   `json:"success"`
	MigratedCount int    `json:"migratedCount"`
	Error         string `json:"error,omitempty"`
}

// MigrationInfo describes the current migration state
type MigrationInfo struct {
	Completed     bool `json:"completed"`
	LegacyCount   int  `json:"legacyCount"`
	HasLegacyData bool `json:"hasLegacyData"`
}

// MigrationService performs the one-time transfer of legacy local
// recipes into the remote repository. The persisted completion flag
// makes the operation idempotent: once COMPLETED, every further call
// is a no-op that issues zero remote requests.
//
// The caller is responsible for gating invocation on auth state;
// migrated rows need a known owner.
type MigrationService struct {
	legacy  ports.LegacyStore
	repo    ports.RecipeRepository
	session ports.SessionProvider
	metrics *observability.Collector
	logger  *zap.Logger

	mu        sync.Mutex
	failures  int
	bulkLimit atomic.Int64
}

// NewMigrationService creates the migration engine. A non-positive
// bulkLimit falls back to the default.
func NewMigrationService(
	legacy ports.LegacyStore,
	repo ports.RecipeRepository,
	session ports.SessionProvider,
	metrics *observability.Collector,
	logger *zap.Logger,
	bulkLimit int,
) *MigrationService {
	s := &MigrationService{
		legacy:  legacy,
		repo:    repo,
		session: session,
		metrics: metrics,
		logger:  logger,
	}
	s.SetBulkLimit(bulkLimit)
	return s
}

// SetBulkLimit changes the bulk create cap. Safe to call while the
// service is live; the settings watcher calls this on hot reload.
func (s *MigrationService) SetBulkLimit(limit int) {
	if limit <= 0 {
		limit = defaultBulkCreateLimit
	}
	s.bulkLimit.Store(int64(limit))
}

// Migrate runs the one-shot migration. It never returns a Go error:
// per the repository contract, failure is data. A failed bulk create
// leaves the flag PENDING so a later qualifying load retries; no
// partial-success bookkeeping is attempted.
func (s *MigrationService) Migrate(ctx context.Context) MigrationResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Idempotent no-op once the flag is set
	if s.legacy.MigrationCompleted() {
		return MigrationResult{Success: true, MigratedCount: 0}
	}

	// Auth failures do not count against the retry budget; nothing was
	// attempted against the store
	if _, err := s.session.CurrentUserID(ctx); err != nil {
		return MigrationResult{
			Success: false,
			Error:   pkgerrors.UserMessage(pkgerrors.NewUnauthorizedError("")),
		}
	}

	if s.failures >= maxMigrationAttempts {
		s.logger.Warn("Migration disabled after repeated failures",
			zap.Int("attempts", s.failures),
		)
		return MigrationResult{
			Success: false,
			Error:   "migration disabled after repeated failures; restart to retry",
		}
	}

	legacyRecipes, err := s.legacy.LoadRecipes()
	if err != nil {
		return s.failure(err)
	}

	// No data is not an error; mark done so we never look again
	if len(legacyRecipes) == 0 {
		if err := s.legacy.MarkMigrationCompleted(); err != nil {
			return s.failure(err)
		}
		s.metrics.RecordMigrationRun("empty")
		return MigrationResult{Success: true, MigratedCount: 0}
	}

	if limit := int(s.bulkLimit.Load()); len(legacyRecipes) > limit {
		return s.failure(pkgerrors.NewValidationError(
			fmt.Sprintf("legacy collection has %d recipes, exceeding the bulk create limit of %d", len(legacyRecipes), limit),
		))
	}

	drafts := make([]*entities.RecipeDraft, 0, len(legacyRecipes))
	for _, lr := range legacyRecipes {
		draft, err := transformLegacyRecipe(lr)
		if err != nil {
			return s.failure(err)
		}
		drafts = append(drafts, draft)
	}

	created, err := s.repo.BulkCreate(ctx, drafts)
	if err != nil {
		s.logger.Error("Legacy migration failed",
			zap.Int("submitted", len(drafts)),
			zap.Error(err),
		)
		return s.failure(err)
	}

	if err := s.legacy.MarkMigrationCompleted(); err != nil {
		// Rows are migrated; a stuck flag means the next run re-submits,
		// which the caller tolerates as server-side dedup territory.
		s.logger.Error("Failed to persist migration flag", zap.Error(err))
		return s.failure(err)
	}

	s.failures = 0
	s.metrics.RecordMigrationRun("success")
	s.logger.Info("Legacy recipes migrated",
		zap.Int("submitted", len(drafts)),
		zap.Int("created", len(created)),
	)

	// Report the count the remote call actually created, not the
	// count submitted
	return MigrationResult{Success: true, MigratedCount: len(created)}
}

// Info reports the completion flag and how much legacy data remains
func (s *MigrationService) Info() MigrationInfo {
	legacyRecipes, err := s.legacy.LoadRecipes()
	if err != nil {
		s.logger.Warn("Failed to read legacy store", zap.Error(err))
		return MigrationInfo{Completed: s.legacy.MigrationCompleted()}
	}
	return MigrationInfo{
		Completed:     s.legacy.MigrationCompleted(),
		LegacyCount:   len(legacyRecipes),
		HasLegacyData: len(legacyRecipes) > 0,
	}
}

// Reset clears the completion flag and the in-process failure count
func (s *MigrationService) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = 0
	return s.legacy.ResetMigration()
}

func (s *MigrationService) failure(err error) MigrationResult {
	s.failures++
	s.metrics.RecordMigrationRun("failure")
	return MigrationResult{Success: false, Error: pkgerrors.UserMessage(err)}
}

// transformLegacyRecipe maps a legacy record field-for-field onto a
// creation draft, carrying the legacy display order into the new
// order index. Owner injection happens in the repository.
func transformLegacyRecipe(lr ports.LegacyRecipe) (*entities.RecipeDraft, error) {
	ingredients := make([]valueobjects.Ingredient, 0, len(lr.Ingredients))
	for _, li := range lr.Ingredients {
		ing, err := valueobjects.ReconstructIngredient(li.ID, li.Name, li.Amount, li.Unit)
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "legacy recipe %q has an invalid ingredient", lr.Name)
		}
		ingredients = append(ingredients, ing)
	}

	draft, err := entities.NewRecipeDraft(lr.Name, lr.Servings, lr.Notes, ingredients)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "legacy recipe %q is invalid", lr.Name)
	}
	return draft.WithOrderIndex(lr.Order), nil
}
