package services

import (
	"context"
	"sort"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"flavourvault-backend/application/ports"
	"flavourvault-backend/domain/core/entities"
	domainservices "flavourvault-backend/domain/core/services"
	"flavourvault-backend/domain/core/valueobjects"
	pkgerrors "flavourvault-backend/pkg/errors"
	"flavourvault-backend/pkg/observability"
)

const (
	recipeListKeyPrefix   = "recipes:list:"
	recipeEntityKeyPrefix = "recipes:id:"

	// defaultCacheTTL keeps a materialization fresh for five minutes
	// before a fetch is forced anyway
	defaultCacheTTL = 300
)

// RecipeService is the cache & mutation layer: it keeps the
// session-scoped materialized recipe list consistent with the remote
// store while letting the two latency-sensitive interactions
// (favourite toggle, drag reorder) apply optimistically with rollback.
//
// All other mutations write the cache strictly after the remote call
// confirms; on failure the cache is left untouched and the typed error
// is returned to the caller.
type RecipeService struct {
	repo     ports.RecipeRepository
	cache    ports.Cache
	session  ports.SessionProvider
	metrics  *observability.Collector
	logger   *zap.Logger
	cacheTTL atomic.Int64
}

// NewRecipeService creates the mutation layer. A non-positive
// ttlSeconds falls back to the default.
func NewRecipeService(
	repo ports.RecipeRepository,
	cache ports.Cache,
	session ports.SessionProvider,
	metrics *observability.Collector,
	logger *zap.Logger,
	ttlSeconds int,
) *RecipeService {
	s := &RecipeService{
		repo:    repo,
		cache:   cache,
		session: session,
		metrics: metrics,
		logger:  logger,
	}
	s.SetCacheTTL(ttlSeconds)
	return s
}

// SetCacheTTL changes the materialization TTL. Safe to call while the
// service is live; the settings watcher calls this on hot reload.
func (s *RecipeService) SetCacheTTL(ttlSeconds int) {
	if ttlSeconds <= 0 {
		ttlSeconds = defaultCacheTTL
	}
	s.cacheTTL.Store(int64(ttlSeconds))
}

func (s *RecipeService) ttl() int {
	return int(s.cacheTTL.Load())
}

// List returns the user's recipes ordered by display position, served
// from the cached materialization when present
func (s *RecipeService) List(ctx context.Context) ([]*entities.Recipe, error) {
	key, err := s.listKey(ctx)
	if err != nil {
		return nil, err
	}

	if cached, ok := s.cachedList(ctx, key); ok {
		s.metrics.RecordCacheHit()
		return cloneList(cached), nil
	}
	s.metrics.RecordCacheMiss()

	recipes, err := s.repo.FetchAll(ctx)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, key, recipes, s.ttl())
	return cloneList(recipes), nil
}

// Get returns one recipe, preferring the entity-level cache slot
func (s *RecipeService) Get(ctx context.Context, id valueobjects.RecipeID) (*entities.Recipe, error) {
	if v, ok := s.cache.Get(ctx, entityKey(id)); ok {
		if r, ok := v.(*entities.Recipe); ok {
			s.metrics.RecordCacheHit()
			return r.Clone(), nil
		}
	}
	s.metrics.RecordCacheMiss()

	recipe, err := s.repo.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, entityKey(id), recipe, s.ttl())
	return recipe.Clone(), nil
}

// Create persists a draft. There is no optimistic insert: creation
// needs the server-assigned identity, so the caller shows a pending
// state until this returns. On success the new entity is appended to
// the cached list.
func (s *RecipeService) Create(ctx context.Context, draft *entities.RecipeDraft) (*entities.Recipe, error) {
	key, err := s.listKey(ctx)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, draft)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, entityKey(created.ID()), created, s.ttl())
	if cached, ok := s.cachedList(ctx, key); ok {
		s.cache.Set(ctx, key, append(cloneList(cached), created), s.ttl())
	}

	if s.metrics != nil {
		s.metrics.RecipesCreated.Inc()
	}
	s.logger.Info("Recipe created",
		zap.String("recipeID", created.ID().String()),
		zap.Int("orderIndex", created.OrderIndex()),
	)
	return created.Clone(), nil
}

// Update applies a partial field edit. Generic edits are not
// latency-sensitive, so no optimistic write is taken: the cache
// changes only after remote confirmation and stays untouched on error.
func (s *RecipeService) Update(ctx context.Context, id valueobjects.RecipeID, changes ports.UpdateRecipe) (*entities.Recipe, error) {
	if changes.IsEmpty() {
		return nil, pkgerrors.NewValidationError("no fields to update")
	}

	// A replacement tag list obeys the same rules AddTag enforces on
	// the create path
	if changes.Tags != nil {
		tags, err := entities.NormalizeTags(*changes.Tags)
		if err != nil {
			return nil, err
		}
		changes.Tags = &tags
	}

	key, err := s.listKey(ctx)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, id, changes)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, entityKey(id), updated, s.ttl())
	s.replaceInCachedList(ctx, key, updated)
	return updated.Clone(), nil
}

// Delete removes a recipe. Removal from the cache happens only after
// remote confirmation so a failed delete never flickers.
func (s *RecipeService) Delete(ctx context.Context, id valueobjects.RecipeID) error {
	key, err := s.listKey(ctx)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.cache.Delete(ctx, entityKey(id))
	if cached, ok := s.cachedList(ctx, key); ok {
		remaining := make([]*entities.Recipe, 0, len(cached))
		for _, r := range cached {
			if !r.ID().Equals(id) {
				remaining = append(remaining, r.Clone())
			}
		}
		s.cache.Set(ctx, key, remaining, s.ttl())
	}

	if s.metrics != nil {
		s.metrics.RecipesDeleted.Inc()
	}
	s.logger.Info("Recipe deleted", zap.String("recipeID", id.String()))
	return nil
}

// ToggleFavourite flips the favourite flag optimistically: the
// entity-level slot changes immediately, the remote update fires, and
// a failure reverts the flip. The list-level slot is only updated on
// remote success.
func (s *RecipeService) ToggleFavourite(ctx context.Context, id valueobjects.RecipeID) (*entities.Recipe, error) {
	key, err := s.listKey(ctx)
	if err != nil {
		return nil, err
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	target := !current.IsFavourite()
	snapshot := current.Clone()
	speculative := current.Clone()
	speculative.SetFavourite(target)

	var updated *entities.Recipe
	mutation := optimisticMutation{
		speculate: func() {
			s.cache.Set(ctx, entityKey(id), speculative, s.ttl())
		},
		remote: func() error {
			var remoteErr error
			updated, remoteErr = s.repo.SetFavourite(ctx, id, target)
			return remoteErr
		},
		restore: func() {
			s.cache.Set(ctx, entityKey(id), snapshot, s.ttl())
		},
	}

	if err := mutation.run(); err != nil {
		s.logger.Warn("Favourite toggle reverted",
			zap.String("recipeID", id.String()),
			zap.Error(err),
		)
		return nil, err
	}

	s.cache.Set(ctx, entityKey(id), updated, s.ttl())
	s.replaceInCachedList(ctx, key, updated)
	return updated.Clone(), nil
}

// Reorder applies a drag-reorder batch fully optimistically: the
// cached list is snapshotted, rewritten with the new order indexes and
// re-sorted before any remote call. The per-record remote updates run
// concurrently in flight; if any fails the pre-mutation snapshot is
// restored. Success or failure, the list is invalidated afterwards so
// a fresh fetch reconciles residual drift.
func (s *RecipeService) Reorder(ctx context.Context, changes []ports.OrderChange) error {
	if len(changes) == 0 {
		return nil
	}

	key, err := s.listKey(ctx)
	if err != nil {
		return err
	}

	current, ok := s.cachedList(ctx, key)
	if !ok {
		current, err = s.repo.FetchAll(ctx)
		if err != nil {
			return err
		}
	}
	snapshot := cloneList(current)

	optimistic := cloneList(current)
	newIndex := make(map[string]int, len(changes))
	for _, ch := range changes {
		newIndex[ch.ID.String()] = ch.OrderIndex
	}
	for _, r := range optimistic {
		if idx, ok := newIndex[r.ID().String()]; ok {
			r.SetOrderIndex(idx)
		}
	}
	sortByOrderIndex(optimistic)

	mutation := optimisticMutation{
		speculate: func() {
			s.cache.Set(ctx, key, optimistic, s.ttl())
		},
		remote: func() error {
			g, gctx := errgroup.WithContext(ctx)
			for _, ch := range changes {
				ch := ch
				g.Go(func() error {
					idx := ch.OrderIndex
					_, err := s.repo.Update(gctx, ch.ID, ports.UpdateRecipe{OrderIndex: &idx})
					return err
				})
			}
			return g.Wait()
		},
		restore: func() {
			s.cache.Set(ctx, key, snapshot, s.ttl())
		},
		settle: func() {
			s.cache.Delete(ctx, key)
		},
	}

	if err := mutation.run(); err != nil {
		s.logger.Warn("Reorder rolled back",
			zap.Int("batchSize", len(changes)),
			zap.Error(err),
		)
		return err
	}

	s.logger.Info("Recipes reordered", zap.Int("batchSize", len(changes)))
	return nil
}

// Search computes the visible subset for the given criteria. With any
// push-down-eligible criterion active the favourite/tag predicates are
// applied remotely; the full filter pipeline always runs over the
// fetched set afterwards, so both paths behave identically.
func (s *RecipeService) Search(ctx context.Context, filters domainservices.RecipeFilters) ([]*entities.Recipe, error) {
	if filters.IsZero() || (len(filters.SelectedTags) == 0 && !filters.ShowFavouritesOnly) {
		all, err := s.List(ctx)
		if err != nil {
			return nil, err
		}
		return domainservices.FilterRecipes(all, filters), nil
	}

	fetched, err := s.repo.Search(ctx, filters)
	if err != nil {
		return nil, err
	}
	return domainservices.FilterRecipes(fetched, filters), nil
}

// Tags returns the distinct tags across the user's recipes
func (s *RecipeService) Tags(ctx context.Context) ([]string, error) {
	return s.repo.ListTags(ctx)
}

// Refresh drops the cached materialization so the next read refetches
func (s *RecipeService) Refresh(ctx context.Context) error {
	key, err := s.listKey(ctx)
	if err != nil {
		return err
	}
	return s.cache.Delete(ctx, key)
}

func (s *RecipeService) listKey(ctx context.Context) (string, error) {
	userID, err := s.session.CurrentUserID(ctx)
	if err != nil {
		return "", err
	}
	return recipeListKeyPrefix + userID, nil
}

func (s *RecipeService) cachedList(ctx context.Context, key string) ([]*entities.Recipe, bool) {
	v, ok := s.cache.Get(ctx, key)
	if !ok {
		return nil, false
	}
	list, ok := v.([]*entities.Recipe)
	return list, ok
}

func (s *RecipeService) replaceInCachedList(ctx context.Context, key string, updated *entities.Recipe) {
	cached, ok := s.cachedList(ctx, key)
	if !ok {
		return
	}
	next := cloneList(cached)
	for i, r := range next {
		if r.ID().Equals(updated.ID()) {
			next[i] = updated.Clone()
		}
	}
	s.cache.Set(ctx, key, next, s.ttl())
}

func entityKey(id valueobjects.RecipeID) string {
	return recipeEntityKeyPrefix + id.String()
}

func cloneList(recipes []*entities.Recipe) []*entities.Recipe {
	out := make([]*entities.Recipe, len(recipes))
	for i, r := range recipes {
		out[i] = r.Clone()
	}
	return out
}

func sortByOrderIndex(recipes []*entities.Recipe) {
	sort.SliceStable(recipes, func(i, j int) bool {
		return recipes[i].OrderIndex() < recipes[j].OrderIndex()
	})
}
