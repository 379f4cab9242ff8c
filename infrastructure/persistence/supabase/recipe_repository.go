package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"github.com/supabase-community/postgrest-go"
	"go.uber.org/zap"

	"flavourvault-backend/application/ports"
	"flavourvault-backend/domain/core/entities"
	"flavourvault-backend/domain/core/services"
	"flavourvault-backend/domain/core/valueobjects"
	pkgerrors "flavourvault-backend/pkg/errors"
	"flavourvault-backend/pkg/observability"
)

const recipesTable = "recipes"

// distinctTagsFunction is the server-side aggregation returning the
// distinct tags for one user
const distinctTagsFunction = "distinct_recipe_tags"

// RecipeRepository talks to the hosted PostgREST store. Every
// operation is scoped to the current authenticated user by an explicit
// user_id filter on top of the store's own row-level security, and
// every failure is converted to the AppError taxonomy before it
// crosses this boundary.
type RecipeRepository struct {
	db      *postgrest.Client
	session ports.SessionProvider
	breaker *gobreaker.CircuitBreaker
	metrics *observability.Collector
	logger  *zap.Logger
}

// NewRecipeRepository creates a repository over an initialized
// PostgREST client
func NewRecipeRepository(
	db *postgrest.Client,
	session ports.SessionProvider,
	metrics *observability.Collector,
	logger *zap.Logger,
) *RecipeRepository {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "supabase-recipes",
		MaxRequests: 3,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		// Client-class outcomes are not store health signals
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			return pkgerrors.IsNotFound(err) ||
				pkgerrors.IsValidation(err) ||
				pkgerrors.IsUnauthorized(err) ||
				pkgerrors.IsConflict(err)
		},
	})

	return &RecipeRepository{
		db:      db,
		session: session,
		breaker: breaker,
		metrics: metrics,
		logger:  logger,
	}
}

// FetchAll retrieves the user's recipes ordered by order_index ascending
func (r *RecipeRepository) FetchAll(ctx context.Context) ([]*entities.Recipe, error) {
	userID, err := r.session.CurrentUserID(ctx)
	if err != nil {
		return nil, err
	}

	data, err := r.execute(ctx, "fetch_all", func() ([]byte, error) {
		raw, _, err := r.db.From(recipesTable).
			Select("*", "", false).
			Eq("user_id", userID).
			Order("order_index", &postgrest.OrderOpts{Ascending: true}).
			Execute()
		return raw, err
	})
	if err != nil {
		return nil, err
	}

	return decodeRecipes(data)
}

// FetchByID retrieves one recipe; a missing row is NOT_FOUND
func (r *RecipeRepository) FetchByID(ctx context.Context, id valueobjects.RecipeID) (*entities.Recipe, error) {
	userID, err := r.session.CurrentUserID(ctx)
	if err != nil {
		return nil, err
	}

	data, err := r.execute(ctx, "fetch_one", func() ([]byte, error) {
		raw, _, err := r.db.From(recipesTable).
			Select("*", "", false).
			Eq("id", id.String()).
			Eq("user_id", userID).
			Single().
			Execute()
		return raw, err
	})
	if err != nil {
		return nil, err
	}

	var rec recipeRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, pkgerrors.NewExternalError("recipe store", err)
	}
	return rec.toEntity()
}

// Create persists a draft, assigning the next free order index
// (max+1) when the draft does not pin one
func (r *RecipeRepository) Create(ctx context.Context, draft *entities.RecipeDraft) (*entities.Recipe, error) {
	userID, err := r.session.CurrentUserID(ctx)
	if err != nil {
		return nil, err
	}

	orderIndex, pinned := draft.OrderIndex()
	if !pinned {
		orderIndex, err = r.nextOrderIndex(ctx, userID)
		if err != nil {
			return nil, err
		}
	}

	row := newInsertRecord(draft, userID, orderIndex)
	data, err := r.execute(ctx, "create", func() ([]byte, error) {
		raw, _, err := r.db.From(recipesTable).
			Insert([]insertRecord{row}, false, "", "representation", "").
			Execute()
		return raw, err
	})
	if err != nil {
		return nil, err
	}

	created, err := decodeRecipes(data)
	if err != nil {
		return nil, err
	}
	if len(created) == 0 {
		return nil, pkgerrors.NewExternalError("recipe store", fmt.Errorf("insert returned no rows"))
	}
	return created[0], nil
}

// Update applies a partial field set and returns the refreshed row.
// updated_at is always touched.
func (r *RecipeRepository) Update(ctx context.Context, id valueobjects.RecipeID, changes ports.UpdateRecipe) (*entities.Recipe, error) {
	userID, err := r.session.CurrentUserID(ctx)
	if err != nil {
		return nil, err
	}

	payload := updatePayload(changes)
	data, err := r.execute(ctx, "update", func() ([]byte, error) {
		raw, _, err := r.db.From(recipesTable).
			Update(payload, "representation", "").
			Eq("id", id.String()).
			Eq("user_id", userID).
			Execute()
		return raw, err
	})
	if err != nil {
		return nil, err
	}

	updated, err := decodeRecipes(data)
	if err != nil {
		return nil, err
	}
	if len(updated) == 0 {
		return nil, pkgerrors.NewNotFoundError("recipe")
	}
	return updated[0], nil
}

// Delete removes a recipe
func (r *RecipeRepository) Delete(ctx context.Context, id valueobjects.RecipeID) error {
	userID, err := r.session.CurrentUserID(ctx)
	if err != nil {
		return err
	}

	_, err = r.execute(ctx, "delete", func() ([]byte, error) {
		raw, _, err := r.db.From(recipesTable).
			Delete("", "").
			Eq("id", id.String()).
			Eq("user_id", userID).
			Execute()
		return raw, err
	})
	return err
}

// BulkCreate persists many drafts in one request. Order indexes
// default to the input position when not pinned; used by migration.
func (r *RecipeRepository) BulkCreate(ctx context.Context, drafts []*entities.RecipeDraft) ([]*entities.Recipe, error) {
	userID, err := r.session.CurrentUserID(ctx)
	if err != nil {
		return nil, err
	}
	if len(drafts) == 0 {
		return nil, nil
	}

	rows := make([]insertRecord, len(drafts))
	for i, draft := range drafts {
		orderIndex, pinned := draft.OrderIndex()
		if !pinned {
			orderIndex = i
		}
		rows[i] = newInsertRecord(draft, userID, orderIndex)
	}

	data, err := r.execute(ctx, "bulk_create", func() ([]byte, error) {
		raw, _, err := r.db.From(recipesTable).
			Insert(rows, false, "", "representation", "").
			Execute()
		return raw, err
	})
	if err != nil {
		return nil, err
	}

	return decodeRecipes(data)
}

// SetFavourite updates only the favourite flag
func (r *RecipeRepository) SetFavourite(ctx context.Context, id valueobjects.RecipeID, favourite bool) (*entities.Recipe, error) {
	fav := favourite
	return r.Update(ctx, id, ports.UpdateRecipe{IsFavourite: &fav})
}

// ListTags returns the distinct tags across the user's recipes via
// the server-side aggregation function
func (r *RecipeRepository) ListTags(ctx context.Context) ([]string, error) {
	userID, err := r.session.CurrentUserID(ctx)
	if err != nil {
		return nil, err
	}

	data, err := r.execute(ctx, "list_tags", func() ([]byte, error) {
		raw := r.db.Rpc(distinctTagsFunction, "", map[string]string{"p_user_id": userID})
		if r.db.ClientError != nil {
			return nil, r.db.ClientError
		}
		return []byte(raw), nil
	})
	if err != nil {
		return nil, err
	}

	var tags []string
	if err := json.Unmarshal(data, &tags); err != nil {
		return nil, pkgerrors.NewExternalError("recipe store", err)
	}
	return tags, nil
}

// Search pushes the favourite and tag predicates down to the store
// (equality filter and array-overlap) and returns the matching rows in
// display order. Text matching is not pushed down; the caller re-runs
// the full filter pipeline over the result.
func (r *RecipeRepository) Search(ctx context.Context, filters services.RecipeFilters) ([]*entities.Recipe, error) {
	userID, err := r.session.CurrentUserID(ctx)
	if err != nil {
		return nil, err
	}

	data, err := r.execute(ctx, "search", func() ([]byte, error) {
		query := r.db.From(recipesTable).
			Select("*", "", false).
			Eq("user_id", userID)
		if filters.ShowFavouritesOnly {
			query = query.Eq("is_favourite", "true")
		}
		if len(filters.SelectedTags) > 0 {
			query = query.Filter("tags", "ov", toArrayLiteral(filters.SelectedTags))
		}
		raw, _, err := query.
			Order("order_index", &postgrest.OrderOpts{Ascending: true}).
			Execute()
		return raw, err
	})
	if err != nil {
		return nil, err
	}

	return decodeRecipes(data)
}

// nextOrderIndex finds the highest order index in use and returns the
// next one, so new recipes append at the end of the display order
func (r *RecipeRepository) nextOrderIndex(ctx context.Context, userID string) (int, error) {
	data, err := r.execute(ctx, "max_order_index", func() ([]byte, error) {
		raw, _, err := r.db.From(recipesTable).
			Select("order_index", "", false).
			Eq("user_id", userID).
			Order("order_index", &postgrest.OrderOpts{Ascending: false}).
			Limit(1, "").
			Execute()
		return raw, err
	})
	if err != nil {
		return 0, err
	}

	var rows []struct {
		OrderIndex int `json:"order_index"`
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return 0, pkgerrors.NewExternalError("recipe store", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].OrderIndex + 1, nil
}

// execute funnels every remote call through the circuit breaker,
// records metrics and maps raw failures to the error taxonomy
func (r *RecipeRepository) execute(ctx context.Context, operation string, fn func() ([]byte, error)) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, pkgerrors.MapRemoteError(operation, err)
	}

	start := time.Now()
	result, err := r.breaker.Execute(func() (interface{}, error) {
		data, err := fn()
		if err != nil {
			return nil, pkgerrors.MapRemoteError(operation, err)
		}
		return data, nil
	})

	status := "ok"
	if err != nil {
		status = "error"
	}
	r.metrics.ObserveRepositoryOp(operation, status, time.Since(start))

	if err != nil {
		mapped := pkgerrors.MapRemoteError(operation, err)
		r.logger.Warn("Remote repository call failed",
			zap.String("operation", operation),
			zap.Error(err),
		)
		return nil, mapped
	}
	return result.([]byte), nil
}

// toArrayLiteral renders a Postgres array literal for the overlap
// predicate, quoting each element
func toArrayLiteral(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
	}
	return "{" + strings.Join(quoted, ",") + "}"
}
