package ports

import (
	"context"

	"flavourvault-backend/domain/core/entities"
	"flavourvault-backend/domain/core/services"
	"flavourvault-backend/domain/core/valueobjects"
)

// UpdateRecipe carries a partial field set for an update. Nil fields
// are left untouched; the repository always refreshes the updated_at
// timestamp.
type UpdateRecipe struct {
	Name        *string
	Servings    *int
	Notes       *string
	Ingredients *[]valueobjects.Ingredient
	Tags        *[]string
	IsFavourite *bool
	OrderIndex  *int
}

// IsEmpty reports whether no field is set
func (u UpdateRecipe) IsEmpty() bool {
	return u.Name == nil && u.Servings == nil && u.Notes == nil &&
		u.Ingredients == nil && u.Tags == nil && u.IsFavourite == nil &&
		u.OrderIndex == nil
}

// OrderChange assigns a new display position to one recipe as part of
// a reorder batch
type OrderChange struct {
	ID         valueobjects.RecipeID
	OrderIndex int
}

// RecipeRepository defines the interface for remote recipe persistence.
// This is a port in hexagonal architecture - the domain doesn't know
// about the implementation. Every operation is scoped to the current
// authenticated user's own rows, and every failure comes back as a
// typed error; implementations never panic past this boundary.
type RecipeRepository interface {
	// FetchAll retrieves the user's recipes ordered by order_index ascending
	FetchAll(ctx context.Context) ([]*entities.Recipe, error)

	// FetchByID retrieves one recipe; a missing row is a NOT_FOUND
	// error, distinct from transport failures
	FetchByID(ctx context.Context, id valueobjects.RecipeID) (*entities.Recipe, error)

	// Create persists a draft. The store assigns id and timestamps; if
	// the draft carries no order index the next free one (max+1) is used.
	Create(ctx context.Context, draft *entities.RecipeDraft) (*entities.Recipe, error)

	// Update applies a partial field set and returns the refreshed row
	Update(ctx context.Context, id valueobjects.RecipeID, changes UpdateRecipe) (*entities.Recipe, error)

	// Delete removes a recipe
	Delete(ctx context.Context, id valueobjects.RecipeID) error

	// BulkCreate persists many drafts at once (used by migration).
	// Owner is injected per row; order indexes default to the input
	// position when not pinned.
	BulkCreate(ctx context.Context, drafts []*entities.RecipeDraft) ([]*entities.Recipe, error)

	// SetFavourite updates only the favourite flag. Semantically an
	// update, exposed separately for clarity of intent.
	SetFavourite(ctx context.Context, id valueobjects.RecipeID, favourite bool) (*entities.Recipe, error)

	// ListTags returns the distinct tags across the user's recipes
	ListTags(ctx context.Context) ([]string, error)

	// Search applies the favourite and tag predicates remotely and
	// returns a superset the caller still text-filters; see the filter
	// engine for why both paths stay observably identical.
	Search(ctx context.Context, filters services.RecipeFilters) ([]*entities.Recipe, error)
}

// Cache defines the interface for the session-scoped materialization
// of remote state. One materialization exists per user session; only
// the mutation layer writes it.
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set stores a value in cache with TTL in seconds
	Set(ctx context.Context, key string, value interface{}, ttl int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Clear removes all values from cache
	Clear(ctx context.Context) error
}
