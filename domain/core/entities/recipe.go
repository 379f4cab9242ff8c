package entities

import (
	"strings"
	"time"

	"flavourvault-backend/domain/config"
	"flavourvault-backend/domain/core/valueobjects"
	pkgerrors "flavourvault-backend/pkg/errors"
)

// Recipe is the main entity of the system: a persisted, owner-scoped
// recipe with an ordered ingredient list and a display position among
// the owner's other recipes.
//
// A Recipe always corresponds to a remote row. Client-side drafts that
// have not been persisted yet are represented by RecipeDraft, so the
// create/update distinction is made at the type level rather than by
// sniffing a reserved ID prefix.
type Recipe struct {
	// Private fields ensure encapsulation
	id          valueobjects.RecipeID
	ownerID     string
	name        string
	servings    int
	notes       string
	ingredients []valueobjects.Ingredient
	tags        []string
	favourite   bool
	orderIndex  int
	createdAt   time.Time
	updatedAt   time.Time
}

// ReconstructRecipe rebuilds a recipe from repository data with
// preserved timestamps. Ingredient order is kept exactly as given.
func ReconstructRecipe(
	id valueobjects.RecipeID,
	ownerID string,
	name string,
	servings int,
	notes string,
	ingredients []valueobjects.Ingredient,
	tags []string,
	favourite bool,
	orderIndex int,
	createdAt, updatedAt time.Time,
) (*Recipe, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewValidationError("recipe ID cannot be empty")
	}
	if ownerID == "" {
		return nil, pkgerrors.NewValidationError("ownerID cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, pkgerrors.NewValidationError("recipe name cannot be empty")
	}
	if servings < config.DefaultDomainConfig().MinServings {
		return nil, pkgerrors.NewValidationError("servings must be at least 1")
	}

	r := &Recipe{
		id:          id,
		ownerID:     ownerID,
		name:        name,
		servings:    servings,
		notes:       notes,
		ingredients: append([]valueobjects.Ingredient(nil), ingredients...),
		tags:        append([]string(nil), tags...),
		favourite:   favourite,
		orderIndex:  orderIndex,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}

	return r, nil
}

// ID returns the recipe's unique identifier
func (r *Recipe) ID() valueobjects.RecipeID {
	return r.id
}

// OwnerID returns the owning user's ID
func (r *Recipe) OwnerID() string {
	return r.ownerID
}

// Name returns the recipe name
func (r *Recipe) Name() string {
	return r.name
}

// Servings returns the serving count
func (r *Recipe) Servings() int {
	return r.servings
}

// Notes returns the free-text notes
func (r *Recipe) Notes() string {
	return r.notes
}

// IsFavourite reports whether the owner marked the recipe a favourite
func (r *Recipe) IsFavourite() bool {
	return r.favourite
}

// OrderIndex returns the recipe's position in the owner's display
// order. Indexes are unique per owner at rest but not necessarily
// contiguous.
func (r *Recipe) OrderIndex() int {
	return r.orderIndex
}

// CreatedAt returns when the recipe was created
func (r *Recipe) CreatedAt() time.Time {
	return r.createdAt
}

// UpdatedAt returns when the recipe was last updated
func (r *Recipe) UpdatedAt() time.Time {
	return r.updatedAt
}

// Ingredients returns the ordered ingredient list
func (r *Recipe) Ingredients() []valueobjects.Ingredient {
	// Return a copy to maintain encapsulation
	out := make([]valueobjects.Ingredient, len(r.ingredients))
	copy(out, r.ingredients)
	return out
}

// Tags returns the tag list in insertion order
func (r *Recipe) Tags() []string {
	tags := make([]string, len(r.tags))
	copy(tags, r.tags)
	return tags
}

// Rename changes the recipe name with validation
func (r *Recipe) Rename(name string) error {
	if strings.TrimSpace(name) == "" {
		return pkgerrors.NewValidationError("recipe name cannot be empty")
	}
	if name == r.name {
		return nil
	}
	r.name = name
	r.touch()
	return nil
}

// SetServings changes the serving count with validation
func (r *Recipe) SetServings(servings int) error {
	if servings < config.DefaultDomainConfig().MinServings {
		return pkgerrors.NewValidationError("servings must be at least 1")
	}
	r.servings = servings
	r.touch()
	return nil
}

// UpdateNotes replaces the free-text notes
func (r *Recipe) UpdateNotes(notes string) {
	r.notes = notes
	r.touch()
}

// ReplaceIngredients swaps the ingredient list, preserving the order
// of the given sequence
func (r *Recipe) ReplaceIngredients(ingredients []valueobjects.Ingredient) {
	r.ingredients = append([]valueobjects.Ingredient(nil), ingredients...)
	r.touch()
}

// SetFavourite sets the favourite flag
func (r *Recipe) SetFavourite(favourite bool) {
	r.favourite = favourite
	r.touch()
}

// ToggleFavourite flips the favourite flag and returns the new value
func (r *Recipe) ToggleFavourite() bool {
	r.favourite = !r.favourite
	r.touch()
	return r.favourite
}

// SetOrderIndex moves the recipe to a new display position
func (r *Recipe) SetOrderIndex(index int) {
	r.orderIndex = index
	r.touch()
}

// AddTag appends a tag. Duplicates and additions beyond the tag cap
// are silently ignored; only an empty tag is a validation error.
func (r *Recipe) AddTag(tag string) error {
	return r.AddTagWithConfig(tag, config.DefaultDomainConfig())
}

// AddTagWithConfig appends a tag using the given domain limits
func (r *Recipe) AddTagWithConfig(tag string, cfg *config.DomainConfig) error {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	if strings.TrimSpace(tag) == "" {
		return pkgerrors.NewValidationError("tag cannot be empty")
	}

	for _, t := range r.tags {
		if t == tag {
			return nil // Tag already exists
		}
	}

	// The cap rejects by no-op, not by error
	if len(r.tags) >= cfg.MaxTagsPerRecipe {
		return nil
	}

	r.tags = append(r.tags, tag)
	r.touch()
	return nil
}

// RemoveTag removes a tag from the recipe
func (r *Recipe) RemoveTag(tag string) error {
	newTags := make([]string, 0, len(r.tags))
	found := false

	for _, t := range r.tags {
		if t != tag {
			newTags = append(newTags, t)
		} else {
			found = true
		}
	}

	if !found {
		return pkgerrors.NewNotFoundError("tag")
	}

	r.tags = newTags
	r.touch()
	return nil
}

// HasAnyTag reports whether the recipe carries at least one of the
// given tags (OR semantics)
func (r *Recipe) HasAnyTag(tags []string) bool {
	for _, want := range tags {
		for _, have := range r.tags {
			if have == want {
				return true
			}
		}
	}
	return false
}

// ScaledIngredients returns a copy of the ingredient list with every
// amount multiplied by factor. The recipe itself is not modified and
// ingredient order is preserved.
func (r *Recipe) ScaledIngredients(factor float64) ([]valueobjects.Ingredient, error) {
	if factor <= 0 {
		return nil, pkgerrors.NewValidationError("scale factor must be positive")
	}
	out := make([]valueobjects.Ingredient, len(r.ingredients))
	for i, ing := range r.ingredients {
		out[i] = ing.Scaled(factor)
	}
	return out, nil
}

// Clone returns a deep copy. The cache layer hands out clones so the
// cached materialization is never aliased by callers.
func (r *Recipe) Clone() *Recipe {
	c := *r
	c.ingredients = append([]valueobjects.Ingredient(nil), r.ingredients...)
	c.tags = append([]string(nil), r.tags...)
	return &c
}

func (r *Recipe) touch() {
	r.updatedAt = time.Now()
}
