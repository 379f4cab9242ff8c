package entities

import (
	"strings"

	"flavourvault-backend/domain/config"
	"flavourvault-backend/domain/core/valueobjects"
	pkgerrors "flavourvault-backend/pkg/errors"
)

// RecipeDraft is a recipe that has not been persisted yet: it carries
// no identity, owner, or timestamps. Drafts may only flow into create
// operations; update and delete require a persisted Recipe.
type RecipeDraft struct {
	name        string
	servings    int
	notes       string
	ingredients []valueobjects.Ingredient
	tags        []string
	orderIndex  *int
}

// NewRecipeDraft creates a draft with full business rule validation
func NewRecipeDraft(name string, servings int, notes string, ingredients []valueobjects.Ingredient) (*RecipeDraft, error) {
	cfg := config.DefaultDomainConfig()

	if strings.TrimSpace(name) == "" {
		return nil, pkgerrors.NewValidationError("recipe name cannot be empty")
	}
	if len(name) > cfg.MaxNameLength {
		return nil, pkgerrors.NewValidationError("recipe name is too long")
	}
	if servings < cfg.MinServings {
		return nil, pkgerrors.NewValidationError("servings must be at least 1")
	}
	if len(notes) > cfg.MaxNotesLength {
		return nil, pkgerrors.NewValidationError("notes are too long")
	}
	if len(ingredients) > cfg.MaxIngredientsPerRecipe {
		return nil, pkgerrors.NewValidationError("too many ingredients")
	}

	return &RecipeDraft{
		name:        name,
		servings:    servings,
		notes:       notes,
		ingredients: append([]valueobjects.Ingredient(nil), ingredients...),
	}, nil
}

// Name returns the draft name
func (d *RecipeDraft) Name() string {
	return d.name
}

// Servings returns the draft serving count
func (d *RecipeDraft) Servings() int {
	return d.servings
}

// Notes returns the draft notes
func (d *RecipeDraft) Notes() string {
	return d.notes
}

// Ingredients returns the ordered ingredient list
func (d *RecipeDraft) Ingredients() []valueobjects.Ingredient {
	out := make([]valueobjects.Ingredient, len(d.ingredients))
	copy(out, d.ingredients)
	return out
}

// Tags returns the tag list in insertion order
func (d *RecipeDraft) Tags() []string {
	tags := make([]string, len(d.tags))
	copy(tags, d.tags)
	return tags
}

// AddTag appends a tag with the same cap semantics as Recipe.AddTag:
// duplicates and overflow are silent no-ops.
func (d *RecipeDraft) AddTag(tag string) error {
	if strings.TrimSpace(tag) == "" {
		return pkgerrors.NewValidationError("tag cannot be empty")
	}
	for _, t := range d.tags {
		if t == tag {
			return nil
		}
	}
	if len(d.tags) >= config.DefaultDomainConfig().MaxTagsPerRecipe {
		return nil
	}
	d.tags = append(d.tags, tag)
	return nil
}

// WithOrderIndex pins an explicit display position. Without it the
// repository assigns one (max+1 on create, input position on bulk
// create).
func (d *RecipeDraft) WithOrderIndex(index int) *RecipeDraft {
	d.orderIndex = &index
	return d
}

// OrderIndex returns the pinned position, if any
func (d *RecipeDraft) OrderIndex() (int, bool) {
	if d.orderIndex == nil {
		return 0, false
	}
	return *d.orderIndex, true
}
