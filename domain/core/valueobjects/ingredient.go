package valueobjects

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// Ingredient is a value object describing one line of a recipe's
// ingredient list. It is owned exclusively by its parent recipe and
// has no independent lifecycle; the ID is only unique within a recipe.
type Ingredient struct {
	id     string
	name   string
	amount float64
	unit   string
}

// NewIngredient creates an ingredient with a generated line ID
func NewIngredient(name string, amount float64, unit string) (Ingredient, error) {
	return ReconstructIngredient(uuid.New().String(), name, amount, unit)
}

// ReconstructIngredient rebuilds an ingredient from persisted data
func ReconstructIngredient(id, name string, amount float64, unit string) (Ingredient, error) {
	if id == "" {
		id = uuid.New().String()
	}
	if strings.TrimSpace(name) == "" {
		return Ingredient{}, errors.New("ingredient name cannot be empty")
	}
	if amount < 0 {
		return Ingredient{}, errors.New("ingredient amount cannot be negative")
	}
	return Ingredient{
		id:     id,
		name:   name,
		amount: amount,
		unit:   unit,
	}, nil
}

// ID returns the line identifier
func (i Ingredient) ID() string {
	return i.id
}

// Name returns the ingredient name
func (i Ingredient) Name() string {
	return i.name
}

// Amount returns the quantity
func (i Ingredient) Amount() float64 {
	return i.amount
}

// Unit returns the measurement unit
func (i Ingredient) Unit() string {
	return i.unit
}

// Scaled returns a copy with the amount multiplied by factor.
// The line ID is preserved so scaled lists stay correlated with
// the original ordering.
func (i Ingredient) Scaled(factor float64) Ingredient {
	return Ingredient{
		id:     i.id,
		name:   i.name,
		amount: i.amount * factor,
		unit:   i.unit,
	}
}

// NameEqualsFold reports whether the ingredient name matches the given
// term exactly, ignoring case. Exact match is deliberate: ingredient
// search does not use substring semantics.
func (i Ingredient) NameEqualsFold(term string) bool {
	return strings.EqualFold(i.name, term)
}

// Equals checks structural equality of two ingredients
func (i Ingredient) Equals(other Ingredient) bool {
	return i.id == other.id &&
		i.name == other.name &&
		i.amount == other.amount &&
		i.unit == other.unit
}
