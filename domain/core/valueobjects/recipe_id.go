package valueobjects

import (
	"errors"

	"github.com/google/uuid"
)

// RecipeID is a value object representing a unique recipe identifier
// Value objects are immutable and have no identity beyond their value
type RecipeID struct {
	value string
}

// NewRecipeID creates a new random RecipeID
func NewRecipeID() RecipeID {
	return RecipeID{value: uuid.New().String()}
}

// NewRecipeIDFromString creates a RecipeID from an existing string
func NewRecipeIDFromString(id string) (RecipeID, error) {
	if id == "" {
		return RecipeID{}, errors.New("recipe ID cannot be empty")
	}
	if !isValidUUID(id) {
		return RecipeID{}, errors.New("recipe ID must be a valid UUID")
	}
	return RecipeID{value: id}, nil
}

// String returns the string representation of the RecipeID
func (id RecipeID) String() string {
	return id.value
}

// Equals checks if two RecipeIDs are equal
func (id RecipeID) Equals(other RecipeID) bool {
	return id.value == other.value
}

// IsZero checks if the RecipeID is the zero value
func (id RecipeID) IsZero() bool {
	return id.value == ""
}

// MarshalJSON implements json.Marshaler
func (id RecipeID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.value + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (id *RecipeID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return errors.New("RecipeID must be a string")
	}
	id.value = string(data[1 : len(data)-1])
	return nil
}

// isValidUUID validates if a string is a valid UUID
func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
