package config

// DomainConfig holds the business limits applied by the recipe domain.
// Defaults mirror the product rules; callers can construct a different
// configuration for tests.
type DomainConfig struct {
	// MaxTagsPerRecipe caps the tag list. Adding a tag beyond the cap
	// is a silent no-op, not an error.
	MaxTagsPerRecipe int

	// MaxIngredientsPerRecipe caps the ingredient list
	MaxIngredientsPerRecipe int

	// MaxNameLength caps the recipe name
	MaxNameLength int

	// MaxNotesLength caps the free-text notes
	MaxNotesLength int

	// MinServings is the lowest valid serving count
	MinServings int
}

// DefaultDomainConfig returns the standard limits
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		MaxTagsPerRecipe:        5,
		MaxIngredientsPerRecipe: 100,
		MaxNameLength:           200,
		MaxNotesLength:          10000,
		MinServings:             1,
	}
}
