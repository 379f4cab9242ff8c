package ports

// LegacyIngredient is the wire shape of an ingredient in the legacy
// local store
type LegacyIngredient struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

// LegacyRecipe is the pre-authentication recipe shape: no owner, tags,
// favourite flag or timestamps, a numeric display order and an epoch
// milliseconds creation time. It exists only in the legacy store and
// is consumed once by the migration engine.
type LegacyRecipe struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Servings    int                `json:"servings"`
	Notes       string             `json:"notes"`
	Ingredients []LegacyIngredient `json:"ingredients"`
	CreatedAt   int64              `json:"createdAt"`
	Order       int                `json:"order"`
}

// LegacyStore is the local, string-keyed persistence slot that held
// recipes before remote accounts existed. Reads and writes are plain
// get/set/remove with no transactional guarantee across keys.
type LegacyStore interface {
	// LoadRecipes reads the full legacy collection; an absent slot is
	// an empty collection, not an error
	LoadRecipes() ([]LegacyRecipe, error)

	// SaveRecipes overwrites the legacy collection
	SaveRecipes(recipes []LegacyRecipe) error

	// Clear removes the legacy collection slot
	Clear() error

	// MigrationCompleted reports the persisted completion flag
	MigrationCompleted() bool

	// MarkMigrationCompleted persists the completion flag
	MarkMigrationCompleted() error

	// ResetMigration clears the completion flag
	ResetMigration() error
}
