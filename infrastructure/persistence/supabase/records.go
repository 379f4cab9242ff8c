package supabase

import (
	"encoding/json"
	"time"

	"flavourvault-backend/application/ports"
	"flavourvault-backend/domain/core/entities"
	"flavourvault-backend/domain/core/valueobjects"
	pkgerrors "flavourvault-backend/pkg/errors"
)

// recipeRecord is the wire shape of a recipes row. Ingredients live in
// a jsonb column, tags in a text array.
type recipeRecord struct {
	ID          string             `json:"id"`
	UserID      string             `json:"user_id"`
	Name        string             `json:"name"`
	Servings    int                `json:"servings"`
	Notes       string             `json:"notes"`
	Ingredients []ingredientRecord `json:"ingredients"`
	Tags        []string           `json:"tags"`
	IsFavourite bool               `json:"is_favourite"`
	OrderIndex  int                `json:"order_index"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

type ingredientRecord struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

// insertRecord is the insert payload: id and timestamps are
// store-assigned and must not appear in the request body
type insertRecord struct {
	UserID      string             `json:"user_id"`
	Name        string             `json:"name"`
	Servings    int                `json:"servings"`
	Notes       string             `json:"notes"`
	Ingredients []ingredientRecord `json:"ingredients"`
	Tags        []string           `json:"tags"`
	IsFavourite bool               `json:"is_favourite"`
	OrderIndex  int                `json:"order_index"`
}

func newInsertRecord(draft *entities.RecipeDraft, userID string, orderIndex int) insertRecord {
	return insertRecord{
		UserID:      userID,
		Name:        draft.Name(),
		Servings:    draft.Servings(),
		Notes:       draft.Notes(),
		Ingredients: toIngredientRecords(draft.Ingredients()),
		Tags:        nonNilTags(draft.Tags()),
		IsFavourite: false,
		OrderIndex:  orderIndex,
	}
}

func (rec recipeRecord) toEntity() (*entities.Recipe, error) {
	id, err := valueobjects.NewRecipeIDFromString(rec.ID)
	if err != nil {
		return nil, pkgerrors.NewExternalError("recipe store", err)
	}

	ingredients := make([]valueobjects.Ingredient, 0, len(rec.Ingredients))
	for _, ir := range rec.Ingredients {
		ing, err := valueobjects.ReconstructIngredient(ir.ID, ir.Name, ir.Amount, ir.Unit)
		if err != nil {
			return nil, pkgerrors.NewExternalError("recipe store", err)
		}
		ingredients = append(ingredients, ing)
	}

	return entities.ReconstructRecipe(
		id,
		rec.UserID,
		rec.Name,
		rec.Servings,
		rec.Notes,
		ingredients,
		rec.Tags,
		rec.IsFavourite,
		rec.OrderIndex,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
}

func decodeRecipes(data []byte) ([]*entities.Recipe, error) {
	var records []recipeRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, pkgerrors.NewExternalError("recipe store", err)
	}

	recipes := make([]*entities.Recipe, 0, len(records))
	for _, rec := range records {
		recipe, err := rec.toEntity()
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, recipe)
	}
	return recipes, nil
}

// updatePayload builds a sparse column map so unset fields are not
// written. updated_at is always refreshed.
func updatePayload(changes ports.UpdateRecipe) map[string]interface{} {
	payload := map[string]interface{}{
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	}
	if changes.Name != nil {
		payload["name"] = *changes.Name
	}
	if changes.Servings != nil {
		payload["servings"] = *changes.Servings
	}
	if changes.Notes != nil {
		payload["notes"] = *changes.Notes
	}
	if changes.Ingredients != nil {
		payload["ingredients"] = toIngredientRecords(*changes.Ingredients)
	}
	if changes.Tags != nil {
		payload["tags"] = nonNilTags(*changes.Tags)
	}
	if changes.IsFavourite != nil {
		payload["is_favourite"] = *changes.IsFavourite
	}
	if changes.OrderIndex != nil {
		payload["order_index"] = *changes.OrderIndex
	}
	return payload
}

func toIngredientRecords(ingredients []valueobjects.Ingredient) []ingredientRecord {
	out := make([]ingredientRecord, len(ingredients))
	for i, ing := range ingredients {
		out[i] = ingredientRecord{
			ID:     ing.ID(),
			Name:   ing.Name(),
			Amount: ing.Amount(),
			Unit:   ing.Unit(),
		}
	}
	return out
}

// nonNilTags keeps the tags column a real array instead of SQL null
func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
