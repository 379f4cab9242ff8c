package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flavourvault-backend/domain/core/valueobjects"
)

func newTestRecipe(t *testing.T) *Recipe {
	t.Helper()

	flour, err := valueobjects.NewIngredient("flour", 500, "g")
	require.NoError(t, err)
	butter, err := valueobjects.NewIngredient("butter", 250, "g")
	require.NoError(t, err)

	now := time.Now()
	recipe, err := ReconstructRecipe(
		valueobjects.NewRecipeID(),
		"user123",
		"Shortbread",
		4,
		"rest the dough",
		[]valueobjects.Ingredient{flour, butter},
		nil,
		false,
		0,
		now, now,
	)
	require.NoError(t, err)
	return recipe
}

func TestReconstructRecipe_Validation(t *testing.T) {
	now := time.Now()

	_, err := ReconstructRecipe(valueobjects.RecipeID{}, "user123", "Cake", 2, "", nil, nil, false, 0, now, now)
	assert.Error(t, err, "zero ID must be rejected")

	_, err = ReconstructRecipe(valueobjects.NewRecipeID(), "", "Cake", 2, "", nil, nil, false, 0, now, now)
	assert.Error(t, err, "missing owner must be rejected")

	_, err = ReconstructRecipe(valueobjects.NewRecipeID(), "user123", "  ", 2, "", nil, nil, false, 0, now, now)
	assert.Error(t, err, "blank name must be rejected")

	_, err = ReconstructRecipe(valueobjects.NewRecipeID(), "user123", "Cake", 0, "", nil, nil, false, 0, now, now)
	assert.Error(t, err, "zero servings must be rejected")
}

func TestRecipe_AddTag_CapIsSilentNoOp(t *testing.T) {
	recipe := newTestRecipe(t)

	for _, tag := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, recipe.AddTag(tag))
	}
	require.Len(t, recipe.Tags(), 5)

	// The sixth tag is dropped without an error
	err := recipe.AddTag("f")
	assert.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, recipe.Tags())
}

func TestRecipe_AddTag_DuplicateIsSilentNoOp(t *testing.T) {
	recipe := newTestRecipe(t)

	require.NoError(t, recipe.AddTag("dessert"))
	require.NoError(t, recipe.AddTag("dessert"))

	assert.Equal(t, []string{"dessert"}, recipe.Tags())
}

func TestRecipe_AddTag_EmptyIsError(t *testing.T) {
	recipe := newTestRecipe(t)

	err := recipe.AddTag("  ")

	assert.Error(t, err)
	assert.Empty(t, recipe.Tags())
}

func TestRecipe_RemoveTag(t *testing.T) {
	recipe := newTestRecipe(t)
	require.NoError(t, recipe.AddTag("dessert"))
	require.NoError(t, recipe.AddTag("baking"))

	require.NoError(t, recipe.RemoveTag("dessert"))
	assert.Equal(t, []string{"baking"}, recipe.Tags())

	err := recipe.RemoveTag("missing")
	assert.Error(t, err)
}

func TestRecipe_HasAnyTag(t *testing.T) {
	recipe := newTestRecipe(t)
	require.NoError(t, recipe.AddTag("dessert"))

	assert.True(t, recipe.HasAnyTag([]string{"quick", "dessert"}))
	assert.False(t, recipe.HasAnyTag([]string{"quick", "dinner"}))
	assert.False(t, recipe.HasAnyTag(nil))
}

func TestRecipe_ScaledIngredients(t *testing.T) {
	recipe := newTestRecipe(t)

	scaled, err := recipe.ScaledIngredients(1.5)
	require.NoError(t, err)

	require.Len(t, scaled, 2)
	assert.Equal(t, "flour", scaled[0].Name())
	assert.Equal(t, 750.0, scaled[0].Amount())
	assert.Equal(t, 375.0, scaled[1].Amount())

	// The recipe itself stays unscaled
	assert.Equal(t, 500.0, recipe.Ingredients()[0].Amount())
}

func TestRecipe_ScaledIngredients_RejectsNonPositiveFactor(t *testing.T) {
	recipe := newTestRecipe(t)

	_, err := recipe.ScaledIngredients(0)
	assert.Error(t, err)

	_, err = recipe.ScaledIngredients(-1)
	assert.Error(t, err)
}

func TestRecipe_IngredientOrderPreserved(t *testing.T) {
	recipe := newTestRecipe(t)

	names := []string{}
	for _, ing := range recipe.Ingredients() {
		names = append(names, ing.Name())
	}

	assert.Equal(t, []string{"flour", "butter"}, names)
}

func TestRecipe_ToggleFavourite(t *testing.T) {
	recipe := newTestRecipe(t)
	require.False(t, recipe.IsFavourite())

	assert.True(t, recipe.ToggleFavourite())
	assert.True(t, recipe.IsFavourite())
	assert.False(t, recipe.ToggleFavourite())
}

func TestRecipe_CloneIsIndependent(t *testing.T) {
	recipe := newTestRecipe(t)
	require.NoError(t, recipe.AddTag("dessert"))

	clone := recipe.Clone()
	require.NoError(t, clone.AddTag("baking"))
	clone.SetFavourite(true)

	assert.Equal(t, []string{"dessert"}, recipe.Tags())
	assert.False(t, recipe.IsFavourite())
	assert.Equal(t, []string{"dessert", "baking"}, clone.Tags())
}

func TestNewRecipeDraft_Validation(t *testing.T) {
	_, err := NewRecipeDraft("", 2, "", nil)
	assert.Error(t, err)

	_, err = NewRecipeDraft("Cake", 0, "", nil)
	assert.Error(t, err)

	draft, err := NewRecipeDraft("Cake", 2, "notes", nil)
	require.NoError(t, err)
	assert.Equal(t, "Cake", draft.Name())
}

func TestRecipeDraft_OrderIndexPinning(t *testing.T) {
	draft, err := NewRecipeDraft("Cake", 2, "", nil)
	require.NoError(t, err)

	_, pinned := draft.OrderIndex()
	assert.False(t, pinned)

	draft.WithOrderIndex(7)
	idx, pinned := draft.OrderIndex()
	assert.True(t, pinned)
	assert.Equal(t, 7, idx)
}

func TestRecipeDraft_AddTag_SameCapSemantics(t *testing.T) {
	draft, err := NewRecipeDraft("Cake", 2, "", nil)
	require.NoError(t, err)

	for _, tag := range []string{"a", "b", "c", "d", "e", "f"} {
		require.NoError(t, draft.AddTag(tag))
	}

	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, draft.Tags())
	assert.Error(t, draft.AddTag(""))
}

func TestNormalizeTags(t *testing.T) {
	tags, err := NormalizeTags([]string{"dessert", "quick", "dessert"})
	require.NoError(t, err)
	assert.Equal(t, []string{"dessert", "quick"}, tags)

	tags, err = NormalizeTags([]string{"a", "b", "c", "d", "e", "f"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, tags)

	_, err = NormalizeTags([]string{"a", " "})
	assert.Error(t, err)

	tags, err = NormalizeTags(nil)
	require.NoError(t, err)
	assert.Empty(t, tags)
}
