package services

import (
	"sort"
	"strings"

	"flavourvault-backend/domain/core/entities"
)

// RecipeFilters is the criteria value driving the filter engine. It is
// session-scoped UI state, never persisted; the zero value means "no
// filtering".
type RecipeFilters struct {
	SearchTerm          string
	SelectedTags        []string
	ShowFavouritesOnly  bool
	SearchInIngredients bool
}

// IsZero reports whether no criterion is active
func (f RecipeFilters) IsZero() bool {
	return strings.TrimSpace(f.SearchTerm) == "" &&
		len(f.SelectedTags) == 0 &&
		!f.ShowFavouritesOnly &&
		!f.SearchInIngredients
}

// FilterRecipes computes the visible subset of recipes for the given
// criteria. It is pure and deterministic: the input slice is never
// modified and the result is always a (possibly empty) subset of it.
//
// Stages run in a fixed order, each narrowing the previous stage's
// output: text match, favourites, tag overlap, then a stable
// case-insensitive sort by name. The same function backs both the
// fully client-side path and the server-assisted path, which pushes
// the favourite and tag stages down to the store and re-applies this
// pipeline after fetch so the observable behaviour stays identical.
func FilterRecipes(all []*entities.Recipe, filters RecipeFilters) []*entities.Recipe {
	result := make([]*entities.Recipe, 0, len(all))

	term := strings.ToLower(strings.TrimSpace(filters.SearchTerm))
	for _, r := range all {
		if term != "" && !matchesTerm(r, term, filters.SearchInIngredients) {
			continue
		}
		if filters.ShowFavouritesOnly && !r.IsFavourite() {
			continue
		}
		if len(filters.SelectedTags) > 0 && !r.HasAnyTag(filters.SelectedTags) {
			continue
		}
		result = append(result, r)
	}

	sortByName(result)
	return result
}

// matchesTerm applies the text stage. The asymmetry is intentional and
// load-bearing: the recipe name matches on substring, while ingredient
// names (only consulted when inIngredients is set) must match the full
// term exactly, case-insensitively.
func matchesTerm(r *entities.Recipe, lowerTerm string, inIngredients bool) bool {
	if strings.Contains(strings.ToLower(r.Name()), lowerTerm) {
		return true
	}
	if !inIngredients {
		return false
	}
	for _, ing := range r.Ingredients() {
		if ing.NameEqualsFold(lowerTerm) {
			return true
		}
	}
	return false
}

// sortByName stable-sorts recipes by name, case-insensitive ascending
func sortByName(recipes []*entities.Recipe) {
	sort.SliceStable(recipes, func(i, j int) bool {
		return strings.ToLower(recipes[i].Name()) < strings.ToLower(recipes[j].Name())
	})
}
