package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"flavourvault-backend/application/ports"
	appservices "flavourvault-backend/application/services"
	"flavourvault-backend/domain/core/entities"
	domainservices "flavourvault-backend/domain/core/services"
	"flavourvault-backend/domain/core/valueobjects"
	"flavourvault-backend/infrastructure/config"
	"flavourvault-backend/pkg/common"
	pkgerrors "flavourvault-backend/pkg/errors"
)

const maxBodyBytes = 1 << 20

var validate = validator.New()

// RecipeHandler exposes the recipe operations over REST
type RecipeHandler struct {
	recipes  *appservices.RecipeService
	settings *config.SettingsWatcher
	logger   *zap.Logger
}

// NewRecipeHandler creates a new recipe handler
func NewRecipeHandler(recipes *appservices.RecipeService, settings *config.SettingsWatcher, logger *zap.Logger) *RecipeHandler {
	return &RecipeHandler{recipes: recipes, settings: settings, logger: logger}
}

type ingredientPayload struct {
	ID     string  `json:"id"`
	Name   string  `json:"name" validate:"required"`
	Amount float64 `json:"amount" validate:"gte=0"`
	Unit   string  `json:"unit"`
}

type createRecipeRequest struct {
	Name        string              `json:"name" validate:"required,max=200"`
	Servings    int                 `json:"servings" validate:"required,min=1"`
	Notes       string              `json:"notes" validate:"max=10000"`
	Ingredients []ingredientPayload `json:"ingredients" validate:"dive"`
	Tags        []string            `json:"tags" validate:"max=5,dive,required"`
}

type updateRecipeRequest struct {
	Name        *string              `json:"name" validate:"omitempty,max=200"`
	Servings    *int                 `json:"servings" validate:"omitempty,min=1"`
	Notes       *string              `json:"notes" validate:"omitempty,max=10000"`
	Ingredients *[]ingredientPayload `json:"ingredients" validate:"omitempty,dive"`
	Tags        *[]string            `json:"tags" validate:"omitempty,max=5,dive,required"`
	IsFavourite *bool                `json:"isFavourite"`
}

type reorderRequest struct {
	Items []reorderItem `json:"items" validate:"required,min=1,dive"`
}

type reorderItem struct {
	ID         string `json:"id" validate:"required,uuid"`
	OrderIndex int    `json:"orderIndex" validate:"gte=0"`
}

type recipeResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Servings    int                  `json:"servings"`
	Notes       string               `json:"notes"`
	Ingredients []ingredientResponse `json:"ingredients"`
	Tags        []string             `json:"tags"`
	IsFavourite bool                 `json:"isFavourite"`
	OrderIndex  int                  `json:"orderIndex"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

type ingredientResponse struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

// List handles GET /recipes
func (h *RecipeHandler) List(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.recipes.List(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, toRecipeResponses(recipes))
}

// Get handles GET /recipes/{recipeID}
func (h *RecipeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := h.recipeID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	recipe, err := h.recipes.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, toRecipeResponse(recipe))
}

// Create handles POST /recipes
func (h *RecipeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRecipeRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		h.respondError(w, pkgerrors.NewValidationError("invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		h.respondError(w, pkgerrors.NewValidationError(validationMessage(err)))
		return
	}

	draft, err := buildDraft(req)
	if err != nil {
		h.respondError(w, err)
		return
	}

	created, err := h.recipes.Create(r.Context(), draft)
	if err != nil {
		h.respondError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, toRecipeResponse(created))
}

// Update handles PUT /recipes/{recipeID}
func (h *RecipeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := h.recipeID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	var req updateRecipeRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		h.respondError(w, pkgerrors.NewValidationError("invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		h.respondError(w, pkgerrors.NewValidationError(validationMessage(err)))
		return
	}

	changes, err := buildUpdate(req)
	if err != nil {
		h.respondError(w, err)
		return
	}

	updated, err := h.recipes.Update(r.Context(), id, changes)
	if err != nil {
		h.respondError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, toRecipeResponse(updated))
}

// Delete handles DELETE /recipes/{recipeID}
func (h *RecipeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := h.recipeID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	if err := h.recipes.Delete(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ToggleFavourite handles POST /recipes/{recipeID}/favourite
func (h *RecipeHandler) ToggleFavourite(w http.ResponseWriter, r *http.Request) {
	id, err := h.recipeID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	updated, err := h.recipes.ToggleFavourite(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, toRecipeResponse(updated))
}

// Reorder handles POST /recipes/reorder
func (h *RecipeHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		h.respondError(w, pkgerrors.NewValidationError("invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		h.respondError(w, pkgerrors.NewValidationError(validationMessage(err)))
		return
	}
	if limit := h.settings.Current().Limits.MaxReorderBatch; len(req.Items) > limit {
		h.respondError(w, pkgerrors.NewValidationError("reorder batch is too large"))
		return
	}

	changes := make([]ports.OrderChange, 0, len(req.Items))
	for _, item := range req.Items {
		id, err := valueobjects.NewRecipeIDFromString(item.ID)
		if err != nil {
			h.respondError(w, pkgerrors.NewValidationError("invalid recipe ID in reorder batch"))
			return
		}
		changes = append(changes, ports.OrderChange{ID: id, OrderIndex: item.OrderIndex})
	}

	if err := h.recipes.Reorder(r.Context(), changes); err != nil {
		h.respondError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "reordered"})
}

// Search handles GET /recipes/search
func (h *RecipeHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := domainservices.RecipeFilters{
		SearchTerm:          q.Get("q"),
		ShowFavouritesOnly:  q.Get("favourites") == "true",
		SearchInIngredients: q.Get("ingredients") == "true",
	}
	if raw := q.Get("tags"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				filters.SelectedTags = append(filters.SelectedTags, tag)
			}
		}
	}

	recipes, err := h.recipes.Search(r.Context(), filters)
	if err != nil {
		h.respondError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, toRecipeResponses(recipes))
}

// Tags handles GET /recipes/tags
func (h *RecipeHandler) Tags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.recipes.Tags(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	if tags == nil {
		tags = []string{}
	}
	common.RespondJSON(w, http.StatusOK, tags)
}

// Scaled handles GET /recipes/{recipeID}/scaled?factor=
func (h *RecipeHandler) Scaled(w http.ResponseWriter, r *http.Request) {
	id, err := h.recipeID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	factor, err := strconv.ParseFloat(r.URL.Query().Get("factor"), 64)
	if err != nil {
		h.respondError(w, pkgerrors.NewValidationError("factor must be a number"))
		return
	}

	recipe, err := h.recipes.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}

	scaled, err := recipe.ScaledIngredients(factor)
	if err != nil {
		h.respondError(w, err)
		return
	}

	out := make([]ingredientResponse, len(scaled))
	for i, ing := range scaled {
		out[i] = ingredientResponse{ID: ing.ID(), Name: ing.Name(), Amount: ing.Amount(), Unit: ing.Unit()}
	}
	common.RespondJSON(w, http.StatusOK, out)
}

// Refresh handles POST /recipes/refresh
func (h *RecipeHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.recipes.Refresh(r.Context()); err != nil {
		h.respondError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}

func (h *RecipeHandler) recipeID(r *http.Request) (valueobjects.RecipeID, error) {
	raw := chi.URLParam(r, "recipeID")
	id, err := valueobjects.NewRecipeIDFromString(raw)
	if err != nil {
		return valueobjects.RecipeID{}, pkgerrors.NewValidationError("invalid recipe ID")
	}
	return id, nil
}

func (h *RecipeHandler) respondError(w http.ResponseWriter, err error) {
	respondAppError(w, h.logger, err)
}

// respondAppError maps a typed error to its HTTP status and a
// presentable message
func respondAppError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := http.StatusInternalServerError
	code := string(pkgerrors.ErrorTypeInternal)
	if appErr := pkgerrors.GetAppError(err); appErr != nil {
		if appErr.HTTPStatus != 0 {
			status = appErr.HTTPStatus
		}
		code = string(appErr.Type)
	}
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", zap.Error(err))
	}
	common.RespondError(w, status, code, pkgerrors.UserMessage(err))
}

func buildDraft(req createRecipeRequest) (*entities.RecipeDraft, error) {
	ingredients, err := toIngredients(req.Ingredients)
	if err != nil {
		return nil, err
	}

	draft, err := entities.NewRecipeDraft(req.Name, req.Servings, req.Notes, ingredients)
	if err != nil {
		return nil, err
	}
	for _, tag := range req.Tags {
		if err := draft.AddTag(tag); err != nil {
			return nil, err
		}
	}
	return draft, nil
}

func buildUpdate(req updateRecipeRequest) (ports.UpdateRecipe, error) {
	changes := ports.UpdateRecipe{
		Name:        req.Name,
		Servings:    req.Servings,
		Notes:       req.Notes,
		Tags:        req.Tags,
		IsFavourite: req.IsFavourite,
	}
	if req.Ingredients != nil {
		ingredients, err := toIngredients(*req.Ingredients)
		if err != nil {
			return ports.UpdateRecipe{}, err
		}
		changes.Ingredients = &ingredients
	}
	return changes, nil
}

func toIngredients(payloads []ingredientPayload) ([]valueobjects.Ingredient, error) {
	ingredients := make([]valueobjects.Ingredient, 0, len(payloads))
	for _, p := range payloads {
		ing, err := valueobjects.ReconstructIngredient(p.ID, p.Name, p.Amount, p.Unit)
		if err != nil {
			return nil, pkgerrors.NewValidationError(err.Error())
		}
		ingredients = append(ingredients, ing)
	}
	return ingredients, nil
}

func toRecipeResponse(r *entities.Recipe) recipeResponse {
	ingredients := r.Ingredients()
	out := make([]ingredientResponse, len(ingredients))
	for i, ing := range ingredients {
		out[i] = ingredientResponse{ID: ing.ID(), Name: ing.Name(), Amount: ing.Amount(), Unit: ing.Unit()}
	}
	return recipeResponse{
		ID:          r.ID().String(),
		Name:        r.Name(),
		Servings:    r.Servings(),
		Notes:       r.Notes(),
		Ingredients: out,
		Tags:        r.Tags(),
		IsFavourite: r.IsFavourite(),
		OrderIndex:  r.OrderIndex(),
		CreatedAt:   r.CreatedAt(),
		UpdatedAt:   r.UpdatedAt(),
	}
}

func toRecipeResponses(recipes []*entities.Recipe) []recipeResponse {
	out := make([]recipeResponse, len(recipes))
	for i, r := range recipes {
		out[i] = toRecipeResponse(r)
	}
	return out
}

// validationMessage renders the first field failure in plain words
func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return fe.Field() + " failed validation on " + fe.Tag()
	}
	return "invalid request"
}
