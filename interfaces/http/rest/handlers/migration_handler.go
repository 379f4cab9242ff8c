package handlers

import (
	"net/http"

	"go.uber.org/zap"

	appservices "flavourvault-backend/application/services"
	"flavourvault-backend/infrastructure/config"
	"flavourvault-backend/pkg/common"
	pkgerrors "flavourvault-backend/pkg/errors"
)

// MigrationHandler exposes the one-shot legacy migration
type MigrationHandler struct {
	migration *appservices.MigrationService
	settings  *config.SettingsWatcher
	logger    *zap.Logger
}

// NewMigrationHandler creates a new migration handler
func NewMigrationHandler(migration *appservices.MigrationService, settings *config.SettingsWatcher, logger *zap.Logger) *MigrationHandler {
	return &MigrationHandler{migration: migration, settings: settings, logger: logger}
}

// Run handles POST /migration. The result is always 200 with the
// outcome as data; repository failures surface inside the body, not as
// transport errors.
func (h *MigrationHandler) Run(w http.ResponseWriter, r *http.Request) {
	if !h.settings.Current().Features.MigrationEnabled {
		respondAppError(w, h.logger, pkgerrors.NewForbiddenError("migration is disabled"))
		return
	}

	result := h.migration.Migrate(r.Context())
	common.RespondJSON(w, http.StatusOK, result)
}

// Info handles GET /migration
func (h *MigrationHandler) Info(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, h.migration.Info())
}
