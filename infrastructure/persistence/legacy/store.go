package legacy

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"flavourvault-backend/application/ports"
	pkgerrors "flavourvault-backend/pkg/errors"
)

// Storage slot keys, kept byte-compatible with the pre-account data
const (
	RecipesKey       = "flavourvault_recipes"
	MigrationFlagKey = "flavourvault_migration_completed"
)

// FileStore is the legacy local persistence slot: a string-keyed
// flat-file store holding the JSON-serialized legacy recipe array and
// the migration completion flag under separate keys. There is no
// transactional guarantee across the two keys.
type FileStore struct {
	dir    string
	mu     sync.Mutex
	logger *zap.Logger
}

// NewFileStore opens (creating if needed) the legacy data directory
func NewFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	if dir == "" {
		return nil, pkgerrors.NewValidationError("legacy data directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to create legacy data directory %s", dir)
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

// LoadRecipes reads the full legacy collection. An absent slot is an
// empty collection, not an error.
func (s *FileStore) LoadRecipes() ([]ports.LegacyRecipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok, err := s.get(RecipesKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var recipes []ports.LegacyRecipe
	if err := json.Unmarshal(data, &recipes); err != nil {
		return nil, pkgerrors.NewInternalError("legacy recipe data is corrupt").WithCause(err)
	}
	return recipes, nil
}

// SaveRecipes overwrites the legacy collection slot
func (s *FileStore) SaveRecipes(recipes []ports.LegacyRecipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(recipes)
	if err != nil {
		return pkgerrors.NewInternalError("failed to serialize legacy recipes").WithCause(err)
	}
	return s.set(RecipesKey, data)
}

// Clear removes the legacy collection slot
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove(RecipesKey)
}

// MigrationCompleted reports the persisted completion flag
func (s *FileStore) MigrationCompleted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok, err := s.get(MigrationFlagKey)
	if err != nil {
		s.logger.Warn("Failed to read migration flag", zap.Error(err))
		return false
	}
	return ok && string(data) == "true"
}

// MarkMigrationCompleted persists the completion flag
func (s *FileStore) MarkMigrationCompleted() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set(MigrationFlagKey, []byte("true"))
}

// ResetMigration clears the completion flag
func (s *FileStore) ResetMigration() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove(MigrationFlagKey)
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *FileStore) get(key string) ([]byte, bool, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, pkgerrors.Wrapf(err, "failed to read legacy slot %s", key)
	}
	return data, true, nil
}

func (s *FileStore) set(key string, data []byte) error {
	if err := os.WriteFile(s.path(key), data, 0o644); err != nil {
		return pkgerrors.Wrapf(err, "failed to write legacy slot %s", key)
	}
	return nil
}

func (s *FileStore) remove(key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return pkgerrors.Wrapf(err, "failed to remove legacy slot %s", key)
	}
	return nil
}
