package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Settings represents runtime-changeable configuration, hot reloaded
// from a YAML file without a restart
type Settings struct {
	Features FeatureFlags  `yaml:"features"`
	Limits   RequestLimits `yaml:"limits"`
	Cache    CacheSettings `yaml:"cache"`
}

// FeatureFlags holds toggleable features
type FeatureFlags struct {
	MigrationEnabled bool `yaml:"migrationEnabled"`
}

// RequestLimits holds per-request size limits
type RequestLimits struct {
	MaxBulkCreate   int `yaml:"maxBulkCreate"`
	MaxReorderBatch int `yaml:"maxReorderBatch"`
}

// CacheSettings holds cache tuning
type CacheSettings struct {
	TTLSeconds int `yaml:"ttlSeconds"`
}

// DefaultSettings returns the settings used when no file is configured
func DefaultSettings() *Settings {
	return &Settings{
		Features: FeatureFlags{MigrationEnabled: true},
		Limits:   RequestLimits{MaxBulkCreate: 200, MaxReorderBatch: 100},
		Cache:    CacheSettings{TTLSeconds: 300},
	}
}

// SettingsWatcher watches the settings file for changes
type SettingsWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	logger  *zap.Logger
	stopCh  chan struct{}

	mu       sync.RWMutex
	current  *Settings
	onChange []func(*Settings)
}

// NewSettingsWatcher loads the settings file and begins watching it.
// An empty path yields a static watcher serving defaults.
func NewSettingsWatcher(path string, logger *zap.Logger) (*SettingsWatcher, error) {
	sw := &SettingsWatcher{
		path:    path,
		logger:  logger,
		stopCh:  make(chan struct{}),
		current: DefaultSettings(),
	}

	if path == "" {
		return sw, nil
	}

	settings, err := loadSettingsFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load initial settings: %w", err)
	}
	sw.current = settings

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch settings file: %w", err)
	}
	// Also watch the directory for atomic saves (rename operations)
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		logger.Warn("Failed to watch settings directory", zap.Error(err))
	}

	sw.watcher = watcher
	go sw.watchLoop()
	logger.Info("Settings watcher started", zap.String("path", path))

	return sw, nil
}

// Current returns the active settings
func (w *SettingsWatcher) Current() *Settings {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnChange registers a callback for settings changes
func (w *SettingsWatcher) OnChange(handler func(*Settings)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, handler)
}

// Stop stops watching for changes
func (w *SettingsWatcher) Stop() {
	close(w.stopCh)
	if w.watcher != nil {
		w.watcher.Close()
	}
}

func (w *SettingsWatcher) watchLoop() {
	// Debounce to avoid reloading on every partial write
	var debounceTimer *time.Timer
	debounceDuration := 100 * time.Millisecond

	for {
		select {
		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounceDuration, func() {
					w.reload()
				})
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Settings watcher error", zap.Error(err))
		}
	}
}

func (w *SettingsWatcher) reload() {
	settings, err := loadSettingsFromFile(w.path)
	if err != nil {
		w.logger.Error("Failed to reload settings, keeping current", zap.Error(err))
		return
	}
	if err := validateSettings(settings); err != nil {
		w.logger.Error("Invalid settings, keeping current", zap.Error(err))
		return
	}

	w.mu.Lock()
	w.current = settings
	handlers := make([]func(*Settings), len(w.onChange))
	copy(handlers, w.onChange)
	w.mu.Unlock()

	for _, handler := range handlers {
		go handler(settings)
	}

	w.logger.Info("Settings reloaded",
		zap.Bool("migrationEnabled", settings.Features.MigrationEnabled),
		zap.Int("cacheTTL", settings.Cache.TTLSeconds),
	)
}

func validateSettings(s *Settings) error {
	if s.Limits.MaxBulkCreate <= 0 {
		return fmt.Errorf("maxBulkCreate must be positive")
	}
	if s.Limits.MaxReorderBatch <= 0 {
		return fmt.Errorf("maxReorderBatch must be positive")
	}
	if s.Cache.TTLSeconds <= 0 {
		return fmt.Errorf("cache ttlSeconds must be positive")
	}
	return nil
}

func loadSettingsFromFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	settings := DefaultSettings()
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings YAML: %w", err)
	}
	return settings, nil
}
