// Package config holds the application settings file handling.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
)

// Settings is the full application configuration.
type Settings struct {
	Listen  string `toml:"listen"`
	DataDir string `toml:"data_dir"`
	// APIKey protects every route except /health. Minted on first launch.
	APIKey string `toml:"api_key"`

	Catalog CatalogSettings `toml:"catalog"`
	Storage StorageSettings `toml:"storage"`
	Log     LogSettings     `toml:"log"`
}

// CatalogSettings configures the remote catalog client.
type CatalogSettings struct {
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
	Language string `toml:"language"`
}

// StorageSettings tunes the key-value store retry policy.
type StorageSettings struct {
	RetryAttempts int `toml:"retry_attempts"`
	RetryDelayMS  int `toml:"retry_delay_ms"`
}

// LogSettings configures the rotating log file. An empty file path keeps
// logging on stderr only.
type LogSettings struct {
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// Default returns the settings used when no config file exists yet.
func Default() *Settings {
	return &Settings{
		Listen:  "127.0.0.1:8485",
		DataDir: defaultDataDir(),
		Storage: StorageSettings{
			RetryAttempts: 3,
			RetryDelayMS:  100,
		},
		Log: LogSettings{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 30,
		},
	}
}

func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "watchlog")
	}
	return "watchlog-data"
}

// DatabasePath locates the key-value database inside the data directory.
func (s *Settings) DatabasePath() string {
	return filepath.Join(s.DataDir, "watchlog.db")
}

// Manager loads and saves the settings file, caching the last loaded copy.
type Manager struct {
	fs   afero.Fs
	path string

	mu     sync.RWMutex
	cached *Settings
}

// NewManager creates a manager over the OS filesystem.
func NewManager(path string) *Manager {
	return NewManagerWithFs(afero.NewOsFs(), path)
}

// NewManagerWithFs creates a manager over an arbitrary filesystem, which lets
// tests run against an in-memory one.
func NewManagerWithFs(fs afero.Fs, path string) *Manager {
	return &Manager{fs: fs, path: path}
}

// Load returns the current settings, reading the file on first use. A missing
// file yields defaults.
func (m *Manager) Load() (*Settings, error) {
	m.mu.RLock()
	if m.cached != nil {
		settings := *m.cached
		m.mu.RUnlock()
		return &settings, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cached != nil {
		settings := *m.cached
		return &settings, nil
	}

	settings := Default()
	raw, err := afero.ReadFile(m.fs, m.path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %q: %w", m.path, err)
		}
	} else if err := toml.Unmarshal(raw, settings); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", m.path, err)
	}

	m.cached = settings
	copied := *settings
	return &copied, nil
}

// Save writes the settings file and refreshes the cache.
func (m *Manager) Save(settings *Settings) error {
	encoded, err := toml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	dir := filepath.Dir(m.path)
	if dir != "" && dir != "." {
		if err := m.fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := afero.WriteFile(m.fs, m.path, encoded, 0644); err != nil {
		return fmt.Errorf("write config %q: %w", m.path, err)
	}

	copied := *settings
	m.cached = &copied
	return nil
}
