package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/logging"
)

const (
	appName     = "riego"
	liveFile    = "config.yaml"
	defaultFile = "default.yaml"
)

// Store reads and writes the configuration files of one directory.
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore returns a store over the given directory.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// DefaultDir returns the OS-appropriate configuration directory.
func DefaultDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			return filepath.Join(userProfile, "AppData", "Local", appName), nil
		}
		return filepath.Join(localAppData, appName), nil
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(home, ".config", appName), nil
	}
}

// Dir returns the directory the store operates on.
func (s *Store) Dir() string { return s.dir }

// Load reads and validates the live configuration file.
func (s *Store) Load() (*Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadFile(liveFile)
}

// LoadDefault reads and validates the default configuration file.
func (s *Store) LoadDefault() (*Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadFile(defaultFile)
}

func (s *Store) loadFile(name string) (*Config, error) {
	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	return &cfg, nil
}

// Boot loads the configuration for controller startup: the live file, then
// the default file, then the zeroed fallback. Boot never fails; a corrupt
// or missing file costs the operator their edits, not the controller its
// start.
func (s *Store) Boot() *Config {
	cfg, err := s.Load()
	if err == nil {
		logging.Info("Configuration loaded", zap.String("dir", s.dir))
		return cfg
	}
	if !errors.Is(err, fs.ErrNotExist) {
		logging.Warn("Live configuration unusable", zap.Error(err))
	}

	cfg, derr := s.LoadDefault()
	if derr == nil {
		logging.Info("Default configuration loaded", zap.String("dir", s.dir))
		return cfg
	}

	logging.Warn("No usable configuration, using zeroed defaults", zap.Error(derr))
	return Zero()
}

// Save atomically writes the live configuration file. The write goes to a
// temp file in the same directory and is renamed over the target so a crash
// never leaves a half-written config.
func (s *Store) Save(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid configuration: %w", err)
	}
	cfg.Initialized = true

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeFile(liveFile, cfg)
}

func (s *Store) writeFile(name string, cfg *Config) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}

	path := filepath.Join(s.dir, name)
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// CloneAsDefault snapshots the live file over the default file. Invoked by
// the configuration mode's "save as default" action.
func (s *Store) CloneAsDefault() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, err := s.loadFile(liveFile)
	if err != nil {
		return err
	}
	return s.writeFile(defaultFile, cfg)
}

// RestoreDefault replaces the live file with the default file. Invoked by
// the boot-time restore combination.
func (s *Store) RestoreDefault() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, err := s.loadFile(defaultFile)
	if err != nil {
		return err
	}
	return s.writeFile(liveFile, cfg)
}
