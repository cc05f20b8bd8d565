package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Spotify contains credentials and extraction limits for the Spotify Web API.
type Spotify struct {
	ClientID         string `toml:"client_id"`
	ClientSecret     string `toml:"client_secret"`
	BaseURL          string `toml:"base_url"`
	TokenURL         string `toml:"token_url"`
	Country          string `toml:"country"`
	ReleaseLimit     int    `toml:"release_limit"`
	FeatureBatchSize int    `toml:"feature_batch_size"`
	RequestTimeout   int    `toml:"request_timeout"`
}

// Paths contains directory configuration for the layered data store.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Output controls how processed tables are written.
type Output struct {
	Format string `toml:"format"`
	Prefix string `toml:"prefix"`
}

// Transform contains feature toggles for the transformation stage.
type Transform struct {
	MergeTracksFeatures bool `toml:"merge_tracks_features"`
}

// Workflow contains scheduler timing configuration.
type Workflow struct {
	ScheduleInterval   int `toml:"schedule_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	OnSuccess      bool   `toml:"on_success"`
	OnFailure      bool   `toml:"on_failure"`
	OnEmptyDataset bool   `toml:"on_empty_dataset"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for tempo.
type Config struct {
	Spotify       Spotify       `toml:"spotify"`
	Paths         Paths         `toml:"paths"`
	Output        Output        `toml:"output"`
	Transform     Transform     `toml:"transform"`
	Workflow      Workflow      `toml:"workflow"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/tempo/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and environment overrides applied.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("tempo.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// RawDir returns the raw tier directory under the data dir.
func (c *Config) RawDir() string { return filepath.Join(c.Paths.DataDir, "raw") }

// ProcessedDir returns the processed tier directory under the data dir.
func (c *Config) ProcessedDir() string { return filepath.Join(c.Paths.DataDir, "processed") }

// FinalDir returns the final tier directory under the data dir.
func (c *Config) FinalDir() string { return filepath.Join(c.Paths.DataDir, "final") }

// RunsDatabasePath returns the location of the run history database.
func (c *Config) RunsDatabasePath() string { return filepath.Join(c.Paths.DataDir, "runs.db") }

// LockPath returns the lock file guarding against overlapping pipeline runs.
func (c *Config) LockPath() string { return filepath.Join(c.Paths.DataDir, ".tempo.lock") }

// EnsureDirectories creates the data tiers and log directory.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DataDir, c.RawDir(), c.ProcessedDir(), c.FinalDir(), c.Paths.LogDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ExpandPath resolves a leading ~ and returns an absolute path.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
