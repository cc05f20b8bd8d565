package config

import (
	"fmt"
	"strings"
)

var supportedFormats = map[string]struct{}{
	"csv":     {},
	"parquet": {},
}

// Validate checks the configuration for values the pipeline cannot run with.
// Credentials are intentionally not required here so that offline commands
// (transform, load, history) work without Spotify access.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.DataDir) == "" {
		problems = append(problems, "paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		problems = append(problems, "paths.log_dir must be set")
	}
	if _, ok := supportedFormats[c.Output.Format]; !ok {
		problems = append(problems, fmt.Sprintf("output.format %q is not supported (csv, parquet)", c.Output.Format))
	}
	if c.Spotify.BaseURL == "" {
		problems = append(problems, "spotify.base_url must be set")
	}
	if c.Spotify.TokenURL == "" {
		problems = append(problems, "spotify.token_url must be set")
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not supported (console, json)", c.Logging.Format))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("logging.level %q is not supported", c.Logging.Level))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// RequireCredentials reports an error when Spotify credentials are absent.
// Called by commands that will hit the live API.
func (c *Config) RequireCredentials() error {
	if c.Spotify.ClientID == "" || c.Spotify.ClientSecret == "" {
		return fmt.Errorf("spotify credentials missing: set spotify.client_id and spotify.client_secret (or %s / %s)", envClientID, envClientSecret)
	}
	return nil
}
