package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment variables recognized as overrides. They take precedence
// over file values, matching the original deployment convention.
const (
	envClientID     = "SPOTIFY_CLIENT_ID"
	envClientSecret = "SPOTIFY_CLIENT_SECRET"
	envDataDir      = "TEMPO_DATA_DIR"
	envOutputFormat = "TEMPO_OUTPUT_FORMAT"
	envCountry      = "SPOTIFY_COUNTRY"
	envReleaseLimit = "SPOTIFY_LIMIT"
)

func (c *Config) normalize() error {
	c.applyEnvOverrides()

	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}

	c.Spotify.ClientID = strings.TrimSpace(c.Spotify.ClientID)
	c.Spotify.ClientSecret = strings.TrimSpace(c.Spotify.ClientSecret)
	c.Spotify.BaseURL = strings.TrimRight(strings.TrimSpace(c.Spotify.BaseURL), "/")
	c.Spotify.TokenURL = strings.TrimSpace(c.Spotify.TokenURL)
	c.Spotify.Country = strings.ToUpper(strings.TrimSpace(c.Spotify.Country))

	if c.Spotify.ReleaseLimit <= 0 {
		c.Spotify.ReleaseLimit = defaultReleaseLimit
	}
	if c.Spotify.ReleaseLimit > maxReleaseLimit {
		c.Spotify.ReleaseLimit = maxReleaseLimit
	}
	if c.Spotify.FeatureBatchSize <= 0 {
		c.Spotify.FeatureBatchSize = defaultFeatureBatchSize
	}
	if c.Spotify.FeatureBatchSize > maxFeatureBatchSize {
		c.Spotify.FeatureBatchSize = maxFeatureBatchSize
	}
	if c.Spotify.RequestTimeout <= 0 {
		c.Spotify.RequestTimeout = defaultRequestTimeout
	}

	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	if c.Output.Format == "" {
		c.Output.Format = defaultOutputFormat
	}
	c.Output.Prefix = strings.TrimSpace(c.Output.Prefix)
	if c.Output.Prefix == "" {
		c.Output.Prefix = defaultOutputPrefix
	}

	if c.Workflow.ScheduleInterval <= 0 {
		c.Workflow.ScheduleInterval = defaultScheduleInterval
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		c.Workflow.ErrorRetryInterval = defaultErrorRetryInterval
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}

	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := strings.TrimSpace(os.Getenv(envClientID)); v != "" {
		c.Spotify.ClientID = v
	}
	if v := strings.TrimSpace(os.Getenv(envClientSecret)); v != "" {
		c.Spotify.ClientSecret = v
	}
	if v := strings.TrimSpace(os.Getenv(envDataDir)); v != "" {
		c.Paths.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv(envOutputFormat)); v != "" {
		c.Output.Format = v
	}
	if v := strings.TrimSpace(os.Getenv(envCountry)); v != "" {
		c.Spotify.Country = v
	}
	if v := strings.TrimSpace(os.Getenv(envReleaseLimit)); v != "" {
		if limit, err := strconv.Atoi(v); err == nil {
			c.Spotify.ReleaseLimit = limit
		}
	}
}
