// Package config loads, normalizes, and validates the TOML
// configuration that drives the ETL pipeline: Spotify API credentials
// and limits, data tier paths, output format, scheduling, and
// notification settings.
package config
