// Package logging configures the process-wide slog logger and provides
// the attribute helpers shared by every component. The CLI entry point
// builds one logger from config; components receive a handle and never
// configure global logging state themselves.
package logging
