// Package logging assembles the structured slog loggers used across
// mediatoc.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes typed attribute helpers so pipeline and CLI code
// emit data with a consistent shape. A no-op logger is provided for tests
// and wiring code that cannot fail.
package logging
