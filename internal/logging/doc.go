// Package logging configures slog for the procman daemon: per-module
// loggers with runtime-adjustable levels, a text or JSON stdout handler,
// a systemd journal handler when the journal is available, and a ring
// buffer keeping recent entries for the HTTP API.
package logging
