// Package logging builds the root slog logger from configuration.
package logging

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/1broseidon/xwin/internal/config"
	"github.com/charmbracelet/log"
)

// New returns a logger writing to w through a charmbracelet/log handler.
func New(cfg config.LoggingConfig, w io.Writer) (*slog.Logger, error) {
	handler, err := NewHandler(cfg, w)
	if err != nil {
		return nil, err
	}
	return slog.New(handler), nil
}

// NewHandler returns the charmbracelet/log handler New wraps.
func NewHandler(cfg config.LoggingConfig, w io.Writer) (*log.Logger, error) {
	level := log.InfoLevel
	if cfg.Level != "" {
		parsed, err := log.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Prefix:          cfg.Prefix,
		ReportTimestamp: cfg.Timestamp,
	}), nil
}
