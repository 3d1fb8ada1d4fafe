package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultReconcileInterval = 10 * time.Second

// LoggingConfig controls the root logger.
type LoggingConfig struct {
	Level     string `yaml:"level"` // debug, info, warn, error
	Timestamp bool   `yaml:"timestamp"`
	Prefix    string `yaml:"prefix"`
}

// Dimensions is a size in logical pixels unless Physical is set.
type Dimensions struct {
	Width    float64 `yaml:"width"`
	Height   float64 `yaml:"height"`
	Physical bool    `yaml:"physical"`
}

// Point is a position in logical pixels unless Physical is set.
type Point struct {
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Physical bool    `yaml:"physical"`
}

// FullscreenConfig requests fullscreen at creation.
type FullscreenConfig struct {
	Mode    string `yaml:"mode"`    // borderless or exclusive
	Monitor string `yaml:"monitor"` // output name; empty selects the primary
	// VideoMode picks an exclusive mode as WIDTHxHEIGHT or
	// WIDTHxHEIGHT@HZ. Empty selects the output's first mode.
	VideoMode string `yaml:"video_mode"`
}

// ClassConfig is the WM_CLASS pair.
type ClassConfig struct {
	Instance string `yaml:"instance"`
	Class    string `yaml:"class"`
}

// WindowConfig describes one window to open. Unset optional fields keep the
// engine defaults.
type WindowConfig struct {
	Title            string            `yaml:"title"`
	Size             *Dimensions       `yaml:"size"`
	MinSize          *Dimensions       `yaml:"min_size"`
	MaxSize          *Dimensions       `yaml:"max_size"`
	ResizeIncrements *Dimensions       `yaml:"resize_increments"`
	BaseSize         *Dimensions       `yaml:"base_size"`
	Position         *Point            `yaml:"position"`
	Resizable        *bool             `yaml:"resizable"`
	Decorations      *bool             `yaml:"decorations"`
	Transparent      bool              `yaml:"transparent"`
	Visible          *bool             `yaml:"visible"`
	Maximized        bool              `yaml:"maximized"`
	Fullscreen       *FullscreenConfig `yaml:"fullscreen"`
	Theme            string            `yaml:"theme"` // light, dark or empty
	Icon             string            `yaml:"icon"`  // PNG path
	Cursor           string            `yaml:"cursor"`
	Level            string            `yaml:"level"` // normal, always-on-top, always-on-bottom
	Class            *ClassConfig      `yaml:"class"`
	WindowTypes      []string          `yaml:"window_types"`
	OverrideRedirect bool              `yaml:"override_redirect"`
}

// Config is the effective configuration.
type Config struct {
	Include IncludeList `yaml:"include,omitempty"`

	// Display overrides $DISPLAY. XAuthority overrides $XAUTHORITY.
	Display    string `yaml:"display"`
	XAuthority string `yaml:"xauthority"`

	Logging LoggingConfig `yaml:"logging"`

	// ReconcileInterval is how often monitors are re-read as a fallback
	// for missed RandR notifications.
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`

	// Windows are opened by `xwin run`. A later file replaces the list of
	// an earlier one.
	Windows []WindowConfig `yaml:"windows"`
}

// IncludeList accepts a single path or a list of paths.
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*l = IncludeList{value.Value}
		return nil
	case yaml.SequenceNode:
		var out []string
		if err := value.Decode(&out); err != nil {
			return err
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or a list of strings")
	}
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level: "info",
		},
		ReconcileInterval: DefaultReconcileInterval,
	}
}

func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "xwin", "config.yaml"), nil
}

// ValidationError names the offending key and, when known, where it was set.
type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

var (
	validLevels      = []string{"debug", "info", "warn", "error"}
	validThemes      = []string{"", "light", "dark"}
	validStacking    = []string{"", "normal", "always-on-top", "always-on-bottom"}
	validFullscreens = []string{"borderless", "exclusive"}
)

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	if !slices.Contains(validLevels, c.Logging.Level) {
		return &ValidationError{Path: "logging.level", Err: fmt.Errorf("must be one of: %s", strings.Join(validLevels, ", "))}
	}
	if c.ReconcileInterval < 0 {
		return &ValidationError{Path: "reconcile_interval", Err: fmt.Errorf("must not be negative")}
	}

	for i, w := range c.Windows {
		prefix := fmt.Sprintf("windows.%d", i)
		if err := w.validate(prefix); err != nil {
			return err
		}
	}
	return nil
}

func (w *WindowConfig) validate(prefix string) error {
	dims := []struct {
		name string
		d    *Dimensions
	}{
		{"size", w.Size},
		{"min_size", w.MinSize},
		{"max_size", w.MaxSize},
		{"resize_increments", w.ResizeIncrements},
		{"base_size", w.BaseSize},
	}
	for _, dim := range dims {
		if dim.d == nil {
			continue
		}
		if dim.d.Width < 0 || dim.d.Height < 0 {
			return &ValidationError{Path: prefix + "." + dim.name, Err: fmt.Errorf("dimensions must not be negative")}
		}
	}
	if w.MinSize != nil && w.MaxSize != nil && w.MinSize.Physical == w.MaxSize.Physical {
		if (w.MaxSize.Width > 0 && w.MinSize.Width > w.MaxSize.Width) ||
			(w.MaxSize.Height > 0 && w.MinSize.Height > w.MaxSize.Height) {
			return &ValidationError{Path: prefix + ".min_size", Err: fmt.Errorf("min_size exceeds max_size")}
		}
	}

	if w.Fullscreen != nil {
		if !slices.Contains(validFullscreens, w.Fullscreen.Mode) {
			return &ValidationError{Path: prefix + ".fullscreen.mode", Err: fmt.Errorf("must be one of: %s", strings.Join(validFullscreens, ", "))}
		}
		if w.Fullscreen.VideoMode != "" {
			if w.Fullscreen.Mode != "exclusive" {
				return &ValidationError{Path: prefix + ".fullscreen.video_mode", Err: fmt.Errorf("only valid with exclusive fullscreen")}
			}
			if _, err := parseVideoMode(w.Fullscreen.VideoMode); err != nil {
				return &ValidationError{Path: prefix + ".fullscreen.video_mode", Err: err}
			}
		}
	}
	if !slices.Contains(validThemes, w.Theme) {
		return &ValidationError{Path: prefix + ".theme", Err: fmt.Errorf("must be light, dark or empty")}
	}
	if !slices.Contains(validStacking, w.Level) {
		return &ValidationError{Path: prefix + ".level", Err: fmt.Errorf("must be one of: normal, always-on-top, always-on-bottom")}
	}
	if w.Cursor != "" && !knownCursor(w.Cursor) {
		return &ValidationError{Path: prefix + ".cursor", Err: fmt.Errorf("unknown cursor %q", w.Cursor)}
	}
	for j, t := range w.WindowTypes {
		if _, ok := windowTypes[t]; !ok {
			return &ValidationError{Path: fmt.Sprintf("%s.window_types.%d", prefix, j), Err: fmt.Errorf("unknown window type %q", t)}
		}
	}
	if w.Class != nil && strings.TrimSpace(w.Class.Class) == "" {
		return &ValidationError{Path: prefix + ".class.class", Err: fmt.Errorf("class must not be empty")}
	}
	return nil
}
