package config

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"strconv"
	"strings"

	"github.com/1broseidon/xwin/internal/dpi"
	"github.com/1broseidon/xwin/internal/platform"
	"github.com/1broseidon/xwin/internal/window"
)

var windowTypes = map[string]window.WindowType{
	"desktop":       window.TypeDesktop,
	"dock":          window.TypeDock,
	"toolbar":       window.TypeToolbar,
	"menu":          window.TypeMenu,
	"utility":       window.TypeUtility,
	"splash":        window.TypeSplash,
	"dialog":        window.TypeDialog,
	"dropdown-menu": window.TypeDropdownMenu,
	"popup-menu":    window.TypePopupMenu,
	"tooltip":       window.TypeTooltip,
	"notification":  window.TypeNotification,
	"combo":         window.TypeCombo,
	"dnd":           window.TypeDND,
	"normal":        window.TypeNormal,
}

var stackingLevels = map[string]window.WindowLevel{
	"":                 window.LevelNormal,
	"normal":           window.LevelNormal,
	"always-on-top":    window.LevelAlwaysOnTop,
	"always-on-bottom": window.LevelAlwaysOnBottom,
}

var cursors = []platform.CursorIcon{
	platform.CursorDefault, platform.CursorPointer, platform.CursorText,
	platform.CursorCrosshair, platform.CursorMove, platform.CursorWait,
	platform.CursorHelp, platform.CursorEWResize, platform.CursorNSResize,
	platform.CursorNWResize, platform.CursorNEResize, platform.CursorSWResize,
	platform.CursorSEResize, platform.CursorNotAllowed,
}

func knownCursor(name string) bool {
	for _, c := range cursors {
		if string(c) == name {
			return true
		}
	}
	return false
}

type videoModeSpec struct {
	width, height uint32
	hz            float64 // zero matches any rate
}

// parseVideoMode reads WIDTHxHEIGHT or WIDTHxHEIGHT@HZ.
func parseVideoMode(s string) (videoModeSpec, error) {
	res, rate, hasRate := strings.Cut(s, "@")
	w, h, ok := strings.Cut(res, "x")
	if !ok {
		return videoModeSpec{}, fmt.Errorf("video mode %q: want WIDTHxHEIGHT[@HZ]", s)
	}
	width, err := strconv.ParseUint(w, 10, 32)
	if err != nil || width == 0 {
		return videoModeSpec{}, fmt.Errorf("video mode %q: bad width", s)
	}
	height, err := strconv.ParseUint(h, 10, 32)
	if err != nil || height == 0 {
		return videoModeSpec{}, fmt.Errorf("video mode %q: bad height", s)
	}
	spec := videoModeSpec{width: uint32(width), height: uint32(height)}
	if hasRate {
		hz, err := strconv.ParseFloat(rate, 64)
		if err != nil || hz <= 0 {
			return videoModeSpec{}, fmt.Errorf("video mode %q: bad refresh rate", s)
		}
		spec.hz = hz
	}
	return spec, nil
}

func (v videoModeSpec) matches(m platform.VideoMode) bool {
	if m.Size.Width != v.width || m.Size.Height != v.height {
		return false
	}
	if v.hz == 0 {
		return true
	}
	// Modes advertise fractional rates such as 59.951.
	diff := float64(m.RefreshRateMillihertz)/1000 - v.hz
	return diff > -0.5 && diff < 0.5
}

func (d *Dimensions) size() dpi.Size {
	if d == nil {
		return nil
	}
	if d.Physical {
		return dpi.PhysicalSize{Width: uint32(d.Width), Height: uint32(d.Height)}
	}
	return dpi.LogicalSize{Width: d.Width, Height: d.Height}
}

func (p *Point) position() dpi.Position {
	if p == nil {
		return nil
	}
	if p.Physical {
		return dpi.PhysicalPosition{X: int32(p.X), Y: int32(p.Y)}
	}
	return dpi.LogicalPosition{X: p.X, Y: p.Y}
}

// ToAttributes turns the window description into creation attributes.
// monitors resolves fullscreen targets.
func (w WindowConfig) ToAttributes(monitors []platform.Monitor) (window.Attributes, error) {
	attrs := window.DefaultAttributes()
	if w.Title != "" {
		attrs.Title = w.Title
	}
	attrs.SurfaceSize = w.Size.size()
	attrs.MinSurfaceSize = w.MinSize.size()
	attrs.MaxSurfaceSize = w.MaxSize.size()
	attrs.SurfaceResizeIncrements = w.ResizeIncrements.size()
	attrs.X11.BaseSize = w.BaseSize.size()
	attrs.Position = w.Position.position()

	if w.Resizable != nil {
		attrs.Resizable = *w.Resizable
	}
	if w.Decorations != nil {
		attrs.Decorations = *w.Decorations
	}
	if w.Visible != nil {
		attrs.Visible = *w.Visible
	}
	attrs.Transparent = w.Transparent
	attrs.Maximized = w.Maximized
	attrs.X11.OverrideRedirect = w.OverrideRedirect

	switch w.Theme {
	case "light":
		t := window.ThemeLight
		attrs.Theme = &t
	case "dark":
		t := window.ThemeDark
		attrs.Theme = &t
	}
	if w.Cursor != "" {
		attrs.Cursor = platform.CursorIcon(w.Cursor)
	}
	level, ok := stackingLevels[w.Level]
	if !ok {
		return attrs, fmt.Errorf("unknown window level %q", w.Level)
	}
	attrs.Level = level

	if w.Class != nil {
		attrs.X11.Class = &window.WMClass{Instance: w.Class.Instance, Class: w.Class.Class}
	}
	for _, name := range w.WindowTypes {
		t, ok := windowTypes[name]
		if !ok {
			return attrs, fmt.Errorf("unknown window type %q", name)
		}
		attrs.X11.WindowTypes = append(attrs.X11.WindowTypes, t)
	}

	if w.Fullscreen != nil {
		fs, err := w.Fullscreen.resolve(monitors)
		if err != nil {
			return attrs, err
		}
		attrs.Fullscreen = fs
	}

	if w.Icon != "" {
		icon, err := LoadIcon(w.Icon)
		if err != nil {
			return attrs, err
		}
		attrs.Icon = icon
	}
	return attrs, nil
}

func (f *FullscreenConfig) resolve(monitors []platform.Monitor) (*platform.Fullscreen, error) {
	var monitor *platform.Monitor
	for i := range monitors {
		m := &monitors[i]
		if (f.Monitor == "" && m.Primary) || (f.Monitor != "" && m.Name == f.Monitor) {
			monitor = m
			break
		}
	}
	if monitor == nil && f.Monitor == "" && len(monitors) > 0 {
		monitor = &monitors[0]
	}
	if monitor == nil && f.Monitor != "" {
		return nil, fmt.Errorf("fullscreen monitor %q not found", f.Monitor)
	}

	switch f.Mode {
	case "borderless":
		return platform.BorderlessFullscreen(monitor), nil
	case "exclusive":
		if monitor == nil || len(monitor.Modes) == 0 {
			return nil, fmt.Errorf("exclusive fullscreen: no video modes available")
		}
		if f.VideoMode == "" {
			return platform.ExclusiveFullscreen(*monitor, monitor.Modes[0]), nil
		}
		spec, err := parseVideoMode(f.VideoMode)
		if err != nil {
			return nil, err
		}
		for _, mode := range monitor.Modes {
			if spec.matches(mode) {
				return platform.ExclusiveFullscreen(*monitor, mode), nil
			}
		}
		return nil, fmt.Errorf("monitor %s has no video mode %s", monitor.Name, f.VideoMode)
	default:
		return nil, fmt.Errorf("unknown fullscreen mode %q", f.Mode)
	}
}

// LoadIcon decodes a PNG into ARGB pixels.
func LoadIcon(path string) (*platform.Icon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open icon: %w", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode icon %s: %w", path, err)
	}
	return iconFromImage(img), nil
}

func iconFromImage(img image.Image) *platform.Icon {
	b := img.Bounds()
	icon := &platform.Icon{
		Width:  uint32(b.Dx()),
		Height: uint32(b.Dy()),
		Pixels: make([]uint32, 0, b.Dx()*b.Dy()),
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			// RGBA returns 16-bit premultiplied channels.
			r, g, bl, a := img.At(x, y).RGBA()
			if a > 0 {
				r, g, bl = r*0xffff/a, g*0xffff/a, bl*0xffff/a
			}
			icon.Pixels = append(icon.Pixels, (a>>8)<<24|(r>>8)<<16|(g>>8)<<8|bl>>8)
		}
	}
	return icon
}
