package window

import (
	"github.com/1broseidon/xwin/internal/dpi"
	"github.com/1broseidon/xwin/internal/platform"
)

// WindowLevel controls stacking relative to other windows.
type WindowLevel int

const (
	LevelNormal WindowLevel = iota
	LevelAlwaysOnTop
	LevelAlwaysOnBottom
)

// Theme is the preferred decoration variant announced through
// _GTK_THEME_VARIANT.
type Theme int

const (
	ThemeLight Theme = iota
	ThemeDark
)

func (t Theme) String() string {
	if t == ThemeDark {
		return "dark"
	}
	return "light"
}

// WindowType is an _NET_WM_WINDOW_TYPE classification.
type WindowType string

const (
	TypeDesktop      WindowType = "_NET_WM_WINDOW_TYPE_DESKTOP"
	TypeDock         WindowType = "_NET_WM_WINDOW_TYPE_DOCK"
	TypeToolbar      WindowType = "_NET_WM_WINDOW_TYPE_TOOLBAR"
	TypeMenu         WindowType = "_NET_WM_WINDOW_TYPE_MENU"
	TypeUtility      WindowType = "_NET_WM_WINDOW_TYPE_UTILITY"
	TypeSplash       WindowType = "_NET_WM_WINDOW_TYPE_SPLASH"
	TypeDialog       WindowType = "_NET_WM_WINDOW_TYPE_DIALOG"
	TypeDropdownMenu WindowType = "_NET_WM_WINDOW_TYPE_DROPDOWN_MENU"
	TypePopupMenu    WindowType = "_NET_WM_WINDOW_TYPE_POPUP_MENU"
	TypeTooltip      WindowType = "_NET_WM_WINDOW_TYPE_TOOLTIP"
	TypeNotification WindowType = "_NET_WM_WINDOW_TYPE_NOTIFICATION"
	TypeCombo        WindowType = "_NET_WM_WINDOW_TYPE_COMBO"
	TypeDND          WindowType = "_NET_WM_WINDOW_TYPE_DND"
	TypeNormal       WindowType = "_NET_WM_WINDOW_TYPE_NORMAL"
)

// ResizeDirection names the edge or corner of an interactive resize.
type ResizeDirection int

const (
	ResizeEast ResizeDirection = iota
	ResizeNorth
	ResizeNorthEast
	ResizeNorthWest
	ResizeSouth
	ResizeSouthEast
	ResizeSouthWest
	ResizeWest
)

// _NET_WM_MOVERESIZE directions.
const (
	moveResizeTopLeft     = 0
	moveResizeTop         = 1
	moveResizeTopRight    = 2
	moveResizeRight       = 3
	moveResizeBottomRight = 4
	moveResizeBottom      = 5
	moveResizeBottomLeft  = 6
	moveResizeLeft        = 7
	moveResizeMove        = 8
)

func (d ResizeDirection) moveResizeAction() uint32 {
	switch d {
	case ResizeEast:
		return moveResizeRight
	case ResizeNorth:
		return moveResizeTop
	case ResizeNorthEast:
		return moveResizeTopRight
	case ResizeNorthWest:
		return moveResizeTopLeft
	case ResizeSouth:
		return moveResizeBottom
	case ResizeSouthEast:
		return moveResizeBottomRight
	case ResizeSouthWest:
		return moveResizeBottomLeft
	default:
		return moveResizeLeft
	}
}

// WMClass is the WM_CLASS pair.
type WMClass struct {
	Instance string
	Class    string
}

// X11Attributes are creation options that only make sense on X11.
type X11Attributes struct {
	// VisualID requests an exact visual; zero lets the engine choose.
	VisualID uint32
	// Parent embeds the window; zero means the root window.
	Parent           platform.WindowID
	Class            *WMClass
	WindowTypes      []WindowType
	BaseSize         dpi.Size
	OverrideRedirect bool
}

// Attributes is the immutable creation request for a window.
type Attributes struct {
	SurfaceSize             dpi.Size
	MinSurfaceSize          dpi.Size
	MaxSurfaceSize          dpi.Size
	SurfaceResizeIncrements dpi.Size
	Position                dpi.Position

	Resizable   bool
	Decorations bool
	Transparent bool
	Visible     bool
	Maximized   bool
	Fullscreen  *platform.Fullscreen
	Theme       *Theme
	Title       string
	Icon        *platform.Icon
	Cursor      platform.CursorIcon
	Level       WindowLevel

	// ActivationToken is a startup-notification ID handed over by the
	// launcher. It is consumed during creation.
	ActivationToken string

	X11 X11Attributes
}

// DefaultAttributes returns the attributes of a plain visible top-level.
func DefaultAttributes() Attributes {
	return Attributes{
		Resizable:   true,
		Decorations: true,
		Visible:     true,
		Title:       "xwin window",
		Cursor:      platform.CursorDefault,
	}
}

var defaultSurfaceSize = dpi.LogicalSize{Width: 800, Height: 600}
