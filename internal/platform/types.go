package platform

import (
	"fmt"

	"github.com/1broseidon/xwin/internal/dpi"
)

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Contains reports whether the point lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// VideoMode is a resolution and refresh rate an output can be driven at.
type VideoMode struct {
	ID                    uint32
	Size                  dpi.PhysicalSize
	BitDepth              uint16
	RefreshRateMillihertz uint32
}

func (v VideoMode) String() string {
	return fmt.Sprintf("%dx%d@%d.%03dHz", v.Size.Width, v.Size.Height,
		v.RefreshRateMillihertz/1000, v.RefreshRateMillihertz%1000)
}

// Monitor describes an output reported by the display server. ID is the
// CRTC driving the output; it is zero for the dummy monitor and for the
// root screen of a server without RandR.
type Monitor struct {
	ID                    uint32
	Name                  string
	Position              dpi.PhysicalPosition
	Size                  dpi.PhysicalSize
	ScaleFactor           float64
	RefreshRateMillihertz uint32
	Primary               bool
	Modes                 []VideoMode
}

const dummyMonitorName = "<dummy monitor>"

// DummyMonitor is used when the server reports no outputs at all.
func DummyMonitor() Monitor {
	return Monitor{
		Name:        dummyMonitorName,
		Size:        dpi.PhysicalSize{Width: 1, Height: 1},
		ScaleFactor: 1,
	}
}

// IsDummy reports whether m is a placeholder rather than a real output.
func (m Monitor) IsDummy() bool {
	return m.ID == 0 && m.Name == dummyMonitorName
}

// MonitorAt returns the monitor whose rectangle holds the root coordinate
// x, y.
func MonitorAt(monitors []Monitor, x, y int) (Monitor, bool) {
	for _, m := range monitors {
		if m.Rect().Contains(x, y) {
			return m, true
		}
	}
	return Monitor{}, false
}

// Rect returns the output's rectangle in root coordinates.
func (m Monitor) Rect() Rect {
	return Rect{
		X:      int(m.Position.X),
		Y:      int(m.Position.Y),
		Width:  int(m.Size.Width),
		Height: int(m.Size.Height),
	}
}

// NativeMode finds the output mode whose ID matches mode.
func (m Monitor) NativeMode(mode VideoMode) (VideoMode, bool) {
	for _, vm := range m.Modes {
		if vm.ID == mode.ID {
			return vm, true
		}
	}
	return VideoMode{}, false
}

// FullscreenKind distinguishes the two fullscreen flavours.
type FullscreenKind int

const (
	Borderless FullscreenKind = iota
	Exclusive
)

func (k FullscreenKind) String() string {
	if k == Exclusive {
		return "exclusive"
	}
	return "borderless"
}

// Fullscreen describes an active or requested fullscreen mode. A nil
// *Fullscreen means windowed. Borderless may leave Monitor nil to mean the
// window's current monitor; Exclusive always names both Monitor and Mode.
type Fullscreen struct {
	Kind    FullscreenKind
	Monitor *Monitor
	Mode    VideoMode
}

// BorderlessFullscreen requests borderless fullscreen on m, or the current
// monitor when m is nil.
func BorderlessFullscreen(m *Monitor) *Fullscreen {
	return &Fullscreen{Kind: Borderless, Monitor: m}
}

// ExclusiveFullscreen requests that m be switched to mode.
func ExclusiveFullscreen(m Monitor, mode VideoMode) *Fullscreen {
	return &Fullscreen{Kind: Exclusive, Monitor: &m, Mode: mode}
}

// IsExclusive is nil-safe.
func (f *Fullscreen) IsExclusive() bool {
	return f != nil && f.Kind == Exclusive
}

// Equal compares two possibly-nil fullscreen values. Monitors compare by ID.
func (f *Fullscreen) Equal(o *Fullscreen) bool {
	if f == nil || o == nil {
		return f == nil && o == nil
	}
	if f.Kind != o.Kind {
		return false
	}
	if (f.Monitor == nil) != (o.Monitor == nil) {
		return false
	}
	if f.Monitor != nil && f.Monitor.ID != o.Monitor.ID {
		return false
	}
	return f.Kind == Borderless || f.Mode.ID == o.Mode.ID
}

func (f *Fullscreen) String() string {
	switch {
	case f == nil:
		return "windowed"
	case f.Kind == Exclusive:
		return fmt.Sprintf("exclusive(%s, %s)", f.Monitor.Name, f.Mode)
	case f.Monitor != nil:
		return fmt.Sprintf("borderless(%s)", f.Monitor.Name)
	default:
		return "borderless"
	}
}

// FrameExtents are the decoration sizes around a window's client area.
type FrameExtents struct {
	Left   uint32
	Right  uint32
	Top    uint32
	Bottom uint32
}

// FrameSource records how a FrameExtents value was obtained.
type FrameSource int

const (
	// FrameSupported means the WM advertised _NET_FRAME_EXTENTS.
	FrameSupported FrameSource = iota
	// FrameUnsupportedNested means extents were derived from the
	// reparenting frame window tree.
	FrameUnsupportedNested
	// FrameUnsupportedBordered means only the X border width was known.
	FrameUnsupportedBordered
)

// FrameInfo pairs frame extents with their provenance.
type FrameInfo struct {
	Extents FrameExtents
	Source  FrameSource
}

// InnerToOuterPosition converts a client-area position to the frame position.
func (f FrameInfo) InnerToOuterPosition(x, y int32) (int32, int32) {
	return x - int32(f.Extents.Left), y - int32(f.Extents.Top)
}

// InnerToOuterSize adds the decorations to a client-area size.
func (f FrameInfo) InnerToOuterSize(size dpi.PhysicalSize) dpi.PhysicalSize {
	return dpi.PhysicalSize{
		Width:  size.Width + f.Extents.Left + f.Extents.Right,
		Height: size.Height + f.Extents.Top + f.Extents.Bottom,
	}
}

// SizeHints is the WM_NORMAL_HINTS content. Nil fields are unset.
type SizeHints struct {
	Position  *dpi.PhysicalPosition
	Size      *dpi.PhysicalSize
	MinSize   *dpi.PhysicalSize
	MaxSize   *dpi.PhysicalSize
	ResizeInc *dpi.PhysicalSize
	BaseSize  *dpi.PhysicalSize
}

// Visual is a color-plane format usable for a new window.
type Visual struct {
	ID    uint32
	Depth uint8
}

// WindowClass is the kind of server window to create.
type WindowClass int

const (
	InputOutput WindowClass = iota
	InputOnly
)

// CreateWindowRequest carries the fixed attributes of a new server window.
type CreateWindowRequest struct {
	Parent           WindowID
	Position         dpi.PhysicalPosition
	Size             dpi.PhysicalSize
	Class            WindowClass
	Visual           *Visual
	OverrideRedirect bool
}

// Configure is a partial geometry update; nil fields are left alone.
type Configure struct {
	X      *int32
	Y      *int32
	Width  *uint32
	Height *uint32
}

// StateAction is the _NET_WM_STATE client message action.
type StateAction uint32

const (
	StateRemove StateAction = 0
	StateAdd    StateAction = 1
	StateToggle StateAction = 2
)

// GrabStatus is the server's answer to a pointer grab.
type GrabStatus int

const (
	GrabSuccess GrabStatus = iota
	GrabAlreadyGrabbed
	GrabInvalidTime
	GrabNotViewable
	GrabFrozen
)

// CursorIcon names a themed cursor shape.
type CursorIcon string

const (
	CursorDefault    CursorIcon = "default"
	CursorPointer    CursorIcon = "pointer"
	CursorText       CursorIcon = "text"
	CursorCrosshair  CursorIcon = "crosshair"
	CursorMove       CursorIcon = "move"
	CursorWait       CursorIcon = "wait"
	CursorHelp       CursorIcon = "help"
	CursorEWResize   CursorIcon = "ew-resize"
	CursorNSResize   CursorIcon = "ns-resize"
	CursorNWResize   CursorIcon = "nw-resize"
	CursorNEResize   CursorIcon = "ne-resize"
	CursorSWResize   CursorIcon = "sw-resize"
	CursorSEResize   CursorIcon = "se-resize"
	CursorNotAllowed CursorIcon = "not-allowed"
)

// Icon is an ARGB window icon, one uint32 per pixel, row-major.
type Icon struct {
	Width  uint32
	Height uint32
	Pixels []uint32
}
