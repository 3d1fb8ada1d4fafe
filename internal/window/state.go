package window

import (
	"github.com/1broseidon/xwin/internal/dpi"
	"github.com/1broseidon/xwin/internal/platform"
)

// Visibility is the mapping phase of a window.
type Visibility int

const (
	// Hidden: unmapped, or an unmap was requested.
	Hidden Visibility = iota
	// PendingVisible: a map was requested and the server has not yet
	// reported the window visible.
	PendingVisible
	// Visible: the server reported the window visible.
	Visible
)

func (v Visibility) String() string {
	switch v {
	case Hidden:
		return "hidden"
	case PendingVisible:
		return "pending"
	case Visible:
		return "visible"
	default:
		return "unknown"
	}
}

// stagedFullscreen holds a fullscreen request made while the window was not
// visible. A nil target means "leave fullscreen".
type stagedFullscreen struct {
	target *platform.Fullscreen
}

// savedVideoMode is the desktop mode of a CRTC before an exclusive
// fullscreen switched it.
type savedVideoMode struct {
	crtc uint32
	mode uint32
}

// state is everything about a window that can change after creation. It is
// only touched with Window.mu held.
type state struct {
	visibility        Visibility
	fullscreen        *platform.Fullscreen
	desiredFullscreen *stagedFullscreen
	restorePosition   *dpi.PhysicalPosition
	desktopVideoMode  *savedVideoMode
	frameInfo         *platform.FrameInfo

	minSize          dpi.Size
	maxSize          dpi.Size
	resizeIncrements dpi.Size
	baseSize         dpi.Size

	resizable       bool
	decorated       bool
	hasFocus        bool
	cursorHittest   *bool
	imeCapabilities *IMECapabilities
	lastMonitor     platform.Monitor
	theme           *Theme
	title           string

	// Caches fed by the event loop.
	size     dpi.PhysicalSize
	position dpi.PhysicalPosition
}

func newState(monitor platform.Monitor, attrs *Attributes) state {
	return state{
		visibility:       Hidden,
		minSize:          attrs.MinSurfaceSize,
		maxSize:          attrs.MaxSurfaceSize,
		resizeIncrements: attrs.SurfaceResizeIncrements,
		baseSize:         attrs.X11.BaseSize,
		resizable:        attrs.Resizable,
		decorated:        attrs.Decorations,
		lastMonitor:      monitor,
		theme:            attrs.Theme,
		title:            attrs.Title,
	}
}
