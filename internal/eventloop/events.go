package eventloop

import (
	"fmt"

	"github.com/1broseidon/xwin/internal/dpi"
	"github.com/1broseidon/xwin/internal/platform"
	"github.com/1broseidon/xwin/internal/window"
)

// EventKind identifies a WindowEvent.
type EventKind int

const (
	Resized EventKind = iota
	Moved
	Focused
	CloseRequested
	Destroyed
	RedrawRequested
	ScaleFactorChanged
	ActivationTokenDone
	IMERequested
)

var eventNames = map[EventKind]string{
	Resized:             "resized",
	Moved:               "moved",
	Focused:             "focused",
	CloseRequested:      "close-requested",
	Destroyed:           "destroyed",
	RedrawRequested:     "redraw-requested",
	ScaleFactorChanged:  "scale-factor-changed",
	ActivationTokenDone: "activation-token-done",
	IMERequested:        "ime-requested",
}

func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// WindowEvent is delivered to the Application on the loop goroutine. Only
// the fields relevant to Kind are set.
type WindowEvent struct {
	Kind   EventKind
	Window platform.WindowID

	Size     dpi.PhysicalSize
	Position dpi.PhysicalPosition
	Focused  bool

	// ScaleFactorChanged: the writer may be used to override the proposed
	// size until WindowEvent returns.
	ScaleFactor float64
	Writer      *window.SurfaceSizeWriter

	// ActivationTokenDone
	Serial uint64
	Token  string

	// IMERequested
	IME window.IMEMessage
}

// Application receives window events.
type Application interface {
	WindowEvent(ev WindowEvent)
}

// ApplicationFunc adapts a function to Application.
type ApplicationFunc func(ev WindowEvent)

func (f ApplicationFunc) WindowEvent(ev WindowEvent) { f(ev) }
