package window

import (
	"fmt"

	"github.com/1broseidon/xwin/internal/dpi"
	"github.com/1broseidon/xwin/internal/platform"
)

// CursorGrabMode is how the pointer is held by the window.
type CursorGrabMode int

const (
	GrabNone CursorGrabMode = iota
	// GrabConfined keeps the pointer inside the window.
	GrabConfined
	// GrabLocked pins the pointer in place. Not available on X11.
	GrabLocked
)

func (m CursorGrabMode) String() string {
	switch m {
	case GrabNone:
		return "none"
	case GrabConfined:
		return "confined"
	case GrabLocked:
		return "locked"
	default:
		return fmt.Sprintf("mode %d", int(m))
	}
}

// SetCursor selects the cursor image. While the cursor is hidden the
// selection is only remembered.
func (w *Window) SetCursor(icon platform.CursorIcon) {
	w.cursorMu.Lock()
	changed := w.cursor != icon
	w.cursor = icon
	visible := w.cursorVisible
	w.cursorMu.Unlock()

	if changed && visible {
		w.backend.SetCursor(w.id, icon).Ignore()
	}
}

// SetCursorVisible hides or shows the cursor over the window. Showing it
// restores the last selected image.
func (w *Window) SetCursorVisible(visible bool) {
	w.cursorMu.Lock()
	if w.cursorVisible == visible {
		w.cursorMu.Unlock()
		return
	}
	w.cursorVisible = visible
	icon := w.cursor
	w.cursorMu.Unlock()

	if visible {
		w.backend.SetCursor(w.id, icon).Ignore()
	} else {
		w.backend.HideCursor(w.id).Ignore()
	}
}

// CursorGrab returns the active grab mode.
func (w *Window) CursorGrab() CursorGrabMode {
	w.grabMu.Lock()
	defer w.grabMu.Unlock()
	return w.grab
}

// SetCursorGrab changes how the pointer is held. Requesting the active mode
// does nothing.
func (w *Window) SetCursorGrab(mode CursorGrabMode) error {
	if mode == GrabLocked {
		return fmt.Errorf("locked cursor: %w", ErrNotSupported)
	}

	w.grabMu.Lock()
	defer w.grabMu.Unlock()
	if mode == w.grab {
		return nil
	}

	// A stale passive grab would make the new grab fail as already grabbed.
	w.backend.UngrabPointer().Ignore()
	w.grab = GrabNone

	if mode == GrabNone {
		return nil
	}

	status, err := w.backend.GrabPointer(w.id)
	if err != nil {
		return fmt.Errorf("failed to grab pointer: %w", err)
	}
	switch status {
	case platform.GrabSuccess:
		w.grab = mode
		return nil
	case platform.GrabAlreadyGrabbed:
		return &GrabError{Reason: GrabAlreadyGrabbed}
	case platform.GrabInvalidTime:
		return &GrabError{Reason: GrabInvalidTime}
	case platform.GrabNotViewable:
		return &GrabError{Reason: GrabNotViewable}
	default:
		return &GrabError{Reason: GrabFrozen}
	}
}

// SetCursorPosition warps the pointer to pos relative to the window.
func (w *Window) SetCursorPosition(pos dpi.Position) error {
	p := pos.ToPhysical(w.ScaleFactor())
	if err := w.backend.WarpPointer(w.id, p).Check(); err != nil {
		return fmt.Errorf("failed to warp pointer: %w", err)
	}
	return nil
}

// SetCursorHittest controls whether the window receives pointer input. When
// off, clicks pass through to whatever is below.
func (w *Window) SetCursorHittest(hittest bool) error {
	var size dpi.PhysicalSize
	if hittest {
		size = w.SurfaceSize()
	}
	return w.setInputRegion(hittest, size)
}

func (w *Window) setInputRegion(hittest bool, size dpi.PhysicalSize) error {
	var region *platform.Rect
	if hittest {
		region = &platform.Rect{Width: int(size.Width), Height: int(size.Height)}
	}
	if err := w.backend.SetInputRegion(w.id, region).Check(); err != nil {
		return fmt.Errorf("failed to set input region: %w", err)
	}

	w.mu.Lock()
	w.state.cursorHittest = &hittest
	w.mu.Unlock()
	return nil
}

// reapplyHittest restores a full-surface input region of the given size
// when hit-testing is on.
func (w *Window) reapplyHittest(size dpi.PhysicalSize) {
	w.mu.Lock()
	hittest := w.state.cursorHittest != nil && *w.state.cursorHittest
	w.mu.Unlock()
	if !hittest {
		return
	}
	if err := w.setInputRegion(true, size); err != nil {
		w.logger.Debug("failed to reapply hit-test region", "error", err)
	}
}

// DragWindow starts an interactive move driven by the window manager. The
// left button must be held.
func (w *Window) DragWindow() error {
	return w.dragInitiate(moveResizeMove)
}

// DragResizeWindow starts an interactive resize from the given edge.
func (w *Window) DragResizeWindow(dir ResizeDirection) error {
	return w.dragInitiate(dir.moveResizeAction())
}

func (w *Window) dragInitiate(action uint32) error {
	pointer, err := w.backend.PointerPosition()
	if err != nil {
		return fmt.Errorf("failed to query pointer: %w", err)
	}

	// Hold the grab lock so no grab sneaks in before the WM takes over.
	w.grabMu.Lock()
	defer w.grabMu.Unlock()
	w.backend.UngrabPointer().Ignore()
	w.grab = GrabNone

	data := [5]uint32{uint32(pointer.X), uint32(pointer.Y), action, 1, 1}
	if err := w.backend.SendClientMessage(w.id, "_NET_WM_MOVERESIZE", data).Check(); err != nil {
		return fmt.Errorf("failed to start window drag: %w", err)
	}
	return nil
}
