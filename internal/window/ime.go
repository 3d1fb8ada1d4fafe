package window

import (
	"fmt"

	"github.com/1broseidon/xwin/internal/dpi"
	"github.com/1broseidon/xwin/internal/platform"
)

// IMECapabilities are the input method features an application handles.
type IMECapabilities struct {
	CursorArea      bool
	SurroundingText bool
}

// IMEState is the per-request input method data.
type IMEState struct {
	// CursorArea, when set, is where the candidate window should appear.
	CursorArea *IMECursorArea
}

// IMECursorArea is the text cursor rectangle relative to the window.
type IMECursorArea struct {
	Position dpi.Position
	Size     dpi.Size
}

// IMERequest is one of IMEEnable, IMEUpdate or IMEDisable.
type IMERequest interface {
	imeRequest()
}

// IMEEnable turns the input method on.
type IMEEnable struct {
	Capabilities IMECapabilities
	State        IMEState
}

// IMEUpdate changes the state of an enabled input method.
type IMEUpdate struct {
	State IMEState
}

// IMEDisable turns the input method off.
type IMEDisable struct{}

func (IMEEnable) imeRequest()  {}
func (IMEUpdate) imeRequest()  {}
func (IMEDisable) imeRequest() {}

// IMEMessageKind tags an IMEMessage.
type IMEMessageKind int

const (
	// IMEAllow switches input method processing for the window on or off.
	IMEAllow IMEMessageKind = iota
	// IMEArea moves the candidate window.
	IMEArea
)

// IMEMessage is forwarded to the event loop, which owns the input method
// connection.
type IMEMessage struct {
	Kind     IMEMessageKind
	Window   platform.WindowID
	Allowed  bool
	Position dpi.PhysicalPosition
	Size     dpi.PhysicalSize
}

// RequestIMEUpdate enables, updates or disables the input method.
func (w *Window) RequestIMEUpdate(req IMERequest) error {
	w.mu.Lock()
	var (
		caps  IMECapabilities
		state IMEState
	)
	switch r := req.(type) {
	case IMEEnable:
		if w.state.imeCapabilities != nil {
			w.mu.Unlock()
			return ErrIMEAlreadyEnabled
		}
		c := r.Capabilities
		w.state.imeCapabilities = &c
		w.mu.Unlock()
		w.setIMEAllowed(true)
		caps, state = r.Capabilities, r.State
	case IMEUpdate:
		if w.state.imeCapabilities == nil {
			w.mu.Unlock()
			return ErrIMENotEnabled
		}
		caps, state = *w.state.imeCapabilities, r.State
		w.mu.Unlock()
	case IMEDisable:
		w.state.imeCapabilities = nil
		w.mu.Unlock()
		w.setIMEAllowed(false)
		return nil
	default:
		w.mu.Unlock()
		return fmt.Errorf("ime request %T: %w", req, ErrNotSupported)
	}

	if area := state.CursorArea; area != nil && area.Position != nil && area.Size != nil {
		if caps.CursorArea {
			w.setIMECursorArea(area.Position, area.Size)
		} else {
			w.logger.Warn("discarding IME cursor area update without capability enabled")
		}
	}
	return nil
}

// IMECapabilities returns the enabled capabilities, or nil when the input
// method is off.
func (w *Window) IMECapabilities() *IMECapabilities {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.imeCapabilities == nil {
		return nil
	}
	c := *w.state.imeCapabilities
	return &c
}

func (w *Window) setIMEAllowed(allowed bool) {
	w.ime.Send(IMEMessage{Kind: IMEAllow, Window: w.id, Allowed: allowed})
}

func (w *Window) setIMECursorArea(pos dpi.Position, size dpi.Size) {
	scale := w.ScaleFactor()
	w.ime.Send(IMEMessage{
		Kind:     IMEArea,
		Window:   w.id,
		Position: pos.ToPhysical(scale),
		Size:     size.ToPhysical(scale),
	})
}
