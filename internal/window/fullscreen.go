package window

import (
	"fmt"

	"github.com/1broseidon/xwin/internal/dpi"
	"github.com/1broseidon/xwin/internal/platform"
)

// Fullscreen returns the requested fullscreen mode. A request staged while
// the window is not yet visible takes precedence over the applied one.
func (w *Window) Fullscreen() *platform.Fullscreen {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.desiredFullscreen != nil {
		return w.state.desiredFullscreen.target
	}
	return w.state.fullscreen
}

// SetFullscreen enters, switches or leaves fullscreen. On a window that is
// not yet visible the request is staged until the server reports it
// visible.
func (w *Window) SetFullscreen(target *platform.Fullscreen) error {
	cookie, err := w.setFullscreenInner(target)
	if err != nil {
		return err
	}
	if cookie == nil {
		return nil
	}
	err = cookie.Check()
	w.invalidateFrameInfo()
	if err != nil {
		return fmt.Errorf("failed to change fullscreen state: %w", err)
	}
	return nil
}

// setFullscreenInner applies target and returns the cookie of the
// _NET_WM_STATE request, or nil when nothing was sent.
func (w *Window) setFullscreenInner(target *platform.Fullscreen) (platform.Cookie, error) {
	w.mu.Lock()
	if w.state.visibility != Visible {
		// Setting fullscreen on an unmapped window fails on the server.
		w.state.desiredFullscreen = &stagedFullscreen{target: target}
		w.mu.Unlock()
		return nil, nil
	}

	old := w.state.fullscreen
	if old.Equal(target) {
		w.mu.Unlock()
		return nil, nil
	}

	var monitor platform.Monitor
	if target != nil {
		if target.Monitor != nil {
			monitor = *target.Monitor
		} else {
			monitor = w.state.lastMonitor
		}
		if monitor.IsDummy() {
			w.mu.Unlock()
			return nil, nil
		}
	}

	w.state.fullscreen = target

	var restore *savedVideoMode
	snapshot := false
	switch {
	case !old.IsExclusive() && target.IsExclusive():
		snapshot = true
	case old.IsExclusive() && !target.IsExclusive():
		restore = w.state.desktopVideoMode
		w.state.desktopVideoMode = nil
	}
	w.mu.Unlock()

	if snapshot {
		mode, err := w.backend.CrtcMode(monitor.ID)
		if err != nil {
			w.mu.Lock()
			w.state.fullscreen = old
			w.mu.Unlock()
			return nil, fmt.Errorf("failed to read desktop video mode: %w", err)
		}
		w.mu.Lock()
		w.state.desktopVideoMode = &savedVideoMode{crtc: monitor.ID, mode: mode}
		w.mu.Unlock()
	}
	if restore != nil {
		if err := w.backend.SetCrtcMode(restore.crtc, restore.mode); err != nil {
			w.logger.Error("failed to restore desktop video mode",
				"crtc", restore.crtc, "mode", restore.mode, "error", err)
		}
	}

	if target == nil {
		cookie := w.setNetWMState(platform.StateRemove, "_NET_WM_STATE_FULLSCREEN")
		w.mu.Lock()
		pos := w.state.restorePosition
		w.state.restorePosition = nil
		w.mu.Unlock()
		if pos != nil {
			w.setPositionInner(*pos).Ignore()
		}
		return cookie, nil
	}

	if target.IsExclusive() {
		// Switching this CRTC does not move the outputs beside it, so a
		// larger mode can overlap its neighbours until fullscreen ends.
		if native, ok := monitor.NativeMode(target.Mode); ok {
			if err := w.backend.SetCrtcMode(monitor.ID, native.ID); err != nil {
				w.logger.Error("failed to set video mode",
					"monitor", monitor.Name, "mode", native.String(), "error", err)
			}
		}
	}

	if outer, err := w.OuterPosition(); err == nil {
		w.mu.Lock()
		w.state.restorePosition = &outer
		w.mu.Unlock()
	} else {
		w.logger.Warn("failed to save window position", "error", err)
	}
	w.setPositionInner(monitor.Position).Ignore()
	cookie := w.setNetWMState(platform.StateAdd, "_NET_WM_STATE_FULLSCREEN")
	// An exclusive mode without focus can leave the display locked up.
	w.backend.SetInputFocus(w.id).Ignore()
	return cookie, nil
}

// restoreDesktopVideoMode gives back a CRTC mode this window still owes,
// without touching any other fullscreen state.
func (w *Window) restoreDesktopVideoMode() {
	w.mu.Lock()
	saved := w.state.desktopVideoMode
	w.state.desktopVideoMode = nil
	w.mu.Unlock()
	if saved == nil {
		return
	}
	if err := w.backend.SetCrtcMode(saved.crtc, saved.mode); err != nil {
		w.logger.Error("failed to restore desktop video mode", "crtc", saved.crtc, "error", err)
	}
}

// setNetWMState asks the window manager to change up to two _NET_WM_STATE
// atoms at once.
func (w *Window) setNetWMState(action platform.StateAction, atoms ...string) platform.Cookie {
	data := [5]uint32{uint32(action)}
	for i, name := range atoms[:min(len(atoms), 2)] {
		atom, err := w.backend.Atom(name)
		if err != nil {
			return failedCookie{err}
		}
		data[i+1] = atom
	}
	return w.backend.SendClientMessage(w.id, "_NET_WM_STATE", data)
}

func (w *Window) setPositionInner(pos dpi.PhysicalPosition) platform.Cookie {
	if w.quirks.Has(QuirkClientAreaPositioning) {
		if info, err := w.frameInfo(); err == nil {
			pos.X += int32(min(info.Extents.Left, 1<<31-1))
			pos.Y += int32(min(info.Extents.Top, 1<<31-1))
		} else {
			w.logger.Debug("frame extents unavailable for positioning", "error", err)
		}
	}
	x, y := pos.X, pos.Y
	return w.backend.Configure(w.id, platform.Configure{X: &x, Y: &y})
}
