package window

// SetVisible maps or unmaps the window. Repeating the current request is a
// no-op.
func (w *Window) SetVisible(visible bool) {
	w.mu.Lock()
	switch {
	case visible && w.state.visibility == Hidden:
		w.state.visibility = PendingVisible
		w.mu.Unlock()
		w.backend.MapRaise(w.id).Ignore()
	case !visible && w.state.visibility != Hidden:
		w.state.visibility = Hidden
		w.mu.Unlock()
		w.backend.Unmap(w.id).Ignore()
	default:
		w.mu.Unlock()
	}
}

// IsVisible reports whether the server has confirmed the window visible.
func (w *Window) IsVisible() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.visibility == Visible
}

// Visibility returns the current mapping phase.
func (w *Window) Visibility() Visibility {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.visibility
}

// VisibilityNotify reconciles local intent with a VisibilityNotify event
// from the server. A fullscreen request staged while the window was hidden
// is applied here, exactly once.
func (w *Window) VisibilityNotify() {
	w.mu.Lock()
	switch w.state.visibility {
	case Hidden:
		w.mu.Unlock()
		// Something mapped us against our intent.
		w.backend.Unmap(w.id).Ignore()
	case PendingVisible:
		w.state.visibility = Visible
		staged := w.state.desiredFullscreen
		w.state.desiredFullscreen = nil
		w.mu.Unlock()
		if staged != nil {
			if err := w.SetFullscreen(staged.target); err != nil {
				w.logger.Warn("failed to apply staged fullscreen", "error", err)
			}
		}
	default:
		w.mu.Unlock()
	}
}
