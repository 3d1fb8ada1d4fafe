package window

import "github.com/1broseidon/xwin/internal/platform"

// UserAttention is the strength of an attention request.
type UserAttention int

const (
	AttentionNone UserAttention = iota
	AttentionInformational
	AttentionCritical
)

// ICCCM IconicState, sent with WM_CHANGE_STATE.
const iconicState = 3

// Title returns the last title set on the window.
func (w *Window) Title() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.title
}

// SetTitle writes both the legacy and the UTF-8 title.
func (w *Window) SetTitle(title string) {
	w.setTitleInner(title).Ignore()
}

func (w *Window) setTitleInner(title string) platform.Cookie {
	w.mu.Lock()
	w.state.title = title
	w.mu.Unlock()

	w.backend.ChangeString(w.id, "WM_NAME", false, title).Ignore()
	return w.backend.ChangeString(w.id, "_NET_WM_NAME", true, title)
}

// SetDecorations asks the window manager to draw or drop the frame.
func (w *Window) SetDecorations(decorated bool) {
	w.setDecorationsInner(decorated).Ignore()
	w.invalidateFrameInfo()
}

func (w *Window) setDecorationsInner(decorated bool) platform.Cookie {
	w.mu.Lock()
	w.state.decorated = decorated
	w.mu.Unlock()
	return w.backend.SetDecorations(w.id, decorated)
}

// IsDecorated reports the last requested decoration state.
func (w *Window) IsDecorated() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.decorated
}

// SetTheme announces the preferred theme variant. Nil selects the dark
// variant.
func (w *Window) SetTheme(theme *Theme) {
	w.setThemeInner(theme).Ignore()
}

func (w *Window) setThemeInner(theme *Theme) platform.Cookie {
	w.mu.Lock()
	w.state.theme = theme
	w.mu.Unlock()

	variant := ThemeDark.String()
	if theme != nil {
		variant = theme.String()
	}
	return w.backend.ChangeString(w.id, "_GTK_THEME_VARIANT", true, variant)
}

// Theme returns the last requested theme, or nil.
func (w *Window) Theme() *Theme {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.theme
}

func (w *Window) setWindowTypes(types []WindowType) platform.Cookie {
	if len(types) == 0 {
		types = []WindowType{TypeNormal}
	}
	atoms := make([]string, len(types))
	for i, t := range types {
		atoms[i] = string(t)
	}
	return w.backend.ChangeAtoms(w.id, "_NET_WM_WINDOW_TYPE", atoms...)
}

// SetMaximized asks the window manager to maximize or restore the window.
func (w *Window) SetMaximized(maximized bool) {
	w.setMaximizedInner(maximized).Ignore()
	w.invalidateFrameInfo()
}

func (w *Window) setMaximizedInner(maximized bool) platform.Cookie {
	action := platform.StateRemove
	if maximized {
		action = platform.StateAdd
	}
	return w.setNetWMState(action, "_NET_WM_STATE_MAXIMIZED_HORZ", "_NET_WM_STATE_MAXIMIZED_VERT")
}

// IsMaximized reports whether both maximized states are set.
func (w *Window) IsMaximized() bool {
	states := w.netWMState()
	return states["_NET_WM_STATE_MAXIMIZED_HORZ"] && states["_NET_WM_STATE_MAXIMIZED_VERT"]
}

// SetMinimized iconifies the window, or activates it again.
func (w *Window) SetMinimized(minimized bool) {
	if minimized {
		w.backend.SendClientMessage(w.id, "WM_CHANGE_STATE", [5]uint32{iconicState}).Ignore()
		return
	}
	w.activate()
}

// IsMinimized reports whether the window manager hid the window.
func (w *Window) IsMinimized() bool {
	return w.netWMState()["_NET_WM_STATE_HIDDEN"]
}

func (w *Window) netWMState() map[string]bool {
	atoms, err := w.backend.Atoms(w.id, "_NET_WM_STATE")
	if err != nil {
		return nil
	}
	set := make(map[string]bool, len(atoms))
	for _, a := range atoms {
		set[a] = true
	}
	return set
}

// SetWindowLevel keeps the window above or below normal windows.
func (w *Window) SetWindowLevel(level WindowLevel) {
	w.setWindowLevelInner(level).Ignore()
}

func (w *Window) setWindowLevelInner(level WindowLevel) platform.Cookie {
	toggle := func(on bool) platform.StateAction {
		if on {
			return platform.StateAdd
		}
		return platform.StateRemove
	}
	w.setNetWMState(toggle(level == LevelAlwaysOnTop), "_NET_WM_STATE_ABOVE").Ignore()
	return w.setNetWMState(toggle(level == LevelAlwaysOnBottom), "_NET_WM_STATE_BELOW")
}

// SetWindowIcon replaces the icon; nil removes it.
func (w *Window) SetWindowIcon(icon *platform.Icon) {
	w.backend.SetIcon(w.id, icon).Ignore()
}

// FocusWindow asks the window manager to activate the window. Hidden or
// iconified windows are left alone.
func (w *Window) FocusWindow() {
	iconic, err := w.backend.IsIconic(w.id)
	if err != nil {
		w.logger.Debug("failed to read WM_STATE", "error", err)
	}
	if !w.IsVisible() || iconic {
		return
	}
	w.activate()
}

func (w *Window) activate() {
	// Source indication 1: a normal application.
	w.backend.SendClientMessage(w.id, "_NET_ACTIVE_WINDOW", [5]uint32{1}).Ignore()
}

// HasFocus reports whether the window holds keyboard focus.
func (w *Window) HasFocus() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.hasFocus
}

// FocusChanged records a focus event and reports whether it changed
// anything.
func (w *Window) FocusChanged(focused bool) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.hasFocus == focused {
		return false
	}
	w.state.hasFocus = focused
	return true
}

// RequestUserAttention sets or clears the urgency hint.
func (w *Window) RequestUserAttention(kind UserAttention) {
	w.backend.SetUrgency(w.id, kind != AttentionNone).Ignore()
}
