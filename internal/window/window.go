package window

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/1broseidon/xwin/internal/dpi"
	"github.com/1broseidon/xwin/internal/platform"
)

// xdndVersion is the XDND protocol version advertised through XdndAware.
const xdndVersion = 5

// Env carries the collaborators shared by every window on a connection.
type Env struct {
	Backend platform.Backend
	Logger  *slog.Logger
	// Quirks of the running window manager, resolved once per connection.
	Quirks Quirks

	Redraw     *WakeSender[platform.WindowID]
	Activation *WakeSender[ActivationItem]
	IME        *WakeSender[IMEMessage]
}

// ActivationItem asks the event loop to fetch an activation token for
// Window and report it back tagged with Serial.
type ActivationItem struct {
	Window platform.WindowID
	Serial uint64
}

var activationSerial atomic.Uint64

// Window is a handle to a server-side window and its locally cached state.
// All methods are safe for concurrent use.
type Window struct {
	id          platform.WindowID
	root        platform.WindowID
	screen      int
	visual      uint32
	syncCounter uint32

	backend    platform.Backend
	logger     *slog.Logger
	quirks     Quirks
	redraw     *WakeSender[platform.WindowID]
	activation *WakeSender[ActivationItem]
	ime        *WakeSender[IMEMessage]

	mu    sync.Mutex
	state state

	cursorMu      sync.Mutex
	cursor        platform.CursorIcon
	cursorVisible bool

	grabMu sync.Mutex
	grab   CursorGrabMode

	closeOnce sync.Once
}

// pendingCookie is a best-effort request whose failure is reported after
// the final creation round trip.
type pendingCookie struct {
	what   string
	cookie platform.Cookie
}

// New creates a window and blocks until the server has acknowledged it.
func New(env Env, attrs Attributes) (*Window, error) {
	b := env.Backend
	logger := env.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	monitor, err := guessMonitor(b)
	if err != nil {
		return nil, err
	}
	scale := monitor.ScaleFactor

	requested := attrs.SurfaceSize
	if requested == nil {
		requested = defaultSurfaceSize
	}
	size := dpi.ClampSize(requested.ToPhysical(scale), attrs.MinSurfaceSize, attrs.MaxSurfaceSize, scale)
	size.Width = max(size.Width, 1)
	size.Height = max(size.Height, 1)

	var position dpi.PhysicalPosition
	if attrs.Position != nil {
		position = attrs.Position.ToPhysical(scale)
	}

	visual, err := chooseVisual(b, logger, &attrs)
	if err != nil {
		return nil, err
	}

	id, cookie := b.CreateWindow(platform.CreateWindowRequest{
		Parent:           attrs.X11.Parent,
		Position:         position,
		Size:             size,
		Class:            platform.InputOutput,
		Visual:           visual,
		OverrideRedirect: attrs.X11.OverrideRedirect,
	})
	if err := cookie.Check(); err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	w := &Window{
		id:            id,
		root:          b.RootWindow(),
		screen:        b.Screen(),
		backend:       b,
		logger:        logger.With("window", uint32(id)),
		quirks:        env.Quirks,
		redraw:        env.Redraw,
		activation:    env.Activation,
		ime:           env.IME,
		state:         newState(monitor, &attrs),
		cursor:        attrs.Cursor,
		cursorVisible: true,
	}
	if visual != nil {
		w.visual = visual.ID
	}
	w.state.size = size
	w.state.position = position

	var deferred []pendingCookie
	queue := func(what string, c platform.Cookie) {
		deferred = append(deferred, pendingCookie{what: what, cookie: c})
	}

	// Placement logic in some window managers reads these at map time.
	queue("title", w.setTitleInner(attrs.Title))
	if !attrs.Decorations {
		queue("decorations", w.setDecorationsInner(false))
	}
	if attrs.Theme != nil {
		queue("theme", w.setThemeInner(attrs.Theme))
	}

	queue("xdnd", b.ChangeProperty32(id, "XdndAware", "ATOM", xdndVersion))
	instance, general := wmClass(&attrs)
	queue("class", b.SetClass(id, instance, general))
	queue("pid", b.ChangeProperty32(id, "_NET_WM_PID", "CARDINAL", uint32(os.Getpid())))
	if host, err := os.Hostname(); err == nil {
		queue("client machine", b.ChangeString(id, "WM_CLIENT_MACHINE", false, host))
	}
	queue("window type", w.setWindowTypes(attrs.X11.WindowTypes))

	hints := platform.SizeHints{Size: &size}
	if attrs.Position != nil {
		hints.Position = &position
	}
	if attrs.Resizable || w.quirks.Has(QuirkNoResizeLock) {
		hints.MinSize = physicalHint(attrs.MinSurfaceSize, scale)
		hints.MaxSize = physicalHint(attrs.MaxSurfaceSize, scale)
	} else {
		hints.MinSize = &size
		hints.MaxSize = &size
	}
	hints.ResizeInc = physicalHint(attrs.SurfaceResizeIncrements, scale)
	hints.BaseSize = physicalHint(attrs.X11.BaseSize, scale)
	if err := b.SetNormalHints(id, hints).Check(); err != nil {
		w.logger.Warn("failed to set size hints", "error", err)
	}

	if attrs.Icon != nil {
		queue("icon", b.SetIcon(id, attrs.Icon))
	}

	protocols := []string{"WM_DELETE_WINDOW", "_NET_WM_PING"}
	if counter, err := b.CreateSyncCounter(); err != nil {
		w.logger.Debug("sync counter unavailable", "error", err)
	} else {
		w.syncCounter = counter
		protocols = append(protocols, "_NET_WM_SYNC_REQUEST")
		queue("sync counter", b.ChangeProperty32(id, "_NET_WM_SYNC_REQUEST_COUNTER", "CARDINAL", counter))
	}
	queue("protocols", b.ChangeAtoms(id, "WM_PROTOCOLS", protocols...))

	if attrs.Visible {
		queue("map", b.MapRaise(id))
		w.state.visibility = PendingVisible
	}

	if attrs.Maximized {
		queue("maximize", w.setMaximizedInner(true))
	}
	if attrs.Fullscreen != nil {
		if attrs.Position != nil {
			w.state.restorePosition = &position
		}
		// Not yet visible, so this only stages the request.
		if _, err := w.setFullscreenInner(attrs.Fullscreen); err != nil {
			w.logger.Warn("failed to stage fullscreen", "error", err)
		}
	}
	if attrs.Level != LevelNormal {
		queue("window level", w.setWindowLevelInner(attrs.Level))
	}

	if attrs.Cursor != "" && attrs.Cursor != platform.CursorDefault {
		queue("cursor", b.SetCursor(id, attrs.Cursor))
	}
	if attrs.ActivationToken != "" {
		queue("activation token", b.RemoveActivationToken(id, attrs.ActivationToken))
	}

	if err := b.Sync(); err != nil {
		b.DestroyWindow(id).Ignore()
		if w.syncCounter != 0 {
			b.DestroySyncCounter(w.syncCounter).Ignore()
		}
		return nil, fmt.Errorf("failed to confirm window creation: %w", err)
	}

	for _, p := range deferred {
		if err := p.cookie.Check(); err != nil {
			w.logger.Warn("failed to apply window metadata", "what", p.what, "error", err)
		}
	}

	w.logger.Debug("window created",
		"size", fmt.Sprintf("%dx%d", size.Width, size.Height),
		"monitor", monitor.Name,
		"scale", scale)
	return w, nil
}

// guessMonitor picks the output under the pointer, else the first output,
// else a dummy.
func guessMonitor(b platform.Backend) (platform.Monitor, error) {
	monitors, err := b.Monitors()
	if err != nil {
		return platform.Monitor{}, fmt.Errorf("failed to query monitors: %w", err)
	}
	pointer, err := b.PointerPosition()
	if err != nil {
		return platform.Monitor{}, fmt.Errorf("failed to query pointer: %w", err)
	}
	if m, ok := platform.MonitorAt(monitors, int(pointer.X), int(pointer.Y)); ok {
		return m, nil
	}
	if len(monitors) > 0 {
		return monitors[0], nil
	}
	return platform.DummyMonitor(), nil
}

func chooseVisual(b platform.Backend, logger *slog.Logger, attrs *Attributes) (*platform.Visual, error) {
	if attrs.X11.VisualID != 0 {
		v, ok := b.FindVisual(attrs.X11.VisualID)
		if !ok {
			return nil, fmt.Errorf("visual 0x%x: %w", attrs.X11.VisualID, ErrNoSuchVisual)
		}
		return &v, nil
	}
	if attrs.Transparent {
		if v, ok := b.TransparentVisual(); ok {
			return &v, nil
		}
		logger.Debug("no 32-bit TrueColor visual, using the parent's visual")
	}
	return nil, nil
}

func wmClass(attrs *Attributes) (instance, general string) {
	if attrs.X11.Class != nil {
		return attrs.X11.Class.Instance, attrs.X11.Class.Class
	}
	general = attrs.Title
	if len(os.Args) > 0 && os.Args[0] != "" {
		general = filepath.Base(os.Args[0])
	}
	instance = general
	if name := os.Getenv("RESOURCE_NAME"); name != "" {
		instance = name
	}
	return instance, general
}

func physicalHint(s dpi.Size, scale float64) *dpi.PhysicalSize {
	if s == nil {
		return nil
	}
	p := s.ToPhysical(scale)
	return &p
}

// ID returns the server-side window identifier.
func (w *Window) ID() platform.WindowID {
	return w.id
}

// Root returns the root window of the window's screen.
func (w *Window) Root() platform.WindowID {
	return w.root
}

// Screen returns the screen index the window was created on.
func (w *Window) Screen() int {
	return w.screen
}

// VisualID returns the explicitly chosen visual, or zero when inherited.
func (w *Window) VisualID() uint32 {
	return w.visual
}

// SyncCounterID returns the _NET_WM_SYNC_REQUEST counter, or zero when the
// server lacks the SYNC extension.
func (w *Window) SyncCounterID() uint32 {
	return w.syncCounter
}

// RequestRedraw wakes the event loop to deliver a redraw for this window.
func (w *Window) RequestRedraw() {
	w.redraw.Send(w.id)
}

// RequestActivationToken queues an asynchronous token request and returns
// the serial the result will be tagged with.
func (w *Window) RequestActivationToken() uint64 {
	serial := activationSerial.Add(1)
	w.activation.Send(ActivationItem{Window: w.id, Serial: serial})
	return serial
}

// GenerateActivationToken fetches a startup-notification token for this
// window. It blocks on the server.
func (w *Window) GenerateActivationToken() (string, error) {
	title, err := w.backend.StringProperty(w.id, "_NET_WM_NAME")
	if err != nil {
		return "", fmt.Errorf("failed to read window title: %w", err)
	}
	token, err := w.backend.RequestActivationToken(title)
	if err != nil {
		return "", fmt.Errorf("failed to request activation token: %w", err)
	}
	return token, nil
}

// Close undoes an exclusive video-mode switch and destroys the server
// window. Further calls are no-ops.
func (w *Window) Close() {
	w.closeOnce.Do(func() {
		if w.Fullscreen().IsExclusive() && w.IsVisible() {
			if err := w.SetFullscreen(nil); err != nil {
				w.logger.Warn("failed to leave fullscreen", "error", err)
			}
		}
		w.restoreDesktopVideoMode()

		if w.syncCounter != 0 {
			w.backend.DestroySyncCounter(w.syncCounter).Ignore()
		}
		w.backend.DestroyWindow(w.id).Ignore()
		w.logger.Debug("window destroyed")
	})
}
