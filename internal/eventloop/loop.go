package eventloop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/1broseidon/xwin/internal/dpi"
	"github.com/1broseidon/xwin/internal/platform"
	"github.com/1broseidon/xwin/internal/window"
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
)

// ErrConnectionClosed is returned by Run when the display connection goes
// away.
var ErrConnectionClosed = errors.New("display connection closed")

// Conn is the slice of the display connection the loop needs.
type Conn interface {
	WaitForEvent() (xgb.Event, xgb.Error)
	AtomName(atom xproto.Atom) (string, error)
	Monitors() ([]platform.Monitor, error)
	InnerPosition(win platform.WindowID) (dpi.PhysicalPosition, error)
	ReplyPing(ev xproto.ClientMessageEvent) error
}

// Handle is the per-window surface the loop drives. *window.Window
// implements it.
type Handle interface {
	ID() platform.WindowID
	VisibilityNotify()
	ConfigureNotify(position dpi.PhysicalPosition, size dpi.PhysicalSize) (resized, moved bool)
	FocusChanged(focused bool) bool
	InvalidateFrameExtents()
	CurrentMonitor() platform.Monitor
	UpdateMonitor(monitor platform.Monitor, handler window.ScaleChangeHandler)
	RefreshDPIForMonitor(monitor platform.Monitor, prevScale *float64, handler window.ScaleChangeHandler)
	GenerateActivationToken() (string, error)
}

var _ Handle = (*window.Window)(nil)

// Loop is the single consumer of display events. Windows are registered
// with it and receive their protocol notifications through Handle.
type Loop struct {
	conn   Conn
	app    Application
	logger *slog.Logger

	mu       sync.Mutex
	windows  map[platform.WindowID]Handle
	monitors []platform.Monitor

	redrawTx     *window.WakeSender[platform.WindowID]
	redrawRx     *window.WakeReceiver[platform.WindowID]
	activationTx *window.WakeSender[window.ActivationItem]
	activationRx *window.WakeReceiver[window.ActivationItem]
	imeTx        *window.WakeSender[window.IMEMessage]
	imeRx        *window.WakeReceiver[window.IMEMessage]
	refreshTx    *window.WakeSender[struct{}]
	refreshRx    *window.WakeReceiver[struct{}]
}

// New creates a loop reading from conn and delivering to app.
func New(conn Conn, app Application, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if app == nil {
		app = ApplicationFunc(func(WindowEvent) {})
	}
	l := &Loop{
		conn:    conn,
		app:     app,
		logger:  logger,
		windows: make(map[platform.WindowID]Handle),
	}
	l.redrawTx, l.redrawRx = window.NewWakeChannel[platform.WindowID]()
	l.activationTx, l.activationRx = window.NewWakeChannel[window.ActivationItem]()
	l.imeTx, l.imeRx = window.NewWakeChannel[window.IMEMessage]()
	l.refreshTx, l.refreshRx = window.NewWakeChannel[struct{}]()
	return l
}

// WindowEnv returns the environment windows created for this loop need.
func (l *Loop) WindowEnv(backend platform.Backend) window.Env {
	return window.Env{
		Backend:    backend,
		Logger:     l.logger,
		Quirks:     window.QuirksFor(backend.WMName()),
		Redraw:     l.redrawTx,
		Activation: l.activationTx,
		IME:        l.imeTx,
	}
}

// Register starts routing events for h.
func (l *Loop) Register(h Handle) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.windows[h.ID()] = h
}

// Unregister stops routing events for id.
func (l *Loop) Unregister(id platform.WindowID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, id)
}

func (l *Loop) lookup(id platform.WindowID) (Handle, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	h, ok := l.windows[id]
	return h, ok
}

func (l *Loop) handles() []Handle {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Handle, 0, len(l.windows))
	for _, h := range l.windows {
		out = append(out, h)
	}
	return out
}

type pumped struct {
	ev  xgb.Event
	err xgb.Error
}

// Run dispatches events until ctx is cancelled or the connection closes.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.RefreshMonitors(); err != nil {
		l.logger.Warn("initial monitor query failed", "error", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan pumped)
	go l.pump(ctx, events)

	l.logger.Info("event loop started")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("event loop stopped")
			return ctx.Err()
		case p, ok := <-events:
			if !ok {
				return ErrConnectionClosed
			}
			if p.err != nil {
				// Errors for requests whose cookie was ignored land here.
				l.logger.Debug("protocol error", "error", p.err)
				continue
			}
			l.Dispatch(p.ev)
		case <-l.redrawRx.C():
			l.drainRedraws()
		case <-l.activationRx.C():
			l.drainActivations()
		case <-l.imeRx.C():
			l.drainIME()
		case <-l.refreshRx.C():
			l.drainRefreshes()
		}
	}
}

func (l *Loop) pump(ctx context.Context, out chan<- pumped) {
	defer close(out)
	for {
		ev, err := l.conn.WaitForEvent()
		if ev == nil && err == nil {
			return
		}
		select {
		case out <- pumped{ev: ev, err: err}:
		case <-ctx.Done():
			return
		}
	}
}

// Dispatch routes one display event.
func (l *Loop) Dispatch(ev xgb.Event) {
	switch e := ev.(type) {
	case xproto.VisibilityNotifyEvent:
		if h, ok := l.lookup(platform.WindowID(e.Window)); ok {
			h.VisibilityNotify()
		}
	case xproto.ExposeEvent:
		if e.Count == 0 {
			l.emit(WindowEvent{Kind: RedrawRequested, Window: platform.WindowID(e.Window)})
		}
	case xproto.ConfigureNotifyEvent:
		l.configureNotify(e)
	case xproto.FocusInEvent:
		l.focus(platform.WindowID(e.Event), e.Detail, true)
	case xproto.FocusOutEvent:
		l.focus(platform.WindowID(e.Event), e.Detail, false)
	case xproto.PropertyNotifyEvent:
		l.propertyNotify(e)
	case xproto.ClientMessageEvent:
		l.clientMessage(e)
	case xproto.DestroyNotifyEvent:
		id := platform.WindowID(e.Window)
		if _, ok := l.lookup(id); ok {
			l.Unregister(id)
			l.emit(WindowEvent{Kind: Destroyed, Window: id})
		}
	case randr.ScreenChangeNotifyEvent, randr.NotifyEvent:
		if err := l.RefreshMonitors(); err != nil {
			l.logger.Warn("failed to refresh monitors", "error", err)
		}
	}
}

func (l *Loop) emit(ev WindowEvent) {
	if _, ok := l.lookup(ev.Window); !ok {
		return
	}
	l.app.WindowEvent(ev)
}

func (l *Loop) configureNotify(e xproto.ConfigureNotifyEvent) {
	id := platform.WindowID(e.Window)
	h, ok := l.lookup(id)
	if !ok {
		return
	}

	size := dpi.PhysicalSize{Width: uint32(e.Width), Height: uint32(e.Height)}
	// Once reparented the event carries parent-relative coordinates.
	pos, err := l.conn.InnerPosition(id)
	if err != nil {
		pos = dpi.PhysicalPosition{X: int32(e.X), Y: int32(e.Y)}
	}

	resized, moved := h.ConfigureNotify(pos, size)
	if moved || resized {
		l.trackMonitor(h, pos, size)
	}
	if resized {
		l.emit(WindowEvent{Kind: Resized, Window: id, Size: size})
	}
	if moved {
		l.emit(WindowEvent{Kind: Moved, Window: id, Position: pos})
	}
}

// trackMonitor moves h to the monitor holding the centre of its surface.
func (l *Loop) trackMonitor(h Handle, pos dpi.PhysicalPosition, size dpi.PhysicalSize) {
	cx := int(pos.X) + int(size.Width)/2
	cy := int(pos.Y) + int(size.Height)/2

	l.mu.Lock()
	next, found := platform.MonitorAt(l.monitors, cx, cy)
	l.mu.Unlock()

	if !found || next.Name == h.CurrentMonitor().Name {
		return
	}
	h.UpdateMonitor(next, l.scaleHandler(h.ID()))
}

func (l *Loop) focus(id platform.WindowID, detail byte, focused bool) {
	if detail == xproto.NotifyDetailPointer {
		return
	}
	h, ok := l.lookup(id)
	if !ok {
		return
	}
	if h.FocusChanged(focused) {
		l.emit(WindowEvent{Kind: Focused, Window: id, Focused: focused})
	}
}

func (l *Loop) propertyNotify(e xproto.PropertyNotifyEvent) {
	h, ok := l.lookup(platform.WindowID(e.Window))
	if !ok {
		return
	}
	name, err := l.conn.AtomName(e.Atom)
	if err != nil {
		return
	}
	switch name {
	case "_NET_FRAME_EXTENTS", "_NET_WM_STATE":
		h.InvalidateFrameExtents()
	}
}

func (l *Loop) clientMessage(e xproto.ClientMessageEvent) {
	id := platform.WindowID(e.Window)
	if _, ok := l.lookup(id); !ok {
		return
	}
	msgType, err := l.conn.AtomName(e.Type)
	if err != nil || msgType != "WM_PROTOCOLS" || e.Format != 32 {
		return
	}
	protocol, err := l.conn.AtomName(xproto.Atom(e.Data.Data32[0]))
	if err != nil {
		return
	}

	switch protocol {
	case "WM_DELETE_WINDOW":
		l.emit(WindowEvent{Kind: CloseRequested, Window: id})
	case "_NET_WM_PING":
		if err := l.conn.ReplyPing(e); err != nil {
			l.logger.Debug("failed to answer ping", "window", uint32(id), "error", err)
		}
	}
}

// RequestMonitorRefresh asks the loop goroutine to re-read the output list.
// It is safe to call from any goroutine.
func (l *Loop) RequestMonitorRefresh() {
	l.refreshTx.Send(struct{}{})
}

// RefreshMonitors re-reads the output list and rescales every window whose
// monitor changed its scale factor. It delivers events to the Application,
// so it must run on the loop goroutine; other goroutines use
// RequestMonitorRefresh.
func (l *Loop) RefreshMonitors() error {
	monitors, err := l.conn.Monitors()
	if err != nil {
		return fmt.Errorf("failed to query monitors: %w", err)
	}
	l.mu.Lock()
	l.monitors = monitors
	l.mu.Unlock()

	for _, h := range l.handles() {
		current := h.CurrentMonitor()
		for _, m := range monitors {
			if m.Name != current.Name || m.ScaleFactor == current.ScaleFactor {
				continue
			}
			prev := current.ScaleFactor
			l.logger.Debug("monitor scale changed", "monitor", m.Name, "old", prev, "new", m.ScaleFactor)
			h.RefreshDPIForMonitor(m, &prev, l.scaleHandler(h.ID()))
		}
	}
	return nil
}

// Monitors returns the last known output list.
func (l *Loop) Monitors() []platform.Monitor {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]platform.Monitor(nil), l.monitors...)
}

func (l *Loop) scaleHandler(id platform.WindowID) window.ScaleChangeHandler {
	return func(_ *window.Window, scale float64, writer *window.SurfaceSizeWriter) {
		l.emit(WindowEvent{Kind: ScaleFactorChanged, Window: id, ScaleFactor: scale, Writer: writer})
	}
}

func (l *Loop) drainRedraws() {
	seen := make(map[platform.WindowID]bool)
	for _, id := range l.redrawRx.Drain() {
		if seen[id] {
			continue
		}
		seen[id] = true
		l.emit(WindowEvent{Kind: RedrawRequested, Window: id})
	}
}

func (l *Loop) drainActivations() {
	for _, item := range l.activationRx.Drain() {
		h, ok := l.lookup(item.Window)
		if !ok {
			continue
		}
		token, err := h.GenerateActivationToken()
		if err != nil {
			l.logger.Warn("failed to generate activation token", "window", uint32(item.Window), "error", err)
			continue
		}
		l.emit(WindowEvent{Kind: ActivationTokenDone, Window: item.Window, Serial: item.Serial, Token: token})
	}
}

func (l *Loop) drainRefreshes() {
	if len(l.refreshRx.Drain()) == 0 {
		return
	}
	if err := l.RefreshMonitors(); err != nil {
		l.logger.Warn("failed to refresh monitors", "error", err)
	}
}

func (l *Loop) drainIME() {
	for _, msg := range l.imeRx.Drain() {
		l.emit(WindowEvent{Kind: IMERequested, Window: msg.Window, IME: msg})
	}
}
