package eventloop

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/1broseidon/xwin/internal/dpi"
	"github.com/1broseidon/xwin/internal/platform"
	"github.com/1broseidon/xwin/internal/window"
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWindow = platform.WindowID(0x2a00001)

var testAtoms = map[xproto.Atom]string{
	301: "WM_PROTOCOLS",
	302: "WM_DELETE_WINDOW",
	303: "_NET_WM_PING",
	304: "_NET_FRAME_EXTENTS",
	305: "_NET_WM_STATE",
	306: "WM_NAME",
}

type fakeConn struct {
	mu       sync.Mutex
	events   chan xgb.Event
	monitors []platform.Monitor
	position dpi.PhysicalPosition
	pings    []xproto.ClientMessageEvent
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		events: make(chan xgb.Event, 16),
		monitors: []platform.Monitor{
			{ID: 63, Name: "DP-1", Size: dpi.PhysicalSize{Width: 1920, Height: 1080}, ScaleFactor: 1},
			{ID: 64, Name: "HDMI-1", Position: dpi.PhysicalPosition{X: 1920}, Size: dpi.PhysicalSize{Width: 3840, Height: 2160}, ScaleFactor: 2},
		},
	}
}

func (c *fakeConn) WaitForEvent() (xgb.Event, xgb.Error) {
	ev, ok := <-c.events
	if !ok {
		return nil, nil
	}
	return ev, nil
}

func (c *fakeConn) AtomName(atom xproto.Atom) (string, error) {
	if name, ok := testAtoms[atom]; ok {
		return name, nil
	}
	return "", errors.New("BadAtom")
}

func (c *fakeConn) Monitors() ([]platform.Monitor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]platform.Monitor(nil), c.monitors...), nil
}

func (c *fakeConn) InnerPosition(platform.WindowID) (dpi.PhysicalPosition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position, nil
}

func (c *fakeConn) ReplyPing(ev xproto.ClientMessageEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pings = append(c.pings, ev)
	return nil
}

type fakeHandle struct {
	mu          sync.Mutex
	id          platform.WindowID
	visibility  int
	invalidated int
	focused     bool
	size        dpi.PhysicalSize
	position    dpi.PhysicalPosition
	monitor     platform.Monitor
	updates     []platform.Monitor
	refreshes   []float64
}

func newFakeHandle() *fakeHandle {
	return &fakeHandle{
		id:      testWindow,
		size:    dpi.PhysicalSize{Width: 800, Height: 600},
		monitor: platform.Monitor{ID: 63, Name: "DP-1", ScaleFactor: 1},
	}
}

func (h *fakeHandle) ID() platform.WindowID { return h.id }

func (h *fakeHandle) VisibilityNotify() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.visibility++
}

func (h *fakeHandle) ConfigureNotify(pos dpi.PhysicalPosition, size dpi.PhysicalSize) (bool, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	resized, moved := h.size != size, h.position != pos
	h.size, h.position = size, pos
	return resized, moved
}

func (h *fakeHandle) FocusChanged(focused bool) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	changed := h.focused != focused
	h.focused = focused
	return changed
}

func (h *fakeHandle) InvalidateFrameExtents() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.invalidated++
}

func (h *fakeHandle) CurrentMonitor() platform.Monitor {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.monitor
}

func (h *fakeHandle) UpdateMonitor(m platform.Monitor, handler window.ScaleChangeHandler) {
	h.mu.Lock()
	old := h.monitor
	h.monitor = m
	h.updates = append(h.updates, m)
	h.mu.Unlock()
	if old.ScaleFactor != m.ScaleFactor {
		handler(nil, m.ScaleFactor, nil)
	}
}

func (h *fakeHandle) RefreshDPIForMonitor(m platform.Monitor, prev *float64, handler window.ScaleChangeHandler) {
	h.mu.Lock()
	h.monitor = m
	h.refreshes = append(h.refreshes, *prev)
	h.mu.Unlock()
	handler(nil, m.ScaleFactor, nil)
}

func (h *fakeHandle) GenerateActivationToken() (string, error) {
	return "xwin42_TIME0", nil
}

type recorder struct {
	mu     sync.Mutex
	events []WindowEvent
}

func (r *recorder) WindowEvent(ev WindowEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventKind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}

func (r *recorder) last() WindowEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

func newTestLoop(t *testing.T) (*Loop, *fakeConn, *fakeHandle, *recorder) {
	t.Helper()
	conn := newFakeConn()
	app := &recorder{}
	l := New(conn, app, nil)
	h := newFakeHandle()
	l.Register(h)
	require.NoError(t, l.RefreshMonitors())
	return l, conn, h, app
}

func protocolMessage(protocol xproto.Atom) xproto.ClientMessageEvent {
	return xproto.ClientMessageEvent{
		Format: 32,
		Window: xproto.Window(testWindow),
		Type:   301,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{uint32(protocol), 0, 0, 0, 0}),
	}
}

func TestDispatchVisibility(t *testing.T) {
	l, _, h, _ := newTestLoop(t)

	l.Dispatch(xproto.VisibilityNotifyEvent{Window: xproto.Window(testWindow)})
	l.Dispatch(xproto.VisibilityNotifyEvent{Window: 0x99})
	assert.Equal(t, 1, h.visibility)
}

func TestDispatchConfigure(t *testing.T) {
	l, conn, h, app := newTestLoop(t)

	conn.position = dpi.PhysicalPosition{X: 100, Y: 100}
	l.Dispatch(xproto.ConfigureNotifyEvent{Window: xproto.Window(testWindow), Width: 1024, Height: 768})
	assert.Equal(t, []EventKind{Resized, Moved}, app.kinds())
	assert.Empty(t, h.updates, "still on the same monitor")

	conn.position = dpi.PhysicalPosition{X: 2400, Y: 100}
	l.Dispatch(xproto.ConfigureNotifyEvent{Window: xproto.Window(testWindow), Width: 1024, Height: 768})
	require.Len(t, h.updates, 1)
	assert.Equal(t, "HDMI-1", h.updates[0].Name)
	assert.Equal(t, []EventKind{Resized, Moved, ScaleFactorChanged, Moved}, app.kinds())

	l.Dispatch(xproto.ConfigureNotifyEvent{Window: xproto.Window(testWindow), Width: 1024, Height: 768})
	assert.Len(t, app.kinds(), 4, "unchanged geometry emits nothing")
}

func TestDispatchFocus(t *testing.T) {
	l, _, h, app := newTestLoop(t)

	l.Dispatch(xproto.FocusInEvent{Event: xproto.Window(testWindow), Detail: xproto.NotifyDetailPointer})
	assert.False(t, h.focused)

	l.Dispatch(xproto.FocusInEvent{Event: xproto.Window(testWindow), Detail: xproto.NotifyDetailNonlinear})
	l.Dispatch(xproto.FocusInEvent{Event: xproto.Window(testWindow), Detail: xproto.NotifyDetailNonlinear})
	l.Dispatch(xproto.FocusOutEvent{Event: xproto.Window(testWindow), Detail: xproto.NotifyDetailNonlinear})

	require.Equal(t, []EventKind{Focused, Focused}, app.kinds())
	assert.False(t, app.last().Focused)
}

func TestDispatchPropertyNotify(t *testing.T) {
	tests := []struct {
		atom xproto.Atom
		want int
	}{
		{304, 1},
		{305, 1},
		{306, 0},
		{999, 0},
	}
	for _, tt := range tests {
		l, _, h, _ := newTestLoop(t)
		l.Dispatch(xproto.PropertyNotifyEvent{Window: xproto.Window(testWindow), Atom: tt.atom})
		assert.Equal(t, tt.want, h.invalidated, "atom %d", tt.atom)
	}
}

func TestDispatchClientMessage(t *testing.T) {
	l, conn, _, app := newTestLoop(t)

	l.Dispatch(protocolMessage(302))
	assert.Equal(t, []EventKind{CloseRequested}, app.kinds())

	l.Dispatch(protocolMessage(303))
	require.Len(t, conn.pings, 1)
	assert.Equal(t, xproto.Atom(301), conn.pings[0].Type)
	assert.Len(t, app.kinds(), 1, "pings are answered silently")
}

func TestDispatchDestroy(t *testing.T) {
	l, _, h, app := newTestLoop(t)

	l.Dispatch(xproto.DestroyNotifyEvent{Window: xproto.Window(testWindow)})
	assert.Equal(t, []EventKind{Destroyed}, app.kinds())

	l.Dispatch(xproto.VisibilityNotifyEvent{Window: xproto.Window(testWindow)})
	assert.Zero(t, h.visibility, "destroyed windows are unregistered")
}

func TestRandRRefreshesScale(t *testing.T) {
	l, conn, h, app := newTestLoop(t)

	conn.mu.Lock()
	conn.monitors[0].ScaleFactor = 1.5
	conn.mu.Unlock()

	l.Dispatch(randr.ScreenChangeNotifyEvent{})
	assert.Equal(t, []float64{1}, h.refreshes)
	require.Equal(t, []EventKind{ScaleFactorChanged}, app.kinds())
	assert.Equal(t, 1.5, app.last().ScaleFactor)
	assert.Equal(t, 1.5, l.Monitors()[0].ScaleFactor)

	l.Dispatch(randr.NotifyEvent{})
	assert.Len(t, h.refreshes, 1, "unchanged scale is not reapplied")
}

func TestRunDrainsWakeChannels(t *testing.T) {
	l, conn, _, app := newTestLoop(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	l.redrawTx.Send(testWindow)
	l.redrawTx.Send(testWindow)
	l.activationTx.Send(window.ActivationItem{Window: testWindow, Serial: 7})
	l.imeTx.Send(window.IMEMessage{Kind: window.IMEAllow, Window: testWindow, Allowed: true})
	conn.events <- xproto.VisibilityNotifyEvent{Window: xproto.Window(testWindow)}

	assert.Eventually(t, func() bool {
		kinds := app.kinds()
		var redraws, tokens, ime int
		for _, k := range kinds {
			switch k {
			case RedrawRequested:
				redraws++
			case ActivationTokenDone:
				tokens++
			case IMERequested:
				ime++
			}
		}
		return redraws >= 1 && tokens == 1 && ime == 1
	}, time.Second, 5*time.Millisecond)

	app.mu.Lock()
	for _, ev := range app.events {
		if ev.Kind == ActivationTokenDone {
			assert.Equal(t, uint64(7), ev.Serial)
			assert.Equal(t, "xwin42_TIME0", ev.Token)
		}
	}
	app.mu.Unlock()

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestReconcilerRefreshRunsOnLoop(t *testing.T) {
	l, conn, h, app := newTestLoop(t)
	refreshes := func() int {
		h.mu.Lock()
		defer h.mu.Unlock()
		return len(h.refreshes)
	}

	conn.mu.Lock()
	conn.monitors[0].ScaleFactor = 2
	conn.mu.Unlock()

	NewReconciler(ReconcilerConfig{}, l).ReconcileNow()
	assert.Zero(t, refreshes(), "reconciler must not touch windows itself")
	assert.Empty(t, app.kinds())

	conn.events <- randr.ScreenChangeNotifyEvent{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	assert.Eventually(t, func() bool { return refreshes() == 1 }, time.Second, 5*time.Millisecond)
	assert.Never(t, func() bool { return refreshes() > 1 }, 50*time.Millisecond, 5*time.Millisecond)
	assert.Equal(t, []EventKind{ScaleFactorChanged}, app.kinds())

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestRunReportsClosedConnection(t *testing.T) {
	l, conn, _, _ := newTestLoop(t)
	close(conn.events)

	err := l.Run(context.Background())
	assert.ErrorIs(t, err, ErrConnectionClosed)
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "close-requested", CloseRequested.String())
	assert.Equal(t, "event(99)", EventKind(99).String())
}
