package window

import (
	"errors"
	"testing"

	"github.com/1broseidon/xwin/internal/dpi"
	"github.com/1broseidon/xwin/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ platform.Backend = (*fakeBackend)(nil)

func newTestWindow(t *testing.T, fb *fakeBackend, attrs Attributes) *Window {
	t.Helper()
	w, err := New(Env{Backend: fb, Quirks: QuirksFor(fb.wmName)}, attrs)
	require.NoError(t, err)
	return w
}

func hiddenAttributes() Attributes {
	attrs := DefaultAttributes()
	attrs.Visible = false
	return attrs
}

// newVisibleWindow returns a window the server has already reported visible.
func newVisibleWindow(t *testing.T, fb *fakeBackend) *Window {
	t.Helper()
	w := newTestWindow(t, fb, DefaultAttributes())
	w.VisibilityNotify()
	require.True(t, w.IsVisible())
	return w
}

func TestNewAppliesMetadataBeforeMap(t *testing.T) {
	fb := newFakeBackend()
	attrs := DefaultAttributes()
	attrs.Title = "editor"
	attrs.Decorations = false
	dark := ThemeDark
	attrs.Theme = &dark

	w := newTestWindow(t, fb, attrs)

	mapAt := fb.index("MapRaise")
	require.GreaterOrEqual(t, mapAt, 0)
	for _, call := range []string{
		"ChangeString WM_NAME",
		"ChangeString _NET_WM_NAME",
		"SetDecorations false",
		"ChangeString _GTK_THEME_VARIANT",
	} {
		at := fb.index(call)
		require.GreaterOrEqual(t, at, 0, call)
		assert.Less(t, at, mapAt, "%s must precede the map request", call)
	}

	assert.Equal(t, "editor", fb.strings["_NET_WM_NAME"])
	assert.Equal(t, "dark", fb.strings["_GTK_THEME_VARIANT"])
	assert.Equal(t, PendingVisible, w.Visibility())
	assert.False(t, w.IsDecorated())
	assert.Equal(t, 1, fb.count("Sync"), "creation ends with one round trip")
	assert.Equal(t, fb.index("Sync"), len(fb.calls)-1)
}

func TestNewAdvertisesProtocols(t *testing.T) {
	tests := []struct {
		name       string
		counterErr error
		want       []string
	}{
		{"with sync counter", nil, []string{"WM_DELETE_WINDOW", "_NET_WM_PING", "_NET_WM_SYNC_REQUEST"}},
		{"without sync extension", errors.New("no SYNC"), []string{"WM_DELETE_WINDOW", "_NET_WM_PING"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := newFakeBackend()
			fb.counterErr = tt.counterErr
			w := newTestWindow(t, fb, hiddenAttributes())

			assert.Equal(t, tt.want, fb.atomLists["WM_PROTOCOLS"])
			if tt.counterErr == nil {
				assert.NotZero(t, w.SyncCounterID())
				assert.Equal(t, 1, fb.count("ChangeProperty32 _NET_WM_SYNC_REQUEST_COUNTER"))
			} else {
				assert.Zero(t, w.SyncCounterID())
				assert.Zero(t, fb.count("ChangeProperty32 _NET_WM_SYNC_REQUEST_COUNTER"))
			}
			assert.Equal(t, []string{string(TypeNormal)}, fb.atomLists["_NET_WM_WINDOW_TYPE"])
			assert.Equal(t, 1, fb.count("ChangeProperty32 XdndAware [5]"))
		})
	}
}

func TestNewGuessesMonitorUnderPointer(t *testing.T) {
	fb := newFakeBackend()
	fb.monitors = append(fb.monitors, platform.Monitor{
		ID:          64,
		Name:        "HDMI-1",
		Position:    dpi.PhysicalPosition{X: 1920},
		Size:        dpi.PhysicalSize{Width: 3840, Height: 2160},
		ScaleFactor: 2,
	})
	fb.pointer = dpi.PhysicalPosition{X: 2500, Y: 300}

	w := newTestWindow(t, fb, hiddenAttributes())

	assert.Equal(t, "HDMI-1", w.CurrentMonitor().Name)
	assert.Equal(t, 2.0, w.ScaleFactor())
	assert.Equal(t, dpi.PhysicalSize{Width: 1600, Height: 1200}, fb.size)
}

func TestNewFallsBackToDummyMonitor(t *testing.T) {
	fb := newFakeBackend()
	fb.monitors = nil

	w := newTestWindow(t, fb, hiddenAttributes())
	assert.True(t, w.CurrentMonitor().IsDummy())
	assert.Equal(t, 1.0, w.ScaleFactor())
}

func TestNewClampsSize(t *testing.T) {
	fb := newFakeBackend()
	attrs := hiddenAttributes()
	attrs.SurfaceSize = dpi.PhysicalSize{Width: 100, Height: 5000}
	attrs.MinSurfaceSize = dpi.PhysicalSize{Width: 320, Height: 240}
	attrs.MaxSurfaceSize = dpi.LogicalSize{Width: 1000, Height: 1000}

	newTestWindow(t, fb, attrs)
	assert.Equal(t, dpi.PhysicalSize{Width: 320, Height: 1000}, fb.size)
}

func TestNewFatalErrors(t *testing.T) {
	t.Run("unknown visual", func(t *testing.T) {
		fb := newFakeBackend()
		attrs := hiddenAttributes()
		attrs.X11.VisualID = 0x21

		_, err := New(Env{Backend: fb}, attrs)
		require.ErrorIs(t, err, ErrNoSuchVisual)
		assert.Zero(t, fb.count("CreateWindow"))
	})

	t.Run("create rejected", func(t *testing.T) {
		fb := newFakeBackend()
		fb.createErr = errors.New("BadAlloc")

		_, err := New(Env{Backend: fb}, hiddenAttributes())
		require.Error(t, err)
		assert.Zero(t, fb.count("ChangeString"))
	})

	t.Run("confirmation round trip fails", func(t *testing.T) {
		fb := newFakeBackend()
		fb.syncErr = errors.New("connection reset")

		_, err := New(Env{Backend: fb}, DefaultAttributes())
		require.Error(t, err)
		assert.Equal(t, 1, fb.count("DestroyWindow"))
		assert.Equal(t, 1, fb.count("DestroySyncCounter"))
	})

	t.Run("monitor query", func(t *testing.T) {
		fb := newFakeBackend()
		fb.monitorErr = errors.New("RandR missing")

		_, err := New(Env{Backend: fb}, DefaultAttributes())
		require.Error(t, err)
		assert.Zero(t, fb.count("CreateWindow"))
	})
}

func TestNewTransparentVisual(t *testing.T) {
	fb := newFakeBackend()
	fb.transparent = &platform.Visual{ID: 0x5f, Depth: 32}
	attrs := hiddenAttributes()
	attrs.Transparent = true

	w := newTestWindow(t, fb, attrs)
	assert.Equal(t, uint32(0x5f), w.VisualID())

	fb = newFakeBackend()
	w = newTestWindow(t, fb, attrs)
	assert.Zero(t, w.VisualID(), "falls back to the parent visual")
}

func TestNewNonResizablePinsSize(t *testing.T) {
	tests := []struct {
		name   string
		wm     string
		pinned bool
	}{
		{"generic window manager", "Openbox", true},
		{"xfwm4", "Xfwm4", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := newFakeBackend()
			fb.wmName = tt.wm
			attrs := hiddenAttributes()
			attrs.Resizable = false

			newTestWindow(t, fb, attrs)

			want := dpi.PhysicalSize{Width: 800, Height: 600}
			if tt.pinned {
				require.NotNil(t, fb.hints.MinSize)
				require.NotNil(t, fb.hints.MaxSize)
				assert.Equal(t, want, *fb.hints.MinSize)
				assert.Equal(t, want, *fb.hints.MaxSize)
			} else {
				assert.Nil(t, fb.hints.MinSize)
				assert.Nil(t, fb.hints.MaxSize)
			}
		})
	}
}

func TestNewConsumesActivationToken(t *testing.T) {
	fb := newFakeBackend()
	attrs := hiddenAttributes()
	attrs.ActivationToken = "launcher42_TIME99"
	attrs.Cursor = platform.CursorText

	newTestWindow(t, fb, attrs)
	assert.Equal(t, 1, fb.count("RemoveActivationToken launcher42_TIME99"))
	assert.Equal(t, 1, fb.count("SetCursor text"))
	assert.Less(t, fb.index("RemoveActivationToken"), fb.index("Sync"))
}

func TestCloseDestroysWindowOnce(t *testing.T) {
	fb := newFakeBackend()
	w := newTestWindow(t, fb, hiddenAttributes())

	w.Close()
	w.Close()
	assert.Equal(t, 1, fb.count("DestroyWindow"))
	assert.Equal(t, 1, fb.count("DestroySyncCounter"))
}

func TestRequestRedrawWakesLoop(t *testing.T) {
	fb := newFakeBackend()
	redrawTx, redrawRx := NewWakeChannel[platform.WindowID]()
	activationTx, activationRx := NewWakeChannel[ActivationItem]()
	w, err := New(Env{Backend: fb, Redraw: redrawTx, Activation: activationTx}, hiddenAttributes())
	require.NoError(t, err)

	w.RequestRedraw()
	w.RequestRedraw()
	<-redrawRx.C()
	assert.Equal(t, []platform.WindowID{w.ID(), w.ID()}, redrawRx.Drain())

	serial := w.RequestActivationToken()
	<-activationRx.C()
	items := activationRx.Drain()
	require.Len(t, items, 1)
	assert.Equal(t, ActivationItem{Window: w.ID(), Serial: serial}, items[0])
	assert.Greater(t, w.RequestActivationToken(), serial)
}
