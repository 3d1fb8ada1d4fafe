package window

import (
	"testing"

	"github.com/1broseidon/xwin/internal/dpi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIMEWindow(t *testing.T) (*Window, *WakeReceiver[IMEMessage]) {
	t.Helper()
	fb := newFakeBackend()
	fb.monitors[0].ScaleFactor = 2
	tx, rx := NewWakeChannel[IMEMessage]()
	w, err := New(Env{Backend: fb, IME: tx}, hiddenAttributes())
	require.NoError(t, err)
	return w, rx
}

func cursorArea() IMEState {
	return IMEState{CursorArea: &IMECursorArea{
		Position: dpi.LogicalPosition{X: 10, Y: 20},
		Size:     dpi.LogicalSize{Width: 4, Height: 16},
	}}
}

func TestIMELifecycle(t *testing.T) {
	w, rx := newIMEWindow(t)

	require.ErrorIs(t, w.RequestIMEUpdate(IMEUpdate{State: cursorArea()}), ErrIMENotEnabled)
	assert.Empty(t, rx.Drain())

	require.NoError(t, w.RequestIMEUpdate(IMEEnable{
		Capabilities: IMECapabilities{CursorArea: true},
		State:        cursorArea(),
	}))
	msgs := rx.Drain()
	require.Len(t, msgs, 2)
	assert.Equal(t, IMEMessage{Kind: IMEAllow, Window: w.ID(), Allowed: true}, msgs[0])
	assert.Equal(t, IMEMessage{
		Kind:     IMEArea,
		Window:   w.ID(),
		Position: dpi.PhysicalPosition{X: 20, Y: 40},
		Size:     dpi.PhysicalSize{Width: 8, Height: 32},
	}, msgs[1])
	require.NotNil(t, w.IMECapabilities())
	assert.True(t, w.IMECapabilities().CursorArea)

	require.ErrorIs(t, w.RequestIMEUpdate(IMEEnable{}), ErrIMEAlreadyEnabled)

	require.NoError(t, w.RequestIMEUpdate(IMEUpdate{State: cursorArea()}))
	assert.Len(t, rx.Drain(), 1)

	require.NoError(t, w.RequestIMEUpdate(IMEDisable{}))
	assert.Equal(t, []IMEMessage{{Kind: IMEAllow, Window: w.ID(), Allowed: false}}, rx.Drain())
	assert.Nil(t, w.IMECapabilities())
}

func TestIMECursorAreaNeedsCapability(t *testing.T) {
	w, rx := newIMEWindow(t)

	require.NoError(t, w.RequestIMEUpdate(IMEEnable{
		Capabilities: IMECapabilities{SurroundingText: true},
		State:        cursorArea(),
	}))
	msgs := rx.Drain()
	require.Len(t, msgs, 1)
	assert.Equal(t, IMEAllow, msgs[0].Kind)
}
