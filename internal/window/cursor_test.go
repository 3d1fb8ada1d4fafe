package window

import (
	"testing"

	"github.com/1broseidon/xwin/internal/dpi"
	"github.com/1broseidon/xwin/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetCursorGrab(t *testing.T) {
	t.Run("confine then repeat is a no-op", func(t *testing.T) {
		fb := newFakeBackend()
		w := newVisibleWindow(t, fb)

		require.NoError(t, w.SetCursorGrab(GrabConfined))
		assert.Equal(t, GrabConfined, w.CursorGrab())
		ungrabs, grabs := fb.count("UngrabPointer"), fb.count("GrabPointer")

		require.NoError(t, w.SetCursorGrab(GrabConfined))
		assert.Equal(t, ungrabs, fb.count("UngrabPointer"))
		assert.Equal(t, grabs, fb.count("GrabPointer"))
	})

	t.Run("locked is not supported", func(t *testing.T) {
		fb := newFakeBackend()
		w := newVisibleWindow(t, fb)

		err := w.SetCursorGrab(GrabLocked)
		require.ErrorIs(t, err, ErrNotSupported)
		assert.Zero(t, fb.count("GrabPointer"))
		assert.Equal(t, GrabNone, w.CursorGrab())
	})

	t.Run("release", func(t *testing.T) {
		fb := newFakeBackend()
		w := newVisibleWindow(t, fb)

		require.NoError(t, w.SetCursorGrab(GrabConfined))
		require.NoError(t, w.SetCursorGrab(GrabNone))
		assert.Equal(t, GrabNone, w.CursorGrab())
		assert.Equal(t, 1, fb.count("GrabPointer"))
		assert.Equal(t, 2, fb.count("UngrabPointer"))
	})
}

func TestSetCursorGrabFailure(t *testing.T) {
	tests := []struct {
		status platform.GrabStatus
		reason GrabReason
	}{
		{platform.GrabAlreadyGrabbed, GrabAlreadyGrabbed},
		{platform.GrabInvalidTime, GrabInvalidTime},
		{platform.GrabNotViewable, GrabNotViewable},
		{platform.GrabFrozen, GrabFrozen},
	}

	for _, tt := range tests {
		t.Run(tt.reason.String(), func(t *testing.T) {
			fb := newFakeBackend()
			fb.grabStatus = tt.status
			w := newVisibleWindow(t, fb)

			err := w.SetCursorGrab(GrabConfined)
			require.Error(t, err)
			assert.True(t, IsGrabReason(err, tt.reason), "got %v", err)
			assert.Equal(t, GrabNone, w.CursorGrab())
		})
	}
}

func TestCursorVisibilityRestoresIcon(t *testing.T) {
	fb := newFakeBackend()
	w := newVisibleWindow(t, fb)

	w.SetCursor(platform.CursorCrosshair)
	w.SetCursor(platform.CursorCrosshair)
	assert.Equal(t, []platform.CursorIcon{platform.CursorCrosshair}, fb.cursors)

	w.SetCursorVisible(false)
	w.SetCursor(platform.CursorWait)
	assert.Equal(t, 1, fb.count("HideCursor"))
	assert.Len(t, fb.cursors, 1, "selection while hidden is only remembered")

	w.SetCursorVisible(true)
	assert.Equal(t, []platform.CursorIcon{platform.CursorCrosshair, platform.CursorWait}, fb.cursors)
}

func TestCursorHittest(t *testing.T) {
	fb := newFakeBackend()
	w := newVisibleWindow(t, fb)

	require.NoError(t, w.SetCursorHittest(false))
	require.Len(t, fb.regions, 1)
	assert.Nil(t, fb.regions[0])

	w.RequestSurfaceSize(dpi.PhysicalSize{Width: 640, Height: 480})
	assert.Len(t, fb.regions, 1, "pass-through windows keep an empty region")

	require.NoError(t, w.SetCursorHittest(true))
	require.Len(t, fb.regions, 2)
	assert.Equal(t, &platform.Rect{Width: 640, Height: 480}, fb.regions[1])

	fb.mu.Lock()
	queries := fb.sizeQueries
	fb.mu.Unlock()

	// The WM settled on a different size than the one requested.
	w.ConfigureNotify(dpi.PhysicalPosition{}, dpi.PhysicalSize{Width: 1024, Height: 768})
	require.Len(t, fb.regions, 3)
	assert.Equal(t, &platform.Rect{Width: 1024, Height: 768}, fb.regions[2])

	w.ConfigureNotify(dpi.PhysicalPosition{}, dpi.PhysicalSize{Width: 1024, Height: 768})
	assert.Len(t, fb.regions, 3, "unchanged size leaves the region alone")

	fb.mu.Lock()
	defer fb.mu.Unlock()
	assert.Equal(t, queries, fb.sizeQueries, "configure events reuse the reported size")
}

func TestSetCursorPosition(t *testing.T) {
	fb := newFakeBackend()
	w := newVisibleWindow(t, fb)

	require.NoError(t, w.SetCursorPosition(dpi.LogicalPosition{X: 10.4, Y: 20}))
	assert.Equal(t, 1, fb.count("WarpPointer 10 20"))
}

func TestDragWindow(t *testing.T) {
	tests := []struct {
		name   string
		drag   func(*Window) error
		action uint32
	}{
		{"move", (*Window).DragWindow, moveResizeMove},
		{"resize east", func(w *Window) error { return w.DragResizeWindow(ResizeEast) }, moveResizeRight},
		{"resize north west", func(w *Window) error { return w.DragResizeWindow(ResizeNorthWest) }, moveResizeTopLeft},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := newFakeBackend()
			fb.pointer = dpi.PhysicalPosition{X: 400, Y: 12}
			w := newVisibleWindow(t, fb)
			require.NoError(t, w.SetCursorGrab(GrabConfined))

			require.NoError(t, tt.drag(w))
			assert.Equal(t, GrabNone, w.CursorGrab(), "grab released for the window manager")

			last := fb.messages[len(fb.messages)-1]
			assert.Equal(t, "_NET_WM_MOVERESIZE", last.msgType)
			assert.Equal(t, [5]uint32{400, 12, tt.action, 1, 1}, last.data)
		})
	}
}
