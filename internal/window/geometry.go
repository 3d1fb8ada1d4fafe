package window

import (
	"fmt"

	"github.com/1broseidon/xwin/internal/dpi"
	"github.com/1broseidon/xwin/internal/platform"
)

// frameInfo returns the cached frame extents, computing them on a miss.
func (w *Window) frameInfo() (platform.FrameInfo, error) {
	w.mu.Lock()
	cached := w.state.frameInfo
	w.mu.Unlock()
	if cached != nil {
		return *cached, nil
	}

	info, err := w.backend.FrameInfo(w.id)
	if err != nil {
		return platform.FrameInfo{}, fmt.Errorf("failed to query frame extents: %w", err)
	}
	w.mu.Lock()
	w.state.frameInfo = &info
	w.mu.Unlock()
	return info, nil
}

// invalidateFrameInfo drops the cached frame extents. The event loop calls it
// when the window manager changes _NET_FRAME_EXTENTS.
func (w *Window) invalidateFrameInfo() {
	w.mu.Lock()
	w.state.frameInfo = nil
	w.mu.Unlock()
}

// InvalidateFrameExtents forgets the cached frame extents.
func (w *Window) InvalidateFrameExtents() {
	w.invalidateFrameInfo()
}

// ScaleFactor is the scale factor of the window's current monitor.
func (w *Window) ScaleFactor() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.lastMonitor.ScaleFactor
}

func (w *Window) innerPosition() (dpi.PhysicalPosition, error) {
	pos, err := w.backend.InnerPosition(w.id)
	if err != nil {
		return dpi.PhysicalPosition{}, fmt.Errorf("failed to translate window position: %w", err)
	}
	return pos, nil
}

// OuterPosition is the position of the window frame in root coordinates.
func (w *Window) OuterPosition() (dpi.PhysicalPosition, error) {
	info, err := w.frameInfo()
	if err != nil {
		return dpi.PhysicalPosition{}, err
	}
	pos, err := w.innerPosition()
	if err != nil {
		return dpi.PhysicalPosition{}, err
	}
	x, y := info.InnerToOuterPosition(pos.X, pos.Y)
	return dpi.PhysicalPosition{X: x, Y: y}, nil
}

// SurfacePosition is the offset of the client area inside the frame.
func (w *Window) SurfacePosition() (dpi.PhysicalPosition, error) {
	info, err := w.frameInfo()
	if err != nil {
		return dpi.PhysicalPosition{}, err
	}
	return dpi.PhysicalPosition{X: int32(info.Extents.Left), Y: int32(info.Extents.Top)}, nil
}

// SetOuterPosition moves the window frame.
func (w *Window) SetOuterPosition(pos dpi.Position) {
	w.setPositionInner(pos.ToPhysical(w.ScaleFactor())).Ignore()
}

// SurfaceSize queries the client area size. When the server cannot be asked
// the last size reported by the event loop is returned.
func (w *Window) SurfaceSize() dpi.PhysicalSize {
	size, err := w.backend.InnerSize(w.id)
	if err != nil {
		w.logger.Debug("failed to query window size", "error", err)
		w.mu.Lock()
		defer w.mu.Unlock()
		return w.state.size
	}
	return size
}

// OuterSize is the client area plus frame.
func (w *Window) OuterSize() (dpi.PhysicalSize, error) {
	info, err := w.frameInfo()
	if err != nil {
		return dpi.PhysicalSize{}, err
	}
	return info.InnerToOuterSize(w.SurfaceSize()), nil
}

// RequestSurfaceSize asks for a new client area size. The result arrives
// asynchronously through a configure notification.
func (w *Window) RequestSurfaceSize(size dpi.Size) {
	physical := size.ToPhysical(w.ScaleFactor())

	w.mu.Lock()
	resizable := w.state.resizable
	w.mu.Unlock()
	if !resizable {
		w.updateNormalHints(func(h *platform.SizeHints) {
			h.MinSize = &physical
			h.MaxSize = &physical
		})
	}
	w.requestSurfaceSizePhysical(physical)
}

func (w *Window) requestSurfaceSizePhysical(size dpi.PhysicalSize) {
	width, height := size.Width, size.Height
	w.backend.Configure(w.id, platform.Configure{Width: &width, Height: &height}).Ignore()

	// The server resets the input shape on resize.
	w.reapplyHittest(size)
}

// updateNormalHints rewrites WM_NORMAL_HINTS after fn modifies the current
// value.
func (w *Window) updateNormalHints(fn func(*platform.SizeHints)) {
	hints, err := w.backend.NormalHints(w.id)
	if err != nil {
		w.logger.Warn("failed to read size hints", "error", err)
		return
	}
	fn(&hints)
	w.backend.SetNormalHints(w.id, hints).Ignore()
}

// SetMinSurfaceSize sets or clears (nil) the minimum client area size.
func (w *Window) SetMinSurfaceSize(size dpi.Size) {
	w.mu.Lock()
	w.state.minSize = size
	scale := w.state.lastMonitor.ScaleFactor
	w.mu.Unlock()
	w.updateNormalHints(func(h *platform.SizeHints) {
		h.MinSize = physicalHint(size, scale)
	})
}

// SetMaxSurfaceSize sets or clears (nil) the maximum client area size.
func (w *Window) SetMaxSurfaceSize(size dpi.Size) {
	w.mu.Lock()
	w.state.maxSize = size
	scale := w.state.lastMonitor.ScaleFactor
	w.mu.Unlock()
	w.updateNormalHints(func(h *platform.SizeHints) {
		h.MaxSize = physicalHint(size, scale)
	})
}

// SurfaceResizeIncrements reads the resize increments back from the server.
func (w *Window) SurfaceResizeIncrements() *dpi.PhysicalSize {
	hints, err := w.backend.NormalHints(w.id)
	if err != nil {
		return nil
	}
	return hints.ResizeInc
}

// SetSurfaceResizeIncrements sets or clears (nil) the resize increments.
func (w *Window) SetSurfaceResizeIncrements(inc dpi.Size) {
	w.mu.Lock()
	w.state.resizeIncrements = inc
	scale := w.state.lastMonitor.ScaleFactor
	w.mu.Unlock()
	w.updateNormalHints(func(h *platform.SizeHints) {
		h.ResizeInc = physicalHint(inc, scale)
	})
}

// SetResizable toggles user resizing. A fixed window pins its minimum and
// maximum size to the current size.
func (w *Window) SetResizable(resizable bool) {
	if w.quirks.Has(QuirkNoResizeLock) {
		w.logger.Warn("disabling resizing has no effect under this window manager")
		return
	}

	var minSize, maxSize dpi.Size
	if resizable {
		w.mu.Lock()
		minSize, maxSize = w.state.minSize, w.state.maxSize
		w.mu.Unlock()
	} else {
		current := w.SurfaceSize()
		minSize, maxSize = current, current
	}

	w.mu.Lock()
	w.state.resizable = resizable
	scale := w.state.lastMonitor.ScaleFactor
	w.mu.Unlock()

	w.backend.SetMaximizable(w.id, resizable).Ignore()
	w.updateNormalHints(func(h *platform.SizeHints) {
		h.MinSize = physicalHint(minSize, scale)
		h.MaxSize = physicalHint(maxSize, scale)
	})
}

// IsResizable reports the last requested resizable state.
func (w *Window) IsResizable() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.resizable
}

// ConfigureNotify records the geometry the server reported and reapplies an
// active hit-test region when the size changed.
func (w *Window) ConfigureNotify(position dpi.PhysicalPosition, size dpi.PhysicalSize) (resized, moved bool) {
	w.mu.Lock()
	resized = w.state.size != size
	moved = w.state.position != position
	w.state.size = size
	w.state.position = position
	w.mu.Unlock()

	if resized {
		w.reapplyHittest(size)
	}
	return resized, moved
}

// CachedGeometry returns the geometry last recorded by ConfigureNotify.
func (w *Window) CachedGeometry() (dpi.PhysicalPosition, dpi.PhysicalSize) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.position, w.state.size
}
