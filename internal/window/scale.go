package window

import (
	"errors"
	"sync"

	"github.com/1broseidon/xwin/internal/dpi"
	"github.com/1broseidon/xwin/internal/platform"
)

// ErrWriterExpired is returned when a SurfaceSizeWriter is used after the
// scale-change callback has returned.
var ErrWriterExpired = errors.New("surface size writer used after callback returned")

// SurfaceSizeWriter carries the size proposed after a scale factor change.
// The application may overwrite it while its callback runs.
type SurfaceSizeWriter struct {
	mu      sync.Mutex
	size    dpi.PhysicalSize
	expired bool
}

// SurfaceSize returns the currently proposed size.
func (s *SurfaceSizeWriter) SurfaceSize() dpi.PhysicalSize {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// RequestSurfaceSize replaces the proposed size.
func (s *SurfaceSizeWriter) RequestSurfaceSize(size dpi.PhysicalSize) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expired {
		return ErrWriterExpired
	}
	s.size = size
	return nil
}

func (s *SurfaceSizeWriter) finish() dpi.PhysicalSize {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expired = true
	return s.size
}

// ScaleChangeHandler is told about a new scale factor and may override the
// proposed surface size through the writer.
type ScaleChangeHandler func(w *Window, scale float64, writer *SurfaceSizeWriter)

// RefreshDPIForMonitor rescales the window if newMonitor is the monitor it is
// on. prevScale is the monitor's scale before the change; nil means it is
// unknown and the cached scale is used.
func (w *Window) RefreshDPIForMonitor(newMonitor platform.Monitor, prevScale *float64, handler ScaleChangeHandler) {
	w.mu.Lock()
	current := w.state.lastMonitor
	if current.Name != newMonitor.Name {
		w.mu.Unlock()
		return
	}
	w.state.lastMonitor = newMonitor
	w.mu.Unlock()

	// A second report of the same scale must not rescale the size the
	// first one already produced.
	if current.ScaleFactor == newMonitor.ScaleFactor {
		return
	}

	oldScale := current.ScaleFactor
	if prevScale != nil && dpi.ValidScaleFactor(*prevScale) {
		oldScale = *prevScale
	}
	w.rescale(oldScale, newMonitor.ScaleFactor, handler)
}

// UpdateMonitor records the monitor the window now lives on. When the scale
// factor differs from the previous monitor's the DPI adjustment runs.
func (w *Window) UpdateMonitor(monitor platform.Monitor, handler ScaleChangeHandler) {
	w.mu.Lock()
	previous := w.state.lastMonitor
	w.state.lastMonitor = monitor
	w.mu.Unlock()

	if previous.ScaleFactor == monitor.ScaleFactor {
		return
	}
	w.rescale(previous.ScaleFactor, monitor.ScaleFactor, handler)
}

// CurrentMonitor returns the monitor the window was last seen on.
func (w *Window) CurrentMonitor() platform.Monitor {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.lastMonitor
}

// AvailableMonitors lists every output.
func (w *Window) AvailableMonitors() ([]platform.Monitor, error) {
	return w.backend.Monitors()
}

// PrimaryMonitor returns the primary output.
func (w *Window) PrimaryMonitor() (platform.Monitor, error) {
	return w.backend.PrimaryMonitor()
}

func (w *Window) rescale(oldScale, newScale float64, handler ScaleChangeHandler) {
	if !dpi.ValidScaleFactor(oldScale) || !dpi.ValidScaleFactor(newScale) {
		w.logger.Warn("ignoring invalid scale factor", "old", oldScale, "new", newScale)
		return
	}

	current := w.SurfaceSize()
	writer := &SurfaceSizeWriter{size: w.adjustForDPI(oldScale, newScale, current)}
	if handler != nil {
		handler(w, newScale, writer)
	}
	final := writer.finish()

	w.logger.Debug("scale factor changed",
		"old", oldScale, "new", newScale,
		"width", final.Width, "height", final.Height)

	if final != current {
		w.requestSurfaceSizePhysical(final)
	}
}

// adjustForDPI rescales every stored size constraint, pushes the new size
// hints and returns the proposed surface size.
func (w *Window) adjustForDPI(oldScale, newScale float64, size dpi.PhysicalSize) dpi.PhysicalSize {
	ratio := newScale / oldScale

	w.mu.Lock()
	minSize, maxSize := w.state.minSize, w.state.maxSize
	inc, base := w.state.resizeIncrements, w.state.baseSize
	w.mu.Unlock()

	adjust := func(s dpi.Size) *dpi.PhysicalSize {
		if s == nil {
			return nil
		}
		p := s.ToPhysical(oldScale).Scale(ratio)
		return &p
	}
	w.updateNormalHints(func(h *platform.SizeHints) {
		h.MinSize = adjust(minSize)
		h.MaxSize = adjust(maxSize)
		h.ResizeInc = adjust(inc)
		h.BaseSize = adjust(base)
	})

	return size.Scale(ratio)
}
