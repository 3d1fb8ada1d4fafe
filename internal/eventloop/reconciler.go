package eventloop

import (
	"context"
	"log/slog"
	"time"
)

// MonitorRefresher schedules a re-read of the output list on the goroutine
// that owns the windows.
type MonitorRefresher interface {
	RequestMonitorRefresh()
}

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Reconciler periodically requests a monitor refresh. It covers servers
// that change scale without a RandR notification, such as an Xft.dpi edit.
type Reconciler struct {
	interval time.Duration
	target   MonitorRefresher
	logger   *slog.Logger
}

// NewReconciler creates a new reconciler with the given configuration.
func NewReconciler(cfg ReconcilerConfig, target MonitorRefresher) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Reconciler{
		interval: interval,
		target:   target,
		logger:   logger,
	}
}

// Run starts the reconciliation loop. Blocks until context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reconciler started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return
		case <-ticker.C:
			r.reconcile()
		}
	}
}

func (r *Reconciler) reconcile() {
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("reconciler panic recovered", "error", err)
		}
	}()

	r.target.RequestMonitorRefresh()
}

// ReconcileNow triggers an immediate reconciliation pass. The refresh itself
// runs later on the event loop.
func (r *Reconciler) ReconcileNow() {
	r.reconcile()
}
