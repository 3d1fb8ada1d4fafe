package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/xwin/internal/eventloop"
	"github.com/1broseidon/xwin/internal/logging"
	"github.com/1broseidon/xwin/internal/platform"
	"github.com/1broseidon/xwin/internal/window"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open the configured windows and run the event loop",
	Long: `Open every window listed under "windows" in the configuration and
dispatch X events to them until all windows are closed or the process is
interrupted.`,
	Args: cobra.NoArgs,
	RunE: runWindows,
}

// startupToken returns the activation token handed over by the launcher and
// clears it so child processes do not reuse it.
func startupToken() string {
	for _, key := range []string{"XDG_ACTIVATION_TOKEN", "DESKTOP_STARTUP_ID"} {
		if v := os.Getenv(key); v != "" {
			os.Unsetenv(key)
			return v
		}
	}
	return ""
}

// session owns the open windows and closes them on request.
type session struct {
	loop    *eventloop.Loop
	logger  *slog.Logger
	cancel  context.CancelFunc
	windows map[platform.WindowID]*window.Window
}

func (s *session) WindowEvent(ev eventloop.WindowEvent) {
	switch ev.Kind {
	case eventloop.CloseRequested:
		if w, ok := s.windows[ev.Window]; ok {
			s.logger.Info("closing window", "window", ev.Window)
			w.Close()
			s.forget(ev.Window)
		}
	case eventloop.Destroyed:
		s.forget(ev.Window)
	case eventloop.ActivationTokenDone:
		s.logger.Debug("activation token ready", "window", ev.Window, "serial", ev.Serial)
	case eventloop.ScaleFactorChanged:
		s.logger.Info("scale factor changed", "window", ev.Window, "scale", ev.ScaleFactor)
	default:
		s.logger.Debug("window event", "kind", ev.Kind, "window", ev.Window)
	}
}

func (s *session) forget(id platform.WindowID) {
	s.loop.Unregister(id)
	delete(s.windows, id)
	if len(s.windows) == 0 {
		s.logger.Info("all windows closed")
		s.cancel()
	}
}

func runWindows(cmd *cobra.Command, args []string) error {
	res, err := loadConfig()
	if err != nil {
		return err
	}
	cfg := res.Config

	logger, err := logging.New(cfg.Logging, os.Stderr)
	if err != nil {
		return err
	}
	if len(cfg.Windows) == 0 {
		return fmt.Errorf("no windows configured")
	}
	if cfg.XAuthority != "" {
		os.Setenv("XAUTHORITY", cfg.XAuthority)
	}

	backend, err := platform.NewLinuxBackendFromDisplay(cfg.Display)
	if err != nil {
		return err
	}
	defer backend.Disconnect()
	logger.Info("connected to display", "wm", backend.WMName())

	display, err := eventloop.NewDisplay(backend)
	if err != nil {
		return fmt.Errorf("failed to select monitor events: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s := &session{
		logger:  logger,
		cancel:  cancel,
		windows: make(map[platform.WindowID]*window.Window),
	}
	loop := eventloop.New(display, s, logger)
	s.loop = loop

	monitors, err := backend.Monitors()
	if err != nil {
		return fmt.Errorf("failed to list monitors: %w", err)
	}

	token := startupToken()
	defer func() {
		for _, w := range s.windows {
			w.Close()
		}
	}()
	for i, wc := range cfg.Windows {
		attrs, err := wc.ToAttributes(monitors)
		if err != nil {
			return fmt.Errorf("windows.%d: %w", i, err)
		}
		if i == 0 {
			attrs.ActivationToken = token
		}
		w, err := window.New(loop.WindowEnv(backend), attrs)
		if err != nil {
			return fmt.Errorf("windows.%d: failed to create window: %w", i, err)
		}
		s.windows[w.ID()] = w
		loop.Register(w)
		logger.Info("window opened", "window", w.ID(), "title", attrs.Title)
	}

	reconciler := eventloop.NewReconciler(eventloop.ReconcilerConfig{
		Interval: cfg.ReconcileInterval,
		Logger:   logger,
	}, loop)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := loop.Run(gctx)
		cancel()
		return err
	})
	g.Go(func() error {
		reconciler.Run(gctx)
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
