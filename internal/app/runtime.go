package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rbright/scriber/internal/api"
	"github.com/rbright/scriber/internal/config"
	"github.com/rbright/scriber/internal/indicator"
	"github.com/rbright/scriber/internal/intake"
	"github.com/rbright/scriber/internal/ipc"
	"github.com/rbright/scriber/internal/output"
	"github.com/rbright/scriber/internal/progress"
	"github.com/rbright/scriber/internal/session"
	"github.com/rbright/scriber/internal/store"
	"github.com/rbright/scriber/internal/transport"
	"github.com/rbright/scriber/internal/version"
)

// syncWriter serializes writes from concurrent uploads.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func newTransport(cfg config.Config, logger *slog.Logger) *transport.Client {
	return transport.NewClient(transport.Config{
		Endpoint: cfg.Service.Endpoint,
		Timeout:  time.Duration(cfg.Service.TimeoutMS) * time.Millisecond,
	}, logger)
}

func openStore(cfg config.Config, logger *slog.Logger) (store.Store, func(), error) {
	s, err := store.Open(store.Config{
		Backend:   cfg.Store.Backend,
		Path:      cfg.Store.FilePath(),
		RedisAddr: cfg.Store.RedisAddr,
		Key:       cfg.Store.Key,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	closeStore := func() {}
	if closer, ok := s.(io.Closer); ok {
		closeStore = func() { _ = closer.Close() }
	}
	return s, closeStore, nil
}

// buildController wires the session controller from config.
func (r Runner) buildController(cfg config.Config, logger *slog.Logger) (*session.Controller, *transport.Client, func(), error) {
	s, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	simulator, err := progress.New(progress.Policy(cfg.Progress.Policy), progress.Ramp{
		Step:     cfg.Progress.RampStep,
		Interval: time.Duration(cfg.Progress.RampIntervalMS) * time.Millisecond,
		Cap:      cfg.Progress.RampCap,
	})
	if err != nil {
		closeStore()
		return nil, nil, nil, err
	}

	client := newTransport(cfg, logger)
	opts := session.Options{
		Transport: client,
		Store:     s,
		Simulator: simulator,
		Rules: &intake.Rules{
			MaxBytes:       cfg.Upload.MaxBytes,
			ValidateFormat: cfg.Upload.ValidateFormat,
			AllowedTypes:   cfg.Upload.AllowedTypes,
		},
		Indicator: indicator.New(cfg.Indicator, r.Stderr, logger),
	}
	if len(cfg.Metadata.ProbeCmd.Argv) > 0 {
		opts.Prober = intake.FFProbe{Argv: cfg.Metadata.ProbeCmd.Argv}
	}
	if cfg.Upload.AutoCopy {
		opts.Committer = output.NewCopier(cfg.Clipboard.Argv, logger)
	}

	ctrl := session.NewController(logger, opts)
	cleanup := func() {
		ctrl.Close()
		closeStore()
	}
	return ctrl, client, cleanup, nil
}

// acquireOwner claims the runtime socket. A missing runtime dir disables
// session control instead of failing the upload.
func acquireOwner(ctx context.Context, logger *slog.Logger) (net.Listener, func(), error) {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		logger.Warn("session control disabled", "error", err.Error())
		return nil, func() {}, nil
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8, nil)
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			return nil, nil, fmt.Errorf("%w (use `scriber status` or `scriber cancel`)", err)
		}
		return nil, nil, err
	}
	release := func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}
	return listener, release, nil
}

func serveOwner(ctx context.Context, listener net.Listener, handler ipc.Handler) error {
	if listener == nil {
		<-ctx.Done()
		return nil
	}
	return ipc.Serve(ctx, listener, handler)
}

func rejectionMessage(err error) string {
	var rejection *intake.Rejection
	if errors.As(err, &rejection) {
		return rejection.Message
	}
	return err.Error()
}

// commandUpload selects path, uploads it, and prints the transcript.
func (r Runner) commandUpload(ctx context.Context, cfg config.Config, path string, logger *slog.Logger) int {
	listener, release, err := acquireOwner(ctx, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer release()

	ctrl, _, cleanup, err := r.buildController(cfg, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer cleanup()

	file, err := ctrl.SelectFile(ctx, path)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %s\n", rejectionMessage(err))
		return 1
	}
	logger.Info("upload requested", "file", file.Name, "info", file.Describe())

	var result session.Result
	g, gctx := errgroup.WithContext(ctx)
	ownerCtx, stopOwner := context.WithCancel(gctx)
	g.Go(func() error {
		return serveOwner(ownerCtx, listener, ctrl)
	})
	g.Go(func() error {
		defer stopOwner()
		result = ctrl.Process(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", err)
		return 1
	}

	return r.reportResult(result, logger)
}

// reportResult prints one finished attempt and returns the exit code.
func (r Runner) reportResult(result session.Result, logger *slog.Logger) int {
	logSessionResult(logger, result)

	if result.Cancelled {
		fmt.Fprintln(r.Stdout, "cancelled")
		return 0
	}
	if result.Err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", result.Err)
		return 1
	}
	if result.Degraded {
		fmt.Fprintln(r.Stderr, "warning: transcription service unavailable; stored a placeholder transcript")
	}
	if text := strings.TrimSpace(result.Transcript); text != "" {
		fmt.Fprintln(r.Stdout, text)
	}
	return 0
}

// dropHandler selects each dropped file and uploads it in the background.
// A newer drop supersedes the attempt still in flight.
func (r Runner) dropHandler(ctrl *session.Controller, uploads *errgroup.Group, logger *slog.Logger) intake.DropHandler {
	return func(ctx context.Context, path string) error {
		if _, err := ctrl.SelectFile(ctx, path); err != nil {
			fmt.Fprintf(r.Stderr, "rejected %s: %s\n", filepath.Base(path), rejectionMessage(err))
			return err
		}
		uploads.Go(func() error {
			r.reportResult(ctrl.Process(ctx), logger)
			return nil
		})
		return nil
	}
}

// commandWatch uploads every video dropped into dir until interrupted.
func (r Runner) commandWatch(ctx context.Context, cfg config.Config, dir string, logger *slog.Logger) int {
	if strings.TrimSpace(dir) == "" {
		dir = cfg.Watch.Dir
	}
	if strings.TrimSpace(dir) == "" {
		fmt.Fprintln(r.Stderr, "error: watch requires a directory (pass DIR or set watch.dir)")
		return 1
	}

	r.Stdout = &syncWriter{w: r.Stdout}
	r.Stderr = &syncWriter{w: r.Stderr}

	listener, release, err := acquireOwner(ctx, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer release()

	ctrl, _, cleanup, err := r.buildController(cfg, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer cleanup()
	ctrl.Init(ctx)

	var uploads errgroup.Group
	watcher, err := intake.NewWatcher(dir, r.dropHandler(ctrl, &uploads, logger), logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() { _ = watcher.Close() }()

	fmt.Fprintf(r.Stdout, "watching %s\n", dir)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return serveOwner(gctx, listener, ctrl) })
	g.Go(func() error { return watcher.Run(gctx) })
	err = g.Wait()
	_ = uploads.Wait()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// commandServe runs the HTTP API, the owner socket, and the optional drop
// watcher until interrupted.
func (r Runner) commandServe(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	r.Stdout = &syncWriter{w: r.Stdout}
	r.Stderr = &syncWriter{w: r.Stderr}

	listener, release, err := acquireOwner(ctx, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer release()

	ctrl, client, cleanup, err := r.buildController(cfg, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer cleanup()
	ctrl.Init(ctx)

	g, gctx := errgroup.WithContext(ctx)
	var uploads errgroup.Group

	if dir := strings.TrimSpace(cfg.Watch.Dir); dir != "" {
		watcher, err := intake.NewWatcher(dir, r.dropHandler(ctrl, &uploads, logger), logger)
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		defer func() { _ = watcher.Close() }()
		g.Go(func() error { return watcher.Run(gctx) })
		fmt.Fprintf(r.Stdout, "watching %s\n", dir)
	}

	e := api.New(gctx, api.Dependencies{
		Controller: ctrl,
		Summarizer: client,
		Version:    version.Version,
		Logger:     logger,
	})
	g.Go(func() error { return api.Serve(gctx, e, cfg.API.Listen) })
	g.Go(func() error { return serveOwner(gctx, listener, ctrl) })

	fmt.Fprintf(r.Stdout, "listening on http://%s\n", cfg.API.Listen)
	logger.Info("api listening", "listen", cfg.API.Listen)

	err = g.Wait()
	_ = uploads.Wait()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}
