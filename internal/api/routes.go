// Package api exposes the upload session over a local HTTP API.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rbright/scriber/internal/intake"
	"github.com/rbright/scriber/internal/session"
)

// Controller is the session surface the API drives.
type Controller interface {
	SelectFile(ctx context.Context, path string) (intake.SelectedFile, error)
	Process(ctx context.Context) session.Result
	Cancel(ctx context.Context) error
	Remove(ctx context.Context) error
	Snapshot() session.Snapshot
	Notes() []string
	Preview() *intake.Preview
}

// Summarizer condenses a transcript through the remote service.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

// Dependencies holds everything the handlers need.
type Dependencies struct {
	Controller Controller
	Summarizer Summarizer
	Version    string
	Logger     *slog.Logger
}

// New builds an echo instance with all routes registered. Uploads started
// through the API run on ctx and stop when it is cancelled.
func New(ctx context.Context, deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler

	RegisterRoutes(e, NewHandler(ctx, deps))
	return e
}

// RegisterRoutes registers all API routes with the echo instance.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	e.GET("/api/health", h.HandleHealth)
	e.GET("/api/state", h.HandleState)

	files := e.Group("/api/file")
	files.POST("", h.HandleSelectFile)
	files.DELETE("", h.HandleRemoveFile)

	e.GET("/api/preview", h.HandlePreview)
	e.POST("/api/upload", h.HandleUpload)
	e.POST("/api/cancel", h.HandleCancel)
	e.GET("/api/transcript", h.HandleTranscript)
	e.GET("/api/notes", h.HandleNotes)
	e.POST("/api/summary", h.HandleSummary)
}

// Serve runs e on listen until ctx is cancelled, then shuts it down.
func Serve(ctx context.Context, e *echo.Echo, listen string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Start(listen)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
