package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/rbright/scriber/internal/fsm"
	"github.com/rbright/scriber/internal/intake"
	"github.com/rbright/scriber/internal/session"
	"github.com/rbright/scriber/internal/transcript"
	"github.com/rbright/scriber/internal/transport"
)

// Handler serves the API routes.
type Handler struct {
	ctx        context.Context
	controller Controller
	summarizer Summarizer
	version    string
	logger     *slog.Logger
}

// NewHandler creates a handler whose background uploads run on ctx.
func NewHandler(ctx context.Context, deps Dependencies) *Handler {
	return &Handler{
		ctx:        ctx,
		controller: deps.Controller,
		summarizer: deps.Summarizer,
		version:    deps.Version,
		logger:     deps.Logger,
	}
}

// FileView describes the selected file.
type FileView struct {
	Name       string  `json:"name"`
	Path       string  `json:"path"`
	SizeBytes  int64   `json:"size_bytes"`
	MIMEType   string  `json:"mime_type"`
	DurationS  float64 `json:"duration_seconds,omitempty"`
	Info       string  `json:"info"`
	PreviewURL string  `json:"preview_url,omitempty"`
}

// StateView is the GET /api/state body.
type StateView struct {
	SessionID  string    `json:"session_id,omitempty"`
	Stage      fsm.State `json:"stage"`
	Progress   int       `json:"progress"`
	File       *FileView `json:"file,omitempty"`
	Transcript string    `json:"transcript,omitempty"`
	Degraded   bool      `json:"degraded"`
	Message    string    `json:"message,omitempty"`
}

type selectRequest struct {
	Path string `json:"path"`
}

type summaryRequest struct {
	Transcript string `json:"transcript"`
}

func stateView(snap session.Snapshot) StateView {
	view := StateView{
		SessionID:  snap.SessionID,
		Stage:      snap.Stage,
		Progress:   snap.Progress,
		Transcript: snap.Transcript,
		Degraded:   snap.Degraded,
		Message:    snap.Message,
	}
	if snap.File != nil {
		view.File = fileView(*snap.File, snap.PreviewURL)
	}
	return view
}

func fileView(f intake.SelectedFile, previewURL string) *FileView {
	return &FileView{
		Name:       f.Name,
		Path:       f.Path,
		SizeBytes:  f.SizeBytes,
		MIMEType:   f.MIMEType,
		DurationS:  f.Duration.Seconds(),
		Info:       f.Describe(),
		PreviewURL: previewURL,
	}
}

// HandleHealth returns server health status.
func (h *Handler) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"version": h.version,
	})
}

// HandleState returns the current session snapshot.
func (h *Handler) HandleState(c echo.Context) error {
	return c.JSON(http.StatusOK, stateView(h.controller.Snapshot()))
}

// HandleSelectFile validates and selects the file at the posted path.
func (h *Handler) HandleSelectFile(c echo.Context) error {
	var req selectRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if strings.TrimSpace(req.Path) == "" {
		return NewBadRequestError("path is required", nil)
	}

	file, err := h.controller.SelectFile(c.Request().Context(), req.Path)
	if err != nil {
		var rejection *intake.Rejection
		if errors.As(err, &rejection) {
			return NewRejectedError(rejection.Message)
		}
		return NewRejectedError(err.Error())
	}

	snap := h.controller.Snapshot()
	return c.JSON(http.StatusCreated, fileView(file, snap.PreviewURL))
}

// HandleRemoveFile discards the selection and any stored result.
func (h *Handler) HandleRemoveFile(c echo.Context) error {
	if err := h.controller.Remove(c.Request().Context()); err != nil {
		return NewInternalError("failed to remove selection", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandlePreview streams the selected file's bytes with range support.
func (h *Handler) HandlePreview(c echo.Context) error {
	preview := h.controller.Preview()
	if preview == nil {
		return NewNotFoundError("preview")
	}
	section, err := preview.Section()
	if err != nil {
		return NewNotFoundError("preview")
	}

	snap := h.controller.Snapshot()
	if snap.File != nil {
		c.Response().Header().Set(echo.HeaderContentType, snap.File.MIMEType)
	}
	http.ServeContent(c.Response(), c.Request(), preview.Name(), preview.ModTime(), section)
	return nil
}

// HandleUpload starts the upload in the background and returns immediately.
func (h *Handler) HandleUpload(c echo.Context) error {
	snap := h.controller.Snapshot()
	switch {
	case fsm.InFlight(snap.Stage):
		return NewConflictError(session.ErrBusy.Error())
	case snap.File == nil:
		return NewConflictError(session.ErrNoFile.Error())
	case snap.Stage != fsm.StateFileSelected:
		return NewConflictError("select the file again to upload it (state " + string(snap.Stage) + ")")
	}

	go func() {
		result := h.controller.Process(h.ctx)
		if result.Err != nil && h.logger != nil {
			h.logger.Warn("api upload not started", "error", result.Err.Error())
		}
	}()

	return c.JSON(http.StatusAccepted, map[string]any{
		"session_id": snap.SessionID,
		"file":       snap.File.Name,
	})
}

// HandleCancel aborts the in-flight upload.
func (h *Handler) HandleCancel(c echo.Context) error {
	if err := h.controller.Cancel(c.Request().Context()); err != nil {
		if errors.Is(err, session.ErrNotInFlight) {
			return NewConflictError(err.Error())
		}
		return NewInternalError("failed to cancel upload", err)
	}
	return c.JSON(http.StatusOK, stateView(h.controller.Snapshot()))
}

// HandleTranscript returns the current transcript.
func (h *Handler) HandleTranscript(c echo.Context) error {
	snap := h.controller.Snapshot()
	if snap.Transcript == "" {
		return NewNotFoundError("transcript")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"transcript": snap.Transcript,
		"degraded":   snap.Degraded,
	})
}

// HandleNotes returns the bullet notes derived from the transcript.
func (h *Handler) HandleNotes(c echo.Context) error {
	notes := h.controller.Notes()
	body := map[string]any{"notes": notes}
	if len(notes) == 0 {
		body["notes"] = []string{}
		body["message"] = transcript.EmptyNotesMessage
	}
	return c.JSON(http.StatusOK, body)
}

// HandleSummary summarizes the posted transcript, or the current one when
// the body omits it.
func (h *Handler) HandleSummary(c echo.Context) error {
	if h.summarizer == nil {
		return NewUpstreamError("summary service not configured", nil)
	}

	var req summaryRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return NewBadRequestError("invalid request body", err)
		}
	}
	text := req.Transcript
	if strings.TrimSpace(text) == "" {
		text = h.controller.Snapshot().Transcript
	}

	summary, err := h.summarizer.Summarize(c.Request().Context(), text)
	if err != nil {
		if errors.Is(err, transport.ErrEmptyTranscript) {
			return NewBadRequestError("no transcript to summarize", nil)
		}
		return NewUpstreamError("summarize failed", err)
	}
	return c.JSON(http.StatusOK, map[string]string{"summary": summary})
}
