package session

import (
	"context"
	"errors"

	"github.com/rbright/scriber/internal/intake"
	"github.com/rbright/scriber/internal/transport"
)

var (
	// ErrNoFile indicates an upload was requested before any file was accepted.
	ErrNoFile = errors.New("no file selected")
	// ErrBusy indicates an upload attempt is already in flight.
	ErrBusy = errors.New("upload already in progress")
	// ErrNotInFlight indicates cancel was requested with no active attempt.
	ErrNotInFlight = errors.New("no upload in progress")
	// ErrTransportUnavailable indicates no upload transport was wired.
	ErrTransportUnavailable = errors.New("upload transport not configured")
)

// unavailableUploader keeps the degraded path reachable when no transport is wired.
type unavailableUploader struct{}

func (unavailableUploader) Upload(ctx context.Context, _ intake.SelectedFile) transport.Outcome {
	if ctx.Err() != nil {
		return transport.Outcome{Kind: transport.OutcomeCancelled}
	}
	return transport.Outcome{
		Kind:       transport.OutcomeFallback,
		Transcript: transport.FallbackTranscript,
		Err:        ErrTransportUnavailable,
	}
}
