// Package transport submits selected files to the remote transcription service.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strings"
	"time"

	"github.com/rbright/scriber/internal/intake"
)

// FallbackTranscript is substituted whenever the service cannot produce a transcript.
const FallbackTranscript = "Transcription service unavailable.\n\n" +
	"This placeholder transcript was generated locally so the workflow could finish.\n" +
	"Run the upload again with the service reachable to get a real transcript."

// ErrEmptyTranscript rejects summary requests without text.
var ErrEmptyTranscript = errors.New("transcript is empty")

// OutcomeKind classifies how one upload attempt resolved.
type OutcomeKind int

const (
	OutcomeTranscript OutcomeKind = iota + 1
	OutcomeFallback
	OutcomeCancelled
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeTranscript:
		return "transcript"
	case OutcomeFallback:
		return "fallback"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Outcome is the interpreted result of one submission.
type Outcome struct {
	Kind       OutcomeKind
	Transcript string
	// Err carries the underlying failure for OutcomeFallback.
	Err     error
	Latency time.Duration
}

// Uploader is the controller-facing transport contract.
type Uploader interface {
	Upload(ctx context.Context, file intake.SelectedFile) Outcome
}

// Config controls the HTTP client.
type Config struct {
	Endpoint string
	Timeout  time.Duration
}

// Client speaks the service's multipart upload and JSON summary contract.
type Client struct {
	endpoint string
	http     *http.Client
	logger   *slog.Logger
}

// NewClient builds a client for cfg.Endpoint.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &Client{
		endpoint: strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/"),
		http:     &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

type uploadResponse struct {
	Transcript *string `json:"transcript"`
	Summary    *string `json:"summary"`
}

// Upload posts file under the multipart field "file". Any non-cancellation
// failure resolves to the fallback transcript.
func (c *Client) Upload(ctx context.Context, file intake.SelectedFile) Outcome {
	started := time.Now()
	text, err := c.upload(ctx, file)
	latency := time.Since(started)

	if ctx.Err() != nil {
		return Outcome{Kind: OutcomeCancelled, Latency: latency}
	}
	if err != nil {
		c.logWarn("upload failed; using fallback transcript", "file", file.Name, "error", err.Error())
		return Outcome{Kind: OutcomeFallback, Transcript: FallbackTranscript, Err: err, Latency: latency}
	}
	return Outcome{Kind: OutcomeTranscript, Transcript: text, Latency: latency}
}

func (c *Client) upload(ctx context.Context, file intake.SelectedFile) (string, error) {
	src, err := os.Open(file.Path)
	if err != nil {
		return "", fmt.Errorf("open upload payload: %w", err)
	}
	defer src.Close()

	body, contentType := multipartBody(src, file)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/upload", body)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("post upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		return "", fmt.Errorf("server error: %d", resp.StatusCode)
	}

	var payload uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}

	if payload.Transcript != nil && strings.TrimSpace(*payload.Transcript) != "" {
		return *payload.Transcript, nil
	}
	if payload.Summary != nil && strings.TrimSpace(*payload.Summary) != "" {
		return *payload.Summary, nil
	}
	return "", errors.New("response has no transcript or summary")
}

// multipartBody streams src as the "file" part without buffering the whole payload.
func multipartBody(src io.Reader, file intake.SelectedFile) (io.Reader, string) {
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, file.Name))
		mimeType := file.MIMEType
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		header.Set("Content-Type", mimeType)

		part, err := writer.CreatePart(header)
		if err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, src); err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		_ = pw.CloseWithError(writer.Close())
	}()

	return pr, writer.FormDataContentType()
}

// Summarize asks the service to condense transcript text.
func (c *Client) Summarize(ctx context.Context, transcript string) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return "", ErrEmptyTranscript
	}

	payload, err := json.Marshal(map[string]string{"transcript": transcript})
	if err != nil {
		return "", fmt.Errorf("encode summary request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/summarize", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build summary request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("post summarize: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		Summary string `json:"summary"`
		Error   string `json:"error"`
	}
	decodeErr := json.NewDecoder(resp.Body).Decode(&out)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if out.Error != "" {
			return "", fmt.Errorf("server error: %d: %s", resp.StatusCode, out.Error)
		}
		return "", fmt.Errorf("server error: %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("decode summary response: %w", decodeErr)
	}
	if strings.TrimSpace(out.Summary) == "" {
		return "", errors.New("response has no summary")
	}
	return out.Summary, nil
}

// Reachable reports whether the service answers HTTP at all.
func (c *Client) Reachable(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/", nil)
	if err != nil {
		return fmt.Errorf("build probe request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("reach %s: %w", c.endpoint, err)
	}
	_ = resp.Body.Close()
	return nil
}

// Endpoint returns the normalized base URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

func (c *Client) logWarn(msg string, args ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Warn(msg, args...)
}
