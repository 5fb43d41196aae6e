package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rbright/scriber/internal/intake"
	"github.com/stretchr/testify/require"
)

func writeVideo(t *testing.T, body string) intake.SelectedFile {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return intake.SelectedFile{Path: path, Name: "clip.mp4", SizeBytes: int64(len(body)), MIMEType: "video/mp4"}
}

func TestUploadSendsMultipartFilePart(t *testing.T) {
	var gotName, gotType, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/upload", r.URL.Path)

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		data, err := io.ReadAll(file)
		require.NoError(t, err)

		gotName = header.Filename
		gotType = header.Header.Get("Content-Type")
		gotBody = string(data)
		_ = json.NewEncoder(w).Encode(map[string]string{"transcript": "hello world"})
	}))
	defer server.Close()

	client := NewClient(Config{Endpoint: server.URL + "/"}, nil)
	outcome := client.Upload(context.Background(), writeVideo(t, "payload-bytes"))

	require.Equal(t, OutcomeTranscript, outcome.Kind)
	require.Equal(t, "hello world", outcome.Transcript)
	require.NoError(t, outcome.Err)
	require.Equal(t, "clip.mp4", gotName)
	require.Equal(t, "video/mp4", gotType)
	require.Equal(t, "payload-bytes", gotBody)
}

func TestUploadPrefersTranscriptOverSummary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"transcript":"full text","summary":"short"}`)
	}))
	defer server.Close()

	outcome := NewClient(Config{Endpoint: server.URL}, nil).Upload(context.Background(), writeVideo(t, "x"))
	require.Equal(t, OutcomeTranscript, outcome.Kind)
	require.Equal(t, "full text", outcome.Transcript)
}

func TestUploadFallsBackToSummaryField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"summary":"only a summary"}`)
	}))
	defer server.Close()

	outcome := NewClient(Config{Endpoint: server.URL}, nil).Upload(context.Background(), writeVideo(t, "x"))
	require.Equal(t, OutcomeTranscript, outcome.Kind)
	require.Equal(t, "only a summary", outcome.Transcript)
}

func TestUploadFailuresResolveToFallback(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "invalid json",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, "not json")
			},
		},
		{
			name: "missing fields",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, `{"status":"ok"}`)
			},
		},
		{
			name: "blank transcript",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, `{"transcript":"   "}`)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(tc.handler)
			defer server.Close()

			outcome := NewClient(Config{Endpoint: server.URL}, nil).Upload(context.Background(), writeVideo(t, "x"))
			require.Equal(t, OutcomeFallback, outcome.Kind)
			require.Equal(t, FallbackTranscript, outcome.Transcript)
			require.Error(t, outcome.Err)
		})
	}
}

func TestUploadUnreachableServiceFallsBack(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	endpoint := server.URL
	server.Close()

	outcome := NewClient(Config{Endpoint: endpoint}, nil).Upload(context.Background(), writeVideo(t, "x"))
	require.Equal(t, OutcomeFallback, outcome.Kind)
	require.Equal(t, FallbackTranscript, outcome.Transcript)
}

func TestUploadMissingFileFallsBack(t *testing.T) {
	file := intake.SelectedFile{Path: filepath.Join(t.TempDir(), "gone.mp4"), Name: "gone.mp4"}
	outcome := NewClient(Config{Endpoint: "http://127.0.0.1:1"}, nil).Upload(context.Background(), file)
	require.Equal(t, OutcomeFallback, outcome.Kind)
}

func TestUploadCancellationIsDistinguished(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	outcome := NewClient(Config{Endpoint: server.URL}, nil).Upload(ctx, writeVideo(t, "x"))
	require.Equal(t, OutcomeCancelled, outcome.Kind)
	require.Empty(t, outcome.Transcript)
}

func TestSummarizeRejectsEmptyTranscriptLocally(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	defer server.Close()

	_, err := NewClient(Config{Endpoint: server.URL}, nil).Summarize(context.Background(), "  \n")
	require.ErrorIs(t, err, ErrEmptyTranscript)
	require.False(t, called)
}

func TestSummarizePostsTranscript(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/summarize", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "long transcript", body["transcript"])
		_, _ = io.WriteString(w, `{"summary":"tl;dr"}`)
	}))
	defer server.Close()

	summary, err := NewClient(Config{Endpoint: server.URL}, nil).Summarize(context.Background(), "long transcript")
	require.NoError(t, err)
	require.Equal(t, "tl;dr", summary)
}

func TestSummarizeSurfacesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"No transcript provided"}`)
	}))
	defer server.Close()

	_, err := NewClient(Config{Endpoint: server.URL}, nil).Summarize(context.Background(), "text")
	require.ErrorContains(t, err, "server error: 400")
	require.ErrorContains(t, err, "No transcript provided")
}

func TestReachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	client := NewClient(Config{Endpoint: server.URL}, nil)
	require.NoError(t, client.Reachable(context.Background()))
	server.Close()
	require.Error(t, client.Reachable(context.Background()))
}

func TestOutcomeKindString(t *testing.T) {
	require.Equal(t, "transcript", OutcomeTranscript.String())
	require.Equal(t, "fallback", OutcomeFallback.String())
	require.Equal(t, "cancelled", OutcomeCancelled.String())
	require.Equal(t, "unknown", OutcomeKind(0).String())
}
