// Package intake accepts, validates, and previews candidate video files.
package intake

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// MaxBytes is the hard upload cap enforced before any network activity.
const MaxBytes int64 = 50 * 1024 * 1024

var (
	// ErrFileTooLarge rejects files above the configured size cap.
	ErrFileTooLarge = errors.New("file too large")
	// ErrUnsupportedFormat rejects files whose MIME type is not an accepted video container.
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// DefaultAllowedTypes lists the accepted container-level video MIME types.
var DefaultAllowedTypes = []string{
	"video/mp4",
	"video/avi",
	"video/x-msvideo",
	"video/msvideo",
	"video/mov",
	"video/quicktime",
	"video/wmv",
	"video/x-ms-wmv",
	"video/flv",
	"video/x-flv",
}

var extensionTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".wmv":  "video/x-ms-wmv",
	".flv":  "video/x-flv",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
}

// SelectedFile is the accepted payload reference for one upload attempt.
type SelectedFile struct {
	Path      string
	Name      string
	SizeBytes int64
	MIMEType  string
	// Duration is zero until media metadata has been probed.
	Duration time.Duration
}

// Describe renders the size and, once known, the duration of the file.
func (f SelectedFile) Describe() string {
	info := fmt.Sprintf("%.1f MB", float64(f.SizeBytes)/1024/1024)
	if f.Duration > 0 {
		info += fmt.Sprintf(", %.1f min", f.Duration.Minutes())
	}
	return info
}

// Stat builds a SelectedFile from a local path without validating it.
func Stat(path string) (SelectedFile, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return SelectedFile{}, errors.New("file path is empty")
	}

	info, err := os.Stat(path)
	if err != nil {
		return SelectedFile{}, fmt.Errorf("stat %q: %w", path, err)
	}
	if info.IsDir() {
		return SelectedFile{}, fmt.Errorf("%q is a directory", path)
	}

	return SelectedFile{
		Path:      path,
		Name:      filepath.Base(path),
		SizeBytes: info.Size(),
		MIMEType:  DetectMIME(path),
	}, nil
}

// DetectMIME resolves a MIME type from the file extension.
func DetectMIME(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		if base, _, err := mime.ParseMediaType(t); err == nil {
			return base
		}
		return t
	}
	return "application/octet-stream"
}

// IsVideo reports whether path carries a video extension.
func IsVideo(path string) bool {
	return strings.HasPrefix(DetectMIME(path), "video/")
}
