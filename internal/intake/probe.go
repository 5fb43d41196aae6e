package intake

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Prober reads media metadata for a selected file.
type Prober interface {
	Probe(ctx context.Context, path string) (time.Duration, error)
}

// FilePlaceholder marks where a configured command takes the video path.
const FilePlaceholder = "{file}"

// FFProbe resolves container duration through an ffprobe-compatible command.
type FFProbe struct {
	Argv []string
}

// Probe runs argv and parses the seconds it prints. Without a FilePlaceholder
// in argv, ffprobe duration flags and the path are appended.
func (p FFProbe) Probe(ctx context.Context, path string) (time.Duration, error) {
	if len(p.Argv) == 0 {
		return 0, errors.New("probe command is empty")
	}

	args := probeArgs(p.Argv[1:], path)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.Argv[0], args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return 0, fmt.Errorf("probe %q: %w (%s)", path, err, msg)
		}
		return 0, fmt.Errorf("probe %q: %w", path, err)
	}

	return parseSeconds(stdout.String())
}

func probeArgs(base []string, path string) []string {
	args := make([]string, 0, len(base)+7)
	substituted := false
	for _, arg := range base {
		if strings.Contains(arg, FilePlaceholder) {
			arg = strings.ReplaceAll(arg, FilePlaceholder, path)
			substituted = true
		}
		args = append(args, arg)
	}
	if substituted {
		return args
	}
	return append(args,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
}

func parseSeconds(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "N/A" {
		return 0, errors.New("duration unavailable")
	}
	if i := strings.IndexByte(raw, '\n'); i >= 0 {
		raw = strings.TrimSpace(raw[:i])
	}
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", raw, err)
	}
	if seconds < 0 {
		return 0, fmt.Errorf("negative duration %q", raw)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}
