// Package output delivers transcripts to the desktop clipboard.
package output

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// ErrNothingToCopy is returned when there is no transcript text.
var ErrNothingToCopy = errors.New("no transcript to copy")

const copyTimeout = 2 * time.Second

// Copier pipes transcript text into a clipboard command.
type Copier struct {
	argv   []string
	logger *slog.Logger
}

// NewCopier constructs a copier for clipboard argv.
func NewCopier(argv []string, logger *slog.Logger) *Copier {
	return &Copier{argv: append([]string(nil), argv...), logger: logger}
}

// Copy writes transcript to the clipboard command's stdin.
func (c *Copier) Copy(ctx context.Context, transcript string) error {
	if strings.TrimSpace(transcript) == "" {
		return ErrNothingToCopy
	}

	copyCtx, cancel := context.WithTimeout(ctx, copyTimeout)
	defer cancel()
	if err := runCommandWithInput(copyCtx, c.argv, transcript); err != nil {
		return fmt.Errorf("set clipboard: %w", err)
	}
	if c.logger != nil {
		c.logger.Debug("transcript copied", "transcript_length", len(transcript))
	}
	return nil
}

// Commit copies a completed transcript. Empty transcripts are skipped.
func (c *Copier) Commit(ctx context.Context, transcript string) error {
	if strings.TrimSpace(transcript) == "" {
		return nil
	}
	return c.Copy(ctx, transcript)
}

// runCommandWithInput executes argv and optionally writes input to stdin.
func runCommandWithInput(ctx context.Context, argv []string, input string) error {
	if len(argv) == 0 {
		return fmt.Errorf("command argv cannot be empty")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open stdin for %s: %w", argv[0], err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return fmt.Errorf("start command %s: %w", argv[0], err)
	}

	if input != "" {
		if _, err := stdin.Write([]byte(input)); err != nil {
			_ = stdin.Close()
			_ = cmd.Wait()
			return fmt.Errorf("write stdin for %s: %w", argv[0], err)
		}
	}
	_ = stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait for %s: %w", argv[0], err)
	}
	return nil
}
