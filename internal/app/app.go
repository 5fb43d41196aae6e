package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/rbright/scriber/internal/cli"
	"github.com/rbright/scriber/internal/config"
	"github.com/rbright/scriber/internal/doctor"
	"github.com/rbright/scriber/internal/fsm"
	"github.com/rbright/scriber/internal/ipc"
	"github.com/rbright/scriber/internal/logging"
	"github.com/rbright/scriber/internal/output"
	"github.com/rbright/scriber/internal/session"
	"github.com/rbright/scriber/internal/transcript"
	"github.com/rbright/scriber/internal/transport"
	"github.com/rbright/scriber/internal/version"
)

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("scriber"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("scriber"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"arg", parsed.Arg,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	cfg := cfgLoaded.Config
	switch parsed.Command {
	case cli.CommandDoctor:
		report := doctor.Run(ctx, cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandUpload:
		return r.commandUpload(ctx, cfg, parsed.Arg, logger)
	case cli.CommandWatch:
		return r.commandWatch(ctx, cfg, parsed.Arg, logger)
	case cli.CommandServe:
		return r.commandServe(ctx, cfg, logger)
	case cli.CommandStatus:
		return r.commandStatus(ctx, cfg, logger)
	case cli.CommandCancel:
		return r.forwardOrFail(ctx, ipc.CommandCancel)
	case cli.CommandRemove:
		return r.commandRemove(ctx, cfg, logger)
	case cli.CommandShow:
		return r.commandShow(ctx, cfg, logger)
	case cli.CommandNotes:
		return r.commandNotes(ctx, cfg, logger)
	case cli.CommandCopy:
		return r.commandCopy(ctx, cfg, logger)
	case cli.CommandSummarize:
		return r.commandSummarize(ctx, cfg, logger)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

// commandStatus asks the owner first and falls back to the stored result.
func (r Runner) commandStatus(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	if socketPath, err := ipc.RuntimeSocketPath(); err == nil {
		resp, handled, err := tryForward(ctx, socketPath, ipc.CommandStatus)
		if handled {
			if err != nil {
				fmt.Fprintf(r.Stderr, "error: %v\n", err)
				return 1
			}
			if resp.State == "" {
				resp.State = string(fsm.StateIdle)
			}
			if fsm.InFlight(fsm.State(resp.State)) {
				fmt.Fprintf(r.Stdout, "%s %d%%\n", resp.State, resp.Progress)
			} else {
				fmt.Fprintln(r.Stdout, resp.State)
			}
			return 0
		}
	}

	text, ok := r.loadStored(ctx, cfg, logger)
	if ok && text != "" {
		fmt.Fprintln(r.Stdout, fsm.StateComplete)
		return 0
	}
	fmt.Fprintln(r.Stdout, fsm.StateIdle)
	return 0
}

// commandRemove forwards to the owner or clears the store directly.
func (r Runner) commandRemove(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	if socketPath, err := ipc.RuntimeSocketPath(); err == nil {
		resp, handled, err := tryForward(ctx, socketPath, ipc.CommandRemove)
		if handled {
			if err != nil {
				fmt.Fprintf(r.Stderr, "error: %v\n", err)
				return 1
			}
			fmt.Fprintln(r.Stdout, resp.Message)
			return 0
		}
	}

	s, closeStore, err := openStore(cfg, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer closeStore()

	if err := s.Clear(ctx); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	fmt.Fprintln(r.Stdout, "stored transcript removed")
	return 0
}

func (r Runner) commandShow(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	text, ok := r.loadStored(ctx, cfg, logger)
	if !ok {
		fmt.Fprintln(r.Stderr, "error: no transcript stored")
		return 1
	}
	fmt.Fprintln(r.Stdout, strings.TrimSpace(text))
	return 0
}

func (r Runner) commandNotes(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	text, _ := r.loadStored(ctx, cfg, logger)
	notes := transcript.Notes(text)
	if len(notes) == 0 {
		fmt.Fprintln(r.Stdout, transcript.EmptyNotesMessage)
		return 0
	}

	heading := lipgloss.NewRenderer(r.Stdout).NewStyle().Bold(true)
	fmt.Fprintln(r.Stdout, heading.Render("Notes"))
	for _, note := range notes {
		fmt.Fprintln(r.Stdout, note)
	}
	return 0
}

func (r Runner) commandCopy(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	text, _ := r.loadStored(ctx, cfg, logger)
	copier := output.NewCopier(cfg.Clipboard.Argv, logger)
	if err := copier.Copy(ctx, text); err != nil {
		if errors.Is(err, output.ErrNothingToCopy) {
			fmt.Fprintln(r.Stderr, "error: no transcript stored")
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	fmt.Fprintln(r.Stdout, "transcript copied")
	return 0
}

func (r Runner) commandSummarize(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	text, _ := r.loadStored(ctx, cfg, logger)
	client := newTransport(cfg, logger)
	summary, err := client.Summarize(ctx, text)
	if err != nil {
		if errors.Is(err, transport.ErrEmptyTranscript) {
			fmt.Fprintln(r.Stderr, "error: no transcript stored")
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	fmt.Fprintln(r.Stdout, strings.TrimSpace(summary))
	return 0
}

// loadStored reads the persisted transcript without an owner process.
func (r Runner) loadStored(ctx context.Context, cfg config.Config, logger *slog.Logger) (string, bool) {
	s, closeStore, err := openStore(cfg, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "warning: %v\n", err)
		return "", false
	}
	defer closeStore()
	return s.Load(ctx)
}

func (r Runner) forwardOrFail(ctx context.Context, command string) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, command)
	if !handled {
		fmt.Fprintf(r.Stderr, "error: no active scriber session\n")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

func logSessionResult(logger *slog.Logger, result session.Result) {
	if logger == nil {
		return
	}
	fields := []any{
		"session_id", result.SessionID,
		"state", result.State,
		"cancelled", result.Cancelled,
		"degraded", result.Degraded,
		"started_at", result.StartedAt.Format(time.RFC3339Nano),
		"finished_at", result.FinishedAt.Format(time.RFC3339Nano),
		"duration_ms", result.FinishedAt.Sub(result.StartedAt).Milliseconds(),
		"file", result.File.Name,
		"size_bytes", result.File.SizeBytes,
		"transcript_length", len(result.Transcript),
		"upload_latency_ms", result.Latency.Milliseconds(),
	}

	if result.Err != nil {
		logger.Error("session failed", append(fields, "error", result.Err.Error())...)
		return
	}
	logger.Info("session complete", fields...)
}

func tryForward(ctx context.Context, socketPath string, command string) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, ipc.Request{Command: command}, 220*time.Millisecond)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}

	if ipc.IsUnavailable(err) {
		return ipc.Response{}, false, nil
	}

	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", command, err)
}
