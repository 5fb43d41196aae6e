// Package indicator handles progress rendering, desktop notifications, and audio cues.
package indicator

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rbright/scriber/internal/config"
	"github.com/rbright/scriber/internal/fsm"
)

// Notifier is the concrete indicator used by runtime sessions. It draws a
// terminal bar and optionally mirrors stage changes to desktop notifications.
type Notifier struct {
	cfg      config.IndicatorConfig
	logger   *slog.Logger
	messages messages
	terminal *Terminal

	mu                    sync.Mutex
	desktopNotificationID uint32
	lastStage             fsm.State
	soundMu               sync.Mutex
}

// New creates a notifier from config. A nil out disables the terminal bar.
func New(cfg config.IndicatorConfig, out io.Writer, logger *slog.Logger) *Notifier {
	n := &Notifier{
		cfg:      cfg,
		logger:   logger,
		messages: indicatorMessagesFromEnv(),
	}
	if cfg.Enable && out != nil {
		n.terminal = NewTerminal(out, cfg.Width)
	}
	return n
}

// ShowProgress renders the current stage and percent.
func (n *Notifier) ShowProgress(ctx context.Context, stage fsm.State, percent int) {
	if !n.cfg.Enable {
		return
	}

	n.mu.Lock()
	changed := n.lastStage != stage
	n.lastStage = stage
	n.mu.Unlock()

	label := n.messages.label(stage)
	if n.terminal != nil && stage != fsm.StateFileSelected {
		n.terminal.Render(label, percent, stage == fsm.StateComplete)
	}

	if changed && n.cfg.Desktop {
		terminal := stage == fsm.StateComplete || stage == fsm.StateFileSelected
		n.run(ctx, func(ctx context.Context) error {
			return n.notifyDesktop(ctx, func(appName string, replaceID uint32) notification {
				return stageNotification(appName, replaceID, label, terminal)
			})
		})
	}
}

// ShowError displays an error-state message.
func (n *Notifier) ShowError(ctx context.Context, text string) {
	if !n.cfg.Enable {
		return
	}
	if text == "" {
		text = n.messages.errorText
	}
	if n.terminal != nil {
		n.terminal.Message(text, true)
	}
	if n.cfg.Desktop {
		n.run(ctx, func(ctx context.Context) error {
			return n.notifyDesktop(ctx, func(appName string, replaceID uint32) notification {
				return errorNotification(appName, replaceID, text)
			})
		})
	}
}

// CueComplete emits the completion cue.
func (n *Notifier) CueComplete(context.Context) {
	n.playCue(completeCue)
}

// CueCancel emits the cancel cue.
func (n *Notifier) CueCancel(context.Context) {
	n.playCue(cancelCue)
}

// Hide closes the progress surface. An attempt interrupted mid-flight is
// reported as cancelled; a finished one keeps its notification visible.
func (n *Notifier) Hide(ctx context.Context) {
	if !n.cfg.Enable {
		return
	}

	n.mu.Lock()
	interrupted := fsm.InFlight(n.lastStage)
	n.lastStage = ""
	n.mu.Unlock()

	if n.terminal != nil {
		if interrupted {
			n.terminal.Message(n.messages.cancelled, false)
		} else {
			n.terminal.Close()
		}
	}
	if interrupted && n.cfg.Desktop {
		n.run(ctx, n.dismissDesktop)
	}
}

// notifyDesktop sends the notification build returns, replacing the previous
// one, and stores the new ID.
func (n *Notifier) notifyDesktop(ctx context.Context, build func(appName string, replaceID uint32) notification) error {
	n.mu.Lock()
	replaceID := n.desktopNotificationID
	n.mu.Unlock()

	appName := strings.TrimSpace(n.cfg.DesktopAppName)
	if appName == "" {
		appName = "scriber"
	}

	id, err := sendNotification(ctx, build(appName, replaceID))
	if err != nil {
		return err
	}

	n.mu.Lock()
	n.desktopNotificationID = id
	n.mu.Unlock()
	return nil
}

// dismissDesktop closes the current desktop notification ID when present.
func (n *Notifier) dismissDesktop(ctx context.Context) error {
	n.mu.Lock()
	id := n.desktopNotificationID
	n.desktopNotificationID = 0
	n.mu.Unlock()

	if id == 0 {
		return nil
	}
	return closeNotification(ctx, id)
}

// run executes an indicator operation with a bounded timeout.
func (n *Notifier) run(ctx context.Context, fn func(context.Context) error) {
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 400*time.Millisecond)
	defer cancel()
	if err := fn(runCtx); err != nil {
		n.log("indicator dispatch failed", err)
	}
}

// playCue serializes cue playback and emits audio asynchronously.
func (n *Notifier) playCue(c *cue) {
	if !n.cfg.SoundEnable {
		return
	}
	go func() {
		n.soundMu.Lock()
		defer n.soundMu.Unlock()
		if err := c.play(n.cfg); err != nil {
			n.log("indicator audio cue failed", err)
		}
	}()
}

// log emits debug-only indicator failures to the runtime logger.
func (n *Notifier) log(message string, err error) {
	if n.logger == nil || err == nil {
		return
	}
	n.logger.Debug(message, "error", err.Error())
}
