// Package session coordinates upload lifecycle state, progress, and persistence.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rbright/scriber/internal/fsm"
	"github.com/rbright/scriber/internal/intake"
	"github.com/rbright/scriber/internal/ipc"
	"github.com/rbright/scriber/internal/progress"
	"github.com/rbright/scriber/internal/store"
	"github.com/rbright/scriber/internal/transcript"
	"github.com/rbright/scriber/internal/transport"
)

const persistTimeout = 5 * time.Second

// Result is the lifecycle output of one Process invocation.
type Result struct {
	SessionID  string
	State      fsm.State
	Transcript string
	// Degraded is true when the transcript is the local fallback.
	Degraded   bool
	Cancelled  bool
	Err        error
	File       intake.SelectedFile
	Latency    time.Duration
	StartedAt  time.Time
	FinishedAt time.Time
}

// Snapshot is a read-only copy of controller state.
type Snapshot struct {
	SessionID  string
	Stage      fsm.State
	Progress   int
	File       *intake.SelectedFile
	PreviewURL string
	Transcript string
	Degraded   bool
	// Message is the most recent user-facing intake message.
	Message string
}

// Indicator is the session-facing subset of indicator behavior.
type Indicator interface {
	ShowProgress(ctx context.Context, stage fsm.State, percent int)
	ShowError(ctx context.Context, message string)
	CueComplete(context.Context)
	CueCancel(context.Context)
	Hide(context.Context)
}

// noopIndicator preserves session flow when no indicator is wired.
type noopIndicator struct{}

func (noopIndicator) ShowProgress(context.Context, fsm.State, int) {}
func (noopIndicator) ShowError(context.Context, string)            {}
func (noopIndicator) CueComplete(context.Context)                  {}
func (noopIndicator) CueCancel(context.Context)                    {}
func (noopIndicator) Hide(context.Context)                         {}

// Options wires the controller's collaborators. Nil fields get safe defaults.
type Options struct {
	Transport transport.Uploader
	Store     store.Store
	Prober    intake.Prober
	Simulator progress.Simulator
	Rules     *intake.Rules
	Indicator Indicator
	Committer Committer
}

// Controller orchestrates upload state transitions and side effects.
type Controller struct {
	logger    *slog.Logger
	transport transport.Uploader
	store     store.Store
	prober    intake.Prober
	simulator progress.Simulator
	rules     intake.Rules
	indicator Indicator
	commit    Committer

	mu         sync.RWMutex
	state      fsm.State
	progress   int
	sessionID  string
	file       *intake.SelectedFile
	preview    *intake.Preview
	transcript string
	degraded   bool
	message    string

	// attempt increments whenever the current attempt is invalidated.
	attempt     uint64
	removals    uint64
	cancel      context.CancelFunc
	probeCancel context.CancelFunc

	openPreview func(string) (*intake.Preview, error)

	// renderMu orders indicator frames against cancel and hide.
	renderMu sync.Mutex
	// persistMu orders saves against clears.
	persistMu sync.Mutex
}

// NewController constructs a controller with safe default fallbacks.
func NewController(logger *slog.Logger, opts Options) *Controller {
	c := &Controller{
		logger:    logger,
		transport: opts.Transport,
		store:     opts.Store,
		prober:    opts.Prober,
		simulator: opts.Simulator,
		indicator: opts.Indicator,
		commit:    opts.Committer,
		state:     fsm.StateIdle,

		openPreview: intake.OpenPreview,
	}
	if c.transport == nil {
		c.transport = unavailableUploader{}
	}
	if c.store == nil {
		c.store = store.NewMemory()
	}
	if c.simulator == nil {
		c.simulator = progress.Staged{Stages: progress.DefaultStages()}
	}
	if opts.Rules != nil {
		c.rules = *opts.Rules
	} else {
		c.rules = intake.DefaultRules()
	}
	if c.indicator == nil {
		c.indicator = noopIndicator{}
	}
	return c
}

// Init restores the persisted transcript. It reports whether a result was restored.
func (c *Controller) Init(ctx context.Context) bool {
	text, ok := c.store.Load(ctx)
	if !ok {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fsm.Transition(c.state, fsm.EventRestore)
	if err != nil {
		return false
	}
	c.state = next
	c.transcript = text
	c.log(slog.LevelInfo, "restored transcript", "transcript_length", len(text))
	return true
}

// State returns the current FSM state.
func (c *Controller) State() fsm.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Snapshot returns a copy of the current session.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{
		SessionID:  c.sessionID,
		Stage:      c.state,
		Progress:   c.progress,
		Transcript: c.transcript,
		Degraded:   c.degraded,
		Message:    c.message,
	}
	if c.file != nil {
		file := *c.file
		snap.File = &file
	}
	if c.preview != nil {
		snap.PreviewURL = c.preview.URL()
	}
	return snap
}

// Notes derives bullet notes from the current transcript.
func (c *Controller) Notes() []string {
	c.mu.RLock()
	text := c.transcript
	c.mu.RUnlock()
	return transcript.Notes(text)
}

// Preview returns the live preview handle, or nil when no file is selected.
func (c *Controller) Preview() *intake.Preview {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.preview
}

// SelectFile validates path and, when accepted, starts a new session for it.
// Rejections leave the session untouched apart from the recorded message. The
// prior preview is released before the new one opens, so an open failure drops
// the prior selection.
func (c *Controller) SelectFile(ctx context.Context, path string) (intake.SelectedFile, error) {
	file, err := intake.Stat(path)
	if err == nil {
		err = c.rules.Validate(file)
	}
	if err != nil {
		c.reject(ctx, err)
		return intake.SelectedFile{}, err
	}

	c.mu.Lock()
	c.invalidateLocked()
	c.releasePreviewLocked()

	preview, err := c.openPreview(file.Path)
	if err != nil {
		if fsm.InFlight(c.state) {
			c.cancelLocked()
		}
		if next, terr := fsm.Transition(c.state, fsm.EventRemove); terr == nil {
			c.state = next
		}
		c.clearSessionLocked()
		c.mu.Unlock()
		c.reject(ctx, err)
		return intake.SelectedFile{}, err
	}

	next, err := fsm.Transition(c.state, fsm.EventSelect)
	if err != nil {
		c.mu.Unlock()
		_ = preview.Release()
		return intake.SelectedFile{}, err
	}

	id := uuid.NewString()
	c.state = next
	c.sessionID = id
	c.file = &file
	c.preview = preview
	c.progress = 0
	c.transcript = ""
	c.degraded = false
	c.message = ""

	if c.prober != nil {
		probeCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		c.probeCancel = cancel
		go c.probeDuration(probeCtx, id, file.Path)
	}
	c.mu.Unlock()

	c.log(slog.LevelInfo, "file selected",
		"session_id", id,
		"file", file.Name,
		"size_bytes", file.SizeBytes,
		"mime_type", file.MIMEType,
	)
	c.indicator.ShowProgress(ctx, fsm.StateFileSelected, 0)
	return file, nil
}

func (c *Controller) reject(ctx context.Context, err error) {
	message := err.Error()
	var rejection *intake.Rejection
	if errors.As(err, &rejection) {
		message = rejection.Message
	}
	c.mu.Lock()
	c.message = message
	c.mu.Unlock()

	c.log(slog.LevelWarn, "file rejected", "error", message)
	c.indicator.ShowError(ctx, message)
}

func (c *Controller) probeDuration(ctx context.Context, sessionID string, path string) {
	duration, err := c.prober.Probe(ctx, path)
	if err != nil {
		if ctx.Err() == nil {
			c.log(slog.LevelDebug, "duration probe failed", "session_id", sessionID, "error", err.Error())
		}
		return
	}
	c.applyDuration(sessionID, duration)
}

// applyDuration records probed metadata unless the session was superseded.
func (c *Controller) applyDuration(sessionID string, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sessionID != sessionID || c.file == nil {
		return
	}
	c.file.Duration = duration
}

// Process uploads the selected file and blocks until the attempt resolves.
func (c *Controller) Process(ctx context.Context) Result {
	result := Result{StartedAt: time.Now()}

	c.mu.Lock()
	if fsm.InFlight(c.state) {
		result.State = c.state
		c.mu.Unlock()
		result.Err = ErrBusy
		result.FinishedAt = time.Now()
		return result
	}
	if c.file == nil {
		result.State = c.state
		c.mu.Unlock()
		result.Err = ErrNoFile
		result.FinishedAt = time.Now()
		return result
	}
	next, err := fsm.Transition(c.state, fsm.EventStart)
	if err != nil {
		result.State = c.state
		c.mu.Unlock()
		result.Err = err
		result.FinishedAt = time.Now()
		return result
	}

	c.attempt++
	attempt := c.attempt
	attemptCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.state = next
	c.progress = 0
	file := *c.file
	sessionID := c.sessionID
	c.mu.Unlock()

	result.SessionID = sessionID
	result.File = file
	c.log(slog.LevelInfo, "upload started", "session_id", sessionID, "file", file.Name)
	c.render(ctx, attempt, fsm.StateUploading, 0)

	var outcome transport.Outcome
	resolved := make(chan struct{})

	g, gctx := errgroup.WithContext(attemptCtx)
	g.Go(func() error {
		defer close(resolved)
		outcome = c.transport.Upload(gctx, file)
		return nil
	})
	g.Go(func() error {
		return c.simulator.Run(gctx, resolved, func(update progress.Update) {
			c.applyProgress(ctx, attempt, update)
		})
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		c.log(slog.LevelWarn, "progress simulation stopped", "session_id", sessionID, "error", err.Error())
	}

	result.Latency = outcome.Latency
	return c.finish(ctx, attempt, outcome, result)
}

// applyProgress folds one simulator update into the session when still current.
func (c *Controller) applyProgress(ctx context.Context, attempt uint64, update progress.Update) {
	c.mu.Lock()
	if c.attempt != attempt || !fsm.InFlight(c.state) {
		c.mu.Unlock()
		return
	}

	if update.Stage != "" && update.Stage != c.state {
		if event, ok := stageEvent(update.Stage); ok {
			if next, err := fsm.Transition(c.state, event); err == nil {
				c.state = next
			}
		}
	}
	if update.Percent > c.progress {
		c.progress = min(update.Percent, 100)
	}
	stage, percent := c.state, c.progress
	c.mu.Unlock()

	c.render(ctx, attempt, stage, percent)
}

// render draws one progress frame unless the attempt went stale meanwhile.
func (c *Controller) render(ctx context.Context, attempt uint64, stage fsm.State, percent int) {
	c.renderMu.Lock()
	defer c.renderMu.Unlock()

	c.mu.RLock()
	current := c.attempt == attempt
	c.mu.RUnlock()
	if !current {
		return
	}
	c.indicator.ShowProgress(ctx, stage, percent)
}

func stageEvent(stage fsm.State) (fsm.Event, bool) {
	switch stage {
	case fsm.StateTranscribing:
		return fsm.EventTranscribe, true
	case fsm.StateSummarizing:
		return fsm.EventSummarize, true
	default:
		return "", false
	}
}

// finish applies the transport outcome unless the attempt was invalidated.
func (c *Controller) finish(ctx context.Context, attempt uint64, outcome transport.Outcome, result Result) Result {
	c.mu.Lock()

	if c.attempt != attempt {
		result.State = c.state
		result.Cancelled = true
		c.mu.Unlock()
		result.FinishedAt = time.Now()
		return result
	}

	if outcome.Kind == transport.OutcomeCancelled || ctx.Err() != nil {
		c.cancelLocked()
		result.State = c.state
		result.Cancelled = true
		c.mu.Unlock()

		c.log(slog.LevelInfo, "upload cancelled", "session_id", result.SessionID)
		c.afterCancel()
		result.FinishedAt = time.Now()
		return result
	}

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}

	degraded := outcome.Kind != transport.OutcomeTranscript
	if degraded {
		if next, err := fsm.Transition(c.state, fsm.EventFail); err == nil {
			c.state = next
		}
		if next, err := fsm.Transition(c.state, fsm.EventRecover); err == nil {
			c.state = next
		}
	} else if next, err := fsm.Transition(c.state, fsm.EventComplete); err == nil {
		c.state = next
	}

	text := outcome.Transcript
	if degraded && text == "" {
		text = transport.FallbackTranscript
	}
	c.transcript = text
	c.degraded = degraded
	c.progress = 100
	removals := c.removals

	result.State = c.state
	result.Transcript = text
	result.Degraded = degraded
	c.mu.Unlock()

	c.persist(ctx, removals, result.SessionID, text)

	args := []any{
		"session_id", result.SessionID,
		"transcript_length", len(text),
		"degraded", degraded,
		"duration_ms", outcome.Latency.Milliseconds(),
	}
	if outcome.Err != nil {
		args = append(args, "error", outcome.Err.Error())
	}
	c.log(slog.LevelInfo, "upload complete", args...)

	if degraded {
		c.indicator.ShowError(ctx, "Transcription service unavailable")
	}
	c.indicator.ShowProgress(ctx, fsm.StateComplete, 100)
	c.indicator.CueComplete(ctx)
	c.indicator.Hide(ctx)

	if c.commit != nil {
		if err := c.commit.Commit(ctx, text); err != nil {
			c.log(slog.LevelWarn, "commit transcript failed", "session_id", result.SessionID, "error", err.Error())
		}
	}

	result.FinishedAt = time.Now()
	return result
}

// persist saves text unless a removal happened since the result was recorded.
func (c *Controller) persist(ctx context.Context, removals uint64, sessionID string, text string) {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	c.mu.RLock()
	removed := c.removals != removals
	c.mu.RUnlock()
	if removed {
		c.log(slog.LevelInfo, "skipped persisting removed transcript", "session_id", sessionID)
		return
	}

	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	if err := c.store.Save(persistCtx, text); err != nil {
		c.log(slog.LevelError, "persist transcript failed", "session_id", sessionID, "error", err.Error())
	}
}

// Cancel aborts the in-flight attempt and resets the session to idle.
func (c *Controller) Cancel(_ context.Context) error {
	c.mu.Lock()
	if !fsm.InFlight(c.state) {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("%w (state %s)", ErrNotInFlight, state)
	}
	sessionID := c.sessionID
	c.cancelLocked()
	c.mu.Unlock()

	c.log(slog.LevelInfo, "upload cancelled", "session_id", sessionID)
	c.afterCancel()
	return nil
}

// cancelLocked moves an in-flight session through cancelled back to idle and
// discards the selection.
func (c *Controller) cancelLocked() {
	if next, err := fsm.Transition(c.state, fsm.EventCancel); err == nil {
		c.state = next
	}
	c.invalidateLocked()
	if next, err := fsm.Transition(c.state, fsm.EventReset); err == nil {
		c.state = next
	}
	c.clearSessionLocked()
}

func (c *Controller) afterCancel() {
	ctx, cancel := context.WithTimeout(context.Background(), 800*time.Millisecond)
	defer cancel()
	c.renderMu.Lock()
	defer c.renderMu.Unlock()
	c.indicator.CueCancel(ctx)
	c.indicator.Hide(ctx)
}

// Remove discards the selection and result and clears persisted state.
// Calling it repeatedly is safe.
func (c *Controller) Remove(ctx context.Context) error {
	c.mu.Lock()
	wasInFlight := fsm.InFlight(c.state)
	if wasInFlight {
		c.cancelLocked()
	}
	c.invalidateLocked()
	if next, err := fsm.Transition(c.state, fsm.EventRemove); err == nil {
		c.state = next
	}
	c.clearSessionLocked()
	c.removals++
	c.mu.Unlock()

	if wasInFlight {
		c.afterCancel()
	}

	c.persistMu.Lock()
	err := c.store.Clear(ctx)
	c.persistMu.Unlock()
	if err != nil {
		c.log(slog.LevelError, "clear stored transcript failed", "error", err.Error())
		return fmt.Errorf("clear stored transcript: %w", err)
	}
	return nil
}

// Close releases every resource the controller still owns.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	if c.probeCancel != nil {
		c.probeCancel()
		c.probeCancel = nil
	}
	c.releasePreviewLocked()
}

// invalidateLocked makes every callback of the current attempt stale.
func (c *Controller) invalidateLocked() {
	c.attempt++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.probeCancel != nil {
		c.probeCancel()
		c.probeCancel = nil
	}
}

func (c *Controller) clearSessionLocked() {
	c.releasePreviewLocked()
	c.file = nil
	c.sessionID = ""
	c.progress = 0
	c.transcript = ""
	c.degraded = false
	c.message = ""
}

func (c *Controller) releasePreviewLocked() {
	if c.preview == nil {
		return
	}
	if err := c.preview.Release(); err != nil {
		c.log(slog.LevelWarn, "release preview failed", "error", err.Error())
	}
	c.preview = nil
}

// Handle serves IPC commands for the owner process.
func (c *Controller) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case ipc.CommandStatus:
		snap := c.Snapshot()
		message := "status"
		if snap.File != nil {
			message = fmt.Sprintf("%s (%s)", snap.File.Name, snap.File.Describe())
		}
		return ipc.Response{OK: true, State: string(snap.Stage), Progress: snap.Progress, Message: message}
	case ipc.CommandCancel:
		if err := c.Cancel(ctx); err != nil {
			return ipc.Response{OK: false, State: string(c.State()), Error: err.Error()}
		}
		return ipc.Response{OK: true, State: string(c.State()), Message: "upload cancelled"}
	case ipc.CommandRemove:
		if err := c.Remove(ctx); err != nil {
			return ipc.Response{OK: false, State: string(c.State()), Error: err.Error()}
		}
		return ipc.Response{OK: true, State: string(c.State()), Message: "selection removed"}
	default:
		return ipc.Response{OK: false, State: string(c.State()), Error: fmt.Sprintf("unknown command: %s", req.Command)}
	}
}

func (c *Controller) log(level slog.Level, msg string, args ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Log(context.Background(), level, msg, args...)
}
