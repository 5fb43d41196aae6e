package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rbright/scriber/internal/fsm"
	"github.com/rbright/scriber/internal/intake"
	"github.com/rbright/scriber/internal/progress"
	"github.com/rbright/scriber/internal/transport"
	"github.com/stretchr/testify/require"
)

type progressCall struct {
	stage   fsm.State
	percent int
}

type fakeIndicator struct {
	mu           sync.Mutex
	calls        []progressCall
	errors       []string
	completeCues atomic.Int32
	cancelCues   atomic.Int32
}

func (f *fakeIndicator) ShowProgress(_ context.Context, stage fsm.State, percent int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, progressCall{stage: stage, percent: percent})
}

func (f *fakeIndicator) ShowError(_ context.Context, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = append(f.errors, message)
}

func (f *fakeIndicator) CueComplete(context.Context) { f.completeCues.Add(1) }
func (f *fakeIndicator) CueCancel(context.Context)   { f.cancelCues.Add(1) }
func (*fakeIndicator) Hide(context.Context)          {}

func (f *fakeIndicator) progressCalls() []progressCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]progressCall(nil), f.calls...)
}

// fakeUploader returns outcome immediately unless block is set, in which case
// it waits for release or ctx cancellation.
type fakeUploader struct {
	outcome transport.Outcome
	block   bool
	// ignoreCancel keeps waiting for release even after ctx is done.
	ignoreCancel bool
	release      chan struct{}
	calls        atomic.Int32
	ctxDone      atomic.Bool
}

func newBlockingUploader(outcome transport.Outcome) *fakeUploader {
	return &fakeUploader{outcome: outcome, block: true, release: make(chan struct{})}
}

func (f *fakeUploader) Upload(ctx context.Context, _ intake.SelectedFile) transport.Outcome {
	f.calls.Add(1)
	if !f.block {
		return f.outcome
	}
	if f.ignoreCancel {
		<-f.release
		f.ctxDone.Store(ctx.Err() != nil)
		return f.outcome
	}
	select {
	case <-f.release:
		return f.outcome
	case <-ctx.Done():
		f.ctxDone.Store(true)
		return transport.Outcome{Kind: transport.OutcomeCancelled}
	}
}

// scriptedSimulator emits updates then waits for cancellation or resolution.
type scriptedSimulator struct {
	updates []progress.Update
}

func (s scriptedSimulator) Run(ctx context.Context, resolved <-chan struct{}, emit func(progress.Update)) error {
	for _, update := range s.updates {
		if err := ctx.Err(); err != nil {
			return err
		}
		emit(update)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-resolved:
		return nil
	}
}

type fakeProber struct {
	duration time.Duration
	gate     chan struct{}
}

func (f fakeProber) Probe(ctx context.Context, _ string) (time.Duration, error) {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	return f.duration, nil
}

func fastStages() progress.Staged {
	return progress.Staged{Stages: []progress.Stage{
		{Name: fsm.StateUploading, Target: 30, Duration: time.Millisecond},
		{Name: fsm.StateTranscribing, Target: 70, Duration: time.Millisecond},
		{Name: fsm.StateSummarizing, Target: 100, Duration: time.Millisecond},
	}}
}

func writeClip(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("fake video bytes"), 0o600))
	return path
}

func waitForState(t *testing.T, ctrl *Controller, want fsm.State) {
	t.Helper()
	require.Eventually(t, func() bool {
		return ctrl.State() == want
	}, 2*time.Second, 5*time.Millisecond)
}

func startProcess(ctx context.Context, ctrl *Controller) <-chan Result {
	resultCh := make(chan Result, 1)
	go func() {
		resultCh <- ctrl.Process(ctx)
	}()
	return resultCh
}

func awaitResult(t *testing.T, resultCh <-chan Result) Result {
	t.Helper()
	select {
	case result := <-resultCh:
		return result
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for Process")
		return Result{}
	}
}

// gatedIndicator records frames and hides in order and blocks the frame
// carrying gatePercent until release is closed.
type gatedIndicator struct {
	noopIndicator
	gatePercent int
	entered     chan struct{}
	release     chan struct{}

	mu     sync.Mutex
	events []string
}

func newGatedIndicator(gatePercent int) *gatedIndicator {
	return &gatedIndicator{
		gatePercent: gatePercent,
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
}

func (g *gatedIndicator) ShowProgress(_ context.Context, _ fsm.State, percent int) {
	if percent == g.gatePercent {
		close(g.entered)
		<-g.release
	}
	g.record(fmt.Sprintf("progress:%d", percent))
}

func (g *gatedIndicator) Hide(context.Context) { g.record("hide") }

func (g *gatedIndicator) record(event string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.events = append(g.events, event)
}

func (g *gatedIndicator) recorded() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.events...)
}

// gatedStore blocks Save until release is closed.
type gatedStore struct {
	saving  chan struct{}
	release chan struct{}
	once    sync.Once

	mu    sync.Mutex
	value string
	ops   []string
}

func newGatedStore() *gatedStore {
	return &gatedStore{saving: make(chan struct{}), release: make(chan struct{})}
}

func (s *gatedStore) Save(_ context.Context, transcript string) error {
	s.once.Do(func() { close(s.saving) })
	<-s.release
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = transcript
	s.ops = append(s.ops, "save")
	return nil
}

func (s *gatedStore) Load(context.Context) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.value != ""
}

func (s *gatedStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = ""
	s.ops = append(s.ops, "clear")
	return nil
}

func (s *gatedStore) recorded() (string, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, append([]string(nil), s.ops...)
}
