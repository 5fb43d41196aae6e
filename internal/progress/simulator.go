// Package progress simulates upload progress independently of real transfer state.
package progress

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rbright/scriber/internal/fsm"
)

// Policy names a simulation strategy.
type Policy string

const (
	PolicyStaged Policy = "staged"
	PolicyRamp   Policy = "ramp"
)

// Update is one cosmetic progress observation. An empty Stage leaves the stage unchanged.
type Update struct {
	Stage   fsm.State
	Percent int
}

// Simulator drives synthetic progress for one attempt. Run returns once the
// simulation finishes or ctx is cancelled; it never emits after cancellation.
// resolved is closed when the transport has produced an outcome.
type Simulator interface {
	Run(ctx context.Context, resolved <-chan struct{}, emit func(Update)) error
}

// Stage is one named step of the staged policy.
type Stage struct {
	Name     fsm.State
	Target   int
	Duration time.Duration
}

// DefaultStages is the uploading/transcribing/summarizing sequence.
func DefaultStages() []Stage {
	return []Stage{
		{Name: fsm.StateUploading, Target: 30, Duration: 1200 * time.Millisecond},
		{Name: fsm.StateTranscribing, Target: 70, Duration: 2500 * time.Millisecond},
		{Name: fsm.StateSummarizing, Target: 100, Duration: 1800 * time.Millisecond},
	}
}

// Staged announces each stage, waits its duration, then jumps to its target.
type Staged struct {
	Stages []Stage
}

func (s Staged) Run(ctx context.Context, _ <-chan struct{}, emit func(Update)) error {
	stages := s.Stages
	if len(stages) == 0 {
		stages = DefaultStages()
	}

	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return err
		}
		emit(Update{Stage: stage.Name})

		if err := sleep(ctx, stage.Duration); err != nil {
			return err
		}
		emit(Update{Stage: stage.Name, Percent: stage.Target})
	}
	return nil
}

// Ramp steps progress on a fixed tick, holding at Cap until the transport resolves.
type Ramp struct {
	Step     int
	Interval time.Duration
	Cap      int
}

// DefaultRamp is +10 every 200ms capped at 90.
func DefaultRamp() Ramp {
	return Ramp{Step: 10, Interval: 200 * time.Millisecond, Cap: 90}
}

func (r Ramp) Run(ctx context.Context, resolved <-chan struct{}, emit func(Update)) error {
	d := DefaultRamp()
	if r.Step <= 0 {
		r.Step = d.Step
	}
	if r.Interval <= 0 {
		r.Interval = d.Interval
	}
	if r.Cap <= 0 || r.Cap > 100 {
		r.Cap = d.Cap
	}

	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	percent := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-resolved:
			if err := ctx.Err(); err != nil {
				return err
			}
			emit(Update{Percent: 100})
			return nil
		case <-ticker.C:
			if err := ctx.Err(); err != nil {
				return err
			}
			if percent >= r.Cap {
				continue
			}
			percent = min(percent+r.Step, r.Cap)
			emit(Update{Percent: percent})
		}
	}
}

// New returns the simulator for a configured policy.
func New(policy Policy, ramp Ramp) (Simulator, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(string(policy)))) {
	case PolicyStaged, "":
		return Staged{Stages: DefaultStages()}, nil
	case PolicyRamp:
		return ramp, nil
	default:
		return nil, fmt.Errorf("unknown progress policy %q", policy)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
