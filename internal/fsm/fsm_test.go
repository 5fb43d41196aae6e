package fsm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransitionStagedHappyPath(t *testing.T) {
	s := StateIdle

	steps := []struct {
		event Event
		want  State
	}{
		{EventSelect, StateFileSelected},
		{EventStart, StateUploading},
		{EventTranscribe, StateTranscribing},
		{EventSummarize, StateSummarizing},
		{EventComplete, StateComplete},
		{EventRemove, StateIdle},
	}

	for _, step := range steps {
		next, err := Transition(s, step.event)
		require.NoError(t, err)
		require.Equal(t, step.want, next)
		s = next
	}
}

func TestTransitionDegradedPathThroughFailed(t *testing.T) {
	for _, state := range []State{StateUploading, StateTranscribing, StateSummarizing} {
		next, err := Transition(state, EventFail)
		require.NoError(t, err)
		require.Equal(t, StateFailed, next)

		next, err = Transition(next, EventRecover)
		require.NoError(t, err)
		require.Equal(t, StateComplete, next)
	}
}

func TestTransitionCancelThenReset(t *testing.T) {
	for _, state := range []State{StateUploading, StateTranscribing, StateSummarizing} {
		next, err := Transition(state, EventCancel)
		require.NoError(t, err)
		require.Equal(t, StateCancelled, next)

		next, err = Transition(next, EventReset)
		require.NoError(t, err)
		require.Equal(t, StateIdle, next)
	}
}

func TestTransitionSelectFromAnyState(t *testing.T) {
	states := []State{
		StateIdle, StateFileSelected, StateUploading, StateTranscribing,
		StateSummarizing, StateComplete, StateCancelled, StateFailed,
	}
	for _, state := range states {
		next, err := Transition(state, EventSelect)
		require.NoError(t, err)
		require.Equal(t, StateFileSelected, next)
	}
}

func TestTransitionRestoreOnlyFromIdle(t *testing.T) {
	next, err := Transition(StateIdle, EventRestore)
	require.NoError(t, err)
	require.Equal(t, StateComplete, next)

	_, err = Transition(StateFileSelected, EventRestore)
	require.Error(t, err)
}

func TestTransitionMatrixInvalidTransitions(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		event   Event
		want    State
		wantErr bool
	}{
		{name: "idle start invalid", state: StateIdle, event: EventStart, want: StateIdle, wantErr: true},
		{name: "idle cancel invalid", state: StateIdle, event: EventCancel, want: StateIdle, wantErr: true},
		{name: "selected cancel invalid", state: StateFileSelected, event: EventCancel, want: StateFileSelected, wantErr: true},
		{name: "uploading start invalid", state: StateUploading, event: EventStart, want: StateUploading, wantErr: true},
		{name: "uploading remove invalid", state: StateUploading, event: EventRemove, want: StateUploading, wantErr: true},
		{name: "summarizing back to transcribing invalid", state: StateSummarizing, event: EventTranscribe, want: StateSummarizing, wantErr: true},
		{name: "uploading straight to summarizing valid", state: StateUploading, event: EventSummarize, want: StateSummarizing, wantErr: false},
		{name: "complete start invalid", state: StateComplete, event: EventStart, want: StateComplete, wantErr: true},
		{name: "complete remove valid", state: StateComplete, event: EventRemove, want: StateIdle, wantErr: false},
		{name: "cancelled remove valid", state: StateCancelled, event: EventRemove, want: StateIdle, wantErr: false},
		{name: "failed reset invalid", state: StateFailed, event: EventReset, want: StateFailed, wantErr: true},
		{name: "idle remove valid", state: StateIdle, event: EventRemove, want: StateIdle, wantErr: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, err := Transition(tc.state, tc.event)
			require.Equal(t, tc.want, next)
			if tc.wantErr {
				require.Error(t, err)
				require.Contains(t, err.Error(), "invalid transition")
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestInFlight(t *testing.T) {
	require.True(t, InFlight(StateUploading))
	require.True(t, InFlight(StateTranscribing))
	require.True(t, InFlight(StateSummarizing))
	require.False(t, InFlight(StateIdle))
	require.False(t, InFlight(StateFileSelected))
	require.False(t, InFlight(StateComplete))
	require.False(t, InFlight(StateCancelled))
	require.False(t, InFlight(StateFailed))
}

func TestTransitionUnknownState(t *testing.T) {
	next, err := Transition(State("mystery"), EventStart)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown state")
	require.Equal(t, State("mystery"), next)
}
