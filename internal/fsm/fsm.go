package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle         State = "idle"
	StateFileSelected State = "file-selected"
	StateUploading    State = "uploading"
	StateTranscribing State = "transcribing"
	StateSummarizing  State = "summarizing"
	StateComplete     State = "complete"
	StateCancelled    State = "cancelled"
	StateFailed       State = "failed"
)

const (
	EventSelect     Event = "select"
	EventStart      Event = "start"
	EventTranscribe Event = "transcribe"
	EventSummarize  Event = "summarize"
	EventComplete   Event = "complete"
	EventFail       Event = "fail"
	EventRecover    Event = "recover"
	EventCancel     Event = "cancel"
	EventReset      Event = "reset"
	EventRemove     Event = "remove"
	EventRestore    Event = "restore"
)

// InFlight reports whether state belongs to an active upload attempt.
func InFlight(state State) bool {
	switch state {
	case StateUploading, StateTranscribing, StateSummarizing:
		return true
	default:
		return false
	}
}

func Transition(current State, event Event) (State, error) {
	if event == EventSelect {
		return StateFileSelected, nil
	}
	if event == EventRemove {
		if InFlight(current) {
			return current, invalidTransition(current, event)
		}
		return StateIdle, nil
	}

	switch current {
	case StateIdle:
		switch event {
		case EventRestore:
			return StateComplete, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateFileSelected:
		switch event {
		case EventStart:
			return StateUploading, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateUploading, StateTranscribing, StateSummarizing:
		return inFlightTransition(current, event)
	case StateFailed:
		switch event {
		case EventRecover:
			return StateComplete, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateCancelled:
		switch event {
		case EventReset:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateComplete:
		return current, invalidTransition(current, event)
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

// inFlightTransition covers the stage sequence and the three ways out of an attempt.
func inFlightTransition(current State, event Event) (State, error) {
	switch event {
	case EventComplete:
		return StateComplete, nil
	case EventFail:
		return StateFailed, nil
	case EventCancel:
		return StateCancelled, nil
	case EventTranscribe:
		if current == StateUploading {
			return StateTranscribing, nil
		}
	case EventSummarize:
		if current == StateUploading || current == StateTranscribing {
			return StateSummarizing, nil
		}
	}
	return current, invalidTransition(current, event)
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
