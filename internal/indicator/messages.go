package indicator

import (
	"os"
	"strings"

	"github.com/rbright/scriber/internal/fsm"
)

type locale string

const (
	localeEnglish locale = "en"
)

type messages struct {
	selected     string
	uploading    string
	transcribing string
	summarizing  string
	complete     string
	cancelled    string
	errorText    string
}

func indicatorMessagesFromEnv() messages {
	return indicatorMessages(resolveLocale(os.Getenv("LANG")))
}

func resolveLocale(raw string) locale {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if strings.HasPrefix(raw, "en") {
		return localeEnglish
	}
	return localeEnglish
}

func indicatorMessages(tag locale) messages {
	switch tag {
	case localeEnglish:
		fallthrough
	default:
		return messages{
			selected:     "Ready to upload",
			uploading:    "Uploading…",
			transcribing: "Transcribing…",
			summarizing:  "Summarizing…",
			complete:     "Transcript ready",
			cancelled:    "Upload cancelled",
			errorText:    "Upload error",
		}
	}
}

// label returns the display text for a stage.
func (m messages) label(stage fsm.State) string {
	switch stage {
	case fsm.StateFileSelected:
		return m.selected
	case fsm.StateUploading:
		return m.uploading
	case fsm.StateTranscribing:
		return m.transcribing
	case fsm.StateSummarizing:
		return m.summarizing
	case fsm.StateComplete:
		return m.complete
	case fsm.StateCancelled:
		return m.cancelled
	case fsm.StateFailed:
		return m.errorText
	default:
		return string(stage)
	}
}
