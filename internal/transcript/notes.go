// Package transcript derives condensed study notes from transcript text.
package transcript

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MaxNotes bounds the number of bullets derived from one transcript.
	MaxNotes = 12
	// MaxNoteRunes bounds the content length of one bullet before the ellipsis.
	MaxNoteRunes = 120
	// minFragmentRunes is the inclusive length below which fragments are discarded.
	minFragmentRunes = 15

	Bullet   = "• "
	Ellipsis = "..."

	// EmptyNotesMessage is shown in place of notes when none were derived.
	EmptyNotesMessage = "No notes generated yet..."
)

var fragmentDelimiters = regexp.MustCompile(`[\n.!?]+`)

// Notes splits transcript text on sentence and line delimiters and returns at most
// MaxNotes bullet strings in original order.
func Notes(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	notes := make([]string, 0, MaxNotes)
	for _, fragment := range fragmentDelimiters.Split(text, -1) {
		fragment = strings.TrimSpace(fragment)
		if utf8.RuneCountInString(fragment) <= minFragmentRunes {
			continue
		}
		notes = append(notes, Bullet+truncate(fragment, MaxNoteRunes))
		if len(notes) == MaxNotes {
			break
		}
	}
	return notes
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + Ellipsis
}
