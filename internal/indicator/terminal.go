package indicator

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

var (
	stageStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#89B4FA"))
	doneStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A6E3A1"))
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F38BA8"))
)

// Terminal renders a single-line progress bar that is redrawn in place.
type Terminal struct {
	out io.Writer
	bar progress.Model

	mu   sync.Mutex
	open bool
}

// NewTerminal builds a bar of the given width writing to out.
func NewTerminal(out io.Writer, width int) *Terminal {
	if width <= 0 {
		width = 40
	}
	return &Terminal{
		out: out,
		bar: progress.New(progress.WithDefaultGradient(), progress.WithWidth(width)),
	}
}

// Render redraws the bar for label at percent.
func (t *Terminal) Render(label string, percent int, done bool) {
	percent = max(0, min(percent, 100))

	t.mu.Lock()
	defer t.mu.Unlock()

	style := stageStyle
	if done {
		style = doneStyle
	}
	_, _ = fmt.Fprintf(t.out, "\r%s %s", t.bar.ViewAs(float64(percent)/100), style.Render(label))
	t.open = true
	if done {
		_, _ = fmt.Fprintln(t.out)
		t.open = false
	}
}

// Message prints a standalone line, closing any open bar first.
func (t *Terminal) Message(text string, isError bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closeLocked()
	style := stageStyle
	if isError {
		style = errorStyle
	}
	_, _ = fmt.Fprintln(t.out, style.Render(text))
}

// Close terminates an open bar line.
func (t *Terminal) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeLocked()
}

func (t *Terminal) closeLocked() {
	if !t.open {
		return
	}
	_, _ = fmt.Fprintln(t.out)
	t.open = false
}
