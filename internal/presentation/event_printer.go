package presentation

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/leibooks/leibooks/internal/domain/library"
)

// EventPrinter writes one styled line per library event, for the watch command.
type EventPrinter struct {
	w      io.Writer
	now    func() time.Time
	time   lipgloss.Style
	title  lipgloss.Style
	styles map[library.Kind]lipgloss.Style
}

// NewEventPrinter creates a printer whose colors match what w supports.
// Writers that are not terminals get plain text.
func NewEventPrinter(w io.Writer) *EventPrinter {
	r := lipgloss.NewRenderer(w)
	return &EventPrinter{
		w:     w,
		now:   time.Now,
		time:  r.NewStyle().Faint(true),
		title: r.NewStyle().Bold(true),
		styles: map[library.Kind]lipgloss.Style{
			library.Added:   r.NewStyle().Foreground(lipgloss.Color("#10B981")),
			library.Removed: r.NewStyle().Foreground(lipgloss.Color("#EF4444")),
			library.Updated: r.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
		},
	}
}

// Format renders e without a trailing newline, e.g.
// "15:04:05 ADDED   Dune (Frank Herbert, 1965)".
func (p *EventPrinter) Format(e library.Event) string {
	style, ok := p.styles[e.Kind]
	if !ok {
		style = lipgloss.NewStyle()
	}
	label := style.Render(fmt.Sprintf("%-7s", e.Kind.String()))
	return fmt.Sprintf("%s %s %s", p.time.Render(p.now().Format(time.TimeOnly)), label, p.title.Render(describe(e.Document)))
}

// Print writes the formatted event followed by a newline.
func (p *EventPrinter) Print(e library.Event) error {
	_, err := fmt.Fprintln(p.w, p.Format(e))
	return err
}

func describe(doc library.Document) string {
	if doc == nil {
		return ""
	}
	if s, ok := doc.(fmt.Stringer); ok {
		return s.String()
	}
	return doc.Title()
}
