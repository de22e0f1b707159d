package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ViniZap4/paper-server/domain"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	doneStyle   = lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("241"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

// TodoLines renders the list for a terminal, one entry per line.
func TodoLines(p Panel) string {
	var b strings.Builder
	if p.Warning != "" {
		b.WriteString(warnStyle.Render("! "+p.Warning) + "\n")
	}
	if len(p.Items) == 0 {
		b.WriteString(dimStyle.Render("No todos.") + "\n")
		return b.String()
	}

	width := len(fmt.Sprint(len(p.Items) - 1))
	for _, it := range p.Items {
		box, text := "[ ]", it.Text
		if it.Done {
			box, text = "[x]", doneStyle.Render(it.Text)
		}
		fmt.Fprintf(&b, "%s %s %s  %s\n",
			dimStyle.Render(fmt.Sprintf("%*d", width, it.Index)),
			box,
			text,
			dimStyle.Render(shortID(it.ID)))
	}
	return b.String()
}

// NoteLines renders a note listing for a terminal.
func NoteLines(dir string, notes []domain.Note) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(dir) + "\n")
	if len(notes) == 0 {
		b.WriteString(dimStyle.Render("No notes.") + "\n")
		return b.String()
	}
	for _, n := range notes {
		fmt.Fprintf(&b, "  %s  %s\n", n.Name,
			dimStyle.Render(fmt.Sprintf("%d B, %s", n.Size, n.ModTime.Format("2006-01-02 15:04"))))
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
