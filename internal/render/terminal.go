package render

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"

	"github.com/gmllt/kban/internal/board"
)

var (
	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	listTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	cardTitleStyle = lipgloss.NewStyle().Bold(true)
	metaStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	priorityStyles = map[board.Priority]lipgloss.Style{
		board.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		board.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		board.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

// sanitize drops control characters so stored text cannot emit terminal
// escape sequences.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// Terminal renders the board as side-by-side columns of the given width.
// Cards hidden by f are left out.
func Terminal(snap board.Snapshot, f board.Filter, columnWidth int) string {
	if columnWidth < 12 {
		columnWidth = 12
	}
	style := columnStyle.Width(columnWidth)
	cols := make([]string, 0, len(snap.Lists))
	for _, lv := range columns(snap, f) {
		var b strings.Builder
		fmt.Fprintf(&b, "%s (%d)", listTitleStyle.Render(sanitize(lv.Title)), len(lv.Cards))
		for _, c := range lv.Cards {
			if !c.Visible {
				continue
			}
			b.WriteString("\n\n")
			b.WriteString(cardLine(c.Card))
		}
		cols = append(cols, style.Render(b.String()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func cardLine(c board.Card) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%s %s", c.ID, cardTitleStyle.Render(sanitize(c.Title)))
	b.WriteString("\n")
	b.WriteString(priorityStyles[c.Priority].Render(strings.ToUpper(string(c.Priority))))
	for _, l := range c.Labels {
		fmt.Fprintf(&b, " %s%s", labelIcons[l], l)
	}
	var meta []string
	if c.DueDate != "" {
		meta = append(meta, "due "+sanitize(c.DueDate))
	}
	if c.Assignee != "" {
		meta = append(meta, "@"+sanitize(c.Assignee))
	}
	if len(meta) > 0 {
		b.WriteString("\n")
		b.WriteString(metaStyle.Render(strings.Join(meta, " ")))
	}
	return b.String()
}
