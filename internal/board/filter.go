package board

import "strings"

// PriorityAll disables priority filtering.
const PriorityAll = "all"

// Filter is a read-only projection of a snapshot: a card is visible when its
// title or description contains Query (case-insensitive) and its priority
// matches Priority.
type Filter struct {
	Query    string
	Priority string
}

func (f Filter) Match(c Card) bool {
	if f.Priority != "" && f.Priority != PriorityAll && string(c.Priority) != f.Priority {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.Title), q) ||
		strings.Contains(strings.ToLower(c.Description), q)
}

// Visible returns the ids of the matching cards.
func (f Filter) Visible(snap Snapshot) map[string]bool {
	out := make(map[string]bool, len(snap.Cards))
	for _, c := range snap.Cards {
		if f.Match(c) {
			out[c.ID] = true
		}
	}
	return out
}
