package storage

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gmllt/kban/internal/board"
)

// listRecord and cardRecord are the stored shape of a board. Optional fields
// are written as empty strings and labels as a comma-joined string.
type listRecord struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type cardRecord struct {
	ListID      string `json:"listId"`
	CardID      string `json:"cardId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate"`
	Priority    string `json:"priority"`
	Assignee    string `json:"assignee"`
	Labels      string `json:"labels"`
}

type document struct {
	Lists []listRecord `json:"lists"`
	Cards []cardRecord `json:"cards"`
}

// Encode serializes a snapshot. Cards are written in snapshot order, which is
// list order then position.
func Encode(snap board.Snapshot) ([]byte, error) {
	doc := document{
		Lists: make([]listRecord, 0, len(snap.Lists)),
		Cards: make([]cardRecord, 0, len(snap.Cards)),
	}
	for _, l := range snap.Lists {
		doc.Lists = append(doc.Lists, listRecord{ID: l.ID, Title: l.Title})
	}
	for _, c := range snap.Cards {
		labels := make([]string, len(c.Labels))
		for i, l := range c.Labels {
			labels[i] = string(l)
		}
		doc.Cards = append(doc.Cards, cardRecord{
			ListID:      c.ListID,
			CardID:      c.ID,
			Title:       c.Title,
			Description: c.Description,
			DueDate:     c.DueDate,
			Priority:    string(c.Priority),
			Assignee:    c.Assignee,
			Labels:      strings.Join(labels, ","),
		})
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("error encoding board json: %w", err)
	}
	return data, nil
}

// Decode parses data written by Encode. Undecodable input is reported as
// board.ErrCorrupt. Each list's CardIDs follow the order of the card records.
func Decode(data []byte) (board.Snapshot, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return board.Snapshot{}, fmt.Errorf("%w: %v", board.ErrCorrupt, err)
	}
	snap := board.Snapshot{
		Lists: make([]board.List, 0, len(doc.Lists)),
		Cards: make([]board.Card, 0, len(doc.Cards)),
	}
	index := make(map[string]int, len(doc.Lists))
	for _, l := range doc.Lists {
		index[l.ID] = len(snap.Lists)
		snap.Lists = append(snap.Lists, board.List{ID: l.ID, Title: l.Title, CardIDs: []string{}})
	}
	for _, r := range doc.Cards {
		labels := []board.Label{}
		for _, tok := range strings.Split(r.Labels, ",") {
			if tok = strings.TrimSpace(tok); tok != "" {
				labels = append(labels, board.Label(tok))
			}
		}
		snap.Cards = append(snap.Cards, board.Card{
			ID:          r.CardID,
			ListID:      r.ListID,
			Title:       r.Title,
			Description: r.Description,
			DueDate:     r.DueDate,
			Priority:    board.Priority(r.Priority),
			Assignee:    r.Assignee,
			Labels:      labels,
		})
		if i, ok := index[r.ListID]; ok {
			snap.Lists[i].CardIDs = append(snap.Lists[i].CardIDs, r.CardID)
		}
	}
	return snap, nil
}
