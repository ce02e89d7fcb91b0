package board

import (
	"fmt"
	"slices"
	"strings"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Label string

const (
	LabelBug     Label = "bug"
	LabelFeature Label = "feature"
	LabelUrgent  Label = "urgent"
)

// labelOrder is the canonical order labels are stored and rendered in.
var labelOrder = []Label{LabelBug, LabelFeature, LabelUrgent}

func (l Label) Valid() bool {
	return slices.Contains(labelOrder, l)
}

// Card is a work item owned by exactly one list.
type Card struct {
	ID          string   `json:"id"`
	ListID      string   `json:"listId"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	DueDate     string   `json:"dueDate"`
	Priority    Priority `json:"priority"`
	Assignee    string   `json:"assignee"`
	Labels      []Label  `json:"labels"`
}

// List is an ordered column of cards. CardIDs is the display order.
type List struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	CardIDs []string `json:"cardIds"`
}

// Snapshot is the full exportable state of a board. Cards are ordered list by
// list, then by position inside their list.
type Snapshot struct {
	Lists []List `json:"lists"`
	Cards []Card `json:"cards"`
}

// CardFields are the mutable fields of a card, as submitted by the card form.
type CardFields struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	DueDate     string   `json:"dueDate"`
	Priority    Priority `json:"priority"`
	Assignee    string   `json:"assignee"`
	Labels      []Label  `json:"labels"`
}

// normalize trims text fields, applies the default priority and turns labels
// into a deduplicated set in canonical order.
func (f CardFields) normalize() (CardFields, error) {
	f.Title = strings.TrimSpace(f.Title)
	f.Description = strings.TrimSpace(f.Description)
	f.DueDate = strings.TrimSpace(f.DueDate)
	f.Assignee = strings.TrimSpace(f.Assignee)
	if f.Title == "" {
		return f, fmt.Errorf("%w: card title is required", ErrValidation)
	}
	if f.Priority == "" {
		f.Priority = PriorityMedium
	}
	if !f.Priority.Valid() {
		return f, fmt.Errorf("%w: unknown priority %q", ErrValidation, f.Priority)
	}
	labels, err := NormalizeLabels(f.Labels)
	if err != nil {
		return f, err
	}
	f.Labels = labels
	return f, nil
}

// NormalizeLabels validates labels and returns them as a set in canonical order.
func NormalizeLabels(in []Label) ([]Label, error) {
	seen := make(map[Label]bool, len(in))
	for _, l := range in {
		if !l.Valid() {
			return nil, fmt.Errorf("%w: unknown label %q", ErrValidation, l)
		}
		seen[l] = true
	}
	out := make([]Label, 0, len(seen))
	for _, l := range labelOrder {
		if seen[l] {
			out = append(out, l)
		}
	}
	return out, nil
}

func (c *Card) apply(f CardFields) {
	c.Title = f.Title
	c.Description = f.Description
	c.DueDate = f.DueDate
	c.Priority = f.Priority
	c.Assignee = f.Assignee
	c.Labels = f.Labels
}

// Fields returns the mutable fields of c.
func (c Card) Fields() CardFields {
	return CardFields{
		Title:       c.Title,
		Description: c.Description,
		DueDate:     c.DueDate,
		Priority:    c.Priority,
		Assignee:    c.Assignee,
		Labels:      slices.Clone(c.Labels),
	}
}

func (c Card) clone() Card {
	c.Labels = slices.Clone(c.Labels)
	if c.Labels == nil {
		c.Labels = []Label{}
	}
	return c
}
