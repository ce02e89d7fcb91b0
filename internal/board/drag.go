package board

import (
	"errors"
	"fmt"
	"slices"
)

var (
	ErrNotDragging = errors.New("no drag in progress")
	ErrDragging    = errors.New("drag already in progress")
)

type DragState int

const (
	DragIdle DragState = iota
	DragDragging
)

func (s DragState) String() string {
	if s == DragDragging {
		return "dragging"
	}
	return "idle"
}

// DragSession follows one drag gesture:
//
//	idle -> dragging (Start) -> dragging (Over, repeated) -> idle (Drop | End)
//
// Over only computes a preview position; the store is touched once, on Drop.
// End without a drop discards the preview so the card stays where it was.
type DragSession struct {
	store *Store
	state DragState

	cardID      string
	originList  string
	originIndex int

	previewList  string
	previewIndex int
	hasPreview   bool
}

func NewDragSession(s *Store) *DragSession {
	return &DragSession{store: s}
}

func (d *DragSession) State() DragState { return d.state }

func (d *DragSession) CardID() string { return d.cardID }

// Start captures the dragged card.
func (d *DragSession) Start(cardID string) error {
	if d.state == DragDragging {
		return ErrDragging
	}
	c, ok := d.store.Card(cardID)
	if !ok {
		return fmt.Errorf("card %s: %w", cardID, ErrNotFound)
	}
	ids, _ := d.store.CardIDs(c.ListID)
	d.state = DragDragging
	d.cardID = cardID
	d.originList = c.ListID
	d.originIndex = slices.Index(ids, cardID)
	d.hasPreview = false
	return nil
}

// Over recomputes the insertion index in listID for a pointer at pointerY,
// reading card geometry from g, and records it as the preview position.
func (d *DragSession) Over(listID string, pointerY float64, g Geometry) (int, error) {
	if d.state != DragDragging {
		return 0, ErrNotDragging
	}
	ids, ok := d.store.CardIDs(listID)
	if !ok {
		return 0, fmt.Errorf("list %s: %w", listID, ErrNotFound)
	}
	idx := InsertionIndex(Candidates(ids, d.cardID, g), pointerY)
	d.previewList = listID
	d.previewIndex = idx
	d.hasPreview = true
	return idx, nil
}

// Preview returns the position the card would take if dropped now.
func (d *DragSession) Preview() (listID string, index int, ok bool) {
	if !d.hasPreview {
		return d.originList, d.originIndex, false
	}
	return d.previewList, d.previewIndex, true
}

// Drop moves the card to the last preview position and ends the gesture.
// Without any preview the card stays in place.
func (d *DragSession) Drop() error {
	if d.state != DragDragging {
		return ErrNotDragging
	}
	defer d.reset()
	if !d.hasPreview {
		return nil
	}
	return d.store.MoveCard(d.cardID, d.previewList, d.previewIndex)
}

// End finishes a gesture that did not land on a list.
func (d *DragSession) End() {
	d.reset()
}

func (d *DragSession) reset() {
	*d = DragSession{store: d.store}
}
