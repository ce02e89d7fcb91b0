package board

import "math"

// Box is the vertical extent of a rendered card.
type Box struct {
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

func (b Box) Midpoint() float64 {
	return b.Top + b.Height/2
}

// InsertionIndex returns where a dragged card goes among boxes, which must be
// the target list's cards in display order with the dragged card left out.
//
// The card is inserted before the first box whose midpoint lies below pointerY
// and is closest to it; when no midpoint lies below the pointer the card goes
// to the end. Ties keep the first box. Boxes with NaN geometry never qualify.
func InsertionIndex(boxes []Box, pointerY float64) int {
	idx := len(boxes)
	closest := math.Inf(-1)
	for i, b := range boxes {
		offset := pointerY - b.Midpoint()
		if offset < 0 && offset > closest {
			closest = offset
			idx = i
		}
	}
	return idx
}

// Geometry reports the live on-screen box of a card. It is queried on every
// drag-over event; results must not be cached across events.
type Geometry interface {
	Box(cardID string) (Box, bool)
}

// GeometryMap is a Geometry backed by a map, as sent by a client.
type GeometryMap map[string]Box

func (g GeometryMap) Box(cardID string) (Box, bool) {
	b, ok := g[cardID]
	return b, ok
}

// Candidates returns the boxes of cardIDs in order, skipping exclude. Cards
// without geometry get a NaN box so indexes still line up with cardIDs.
func Candidates(cardIDs []string, exclude string, g Geometry) []Box {
	boxes := make([]Box, 0, len(cardIDs))
	for _, id := range cardIDs {
		if id == exclude {
			continue
		}
		b, ok := g.Box(id)
		if !ok {
			b = Box{Top: math.NaN(), Height: math.NaN()}
		}
		boxes = append(boxes, b)
	}
	return boxes
}
