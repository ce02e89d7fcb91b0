package board

import "strconv"

// IDAllocator hands out list and card identifiers. Identifiers are decimal
// ordinals and are never reused, even after the entity is deleted.
type IDAllocator struct {
	lastList uint64
	lastCard uint64
}

func (a *IDAllocator) NextListID() string {
	a.lastList++
	return strconv.FormatUint(a.lastList, 10)
}

func (a *IDAllocator) NextCardID() string {
	a.lastCard++
	return strconv.FormatUint(a.lastCard, 10)
}

// ObserveList records an existing list id so later ids are greater than it.
// Ids that are not decimal ordinals are ignored.
func (a *IDAllocator) ObserveList(id string) {
	observe(&a.lastList, id)
}

// ObserveCard is the card counterpart of ObserveList.
func (a *IDAllocator) ObserveCard(id string) {
	observe(&a.lastCard, id)
}

func observe(last *uint64, id string) {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return
	}
	if n > *last {
		*last = n
	}
}
