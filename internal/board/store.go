package board

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
)

// DefaultListTitle is used when a list is added without a title.
const DefaultListTitle = "New List"

// DefaultLists are created on first run, when no board has been stored yet.
var DefaultLists = []string{"To Do", "In Progress", "Done"}

// Persister writes and reads whole board snapshots.
type Persister interface {
	Save(snap Snapshot) error
	// Load returns found=false when nothing has been stored yet.
	Load() (snap Snapshot, found bool, err error)
}

// Store is the authoritative board state. Every successful mutation is saved
// through the Persister before the method returns. When saving fails the
// mutation stays applied and a *PersistenceError is returned.
type Store struct {
	mu        sync.Mutex
	ids       IDAllocator
	lists     []*List
	cards     map[string]*Card
	persister Persister
	logger    *slog.Logger
}

// New returns an empty store. A nil persister keeps the board in memory only.
func New(p Persister, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		cards:     make(map[string]*Card),
		persister: p,
		logger:    logger,
	}
}

// Open loads the stored board. When nothing is stored the default lists are
// created and saved. Undecodable content is logged and replaced by an empty
// board in memory; it is only overwritten by the next mutation.
func Open(p Persister, logger *slog.Logger) (*Store, error) {
	s := New(p, logger)
	if p == nil {
		s.seed()
		return s, nil
	}
	snap, found, err := p.Load()
	switch {
	case errors.Is(err, ErrCorrupt):
		s.logger.Warn("stored board is unreadable, starting with an empty board", "error", err)
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("load board: %w", err)
	case !found:
		s.logger.Info("no stored board, creating default lists")
		s.seed()
		if err := s.persist("seed"); err != nil {
			return s, err
		}
		return s, nil
	}
	s.restore(snap)
	s.logger.Info("board loaded", "lists", len(s.lists), "cards", len(s.cards))
	return s, nil
}

// NewFromSnapshot builds a memory-only store holding snap.
func NewFromSnapshot(snap Snapshot) *Store {
	s := New(nil, nil)
	s.restore(snap)
	return s
}

func (s *Store) seed() {
	for _, title := range DefaultLists {
		s.lists = append(s.lists, &List{ID: s.ids.NextListID(), Title: title, CardIDs: []string{}})
	}
}

// restore replaces the state with snap. Lists keep their stored order and
// cards are appended to their list in stored order. Cards whose list is
// missing and repeated ids are dropped; their ids still advance the allocator.
func (s *Store) restore(snap Snapshot) {
	s.lists = nil
	s.cards = make(map[string]*Card)
	for _, l := range snap.Lists {
		s.ids.ObserveList(l.ID)
		if s.findList(l.ID) != nil {
			s.logger.Warn("dropping duplicate list", "list", l.ID)
			continue
		}
		s.lists = append(s.lists, &List{ID: l.ID, Title: l.Title, CardIDs: []string{}})
	}
	for _, c := range snap.Cards {
		s.ids.ObserveCard(c.ID)
		l := s.findList(c.ListID)
		if l == nil {
			s.logger.Warn("dropping card of unknown list", "card", c.ID, "list", c.ListID)
			continue
		}
		if _, dup := s.cards[c.ID]; dup {
			s.logger.Warn("dropping duplicate card", "card", c.ID)
			continue
		}
		card := c.clone()
		if !card.Priority.Valid() {
			card.Priority = PriorityMedium
		}
		card.Labels = slices.DeleteFunc(card.Labels, func(l Label) bool { return !l.Valid() })
		s.cards[card.ID] = &card
		l.CardIDs = append(l.CardIDs, card.ID)
	}
}

func (s *Store) persist(op string) error {
	if s.persister == nil {
		return nil
	}
	if err := s.persister.Save(s.snapshotLocked()); err != nil {
		s.logger.Error("failed to persist board", "op", op, "error", err)
		return &PersistenceError{Op: op, Err: err}
	}
	return nil
}

func (s *Store) findList(id string) *List {
	for _, l := range s.lists {
		if l.ID == id {
			return l
		}
	}
	return nil
}

// AddList appends a new empty list and returns its id.
func (s *Store) AddList(title string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultListTitle
	}
	l := &List{ID: s.ids.NextListID(), Title: title, CardIDs: []string{}}
	s.lists = append(s.lists, l)
	return l.ID, s.persist("add list")
}

// RenameList sets the title of a list. Unknown ids are ignored.
func (s *Store) RenameList(id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.findList(id)
	if l == nil {
		return nil
	}
	l.Title = strings.TrimSpace(title)
	return s.persist("rename list")
}

// DeleteList removes a list together with all of its cards. Confirmation is
// the caller's business.
func (s *Store) DeleteList(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.lists, func(l *List) bool { return l.ID == id })
	if i < 0 {
		return fmt.Errorf("list %s: %w", id, ErrNotFound)
	}
	for _, cid := range s.lists[i].CardIDs {
		delete(s.cards, cid)
	}
	s.lists = slices.Delete(s.lists, i, i+1)
	return s.persist("delete list")
}

// AddCard validates f and appends a new card to the end of a list.
func (s *Store) AddCard(listID string, f CardFields) (string, error) {
	f, err := f.normalize()
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.findList(listID)
	if l == nil {
		return "", fmt.Errorf("list %s: %w", listID, ErrNotFound)
	}
	c := &Card{ID: s.ids.NextCardID(), ListID: listID}
	c.apply(f)
	s.cards[c.ID] = c
	l.CardIDs = append(l.CardIDs, c.ID)
	return c.ID, s.persist("add card")
}

// UpdateCard replaces every mutable field of a card. The id and owning list
// are kept.
func (s *Store) UpdateCard(id string, f CardFields) error {
	f, err := f.normalize()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cards[id]
	if !ok {
		return fmt.Errorf("card %s: %w", id, ErrNotFound)
	}
	c.apply(f)
	return s.persist("update card")
}

// DeleteCard removes a card from its list.
func (s *Store) DeleteCard(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cards[id]
	if !ok {
		return fmt.Errorf("card %s: %w", id, ErrNotFound)
	}
	if l := s.findList(c.ListID); l != nil {
		l.CardIDs = slices.DeleteFunc(l.CardIDs, func(cid string) bool { return cid == id })
	}
	delete(s.cards, id)
	return s.persist("delete card")
}

// MoveCard takes a card out of its list and inserts it into listID at index,
// clamped to [0, len] of the target list without the card.
func (s *Store) MoveCard(id, listID string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cards[id]
	if !ok {
		return fmt.Errorf("card %s: %w", id, ErrNotFound)
	}
	target := s.findList(listID)
	if target == nil {
		return fmt.Errorf("list %s: %w", listID, ErrNotFound)
	}
	if src := s.findList(c.ListID); src != nil {
		src.CardIDs = slices.DeleteFunc(src.CardIDs, func(cid string) bool { return cid == id })
	}
	index = max(0, min(index, len(target.CardIDs)))
	target.CardIDs = slices.Insert(target.CardIDs, index, id)
	c.ListID = listID
	return s.persist("move card")
}

// ClearBoard deletes every card and keeps the lists.
func (s *Store) ClearBoard() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.lists {
		l.CardIDs = []string{}
	}
	clear(s.cards)
	return s.persist("clear board")
}

// Card returns a copy of a card.
func (s *Store) Card(id string) (Card, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cards[id]
	if !ok {
		return Card{}, false
	}
	return c.clone(), true
}

// CardIDs returns the current card order of a list.
func (s *Store) CardIDs(listID string) ([]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.findList(listID)
	if l == nil {
		return nil, false
	}
	return slices.Clone(l.CardIDs), true
}

// Snapshot returns a deep copy of the board.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Lists: make([]List, 0, len(s.lists)),
		Cards: make([]Card, 0, len(s.cards)),
	}
	for _, l := range s.lists {
		snap.Lists = append(snap.Lists, List{ID: l.ID, Title: l.Title, CardIDs: slices.Clone(l.CardIDs)})
		for _, cid := range l.CardIDs {
			snap.Cards = append(snap.Cards, s.cards[cid].clone())
		}
	}
	return snap
}
