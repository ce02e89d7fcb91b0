package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gmllt/kban/internal/board"
)

// dragTTL bounds how long an abandoned gesture is kept. An expired gesture is
// ended without a drop, so its card stays where it was.
const dragTTL = 10 * time.Minute

type dragEntry struct {
	session *board.DragSession
	touched time.Time
}

// dragRegistry holds the drag gestures in progress, one per client gesture.
type dragRegistry struct {
	mu       sync.Mutex
	store    *board.Store
	sessions map[string]*dragEntry
	now      func() time.Time
}

func newDragRegistry(store *board.Store) *dragRegistry {
	return &dragRegistry{
		store:    store,
		sessions: make(map[string]*dragEntry),
		now:      time.Now,
	}
}

// start begins a gesture on cardID and returns its id.
func (r *dragRegistry) start(cardID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expireLocked()

	d := board.NewDragSession(r.store)
	if err := d.Start(cardID); err != nil {
		return "", err
	}
	id := uuid.NewString()
	r.sessions[id] = &dragEntry{session: d, touched: r.now()}
	return id, nil
}

// with runs fn on the gesture id while holding the registry lock. It reports
// false when the gesture is unknown.
func (r *dragRegistry) with(id string, fn func(d *board.DragSession)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return false
	}
	e.touched = r.now()
	fn(e.session)
	if e.session.State() == board.DragIdle {
		delete(r.sessions, id)
	}
	return true
}

func (r *dragRegistry) expireLocked() {
	cutoff := r.now().Add(-dragTTL)
	for id, e := range r.sessions {
		if e.touched.Before(cutoff) {
			e.session.End()
			delete(r.sessions, id)
		}
	}
}

func (r *dragRegistry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
