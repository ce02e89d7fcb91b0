package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/gmllt/kban/internal/board"
	"github.com/gmllt/kban/internal/config"
)

type failPersister struct{}

func (failPersister) Save(board.Snapshot) error {
	return errors.New("disk full")
}

func (failPersister) Load() (board.Snapshot, bool, error) {
	return board.Snapshot{}, false, nil
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestServer returns a server over a memory-only board with lists
// "To Do" (1) and "Done" (2).
func newTestServer(t *testing.T) (*Server, *board.Store) {
	t.Helper()
	store := board.New(nil, quietLogger())
	for _, title := range []string{"To Do", "Done"} {
		if _, err := store.AddList(title); err != nil {
			t.Fatalf("AddList: %v", err)
		}
	}
	cfg := config.Default().Server
	cfg.StaticDir = ""
	return New(store, nil, cfg, quietLogger()), store
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if r != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s.Routes(), "GET", "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	s.health = pingFunc(func(context.Context) error { return errors.New("bucket gone") })
	rec = do(t, s.Routes(), "GET", "/health", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	got := decode[map[string]string](t, rec)
	if got["status"] != "down" || got["error"] != "bucket gone" {
		t.Errorf("body = %v", got)
	}
}

func TestCardLifecycle(t *testing.T) {
	s, store := newTestServer(t)
	h := s.Routes()

	rec := do(t, h, "POST", "/api/lists/1/cards", map[string]any{
		"title":    "  Write docs ",
		"priority": "high",
		"labels":   []string{"urgent", "bug", "urgent"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add card status = %d: %s", rec.Code, rec.Body)
	}
	created := decode[board.Card](t, rec)
	want := board.Card{
		ID:       "1",
		ListID:   "1",
		Title:    "Write docs",
		Priority: board.PriorityHigh,
		Labels:   []board.Label{board.LabelBug, board.LabelUrgent},
	}
	if diff := cmp.Diff(want, created); diff != "" {
		t.Errorf("created card mismatch (-want +got):\n%s", diff)
	}

	rec = do(t, h, "PUT", "/api/cards/1", map[string]any{"title": "Write more docs", "assignee": "sam"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body)
	}
	updated := decode[board.Card](t, rec)
	if updated.Title != "Write more docs" || updated.Priority != board.PriorityMedium || len(updated.Labels) != 0 {
		t.Errorf("updated card = %+v", updated)
	}

	rec = do(t, h, "POST", "/api/cards/1/move", map[string]any{"listId": "2", "index": 99})
	if rec.Code != http.StatusOK {
		t.Fatalf("move status = %d: %s", rec.Code, rec.Body)
	}
	if diff := cmp.Diff(listOrder{ListID: "2", CardIDs: []string{"1"}}, decode[listOrder](t, rec)); diff != "" {
		t.Errorf("move response mismatch (-want +got):\n%s", diff)
	}

	rec = do(t, h, "DELETE", "/api/cards/1", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if _, ok := store.Card("1"); ok {
		t.Error("card 1 still present after delete")
	}
}

func TestListRoutes(t *testing.T) {
	s, store := newTestServer(t)
	h := s.Routes()

	rec := do(t, h, "POST", "/api/lists", map[string]string{"title": "   "})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add list status = %d", rec.Code)
	}
	id := decode[map[string]string](t, rec)["id"]
	if id != "3" {
		t.Fatalf("new list id = %q, want 3", id)
	}

	if rec := do(t, h, "PUT", "/api/lists/3", map[string]string{"title": "Review"}); rec.Code != http.StatusNoContent {
		t.Fatalf("rename status = %d", rec.Code)
	}
	// Renaming an unknown list is a no-op.
	if rec := do(t, h, "PUT", "/api/lists/42", map[string]string{"title": "x"}); rec.Code != http.StatusNoContent {
		t.Fatalf("rename unknown status = %d", rec.Code)
	}

	if _, err := store.AddCard("3", board.CardFields{Title: "a"}); err != nil {
		t.Fatal(err)
	}
	if rec := do(t, h, "DELETE", "/api/lists/3", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	snap := store.Snapshot()
	var titles []string
	for _, l := range snap.Lists {
		titles = append(titles, l.Title)
	}
	if diff := cmp.Diff([]string{"To Do", "Done"}, titles); diff != "" {
		t.Errorf("lists mismatch (-want +got):\n%s", diff)
	}
	if len(snap.Cards) != 0 {
		t.Errorf("cards = %v, want cascade delete", snap.Cards)
	}
}

func TestErrorMapping(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Routes()

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		code   int
	}{
		{"empty title", "POST", "/api/lists/1/cards", map[string]string{"title": "  "}, http.StatusBadRequest},
		{"bad priority", "POST", "/api/lists/1/cards", map[string]string{"title": "a", "priority": "critical"}, http.StatusBadRequest},
		{"bad label", "POST", "/api/lists/1/cards", map[string]any{"title": "a", "labels": []string{"chore"}}, http.StatusBadRequest},
		{"unknown field", "POST", "/api/lists/1/cards", map[string]string{"title": "a", "colour": "red"}, http.StatusBadRequest},
		{"malformed json", "POST", "/api/lists", `{"title":`, http.StatusBadRequest},
		{"empty body", "POST", "/api/lists", "", http.StatusBadRequest},
		{"unknown list", "POST", "/api/lists/9/cards", map[string]string{"title": "a"}, http.StatusNotFound},
		{"unknown card update", "PUT", "/api/cards/9", map[string]string{"title": "a"}, http.StatusNotFound},
		{"unknown card delete", "DELETE", "/api/cards/9", nil, http.StatusNotFound},
		{"unknown list delete", "DELETE", "/api/lists/9", nil, http.StatusNotFound},
		{"move unknown card", "POST", "/api/cards/9/move", map[string]any{"listId": "1", "index": 0}, http.StatusNotFound},
		{"unknown route", "GET", "/api/nope", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.body)
			if rec.Code != tt.code {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.code, rec.Body)
			}
		})
	}
}

func TestPersistenceFailureIsAWarning(t *testing.T) {
	store := board.New(failPersister{}, quietLogger())
	s := New(store, nil, config.Default().Server, quietLogger())
	h := s.Routes()

	rec := do(t, h, "POST", "/api/lists", map[string]string{"title": "Ideas"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if rec.Header().Get(warningHeader) == "" {
		t.Errorf("missing %s header", warningHeader)
	}
	if got := len(store.Snapshot().Lists); got != 1 {
		t.Errorf("lists = %d, want the change applied in memory", got)
	}
}

func TestFilterCards(t *testing.T) {
	s, store := newTestServer(t)
	for _, f := range []board.CardFields{
		{Title: "Fix login", Priority: board.PriorityHigh},
		{Title: "Write docs", Description: "login flow", Priority: board.PriorityLow},
		{Title: "Refactor", Priority: board.PriorityHigh},
	} {
		if _, err := store.AddCard("1", f); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"1", "2", "3"}},
		{"?q=LOGIN", []string{"1", "2"}},
		{"?q=login&priority=high", []string{"1"}},
		{"?priority=all", []string{"1", "2", "3"}},
		{"?q=nothing", []string{}},
	}
	for _, tt := range tests {
		rec := do(t, s.Routes(), "GET", "/api/cards"+tt.query, nil)
		got := decode[map[string][]string](t, rec)["visible"]
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("GET /api/cards%s mismatch (-want +got):\n%s", tt.query, diff)
		}
	}
}

func TestClearBoard(t *testing.T) {
	s, store := newTestServer(t)
	if _, err := store.AddCard("1", board.CardFields{Title: "a"}); err != nil {
		t.Fatal(err)
	}
	if rec := do(t, s.Routes(), "DELETE", "/api/cards", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	snap := store.Snapshot()
	if len(snap.Cards) != 0 || len(snap.Lists) != 2 {
		t.Errorf("after clear: %d lists, %d cards", len(snap.Lists), len(snap.Cards))
	}
}

func TestDragFlow(t *testing.T) {
	s, store := newTestServer(t)
	h := s.Routes()
	for _, title := range []string{"a", "b", "c"} {
		if _, err := store.AddCard("1", board.CardFields{Title: title}); err != nil {
			t.Fatal(err)
		}
	}
	boxes := map[string]board.Box{
		"1": {Top: 0, Height: 40},
		"2": {Top: 50, Height: 40},
		"3": {Top: 100, Height: 40},
	}

	rec := do(t, h, "POST", "/api/drags", map[string]string{"cardId": "3"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("start status = %d: %s", rec.Code, rec.Body)
	}
	drag := decode[map[string]string](t, rec)["id"]

	rec = do(t, h, "POST", "/api/drags/"+drag+"/over", map[string]any{"listId": "1", "pointerY": 10, "boxes": boxes})
	if rec.Code != http.StatusOK {
		t.Fatalf("over status = %d: %s", rec.Code, rec.Body)
	}
	if got := decode[map[string]any](t, rec)["index"]; got != float64(0) {
		t.Errorf("over index = %v, want 0", got)
	}
	if diff := cmp.Diff([]string{"1", "2", "3"}, mustIDs(t, store, "1")); diff != "" {
		t.Errorf("over must not move the card (-want +got):\n%s", diff)
	}

	rec = do(t, h, "POST", "/api/drags/"+drag+"/drop", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("drop status = %d: %s", rec.Code, rec.Body)
	}
	if diff := cmp.Diff(listOrder{ListID: "1", CardIDs: []string{"3", "1", "2"}}, decode[listOrder](t, rec)); diff != "" {
		t.Errorf("drop response mismatch (-want +got):\n%s", diff)
	}
	if n := s.drags.count(); n != 0 {
		t.Errorf("sessions after drop = %d, want 0", n)
	}
	if rec := do(t, h, "POST", "/api/drags/"+drag+"/drop", nil); rec.Code != http.StatusNotFound {
		t.Errorf("second drop status = %d, want 404", rec.Code)
	}
}

func TestDragEndRollsBack(t *testing.T) {
	s, store := newTestServer(t)
	h := s.Routes()
	for _, title := range []string{"a", "b"} {
		if _, err := store.AddCard("1", board.CardFields{Title: title}); err != nil {
			t.Fatal(err)
		}
	}

	rec := do(t, h, "POST", "/api/drags", map[string]string{"cardId": "1"})
	drag := decode[map[string]string](t, rec)["id"]
	rec = do(t, h, "POST", "/api/drags/"+drag+"/over", map[string]any{"listId": "2", "pointerY": 500, "boxes": map[string]board.Box{}})
	if rec.Code != http.StatusOK {
		t.Fatalf("over status = %d: %s", rec.Code, rec.Body)
	}
	if rec := do(t, h, "DELETE", "/api/drags/"+drag, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("end status = %d", rec.Code)
	}
	if diff := cmp.Diff([]string{"1", "2"}, mustIDs(t, store, "1")); diff != "" {
		t.Errorf("card moved without a drop (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{}, mustIDs(t, store, "2")); diff != "" {
		t.Errorf("target list changed (-want +got):\n%s", diff)
	}
}

func TestDragErrors(t *testing.T) {
	s, store := newTestServer(t)
	h := s.Routes()
	if _, err := store.AddCard("1", board.CardFields{Title: "a"}); err != nil {
		t.Fatal(err)
	}

	if rec := do(t, h, "POST", "/api/drags", map[string]string{"cardId": "9"}); rec.Code != http.StatusNotFound {
		t.Errorf("start unknown card status = %d, want 404", rec.Code)
	}
	if rec := do(t, h, "POST", "/api/drags/nope/over", map[string]any{"listId": "1", "pointerY": 0}); rec.Code != http.StatusNotFound {
		t.Errorf("over unknown drag status = %d, want 404", rec.Code)
	}

	rec := do(t, h, "POST", "/api/drags", map[string]string{"cardId": "1"})
	drag := decode[map[string]string](t, rec)["id"]
	if rec := do(t, h, "POST", "/api/drags/"+drag+"/over", map[string]any{"listId": "9", "pointerY": 0}); rec.Code != http.StatusNotFound {
		t.Errorf("over unknown list status = %d, want 404", rec.Code)
	}
	// The card vanished mid-gesture: the drop fails and the gesture is gone.
	rec = do(t, h, "POST", "/api/drags/"+drag+"/over", map[string]any{"listId": "2", "pointerY": 0})
	if rec.Code != http.StatusOK {
		t.Fatalf("over status = %d", rec.Code)
	}
	if err := store.DeleteCard("1"); err != nil {
		t.Fatal(err)
	}
	if rec := do(t, h, "POST", "/api/drags/"+drag+"/drop", nil); rec.Code != http.StatusNotFound {
		t.Errorf("drop deleted card status = %d, want 404", rec.Code)
	}
	if n := s.drags.count(); n != 0 {
		t.Errorf("sessions = %d, want 0", n)
	}
}

func TestDragExpiry(t *testing.T) {
	s, store := newTestServer(t)
	if _, err := store.AddCard("1", board.CardFields{Title: "a"}); err != nil {
		t.Fatal(err)
	}
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.drags.now = func() time.Time { return now }

	old, err := s.drags.start("1")
	if err != nil {
		t.Fatal(err)
	}
	now = now.Add(dragTTL + time.Second)
	if _, err := s.drags.start("1"); err != nil {
		t.Fatal(err)
	}
	if n := s.drags.count(); n != 1 {
		t.Errorf("sessions = %d, want the stale one expired", n)
	}
	if s.drags.with(old, func(*board.DragSession) {}) {
		t.Error("expired gesture still reachable")
	}
}

func TestPageEscapesContent(t *testing.T) {
	s, store := newTestServer(t)
	if _, err := store.AddCard("1", board.CardFields{Title: "<script>alert(1)</script>"}); err != nil {
		t.Fatal(err)
	}
	rec := do(t, s.Routes(), "GET", "/?q=script", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "<script>alert") {
		t.Error("card title rendered as markup")
	}
	if !strings.Contains(body, "&lt;script&gt;") {
		t.Error("escaped card title missing from page")
	}
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest("OPTIONS", "/api/lists", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Errorf("preflight missing Access-Control-Allow-Origin, status %d", rec.Code)
	}
}

func mustIDs(t *testing.T, store *board.Store, listID string) []string {
	t.Helper()
	ids, ok := store.CardIDs(listID)
	if !ok {
		t.Fatalf("list %s not found", listID)
	}
	return ids
}
