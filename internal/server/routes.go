package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/mux"

	"github.com/gmllt/kban/internal/board"
	"github.com/gmllt/kban/internal/render"
)

func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.healthHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/board", s.getBoardHandler).Methods("GET")
	api.HandleFunc("/cards", s.filterCardsHandler).Methods("GET")
	api.HandleFunc("/cards", s.clearBoardHandler).Methods("DELETE")
	api.HandleFunc("/lists", s.addListHandler).Methods("POST")
	api.HandleFunc("/lists/{id}", s.renameListHandler).Methods("PUT")
	api.HandleFunc("/lists/{id}", s.deleteListHandler).Methods("DELETE")
	api.HandleFunc("/lists/{id}/cards", s.addCardHandler).Methods("POST")
	api.HandleFunc("/cards/{id}", s.updateCardHandler).Methods("PUT")
	api.HandleFunc("/cards/{id}", s.deleteCardHandler).Methods("DELETE")
	api.HandleFunc("/cards/{id}/move", s.moveCardHandler).Methods("POST")
	api.HandleFunc("/drags", s.dragStartHandler).Methods("POST")
	api.HandleFunc("/drags/{id}/over", s.dragOverHandler).Methods("POST")
	api.HandleFunc("/drags/{id}/drop", s.dragDropHandler).Methods("POST")
	api.HandleFunc("/drags/{id}", s.dragEndHandler).Methods("DELETE")

	r.HandleFunc("/", s.pageHandler).Methods("GET")
	if s.cfg.StaticDir != "" {
		r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.Dir(s.cfg.StaticDir))))
	}

	// Middleware wraps the router rather than using r.Use: mux only runs Use
	// middleware on matched routes, and CORS preflights match none.
	var h http.Handler = r
	h = cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{warningHeader},
		AllowCredentials: false,
		MaxAge:           300,
	})(h)
	h = middleware.Recoverer(h)
	h = requestLogger(s.logger)(h)
	h = middleware.RequestID(h)
	return h
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "up"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.health.Ping(ctx); err != nil {
		s.logger.Warn("storage health check failed", "error", err)
		respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "down", "error": err.Error()})
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "up"})
}

func filterFromQuery(r *http.Request) board.Filter {
	q := r.URL.Query()
	return board.Filter{Query: q.Get("q"), Priority: q.Get("priority")}
}

func (s *Server) pageHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.HTML(w, s.store.Snapshot(), filterFromQuery(r)); err != nil {
		s.logger.Error("render page", "error", err)
	}
}

func (s *Server) getBoardHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, s.store.Snapshot())
}

// filterCardsHandler returns the ids of the cards matching the search and
// priority filter, in board order.
func (s *Server) filterCardsHandler(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	visible := filterFromQuery(r).Visible(snap)
	ids := make([]string, 0, len(visible))
	for _, c := range snap.Cards {
		if visible[c.ID] {
			ids = append(ids, c.ID)
		}
	}
	respondWithJSON(w, http.StatusOK, map[string][]string{"visible": ids})
}

func (s *Server) clearBoardHandler(w http.ResponseWriter, r *http.Request) {
	s.respondMutation(w, s.store.ClearBoard(), http.StatusNoContent, nil)
}

type listRequest struct {
	Title string `json:"title"`
}

func (s *Server) addListHandler(w http.ResponseWriter, r *http.Request) {
	var req listRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, err := s.store.AddList(req.Title)
	s.respondMutation(w, err, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) renameListHandler(w http.ResponseWriter, r *http.Request) {
	var req listRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondMutation(w, s.store.RenameList(mux.Vars(r)["id"], req.Title), http.StatusNoContent, nil)
}

func (s *Server) deleteListHandler(w http.ResponseWriter, r *http.Request) {
	s.respondMutation(w, s.store.DeleteList(mux.Vars(r)["id"]), http.StatusNoContent, nil)
}

func (s *Server) addCardHandler(w http.ResponseWriter, r *http.Request) {
	var fields board.CardFields
	if err := decodeJSON(r, &fields); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, err := s.store.AddCard(mux.Vars(r)["id"], fields)
	if id == "" {
		s.respondMutation(w, err, http.StatusCreated, nil)
		return
	}
	card, _ := s.store.Card(id)
	s.respondMutation(w, err, http.StatusCreated, card)
}

func (s *Server) updateCardHandler(w http.ResponseWriter, r *http.Request) {
	var fields board.CardFields
	if err := decodeJSON(r, &fields); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := mux.Vars(r)["id"]
	err := s.store.UpdateCard(id, fields)
	card, _ := s.store.Card(id)
	s.respondMutation(w, err, http.StatusOK, card)
}

func (s *Server) deleteCardHandler(w http.ResponseWriter, r *http.Request) {
	s.respondMutation(w, s.store.DeleteCard(mux.Vars(r)["id"]), http.StatusNoContent, nil)
}

type moveRequest struct {
	ListID string `json:"listId"`
	Index  int    `json:"index"`
}

type listOrder struct {
	ListID  string   `json:"listId"`
	CardIDs []string `json:"cardIds"`
}

func (s *Server) orderOf(listID string) listOrder {
	ids, _ := s.store.CardIDs(listID)
	return listOrder{ListID: listID, CardIDs: ids}
}

func (s *Server) moveCardHandler(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	err := s.store.MoveCard(mux.Vars(r)["id"], req.ListID, req.Index)
	s.respondMutation(w, err, http.StatusOK, s.orderOf(req.ListID))
}

type dragStartRequest struct {
	CardID string `json:"cardId"`
}

type dragOverRequest struct {
	ListID   string            `json:"listId"`
	PointerY float64           `json:"pointerY"`
	Boxes    board.GeometryMap `json:"boxes"`
}

func (s *Server) dragStartHandler(w http.ResponseWriter, r *http.Request) {
	var req dragStartRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, err := s.drags.start(req.CardID)
	if err != nil {
		s.respondMutation(w, err, http.StatusCreated, nil)
		return
	}
	respondWithJSON(w, http.StatusCreated, map[string]string{"id": id, "cardId": req.CardID})
}

func (s *Server) dragOverHandler(w http.ResponseWriter, r *http.Request) {
	var req dragOverRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	var (
		idx int
		err error
	)
	found := s.drags.with(mux.Vars(r)["id"], func(d *board.DragSession) {
		idx, err = d.Over(req.ListID, req.PointerY, req.Boxes)
	})
	if !found {
		respondWithError(w, http.StatusNotFound, "drag not found")
		return
	}
	if err != nil {
		s.respondDragError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"listId": req.ListID, "index": idx})
}

func (s *Server) dragDropHandler(w http.ResponseWriter, r *http.Request) {
	var (
		listID string
		err    error
	)
	found := s.drags.with(mux.Vars(r)["id"], func(d *board.DragSession) {
		listID, _, _ = d.Preview()
		err = d.Drop()
	})
	if !found {
		respondWithError(w, http.StatusNotFound, "drag not found")
		return
	}
	if errors.Is(err, board.ErrNotDragging) {
		s.respondDragError(w, err)
		return
	}
	s.respondMutation(w, err, http.StatusOK, s.orderOf(listID))
}

func (s *Server) dragEndHandler(w http.ResponseWriter, r *http.Request) {
	found := s.drags.with(mux.Vars(r)["id"], func(d *board.DragSession) {
		d.End()
	})
	if !found {
		respondWithError(w, http.StatusNotFound, "drag not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) respondDragError(w http.ResponseWriter, err error) {
	if errors.Is(err, board.ErrNotDragging) || errors.Is(err, board.ErrDragging) {
		respondWithError(w, http.StatusConflict, err.Error())
		return
	}
	s.respondMutation(w, err, http.StatusOK, nil)
}
