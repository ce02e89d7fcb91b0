package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gmllt/kban/internal/board"
)

// warningHeader carries a non-blocking notice, such as a change that was
// applied but could not be saved.
const warningHeader = "X-Kban-Warning"

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Internal server error preparing response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// decodeJSON reads a request body into dst and reports a client-facing
// message when the body is unusable.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	err := dec.Decode(dst)
	if err == nil {
		return nil
	}
	var syntaxError *json.SyntaxError
	var unmarshalTypeError *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxError):
		return fmt.Errorf("request body contains badly-formed JSON (at position %d)", syntaxError.Offset)
	case errors.Is(err, io.ErrUnexpectedEOF):
		return errors.New("request body contains badly-formed JSON")
	case errors.As(err, &unmarshalTypeError):
		return fmt.Errorf("request body contains an invalid value for the %q field (at position %d)", unmarshalTypeError.Field, unmarshalTypeError.Offset)
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		return fmt.Errorf("request body contains unknown field %s", strings.TrimPrefix(err.Error(), "json: unknown field "))
	case errors.Is(err, io.EOF):
		return errors.New("request body must not be empty")
	}
	return err
}

// respondMutation writes the outcome of a store mutation. A persistence
// failure still answers with the success payload and sets warningHeader, since
// the change is applied in memory.
func (s *Server) respondMutation(w http.ResponseWriter, err error, code int, payload any) {
	var perr *board.PersistenceError
	switch {
	case err == nil:
	case errors.As(err, &perr):
		w.Header().Set(warningHeader, "change applied but not saved")
	case errors.Is(err, board.ErrValidation):
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, board.ErrNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
		return
	default:
		s.logger.Error("board operation failed", "error", err)
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if payload == nil {
		w.WriteHeader(code)
		return
	}
	respondWithJSON(w, code, payload)
}
