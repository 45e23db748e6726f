package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/bowlards/internal/auth"
	"github.com/robalobadob/bowlards/internal/game"
	"github.com/robalobadob/bowlards/internal/store"
)

// envelope is the body shape of every JSON response.
type envelope struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *apiError `json:"error,omitempty"`
	Meta    *pageMeta `json:"meta,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// pageMeta accompanies list responses.
type pageMeta struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

func writeOK(w http.ResponseWriter, data any, meta *pageMeta) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data, Meta: meta})
}

func writeCreated(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusCreated, envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, code, msg string, details any) {
	writeJSON(w, status, envelope{Error: &apiError{Code: code, Message: msg, Details: details}})
}

// writeErr maps domain errors onto status codes and error codes.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	var (
		invalid    *game.InvalidRollError
		unfinished *game.GameNotFinishableError
		corrupt    *game.InvariantViolation
	)
	switch {
	case errors.Is(err, game.ErrGameCompleted):
		writeError(w, http.StatusBadRequest, "GAME_COMPLETED", "Game is already completed", nil)
	case errors.As(err, &invalid):
		writeError(w, http.StatusBadRequest, "INVALID_ROLL", err.Error(), map[string]int{
			"frame": invalid.Frame,
			"roll":  invalid.Roll,
			"pins":  invalid.Pins,
			"max":   invalid.Max,
		})
	case errors.As(err, &unfinished):
		writeError(w, http.StatusConflict, "GAME_NOT_FINISHABLE", err.Error(),
			map[string][]int{"pendingFrames": unfinished.Pending})
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "GAME_NOT_FOUND", "Game not found", nil)
	case errors.Is(err, auth.ErrUsernameTaken):
		writeError(w, http.StatusConflict, "USERNAME_TAKEN", "Username taken", nil)
	case errors.Is(err, auth.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found", nil)
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password", nil)
	case errors.As(err, &corrupt):
		// Stored data that fails validation is a server fault, not a client one.
		log.Error().Err(err).Str("path", r.URL.Path).Msg("corrupt game data")
		writeError(w, http.StatusInternalServerError, "CORRUPT_GAME", "Stored game is invalid", nil)
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
	}
}

// maxBodyBytes bounds request bodies; a full uploaded game is under 2 KiB.
const maxBodyBytes = 8 << 10

// decodeJSON reads the request body into v, writing a 413 when it exceeds
// maxBodyBytes and a 400 when it is not valid JSON.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body too large", nil)
			return false
		}
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid JSON body", nil)
		return false
	}
	return true
}
