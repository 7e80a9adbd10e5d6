package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/AdamBeresnev/h2h-playoffs/internal/bracket"
	"github.com/AdamBeresnev/h2h-playoffs/internal/scoring"
	"github.com/AdamBeresnev/h2h-playoffs/internal/service"
	"github.com/AdamBeresnev/h2h-playoffs/internal/store"
	"github.com/AdamBeresnev/h2h-playoffs/views"
	"github.com/sirupsen/logrus"
)

type errorBody struct {
	Error string `json:"error"`
}

// WriteJSON replies with v encoded as JSON
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Warn("Failed to write response")
	}
}

func InternalServerError(w http.ResponseWriter, msg string, err error) {
	logrus.WithError(err).Error(msg)
	WriteJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal Server Error"})
}

func BadRequest(w http.ResponseWriter, msg string, err error) {
	clientError(w, http.StatusBadRequest, "bad request", msg, err)
}

func NotFound(w http.ResponseWriter, msg string, err error) {
	clientError(w, http.StatusNotFound, "not found", msg, err)
}

func Conflict(w http.ResponseWriter, msg string, err error) {
	clientError(w, http.StatusConflict, "conflict", msg, err)
}

func clientError(w http.ResponseWriter, status int, kind, msg string, err error) {
	entry := logrus.WithField("message", msg)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Warn(kind)

	body := errorBody{Error: msg}
	if err != nil {
		body.Error = msg + ": " + err.Error()
	}
	WriteJSON(w, status, body)
}

// Error maps a service error onto a response status
func Error(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, store.ErrBracketNotFound):
		NotFound(w, msg, err)
	case errors.Is(err, service.ErrBracketExists),
		errors.Is(err, bracket.ErrSlotAlreadyOccupied),
		errors.Is(err, bracket.ErrRound1Populated):
		Conflict(w, msg, err)
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, bracket.ErrUnsupportedBracketSize),
		errors.Is(err, bracket.ErrNoCompetitors),
		errors.Is(err, bracket.ErrDuplicateCompetitor),
		errors.Is(err, bracket.ErrInvalidSlot),
		errors.Is(err, bracket.ErrInvalidRound1Order),
		errors.Is(err, bracket.ErrMatchNotReady),
		errors.Is(err, bracket.ErrNotInMatch),
		errors.Is(err, scoring.ErrUnknownTiebreaker),
		errors.Is(err, views.ErrInvalidLayoutParameter):
		BadRequest(w, msg, err)
	default:
		// bracket corruption lands here too
		InternalServerError(w, msg, err)
	}
}
