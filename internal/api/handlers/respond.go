package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/dom/tekky-backend/internal/api/middleware"
	"github.com/dom/tekky-backend/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR [handlers.writeJSON] failed to encode response: %v", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, MessageResponse{Message: message})
}

// writeError is the only place where service errors become HTTP responses.
// op names the handler for the log line of unexpected errors.
func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeMessage(w, http.StatusBadRequest, "Invalid credentials")
	case errors.Is(err, domain.ErrInvalidToken):
		log.Printf("WARN [%s] token rejected: %v", op, err)
		writeMessage(w, http.StatusUnauthorized, "Invalid token")
	case errors.Is(err, domain.ErrUnauthorized):
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, domain.ErrValidation):
		writeMessage(w, http.StatusBadRequest, domain.Message(err, "Invalid request"))
	case errors.Is(err, domain.ErrConflict):
		writeMessage(w, http.StatusBadRequest, domain.Message(err, "Already exists"))
	case errors.Is(err, domain.ErrNotFound):
		writeMessage(w, http.StatusNotFound, domain.Message(err, "Not found"))
	case errors.Is(err, domain.ErrForbidden):
		writeMessage(w, http.StatusForbidden, domain.Message(err, "Forbidden"))
	default:
		log.Printf("ERROR [%s] %v", op, err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// pathID parses the named URL parameter. A malformed id cannot name an
// existing resource, so it is answered with notFound.
func pathID(w http.ResponseWriter, r *http.Request, name, notFound string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeMessage(w, http.StatusNotFound, notFound)
		return uuid.Nil, false
	}
	return id, true
}

// requireUser returns the authenticated caller. Routes using it sit behind
// middleware.Auth, so a miss means the router is misconfigured.
func requireUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return uuid.Nil, false
	}
	return userID, true
}

// viewer returns the caller's id when the request carried a valid token.
func viewer(r *http.Request) *uuid.UUID {
	if userID, ok := middleware.GetUserID(r.Context()); ok {
		return &userID
	}
	return nil
}

// pageFilter reads limit and cursor query parameters. An unparsable limit
// falls back to the default page size.
func pageFilter(w http.ResponseWriter, r *http.Request) (domain.PostFilter, bool) {
	var filter domain.PostFilter

	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			filter.Limit = limit
		}
	}

	if raw := r.URL.Query().Get("cursor"); raw != "" {
		cursor, err := uuid.Parse(raw)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid cursor")
			return filter, false
		}
		filter.Cursor = &cursor
	}

	return filter, true
}
