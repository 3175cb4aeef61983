package handlers

import (
	"net/http"

	"github.com/dom/tekky-backend/internal/service"
)

type XPHandler struct {
	xpService *service.XPService
}

func NewXPHandler(xpService *service.XPService) *XPHandler {
	return &XPHandler{xpService: xpService}
}

func (h *XPHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	status, err := h.xpService.Status(r.Context(), userID)
	if err != nil {
		writeError(w, "xp.Me", err)
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// ClaimDaily grants the daily reward if the caller has not had it today.
func (h *XPHandler) ClaimDaily(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	reward, err := h.xpService.ClaimDaily(r.Context(), userID)
	if err != nil {
		writeError(w, "xp.ClaimDaily", err)
		return
	}

	writeJSON(w, http.StatusOK, reward)
}
