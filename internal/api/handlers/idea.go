package handlers

import (
	"net/http"

	"github.com/dom/tekky-backend/internal/service"
)

type IdeaHandler struct {
	ideaService *service.IdeaService
}

func NewIdeaHandler(ideaService *service.IdeaService) *IdeaHandler {
	return &IdeaHandler{ideaService: ideaService}
}

type CreateIdeaRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	TechStacks  []string `json:"techStacks"`
	LookingFor  []string `json:"lookingFor"`
}

func (h *IdeaHandler) List(w http.ResponseWriter, r *http.Request) {
	ideas, err := h.ideaService.List(r.Context())
	if err != nil {
		writeError(w, "idea.List", err)
		return
	}

	writeJSON(w, http.StatusOK, ideas)
}

func (h *IdeaHandler) Get(w http.ResponseWriter, r *http.Request) {
	ideaID, ok := pathID(w, r, "id", "Idea not found")
	if !ok {
		return
	}

	idea, err := h.ideaService.Get(r.Context(), ideaID)
	if err != nil {
		writeError(w, "idea.Get", err)
		return
	}

	writeJSON(w, http.StatusOK, idea)
}

func (h *IdeaHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CreateIdeaRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	idea, err := h.ideaService.Create(r.Context(), userID, service.IdeaInput{
		Title:       req.Title,
		Description: req.Description,
		TechStacks:  req.TechStacks,
		LookingFor:  req.LookingFor,
	})
	if err != nil {
		writeError(w, "idea.Create", err)
		return
	}

	writeJSON(w, http.StatusCreated, idea)
}

func (h *IdeaHandler) SendInterest(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	ideaID, ok := pathID(w, r, "id", "Idea not found")
	if !ok {
		return
	}

	interest, err := h.ideaService.SendInterest(r.Context(), ideaID, userID)
	if err != nil {
		writeError(w, "idea.SendInterest", err)
		return
	}

	writeJSON(w, http.StatusCreated, interest)
}
