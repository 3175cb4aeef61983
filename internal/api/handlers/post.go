package handlers

import (
	"net/http"

	"github.com/dom/tekky-backend/internal/service"
)

type PostHandler struct {
	postService *service.PostService
}

func NewPostHandler(postService *service.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

type CreatePostRequest struct {
	Content string `json:"content"`
}

// Feed returns a page of posts, newest first. Anonymous callers get
// isLiked=false on every post.
func (h *PostHandler) Feed(w http.ResponseWriter, r *http.Request) {
	filter, ok := pageFilter(w, r)
	if !ok {
		return
	}

	page, err := h.postService.Feed(r.Context(), viewer(r), filter)
	if err != nil {
		writeError(w, "post.Feed", err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CreatePostRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	post, err := h.postService.Create(r.Context(), userID, req.Content)
	if err != nil {
		writeError(w, "post.Create", err)
		return
	}

	writeJSON(w, http.StatusCreated, post)
}

func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r, "postId", "Post not found")
	if !ok {
		return
	}

	post, err := h.postService.Get(r.Context(), postID, viewer(r))
	if err != nil {
		writeError(w, "post.Get", err)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

func (h *PostHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	postID, ok := pathID(w, r, "postId", "Post not found")
	if !ok {
		return
	}

	post, err := h.postService.ToggleLike(r.Context(), postID, userID)
	if err != nil {
		writeError(w, "post.ToggleLike", err)
		return
	}

	writeJSON(w, http.StatusOK, post)
}
