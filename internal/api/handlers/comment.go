package handlers

import (
	"net/http"

	"github.com/dom/tekky-backend/internal/service"
)

type CommentHandler struct {
	commentService *service.CommentService
}

func NewCommentHandler(commentService *service.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

type CreateCommentRequest struct {
	Content string `json:"content"`
}

// List is mounted at /comments/{id} where id names a post.
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r, "id", "Post not found")
	if !ok {
		return
	}

	comments, err := h.commentService.List(r.Context(), postID)
	if err != nil {
		writeError(w, "comment.List", err)
		return
	}

	writeJSON(w, http.StatusOK, comments)
}

// Create is mounted at /comments/{id} where id names a post.
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	postID, ok := pathID(w, r, "id", "Post not found")
	if !ok {
		return
	}

	var req CreateCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.commentService.Create(r.Context(), postID, userID, req.Content)
	if err != nil {
		writeError(w, "comment.Create", err)
		return
	}

	writeJSON(w, http.StatusCreated, comment)
}

// Delete is mounted at /comments/{id} where id names a comment.
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	commentID, ok := pathID(w, r, "id", "Comment not found")
	if !ok {
		return
	}

	if err := h.commentService.Delete(r.Context(), commentID, userID); err != nil {
		writeError(w, "comment.Delete", err)
		return
	}

	writeMessage(w, http.StatusOK, "Comment deleted")
}
