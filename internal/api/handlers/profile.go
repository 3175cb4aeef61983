package handlers

import (
	"net/http"

	"github.com/dom/tekky-backend/internal/service"
)

type ProfileHandler struct {
	profileService *service.ProfileService
	postService    *service.PostService
}

func NewProfileHandler(profileService *service.ProfileService, postService *service.PostService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		postService:    postService,
	}
}

// UpdateProfileRequest holds optional fields. Omitted fields stay unchanged.
type UpdateProfileRequest struct {
	Username  *string `json:"username"`
	Name      *string `json:"name"`
	AvatarURL *string `json:"avatarUrl"`
	Bio       *string `json:"bio"`
}

// Me returns the caller's own profile.
func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	profile, err := h.profileService.GetProfile(r.Context(), userID)
	if err != nil {
		writeError(w, "profile.Me", err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId", "User not found")
	if !ok {
		return
	}

	profile, err := h.profileService.GetProfile(r.Context(), userID)
	if err != nil {
		writeError(w, "profile.Get", err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	profile, err := h.profileService.UpdateProfile(r.Context(), userID, service.UpdateProfileInput{
		Username:  req.Username,
		Name:      req.Name,
		AvatarURL: req.AvatarURL,
		Bio:       req.Bio,
	})
	if err != nil {
		writeError(w, "profile.Update", err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) Posts(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId", "User not found")
	if !ok {
		return
	}

	filter, ok := pageFilter(w, r)
	if !ok {
		return
	}

	page, err := h.postService.UserPosts(r.Context(), userID, viewer(r), filter)
	if err != nil {
		writeError(w, "profile.Posts", err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (h *ProfileHandler) Follow(w http.ResponseWriter, r *http.Request) {
	followerID, ok := requireUser(w, r)
	if !ok {
		return
	}

	targetID, ok := pathID(w, r, "userId", "User not found")
	if !ok {
		return
	}

	result, err := h.profileService.Follow(r.Context(), followerID, targetID)
	if err != nil {
		writeError(w, "profile.Follow", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *ProfileHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	followerID, ok := requireUser(w, r)
	if !ok {
		return
	}

	targetID, ok := pathID(w, r, "userId", "User not found")
	if !ok {
		return
	}

	result, err := h.profileService.Unfollow(r.Context(), followerID, targetID)
	if err != nil {
		writeError(w, "profile.Unfollow", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *ProfileHandler) Followers(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId", "User not found")
	if !ok {
		return
	}

	users, err := h.profileService.Followers(r.Context(), userID)
	if err != nil {
		writeError(w, "profile.Followers", err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

func (h *ProfileHandler) Following(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId", "User not found")
	if !ok {
		return
	}

	users, err := h.profileService.Following(r.Context(), userID)
	if err != nil {
		writeError(w, "profile.Following", err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}
