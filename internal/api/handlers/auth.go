package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/dom/tekky-backend/internal/domain"
	"github.com/dom/tekky-backend/internal/service"
	"github.com/google/uuid"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Identifier string `json:"identifier"`
	// Email is accepted for older clients that only log in by email.
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	AvatarURL *string   `json:"avatarUrl"`
	Bio       *string   `json:"bio,omitempty"`
	XP        int       `json:"xp"`
	Level     int       `json:"level"`
	CreatedAt time.Time `json:"createdAt"`
}

func newUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Username:  u.Username,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
		Bio:       u.Bio,
		XP:        u.XP,
		Level:     u.Level,
		CreatedAt: u.CreatedAt,
	}
}

type AuthResponse struct {
	Message      string       `json:"message,omitempty"`
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

type LoginResponse struct {
	AuthResponse
	DailyXP        int  `json:"dailyXP"`
	AlreadyClaimed bool `json:"alreadyClaimed"`
	NewXP          int  `json:"newXP"`
	NewLevel       int  `json:"newLevel"`
}

type CheckUsernameResponse struct {
	Available bool   `json:"available"`
	Message   string `json:"message,omitempty"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.authService.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, "auth.Register", err)
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{
		Message:      "Account created successfully",
		User:         newUserResponse(result.User),
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	identifier := req.Identifier
	if identifier == "" {
		identifier = req.Email
	}

	result, err := h.authService.Login(r.Context(), service.LoginInput{
		Identifier: identifier,
		Password:   req.Password,
	})
	if err != nil {
		writeError(w, "auth.Login", err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		AuthResponse: AuthResponse{
			User:         newUserResponse(result.User),
			AccessToken:  result.AccessToken,
			RefreshToken: result.RefreshToken,
		},
		DailyXP:        result.Reward.XPGained,
		AlreadyClaimed: result.Reward.AlreadyClaimed,
		NewXP:          result.Reward.XP,
		NewLevel:       result.Reward.Level,
	})
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, "auth.Refresh", err)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		User:         newUserResponse(result.User),
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.authService.Logout(r.Context(), req.RefreshToken); err != nil {
		writeError(w, "auth.Logout", err)
		return
	}

	writeMessage(w, http.StatusOK, "Logged out")
}

func (h *AuthHandler) CheckUsername(w http.ResponseWriter, r *http.Request) {
	available, err := h.authService.CheckUsername(r.Context(), r.URL.Query().Get("username"))
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeJSON(w, http.StatusBadRequest, CheckUsernameResponse{
				Available: false,
				Message:   domain.Message(err, "Invalid username"),
			})
			return
		}
		writeError(w, "auth.CheckUsername", err)
		return
	}

	writeJSON(w, http.StatusOK, CheckUsernameResponse{Available: available})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	user, err := h.authService.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, "auth.Me", err)
		return
	}

	writeJSON(w, http.StatusOK, newUserResponse(user))
}
