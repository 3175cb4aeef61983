package api

import (
	"net/http"

	"github.com/dom/tekky-backend/internal/api/handlers"
	"github.com/dom/tekky-backend/internal/api/middleware"
	"github.com/dom/tekky-backend/internal/config"
	"github.com/dom/tekky-backend/internal/service"
	"github.com/dom/tekky-backend/internal/websocket"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
)

// NewRouter builds the HTTP API. rdb may be nil, which disables rate
// limiting.
func NewRouter(services *service.Services, hub *websocket.Hub, cfg *config.Config, rdb *redis.Client) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.StripQueryToken)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(services.Auth)
	postHandler := handlers.NewPostHandler(services.Post)
	commentHandler := handlers.NewCommentHandler(services.Comment)
	profileHandler := handlers.NewProfileHandler(services.Profile, services.Post)
	ideaHandler := handlers.NewIdeaHandler(services.Idea)
	xpHandler := handlers.NewXPHandler(services.XP)
	wsHandler := handlers.NewWebSocketHandler(hub, services.Auth, cfg.CORSAllowedOrigins)

	requireAuth := middleware.Auth(services.Auth)
	optionalAuth := middleware.OptionalAuth(services.Auth)
	limit := func(route string) func(http.Handler) http.Handler {
		return middleware.RateLimit(cfg.RateLimit, rdb, route)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(limit("register")).Post("/register", authHandler.Register)
			r.With(limit("login")).Post("/login", authHandler.Login)
			r.With(limit("refresh")).Post("/refresh", authHandler.Refresh)
			r.Post("/logout", authHandler.Logout)
			r.Get("/check-username", authHandler.CheckUsername)
			r.With(requireAuth).Get("/me", authHandler.Me)
		})

		r.Route("/posts", func(r chi.Router) {
			r.With(optionalAuth).Get("/", postHandler.Feed)
			r.With(requireAuth).Post("/", postHandler.Create)
			r.With(optionalAuth).Get("/{postId}", postHandler.Get)
			r.With(requireAuth).Post("/{postId}/like", postHandler.ToggleLike)
		})

		// {id} is a post id for GET and POST and a comment id for DELETE.
		r.Route("/comments", func(r chi.Router) {
			r.Get("/{id}", commentHandler.List)
			r.With(requireAuth).Post("/{id}", commentHandler.Create)
			r.With(requireAuth).Delete("/{id}", commentHandler.Delete)
		})

		r.Route("/profile", func(r chi.Router) {
			r.With(requireAuth).Get("/me", profileHandler.Me)
			r.With(requireAuth).Put("/", profileHandler.Update)
			r.Get("/{userId}", profileHandler.Get)
			r.With(optionalAuth).Get("/{userId}/posts", profileHandler.Posts)
			r.Get("/{userId}/followers", profileHandler.Followers)
			r.Get("/{userId}/following", profileHandler.Following)
			r.With(requireAuth).Post("/{userId}/follow", profileHandler.Follow)
			r.With(requireAuth).Post("/{userId}/unfollow", profileHandler.Unfollow)
		})

		r.Route("/ideas", func(r chi.Router) {
			r.Get("/", ideaHandler.List)
			r.With(requireAuth).Post("/", ideaHandler.Create)
			r.Get("/{id}", ideaHandler.Get)
			r.With(requireAuth).Post("/{id}/interest", ideaHandler.SendInterest)
		})

		r.Route("/xp", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", xpHandler.Me)
			r.Post("/claim-daily", xpHandler.ClaimDaily)
		})

		// WebSocket endpoint
		r.Get("/ws", wsHandler.Handle)
	})

	return r
}
