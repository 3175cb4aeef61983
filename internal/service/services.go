package service

import (
	"time"

	"github.com/dom/tekky-backend/internal/config"
	"github.com/dom/tekky-backend/internal/repository"
)

type Services struct {
	Auth          *AuthService
	AccessTokens  *AccessTokenIssuer
	RefreshTokens *RefreshTokenManager
	XP            *XPService
	Post          *PostService
	Comment       *CommentService
	Profile       *ProfileService
	Idea          *IdeaService
}

type options struct {
	now      func() time.Time
	notifier Notifier
	hasher   PasswordHasher
}

type Option func(*options)

// WithClock replaces time.Now, mainly for tests that cross day boundaries
// or expire tokens.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithNotifier(n Notifier) Option {
	return func(o *options) { o.notifier = n }
}

func WithPasswordHasher(h PasswordHasher) Option {
	return func(o *options) { o.hasher = h }
}

func NewServices(repos *repository.Repositories, cfg *config.Config, opts ...Option) *Services {
	o := options{
		now:      time.Now,
		notifier: noopNotifier{},
		hasher:   BcryptHasher{Cost: cfg.BcryptCost},
	}
	for _, opt := range opts {
		opt(&o)
	}

	access := NewAccessTokenIssuer(cfg.JWTSecret, cfg.AccessTokenTTL, o.now)
	refresh := NewRefreshTokenManager(repos.RefreshToken, cfg.RefreshTokenTTL, o.now)
	xp := NewXPService(repos.User, o.notifier, cfg.DailyLoginXP, o.now)

	return &Services{
		Auth:          NewAuthService(repos.User, access, refresh, o.hasher, xp, o.now),
		AccessTokens:  access,
		RefreshTokens: refresh,
		XP:            xp,
		Post:          NewPostService(repos.Post, repos.Like, repos.User, o.notifier, o.now),
		Comment:       NewCommentService(repos.Comment, repos.Post, o.notifier, o.now),
		Profile:       NewProfileService(repos.User, repos.Post, repos.Follow, o.notifier, o.now),
		Idea:          NewIdeaService(repos.Idea, repos.Interest, repos.User, o.notifier, o.now),
	}
}
