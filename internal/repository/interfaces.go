package repository

import (
	"context"

	"github.com/dom/tekky-backend/internal/domain"
	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	// GetByIdentifier matches either the email or the username.
	GetByIdentifier(ctx context.Context, identifier string) (*domain.User, error)
	// Update persists the profile fields (username, name, avatar, bio).
	Update(ctx context.Context, user *domain.User) error
	UpdateLevel(ctx context.Context, id uuid.UUID, level int) error
	List(ctx context.Context, limit, offset int) ([]*domain.User, error)
	// ApplyXP adds grant.Amount to the user's XP (never below zero),
	// recomputes the level and writes an XP log row, all atomically.
	// A OncePerDay grant already claimed on grant.At's UTC date returns
	// ErrConditionFailed and changes nothing.
	ApplyXP(ctx context.Context, grant domain.XPGrant) (*domain.User, error)
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *domain.RefreshToken) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.RefreshToken, error)
	GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	// Rotate revokes oldID only if it is still live, stores next and links
	// oldID to it, all atomically. ErrConditionFailed when oldID was already
	// revoked by the time the write happened.
	Rotate(ctx context.Context, oldID uuid.UUID, next *domain.RefreshToken) error
	// Revoke is idempotent.
	Revoke(ctx context.Context, id uuid.UUID) error
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error)
	List(ctx context.Context, filter domain.PostFilter) ([]*domain.Post, error)
	CountByAuthor(ctx context.Context, authorID uuid.UUID) (int64, error)
	// Stats returns counters for each post id. viewerID may be nil.
	Stats(ctx context.Context, postIDs []uuid.UUID, viewerID *uuid.UUID) (map[uuid.UUID]domain.PostStats, error)
}

type LikeRepository interface {
	Create(ctx context.Context, like *domain.Like) error
	Get(ctx context.Context, postID, userID uuid.UUID) (*domain.Like, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error)
	ListByPost(ctx context.Context, postID uuid.UUID) ([]*domain.Comment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type FollowRepository interface {
	Create(ctx context.Context, follow *domain.Follow) error
	Delete(ctx context.Context, followerID, followingID uuid.UUID) error
	CountFollowers(ctx context.Context, userID uuid.UUID) (int64, error)
	CountFollowing(ctx context.Context, userID uuid.UUID) (int64, error)
	ListFollowers(ctx context.Context, userID uuid.UUID) ([]*domain.User, error)
	ListFollowing(ctx context.Context, userID uuid.UUID) ([]*domain.User, error)
}

type IdeaRepository interface {
	Create(ctx context.Context, idea *domain.Idea) error
	// GetByID loads the idea with its owner and interests.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Idea, error)
	List(ctx context.Context) ([]*domain.Idea, error)
}

type InterestRepository interface {
	Create(ctx context.Context, interest *domain.Interest) error
	Get(ctx context.Context, ideaID, userID uuid.UUID) (*domain.Interest, error)
}

type Repositories struct {
	User         UserRepository
	RefreshToken RefreshTokenRepository
	Post         PostRepository
	Like         LikeRepository
	Comment      CommentRepository
	Follow       FollowRepository
	Idea         IdeaRepository
	Interest     InterestRepository
}
