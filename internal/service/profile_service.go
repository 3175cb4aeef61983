package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/dom/tekky-backend/internal/domain"
	"github.com/dom/tekky-backend/internal/repository"
	"github.com/google/uuid"
)

type ProfileService struct {
	userRepo   repository.UserRepository
	postRepo   repository.PostRepository
	followRepo repository.FollowRepository
	notifier   Notifier
	now        func() time.Time
}

func NewProfileService(userRepo repository.UserRepository, postRepo repository.PostRepository, followRepo repository.FollowRepository, notifier Notifier, now func() time.Time) *ProfileService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if now == nil {
		now = time.Now
	}
	return &ProfileService{
		userRepo:   userRepo,
		postRepo:   postRepo,
		followRepo: followRepo,
		notifier:   notifier,
		now:        now,
	}
}

type ProfileCounts struct {
	Posts     int64 `json:"posts"`
	Followers int64 `json:"followers"`
	Following int64 `json:"following"`
}

// Profile is a user with their public counters.
type Profile struct {
	ID        uuid.UUID     `json:"id"`
	Username  string        `json:"username"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	AvatarURL *string       `json:"avatarUrl"`
	Bio       *string       `json:"bio"`
	XP        int           `json:"xp"`
	Level     int           `json:"level"`
	CreatedAt time.Time     `json:"createdAt"`
	Counts    ProfileCounts `json:"counts"`
}

// UpdateProfileInput holds the optional profile changes. Nil fields are
// left unchanged.
type UpdateProfileInput struct {
	Username  *string
	Name      *string
	AvatarURL *string
	Bio       *string
}

type FollowResult struct {
	Message        string `json:"message"`
	FollowersCount int64  `json:"followersCount"`
}

func (s *ProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, userLookupError(err)
	}

	counts, err := s.counts(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Profile{
		ID:        user.ID,
		Username:  user.Username,
		Name:      user.Name,
		Email:     user.Email,
		AvatarURL: user.AvatarURL,
		Bio:       user.Bio,
		XP:        user.XP,
		Level:     user.Level,
		CreatedAt: user.CreatedAt,
		Counts:    *counts,
	}, nil
}

func (s *ProfileService) counts(ctx context.Context, userID uuid.UUID) (*ProfileCounts, error) {
	posts, err := s.postRepo.CountByAuthor(ctx, userID)
	if err != nil {
		return nil, err
	}
	followers, err := s.followRepo.CountFollowers(ctx, userID)
	if err != nil {
		return nil, err
	}
	following, err := s.followRepo.CountFollowing(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ProfileCounts{Posts: posts, Followers: followers, Following: following}, nil
}

func (s *ProfileService) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*Profile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, userLookupError(err)
	}

	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		if !validUsername(username) {
			return nil, domain.NewValidationError("Invalid username")
		}
		if username != user.Username {
			existing, err := s.userRepo.GetByUsername(ctx, username)
			if err == nil && existing.ID != userID {
				return nil, domain.NewConflictError("Username already taken")
			}
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return nil, err
			}
		}
		user.Username = username
	}

	if input.Name != nil {
		name := sanitizeText(*input.Name)
		if name == "" {
			return nil, domain.NewValidationError("Name cannot be empty")
		}
		user.Name = name
	}

	if input.AvatarURL != nil {
		user.AvatarURL = optionalText(strings.TrimSpace(*input.AvatarURL))
	}

	if input.Bio != nil {
		user.Bio = optionalText(sanitizeText(*input.Bio))
	}

	user.UpdatedAt = s.now().UTC()
	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, domain.NewConflictError("Username already taken")
		}
		return nil, userLookupError(err)
	}

	return s.GetProfile(ctx, userID)
}

// Follow makes followerID follow targetID. Following twice is not an error.
func (s *ProfileService) Follow(ctx context.Context, followerID, targetID uuid.UUID) (*FollowResult, error) {
	if followerID == targetID {
		return nil, domain.NewValidationError("Cannot follow yourself")
	}

	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		return nil, userLookupError(err)
	}

	err := s.followRepo.Create(ctx, &domain.Follow{
		ID:          uuid.New(),
		FollowerID:  followerID,
		FollowingID: targetID,
		CreatedAt:   s.now().UTC(),
	})
	switch {
	case err == nil:
		s.notifyFollow(ctx, followerID, targetID)
	case errors.Is(err, repository.ErrDuplicate):
	default:
		return nil, err
	}

	count, err := s.followRepo.CountFollowers(ctx, targetID)
	if err != nil {
		return nil, err
	}
	return &FollowResult{Message: "Followed", FollowersCount: count}, nil
}

// Unfollow is idempotent.
func (s *ProfileService) Unfollow(ctx context.Context, followerID, targetID uuid.UUID) (*FollowResult, error) {
	if err := s.followRepo.Delete(ctx, followerID, targetID); err != nil {
		return nil, err
	}

	count, err := s.followRepo.CountFollowers(ctx, targetID)
	if err != nil {
		return nil, err
	}
	return &FollowResult{Message: "Unfollowed", FollowersCount: count}, nil
}

func (s *ProfileService) Followers(ctx context.Context, userID uuid.UUID) ([]domain.UserSummary, error) {
	users, err := s.followRepo.ListFollowers(ctx, userID)
	if err != nil {
		return nil, err
	}
	return summaries(users), nil
}

func (s *ProfileService) Following(ctx context.Context, userID uuid.UUID) ([]domain.UserSummary, error) {
	users, err := s.followRepo.ListFollowing(ctx, userID)
	if err != nil {
		return nil, err
	}
	return summaries(users), nil
}

func (s *ProfileService) notifyFollow(ctx context.Context, followerID, targetID uuid.UUID) {
	follower, err := s.userRepo.GetByID(ctx, followerID)
	if err != nil {
		log.Printf("WARN [profile.Follow] skipping notification, follower %s: %v", followerID, err)
		return
	}
	s.notifier.Notify(targetID, domain.Notification{
		Type:    domain.NotificationNewFollower,
		Payload: domain.NewFollowerPayload{Follower: follower.Summary()},
	})
}

func summaries(users []*domain.User) []domain.UserSummary {
	out := make([]domain.UserSummary, len(users))
	for i, u := range users {
		out[i] = u.Summary()
	}
	return out
}

func optionalText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
