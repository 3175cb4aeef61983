package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/dom/tekky-backend/internal/domain"
	"github.com/dom/tekky-backend/internal/repository"
	"github.com/google/uuid"
)

const recomputeBatchSize = 200

type XPService struct {
	userRepo repository.UserRepository
	notifier Notifier
	dailyXP  int
	now      func() time.Time
}

func NewXPService(userRepo repository.UserRepository, notifier Notifier, dailyXP int, now func() time.Time) *XPService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if now == nil {
		now = time.Now
	}
	if dailyXP <= 0 {
		dailyXP = domain.DefaultDailyLoginXP
	}
	return &XPService{
		userRepo: userRepo,
		notifier: notifier,
		dailyXP:  dailyXP,
		now:      now,
	}
}

// DailyReward is the outcome of a daily reward claim.
type DailyReward struct {
	XPGained       int  `json:"xpGained"`
	AlreadyClaimed bool `json:"alreadyClaimed"`
	XP             int  `json:"xp"`
	Level          int  `json:"level"`
}

type XPStatus struct {
	XP          int        `json:"xp"`
	Level       int        `json:"level"`
	LastDailyXP *time.Time `json:"lastDailyXP"`
	NextLevelXP int        `json:"nextLevelXP"`
}

// ClaimDaily grants the daily reward at most once per UTC calendar day.
// Concurrent claims on the same day grant it exactly once.
func (s *XPService) ClaimDaily(ctx context.Context, userID uuid.UUID) (*DailyReward, error) {
	before, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, userLookupError(err)
	}

	updated, err := s.userRepo.ApplyXP(ctx, domain.XPGrant{
		UserID:     userID,
		Amount:     s.dailyXP,
		Reason:     domain.XPReasonDailyLogin,
		At:         s.now().UTC(),
		OncePerDay: true,
	})
	if err != nil {
		if errors.Is(err, repository.ErrConditionFailed) {
			current, err := s.userRepo.GetByID(ctx, userID)
			if err != nil {
				return nil, userLookupError(err)
			}
			return &DailyReward{
				AlreadyClaimed: true,
				XP:             current.XP,
				Level:          current.Level,
			}, nil
		}
		return nil, userLookupError(err)
	}

	s.notifyLevelUp(before, updated)

	return &DailyReward{
		XPGained: s.dailyXP,
		XP:       updated.XP,
		Level:    updated.Level,
	}, nil
}

func (s *XPService) Status(ctx context.Context, userID uuid.UUID) (*XPStatus, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, userLookupError(err)
	}
	return &XPStatus{
		XP:          user.XP,
		Level:       user.Level,
		LastDailyXP: user.LastDailyXP,
		NextLevelXP: domain.NextLevelXP(user.Level),
	}, nil
}

// Grant applies an administrative XP correction. amount may be negative;
// the balance never drops below zero.
func (s *XPService) Grant(ctx context.Context, userID uuid.UUID, amount int) (*domain.User, error) {
	if amount == 0 {
		return nil, domain.NewValidationError("Amount must not be zero")
	}

	before, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, userLookupError(err)
	}

	updated, err := s.userRepo.ApplyXP(ctx, domain.XPGrant{
		UserID: userID,
		Amount: amount,
		Reason: domain.XPReasonAdminGrant,
		At:     s.now().UTC(),
	})
	if err != nil {
		return nil, userLookupError(err)
	}

	s.notifyLevelUp(before, updated)
	return updated, nil
}

// RecomputeLevels rewrites every stored level that disagrees with
// domain.LevelForXP and returns how many users changed.
func (s *XPService) RecomputeLevels(ctx context.Context) (int, error) {
	changed := 0
	for offset := 0; ; offset += recomputeBatchSize {
		users, err := s.userRepo.List(ctx, recomputeBatchSize, offset)
		if err != nil {
			return changed, err
		}

		for _, u := range users {
			level := domain.LevelForXP(u.XP)
			if level == u.Level {
				continue
			}
			if err := s.userRepo.UpdateLevel(ctx, u.ID, level); err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					continue
				}
				return changed, err
			}
			log.Printf("[xp.RecomputeLevels] user %s level %d -> %d (xp %d)", u.ID, u.Level, level, u.XP)
			changed++
		}

		if len(users) < recomputeBatchSize {
			return changed, nil
		}
	}
}

func (s *XPService) notifyLevelUp(before, after *domain.User) {
	if after.Level <= before.Level {
		return
	}
	s.notifier.Notify(after.ID, domain.Notification{
		Type:    domain.NotificationLevelUp,
		Payload: domain.LevelUpPayload{Level: after.Level, XP: after.XP},
	})
}

func userLookupError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return domain.NewNotFoundError("User not found")
	}
	return err
}
