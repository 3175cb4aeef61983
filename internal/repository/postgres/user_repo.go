package postgres

import (
	"context"

	"github.com/dom/tekky-backend/internal/domain"
	"github.com/dom/tekky-backend/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *userRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	return translateError(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "username = ?", username).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

// GetByIdentifier resolves an email or a username. An email match wins
// over a username that happens to hold the same text.
func (r *userRepository) GetByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).
		Where("email = ? OR username = ?", identifier, identifier).
		Order(clause.OrderBy{Expression: clause.Expr{
			SQL:                "CASE WHEN email = ? THEN 0 ELSE 1 END",
			Vars:               []interface{}{identifier},
			WithoutParentheses: true,
		}}).
		First(&user).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	res := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"username":   user.Username,
			"name":       user.Name,
			"avatar_url": user.AvatarURL,
			"bio":        user.Bio,
			"updated_at": user.UpdatedAt,
		})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepository) UpdateLevel(ctx context.Context, id uuid.UUID, level int) error {
	res := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		UpdateColumn("level", level)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	var users []*domain.User
	err := r.db.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) ApplyXP(ctx context.Context, grant domain.XPGrant) (*domain.User, error) {
	var updated domain.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		values := map[string]interface{}{
			"xp":         gorm.Expr("GREATEST(xp + ?, 0)", grant.Amount),
			"updated_at": grant.At,
		}
		q := tx.Model(&domain.User{}).Where("id = ?", grant.UserID)
		if grant.OncePerDay {
			// Re-checked at write time so two logins racing on the same day
			// cannot both pass.
			q = q.Where("(last_daily_xp IS NULL OR last_daily_xp < ?)", domain.StartOfDayUTC(grant.At))
			values["last_daily_xp"] = grant.At
		}

		res := q.UpdateColumns(values)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if err := tx.Select("id").First(&domain.User{}, "id = ?", grant.UserID).Error; err != nil {
				return err
			}
			return repository.ErrConditionFailed
		}

		if err := tx.First(&updated, "id = ?", grant.UserID).Error; err != nil {
			return err
		}

		if level := domain.LevelForXP(updated.XP); level != updated.Level {
			if err := tx.Model(&domain.User{}).Where("id = ?", grant.UserID).UpdateColumn("level", level).Error; err != nil {
				return err
			}
			updated.Level = level
		}

		return tx.Create(&domain.XPLog{
			ID:        uuid.New(),
			UserID:    grant.UserID,
			Amount:    grant.Amount,
			Reason:    grant.Reason,
			CreatedAt: grant.At,
		}).Error
	})
	if err != nil {
		return nil, translateError(err)
	}
	return &updated, nil
}
