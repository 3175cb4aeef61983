package postgres

import (
	"context"

	"github.com/dom/tekky-backend/internal/domain"
	"github.com/dom/tekky-backend/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type refreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) *refreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

func (r *refreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	return translateError(r.db.WithContext(ctx).Create(token).Error)
}

func (r *refreshTokenRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.RefreshToken, error) {
	var token domain.RefreshToken
	err := r.db.WithContext(ctx).First(&token, "id = ?", id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &token, nil
}

func (r *refreshTokenRepository) GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	var token domain.RefreshToken
	err := r.db.WithContext(ctx).First(&token, "token_hash = ?", tokenHash).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &token, nil
}

func (r *refreshTokenRepository) Rotate(ctx context.Context, oldID uuid.UUID, next *domain.RefreshToken) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The revoked = false guard makes concurrent rotations of the same
		// token serialize on the row: only the first one matches.
		res := tx.Model(&domain.RefreshToken{}).
			Where("id = ? AND revoked = ?", oldID, false).
			UpdateColumn("revoked", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repository.ErrConditionFailed
		}

		if err := tx.Create(next).Error; err != nil {
			return err
		}

		return tx.Model(&domain.RefreshToken{}).
			Where("id = ?", oldID).
			UpdateColumn("replaced_by_id", next.ID).Error
	})
	return translateError(err)
}

func (r *refreshTokenRepository) Revoke(ctx context.Context, id uuid.UUID) error {
	return translateError(r.db.WithContext(ctx).
		Model(&domain.RefreshToken{}).
		Where("id = ? AND revoked = ?", id, false).
		UpdateColumn("revoked", true).Error)
}

func (r *refreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		UpdateColumn("revoked", true)
	if res.Error != nil {
		return 0, translateError(res.Error)
	}
	return res.RowsAffected, nil
}
