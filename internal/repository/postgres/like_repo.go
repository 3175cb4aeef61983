package postgres

import (
	"context"

	"github.com/dom/tekky-backend/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type likeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(db *gorm.DB) *likeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) Create(ctx context.Context, like *domain.Like) error {
	return translateError(r.db.WithContext(ctx).Create(like).Error)
}

func (r *likeRepository) Get(ctx context.Context, postID, userID uuid.UUID) (*domain.Like, error) {
	var like domain.Like
	err := r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		First(&like).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &like, nil
}

func (r *likeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Like{}, "id = ?", id).Error
}
