package postgres

import (
	"context"

	"github.com/dom/tekky-backend/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ideaRepository struct {
	db *gorm.DB
}

func NewIdeaRepository(db *gorm.DB) *ideaRepository {
	return &ideaRepository{db: db}
}

func (r *ideaRepository) Create(ctx context.Context, idea *domain.Idea) error {
	return translateError(r.db.WithContext(ctx).Omit("Interests").Create(idea).Error)
}

func (r *ideaRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Idea, error) {
	var idea domain.Idea
	err := r.db.WithContext(ctx).
		Preload("Owner").
		Preload("Interests", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Interests.User").
		First(&idea, "id = ?", id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &idea, nil
}

func (r *ideaRepository) List(ctx context.Context) ([]*domain.Idea, error) {
	var ideas []*domain.Idea
	err := r.db.WithContext(ctx).
		Preload("Owner").
		Order("created_at DESC").
		Find(&ideas).Error
	if err != nil {
		return nil, err
	}
	return ideas, nil
}

type interestRepository struct {
	db *gorm.DB
}

func NewInterestRepository(db *gorm.DB) *interestRepository {
	return &interestRepository{db: db}
}

func (r *interestRepository) Create(ctx context.Context, interest *domain.Interest) error {
	return translateError(r.db.WithContext(ctx).Create(interest).Error)
}

func (r *interestRepository) Get(ctx context.Context, ideaID, userID uuid.UUID) (*domain.Interest, error) {
	var interest domain.Interest
	err := r.db.WithContext(ctx).
		Where("idea_id = ? AND user_id = ?", ideaID, userID).
		First(&interest).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &interest, nil
}
