package postgres

import (
	"context"

	"github.com/dom/tekky-backend/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *postRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *domain.Post) error {
	return translateError(r.db.WithContext(ctx).Create(post).Error)
}

func (r *postRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	var post domain.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		First(&post, "id = ?", id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, filter domain.PostFilter) ([]*domain.Post, error) {
	q := r.db.WithContext(ctx).
		Preload("Author").
		Order("created_at DESC, id DESC").
		Limit(domain.ClampPageSize(filter.Limit))

	if filter.AuthorID != nil {
		q = q.Where("author_id = ?", *filter.AuthorID)
	}

	if filter.Cursor != nil {
		var cursor domain.Post
		err := r.db.WithContext(ctx).
			Select("id", "created_at").
			First(&cursor, "id = ?", *filter.Cursor).Error
		if err != nil {
			return nil, translateError(err)
		}
		q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var posts []*domain.Post
	if err := q.Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) CountByAuthor(ctx context.Context, authorID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Post{}).
		Where("author_id = ?", authorID).
		Count(&count).Error
	return count, err
}

func (r *postRepository) Stats(ctx context.Context, postIDs []uuid.UUID, viewerID *uuid.UUID) (map[uuid.UUID]domain.PostStats, error) {
	stats := make(map[uuid.UUID]domain.PostStats, len(postIDs))
	if len(postIDs) == 0 {
		return stats, nil
	}

	type countResult struct {
		PostID uuid.UUID
		Count  int64
	}

	var likes []countResult
	err := r.db.WithContext(ctx).
		Model(&domain.Like{}).
		Select("post_id, COUNT(*) as count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Find(&likes).Error
	if err != nil {
		return nil, err
	}

	var comments []countResult
	err = r.db.WithContext(ctx).
		Model(&domain.Comment{}).
		Select("post_id, COUNT(*) as count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}

	var liked []uuid.UUID
	if viewerID != nil {
		err = r.db.WithContext(ctx).
			Model(&domain.Like{}).
			Where("post_id IN ? AND user_id = ?", postIDs, *viewerID).
			Pluck("post_id", &liked).Error
		if err != nil {
			return nil, err
		}
	}

	for _, id := range postIDs {
		stats[id] = domain.PostStats{}
	}
	for _, c := range likes {
		s := stats[c.PostID]
		s.Likes = c.Count
		stats[c.PostID] = s
	}
	for _, c := range comments {
		s := stats[c.PostID]
		s.Comments = c.Count
		stats[c.PostID] = s
	}
	for _, id := range liked {
		s := stats[id]
		s.Liked = true
		stats[id] = s
	}
	return stats, nil
}
