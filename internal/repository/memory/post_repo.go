package memory

import (
	"context"
	"sort"

	"github.com/dom/tekky-backend/internal/domain"
	"github.com/dom/tekky-backend/internal/repository"
	"github.com/google/uuid"
)

type postRepository struct {
	s *Store
}

func (r *postRepository) withAuthor(p domain.Post) *domain.Post {
	p.Author = r.s.userLocked(p.AuthorID)
	return &p
}

func (r *postRepository) Create(ctx context.Context, post *domain.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	assignID(&post.ID)
	if _, ok := r.s.posts[post.ID]; ok {
		return repository.ErrDuplicate
	}
	assignCreatedAt(&post.CreatedAt)

	stored := *post
	stored.Author = nil
	r.s.posts[post.ID] = stored
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.posts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.withAuthor(p), nil
}

func (r *postRepository) List(ctx context.Context, filter domain.PostFilter) ([]*domain.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var cursor *domain.Post
	if filter.Cursor != nil {
		c, ok := r.s.posts[*filter.Cursor]
		if !ok {
			return nil, repository.ErrNotFound
		}
		cursor = &c
	}

	var posts []*domain.Post
	for _, p := range r.s.posts {
		if filter.AuthorID != nil && p.AuthorID != *filter.AuthorID {
			continue
		}
		if cursor != nil && !newerFirst(cursor.CreatedAt, cursor.ID, p.CreatedAt, p.ID) {
			continue
		}
		posts = append(posts, r.withAuthor(p))
	}

	sort.Slice(posts, func(i, j int) bool {
		return newerFirst(posts[i].CreatedAt, posts[i].ID, posts[j].CreatedAt, posts[j].ID)
	})

	if limit := domain.ClampPageSize(filter.Limit); len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (r *postRepository) CountByAuthor(ctx context.Context, authorID uuid.UUID) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var n int64
	for _, p := range r.s.posts {
		if p.AuthorID == authorID {
			n++
		}
	}
	return n, nil
}

func (r *postRepository) Stats(ctx context.Context, postIDs []uuid.UUID, viewerID *uuid.UUID) (map[uuid.UUID]domain.PostStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	stats := make(map[uuid.UUID]domain.PostStats, len(postIDs))
	for _, id := range postIDs {
		stats[id] = domain.PostStats{}
	}

	for _, l := range r.s.likes {
		s, ok := stats[l.PostID]
		if !ok {
			continue
		}
		s.Likes++
		if viewerID != nil && l.UserID == *viewerID {
			s.Liked = true
		}
		stats[l.PostID] = s
	}
	for _, c := range r.s.comments {
		s, ok := stats[c.PostID]
		if !ok {
			continue
		}
		s.Comments++
		stats[c.PostID] = s
	}
	return stats, nil
}

type likeRepository struct {
	s *Store
}

func (r *likeRepository) Create(ctx context.Context, like *domain.Like) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	assignID(&like.ID)
	for _, l := range r.s.likes {
		if l.ID == like.ID || (l.PostID == like.PostID && l.UserID == like.UserID) {
			return repository.ErrDuplicate
		}
	}
	assignCreatedAt(&like.CreatedAt)

	stored := *like
	stored.Post, stored.User = nil, nil
	r.s.likes[like.ID] = stored
	return nil
}

func (r *likeRepository) Get(ctx context.Context, postID, userID uuid.UUID) (*domain.Like, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, l := range r.s.likes {
		if l.PostID == postID && l.UserID == userID {
			found := l
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *likeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.likes, id)
	return nil
}

type commentRepository struct {
	s *Store
}

func (r *commentRepository) withAuthor(c domain.Comment) *domain.Comment {
	c.Author = r.s.userLocked(c.AuthorID)
	return &c
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	assignID(&comment.ID)
	if _, ok := r.s.comments[comment.ID]; ok {
		return repository.ErrDuplicate
	}
	assignCreatedAt(&comment.CreatedAt)

	stored := *comment
	stored.Author, stored.Post = nil, nil
	r.s.comments[comment.ID] = stored
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.comments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.withAuthor(c), nil
}

func (r *commentRepository) ListByPost(ctx context.Context, postID uuid.UUID) ([]*domain.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	comments := []*domain.Comment{}
	for _, c := range r.s.comments {
		if c.PostID == postID {
			comments = append(comments, r.withAuthor(c))
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		return !newerFirst(comments[i].CreatedAt, comments[i].ID, comments[j].CreatedAt, comments[j].ID)
	})
	return comments, nil
}

func (r *commentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.comments, id)
	return nil
}
