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

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	notifier    Notifier
	now         func() time.Time
}

func NewCommentService(commentRepo repository.CommentRepository, postRepo repository.PostRepository, notifier Notifier, now func() time.Time) *CommentService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if now == nil {
		now = time.Now
	}
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		notifier:    notifier,
		now:         now,
	}
}

type CommentView struct {
	ID        uuid.UUID          `json:"id"`
	PostID    uuid.UUID          `json:"postId"`
	AuthorID  uuid.UUID          `json:"authorId"`
	Content   string             `json:"content"`
	CreatedAt time.Time          `json:"createdAt"`
	Author    domain.UserSummary `json:"author"`
}

func newCommentView(c *domain.Comment) CommentView {
	view := CommentView{
		ID:        c.ID,
		PostID:    c.PostID,
		AuthorID:  c.AuthorID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
	if c.Author != nil {
		view.Author = c.Author.Summary()
	}
	return view
}

// List returns the comments of a post, oldest first.
func (s *CommentService) List(ctx context.Context, postID uuid.UUID) ([]CommentView, error) {
	comments, err := s.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	views := make([]CommentView, len(comments))
	for i, c := range comments {
		views[i] = newCommentView(c)
	}
	return views, nil
}

func (s *CommentService) Create(ctx context.Context, postID, authorID uuid.UUID, content string) (*CommentView, error) {
	clean, err := requireText(content, domain.MaxCommentLength, "Content")
	if err != nil {
		return nil, err
	}

	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, postLookupError(err)
	}

	comment := &domain.Comment{
		ID:        uuid.New(),
		PostID:    postID,
		AuthorID:  authorID,
		Content:   clean,
		CreatedAt: s.now().UTC(),
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	created, err := s.commentRepo.GetByID(ctx, comment.ID)
	if err != nil {
		return nil, err
	}

	if post.AuthorID != authorID && created.Author != nil {
		s.notifier.Notify(post.AuthorID, domain.Notification{
			Type: domain.NotificationPostCommented,
			Payload: domain.PostCommentedPayload{
				PostID:    postID,
				CommentID: created.ID,
				By:        created.Author.Summary(),
			},
		})
	}

	view := newCommentView(created)
	return &view, nil
}

// Delete removes a comment. Only its author may delete it.
func (s *CommentService) Delete(ctx context.Context, commentID, userID uuid.UUID) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.NewNotFoundError("Comment not found")
		}
		return err
	}

	if comment.AuthorID != userID {
		log.Printf("WARN [comment.Delete] user %s tried to delete comment %s of user %s", userID, commentID, comment.AuthorID)
		return domain.NewForbiddenError("Not allowed")
	}

	return s.commentRepo.Delete(ctx, commentID)
}
