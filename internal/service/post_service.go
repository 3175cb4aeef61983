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

type PostService struct {
	postRepo repository.PostRepository
	likeRepo repository.LikeRepository
	userRepo repository.UserRepository
	notifier Notifier
	now      func() time.Time
}

func NewPostService(postRepo repository.PostRepository, likeRepo repository.LikeRepository, userRepo repository.UserRepository, notifier Notifier, now func() time.Time) *PostService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if now == nil {
		now = time.Now
	}
	return &PostService{
		postRepo: postRepo,
		likeRepo: likeRepo,
		userRepo: userRepo,
		notifier: notifier,
		now:      now,
	}
}

// PostView is a post flattened with its author and counters as seen by
// one viewer.
type PostView struct {
	ID              uuid.UUID `json:"id"`
	Content         string    `json:"content"`
	CreatedAt       time.Time `json:"createdAt"`
	LikesCount      int64     `json:"likesCount"`
	CommentsCount   int64     `json:"commentsCount"`
	IsLiked         bool      `json:"isLiked"`
	AuthorID        uuid.UUID `json:"authorId"`
	AuthorName      string    `json:"authorName"`
	AuthorUsername  string    `json:"authorUsername"`
	AuthorAvatarURL *string   `json:"authorAvatarUrl"`
}

type FeedPage struct {
	Posts      []PostView `json:"posts"`
	NextCursor *uuid.UUID `json:"nextCursor"`
}

// Feed returns one page of posts, newest first. viewerID may be nil for
// anonymous readers; isLiked is then always false.
func (s *PostService) Feed(ctx context.Context, viewerID *uuid.UUID, filter domain.PostFilter) (*FeedPage, error) {
	posts, err := s.postRepo.List(ctx, filter)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NewValidationError("Invalid cursor")
		}
		return nil, err
	}

	views, err := s.views(ctx, posts, viewerID)
	if err != nil {
		return nil, err
	}

	page := &FeedPage{Posts: views}
	if len(posts) > 0 {
		last := posts[len(posts)-1].ID
		page.NextCursor = &last
	}
	return page, nil
}

// UserPosts pages through the posts of one author.
func (s *PostService) UserPosts(ctx context.Context, authorID uuid.UUID, viewerID *uuid.UUID, filter domain.PostFilter) (*FeedPage, error) {
	if _, err := s.userRepo.GetByID(ctx, authorID); err != nil {
		return nil, userLookupError(err)
	}
	filter.AuthorID = &authorID
	return s.Feed(ctx, viewerID, filter)
}

func (s *PostService) Create(ctx context.Context, authorID uuid.UUID, content string) (*PostView, error) {
	clean, err := requireText(content, domain.MaxPostLength, "Content")
	if err != nil {
		return nil, err
	}

	post := &domain.Post{
		ID:        uuid.New(),
		AuthorID:  authorID,
		Content:   clean,
		CreatedAt: s.now().UTC(),
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	return s.Get(ctx, post.ID, &authorID)
}

func (s *PostService) Get(ctx context.Context, postID uuid.UUID, viewerID *uuid.UUID) (*PostView, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, postLookupError(err)
	}

	views, err := s.views(ctx, []*domain.Post{post}, viewerID)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ToggleLike likes the post for userID, or removes the like when it already
// exists, and returns the post as userID now sees it.
func (s *PostService) ToggleLike(ctx context.Context, postID, userID uuid.UUID) (*PostView, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, postLookupError(err)
	}

	existing, err := s.likeRepo.Get(ctx, postID, userID)
	switch {
	case err == nil:
		if err := s.likeRepo.Delete(ctx, existing.ID); err != nil {
			return nil, err
		}
	case errors.Is(err, repository.ErrNotFound):
		like := &domain.Like{
			ID:        uuid.New(),
			PostID:    postID,
			UserID:    userID,
			CreatedAt: s.now().UTC(),
		}
		err := s.likeRepo.Create(ctx, like)
		if err != nil && !errors.Is(err, repository.ErrDuplicate) {
			return nil, err
		}
		if err == nil && post.AuthorID != userID {
			s.notifyLike(ctx, post, userID)
		}
	default:
		return nil, err
	}

	return s.Get(ctx, postID, &userID)
}

func (s *PostService) notifyLike(ctx context.Context, post *domain.Post, likerID uuid.UUID) {
	liker, err := s.userRepo.GetByID(ctx, likerID)
	if err != nil {
		log.Printf("WARN [post.ToggleLike] skipping notification, liker %s: %v", likerID, err)
		return
	}
	s.notifier.Notify(post.AuthorID, domain.Notification{
		Type:    domain.NotificationPostLiked,
		Payload: domain.PostLikedPayload{PostID: post.ID, By: liker.Summary()},
	})
}

func (s *PostService) views(ctx context.Context, posts []*domain.Post, viewerID *uuid.UUID) ([]PostView, error) {
	ids := make([]uuid.UUID, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}

	stats, err := s.postRepo.Stats(ctx, ids, viewerID)
	if err != nil {
		return nil, err
	}

	views := make([]PostView, len(posts))
	for i, p := range posts {
		st := stats[p.ID]
		views[i] = PostView{
			ID:            p.ID,
			Content:       p.Content,
			CreatedAt:     p.CreatedAt,
			LikesCount:    st.Likes,
			CommentsCount: st.Comments,
			IsLiked:       st.Liked,
			AuthorID:      p.AuthorID,
		}
		if p.Author != nil {
			views[i].AuthorName = p.Author.Name
			views[i].AuthorUsername = p.Author.Username
			views[i].AuthorAvatarURL = p.Author.AvatarURL
		}
	}
	return views, nil
}

func postLookupError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return domain.NewNotFoundError("Post not found")
	}
	return err
}
