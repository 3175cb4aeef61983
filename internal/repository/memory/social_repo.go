package memory

import (
	"context"
	"sort"
	"time"

	"github.com/dom/tekky-backend/internal/domain"
	"github.com/dom/tekky-backend/internal/repository"
	"github.com/google/uuid"
)

type followRepository struct {
	s *Store
}

func (r *followRepository) Create(ctx context.Context, follow *domain.Follow) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	assignID(&follow.ID)
	for _, f := range r.s.follows {
		if f.ID == follow.ID || (f.FollowerID == follow.FollowerID && f.FollowingID == follow.FollowingID) {
			return repository.ErrDuplicate
		}
	}
	assignCreatedAt(&follow.CreatedAt)

	stored := *follow
	stored.Follower, stored.Following = nil, nil
	r.s.follows[follow.ID] = stored
	return nil
}

func (r *followRepository) Delete(ctx context.Context, followerID, followingID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, f := range r.s.follows {
		if f.FollowerID == followerID && f.FollowingID == followingID {
			delete(r.s.follows, id)
		}
	}
	return nil
}

func (r *followRepository) count(match func(domain.Follow) bool) int64 {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var n int64
	for _, f := range r.s.follows {
		if match(f) {
			n++
		}
	}
	return n
}

func (r *followRepository) CountFollowers(ctx context.Context, userID uuid.UUID) (int64, error) {
	return r.count(func(f domain.Follow) bool { return f.FollowingID == userID }), nil
}

func (r *followRepository) CountFollowing(ctx context.Context, userID uuid.UUID) (int64, error) {
	return r.count(func(f domain.Follow) bool { return f.FollowerID == userID }), nil
}

// list returns the users picked from each matching follow, newest follow first.
func (r *followRepository) list(match func(domain.Follow) bool, pick func(domain.Follow) uuid.UUID) []*domain.User {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	users := []*domain.User{}
	followedAt := make(map[uuid.UUID]time.Time)
	for _, f := range r.s.follows {
		if !match(f) {
			continue
		}
		if u := r.s.userLocked(pick(f)); u != nil {
			users = append(users, u)
			followedAt[u.ID] = f.CreatedAt
		}
	}
	sortUsersByTime(users, followedAt)
	return users
}

func (r *followRepository) ListFollowers(ctx context.Context, userID uuid.UUID) ([]*domain.User, error) {
	return r.list(
		func(f domain.Follow) bool { return f.FollowingID == userID },
		func(f domain.Follow) uuid.UUID { return f.FollowerID },
	), nil
}

func (r *followRepository) ListFollowing(ctx context.Context, userID uuid.UUID) ([]*domain.User, error) {
	return r.list(
		func(f domain.Follow) bool { return f.FollowerID == userID },
		func(f domain.Follow) uuid.UUID { return f.FollowingID },
	), nil
}

type ideaRepository struct {
	s *Store
}

func cloneIdea(i domain.Idea) domain.Idea {
	i.TechStacks = copyStrings(i.TechStacks)
	i.LookingFor = copyStrings(i.LookingFor)
	i.Owner = nil
	i.Interests = nil
	return i
}

func (r *ideaRepository) Create(ctx context.Context, idea *domain.Idea) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	assignID(&idea.ID)
	if _, ok := r.s.ideas[idea.ID]; ok {
		return repository.ErrDuplicate
	}
	assignCreatedAt(&idea.CreatedAt)
	r.s.ideas[idea.ID] = cloneIdea(*idea)
	return nil
}

func (r *ideaRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Idea, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	stored, ok := r.s.ideas[id]
	if !ok {
		return nil, repository.ErrNotFound
	}

	idea := cloneIdea(stored)
	idea.Owner = r.s.userLocked(idea.OwnerID)
	idea.Interests = []*domain.Interest{}
	for _, in := range r.s.interests {
		if in.IdeaID != id {
			continue
		}
		interest := in
		interest.User = r.s.userLocked(in.UserID)
		idea.Interests = append(idea.Interests, &interest)
	}
	sort.Slice(idea.Interests, func(i, j int) bool {
		return idea.Interests[i].CreatedAt.Before(idea.Interests[j].CreatedAt)
	})
	return &idea, nil
}

func (r *ideaRepository) List(ctx context.Context) ([]*domain.Idea, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ideas := make([]*domain.Idea, 0, len(r.s.ideas))
	for _, stored := range r.s.ideas {
		idea := cloneIdea(stored)
		idea.Owner = r.s.userLocked(idea.OwnerID)
		ideas = append(ideas, &idea)
	}
	sort.Slice(ideas, func(i, j int) bool {
		return newerFirst(ideas[i].CreatedAt, ideas[i].ID, ideas[j].CreatedAt, ideas[j].ID)
	})
	return ideas, nil
}

type interestRepository struct {
	s *Store
}

func (r *interestRepository) Create(ctx context.Context, interest *domain.Interest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	assignID(&interest.ID)
	for _, in := range r.s.interests {
		if in.ID == interest.ID || (in.IdeaID == interest.IdeaID && in.UserID == interest.UserID) {
			return repository.ErrDuplicate
		}
	}
	assignCreatedAt(&interest.CreatedAt)

	stored := *interest
	stored.User, stored.Idea = nil, nil
	r.s.interests[interest.ID] = stored
	return nil
}

func (r *interestRepository) Get(ctx context.Context, ideaID, userID uuid.UUID) (*domain.Interest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, in := range r.s.interests {
		if in.IdeaID == ideaID && in.UserID == userID {
			found := in
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}
