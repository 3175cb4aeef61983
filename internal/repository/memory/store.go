// Package memory is an in-process implementation of the repository
// contracts. It backs the test suites and DATABASE_URL=memory:// runs.
// Every read returns a copy so callers never share state with the store.
package memory

import (
	"bytes"
	"sort"
	"sync"
	"time"

	"github.com/dom/tekky-backend/internal/domain"
	"github.com/dom/tekky-backend/internal/repository"
	"github.com/google/uuid"
)

type Store struct {
	mu sync.RWMutex

	users     map[uuid.UUID]domain.User
	tokens    map[uuid.UUID]domain.RefreshToken
	xpLogs    []domain.XPLog
	posts     map[uuid.UUID]domain.Post
	comments  map[uuid.UUID]domain.Comment
	likes     map[uuid.UUID]domain.Like
	follows   map[uuid.UUID]domain.Follow
	ideas     map[uuid.UUID]domain.Idea
	interests map[uuid.UUID]domain.Interest
}

func NewStore() *Store {
	return &Store{
		users:     make(map[uuid.UUID]domain.User),
		tokens:    make(map[uuid.UUID]domain.RefreshToken),
		posts:     make(map[uuid.UUID]domain.Post),
		comments:  make(map[uuid.UUID]domain.Comment),
		likes:     make(map[uuid.UUID]domain.Like),
		follows:   make(map[uuid.UUID]domain.Follow),
		ideas:     make(map[uuid.UUID]domain.Idea),
		interests: make(map[uuid.UUID]domain.Interest),
	}
}

// NewRepositories returns repositories backed by a fresh, empty store.
func NewRepositories() *repository.Repositories {
	return NewStore().Repositories()
}

func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		User:         &userRepository{s: s},
		RefreshToken: &refreshTokenRepository{s: s},
		Post:         &postRepository{s: s},
		Like:         &likeRepository{s: s},
		Comment:      &commentRepository{s: s},
		Follow:       &followRepository{s: s},
		Idea:         &ideaRepository{s: s},
		Interest:     &interestRepository{s: s},
	}
}

// XPLogs returns the XP log rows of a user, oldest first.
func (s *Store) XPLogs(userID uuid.UUID) []domain.XPLog {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var logs []domain.XPLog
	for _, l := range s.xpLogs {
		if l.UserID == userID {
			logs = append(logs, l)
		}
	}
	return logs
}

func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func assignCreatedAt(t *time.Time) {
	if t.IsZero() {
		*t = time.Now().UTC()
	}
}

func copyString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyUUID(p *uuid.UUID) *uuid.UUID {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneUser(u domain.User) *domain.User {
	u.AvatarURL = copyString(u.AvatarURL)
	u.Bio = copyString(u.Bio)
	u.LastDailyXP = copyTime(u.LastDailyXP)
	return &u
}

// userLocked must be called with s.mu held.
func (s *Store) userLocked(id uuid.UUID) *domain.User {
	u, ok := s.users[id]
	if !ok {
		return nil
	}
	return cloneUser(u)
}

// newerFirst orders by (createdAt, id) descending, the same order the
// postgres repositories use.
func newerFirst(aTime time.Time, aID uuid.UUID, bTime time.Time, bID uuid.UUID) bool {
	if !aTime.Equal(bTime) {
		return aTime.After(bTime)
	}
	return bytes.Compare(aID[:], bID[:]) > 0
}

func sortUsersByTime(users []*domain.User, times map[uuid.UUID]time.Time) {
	sort.SliceStable(users, func(i, j int) bool {
		return times[users[i].ID].After(times[users[j].ID])
	})
}
