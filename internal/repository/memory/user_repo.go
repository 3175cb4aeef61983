package memory

import (
	"context"
	"sort"

	"github.com/dom/tekky-backend/internal/domain"
	"github.com/dom/tekky-backend/internal/repository"
	"github.com/google/uuid"
)

type userRepository struct {
	s *Store
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	assignID(&user.ID)
	for _, u := range r.s.users {
		if u.ID == user.ID || u.Email == user.Email || u.Username == user.Username {
			return repository.ErrDuplicate
		}
	}
	assignCreatedAt(&user.CreatedAt)
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}
	r.s.users[user.ID] = *cloneUser(*user)
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if u := r.s.userLocked(id); u != nil {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (r *userRepository) find(match func(domain.User) bool) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Email == email })
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Username == username })
}

// GetByIdentifier prefers an email match over a username match.
func (r *userRepository) GetByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	user, err := r.GetByEmail(ctx, identifier)
	if err == nil {
		return user, nil
	}
	return r.GetByUsername(ctx, identifier)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, u := range r.s.users {
		if u.ID != user.ID && u.Username == user.Username {
			return repository.ErrDuplicate
		}
	}

	existing.Username = user.Username
	existing.Name = user.Name
	existing.AvatarURL = copyString(user.AvatarURL)
	existing.Bio = copyString(user.Bio)
	existing.UpdatedAt = user.UpdatedAt
	r.s.users[user.ID] = existing
	return nil
}

func (r *userRepository) UpdateLevel(ctx context.Context, id uuid.UUID, level int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Level = level
	r.s.users[id] = u
	return nil
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	users := make([]*domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		users = append(users, cloneUser(u))
	}
	sort.Slice(users, func(i, j int) bool {
		return !newerFirst(users[i].CreatedAt, users[i].ID, users[j].CreatedAt, users[j].ID)
	})

	if offset >= len(users) {
		return []*domain.User{}, nil
	}
	users = users[offset:]
	if limit > 0 && limit < len(users) {
		users = users[:limit]
	}
	return users, nil
}

func (r *userRepository) ApplyXP(ctx context.Context, grant domain.XPGrant) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[grant.UserID]
	if !ok {
		return nil, repository.ErrNotFound
	}

	if grant.OncePerDay {
		if u.LastDailyXP != nil && !u.LastDailyXP.Before(domain.StartOfDayUTC(grant.At)) {
			return nil, repository.ErrConditionFailed
		}
		at := grant.At
		u.LastDailyXP = &at
	}

	u.XP += grant.Amount
	if u.XP < 0 {
		u.XP = 0
	}
	u.Level = domain.LevelForXP(u.XP)
	u.UpdatedAt = grant.At
	r.s.users[u.ID] = u

	r.s.xpLogs = append(r.s.xpLogs, domain.XPLog{
		ID:        uuid.New(),
		UserID:    grant.UserID,
		Amount:    grant.Amount,
		Reason:    grant.Reason,
		CreatedAt: grant.At,
	})

	return cloneUser(u), nil
}
