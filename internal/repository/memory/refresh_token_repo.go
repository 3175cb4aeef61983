package memory

import (
	"context"

	"github.com/dom/tekky-backend/internal/domain"
	"github.com/dom/tekky-backend/internal/repository"
	"github.com/google/uuid"
)

type refreshTokenRepository struct {
	s *Store
}

func cloneToken(t domain.RefreshToken) *domain.RefreshToken {
	t.ReplacedByID = copyUUID(t.ReplacedByID)
	t.User = nil
	return &t
}

// insertTokenLocked must be called with s.mu held for writing.
func (r *refreshTokenRepository) insertTokenLocked(token *domain.RefreshToken) error {
	assignID(&token.ID)
	for _, t := range r.s.tokens {
		if t.ID == token.ID || t.TokenHash == token.TokenHash {
			return repository.ErrDuplicate
		}
	}
	assignCreatedAt(&token.CreatedAt)
	r.s.tokens[token.ID] = *cloneToken(*token)
	return nil
}

func (r *refreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.insertTokenLocked(token)
}

func (r *refreshTokenRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.RefreshToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tokens[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneToken(t), nil
}

func (r *refreshTokenRepository) GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, t := range r.s.tokens {
		if t.TokenHash == tokenHash {
			return cloneToken(t), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *refreshTokenRepository) Rotate(ctx context.Context, oldID uuid.UUID, next *domain.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	old, ok := r.s.tokens[oldID]
	if !ok {
		return repository.ErrNotFound
	}
	if old.Revoked {
		return repository.ErrConditionFailed
	}

	if err := r.insertTokenLocked(next); err != nil {
		return err
	}

	nextID := next.ID
	old.Revoked = true
	old.ReplacedByID = &nextID
	r.s.tokens[oldID] = old
	return nil
}

func (r *refreshTokenRepository) Revoke(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if t, ok := r.s.tokens[id]; ok && !t.Revoked {
		t.Revoked = true
		r.s.tokens[id] = t
	}
	return nil
}

func (r *refreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, t := range r.s.tokens {
		if t.UserID == userID && !t.Revoked {
			t.Revoked = true
			r.s.tokens[id] = t
			n++
		}
	}
	return n, nil
}
