package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dom/tekky-backend/internal/domain"
	"github.com/dom/tekky-backend/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// refreshSecretBytes is the entropy of a raw refresh token before hex encoding.
const refreshSecretBytes = 48

// maxChainLength bounds Chain walks over corrupted data.
const maxChainLength = 10000

// AccessTokenIssuer signs and verifies the short-lived HS256 access tokens.
// It keeps no state beyond the signing key.
type AccessTokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAccessTokenIssuer(secret string, ttl time.Duration, now func() time.Time) *AccessTokenIssuer {
	if now == nil {
		now = time.Now
	}
	return &AccessTokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    now,
	}
}

func (i *AccessTokenIssuer) Issue(user *domain.User) (string, error) {
	now := i.now()
	claims := jwt.MapClaims{
		"sub": user.ID.String(),
		"jti": uuid.New().String(),
		"iat": now.Unix(),
		"exp": now.Add(i.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Verify checks the signature and expiry of tokenString and returns the user
// id it was issued for. Failures are ErrTokenExpired or ErrInvalidToken.
func (i *AccessTokenIssuer) Verify(tokenString string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, domain.ErrTokenExpired
		}
		return uuid.Nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return uuid.Nil, fmt.Errorf("%w: missing subject", domain.ErrInvalidToken)
	}

	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: malformed subject", domain.ErrInvalidToken)
	}
	return userID, nil
}

// GenerateSecret returns a fresh raw refresh token: 48 random bytes, hex encoded.
func GenerateSecret() (string, error) {
	b := make([]byte, refreshSecretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// HashToken returns the hex SHA-256 digest under which a refresh token is stored.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// RefreshTokenManager owns the persisted refresh tokens. The raw secret is
// returned exactly once, at issue or rotation; only its hash is stored.
type RefreshTokenManager struct {
	repo repository.RefreshTokenRepository
	ttl  time.Duration
	now  func() time.Time
}

func NewRefreshTokenManager(repo repository.RefreshTokenRepository, ttl time.Duration, now func() time.Time) *RefreshTokenManager {
	if now == nil {
		now = time.Now
	}
	return &RefreshTokenManager{
		repo: repo,
		ttl:  ttl,
		now:  now,
	}
}

func (m *RefreshTokenManager) newRecord(userID uuid.UUID) (string, *domain.RefreshToken, error) {
	raw, err := GenerateSecret()
	if err != nil {
		return "", nil, err
	}

	now := m.now().UTC()
	return raw, &domain.RefreshToken{
		ID:        uuid.New(),
		TokenHash: HashToken(raw),
		UserID:    userID,
		ExpiresAt: now.Add(m.ttl),
		CreatedAt: now,
	}, nil
}

// Issue creates and stores a new refresh token for userID.
func (m *RefreshTokenManager) Issue(ctx context.Context, userID uuid.UUID) (string, *domain.RefreshToken, error) {
	raw, record, err := m.newRecord(userID)
	if err != nil {
		return "", nil, err
	}

	if err := m.repo.Create(ctx, record); err != nil {
		return "", nil, err
	}
	return raw, record, nil
}

// Lookup finds the record of a raw refresh token whatever its state.
func (m *RefreshTokenManager) Lookup(ctx context.Context, raw string) (*domain.RefreshToken, error) {
	if raw == "" {
		return nil, domain.ErrTokenNotFound
	}

	record, err := m.repo.GetByHash(ctx, HashToken(raw))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, err
	}
	return record, nil
}

// Verify resolves a raw refresh token to its live record.
func (m *RefreshTokenManager) Verify(ctx context.Context, raw string) (*domain.RefreshToken, error) {
	record, err := m.Lookup(ctx, raw)
	if err != nil {
		return nil, err
	}

	if record.Revoked {
		if record.ReplacedByID != nil {
			log.Printf("WARN [tokens.Verify] rotated refresh token %s presented again for user %s (replaced by %s), possible token theft",
				record.ID, record.UserID, *record.ReplacedByID)
		}
		return nil, domain.ErrTokenRevoked
	}

	if record.IsExpired(m.now()) {
		return nil, domain.ErrTokenExpired
	}

	return record, nil
}

// Rotate revokes old and issues its successor in one store transaction.
// When two callers rotate the same token only one succeeds; the other gets
// ErrTokenRevoked.
func (m *RefreshTokenManager) Rotate(ctx context.Context, old *domain.RefreshToken) (string, *domain.RefreshToken, error) {
	raw, next, err := m.newRecord(old.UserID)
	if err != nil {
		return "", nil, err
	}

	if err := m.repo.Rotate(ctx, old.ID, next); err != nil {
		switch {
		case errors.Is(err, repository.ErrConditionFailed):
			log.Printf("WARN [tokens.Rotate] refresh token %s for user %s was rotated concurrently", old.ID, old.UserID)
			return "", nil, domain.ErrTokenRevoked
		case errors.Is(err, repository.ErrNotFound):
			return "", nil, domain.ErrTokenNotFound
		default:
			return "", nil, err
		}
	}

	return raw, next, nil
}

// Revoke marks record revoked. Revoking an already revoked token is a no-op.
func (m *RefreshTokenManager) Revoke(ctx context.Context, record *domain.RefreshToken) error {
	return m.repo.Revoke(ctx, record.ID)
}

func (m *RefreshTokenManager) RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return m.repo.RevokeAllForUser(ctx, userID)
}

// Chain follows replacedById links forward from tokenID and returns every
// token on the way, starting with tokenID itself.
func (m *RefreshTokenManager) Chain(ctx context.Context, tokenID uuid.UUID) ([]*domain.RefreshToken, error) {
	first, err := m.repo.GetByID(ctx, tokenID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NewNotFoundError("Token not found")
		}
		return nil, err
	}

	chain := []*domain.RefreshToken{first}
	seen := map[uuid.UUID]bool{first.ID: true}
	for current := first; current.ReplacedByID != nil && len(chain) < maxChainLength; {
		if seen[*current.ReplacedByID] {
			return nil, fmt.Errorf("refresh token chain loops at %s", *current.ReplacedByID)
		}

		next, err := m.repo.GetByID(ctx, *current.ReplacedByID)
		if err != nil {
			return nil, fmt.Errorf("follow chain from %s: %w", current.ID, err)
		}
		seen[next.ID] = true
		chain = append(chain, next)
		current = next
	}
	return chain, nil
}
