package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/dom/tekky-backend/internal/domain"
	"github.com/dom/tekky-backend/internal/repository"
	"github.com/google/uuid"
)

const minUsernameLength = 3

type AuthService struct {
	userRepo repository.UserRepository
	access   *AccessTokenIssuer
	refresh  *RefreshTokenManager
	hasher   PasswordHasher
	xp       *XPService
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(userRepo repository.UserRepository, access *AccessTokenIssuer, refresh *RefreshTokenManager, hasher PasswordHasher, xp *XPService, now func() time.Time) *AuthService {
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		userRepo: userRepo,
		access:   access,
		refresh:  refresh,
		hasher:   hasher,
		xp:       xp,
		now:      now,
	}
}

type RegisterInput struct {
	Name     string
	Username string
	Email    string
	Password string
}

type LoginInput struct {
	// Identifier is either the email or the username.
	Identifier string
	Password   string
}

type AuthResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
}

type LoginResult struct {
	AuthResult
	Reward *DailyReward
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	name := strings.TrimSpace(input.Name)
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" || username == "" || email == "" || input.Password == "" {
		return nil, domain.NewValidationError("All fields are required")
	}
	if !validUsername(username) {
		return nil, domain.NewValidationError("Invalid username")
	}

	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, domain.NewConflictError("Email already registered")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if _, err := s.userRepo.GetByUsername(ctx, username); err == nil {
		return nil, domain.NewConflictError("Username already taken")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hashed, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		Username:     username,
		Name:         name,
		PasswordHash: hashed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, s.registrationConflict(ctx, email)
		}
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

// registrationConflict names the field that lost a race with a concurrent
// registration.
func (s *AuthService) registrationConflict(ctx context.Context, email string) error {
	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return domain.NewConflictError("Email already registered")
	}
	return domain.NewConflictError("Username already taken")
}

// Login authenticates by email or username and applies the daily login
// reward. Unknown identifiers and wrong passwords both return
// ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	identifier := strings.TrimSpace(input.Identifier)
	if identifier == "" || input.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	// Emails are stored lowercased.
	if strings.Contains(identifier, "@") {
		identifier = strings.ToLower(identifier)
	}

	user, err := s.userRepo.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.burnCompare(input.Password)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.hasher.Compare(user.PasswordHash, input.Password); err != nil {
		if !errors.Is(err, errPasswordMismatch) {
			log.Printf("ERROR [auth.Login] password compare for user %s: %v", user.ID, err)
		}
		return nil, domain.ErrInvalidCredentials
	}

	reward, err := s.xp.ClaimDaily(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.XP = reward.XP
	user.Level = reward.Level

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	return &LoginResult{AuthResult: *tokens, Reward: reward}, nil
}

// burnCompare spends the time of a real password check so unknown
// identifiers are not distinguishable by latency.
func (s *AuthService) burnCompare(password string) {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("tekky-placeholder-password")
		if err != nil {
			log.Printf("ERROR [auth.burnCompare] failed to build placeholder hash: %v", err)
			return
		}
		s.dummyHash = hash
	})
	if s.dummyHash != "" {
		_ = s.hasher.Compare(s.dummyHash, password)
	}
}

// Refresh exchanges a live refresh token for a new access token and a
// rotated refresh token. The presented token is unusable afterwards.
func (s *AuthService) Refresh(ctx context.Context, rawRefreshToken string) (*AuthResult, error) {
	if rawRefreshToken == "" {
		return nil, domain.NewValidationError("No refresh token provided")
	}

	record, err := s.refresh.Verify(ctx, rawRefreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}

	newRefresh, _, err := s.refresh.Rotate(ctx, record)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.access.Issue(user)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: newRefresh,
	}, nil
}

// Logout revokes the given refresh token. Unknown, expired and already
// revoked tokens are accepted silently.
func (s *AuthService) Logout(ctx context.Context, rawRefreshToken string) error {
	if rawRefreshToken == "" {
		return domain.NewValidationError("No refresh token provided")
	}

	record, err := s.refresh.Lookup(ctx, rawRefreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			return nil
		}
		return err
	}
	return s.refresh.Revoke(ctx, record)
}

// validUsername rejects names too short to be useful and names containing
// "@", which login would read as an email address.
func validUsername(username string) bool {
	return len([]rune(username)) >= minUsernameLength && !strings.Contains(username, "@")
}

// CheckUsername reports whether username is free to register.
func (s *AuthService) CheckUsername(ctx context.Context, username string) (bool, error) {
	username = strings.TrimSpace(username)
	if !validUsername(username) {
		return false, domain.NewValidationError("Invalid username")
	}

	_, err := s.userRepo.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

// VerifyAccessToken returns the user id an access token was issued for.
func (s *AuthService) VerifyAccessToken(token string) (uuid.UUID, error) {
	return s.access.Verify(token)
}

func (s *AuthService) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, userLookupError(err)
	}
	return user, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *domain.User) (*AuthResult, error) {
	accessToken, err := s.access.Issue(user)
	if err != nil {
		return nil, err
	}

	refreshToken, _, err := s.refresh.Issue(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
