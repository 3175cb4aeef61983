package service_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dom/tekky-backend/internal/domain"
	"github.com/dom/tekky-backend/internal/repository"
	"github.com/dom/tekky-backend/internal/repository/memory"
	"github.com/dom/tekky-backend/internal/service"
	"github.com/dom/tekky-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServices wires services to a fresh in-memory store.
func newTestServices(t *testing.T, opts ...service.Option) (*service.Services, *repository.Repositories, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	repos := store.Repositories()
	return service.NewServices(repos, testutil.TestConfig(), opts...), repos, store
}

func registerInput(username string) service.RegisterInput {
	return service.RegisterInput{
		Name:     "Test " + username,
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
	}
}

func TestAuthService_Register(t *testing.T) {
	services, repos, _ := newTestServices(t)
	ctx := context.Background()

	testutil.NewUserBuilder().
		WithUsername("taken").
		WithEmail("taken@example.com").
		Build(t, repos.User)

	tests := []struct {
		name    string
		input   service.RegisterInput
		wantErr error
		wantMsg string
	}{
		{
			name:  "successful registration",
			input: registerInput("alice"),
		},
		{
			name: "email is trimmed and lowercased",
			input: service.RegisterInput{
				Name:     "Bob",
				Username: "bob",
				Email:    "  Bob@Example.COM ",
				Password: "password123",
			},
		},
		{
			name:    "missing fields",
			input:   service.RegisterInput{Name: "x", Email: "x@example.com", Password: "p"},
			wantErr: domain.ErrValidation,
			wantMsg: "All fields are required",
		},
		{
			name:    "whitespace only username",
			input:   service.RegisterInput{Name: "x", Username: "   ", Email: "x@example.com", Password: "p"},
			wantErr: domain.ErrValidation,
			wantMsg: "All fields are required",
		},
		{
			name:    "username shaped like an email",
			input:   service.RegisterInput{Name: "Squatter", Username: "taken@example.com", Email: "squat@example.com", Password: "password123"},
			wantErr: domain.ErrValidation,
			wantMsg: "Invalid username",
		},
		{
			name:    "username too short",
			input:   service.RegisterInput{Name: "Short", Username: "ab", Email: "short@example.com", Password: "password123"},
			wantErr: domain.ErrValidation,
			wantMsg: "Invalid username",
		},
		{
			name: "email already registered",
			input: service.RegisterInput{
				Name:     "Other",
				Username: "other",
				Email:    "TAKEN@example.com",
				Password: "password123",
			},
			wantErr: domain.ErrConflict,
			wantMsg: "Email already registered",
		},
		{
			name: "username already taken",
			input: service.RegisterInput{
				Name:     "Other",
				Username: "taken",
				Email:    "fresh@example.com",
				Password: "password123",
			},
			wantErr: domain.ErrConflict,
			wantMsg: "Username already taken",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := services.Auth.Register(ctx, tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.wantMsg, domain.Message(err, ""))
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, result.AccessToken)
			assert.NotEmpty(t, result.RefreshToken)
			assert.Equal(t, 0, result.User.XP)
			assert.NotEqual(t, "password123", result.User.PasswordHash)

			stored, err := repos.User.GetByID(ctx, result.User.ID)
			require.NoError(t, err)
			assert.Equal(t, strings.ToLower(strings.TrimSpace(tt.input.Email)), stored.Email)
		})
	}
}

func TestAuthService_LoginEmailWinsOverMatchingUsername(t *testing.T) {
	// Map iteration order in the memory store varies per run, so repeat on
	// fresh stores.
	for i := 0; i < 20; i++ {
		services, repos, _ := newTestServices(t)
		ctx := context.Background()

		victim, password := testutil.NewUserBuilder().
			WithUsername("victim").
			WithEmail("victim@example.com").
			Build(t, repos.User)

		// Rows written before usernames were validated can still hold an "@".
		testutil.NewUserBuilder().
			WithUsername("victim@example.com").
			WithEmail("squatter@example.com").
			Build(t, repos.User)

		result, err := services.Auth.Login(ctx, service.LoginInput{Identifier: "victim@example.com", Password: password})
		require.NoError(t, err, "attempt %d", i+1)
		assert.Equal(t, victim.ID, result.User.ID)
	}
}

func TestAuthService_Login(t *testing.T) {
	services, repos, _ := newTestServices(t)
	ctx := context.Background()

	user, password := testutil.NewUserBuilder().
		WithUsername("carol").
		WithEmail("carol@example.com").
		Build(t, repos.User)

	t.Run("by email, case insensitive", func(t *testing.T) {
		result, err := services.Auth.Login(ctx, service.LoginInput{Identifier: "Carol@Example.com", Password: password})
		require.NoError(t, err)
		assert.Equal(t, user.ID, result.User.ID)
		assert.NotEmpty(t, result.AccessToken)
		assert.NotEmpty(t, result.RefreshToken)
	})

	t.Run("by username", func(t *testing.T) {
		result, err := services.Auth.Login(ctx, service.LoginInput{Identifier: "carol", Password: password})
		require.NoError(t, err)
		assert.Equal(t, user.ID, result.User.ID)
	})

	t.Run("unknown identifier and wrong password are indistinguishable", func(t *testing.T) {
		_, unknownErr := services.Auth.Login(ctx, service.LoginInput{Identifier: "nobody", Password: password})
		_, wrongErr := services.Auth.Login(ctx, service.LoginInput{Identifier: "carol", Password: "wrong-password"})

		require.ErrorIs(t, unknownErr, domain.ErrInvalidCredentials)
		require.ErrorIs(t, wrongErr, domain.ErrInvalidCredentials)
		assert.Equal(t, unknownErr.Error(), wrongErr.Error())
	})

	t.Run("empty credentials", func(t *testing.T) {
		_, err := services.Auth.Login(ctx, service.LoginInput{})
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})
}

func TestAuthService_Login_DailyRewardOncePerDay(t *testing.T) {
	clock := testutil.NewClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	services, repos, store := newTestServices(t, service.WithClock(clock.Now))
	ctx := context.Background()

	user, password := testutil.NewUserBuilder().Build(t, repos.User)
	login := service.LoginInput{Identifier: user.Username, Password: password}

	first, err := services.Auth.Login(ctx, login)
	require.NoError(t, err)
	assert.Equal(t, 5, first.Reward.XPGained)
	assert.False(t, first.Reward.AlreadyClaimed)
	assert.Equal(t, 5, first.User.XP)

	clock.Advance(3 * time.Hour)
	second, err := services.Auth.Login(ctx, login)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Reward.XPGained)
	assert.True(t, second.Reward.AlreadyClaimed)
	assert.Equal(t, 5, second.User.XP)

	clock.Advance(24 * time.Hour)
	third, err := services.Auth.Login(ctx, login)
	require.NoError(t, err)
	assert.Equal(t, 5, third.Reward.XPGained)
	assert.Equal(t, 10, third.User.XP)

	assert.Len(t, store.XPLogs(user.ID), 2)
}

func TestAuthService_Refresh_RotatesSingleUse(t *testing.T) {
	services, _, _ := newTestServices(t)
	ctx := context.Background()

	registered, err := services.Auth.Register(ctx, registerInput("dave"))
	require.NoError(t, err)

	rotated, err := services.Auth.Refresh(ctx, registered.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, registered.RefreshToken, rotated.RefreshToken)
	assert.NotEmpty(t, rotated.AccessToken)
	assert.Equal(t, registered.User.ID, rotated.User.ID)

	_, err = services.Auth.Refresh(ctx, registered.RefreshToken)
	require.ErrorIs(t, err, domain.ErrTokenRevoked)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	again, err := services.Auth.Refresh(ctx, rotated.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, rotated.RefreshToken, again.RefreshToken)
}

func TestAuthService_Refresh_ConcurrentSingleWinner(t *testing.T) {
	services, _, _ := newTestServices(t)
	ctx := context.Background()

	registered, err := services.Auth.Register(ctx, registerInput("erin"))
	require.NoError(t, err)

	const attempts = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		failures  []error
	)
	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := services.Auth.Refresh(ctx, registered.RefreshToken)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else {
				failures = append(failures, err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Len(t, failures, attempts-1)
	for _, err := range failures {
		assert.ErrorIs(t, err, domain.ErrInvalidToken)
	}
}

func TestAuthService_Refresh_Errors(t *testing.T) {
	clock := testutil.NewClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	services, _, _ := newTestServices(t, service.WithClock(clock.Now))
	ctx := context.Background()

	registered, err := services.Auth.Register(ctx, registerInput("frank"))
	require.NoError(t, err)

	t.Run("missing token", func(t *testing.T) {
		_, err := services.Auth.Refresh(ctx, "")
		require.ErrorIs(t, err, domain.ErrValidation)
		assert.Equal(t, "No refresh token provided", domain.Message(err, ""))
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := services.Auth.Refresh(ctx, "not-a-real-token")
		assert.ErrorIs(t, err, domain.ErrTokenNotFound)
	})

	t.Run("expired token", func(t *testing.T) {
		clock.Advance(31 * 24 * time.Hour)
		_, err := services.Auth.Refresh(ctx, registered.RefreshToken)
		assert.ErrorIs(t, err, domain.ErrTokenExpired)
	})
}

func TestAuthService_Logout(t *testing.T) {
	services, _, _ := newTestServices(t)
	ctx := context.Background()

	registered, err := services.Auth.Register(ctx, registerInput("gina"))
	require.NoError(t, err)

	require.NoError(t, services.Auth.Logout(ctx, registered.RefreshToken))
	require.NoError(t, services.Auth.Logout(ctx, registered.RefreshToken), "second logout must succeed")
	require.NoError(t, services.Auth.Logout(ctx, "never-issued"))

	_, err = services.Auth.Refresh(ctx, registered.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrTokenRevoked)

	err = services.Auth.Logout(ctx, "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAuthService_CheckUsername(t *testing.T) {
	services, repos, _ := newTestServices(t)
	ctx := context.Background()

	testutil.NewUserBuilder().WithUsername("henry").Build(t, repos.User)

	tests := []struct {
		name      string
		username  string
		available bool
		wantErr   bool
	}{
		{name: "free", username: "someone", available: true},
		{name: "taken", username: "henry", available: false},
		{name: "taken with padding", username: "  henry ", available: false},
		{name: "too short", username: "ab", wantErr: true},
		{name: "too short after trim", username: "  ab  ", wantErr: true},
		{name: "contains at sign", username: "henry@example.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			available, err := services.Auth.CheckUsername(ctx, tt.username)
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrValidation)
				assert.Equal(t, "Invalid username", domain.Message(err, ""))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.available, available)
		})
	}
}

func TestAuthService_VerifyAccessToken(t *testing.T) {
	services, _, _ := newTestServices(t)
	ctx := context.Background()

	registered, err := services.Auth.Register(ctx, registerInput("ivan"))
	require.NoError(t, err)

	userID, err := services.Auth.VerifyAccessToken(registered.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, userID)

	_, err = services.Auth.VerifyAccessToken(registered.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	_, err = services.Auth.GetUserByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// TestAuthService_FullScenario walks register, two logins on one day,
// a rotation and a logout.
func TestAuthService_FullScenario(t *testing.T) {
	clock := testutil.NewClock(time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC))
	services, _, _ := newTestServices(t, service.WithClock(clock.Now))
	ctx := context.Background()

	input := registerInput("alice")
	_, err := services.Auth.Register(ctx, input)
	require.NoError(t, err)

	first, err := services.Auth.Login(ctx, service.LoginInput{Identifier: input.Email, Password: input.Password})
	require.NoError(t, err)
	assert.Equal(t, 5, first.Reward.XPGained)
	assert.Equal(t, 5, first.Reward.XP)
	assert.Equal(t, domain.LevelForXP(5), first.Reward.Level)

	clock.Advance(time.Hour)
	second, err := services.Auth.Login(ctx, service.LoginInput{Identifier: input.Username, Password: input.Password})
	require.NoError(t, err)
	assert.True(t, second.Reward.AlreadyClaimed)
	assert.Equal(t, 0, second.Reward.XPGained)
	assert.Equal(t, 5, second.Reward.XP)

	rotated, err := services.Auth.Refresh(ctx, second.RefreshToken)
	require.NoError(t, err)

	_, err = services.Auth.Refresh(ctx, second.RefreshToken)
	require.ErrorIs(t, err, domain.ErrInvalidToken)

	require.NoError(t, services.Auth.Logout(ctx, rotated.RefreshToken))

	_, err = services.Auth.Refresh(ctx, rotated.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}
