package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dom/tekky-backend/internal/domain"
	"github.com/dom/tekky-backend/internal/service"
	"github.com/dom/tekky-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentNotification struct {
	userID uuid.UUID
	n      domain.Notification
}

// recordingNotifier keeps every notification for inspection.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (r *recordingNotifier) Notify(userID uuid.UUID, n domain.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentNotification{userID: userID, n: n})
}

func (r *recordingNotifier) ofType(typ domain.NotificationType) []sentNotification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sentNotification
	for _, s := range r.sent {
		if s.n.Type == typ {
			out = append(out, s)
		}
	}
	return out
}

func TestXPService_ClaimDaily(t *testing.T) {
	clock := testutil.NewClock(time.Date(2026, 6, 1, 23, 58, 0, 0, time.UTC))
	services, repos, store := newTestServices(t, service.WithClock(clock.Now))
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, repos.User)

	first, err := services.XP.ClaimDaily(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, &service.DailyReward{XPGained: 5, XP: 5, Level: 0}, first)

	clock.Advance(time.Minute)
	again, err := services.XP.ClaimDaily(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, &service.DailyReward{AlreadyClaimed: true, XP: 5, Level: 0}, again)

	// 00:01 the next UTC day
	clock.Advance(2 * time.Minute)
	nextDay, err := services.XP.ClaimDaily(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, nextDay.XPGained)
	assert.Equal(t, 10, nextDay.XP)

	logs := store.XPLogs(user.ID)
	require.Len(t, logs, 2)
	for _, l := range logs {
		assert.Equal(t, domain.XPReasonDailyLogin, l.Reason)
		assert.Equal(t, 5, l.Amount)
	}

	_, err = services.XP.ClaimDaily(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestXPService_ClaimDaily_ConcurrentOnce(t *testing.T) {
	services, repos, store := newTestServices(t)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, repos.User)

	const claims = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	start := make(chan struct{})
	for i := 0; i < claims; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			reward, err := services.XP.ClaimDaily(ctx, user.ID)
			if !assert.NoError(t, err) {
				return
			}
			if reward.XPGained > 0 {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, granted)

	stored, err := repos.User.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.XP)
	assert.Len(t, store.XPLogs(user.ID), 1)
}

func TestXPService_LevelUpNotification(t *testing.T) {
	notifier := &recordingNotifier{}
	services, repos, _ := newTestServices(t, service.WithNotifier(notifier))
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().WithXP(45).Build(t, repos.User)
	require.Equal(t, 0, user.Level)

	reward, err := services.XP.ClaimDaily(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, reward.XP)
	assert.Equal(t, 1, reward.Level)

	levelUps := notifier.ofType(domain.NotificationLevelUp)
	require.Len(t, levelUps, 1)
	assert.Equal(t, user.ID, levelUps[0].userID)
	assert.Equal(t, domain.LevelUpPayload{Level: 1, XP: 50}, levelUps[0].n.Payload)

	// Same level after a grant that does not cross a threshold.
	_, err = services.XP.Grant(ctx, user.ID, 10)
	require.NoError(t, err)
	assert.Len(t, notifier.ofType(domain.NotificationLevelUp), 1)
}

func TestXPService_Grant(t *testing.T) {
	services, repos, store := newTestServices(t)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().WithXP(200).Build(t, repos.User)
	require.Equal(t, 2, user.Level)

	tests := []struct {
		name      string
		amount    int
		wantXP    int
		wantLevel int
		wantErr   error
	}{
		{name: "positive grant", amount: 250, wantXP: 450, wantLevel: 3},
		{name: "negative correction", amount: -400, wantXP: 50, wantLevel: 1},
		{name: "clamped at zero", amount: -1000, wantXP: 0, wantLevel: 0},
		{name: "zero amount", amount: 0, wantErr: domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updated, err := services.XP.Grant(ctx, user.ID, tt.amount)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantXP, updated.XP)
			assert.Equal(t, tt.wantLevel, updated.Level)
		})
	}

	logs := store.XPLogs(user.ID)
	require.Len(t, logs, 3)
	assert.Equal(t, domain.XPReasonAdminGrant, logs[0].Reason)

	_, err := services.XP.Grant(ctx, uuid.New(), 5)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestXPService_Status(t *testing.T) {
	services, repos, _ := newTestServices(t)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().WithXP(60).Build(t, repos.User)

	status, err := services.XP.Status(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 60, status.XP)
	assert.Equal(t, 1, status.Level)
	assert.Equal(t, 200, status.NextLevelXP)
	assert.Nil(t, status.LastDailyXP)
}

func TestXPService_RecomputeLevels(t *testing.T) {
	services, repos, _ := newTestServices(t)
	ctx := context.Background()

	consistent, _ := testutil.NewUserBuilder().WithXP(450).Build(t, repos.User)

	stale := &domain.User{
		ID:           uuid.New(),
		Email:        "stale@example.com",
		Username:     "stale",
		Name:         "Stale",
		PasswordHash: "x",
		XP:           120,
		Level:        7,
	}
	require.NoError(t, repos.User.Create(ctx, stale))

	changed, err := services.XP.RecomputeLevels(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	got, err := repos.User.GetByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LevelForXP(120), got.Level)

	got, err = repos.User.GetByID(ctx, consistent.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Level)

	changed, err = services.XP.RecomputeLevels(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, changed)
}
