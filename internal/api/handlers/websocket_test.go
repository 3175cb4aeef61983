package handlers_test

import (
	"bytes"
	"log"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dom/tekky-backend/internal/api/handlers"
	"github.com/dom/tekky-backend/internal/domain"
	"github.com/dom/tekky-backend/internal/testutil"
	"github.com/dom/tekky-backend/internal/websocket"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	gorillaWS "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connectNotifications(t *testing.T, ts *testutil.TestServer, auth *testutil.AuthResponse) *testutil.WSClient {
	t.Helper()

	client := testutil.NewWSClient(t, ts.WebSocketURL(auth.AccessToken))
	require.Eventually(t, func() bool {
		return ts.Hub.ConnectionCount(auth.User.ID) == 1
	}, 2*time.Second, 10*time.Millisecond)
	return client
}

func TestWebSocketHandler_RejectsBadTokens(t *testing.T) {
	ts := testutil.NewTestServer(t)

	tests := []struct {
		name            string
		token           string
		expectedMessage string
	}{
		{name: "missing token", token: "", expectedMessage: "Unauthorized"},
		{name: "invalid token", token: "garbage", expectedMessage: "Unauthorized"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, resp, err := gorillaWS.DefaultDialer.Dial(ts.WebSocketURL(tt.token), nil)
			if conn != nil {
				conn.Close()
			}
			require.Error(t, err)
			require.NotNil(t, resp)
			defer resp.Body.Close()
			testutil.AssertErrorResponse(t, resp, http.StatusUnauthorized, tt.expectedMessage)
		})
	}
}

func TestWebSocketHandler_BearerSubprotocol(t *testing.T) {
	ts := testutil.NewTestServer(t)
	auth := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	t.Run("valid token", func(t *testing.T) {
		client := testutil.NewWSClientWithProtocols(t, ts.WebSocketBaseURL(), []string{handlers.BearerProtocol, auth.AccessToken})
		require.Eventually(t, func() bool {
			return ts.Hub.ConnectionCount(auth.User.ID) == 1
		}, 2*time.Second, 10*time.Millisecond)
		assert.Equal(t, handlers.BearerProtocol, client.Subprotocol())

		client.Ping()
		client.ExpectMessage(websocket.MessageTypePong, 2*time.Second)
	})

	t.Run("invalid token", func(t *testing.T) {
		dialer := *gorillaWS.DefaultDialer
		dialer.Subprotocols = []string{handlers.BearerProtocol, "garbage"}
		conn, resp, err := dialer.Dial(ts.WebSocketBaseURL(), nil)
		if conn != nil {
			conn.Close()
		}
		require.Error(t, err)
		require.NotNil(t, resp)
		defer resp.Body.Close()
		testutil.AssertErrorResponse(t, resp, http.StatusUnauthorized, "Unauthorized")
	})
}

// syncBuffer is written by the server's request logger and read by the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWebSocketHandler_TokenNotLogged(t *testing.T) {
	logs := &syncBuffer{}
	previous := chiMiddleware.DefaultLogger
	chiMiddleware.DefaultLogger = chiMiddleware.RequestLogger(&chiMiddleware.DefaultLogFormatter{
		Logger:  log.New(logs, "", 0),
		NoColor: true,
	})
	t.Cleanup(func() { chiMiddleware.DefaultLogger = previous })

	ts := testutil.NewTestServer(t)
	auth := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	connectNotifications(t, ts, auth)

	require.Eventually(t, func() bool {
		return strings.Contains(logs.String(), "/api/ws")
	}, 2*time.Second, 10*time.Millisecond)
	assert.NotContains(t, logs.String(), auth.AccessToken)
	assert.NotContains(t, logs.String(), "token=")
}

func TestWebSocketHandler_PingPong(t *testing.T) {
	ts := testutil.NewTestServer(t)
	auth := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	client := connectNotifications(t, ts, auth)
	client.Ping()
	client.ExpectMessage(websocket.MessageTypePong, 2*time.Second)
}

func TestWebSocketHandler_SocialNotifications(t *testing.T) {
	ts := testutil.NewTestServer(t)
	author := testutil.NewUserBuilder().WithUsername("ws_author").BuildAndAuthenticate(t, ts)
	fan := testutil.NewUserBuilder().WithUsername("ws_fan").BuildAndAuthenticate(t, ts)

	authorWS := connectNotifications(t, ts, author)
	fanWS := connectNotifications(t, ts, fan)

	follow := testutil.DoJSON(t, http.MethodPost, ts.APIURL("/profile/"+author.User.ID.String()+"/follow"), nil, fan.AccessToken)
	follow.Body.Close()
	require.Equal(t, http.StatusOK, follow.StatusCode)

	var followed domain.NewFollowerPayload
	authorWS.ExpectPayload(websocket.MessageTypeNewFollower, &followed, 2*time.Second)
	assert.Equal(t, fan.User.ID, followed.Follower.ID)
	assert.Equal(t, "ws_fan", followed.Follower.Username)

	post := createPost(t, ts, author.AccessToken, "notify me")

	like := testutil.DoJSON(t, http.MethodPost, ts.APIURL("/posts/"+post.ID.String()+"/like"), nil, fan.AccessToken)
	like.Body.Close()
	require.Equal(t, http.StatusOK, like.StatusCode)

	var liked domain.PostLikedPayload
	authorWS.ExpectPayload(websocket.MessageTypePostLiked, &liked, 2*time.Second)
	assert.Equal(t, post.ID, liked.PostID)
	assert.Equal(t, fan.User.ID, liked.By.ID)

	comment := testutil.DoJSON(t, http.MethodPost, ts.APIURL("/comments/"+post.ID.String()), map[string]string{"content": "hi"}, fan.AccessToken)
	comment.Body.Close()
	require.Equal(t, http.StatusCreated, comment.StatusCode)

	var commented domain.PostCommentedPayload
	authorWS.ExpectPayload(websocket.MessageTypePostCommented, &commented, 2*time.Second)
	assert.Equal(t, post.ID, commented.PostID)

	// The actor is never notified about their own actions.
	fanWS.ExpectNoMessage(200 * time.Millisecond)
}

func TestWebSocketHandler_LevelUpOnLogin(t *testing.T) {
	ts := testutil.NewTestServer(t)

	builder := testutil.NewUserBuilder().WithXP(47).WithPassword("levelpassword")
	user, password := builder.Build(t, ts.Repos.User)

	token, err := ts.Services.AccessTokens.Issue(user)
	require.NoError(t, err)
	client := testutil.NewWSClient(t, ts.WebSocketURL(token))
	require.Eventually(t, func() bool {
		return ts.Hub.ConnectionCount(user.ID) == 1
	}, 2*time.Second, 10*time.Millisecond)

	login := testutil.DoJSON(t, http.MethodPost, ts.APIURL("/auth/login"), map[string]string{
		"identifier": user.Username,
		"password":   password,
	}, "")
	login.Body.Close()
	require.Equal(t, http.StatusOK, login.StatusCode)

	var levelUp domain.LevelUpPayload
	client.ExpectPayload(websocket.MessageTypeLevelUp, &levelUp, 2*time.Second)
	assert.Equal(t, domain.LevelUpPayload{Level: 1, XP: 52}, levelUp)
}

func TestWebSocketHandler_ClosedOnShutdown(t *testing.T) {
	ts := testutil.NewTestServer(t)
	auth := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	client := connectNotifications(t, ts, auth)
	ts.Hub.Stop()
	client.ExpectClosed(2 * time.Second)
}
