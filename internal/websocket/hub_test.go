package websocket_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dom/tekky-backend/internal/domain"
	"github.com/dom/tekky-backend/internal/websocket"
	"github.com/google/uuid"
	gorillaWS "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newHubServer serves connections for the user id given in the "user"
// query parameter.
func newHubServer(t *testing.T) (*websocket.Hub, *httptest.Server) {
	t.Helper()

	hub := websocket.NewHub()
	go hub.Run()

	upgrader := gorillaWS.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(r.URL.Query().Get("user"))
		if err != nil {
			http.Error(w, "bad user", http.StatusBadRequest)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := websocket.NewClient(hub, conn, userID)
		hub.Register(client)
		go client.WritePump()
		go client.ReadPump()
	}))

	t.Cleanup(func() {
		server.Close()
		hub.Stop()
	})
	return hub, server
}

func dial(t *testing.T, server *httptest.Server, userID uuid.UUID) *gorillaWS.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "?user=" + userID.String()
	conn, _, err := gorillaWS.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *gorillaWS.Conn) websocket.Message {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg websocket.Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func waitForConnections(t *testing.T, hub *websocket.Hub, userID uuid.UUID, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return hub.ConnectionCount(userID) == n
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHub_NotifyReachesEveryConnectionOfUser(t *testing.T) {
	hub, server := newHubServer(t)

	alice := uuid.New()
	bob := uuid.New()

	tab1 := dial(t, server, alice)
	tab2 := dial(t, server, alice)
	bobConn := dial(t, server, bob)
	waitForConnections(t, hub, alice, 2)
	waitForConnections(t, hub, bob, 1)

	payload := domain.LevelUpPayload{Level: 2, XP: 200}
	hub.Notify(alice, domain.Notification{Type: domain.NotificationLevelUp, Payload: payload})

	for _, conn := range []*gorillaWS.Conn{tab1, tab2} {
		msg := readMessage(t, conn)
		assert.Equal(t, websocket.MessageTypeLevelUp, msg.Type)

		var got domain.LevelUpPayload
		require.NoError(t, json.Unmarshal(msg.Payload, &got))
		assert.Equal(t, payload, got)
	}

	require.NoError(t, bobConn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := bobConn.ReadMessage()
	assert.Error(t, err, "bob must not receive alice's notification")
}

func TestHub_PingPong(t *testing.T) {
	hub, server := newHubServer(t)

	userID := uuid.New()
	conn := dial(t, server, userID)
	waitForConnections(t, hub, userID, 1)

	ping, err := json.Marshal(websocket.Message{Type: websocket.MessageTypePing})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(gorillaWS.TextMessage, ping))

	msg := readMessage(t, conn)
	assert.Equal(t, websocket.MessageTypePong, msg.Type)
}

func TestHub_UnregisterOnDisconnect(t *testing.T) {
	hub, server := newHubServer(t)

	userID := uuid.New()
	conn := dial(t, server, userID)
	waitForConnections(t, hub, userID, 1)

	require.NoError(t, conn.Close())
	waitForConnections(t, hub, userID, 0)

	// Notifying a user without connections is a no-op.
	hub.Notify(userID, domain.Notification{Type: domain.NotificationNewFollower})
}

func TestHub_StopClosesConnections(t *testing.T) {
	hub, server := newHubServer(t)

	userID := uuid.New()
	conn := dial(t, server, userID)
	waitForConnections(t, hub, userID, 1)

	hub.Stop()
	hub.Stop()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	assert.Zero(t, hub.ConnectionCount(userID))
}
