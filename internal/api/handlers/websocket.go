package handlers

import (
	"log"
	"net/http"

	"github.com/dom/tekky-backend/internal/api/middleware"
	"github.com/dom/tekky-backend/internal/websocket"
	ws "github.com/gorilla/websocket"
)

// BearerProtocol is the subprotocol name a client offers first, followed by
// its access token, e.g. new WebSocket(url, ["bearer", token]).
const BearerProtocol = "bearer"

type WebSocketHandler struct {
	hub      *websocket.Hub
	verifier middleware.TokenVerifier
	upgrader ws.Upgrader
}

func NewWebSocketHandler(hub *websocket.Hub, verifier middleware.TokenVerifier, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		hub:      hub,
		verifier: verifier,
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			Subprotocols:    []string{BearerProtocol},
			CheckOrigin: func(r *http.Request) bool {
				return middleware.AllowOrigin(allowedOrigins, r.Header.Get("Origin"))
			},
		},
	}
}

// Handle upgrades an authenticated request to a notification stream.
// Browsers cannot set headers on the handshake, so the access token comes
// either as the second offered subprotocol after "bearer" or in the token
// query parameter.
func (h *WebSocketHandler) Handle(w http.ResponseWriter, r *http.Request) {
	token := handshakeToken(r)
	if token == "" {
		log.Printf("WARN [websocket.Handle] handshake without access token")
		middleware.Unauthorized(w)
		return
	}

	userID, err := h.verifier.VerifyAccessToken(token)
	if err != nil {
		log.Printf("WARN [websocket.Handle] token validation failed: %v", err)
		middleware.Unauthorized(w)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WARN [websocket.Handle] upgrade failed for user %s: %v", userID, err)
		return
	}

	client := websocket.NewClient(h.hub, conn, userID)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}

func handshakeToken(r *http.Request) string {
	protocols := ws.Subprotocols(r)
	if len(protocols) == 2 && protocols[0] == BearerProtocol {
		return protocols[1]
	}
	return middleware.QueryToken(r.Context())
}
