package websocket

import (
	"encoding/json"
	"time"

	"github.com/dom/tekky-backend/internal/domain"
)

type MessageType string

const (
	// Client to Server
	MessageTypePing MessageType = "PING"

	// Server to Client
	MessageTypePong          MessageType = "PONG"
	MessageTypeNewFollower   = MessageType(domain.NotificationNewFollower)
	MessageTypePostLiked     = MessageType(domain.NotificationPostLiked)
	MessageTypePostCommented = MessageType(domain.NotificationPostCommented)
	MessageTypeIdeaInterest  = MessageType(domain.NotificationIdeaInterest)
	MessageTypeLevelUp       = MessageType(domain.NotificationLevelUp)
)

type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	msg := &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
	}
	if payload != nil {
		payloadBytes, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		msg.Payload = payloadBytes
	}
	return msg, nil
}
