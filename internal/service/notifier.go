package service

import (
	"github.com/dom/tekky-backend/internal/domain"
	"github.com/google/uuid"
)

// Notifier delivers best-effort notifications to a user's live connections.
// Implementations must not block.
type Notifier interface {
	Notify(userID uuid.UUID, n domain.Notification)
}

type noopNotifier struct{}

func (noopNotifier) Notify(uuid.UUID, domain.Notification) {}
