package domain

import "github.com/google/uuid"

type NotificationType string

const (
	NotificationNewFollower   NotificationType = "NEW_FOLLOWER"
	NotificationPostLiked     NotificationType = "POST_LIKED"
	NotificationPostCommented NotificationType = "POST_COMMENTED"
	NotificationIdeaInterest  NotificationType = "IDEA_INTEREST"
	NotificationLevelUp       NotificationType = "LEVEL_UP"
)

// Notification is a best-effort event pushed to a user's live connections.
type Notification struct {
	Type    NotificationType
	Payload interface{}
}

type NewFollowerPayload struct {
	Follower UserSummary `json:"follower"`
}

type PostLikedPayload struct {
	PostID uuid.UUID   `json:"postId"`
	By     UserSummary `json:"by"`
}

type PostCommentedPayload struct {
	PostID    uuid.UUID   `json:"postId"`
	CommentID uuid.UUID   `json:"commentId"`
	By        UserSummary `json:"by"`
}

type IdeaInterestPayload struct {
	IdeaID uuid.UUID   `json:"ideaId"`
	By     UserSummary `json:"by"`
}

type LevelUpPayload struct {
	Level int `json:"level"`
	XP    int `json:"xp"`
}
