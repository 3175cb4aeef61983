package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Email        string     `json:"email" gorm:"uniqueIndex;not null"`
	Username     string     `json:"username" gorm:"uniqueIndex;not null"`
	Name         string     `json:"name" gorm:"not null"`
	PasswordHash string     `json:"-" gorm:"column:password;not null"`
	AvatarURL    *string    `json:"avatarUrl" gorm:"column:avatar_url"`
	Bio          *string    `json:"bio"`
	XP           int        `json:"xp" gorm:"column:xp;not null;default:0"`
	Level        int        `json:"level" gorm:"not null;default:0"`
	LastDailyXP  *time.Time `json:"lastDailyXP" gorm:"column:last_daily_xp"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// UserSummary is the public projection of a user embedded in other resources.
type UserSummary struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	AvatarURL *string   `json:"avatarUrl"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:        u.ID,
		Name:      u.Name,
		Username:  u.Username,
		AvatarURL: u.AvatarURL,
	}
}

// RefreshToken is the persisted half of a refresh credential. Only the
// SHA-256 digest of the secret handed to the client is stored.
type RefreshToken struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TokenHash    string     `json:"-" gorm:"size:64;uniqueIndex;not null"`
	UserID       uuid.UUID  `json:"userId" gorm:"type:uuid;not null;index"`
	ExpiresAt    time.Time  `json:"expiresAt" gorm:"not null;index"`
	Revoked      bool       `json:"revoked" gorm:"not null;default:false"`
	ReplacedByID *uuid.UUID `json:"replacedById" gorm:"column:replaced_by_id;type:uuid;index"`
	CreatedAt    time.Time  `json:"createdAt"`

	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

// IsExpired reports whether the token is past its expiry at now.
func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
