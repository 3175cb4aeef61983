package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Idea struct {
	ID          uuid.UUID                   `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	OwnerID     uuid.UUID                   `json:"ownerId" gorm:"type:uuid;not null;index"`
	Title       string                      `json:"title" gorm:"not null"`
	Description string                      `json:"description" gorm:"type:text;not null"`
	TechStacks  datatypes.JSONSlice[string] `json:"techStacks" gorm:"type:jsonb"`
	LookingFor  datatypes.JSONSlice[string] `json:"lookingFor" gorm:"type:jsonb"`
	CreatedAt   time.Time                   `json:"createdAt" gorm:"index"`

	// Relations
	Owner     *User       `json:"owner,omitempty" gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
	Interests []*Interest `json:"interests,omitempty" gorm:"foreignKey:IdeaID"`
}

// Interest records that a user wants to join someone else's idea.
type Interest struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	IdeaID    uuid.UUID `json:"ideaId" gorm:"type:uuid;not null;uniqueIndex:ux_interests_idea_user"`
	UserID    uuid.UUID `json:"userId" gorm:"type:uuid;not null;uniqueIndex:ux_interests_idea_user"`
	CreatedAt time.Time `json:"createdAt"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Idea *Idea `json:"-" gorm:"foreignKey:IdeaID;constraint:OnDelete:CASCADE"`
}
