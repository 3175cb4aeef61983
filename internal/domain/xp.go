package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	// XPPerLevelUnit scales the level curve: level n starts at n*n*XPPerLevelUnit XP.
	XPPerLevelUnit = 50

	DefaultDailyLoginXP = 5
)

// XP grant reasons recorded in the XP log.
const (
	XPReasonDailyLogin = "daily_login"
	XPReasonAdminGrant = "admin_grant"
)

// LevelForXP is the only XP to level conversion in the system:
// floor(sqrt(xp / XPPerLevelUnit)). Negative XP maps to level 0.
func LevelForXP(xp int) int {
	if xp <= 0 {
		return 0
	}
	units := xp / XPPerLevelUnit
	level := 0
	for (level+1)*(level+1) <= units {
		level++
	}
	return level
}

// XPForLevel returns the minimum XP needed to reach level.
func XPForLevel(level int) int {
	if level <= 0 {
		return 0
	}
	return level * level * XPPerLevelUnit
}

// NextLevelXP returns the XP threshold of the level after level.
func NextLevelXP(level int) int {
	return XPForLevel(level + 1)
}

// StartOfDayUTC truncates t to midnight of its UTC calendar date.
func StartOfDayUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// SameUTCDay reports whether a and b fall on the same UTC calendar date.
func SameUTCDay(a, b time.Time) bool {
	return StartOfDayUTC(a).Equal(StartOfDayUTC(b))
}

// XPGrant describes a single change to a user's XP balance.
type XPGrant struct {
	UserID uuid.UUID
	Amount int
	Reason string
	At     time.Time

	// OncePerDay makes the grant conditional on the user not having received
	// a daily grant on At's UTC date. Applying it also stamps LastDailyXP.
	OncePerDay bool
}

// XPLog is the audit row written for every applied grant.
type XPLog struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID    uuid.UUID `json:"userId" gorm:"type:uuid;not null;index"`
	Amount    int       `json:"amount" gorm:"not null"`
	Reason    string    `json:"reason" gorm:"size:50;not null"`
	CreatedAt time.Time `json:"createdAt"`

	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (XPLog) TableName() string {
	return "xp_logs"
}
