package repository

import (
	"time"

	"github.com/lib/pq"
)

type ChatSettings struct {
	ChatID               int64          `gorm:"primaryKey;autoIncrement:false"`
	LinkFilterEnabled    bool           `gorm:"not null"`
	WelcomeEnabled       bool           `gorm:"not null"`
	CleanServiceMessages bool           `gorm:"not null"`
	WebsiteLink          string         `gorm:"size:512"`
	BannedWords          pq.StringArray `gorm:"type:text[]"`
	BannedUsers          pq.Int64Array  `gorm:"type:bigint[]"`
	MutedUsers           pq.Int64Array  `gorm:"type:bigint[]"`

	// WarnCounts is filled from the warn ledger on read. Saving settings never writes it.
	WarnCounts map[int64]int `gorm:"-"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// WarnCount is the per (chat, user) infraction counter. Rows are never
// deleted, so a user keeps their count after being banned.
type WarnCount struct {
	ChatID    int64 `gorm:"primaryKey;autoIncrement:false"`
	UserID    int64 `gorm:"primaryKey;autoIncrement:false"`
	Warns     int   `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

type ChatStats struct {
	ChatID          int64     `gorm:"primaryKey;autoIncrement:false"`
	Date            time.Time `gorm:"primaryKey;type:date"`
	LinkViolations  int64     `gorm:"default:0"`
	WordViolations  int64     `gorm:"default:0"`
	FloodViolations int64     `gorm:"default:0"`
	MuteCount       int64     `gorm:"default:0"`
	BanCount        int64     `gorm:"default:0"`
	WelcomeCount    int64     `gorm:"default:0"`
}

// HasBannedUser reports whether userID was recorded as banned.
func (s ChatSettings) HasBannedUser(userID int64) bool {
	for _, id := range s.BannedUsers {
		if id == userID {
			return true
		}
	}
	return false
}

func (s ChatSettings) HasMutedUser(userID int64) bool {
	for _, id := range s.MutedUsers {
		if id == userID {
			return true
		}
	}
	return false
}
