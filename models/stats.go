package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// BadgeList stores earned badge ids as a JSON array column.
type BadgeList []string

// Value implements driver.Valuer.
func (b BadgeList) Value() (driver.Value, error) {
	if b == nil {
		b = BadgeList{}
	}
	return json.Marshal(b)
}

// Scan implements sql.Scanner.
func (b *BadgeList) Scan(src interface{}) error {
	if src == nil {
		*b = BadgeList{}
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, b)
	case string:
		return json.Unmarshal([]byte(v), b)
	default:
		return errors.New("unsupported badge list source type")
	}
}

// Contains reports whether a badge id was already earned.
func (b BadgeList) Contains(id string) bool {
	for _, v := range b {
		if v == id {
			return true
		}
	}
	return false
}

// UserStats is a derived per-user snapshot. It is a cache over the
// assignment history, always recomputed wholesale, never patched
// incrementally, so it can be rebuilt at any time.
type UserStats struct {
	UserID        string    `gorm:"type:char(36);primaryKey" json:"user_id"`
	CurrentStreak int       `json:"current_streak"`
	LongestStreak int       `json:"longest_streak"`
	ComfortScore  int       `json:"comfort_score"`
	Badges        BadgeList `gorm:"type:json" json:"badges"`
	UpdatedAt     time.Time `json:"updated_at"`
}
