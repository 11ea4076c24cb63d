package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Win is a short public celebration post on the shared feed. The author is
// optional so the feed never exposes raw identities.
type Win struct {
	ID        string    `gorm:"type:char(36);primaryKey" json:"id"`
	UserID    *string   `gorm:"type:char(36)" json:"-"`
	Text      string    `gorm:"size:280;not null" json:"text"`
	Likes     int       `gorm:"default:0" json:"likes"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}

// BeforeCreate assigns a uuid primary key when missing.
func (w *Win) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}

// Win event types, recorded per hashed user for rate limiting.
const (
	WinEventPosted = "WIN_POSTED"
	WinEventLiked  = "LIKE"
)

// WinEvent is an append-only record of feed activity keyed by a sha256 hash
// of the user id. Rate limits count events in a trailing window.
type WinEvent struct {
	ID        string    `gorm:"type:char(36);primaryKey" json:"id"`
	UserHash  string    `gorm:"type:char(64);not null;index" json:"-"`
	Type      string    `gorm:"size:16;not null" json:"type"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// BeforeCreate assigns a uuid primary key when missing.
func (e *WinEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
