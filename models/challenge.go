package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Challenge categories. The set is fixed; seed data and admin tooling must
// stay inside it.
const (
	CategoryAwareness   = "awareness"
	CategoryPrivate     = "private"
	CategoryVisual      = "visual"
	CategoryInteraction = "interaction"
	CategoryShare       = "share"
	CategoryReflect     = "reflect"
)

// Categories lists every valid challenge category.
var Categories = []string{
	CategoryAwareness,
	CategoryPrivate,
	CategoryVisual,
	CategoryInteraction,
	CategoryShare,
	CategoryReflect,
}

// ValidCategory reports whether c is one of the fixed categories.
func ValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// Challenge is a seeded template. Read-only from the engine's perspective.
type Challenge struct {
	ID         string    `gorm:"type:char(36);primaryKey" json:"id"`
	Slug       string    `gorm:"size:120;uniqueIndex;not null" json:"slug"`
	Category   string    `gorm:"size:32;not null;index" json:"category"`
	Difficulty int       `gorm:"not null" json:"difficulty"`
	Text       string    `gorm:"size:500;not null" json:"text"`
	IsActive   bool      `gorm:"default:true" json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// BeforeCreate assigns a uuid primary key when missing.
func (c *Challenge) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
