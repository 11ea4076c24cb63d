package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AssignmentStatus is the tagged view over the two transition timestamps.
// Exactly one transition may ever happen; Status makes the check explicit
// instead of scattering nil comparisons around.
type AssignmentStatus string

const (
	StatusPending   AssignmentStatus = "pending"
	StatusCompleted AssignmentStatus = "completed"
	StatusSkipped   AssignmentStatus = "skipped"
)

// DailyAssignment links a user to one challenge for one calendar day.
// The (user_id, assigned_date) unique index is the concurrency-correctness
// mechanism for creation: racing requests collide there, never in code.
type DailyAssignment struct {
	ID           string     `gorm:"type:char(36);primaryKey" json:"id"`
	UserID       string     `gorm:"type:char(36);not null;uniqueIndex:uniq_user_day" json:"user_id"`
	ChallengeID  string     `gorm:"type:char(36);not null" json:"challenge_id"`
	AssignedDate string     `gorm:"type:char(10);not null;uniqueIndex:uniq_user_day;index" json:"assigned_date"`
	CompletedAt  *time.Time `json:"completed_at"`
	SkippedAt    *time.Time `json:"skipped_at"`
	Note         *string    `gorm:"size:2000" json:"note"`

	Challenge *Challenge `gorm:"foreignKey:ChallengeID" json:"challenge,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Status derives the assignment state. CompletedAt wins if both are somehow
// set; the conditional update in the repository prevents that from happening.
func (a *DailyAssignment) Status() AssignmentStatus {
	switch {
	case a.CompletedAt != nil:
		return StatusCompleted
	case a.SkippedAt != nil:
		return StatusSkipped
	default:
		return StatusPending
	}
}

// BeforeCreate assigns a uuid primary key when missing.
func (a *DailyAssignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
