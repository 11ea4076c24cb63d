package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the identity anchor. Users start anonymous (a client-generated
// uuid) and may later attach an email/password credential to the same id,
// so assignments and stats survive registration.
type User struct {
	ID           string  `gorm:"type:char(36);primaryKey" json:"id"`
	Email        *string `gorm:"size:255;uniqueIndex" json:"email"`
	PasswordHash *string `gorm:"size:255" json:"-"`
	Provider     string  `gorm:"size:32" json:"provider,omitempty"`
	ProviderID   string  `gorm:"size:255" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsRegistered reports whether an email credential is attached.
func (u *User) IsRegistered() bool {
	return u.Email != nil && *u.Email != ""
}

// BeforeCreate assigns a uuid primary key when the caller did not provide one.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
