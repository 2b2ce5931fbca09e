package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account that owns Spaces and Links.
// DefaultSpaceID carries no foreign key constraint so users and spaces do not reference
// each other cyclically; deleting a Space clears it explicitly.
type User struct {
	ID             string  `gorm:"primaryKey;type:char(36)"`
	Username       string  `gorm:"size:150;uniqueIndex;not null"`
	Email          string  `gorm:"size:254;uniqueIndex;not null"`
	FirstName      string  `gorm:"size:150"`
	LastName       string  `gorm:"size:150"`
	DefaultSpaceID *string `gorm:"type:char(36);index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// BeforeCreate assigns a UUID primary key
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// TableName overrides the table name for User
func (User) TableName() string {
	return "users"
}
