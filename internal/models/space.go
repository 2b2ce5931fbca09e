package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Space is a named collection of widgets owned by one user.
type Space struct {
	ID           string      `gorm:"primaryKey;type:char(36)"`
	Name         string      `gorm:"size:100;not null"`
	Description  string      `gorm:"type:text"`
	OwnerID      string      `gorm:"type:char(36);not null;index"`
	Owner        User        `gorm:"constraint:OnDelete:CASCADE"`
	Access       SpaceAccess `gorm:"not null;default:1;index"`
	IsHomepage   bool        `gorm:"not null;default:false"`
	ClonedFromID *string     `gorm:"type:char(36);index"`
	ClonedFrom   *Space      `gorm:"constraint:OnDelete:SET NULL"`
	BookmarkedBy []User      `gorm:"many2many:space_bookmarks;constraint:OnDelete:CASCADE"`
	Widgets      []Widget    `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsPublic reports whether anyone may read the space.
func (s *Space) IsPublic() bool {
	return s.Access == SpaceAccessPublic
}

// BeforeCreate assigns a UUID primary key
func (s *Space) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// TableName overrides the table name for Space
func (Space) TableName() string {
	return "spaces"
}
