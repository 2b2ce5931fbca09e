package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Link is a deduplicated external URL with the preview metadata captured when it was
// first resolved. URLHash carries the uniqueness constraint so the index stays small on
// every dialect regardless of URL length.
type Link struct {
	ID          string `gorm:"primaryKey;type:char(36)"`
	URL         string `gorm:"size:2000;not null"`
	URLHash     string `gorm:"type:char(64);uniqueIndex;not null"`
	Metadata    JSON
	CreatedByID string `gorm:"type:char(36);not null;index"`
	CreatedBy   User   `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HashURL returns the hex sha256 of a normalized URL, the Link dedupe key.
func HashURL(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// BeforeCreate assigns a UUID primary key and derives the dedupe hash
func (l *Link) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.URLHash == "" {
		l.URLHash = HashURL(l.URL)
	}
	return nil
}

// TableName overrides the table name for Link
func (Link) TableName() string {
	return "links"
}
