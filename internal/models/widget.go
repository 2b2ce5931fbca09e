package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Widget is a single dashboard card inside a Space. LinkID is only expected on LINK widgets.
type Widget struct {
	ID         string     `gorm:"primaryKey;type:char(36)"`
	SpaceID    string     `gorm:"type:char(36);not null;index"`
	WidgetType WidgetType `gorm:"not null"`
	Layout     JSON       `gorm:"not null"`
	Content    JSON       `gorm:"not null"`
	CardStyle  JSON       `gorm:"not null"`
	LinkID     *string    `gorm:"type:char(36);index"`
	Link       *Link      `gorm:"constraint:OnDelete:SET NULL"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// BeforeCreate assigns a UUID primary key
func (w *Widget) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}

// TableName overrides the table name for Widget
func (Widget) TableName() string {
	return "widgets"
}

// All lists every model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Link{},
		&Space{},
		&Widget{},
	}
}
