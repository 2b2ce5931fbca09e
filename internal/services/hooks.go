package services

import (
	"fmt"

	"github.com/localnerve/homespace/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultSpaceName names the space every new user starts with.
const DefaultSpaceName = "My Default Space"

// UserCreatedHook runs inside the user creation transaction, after the user row exists.
// Returning an error rolls the new user back.
type UserCreatedHook interface {
	OnUserCreated(tx *gorm.DB, user *models.User) (*models.Space, error)
}

// DefaultSpaceHook gives a new user a private starting space and makes it their default.
type DefaultSpaceHook struct {
	Name string
}

// OnUserCreated creates the space and stores it as user.DefaultSpaceID
func (h DefaultSpaceHook) OnUserCreated(tx *gorm.DB, user *models.User) (*models.Space, error) {
	name := h.Name
	if name == "" {
		name = DefaultSpaceName
	}

	space := &models.Space{
		Name:    name,
		OwnerID: user.ID,
		Access:  models.SpaceAccessPrivate,
	}
	if err := tx.Omit(clause.Associations).Create(space).Error; err != nil {
		return nil, fmt.Errorf("create default space: %w", err)
	}

	if err := tx.Model(&models.User{}).
		Where("id = ?", user.ID).
		Update("default_space_id", space.ID).Error; err != nil {
		return nil, fmt.Errorf("set default space: %w", err)
	}
	user.DefaultSpaceID = &space.ID

	return space, nil
}
