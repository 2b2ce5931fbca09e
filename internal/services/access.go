package services

import (
	"github.com/localnerve/homespace/internal/models"
	"github.com/localnerve/homespace/internal/types"
	"gorm.io/gorm"
)

// A nil *models.User is the anonymous viewer throughout this package.

// requireUser rejects anonymous viewers before any lookup or validation runs.
func requireUser(viewer *models.User, action string) error {
	if viewer == nil {
		return types.PermissionDenied("Authentication is required to %s.", action)
	}
	return nil
}

func ownsSpace(viewer *models.User, space *models.Space) bool {
	return viewer != nil && space.OwnerID == viewer.ID
}

// canReadSpace: PUBLIC spaces are readable by anyone, PRIVATE ones by their owner only.
func canReadSpace(viewer *models.User, space *models.Space) bool {
	return space.IsPublic() || ownsSpace(viewer, space)
}

// authorizeSpaceWrite hides unreadable spaces behind NotFound and denies readable spaces
// that the viewer does not own.
func authorizeSpaceWrite(viewer *models.User, space *models.Space, verb string) error {
	if !canReadSpace(viewer, space) {
		return types.NotFound("Space not found")
	}
	if !ownsSpace(viewer, space) {
		return types.PermissionDenied("You do not have permission to %s this space.", verb)
	}
	return nil
}

// authorizeWidgetWrite applies the parent space ownership rule to a widget.
func authorizeWidgetWrite(viewer *models.User, parent *models.Space, verb string) error {
	if !canReadSpace(viewer, parent) {
		return types.NotFound("Widget not found")
	}
	if !ownsSpace(viewer, parent) {
		return types.PermissionDenied("You do not have permission to %s this widget.", verb)
	}
	return nil
}

// readableSpaces scopes a spaces query to what the viewer may read.
func readableSpaces(viewer *models.User) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if viewer == nil {
			return db.Where("spaces.access = ?", models.SpaceAccessPublic)
		}
		return db.Where("spaces.access = ? OR spaces.owner_id = ?", models.SpaceAccessPublic, viewer.ID)
	}
}

// readableWidgets scopes a widgets query through the parent space read rule.
func readableWidgets(viewer *models.User) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return readableSpaces(viewer)(db.Joins("JOIN spaces ON spaces.id = widgets.space_id"))
	}
}
