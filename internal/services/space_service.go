package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/localnerve/homespace/internal/database"
	"github.com/localnerve/homespace/internal/models"
	"github.com/localnerve/homespace/internal/types"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/hints"
)

const (
	maxSpaceNameLen = 100
	cloneSuffix     = " (clone)"
)

// SpaceFilter narrows a space listing
type SpaceFilter struct {
	IsHomepage *bool
}

// SpaceInput is the payload for creating a space. Any owner sent by the client is ignored.
type SpaceInput struct {
	Name        string
	Description string
	Access      models.SpaceAccess
	IsHomepage  bool
}

// SpacePatch is a partial update; nil fields are left unchanged.
type SpacePatch struct {
	Name        *string
	Description *string
	Access      *models.SpaceAccess
	IsHomepage  *bool
}

// SpaceService implements space reads, writes, bookmarks and cloning.
type SpaceService struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

// NewSpaceService creates a space service
func NewSpaceService(db *gorm.DB, log *zap.Logger) *SpaceService {
	return &SpaceService{DB: db, Logger: log.Named("spaces")}
}

// List returns the spaces the viewer may read: their own plus every public one.
func (s *SpaceService) List(ctx context.Context, viewer *models.User, filter SpaceFilter) ([]SpaceSummary, error) {
	q := s.DB.WithContext(ctx).
		Clauses(hints.Comment("select", "spaces.list")).
		Scopes(readableSpaces(viewer))
	if filter.IsHomepage != nil {
		q = q.Where("spaces.is_homepage = ?", *filter.IsHomepage)
	}

	var spaces []models.Space
	if err := q.Order("spaces.created_at, spaces.id").Find(&spaces).Error; err != nil {
		return nil, fmt.Errorf("list spaces: %w", err)
	}
	return buildSummaries(ctx, s.DB, viewer, spaces)
}

// Get returns a readable space with its widgets. Unreadable spaces are NotFound.
func (s *SpaceService) Get(ctx context.Context, viewer *models.User, id string) (*SpaceDetail, error) {
	space, err := findSpace(s.DB.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if !canReadSpace(viewer, space) {
		return nil, types.NotFound("Space not found")
	}
	return buildDetail(ctx, s.DB, viewer, space)
}

// Create makes a space owned by the viewer.
func (s *SpaceService) Create(ctx context.Context, viewer *models.User, in SpaceInput) (*SpaceDetail, error) {
	if err := requireUser(viewer, "create spaces"); err != nil {
		return nil, err
	}

	name, err := validSpaceName(in.Name)
	if err != nil {
		return nil, err
	}
	access := in.Access
	if access == 0 {
		access = models.SpaceAccessPrivate
	}
	if !access.Valid() {
		return nil, types.Validation("Access must be PRIVATE (1) or PUBLIC (2)")
	}

	space := &models.Space{
		Name:        name,
		Description: in.Description,
		OwnerID:     viewer.ID,
		Access:      access,
		IsHomepage:  in.IsHomepage,
	}
	if err := s.DB.WithContext(ctx).Omit(clause.Associations).Create(space).Error; err != nil {
		return nil, fmt.Errorf("create space: %w", err)
	}

	s.Logger.Info("space created", zap.String("id", space.ID), zap.String("owner", viewer.ID))
	return buildDetail(ctx, s.DB, viewer, space)
}

// Update applies patch to a space the viewer owns.
func (s *SpaceService) Update(ctx context.Context, viewer *models.User, id string, patch SpacePatch) (*SpaceDetail, error) {
	if err := requireUser(viewer, "update spaces"); err != nil {
		return nil, err
	}

	db := s.DB.WithContext(ctx)
	space, err := findSpace(db, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeSpaceWrite(viewer, space, "update"); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if patch.Name != nil {
		name, err := validSpaceName(*patch.Name)
		if err != nil {
			return nil, err
		}
		updates["name"] = name
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.Access != nil {
		if !patch.Access.Valid() {
			return nil, types.Validation("Access must be PRIVATE (1) or PUBLIC (2)")
		}
		updates["access"] = *patch.Access
	}
	if patch.IsHomepage != nil {
		updates["is_homepage"] = *patch.IsHomepage
	}

	if len(updates) > 0 {
		if err := db.Model(space).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update space: %w", err)
		}
		if space, err = findSpace(db, id); err != nil {
			return nil, err
		}
	}

	return buildDetail(ctx, s.DB, viewer, space)
}

// Delete removes a space the viewer owns, with its widgets and bookmarks.
func (s *SpaceService) Delete(ctx context.Context, viewer *models.User, id string) error {
	if err := requireUser(viewer, "delete spaces"); err != nil {
		return err
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		space, err := findSpace(tx, id)
		if err != nil {
			return err
		}
		if err := authorizeSpaceWrite(viewer, space, "delete"); err != nil {
			return err
		}
		return deleteSpacesTx(tx, []string{space.ID})
	})
	if err != nil {
		return err
	}

	s.Logger.Info("space deleted", zap.String("id", id), zap.String("owner", viewer.ID))
	return nil
}

// ToggleBookmark bookmarks a readable space for the viewer, or removes the bookmark if
// one exists, and returns the space as it now stands.
func (s *SpaceService) ToggleBookmark(ctx context.Context, viewer *models.User, id string) (*SpaceDetail, error) {
	if err := requireUser(viewer, "bookmark spaces"); err != nil {
		return nil, err
	}

	var space *models.Space
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if space, err = findSpace(forUpdate(tx), id); err != nil {
			return err
		}
		if !canReadSpace(viewer, space) {
			return types.NotFound("Space not found")
		}

		var count int64
		if err := tx.Table("space_bookmarks").
			Where("space_id = ? AND user_id = ?", space.ID, viewer.ID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("read bookmark: %w", err)
		}

		if count > 0 {
			err = tx.Exec("DELETE FROM space_bookmarks WHERE space_id = ? AND user_id = ?", space.ID, viewer.ID).Error
		} else {
			err = tx.Exec("INSERT INTO space_bookmarks (space_id, user_id) VALUES (?, ?)", space.ID, viewer.ID).Error
		}
		if err != nil {
			return fmt.Errorf("toggle bookmark: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return buildDetail(ctx, s.DB, viewer, space)
}

// Clone copies a readable space and all of its widgets into a new private space owned
// by the viewer. Either everything is copied or nothing is.
func (s *SpaceService) Clone(ctx context.Context, viewer *models.User, sourceID string) (*SpaceDetail, error) {
	if err := requireUser(viewer, "clone spaces"); err != nil {
		return nil, err
	}

	var clone *models.Space
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		source, err := findSpace(tx, sourceID)
		if err != nil {
			return err
		}
		if !canReadSpace(viewer, source) {
			return types.NotFound("Space not found")
		}

		clone = &models.Space{
			Name:         cloneName(source.Name),
			Description:  source.Description,
			OwnerID:      viewer.ID,
			Access:       models.SpaceAccessPrivate,
			IsHomepage:   false,
			ClonedFromID: &source.ID,
		}
		if err := tx.Omit(clause.Associations).Create(clone).Error; err != nil {
			return fmt.Errorf("create clone: %w", err)
		}

		var widgets []models.Widget
		if err := tx.Where("space_id = ?", source.ID).Order("created_at, id").Find(&widgets).Error; err != nil {
			return fmt.Errorf("read source widgets: %w", err)
		}
		if len(widgets) == 0 {
			return nil
		}

		copies := make([]models.Widget, 0, len(widgets))
		for _, w := range widgets {
			copies = append(copies, models.Widget{
				SpaceID:    clone.ID,
				WidgetType: w.WidgetType,
				Layout:     w.Layout,
				Content:    w.Content,
				CardStyle:  w.CardStyle,
				LinkID:     w.LinkID,
			})
		}
		if err := tx.Omit(clause.Associations).CreateInBatches(copies, 100).Error; err != nil {
			return fmt.Errorf("copy widgets: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("space cloned",
		zap.String("source", sourceID),
		zap.String("clone", clone.ID),
		zap.String("owner", viewer.ID),
	)
	return buildDetail(ctx, s.DB, viewer, clone)
}

func findSpace(db *gorm.DB, id string) (*models.Space, error) {
	var space models.Space
	err := db.Where("id = ?", id).First(&space).Error
	if database.IsNotFound(err) {
		return nil, types.NotFound("Space not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get space: %w", err)
	}
	return &space, nil
}

// forUpdate adds a row lock on dialects that support SELECT ... FOR UPDATE.
func forUpdate(tx *gorm.DB) *gorm.DB {
	switch tx.Dialector.Name() {
	case "postgres", "mysql":
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// deleteSpacesTx removes spaces and everything hanging off them. Clones of a deleted
// space survive with cloned_from cleared; users lose it as their default space.
func deleteSpacesTx(tx *gorm.DB, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Where("space_id IN ?", ids).Delete(&models.Widget{}).Error; err != nil {
		return fmt.Errorf("delete widgets: %w", err)
	}
	if err := tx.Exec("DELETE FROM space_bookmarks WHERE space_id IN ?", ids).Error; err != nil {
		return fmt.Errorf("delete bookmarks: %w", err)
	}
	if err := tx.Model(&models.Space{}).
		Where("cloned_from_id IN ?", ids).
		Update("cloned_from_id", gorm.Expr("NULL")).Error; err != nil {
		return fmt.Errorf("detach clones: %w", err)
	}
	if err := tx.Model(&models.User{}).
		Where("default_space_id IN ?", ids).
		Update("default_space_id", gorm.Expr("NULL")).Error; err != nil {
		return fmt.Errorf("clear default spaces: %w", err)
	}
	if err := tx.Where("id IN ?", ids).Delete(&models.Space{}).Error; err != nil {
		return fmt.Errorf("delete spaces: %w", err)
	}
	return nil
}

func validSpaceName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", types.Validation("Name is required")
	}
	if len([]rune(name)) > maxSpaceNameLen {
		return "", types.Validation("Name must be at most %d characters", maxSpaceNameLen)
	}
	return name, nil
}

// cloneName appends the clone suffix, trimming the source name to keep within the limit.
func cloneName(name string) string {
	runes := []rune(name)
	room := maxSpaceNameLen - len([]rune(cloneSuffix))
	if len(runes) > room {
		runes = runes[:room]
	}
	return string(runes) + cloneSuffix
}
