package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/localnerve/homespace/internal/database"
	"github.com/localnerve/homespace/internal/models"
	"github.com/localnerve/homespace/internal/types"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/hints"
)

// WidgetInput is the payload for creating a widget. Nil documents default to {}.
type WidgetInput struct {
	SpaceID    string
	WidgetType models.WidgetType
	Layout     *models.JSON
	Content    *models.JSON
	CardStyle  *models.JSON
	LinkID     *string
}

// WidgetPatch is a partial update. LinkSet marks an explicit link value, where a nil
// LinkID clears the reference.
type WidgetPatch struct {
	WidgetType *models.WidgetType
	Layout     *models.JSON
	Content    *models.JSON
	CardStyle  *models.JSON
	LinkID     *string
	LinkSet    bool
}

// WidgetService implements widget reads and writes.
type WidgetService struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

// NewWidgetService creates a widget service
func NewWidgetService(db *gorm.DB, log *zap.Logger) *WidgetService {
	return &WidgetService{DB: db, Logger: log.Named("widgets")}
}

// List returns the widgets in readable spaces, optionally limited to one space.
func (s *WidgetService) List(ctx context.Context, viewer *models.User, spaceID string) ([]WidgetView, error) {
	q := s.DB.WithContext(ctx).
		Clauses(hints.Comment("select", "widgets.list")).
		Scopes(readableWidgets(viewer)).
		Preload("Link")
	if spaceID != "" {
		q = q.Where("widgets.space_id = ?", spaceID)
	}

	var widgets []models.Widget
	if err := q.Order("widgets.created_at, widgets.id").Find(&widgets).Error; err != nil {
		return nil, fmt.Errorf("list widgets: %w", err)
	}
	return newWidgetViews(widgets), nil
}

// Get returns a widget whose space the viewer may read.
func (s *WidgetService) Get(ctx context.Context, viewer *models.User, id string) (*WidgetView, error) {
	widget, parent, err := s.load(ctx, id, true)
	if err != nil {
		return nil, err
	}
	if !canReadSpace(viewer, parent) {
		return nil, types.NotFound("Widget not found")
	}
	view := NewWidgetView(widget)
	return &view, nil
}

// Create adds a widget to a space the viewer owns.
func (s *WidgetService) Create(ctx context.Context, viewer *models.User, in WidgetInput) (*WidgetView, error) {
	if err := requireUser(viewer, "create widgets"); err != nil {
		return nil, err
	}

	db := s.DB.WithContext(ctx)
	denied := types.PermissionDenied("You do not have permission to add widgets to this space.")
	if in.SpaceID == "" {
		return nil, denied
	}
	space, err := findSpace(db, in.SpaceID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, denied
		}
		return nil, err
	}
	if !ownsSpace(viewer, space) {
		return nil, denied
	}

	if !in.WidgetType.Valid() {
		return nil, types.Validation("Unknown widget type %d", in.WidgetType)
	}
	if err := checkLink(db, in.LinkID); err != nil {
		return nil, err
	}

	widget := &models.Widget{
		SpaceID:    space.ID,
		WidgetType: in.WidgetType,
		Layout:     jsonOrEmpty(in.Layout),
		Content:    jsonOrEmpty(in.Content),
		CardStyle:  jsonOrEmpty(in.CardStyle),
		LinkID:     in.LinkID,
	}
	if err := db.Omit(clause.Associations).Create(widget).Error; err != nil {
		return nil, fmt.Errorf("create widget: %w", err)
	}

	s.Logger.Debug("widget created", zap.String("id", widget.ID), zap.String("space", space.ID))
	return s.Get(ctx, viewer, widget.ID)
}

// Update applies patch to a widget in a space the viewer owns.
func (s *WidgetService) Update(ctx context.Context, viewer *models.User, id string, patch WidgetPatch) (*WidgetView, error) {
	if err := requireUser(viewer, "update widgets"); err != nil {
		return nil, err
	}

	db := s.DB.WithContext(ctx)
	widget, parent, err := s.load(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if err := authorizeWidgetWrite(viewer, parent, "update"); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if patch.WidgetType != nil {
		if !patch.WidgetType.Valid() {
			return nil, types.Validation("Unknown widget type %d", *patch.WidgetType)
		}
		updates["widget_type"] = *patch.WidgetType
	}
	if patch.Layout != nil {
		updates["layout"] = jsonOrEmpty(patch.Layout)
	}
	if patch.Content != nil {
		updates["content"] = jsonOrEmpty(patch.Content)
	}
	if patch.CardStyle != nil {
		updates["card_style"] = jsonOrEmpty(patch.CardStyle)
	}
	if patch.LinkSet {
		if patch.LinkID == nil {
			updates["link_id"] = gorm.Expr("NULL")
		} else {
			if err := checkLink(db, patch.LinkID); err != nil {
				return nil, err
			}
			updates["link_id"] = *patch.LinkID
		}
	}

	if len(updates) > 0 {
		if err := db.Model(widget).Omit(clause.Associations).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update widget: %w", err)
		}
	}
	return s.Get(ctx, viewer, id)
}

// Delete removes a widget from a space the viewer owns.
func (s *WidgetService) Delete(ctx context.Context, viewer *models.User, id string) error {
	if err := requireUser(viewer, "delete widgets"); err != nil {
		return err
	}

	widget, parent, err := s.load(ctx, id, false)
	if err != nil {
		return err
	}
	if err := authorizeWidgetWrite(viewer, parent, "delete"); err != nil {
		return err
	}

	if err := s.DB.WithContext(ctx).Delete(&models.Widget{}, "id = ?", widget.ID).Error; err != nil {
		return fmt.Errorf("delete widget: %w", err)
	}
	s.Logger.Debug("widget deleted", zap.String("id", widget.ID), zap.String("space", parent.ID))
	return nil
}

// load fetches a widget and its parent space.
func (s *WidgetService) load(ctx context.Context, id string, withLink bool) (*models.Widget, *models.Space, error) {
	db := s.DB.WithContext(ctx)
	q := db.Where("id = ?", id)
	if withLink {
		q = q.Preload("Link")
	}

	var widget models.Widget
	err := q.First(&widget).Error
	if database.IsNotFound(err) {
		return nil, nil, types.NotFound("Widget not found")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get widget: %w", err)
	}

	parent, err := findSpace(db, widget.SpaceID)
	if err != nil {
		return nil, nil, err
	}
	return &widget, parent, nil
}

func checkLink(db *gorm.DB, id *string) error {
	if id == nil {
		return nil
	}
	var count int64
	if err := db.Model(&models.Link{}).Where("id = ?", *id).Count(&count).Error; err != nil {
		return fmt.Errorf("check link: %w", err)
	}
	if count == 0 {
		return types.Validation("Link %s does not exist", *id)
	}
	return nil
}

func jsonOrEmpty(j *models.JSON) models.JSON {
	if j == nil || len(j.JSON) == 0 || string(j.JSON) == "null" {
		return models.EmptyObject()
	}
	return *j
}
