package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/localnerve/homespace/internal/models"
	"gorm.io/gorm"
)

// SpaceSummary is the list view of a Space.
type SpaceSummary struct {
	UID          string             `json:"uid"`
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	Owner        string             `json:"owner"`
	Access       models.SpaceAccess `json:"access"`
	IsHomepage   bool               `json:"is_homepage"`
	ClonedFrom   *string            `json:"cloned_from"`
	IsBookmarked bool               `json:"is_bookmarked"`
	NumBookmarks int64              `json:"num_bookmarks"`
	NumClones    int64              `json:"num_clones"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// SpaceDetail is a Space with its widgets.
type SpaceDetail struct {
	SpaceSummary
	Widgets []WidgetView `json:"widgets"`
}

// WidgetView is the wire shape of a Widget. OriginalLink embeds the referenced Link.
type WidgetView struct {
	UID          string            `json:"uid"`
	Space        string            `json:"space"`
	WidgetType   models.WidgetType `json:"widget_type"`
	Layout       json.RawMessage   `json:"layout" swaggertype:"object"`
	Content      json.RawMessage   `json:"content" swaggertype:"object"`
	CardStyle    json.RawMessage   `json:"card_style" swaggertype:"object"`
	Link         *string           `json:"link"`
	OriginalLink *LinkView         `json:"original_link"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// LinkView is the wire shape of a Link.
type LinkView struct {
	UID       string            `json:"uid"`
	URL       string            `json:"url"`
	Metadata  map[string]string `json:"metadata"`
	CreatedBy string            `json:"created_by"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// UserView is the signed-in user's profile with the spaces on their dashboard menu.
type UserView struct {
	UID          string         `json:"uid"`
	Username     string         `json:"username"`
	Email        string         `json:"email"`
	FirstName    string         `json:"first_name"`
	LastName     string         `json:"last_name"`
	DefaultSpace *string        `json:"default_space"`
	Spaces       []SpaceSummary `json:"spaces"`
}

// NewLinkView converts a Link
func NewLinkView(l *models.Link) *LinkView {
	if l == nil {
		return nil
	}
	return &LinkView{
		UID:       l.ID,
		URL:       l.URL,
		Metadata:  l.Metadata.StringMap(),
		CreatedBy: l.CreatedByID,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

// NewWidgetView converts a Widget; preload Link to fill original_link.
func NewWidgetView(w *models.Widget) WidgetView {
	return WidgetView{
		UID:          w.ID,
		Space:        w.SpaceID,
		WidgetType:   w.WidgetType,
		Layout:       w.Layout.Raw(),
		Content:      w.Content.Raw(),
		CardStyle:    w.CardStyle.Raw(),
		Link:         w.LinkID,
		OriginalLink: NewLinkView(w.Link),
		CreatedAt:    w.CreatedAt,
		UpdatedAt:    w.UpdatedAt,
	}
}

func newWidgetViews(widgets []models.Widget) []WidgetView {
	views := make([]WidgetView, 0, len(widgets))
	for i := range widgets {
		views = append(views, NewWidgetView(&widgets[i]))
	}
	return views
}

type countRow struct {
	ID    string
	Total int64
}

// spaceStats holds the per-space aggregates of a batch of spaces.
type spaceStats struct {
	bookmarks  map[string]int64
	clones     map[string]int64
	bookmarked map[string]bool
}

func loadSpaceStats(db *gorm.DB, viewer *models.User, ids []string) (*spaceStats, error) {
	stats := &spaceStats{
		bookmarks:  map[string]int64{},
		clones:     map[string]int64{},
		bookmarked: map[string]bool{},
	}
	if len(ids) == 0 {
		return stats, nil
	}

	var rows []countRow
	if err := db.Table("space_bookmarks").
		Select("space_id AS id, COUNT(*) AS total").
		Where("space_id IN ?", ids).
		Group("space_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		stats.bookmarks[r.ID] = r.Total
	}

	rows = nil
	if err := db.Model(&models.Space{}).
		Select("cloned_from_id AS id, COUNT(*) AS total").
		Where("cloned_from_id IN ?", ids).
		Group("cloned_from_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		stats.clones[r.ID] = r.Total
	}

	if viewer != nil {
		var mine []string
		if err := db.Table("space_bookmarks").
			Where("user_id = ? AND space_id IN ?", viewer.ID, ids).
			Pluck("space_id", &mine).Error; err != nil {
			return nil, err
		}
		for _, id := range mine {
			stats.bookmarked[id] = true
		}
	}

	return stats, nil
}

func (st *spaceStats) summary(s *models.Space) SpaceSummary {
	return SpaceSummary{
		UID:          s.ID,
		Name:         s.Name,
		Description:  s.Description,
		Owner:        s.OwnerID,
		Access:       s.Access,
		IsHomepage:   s.IsHomepage,
		ClonedFrom:   s.ClonedFromID,
		IsBookmarked: st.bookmarked[s.ID],
		NumBookmarks: st.bookmarks[s.ID],
		NumClones:    st.clones[s.ID],
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

// buildSummaries converts a batch of spaces with three aggregate queries in total.
func buildSummaries(ctx context.Context, db *gorm.DB, viewer *models.User, spaces []models.Space) ([]SpaceSummary, error) {
	ids := make([]string, 0, len(spaces))
	for _, s := range spaces {
		ids = append(ids, s.ID)
	}
	stats, err := loadSpaceStats(db.WithContext(ctx), viewer, ids)
	if err != nil {
		return nil, err
	}

	out := make([]SpaceSummary, 0, len(spaces))
	for i := range spaces {
		out = append(out, stats.summary(&spaces[i]))
	}
	return out, nil
}

// buildDetail loads the widgets of space and assembles its SpaceDetail.
func buildDetail(ctx context.Context, db *gorm.DB, viewer *models.User, space *models.Space) (*SpaceDetail, error) {
	db = db.WithContext(ctx)

	stats, err := loadSpaceStats(db, viewer, []string{space.ID})
	if err != nil {
		return nil, err
	}

	var widgets []models.Widget
	if err := db.Preload("Link").
		Where("space_id = ?", space.ID).
		Order("created_at, id").
		Find(&widgets).Error; err != nil {
		return nil, err
	}

	return &SpaceDetail{
		SpaceSummary: stats.summary(space),
		Widgets:      newWidgetViews(widgets),
	}, nil
}
