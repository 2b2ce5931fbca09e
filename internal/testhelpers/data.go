// data.go
//
// Fixture builders for users, spaces, widgets and links
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of homespace.
// homespace is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// homespace is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with homespace.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package testhelpers

import (
	"testing"

	"github.com/google/uuid"
	"github.com/localnerve/homespace/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateTestUser inserts a user directly, without the default space hook
func CreateTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
	}
	if err := db.Omit(clause.Associations).Create(user).Error; err != nil {
		t.Fatalf("Failed to create user %s: %v", username, err)
	}
	return user
}

// CreateTestSpace inserts a space owned by owner
func CreateTestSpace(t *testing.T, db *gorm.DB, owner *models.User, name string, access models.SpaceAccess) *models.Space {
	t.Helper()
	space := &models.Space{
		Name:    name,
		OwnerID: owner.ID,
		Access:  access,
	}
	if err := db.Omit(clause.Associations).Create(space).Error; err != nil {
		t.Fatalf("Failed to create space %s: %v", name, err)
	}
	return space
}

// CreateTestLink inserts a link for an already normalized url
func CreateTestLink(t *testing.T, db *gorm.DB, creator *models.User, url string, metadata map[string]string) *models.Link {
	t.Helper()
	meta, err := models.NewJSON(metadata)
	if err != nil {
		t.Fatalf("Failed to marshal link metadata: %v", err)
	}
	link := &models.Link{
		URL:         url,
		URLHash:     models.HashURL(url),
		Metadata:    meta,
		CreatedByID: creator.ID,
	}
	if err := db.Omit(clause.Associations).Create(link).Error; err != nil {
		t.Fatalf("Failed to create link %s: %v", url, err)
	}
	return link
}

// CreateTestWidget inserts a widget into space with the given content document
func CreateTestWidget(t *testing.T, db *gorm.DB, space *models.Space, widgetType models.WidgetType, content map[string]interface{}, link *models.Link) *models.Widget {
	t.Helper()
	if content == nil {
		content = map[string]interface{}{}
	}
	doc, err := models.NewJSON(content)
	if err != nil {
		t.Fatalf("Failed to marshal widget content: %v", err)
	}
	widget := &models.Widget{
		SpaceID:    space.ID,
		WidgetType: widgetType,
		Layout:     models.EmptyObject(),
		Content:    doc,
		CardStyle:  models.EmptyObject(),
	}
	if link != nil {
		widget.LinkID = &link.ID
	}
	if err := db.Omit(clause.Associations).Create(widget).Error; err != nil {
		t.Fatalf("Failed to create widget: %v", err)
	}
	return widget
}

// Bookmark adds a bookmark row for user on space
func Bookmark(t *testing.T, db *gorm.DB, user *models.User, space *models.Space) {
	t.Helper()
	if err := db.Exec("INSERT INTO space_bookmarks (space_id, user_id) VALUES (?, ?)", space.ID, user.ID).Error; err != nil {
		t.Fatalf("Failed to bookmark space: %v", err)
	}
}

// CountRows counts the rows of model matching the condition
func CountRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var count int64
	if err := db.Model(model).Where(query, args...).Count(&count).Error; err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	return count
}

// RandomName returns a short unique name with the given prefix
func RandomName(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}
