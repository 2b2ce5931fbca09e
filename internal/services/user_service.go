package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/localnerve/homespace/internal/database"
	"github.com/localnerve/homespace/internal/models"
	"github.com/localnerve/homespace/internal/types"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/hints"
)

const maxUsernameLen = 150

var usernameUnsafe = regexp.MustCompile(`[^a-zA-Z0-9_.@+-]+`)

// Profile is the identity data an external sign-in provides.
type Profile struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
}

// UserPatch carries a partial profile update. DefaultSpaceSet distinguishes an explicit
// null (clear the default space) from an absent field.
type UserPatch struct {
	Username        *string
	FirstName       *string
	LastName        *string
	DefaultSpaceID  *string
	DefaultSpaceSet bool
}

// UserService manages accounts and runs the creation hook.
type UserService struct {
	DB     *gorm.DB
	Hook   UserCreatedHook
	Logger *zap.Logger
}

// NewUserService creates a user service; a nil hook means DefaultSpaceHook.
func NewUserService(db *gorm.DB, hook UserCreatedHook, log *zap.Logger) *UserService {
	if hook == nil {
		hook = DefaultSpaceHook{}
	}
	return &UserService{DB: db, Hook: hook, Logger: log.Named("users")}
}

// Create inserts user and invokes the creation hook in the same transaction.
func (s *UserService) Create(ctx context.Context, user *models.User) error {
	user.Email = strings.TrimSpace(strings.ToLower(user.Email))
	user.Username = strings.TrimSpace(user.Username)
	if user.Email == "" {
		return types.Validation("Email is required")
	}
	if user.Username == "" {
		user.Username = usernameFromEmail(user.Email)
	}
	if utf8.RuneCountInString(user.Username) > maxUsernameLen {
		return types.Validation("Username must be at most %d characters", maxUsernameLen)
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(user).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return types.Conflict(err, "A user with this username or email already exists")
			}
			return fmt.Errorf("create user: %w", err)
		}
		if _, err := s.Hook.OnUserCreated(tx, user); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		user.ID = ""
		user.DefaultSpaceID = nil
		return err
	}

	s.Logger.Info("user created", zap.String("id", user.ID), zap.String("username", user.Username))
	return nil
}

// FindOrCreateByEmail returns the account for p.Email, creating it (and its default space)
// on first sign-in. created reports whether a new account was made.
func (s *UserService) FindOrCreateByEmail(ctx context.Context, p Profile) (user *models.User, created bool, err error) {
	email := strings.TrimSpace(strings.ToLower(p.Email))
	if email == "" {
		return nil, false, types.Validation("Email is required")
	}

	if user, err = s.findByEmail(ctx, email); err != nil || user != nil {
		return user, false, err
	}

	base := strings.TrimSpace(p.Username)
	if base == "" {
		base = usernameFromEmail(email)
	}

	for attempt := 0; attempt < 3; attempt++ {
		username := base
		if attempt > 0 {
			username = fmt.Sprintf("%s-%s", truncate(base, maxUsernameLen-9), uuid.NewString()[:8])
		}
		user = &models.User{
			Email:     email,
			Username:  username,
			FirstName: truncate(p.FirstName, maxUsernameLen),
			LastName:  truncate(p.LastName, maxUsernameLen),
		}
		err = s.Create(ctx, user)
		if err == nil {
			return user, true, nil
		}
		if !errors.Is(err, types.ErrConflict) {
			return nil, false, err
		}
		// Either a concurrent sign-in created the email, or the username is taken
		if existing, findErr := s.findByEmail(ctx, email); findErr != nil || existing != nil {
			return existing, false, findErr
		}
	}
	return nil, false, err
}

func (s *UserService) findByEmail(ctx context.Context, email string) (*models.User, error) {
	var users []models.User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).Limit(1).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}

// Get returns a user by id
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if database.IsNotFound(err) {
		return nil, types.NotFound("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// Me returns the viewer's profile with owned spaces and bookmarked public spaces.
func (s *UserService) Me(ctx context.Context, viewer *models.User) (*UserView, error) {
	if viewer == nil {
		return nil, types.PermissionDenied("Authentication is required to view your profile.")
	}

	db := s.DB.WithContext(ctx)
	var spaces []models.Space
	err := db.Clauses(hints.Comment("select", "spaces.menu")).
		Where("owner_id = ?", viewer.ID).
		Or("access = ? AND id IN (SELECT space_id FROM space_bookmarks WHERE user_id = ?)",
			models.SpaceAccessPublic, viewer.ID).
		Order("created_at, id").
		Find(&spaces).Error
	if err != nil {
		return nil, fmt.Errorf("list user spaces: %w", err)
	}

	summaries, err := buildSummaries(ctx, s.DB, viewer, spaces)
	if err != nil {
		return nil, fmt.Errorf("summarize user spaces: %w", err)
	}

	return &UserView{
		UID:          viewer.ID,
		Username:     viewer.Username,
		Email:        viewer.Email,
		FirstName:    viewer.FirstName,
		LastName:     viewer.LastName,
		DefaultSpace: viewer.DefaultSpaceID,
		Spaces:       summaries,
	}, nil
}

// Update applies a profile patch for the viewer.
func (s *UserService) Update(ctx context.Context, viewer *models.User, patch UserPatch) (*UserView, error) {
	if err := requireUser(viewer, "update your profile"); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if patch.Username != nil {
		name := strings.TrimSpace(*patch.Username)
		if name == "" || utf8.RuneCountInString(name) > maxUsernameLen {
			return nil, types.Validation("Username must be between 1 and %d characters", maxUsernameLen)
		}
		updates["username"] = name
	}
	if patch.FirstName != nil {
		updates["first_name"] = truncate(strings.TrimSpace(*patch.FirstName), maxUsernameLen)
	}
	if patch.LastName != nil {
		updates["last_name"] = truncate(strings.TrimSpace(*patch.LastName), maxUsernameLen)
	}
	if patch.DefaultSpaceSet {
		if patch.DefaultSpaceID == nil {
			updates["default_space_id"] = gorm.Expr("NULL")
		} else {
			var space models.Space
			err := s.DB.WithContext(ctx).Where("id = ?", *patch.DefaultSpaceID).First(&space).Error
			if database.IsNotFound(err) || (err == nil && !canReadSpace(viewer, &space)) {
				return nil, types.Validation("Default space not found")
			}
			if err != nil {
				return nil, fmt.Errorf("get default space: %w", err)
			}
			updates["default_space_id"] = space.ID
		}
	}

	if len(updates) > 0 {
		err := s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", viewer.ID).Updates(updates).Error
		if database.IsUniqueViolation(err) {
			return nil, types.Validation("Username is already taken")
		}
		if err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
	}

	fresh, err := s.Get(ctx, viewer.ID)
	if err != nil {
		return nil, err
	}
	*viewer = *fresh
	return s.Me(ctx, viewer)
}

// Delete removes the viewer's account with its spaces, widgets, links and bookmarks.
// Other users' widgets that referenced the viewer's links lose the reference.
func (s *UserService) Delete(ctx context.Context, viewer *models.User) error {
	if err := requireUser(viewer, "delete your account"); err != nil {
		return err
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var spaceIDs []string
		if err := tx.Model(&models.Space{}).Where("owner_id = ?", viewer.ID).Pluck("id", &spaceIDs).Error; err != nil {
			return fmt.Errorf("list user spaces: %w", err)
		}
		if err := deleteSpacesTx(tx, spaceIDs); err != nil {
			return err
		}

		var linkIDs []string
		if err := tx.Model(&models.Link{}).Where("created_by_id = ?", viewer.ID).Pluck("id", &linkIDs).Error; err != nil {
			return fmt.Errorf("list user links: %w", err)
		}
		if len(linkIDs) > 0 {
			if err := unlinkWidgets(tx, "link_id IN ?", linkIDs); err != nil {
				return err
			}
			if err := tx.Where("id IN ?", linkIDs).Delete(&models.Link{}).Error; err != nil {
				return fmt.Errorf("delete user links: %w", err)
			}
		}

		if err := tx.Exec("DELETE FROM space_bookmarks WHERE user_id = ?", viewer.ID).Error; err != nil {
			return fmt.Errorf("delete user bookmarks: %w", err)
		}
		if err := tx.Delete(&models.User{}, "id = ?", viewer.ID).Error; err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.Logger.Info("user deleted", zap.String("id", viewer.ID))
	return nil
}

func usernameFromEmail(email string) string {
	local := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		local = email[:at]
	}
	local = usernameUnsafe.ReplaceAllString(local, "")
	if local == "" {
		local = "user"
	}
	return truncate(local, maxUsernameLen)
}

// truncate keeps at most n runes of s
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
