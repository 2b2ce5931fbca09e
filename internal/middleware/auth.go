// auth.go
//
// Request identity resolution for the homespace API
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

package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/homespace/internal/config"
	"github.com/localnerve/homespace/internal/logging"
	"github.com/localnerve/homespace/internal/models"
	"github.com/localnerve/homespace/internal/services"
	"github.com/localnerve/homespace/internal/types"
	"go.uber.org/zap"
)

const (
	// UserKey is the fiber.Ctx locals key holding the *models.User of the request
	UserKey = "user"
	// TokenCookie carries the session token issued after Google sign-in
	TokenCookie = "auth_token"
	// SessionCookie is the Authorizer session cookie
	SessionCookie = "cookie_session"
)

// Identity holds what Identify needs to turn credentials into a user
type Identity struct {
	Tokens *services.TokenService
	Users  *services.UserService
	Config *config.Config
	Logger *zap.Logger
}

// Identify resolves the request user from, in order, an Authorization bearer token, the
// auth_token cookie and an Authorizer cookie_session. Requests without valid credentials
// continue anonymously; the services decide what anonymous callers may do.
func Identify(id Identity) fiber.Handler {
	log := logging.OrNop(id.Logger).Named("identity")

	return func(c *fiber.Ctx) error {
		user, err := id.fromToken(c, log)
		if err != nil {
			return err
		}
		if user == nil {
			if user, err = id.fromSession(c, log); err != nil {
				return err
			}
		}
		if user != nil {
			c.Locals(UserKey, user)
		}
		return c.Next()
	}
}

// CurrentUser returns the identified user, or nil for anonymous requests
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(UserKey).(*models.User)
	return user
}

func bearerToken(c *fiber.Ctx) string {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func (id Identity) fromToken(c *fiber.Ctx, log *zap.Logger) (*models.User, error) {
	if id.Tokens == nil || id.Users == nil {
		return nil, nil
	}
	token := bearerToken(c)
	if token == "" {
		token = c.Cookies(TokenCookie)
	}
	if token == "" {
		return nil, nil
	}

	userID, err := id.Tokens.Parse(token)
	if err != nil {
		log.Debug("ignoring invalid token", zap.Error(err))
		return nil, nil
	}

	user, err := id.Users.Get(c.UserContext(), userID)
	if errors.Is(err, types.ErrNotFound) {
		// Token for a deleted account
		return nil, nil
	}
	return user, err
}

func (id Identity) fromSession(c *fiber.Ctx, log *zap.Logger) (*models.User, error) {
	if id.Config == nil || !id.Config.AuthorizerEnabled() || id.Users == nil {
		return nil, nil
	}
	session := c.Cookies(SessionCookie)
	if session == "" {
		return nil, nil
	}

	// Initialize on first use; the redirect is this service's own origin
	if !services.IsAuthorizerInitialized() {
		redirectURL := fmt.Sprintf("%s://%s", c.Protocol(), c.Hostname())
		if err := services.InitAuthorizer(c.UserContext(), id.Config, redirectURL, log); err != nil {
			log.Warn("authorizer unavailable", zap.Error(err))
			return nil, nil
		}
	}

	sessionUser, err := services.ValidateSession(session, []string{"user"})
	if err != nil {
		log.Debug("ignoring invalid session", zap.Error(err))
		return nil, nil
	}

	user, created, err := id.Users.FindOrCreateByEmail(c.UserContext(), sessionUser.Profile())
	if err != nil {
		return nil, err
	}
	if created {
		log.Info("user created from authorizer session", zap.String("id", user.ID))
	}
	return user, nil
}
