package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	authorizer "github.com/localnerve/authorizer-go"
	"github.com/localnerve/homespace/internal/config"
	"github.com/localnerve/homespace/internal/utils"
	"go.uber.org/zap"
)

var (
	authClient *authorizer.AuthorizerClient
	authOnce   sync.Once
	authErr    error
)

// SessionUser is the part of an Authorizer user that sign-in needs
type SessionUser struct {
	ID                string `json:"id"`
	Email             string `json:"email"`
	PreferredUsername string `json:"preferred_username"`
	GivenName         string `json:"given_name"`
	FamilyName        string `json:"family_name"`
}

// Profile converts the session user into sign-in profile data
func (u *SessionUser) Profile() Profile {
	return Profile{
		Email:     u.Email,
		Username:  u.PreferredUsername,
		FirstName: u.GivenName,
		LastName:  u.FamilyName,
	}
}

// IsAuthorizerInitialized returns true if the Authorizer client is initialized
func IsAuthorizerInitialized() bool {
	return authClient != nil
}

// InitAuthorizer initializes the Authorizer client once. The outcome of the first call,
// success or failure, is remembered for the life of the process.
func InitAuthorizer(ctx context.Context, cfg *config.Config, redirectURL string, log *zap.Logger) error {
	authOnce.Do(func() {
		// Ping the Authorizer service first
		if err := utils.PingAuthorizer(ctx, cfg.AuthzURL); err != nil {
			authErr = fmt.Errorf("authorizer ping failed: %w", err)
			return
		}

		log.Info("initializing authorizer",
			zap.String("authorizerURL", cfg.AuthzURL),
			zap.String("clientID", cfg.AuthzClientID),
			zap.String("redirectURL", redirectURL),
		)

		var err error
		authClient, err = authorizer.NewAuthorizerClient(cfg.AuthzClientID, cfg.AuthzURL, redirectURL, nil)
		if err != nil {
			authErr = fmt.Errorf("failed to create authorizer client: %w", err)
		}
	})

	return authErr
}

// ValidateSession validates an Authorizer session cookie for the given roles
func ValidateSession(cookie string, roles []string) (*SessionUser, error) {
	if authClient == nil {
		return nil, fmt.Errorf("authorizer client not initialized")
	}

	// Convert roles to []*string
	rolesPtrs := make([]*string, len(roles))
	for i := range roles {
		rolesPtrs[i] = &roles[i]
	}

	res, err := authClient.ValidateSession(&authorizer.ValidateSessionInput{
		Cookie: cookie,
		Roles:  rolesPtrs,
	})
	if err != nil {
		return nil, fmt.Errorf("session validation failed: %w", err)
	}
	if res == nil || !res.IsValid {
		return nil, fmt.Errorf("session is not valid")
	}

	// The SDK user carries optional fields as pointers; the JSON form flattens them
	raw, err := json.Marshal(res.User)
	if err != nil {
		return nil, fmt.Errorf("read session user: %w", err)
	}
	var user SessionUser
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("read session user: %w", err)
	}
	if user.Email == "" {
		return nil, fmt.Errorf("session user has no email")
	}
	return &user, nil
}
