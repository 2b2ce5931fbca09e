package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/homespace/internal/config"
	"github.com/localnerve/homespace/internal/middleware"
	"github.com/localnerve/homespace/internal/services"
	"github.com/localnerve/homespace/internal/types"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	stateCookie        = "oauthstate"
	googleUserInfoURL  = "https://www.googleapis.com/oauth2/v2/userinfo"
	stateCookieTimeout = 20 * time.Minute
)

// AuthHandler implements Google sign-in. A successful callback finds or creates the user
// by email and hands out a session token in the auth_token cookie.
type AuthHandler struct {
	OAuth       *oauth2.Config
	UserInfoURL string
	Users       *services.UserService
	Tokens      *services.TokenService
	FrontendURL string
	Secure      bool
	Logger      *zap.Logger
}

// GoogleUser is the userinfo document returned by Google
type GoogleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}

// NewAuthHandler creates the handler; OAuth stays nil when Google is not configured
func NewAuthHandler(cfg *config.Config, users *services.UserService, tokens *services.TokenService, log *zap.Logger) *AuthHandler {
	h := &AuthHandler{
		UserInfoURL: googleUserInfoURL,
		Users:       users,
		Tokens:      tokens,
		FrontendURL: cfg.FrontendURL,
		Secure:      cfg.IsProduction(),
		Logger:      log.Named("auth"),
	}
	if cfg.GoogleEnabled() {
		h.OAuth = &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		}
	}
	return h
}

func (h *AuthHandler) enabled() error {
	if h.OAuth == nil {
		return fiber.NewError(fiber.StatusNotFound, "Google sign-in is not configured")
	}
	return nil
}

// Login handles GET /api/auth/google/login
// @Summary Start Google sign-in
// @Tags Auth
// @Success 307
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /auth/google/login [get]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	if err := h.enabled(); err != nil {
		return err
	}

	state, err := h.generateStateOauthCookie(c)
	if err != nil {
		return fmt.Errorf("generate oauth state: %w", err)
	}
	return c.Redirect(h.OAuth.AuthCodeURL(state), fiber.StatusTemporaryRedirect)
}

// Callback handles GET /api/auth/google/callback
// @Summary Finish Google sign-in
// @Description Exchange the code, find or create the user, set the auth_token cookie and redirect to the frontend
// @Tags Auth
// @Param state query string true "OAuth state"
// @Param code query string true "Authorization code"
// @Success 307
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 502 {object} utils.ErrorResponseStruct
// @Router /auth/google/callback [get]
func (h *AuthHandler) Callback(c *fiber.Ctx) error {
	if err := h.enabled(); err != nil {
		return err
	}

	expected := c.Cookies(stateCookie)
	if expected == "" || c.Query("state") != expected {
		h.Logger.Info("oauth callback with invalid state")
		return types.Validation("Invalid OAuth state")
	}
	c.ClearCookie(stateCookie)

	ctx := c.UserContext()
	token, err := h.OAuth.Exchange(ctx, c.Query("code"))
	if err != nil {
		h.Logger.Warn("oauth code exchange failed", zap.Error(err))
		return types.FetchError(err, false, "Google code exchange failed")
	}

	resp, err := h.OAuth.Client(ctx, token).Get(h.UserInfoURL)
	if err != nil {
		return types.FetchError(err, false, "Could not read Google user info")
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusOK {
		return types.FetchError(nil, false, "Google user info responded with status %d", resp.StatusCode)
	}

	var googleUser GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&googleUser); err != nil {
		return types.ParseError(err, "Could not decode Google user info")
	}
	if googleUser.Email == "" || !googleUser.VerifiedEmail {
		return types.PermissionDenied("Google account has no verified email")
	}

	user, created, err := h.Users.FindOrCreateByEmail(ctx, services.Profile{
		Email:     googleUser.Email,
		FirstName: googleUser.GivenName,
		LastName:  googleUser.FamilyName,
	})
	if err != nil {
		return err
	}

	signed, expires, err := h.Tokens.Issue(user)
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     middleware.TokenCookie,
		Value:    signed,
		Expires:  expires,
		Path:     "/",
		HTTPOnly: true,
		Secure:   h.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	h.Logger.Info("login successful", zap.String("user", user.ID), zap.Bool("created", created))
	return c.Redirect(h.FrontendURL, fiber.StatusTemporaryRedirect)
}

// Logout handles POST /api/auth/logout
// @Summary Sign out
// @Tags Auth
// @Success 204
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Expires:  time.Now().Add(-1 * time.Hour),
		Path:     "/",
		HTTPOnly: true,
		Secure:   h.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AuthHandler) generateStateOauthCookie(c *fiber.Ctx) (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	state := base64.URLEncoding.EncodeToString(b)
	c.Cookie(&fiber.Cookie{
		Name:     stateCookie,
		Value:    state,
		Expires:  time.Now().Add(stateCookieTimeout),
		Path:     "/",
		HTTPOnly: true,
		Secure:   h.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return state, nil
}
