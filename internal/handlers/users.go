package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/homespace/internal/middleware"
	"github.com/localnerve/homespace/internal/services"
)

// UserHandler handles /api/users/me routes
type UserHandler struct {
	Users *services.UserService
}

// UpdateProfileRequest documents the body of PATCH /api/users/me. "default_space": null
// clears the default space.
type UpdateProfileRequest struct {
	Username     *string `json:"username,omitempty"`
	FirstName    *string `json:"first_name,omitempty"`
	LastName     *string `json:"last_name,omitempty"`
	DefaultSpace *string `json:"default_space,omitempty"`
}

// GetMe handles GET /api/users/me
// @Summary Current user
// @Description Profile of the caller with their own spaces and bookmarked public spaces
// @Tags Users
// @Produce json
// @Success 200 {object} services.UserView
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /users/me [get]
func (h *UserHandler) GetMe(c *fiber.Ctx) error {
	me, err := h.Users.Me(c.UserContext(), middleware.CurrentUser(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(me)
}

// UpdateMe handles PATCH /api/users/me
// @Summary Update profile
// @Tags Users
// @Accept json
// @Produce json
// @Param body body UpdateProfileRequest true "Fields to change"
// @Success 200 {object} services.UserView
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /users/me [patch]
func (h *UserHandler) UpdateMe(c *fiber.Ctx) error {
	viewer := middleware.CurrentUser(c)

	var patch services.UserPatch
	if viewer != nil {
		fields, err := patchFields(c)
		if err != nil {
			return err
		}
		if _, err := decodeField(fields, "username", &patch.Username); err != nil {
			return err
		}
		if _, err := decodeField(fields, "first_name", &patch.FirstName); err != nil {
			return err
		}
		if _, err := decodeField(fields, "last_name", &patch.LastName); err != nil {
			return err
		}
		if patch.DefaultSpaceSet, err = decodeField(fields, "default_space", &patch.DefaultSpaceID); err != nil {
			return err
		}
	}

	me, err := h.Users.Update(c.UserContext(), viewer, patch)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(me)
}

// DeleteMe handles DELETE /api/users/me
// @Summary Delete account
// @Description Delete the caller's account with every space, widget, link and bookmark they own
// @Tags Users
// @Success 204
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /users/me [delete]
func (h *UserHandler) DeleteMe(c *fiber.Ctx) error {
	if err := h.Users.Delete(c.UserContext(), middleware.CurrentUser(c)); err != nil {
		return err
	}
	c.ClearCookie(middleware.TokenCookie)
	return c.SendStatus(fiber.StatusNoContent)
}
