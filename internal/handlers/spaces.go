package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/homespace/internal/middleware"
	"github.com/localnerve/homespace/internal/models"
	"github.com/localnerve/homespace/internal/services"
)

// SpaceHandler handles /api/spaces routes
type SpaceHandler struct {
	Spaces *services.SpaceService
}

// CreateSpaceRequest is the body of POST /api/spaces. An owner sent by the client is ignored.
type CreateSpaceRequest struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Access      models.SpaceAccess `json:"access" swaggertype:"integer" enums:"1,2"`
	IsHomepage  bool               `json:"is_homepage"`
}

// UpdateSpaceRequest documents the body of PATCH /api/spaces/{id}; omitted fields are unchanged.
type UpdateSpaceRequest struct {
	Name        *string             `json:"name,omitempty"`
	Description *string             `json:"description,omitempty"`
	Access      *models.SpaceAccess `json:"access,omitempty" swaggertype:"integer" enums:"1,2"`
	IsHomepage  *bool               `json:"is_homepage,omitempty"`
}

// ListSpaces handles GET /api/spaces
// @Summary List spaces
// @Description List the spaces readable by the caller: their own and every public space
// @Tags Spaces
// @Produce json
// @Param is_homepage query bool false "Only spaces with this homepage flag"
// @Success 200 {array} services.SpaceSummary
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /spaces [get]
func (h *SpaceHandler) ListSpaces(c *fiber.Ctx) error {
	isHomepage, err := queryBool(c, "is_homepage")
	if err != nil {
		return err
	}

	spaces, err := h.Spaces.List(c.UserContext(), middleware.CurrentUser(c), services.SpaceFilter{IsHomepage: isHomepage})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(spaces)
}

// GetSpace handles GET /api/spaces/:id
// @Summary Get a space
// @Description Get a space with its widgets. Private spaces of other users are reported as not found.
// @Tags Spaces
// @Produce json
// @Param id path string true "Space ID"
// @Success 200 {object} services.SpaceDetail
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /spaces/{id} [get]
func (h *SpaceHandler) GetSpace(c *fiber.Ctx) error {
	space, err := h.Spaces.Get(c.UserContext(), middleware.CurrentUser(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(space)
}

// CreateSpace handles POST /api/spaces
// @Summary Create a space
// @Description Create a space owned by the caller. Access defaults to private (1).
// @Tags Spaces
// @Accept json
// @Produce json
// @Param body body CreateSpaceRequest true "Space"
// @Success 201 {object} services.SpaceDetail
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /spaces [post]
func (h *SpaceHandler) CreateSpace(c *fiber.Ctx) error {
	viewer := middleware.CurrentUser(c)

	var req CreateSpaceRequest
	if viewer != nil {
		if err := c.BodyParser(&req); err != nil {
			return invalidBody(err)
		}
	}

	space, err := h.Spaces.Create(c.UserContext(), viewer, services.SpaceInput{
		Name:        req.Name,
		Description: req.Description,
		Access:      req.Access,
		IsHomepage:  req.IsHomepage,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(space)
}

// UpdateSpace handles PATCH /api/spaces/:id
// @Summary Update a space
// @Description Update name, description, access or homepage flag of a space the caller owns
// @Tags Spaces
// @Accept json
// @Produce json
// @Param id path string true "Space ID"
// @Param body body UpdateSpaceRequest true "Fields to change"
// @Success 200 {object} services.SpaceDetail
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /spaces/{id} [patch]
func (h *SpaceHandler) UpdateSpace(c *fiber.Ctx) error {
	viewer := middleware.CurrentUser(c)

	var patch services.SpacePatch
	if viewer != nil {
		fields, err := patchFields(c)
		if err != nil {
			return err
		}
		if _, err := decodeField(fields, "name", &patch.Name); err != nil {
			return err
		}
		if _, err := decodeField(fields, "description", &patch.Description); err != nil {
			return err
		}
		if _, err := decodeField(fields, "access", &patch.Access); err != nil {
			return err
		}
		if _, err := decodeField(fields, "is_homepage", &patch.IsHomepage); err != nil {
			return err
		}
	}

	space, err := h.Spaces.Update(c.UserContext(), viewer, c.Params("id"), patch)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(space)
}

// DeleteSpace handles DELETE /api/spaces/:id
// @Summary Delete a space
// @Description Delete a space the caller owns together with its widgets and bookmarks
// @Tags Spaces
// @Param id path string true "Space ID"
// @Success 204
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /spaces/{id} [delete]
func (h *SpaceHandler) DeleteSpace(c *fiber.Ctx) error {
	if err := h.Spaces.Delete(c.UserContext(), middleware.CurrentUser(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ToggleBookmark handles POST /api/spaces/:id/toggle-bookmark
// @Summary Toggle a bookmark
// @Description Bookmark a readable space for the caller, or remove the existing bookmark
// @Tags Spaces
// @Produce json
// @Param id path string true "Space ID"
// @Success 200 {object} services.SpaceDetail
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /spaces/{id}/toggle-bookmark [post]
func (h *SpaceHandler) ToggleBookmark(c *fiber.Ctx) error {
	space, err := h.Spaces.ToggleBookmark(c.UserContext(), middleware.CurrentUser(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(space)
}

// CloneSpace handles POST /api/spaces/:id/clone
// @Summary Clone a space
// @Description Copy a readable space and all of its widgets into a new private space owned by the caller
// @Tags Spaces
// @Produce json
// @Param id path string true "Source space ID"
// @Success 201 {object} services.SpaceDetail
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /spaces/{id}/clone [post]
func (h *SpaceHandler) CloneSpace(c *fiber.Ctx) error {
	space, err := h.Spaces.Clone(c.UserContext(), middleware.CurrentUser(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(space)
}
