package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/homespace/internal/middleware"
	"github.com/localnerve/homespace/internal/services"
)

// LinkHandler handles /api/links routes
type LinkHandler struct {
	Links *services.LinkRegistry
}

// ResolveLinkRequest is the body of POST /api/links
type ResolveLinkRequest struct {
	URL string `json:"url"`
}

// ResolveLink handles POST /api/links
// @Summary Resolve a link
// @Description Return the link for a URL, fetching its preview metadata the first time the normalized URL is seen
// @Tags Links
// @Accept json
// @Produce json
// @Param body body ResolveLinkRequest true "URL"
// @Success 200 {object} services.LinkView
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 502 {object} utils.ErrorResponseStruct
// @Failure 504 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /links [post]
func (h *LinkHandler) ResolveLink(c *fiber.Ctx) error {
	viewer := middleware.CurrentUser(c)

	var req ResolveLinkRequest
	if viewer != nil {
		if err := c.BodyParser(&req); err != nil {
			return invalidBody(err)
		}
	}

	link, err := h.Links.Resolve(c.UserContext(), req.URL, viewer)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(services.NewLinkView(link))
}

// GetLink handles GET /api/links/:id
// @Summary Get a link
// @Tags Links
// @Produce json
// @Param id path string true "Link ID"
// @Success 200 {object} services.LinkView
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /links/{id} [get]
func (h *LinkHandler) GetLink(c *fiber.Ctx) error {
	link, err := h.Links.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(services.NewLinkView(link))
}

// DeleteLink handles DELETE /api/links/:id
// @Summary Delete a link
// @Description Delete a link created by the caller. Widgets that used it lose the reference.
// @Tags Links
// @Param id path string true "Link ID"
// @Success 204
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /links/{id} [delete]
func (h *LinkHandler) DeleteLink(c *fiber.Ctx) error {
	if err := h.Links.Delete(c.UserContext(), middleware.CurrentUser(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
