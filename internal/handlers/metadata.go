package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/homespace/internal/services"
)

// MetadataHandler serves ad-hoc page previews
type MetadataHandler struct {
	Preview *services.PreviewService
}

// GetMetadata handles GET /metadata?url=
// @Summary Preview a URL
// @Description Fetch a page and return its Open Graph tags (prefix stripped) and icon. Nothing is stored.
// @Tags Metadata
// @Produce json
// @Param url query string true "Page URL"
// @Success 200 {object} map[string]string
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 502 {object} utils.ErrorResponseStruct
// @Failure 504 {object} utils.ErrorResponseStruct
// @Router /metadata [get]
func (h *MetadataHandler) GetMetadata(c *fiber.Ctx) error {
	meta, err := h.Preview.Preview(c.UserContext(), c.Query("url"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(meta)
}
