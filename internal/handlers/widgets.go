package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/homespace/internal/middleware"
	"github.com/localnerve/homespace/internal/models"
	"github.com/localnerve/homespace/internal/services"
)

// WidgetHandler handles /api/widgets routes
type WidgetHandler struct {
	Widgets *services.WidgetService
}

// CreateWidgetRequest is the body of POST /api/widgets
type CreateWidgetRequest struct {
	Space      string            `json:"space"`
	WidgetType models.WidgetType `json:"widget_type" swaggertype:"integer" enums:"1,10,20,30,40"`
	Layout     *models.JSON      `json:"layout,omitempty" swaggertype:"object"`
	Content    *models.JSON      `json:"content,omitempty" swaggertype:"object"`
	CardStyle  *models.JSON      `json:"card_style,omitempty" swaggertype:"object"`
	Link       *string           `json:"link,omitempty"`
}

// UpdateWidgetRequest documents the body of PATCH /api/widgets/{id}. Omitted fields are
// unchanged; "link": null removes the link.
type UpdateWidgetRequest struct {
	WidgetType *models.WidgetType `json:"widget_type,omitempty" swaggertype:"integer" enums:"1,10,20,30,40"`
	Layout     *models.JSON       `json:"layout,omitempty" swaggertype:"object"`
	Content    *models.JSON       `json:"content,omitempty" swaggertype:"object"`
	CardStyle  *models.JSON       `json:"card_style,omitempty" swaggertype:"object"`
	Link       *string            `json:"link,omitempty"`
}

// ListWidgets handles GET /api/widgets
// @Summary List widgets
// @Description List widgets in spaces readable by the caller
// @Tags Widgets
// @Produce json
// @Param space query string false "Only widgets of this space"
// @Success 200 {array} services.WidgetView
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /widgets [get]
func (h *WidgetHandler) ListWidgets(c *fiber.Ctx) error {
	widgets, err := h.Widgets.List(c.UserContext(), middleware.CurrentUser(c), c.Query("space"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(widgets)
}

// GetWidget handles GET /api/widgets/:id
// @Summary Get a widget
// @Tags Widgets
// @Produce json
// @Param id path string true "Widget ID"
// @Success 200 {object} services.WidgetView
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /widgets/{id} [get]
func (h *WidgetHandler) GetWidget(c *fiber.Ctx) error {
	widget, err := h.Widgets.Get(c.UserContext(), middleware.CurrentUser(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(widget)
}

// CreateWidget handles POST /api/widgets
// @Summary Create a widget
// @Description Add a widget to a space owned by the caller
// @Tags Widgets
// @Accept json
// @Produce json
// @Param body body CreateWidgetRequest true "Widget"
// @Success 201 {object} services.WidgetView
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /widgets [post]
func (h *WidgetHandler) CreateWidget(c *fiber.Ctx) error {
	viewer := middleware.CurrentUser(c)

	var req CreateWidgetRequest
	if viewer != nil {
		if err := c.BodyParser(&req); err != nil {
			return invalidBody(err)
		}
	}

	widget, err := h.Widgets.Create(c.UserContext(), viewer, services.WidgetInput{
		SpaceID:    req.Space,
		WidgetType: req.WidgetType,
		Layout:     req.Layout,
		Content:    req.Content,
		CardStyle:  req.CardStyle,
		LinkID:     req.Link,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(widget)
}

// UpdateWidget handles PATCH /api/widgets/:id
// @Summary Update a widget
// @Description Update layout, content, card style, type or link of a widget in a space the caller owns
// @Tags Widgets
// @Accept json
// @Produce json
// @Param id path string true "Widget ID"
// @Param body body UpdateWidgetRequest true "Fields to change"
// @Success 200 {object} services.WidgetView
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /widgets/{id} [patch]
func (h *WidgetHandler) UpdateWidget(c *fiber.Ctx) error {
	viewer := middleware.CurrentUser(c)

	var patch services.WidgetPatch
	if viewer != nil {
		fields, err := patchFields(c)
		if err != nil {
			return err
		}
		if _, err := decodeField(fields, "widget_type", &patch.WidgetType); err != nil {
			return err
		}
		for key, target := range map[string]**models.JSON{
			"layout":     &patch.Layout,
			"content":    &patch.Content,
			"card_style": &patch.CardStyle,
		} {
			if _, err := decodeField(fields, key, target); err != nil {
				return err
			}
		}
		if patch.LinkSet, err = decodeField(fields, "link", &patch.LinkID); err != nil {
			return err
		}
	}

	widget, err := h.Widgets.Update(c.UserContext(), viewer, c.Params("id"), patch)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(widget)
}

// DeleteWidget handles DELETE /api/widgets/:id
// @Summary Delete a widget
// @Tags Widgets
// @Param id path string true "Widget ID"
// @Success 204
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /widgets/{id} [delete]
func (h *WidgetHandler) DeleteWidget(c *fiber.Ctx) error {
	if err := h.Widgets.Delete(c.UserContext(), middleware.CurrentUser(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
