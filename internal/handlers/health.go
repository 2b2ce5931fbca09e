package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/homespace/internal/cache"
	"github.com/localnerve/homespace/internal/config"
	"github.com/localnerve/homespace/internal/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// HealthHandler reports service health
type HealthHandler struct {
	Config *config.Config
	DB     *gorm.DB
	Cache  cache.Cache
	Logger *zap.Logger
}

// HealthCheck handles GET /healthcheck
// @Summary Health check
// @Description Database, preview cache and Authorizer reachability
// @Tags Health
// @Produce json
// @Success 200 {object} services.HealthCheckResult
// @Failure 503 {object} services.HealthCheckResult
// @Router /healthcheck [get]
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	result := services.HealthCheck(c.UserContext(), h.Config, h.DB, h.Cache, h.Logger)
	status := fiber.StatusOK
	if result.Status != "healthy" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(result)
}
