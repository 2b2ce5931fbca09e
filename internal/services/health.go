package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/localnerve/homespace/internal/cache"
	"github.com/localnerve/homespace/internal/config"
	"github.com/localnerve/homespace/internal/logging"
	"github.com/localnerve/homespace/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status       string            `json:"status"`
	Database     string            `json:"database"`
	Cache        string            `json:"cache"`
	Authorizer   string            `json:"authorizer"`
	Details      map[string]string `json:"details,omitempty"`
	ErrorMessage string            `json:"error,omitempty"`
}

func (r *HealthCheckResult) fail(component, message string, err error) {
	r.Status = "unhealthy"
	r.Details[component+"_error"] = err.Error()
	failure := fmt.Sprintf("%s: %v", message, err)
	if r.ErrorMessage == "" {
		r.ErrorMessage = failure
	} else {
		r.ErrorMessage = strings.Join([]string{r.ErrorMessage, failure}, "; ")
	}
}

// HealthCheck performs a comprehensive health check of the service. Optional components
// that are not configured report "disabled" and do not affect the status.
func HealthCheck(ctx context.Context, cfg *config.Config, db *gorm.DB, c cache.Cache, log *zap.Logger) HealthCheckResult {
	log = logging.OrNop(log)
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result := HealthCheckResult{
		Status:     "healthy",
		Cache:      "disabled",
		Authorizer: "disabled",
		Details:    make(map[string]string),
	}

	// Check database connectivity
	sqlDB, err := db.DB()
	if err != nil {
		result.Database = "error"
		result.fail("database", "Database connection error", err)
	} else if err := sqlDB.PingContext(ctx); err != nil {
		result.Database = "unreachable"
		result.fail("database", "Database ping failed", err)
	} else {
		result.Database = "ok"
		result.Details["database_type"] = cfg.DBType
		result.Details["database_name"] = cfg.DBDatabase
	}

	if c != nil {
		if err := c.Ping(ctx); err != nil {
			result.Cache = "unreachable"
			result.fail("cache", "Cache ping failed", err)
		} else {
			result.Cache = "ok"
			result.Details["cache_type"] = c.Name()
		}
	}

	if cfg.AuthorizerEnabled() {
		if err := utils.PingAuthorizer(ctx, cfg.AuthzURL); err != nil {
			result.Authorizer = "unreachable"
			result.fail("authorizer", "Authorizer ping failed", err)
		} else {
			result.Authorizer = "ok"
			result.Details["authorizer_url"] = cfg.AuthzURL
		}
	}

	if result.Status == "healthy" {
		log.Debug("health check passed")
	} else {
		log.Warn("health check failed", zap.String("error", result.ErrorMessage))
	}

	return result
}
