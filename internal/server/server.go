package server

import (
	"strings"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/localnerve/homespace/internal/cache"
	"github.com/localnerve/homespace/internal/config"
	"github.com/localnerve/homespace/internal/handlers"
	"github.com/localnerve/homespace/internal/logging"
	"github.com/localnerve/homespace/internal/middleware"
	"github.com/localnerve/homespace/internal/services"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/localnerve/homespace/docs/api" // Swagger docs
)

// Deps is everything the HTTP layer is built from
type Deps struct {
	Config  *config.Config
	DB      *gorm.DB
	Cache   cache.Cache
	Fetcher services.Fetcher
	Logger  *zap.Logger

	// Metrics defaults to a collector on a private registry, so that several apps can
	// coexist in one process. The server binary passes one on the default registry.
	Metrics *fiberprometheus.FiberPrometheus
}

// New wires services, middleware and routes into a fiber app
func New(deps Deps) *fiber.App {
	cfg := deps.Config
	log := logging.OrNop(deps.Logger)

	users := services.NewUserService(deps.DB, nil, log)
	tokens := services.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	spaces := services.NewSpaceService(deps.DB, log)
	widgets := services.NewWidgetService(deps.DB, log)
	links := services.NewLinkRegistry(deps.DB, deps.Fetcher, log)
	preview := services.NewPreviewService(deps.Fetcher, deps.Cache, cfg.PreviewTTL, log)

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(log),
		DisableStartupMessage: true,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(middleware.Logging(log))
	app.Use(compress.New())
	if origins := strings.Join(cfg.CORSOrigins, ","); origins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     "GET,POST,PATCH,DELETE,OPTIONS",
			AllowHeaders:     "Origin,Content-Type,Accept,Authorization,X-Api-Version",
			AllowCredentials: true,
		}))
	}

	// Prometheus metrics
	metrics := deps.Metrics
	if metrics == nil {
		metrics = fiberprometheus.NewWithRegistry(prometheus.NewRegistry(), "homespace", "", "", nil)
	}
	metrics.RegisterAt(app, "/metrics")
	app.Use(metrics.Middleware)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	healthHandler := &handlers.HealthHandler{Config: cfg, DB: deps.DB, Cache: deps.Cache, Logger: log}
	app.Get("/healthcheck", healthHandler.HealthCheck)

	metadataHandler := &handlers.MetadataHandler{Preview: preview}
	app.Get("/metadata", metadataHandler.GetMetadata)

	// API routes under /api
	api := app.Group("/api")
	api.Use(middleware.Identify(middleware.Identity{
		Tokens: tokens,
		Users:  users,
		Config: cfg,
		Logger: log,
	}))
	api.Use(middleware.VersionMiddleware())

	spaceHandler := &handlers.SpaceHandler{Spaces: spaces}
	api.Get("/spaces", spaceHandler.ListSpaces)
	api.Post("/spaces", spaceHandler.CreateSpace)
	api.Get("/spaces/:id", spaceHandler.GetSpace)
	api.Patch("/spaces/:id", spaceHandler.UpdateSpace)
	api.Delete("/spaces/:id", spaceHandler.DeleteSpace)
	api.Post("/spaces/:id/toggle-bookmark", spaceHandler.ToggleBookmark)
	api.Post("/spaces/:id/clone", spaceHandler.CloneSpace)

	widgetHandler := &handlers.WidgetHandler{Widgets: widgets}
	api.Get("/widgets", widgetHandler.ListWidgets)
	api.Post("/widgets", widgetHandler.CreateWidget)
	api.Get("/widgets/:id", widgetHandler.GetWidget)
	api.Patch("/widgets/:id", widgetHandler.UpdateWidget)
	api.Delete("/widgets/:id", widgetHandler.DeleteWidget)

	linkHandler := &handlers.LinkHandler{Links: links}
	api.Post("/links", linkHandler.ResolveLink)
	api.Get("/links/:id", linkHandler.GetLink)
	api.Delete("/links/:id", linkHandler.DeleteLink)

	userHandler := &handlers.UserHandler{Users: users}
	api.Get("/users/me", userHandler.GetMe)
	api.Patch("/users/me", userHandler.UpdateMe)
	api.Delete("/users/me", userHandler.DeleteMe)

	authHandler := handlers.NewAuthHandler(cfg, users, tokens, log)
	api.Get("/auth/google/login", authHandler.Login)
	api.Get("/auth/google/callback", authHandler.Callback)
	api.Post("/auth/logout", authHandler.Logout)

	// 404 handler
	app.Use(handlers.NotFound)

	return app
}
