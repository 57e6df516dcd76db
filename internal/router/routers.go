package router

import (
	"github.com/gin-gonic/gin"

	"github.com/Stockline-Systems/inventory/config"
	"github.com/Stockline-Systems/inventory/internal/handler"
	"github.com/Stockline-Systems/inventory/internal/middleware"
	"github.com/Stockline-Systems/inventory/internal/service"
)

// Handlers bundles everything the router wires up
type Handlers struct {
	Auth         *handler.AuthHandler
	Organization *handler.OrganizationHandler
	Employee     *handler.EmployeeHandler
	Item         *handler.ItemHandler
	Order        *handler.OrderHandler
	Report       *handler.ReportHandler
	Health       *handler.HealthHandler
}

// Setup builds the gin engine with the full middleware chain and all
// route groups mounted under /api/v1.
func Setup(cfg *config.Config, h *Handlers, tokens *service.TokenService, users middleware.UserLookup, counter middleware.Counter) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.CORS(),
		middleware.RateLimit(counter, cfg),
	)

	engine.GET("/api/health", h.Health.Check)

	v1 := engine.Group("/api/v1")
	authed := v1.Group("", middleware.RequireAuth(tokens, users))

	registerAuthRoutes(v1, authed, h.Auth)
	registerOrganizationRoutes(authed, h.Organization, h.Employee, users)
	registerInventoryRoutes(authed, h.Item, h.Order, h.Report, users)

	return engine
}
