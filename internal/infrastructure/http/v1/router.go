// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"pharmapos/internal/domain/documents/sale"
	"pharmapos/internal/domain/registers/loyalty"
	"pharmapos/internal/domain/registers/stock"
	"pharmapos/internal/infrastructure/http/v1/handlers"
	"pharmapos/internal/infrastructure/http/v1/middleware"
	"pharmapos/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// Pinger backs the readiness probe
	Pinger handlers.Pinger

	// Storage and Version are reported by /health/info
	Storage string
	Version string

	Sales   *sale.Service
	Stock   *stock.Service
	Loyalty *loyalty.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	if err := registerValidators(); err != nil {
		return nil, err
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestContext())
	router.Use(middleware.AccessLog(cfg.Logger))
	router.Use(middleware.Errors())

	healthHandler := handlers.NewHealthHandler(cfg.Pinger, cfg.Storage, cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	v1 := router.Group("/api/v1")
	base := handlers.NewBaseHandler()

	registerSaleRoutes(v1, base, cfg)
	registerStockRoutes(v1, base, cfg)
	registerCustomerRoutes(v1, base, cfg)

	return router, nil
}

// registerSaleRoutes registers sale document endpoints.
func registerSaleRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewSaleHandler(base, cfg.Sales)

	sales := rg.Group("/sales")
	sales.POST("", h.Finalize)
	sales.POST("/quote", h.Quote)
	sales.GET("/by-id/:id", h.GetByID)
	sales.GET("/by-id/:id/audit", h.GetHistory)
	sales.GET("/:number", h.GetByNumber)
}

// registerStockRoutes registers stock ledger endpoints.
func registerStockRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewStockHandler(base, cfg.Stock)

	stockGroup := rg.Group("/stock")
	stockGroup.POST("/receipts", h.Receive)
	stockGroup.GET("/batches/:product/:batch", h.GetBatch)
	stockGroup.GET("/batches/:product/:batch/movements", h.GetMovements)
}

// registerCustomerRoutes registers loyalty account endpoints.
func registerCustomerRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewCustomerHandler(base, cfg.Loyalty)

	customers := rg.Group("/customers")
	customers.POST("", h.Enroll)
	customers.GET("/:contact", h.Get)
	customers.GET("/:contact/movements", h.GetMovements)
}
