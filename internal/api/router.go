package api

import (
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/guttosm/lookthrough/internal/middleware"
)

// RouterConfig holds the per-request limits applied by NewRouter.
type RouterConfig struct {
	RequestTimeout time.Duration
	RateLimit      float64 // requests per second per client, 0 disables
	RateBurst      int
}

// NewRouter creates a Gin engine with the global middlewares, Swagger UI and
// the /api/v1 routes. Health probes are registered separately by the app.
func NewRouter(handler *Handler, cfg RouterConfig) *gin.Engine {
	router := gin.New()

	// ─── Middlewares ───────────────────────────────
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.RecoveryMiddleware(),
		middleware.ErrorHandler,
		middleware.RateLimiter(cfg.RateLimit, cfg.RateBurst),
		middleware.Timeout(cfg.RequestTimeout),
	)

	// ─── Swagger ──────────────────────────────────
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// ─── API v1 ───────────────────────────────────
	v1 := router.Group("/api/v1")
	{
		v1.GET("/quote", handler.GetQuote)
		v1.GET("/quotes", handler.GetQuotes)
		v1.GET("/history", handler.GetHistory)
		v1.GET("/search", handler.Search)
		v1.GET("/news", handler.News)
		v1.GET("/fundamentals", handler.GetFundamentals)
		v1.POST("/exposure", handler.PostExposure)
		v1.GET("/users/:userID/exposure", handler.GetUserExposure)
	}

	return router
}
