package router

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/alert-engine/internal/handler"
	"github.com/jwalitptl/alert-engine/internal/handler/prometheus"
	"github.com/jwalitptl/alert-engine/internal/middleware"
)

// Handler registers its routes on the API group.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Config struct {
	RateLimit rate.Limit
	RateBurst int
}

type Router struct {
	engine *gin.Engine
}

func NewRouter(
	log zerolog.Logger,
	promH *prometheus.Handler,
	h *handler.Handler,
	config Config,
	apiHandlers ...Handler,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(middleware.RequestID())
	engine.Use(middleware.Logger(log))
	engine.Use(middleware.Recovery())

	engine.GET("/healthz", h.HealthCheck)
	engine.GET("/metrics", promH.Handler())

	limiter := middleware.NewRateLimiter(config.RateLimit, config.RateBurst)
	api := engine.Group("/api/v1", limiter.RateLimit())
	for _, ah := range apiHandlers {
		ah.RegisterRoutes(api)
	}

	return &Router{engine: engine}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
