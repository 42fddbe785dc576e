package router

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/healthbridge/partner-api/internal/middleware"
)

// Handler is any resource handler that can mount its routes on a
// group. Authorization is declared per route by the handler itself.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Router struct {
	engine  *gin.Engine
	health  Handler
	authH   Handler
	adminH  Handler
	hosp    Handler
	staffH  Handler
	metrics *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
}

type Config struct {
	RateLimitRPS   float64
	RateLimitBurst int
	RequestTimeout time.Duration
	CORS           middleware.CORSConfig
	MetricsPrefix  string
}

func NewRouter(
	health Handler,
	authH Handler,
	hospitalH Handler,
	staffH Handler,
	adminH Handler,
	logger zerolog.Logger,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	r := &Router{
		engine:  engine,
		health:  health,
		authH:   authH,
		adminH:  adminH,
		hosp:    hospitalH,
		staffH:  staffH,
		metrics: initRouterMetrics(config.MetricsPrefix),
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Recovery(),
		middleware.ErrorHandler(),
		r.metricsMiddleware(),
		middleware.Timeout(config.RequestTimeout),
		middleware.CORS(config.CORS),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
	)

	limiter := middleware.NewRateLimiter(config.RateLimitRPS, config.RateLimitBurst)
	engine.Use(limiter.RateLimit())

	return r
}

func (r *Router) Setup() {
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.health.RegisterRoutes(&r.engine.RouterGroup)

	api := r.engine.Group("/api/v1")

	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.authH.RegisterRoutes(api)
	r.hosp.RegisterRoutes(api)
	r.staffH.RegisterRoutes(api)
	r.adminH.RegisterRoutes(api)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func initRouterMetrics(prefix string) *routerMetrics {
	return &routerMetrics{
		requestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: prefix + "_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
	}
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}
