// routes.go - Route registration and middleware setup
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/statement-renamer/backend/internal/config"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Processor     PDFProcessor
	BatchMgr      BatchManager
	Strategies    []string
	Version       string
	MaxUploadSize int64
}

// Handlers holds all handler instances
type Handlers struct {
	Health  HealthHandler
	Process ProcessHandler
	Batch   BatchHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(deps.Version, deps.Strategies),
		Process: NewProcessHandler(deps.Processor, deps.MaxUploadSize),
		Batch:   NewBatchHandler(deps.BatchMgr),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	apiGroup := e.Group("/api")

	// Health check
	apiGroup.GET("/health", handlers.Health.HandleHealth)

	// Single-file variant
	apiGroup.POST("/process-pdf", handlers.Process.HandleProcessPDF)

	// Batch variant
	batchGroup := apiGroup.Group("/batches")
	batchGroup.POST("", handlers.Batch.HandleStartBatch)
	batchGroup.GET("/:batchId", handlers.Batch.HandleBatchStatus)
	batchGroup.GET("/:batchId/progress", handlers.Batch.HandleBatchProgressStream)
	batchGroup.POST("/:batchId/keepalive", handlers.Batch.HandleSessionKeepAlive)
	batchGroup.GET("/:batchId/decisions", handlers.Batch.HandleGetDecisions)
	batchGroup.GET("/:batchId/decisions/msgpack", handlers.Batch.HandleGetDecisionsMsgpack)
	batchGroup.PATCH("/:batchId/decisions/:decisionId", handlers.Batch.HandleUpdateDecision)
	batchGroup.POST("/:batchId/rename", handlers.Batch.HandleRename)
}

// SetupMiddleware configures the common middleware stack from cfg
func SetupMiddleware(e *echo.Echo, cfg *config.AppConfig, logger *zap.Logger) {
	e.HTTPErrorHandler = ErrorHandler

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			if !cfg.Advanced.EnableRequestLogging {
				return true
			}
			path := c.Request().URL.Path
			return isStreamPath(path) || path == "/api/health"
		},
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				logger.Warn("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Info("request", fields...)
			return nil
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("handler panicked", zap.Error(err), zap.ByteString("stack", stack))
			return err
		},
	}))

	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: time.Duration(cfg.Server.ReadTimeout) * time.Second,
		Skipper: func(c echo.Context) bool {
			return isStreamPath(c.Request().URL.Path) ||
				c.Request().Header.Get("Accept") == "text/event-stream"
		},
		ErrorMessage: "Request timeout",
	}))

	if cfg.Processing.EnableCompression {
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
			Level: cfg.Processing.CompressionLevel,
			Skipper: func(c echo.Context) bool {
				return isStreamPath(c.Request().URL.Path) ||
					c.Request().Header.Get("Accept") == "text/event-stream"
			},
		}))
	}

	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	if cfg.Server.RateLimitPerSecond > 0 {
		e.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Skipper: func(c echo.Context) bool {
				return isStreamPath(c.Request().URL.Path)
			},
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(cfg.Server.RateLimitPerSecond),
				Burst:     cfg.Server.RateLimitBurst,
				ExpiresIn: 3 * time.Minute,
			}),
			DenyHandler: func(c echo.Context, identifier string, err error) error {
				return &APIError{
					Status:  http.StatusTooManyRequests,
					Code:    "RATE_LIMITED",
					Message: "too many requests",
				}
			},
		}))
	}

	if cfg.Server.EnableCORS {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: cfg.GetAllowOrigins(),
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}
}

func isStreamPath(path string) bool {
	return strings.HasSuffix(path, "/progress")
}
