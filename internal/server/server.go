package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/victoralfred/userdir/internal/config"
	"github.com/victoralfred/userdir/internal/domain/ratelimit"
	"github.com/victoralfred/userdir/internal/handlers"
	"github.com/victoralfred/userdir/internal/middleware"
	"go.uber.org/zap"
)

// ShutdownTimeout bounds how long in-flight requests may run after shutdown starts
const ShutdownTimeout = 30 * time.Second

// Server interface
type Server interface {
	Setup()
	Run(ctx context.Context) error
	Router() *gin.Engine
}

// HTTPServer implements the Server interface
type HTTPServer struct {
	router   *gin.Engine
	config   *config.Config
	logger   *zap.Logger
	services *Services
}

// Services holds all handler dependencies
type Services struct {
	UserHandler *handlers.UserHandler

	// RateLimiter guards user creation when rate limiting is enabled
	RateLimiter ratelimit.Limiter
}

// New creates a new server instance
func New(cfg *config.Config, svcs *Services, logger *zap.Logger) *HTTPServer {
	if svcs == nil {
		svcs = &Services{}
	}
	return &HTTPServer{
		config:   cfg,
		services: svcs,
		logger:   logger,
	}
}

// Setup initializes the router
func (s *HTTPServer) Setup() {
	if s.config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()
	s.setupMiddleware()
	s.setupRoutes()
}

func (s *HTTPServer) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.Logger(s.logger))

	corsConfig := cors.Config{
		AllowOrigins:     s.config.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: s.config.CORS.AllowCredentials,
		MaxAge:           s.config.CORS.MaxAge.Duration,
	}
	if len(corsConfig.AllowOrigins) == 0 || slices.Contains(corsConfig.AllowOrigins, "*") {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
	}
	s.router.Use(cors.New(corsConfig))
}

func (s *HTTPServer) setupRoutes() {
	v1 := s.router.Group("/v1")

	v1.GET("/health", s.healthCheck)
	v1.GET("/info", s.apiInfo)

	users := v1.Group("/users")
	{
		if h := s.services.UserHandler; h != nil {
			users.GET("", h.ListUsers)
			users.POST("", append(s.createLimits(), h.CreateUser)...)
			users.GET("/:id", h.GetUser)
			users.GET("/:id/fetch", h.FetchUser)
		} else {
			users.GET("", s.notImplemented)
			users.POST("", s.notImplemented)
			users.GET("/:id", s.notImplemented)
			users.GET("/:id/fetch", s.notImplemented)
		}
	}
}

func (s *HTTPServer) createLimits() []gin.HandlerFunc {
	rule := ratelimit.Rule{
		Limit:  s.config.RateLimit.Requests,
		Window: s.config.RateLimit.Window.Duration,
	}
	if !s.config.RateLimit.Enabled || s.services.RateLimiter == nil || !rule.Valid() {
		return nil
	}
	return []gin.HandlerFunc{middleware.RateLimit(s.services.RateLimiter, rule, s.logger)}
}

func (s *HTTPServer) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   s.config.Version,
		"uptime":    time.Since(s.config.StartTime).Seconds(),
	})
}

func (s *HTTPServer) apiInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version":     s.config.Version,
		"environment": s.config.Environment,
		"storage":     s.config.Storage.Driver,
		"cache":       s.config.Cache.Enabled,
	})
}

func (s *HTTPServer) notImplemented(c *gin.Context) {
	c.JSON(http.StatusNotImplemented, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "NOT_IMPLEMENTED",
			"message": "This endpoint is not yet implemented",
		},
	})
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", s.config.Port),
		Handler:        s.router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server",
			zap.Int("port", s.config.Port),
			zap.String("environment", s.config.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	<-errCh
	s.logger.Info("Server exited")
	return nil
}

// Router returns the gin router for testing
func (s *HTTPServer) Router() *gin.Engine {
	return s.router
}
