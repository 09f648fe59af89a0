package api

import (
	"depot/internal/server/config"
	"depot/internal/server/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// SetupRouter creates and configures the echo router with all routes and middleware.
func SetupRouter(handler *Handler, auth *service.AuthService, cfg *config.Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = NewRequestValidator()

	// Global middleware
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "Authorization", TokenHeader},
	}))
	e.Use(RequestLogger())

	// Rate limiter on the credential endpoints only
	credLimiter := NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	requireToken := TokenAuth(auth)

	// Status & stats
	e.GET("/status", handler.HandleStatus)
	e.GET("/stats", handler.HandleStats)

	// Accounts & sessions
	e.POST("/users", handler.HandleRegister, credLimiter.Middleware())
	e.GET("/connect", handler.HandleConnect, credLimiter.Middleware())
	e.GET("/disconnect", handler.HandleDisconnect)
	e.GET("/users/me", handler.HandleMe, requireToken)

	// Files
	e.POST("/files", handler.HandleCreateFile, requireToken)
	e.GET("/files", handler.HandleListFiles, requireToken)
	e.GET("/files/:id", handler.HandleGetFile, requireToken)
	e.PUT("/files/:id/publish", handler.HandlePublish, requireToken)
	e.PUT("/files/:id/unpublish", handler.HandleUnpublish, requireToken)

	// Content read has its own optional-token rules
	e.GET("/files/:id/data", handler.HandleFileData)

	return e
}
