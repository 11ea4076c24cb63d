package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/daystep/daystep/config"
	"github.com/daystep/daystep/controllers"
	"github.com/daystep/daystep/middleware"
	"github.com/daystep/daystep/repository"
	"github.com/daystep/daystep/utils"
)

// Deps carries the wired controllers and the user store the identity
// middleware resolves against.
type Deps struct {
	Users     repository.UserRepo
	Auth      *controllers.AuthController
	Catalog   *controllers.CatalogController
	Challenge *controllers.ChallengeController
	Progress  *controllers.ProgressController
	Wins      *controllers.WinsController
	Journal   *controllers.JournalController
	Events    *controllers.EventsController
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(deps Deps) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestLogger(utils.Logger))
	r.Use(middleware.Recovery(utils.Logger))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", middleware.AnonIDHeader},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}

	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")

	// Public surface: login, OAuth handshake, the challenge catalog and the
	// anonymized wins feed.
	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/login", deps.Auth.Login)
	authGroup.GET("/oauth/:provider/login", deps.Auth.OAuthRedirect)
	authGroup.GET("/oauth/:provider/callback", deps.Auth.OAuthCallback)

	api.GET("/challenges", deps.Catalog.List)
	api.GET("/wins", deps.Wins.List)

	// Everything below resolves an identity first: either a Bearer token or
	// the anonymous device id header.
	identified := api.Group("")
	identified.Use(middleware.Identity(deps.Users))

	identified.POST("/auth/register", middleware.RateLimitMiddleware(), deps.Auth.Register)
	identified.POST("/auth/logout", deps.Auth.Logout)
	identified.GET("/auth/me", deps.Auth.Me)

	identified.GET("/today", deps.Challenge.Today)
	identified.GET("/progress", deps.Progress.GetProgress)
	identified.GET("/journal", deps.Journal.List)
	identified.GET("/events", deps.Events.Stream)

	mutating := identified.Group("")
	mutating.Use(middleware.RateLimitMiddleware())
	mutating.POST("/today/complete", deps.Challenge.Complete)
	mutating.POST("/today/skip", deps.Challenge.Skip)
	mutating.PATCH("/progress/:date/note", deps.Progress.UpdateNote)
	mutating.POST("/wins", deps.Wins.Create)
	mutating.POST("/wins/:id/like", deps.Wins.Like)
	mutating.POST("/journal", deps.Journal.Create)
	mutating.PATCH("/journal/:id", deps.Journal.Update)
	mutating.DELETE("/journal/:id", deps.Journal.Delete)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
