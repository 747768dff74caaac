package api

import (
	"github.com/gin-gonic/gin"
	"github.com/vadymuxd/searching-the-fox/internal/api/handler"
	"github.com/vadymuxd/searching-the-fox/internal/api/middleware"
	"github.com/vadymuxd/searching-the-fox/internal/logger"
	"github.com/vadymuxd/searching-the-fox/internal/repository"
	"github.com/vadymuxd/searching-the-fox/internal/service"
)

// RouterDeps carries everything the router needs to wire handlers.
type RouterDeps struct {
	Pipeline   *service.Pipeline
	Dispatcher *service.Dispatcher
	Runs       *repository.RunRepository
	Logger     *logger.Logger
	Mode       string
	CORS       middleware.CORSConfig
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(deps RouterDeps) *gin.Engine {
	// Set Gin mode
	switch deps.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(deps.Logger))
	r.Use(middleware.CORS(deps.CORS))

	// Create handlers
	healthHandler := handler.NewHealthHandler()
	scrapeHandler := handler.NewScrapeHandler(deps.Pipeline, deps.Runs)
	notifyHandler := handler.NewNotifyHandler(deps.Dispatcher)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Ingestion
		v1.POST("/scrape", scrapeHandler.Scrape)
		v1.GET("/runs/:id", scrapeHandler.GetRun)

		// Queue
		v1.POST("/queue/poll", scrapeHandler.PollQueue)
		v1.POST("/runs/cleanup", scrapeHandler.CleanupRuns)

		// Digests
		v1.POST("/notify/users/:id", notifyHandler.NotifyUser)
		v1.POST("/notify/all", notifyHandler.NotifyAll)
	}

	return r
}
