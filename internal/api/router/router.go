// Package router sets up the API routes for the application.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/Tushar-r12345/ai-code-review-analysis/consts"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/api/handler"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/api/middleware"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/config"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/engine"
)

// QueueStatsProvider reports in-memory queue counters.
// Implemented by engine.Engine.
type QueueStatsProvider interface {
	QueueStats() engine.QueueStats
}

// Deps holds the services the routes are bound to
type Deps struct {
	Tasks   handler.TaskService
	Fetcher handler.MetadataFetcher
	Queue   QueueStatsProvider

	// Metrics is the scrape handler; nil disables the metrics route
	Metrics     http.Handler
	MetricsPath string
}

// Setup configures all API routes
func Setup(r *gin.Engine, deps Deps, cfg *config.Config) {
	// Apply global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger(&middleware.LoggerConfig{
		AccessLog: cfg.Logging.AccessLog,
	}))
	r.Use(middleware.CORS(cfg.Server.CORSOrigins))
	r.Use(middleware.RequestID())
	r.Use(middleware.ErrorHandler(cfg.Server.Debug))

	// Apply OpenTelemetry tracing middleware
	r.Use(otelgin.Middleware(consts.ServiceName))

	r.GET("/health", handler.Health)

	if deps.Metrics != nil {
		path := deps.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(deps.Metrics))
	}

	analysisHandler := handler.NewAnalysisHandler(
		deps.Tasks,
		deps.Fetcher,
		cfg.Server.SyncFetchTimeoutDuration(),
		cfg.Server.SyncWaitTimeoutDuration(),
	)
	r.POST("/analyze-pr", analysisHandler.AnalyzePR)
	r.POST("/analyze-code", analysisHandler.AnalyzeCode)

	statusHandler := handler.NewStatusHandler(deps.Tasks)
	r.GET("/status/:task_id", statusHandler.GetStatus)

	if deps.Queue != nil {
		r.GET("/queue/status", func(c *gin.Context) {
			stats := deps.Queue.QueueStats()
			c.JSON(http.StatusOK, gin.H{
				"pending": stats.Pending,
				"running": stats.Running,
				"parked":  stats.Parked,
			})
		})
	}
}
