package delivery

import (
	"time"

	"marketingops/internal/delivery/middleware"
	"marketingops/pkg/logger"
	"marketingops/pkg/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type HTTPRouter struct {
	handlers       *HTTPHandlers
	logger         *logger.Logger
	metrics        *metrics.Metrics
	requestTimeout time.Duration
}

func NewHTTPRouter(handlers *HTTPHandlers, logger *logger.Logger, metrics *metrics.Metrics, requestTimeout time.Duration) *HTTPRouter {
	return &HTTPRouter{
		handlers:       handlers,
		logger:         logger,
		metrics:        metrics,
		requestTimeout: requestTimeout,
	}
}

func (r *HTTPRouter) SetupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(r.logger))
	router.Use(middleware.Recovery(r.logger))
	router.Use(middleware.Metrics(r.metrics))
	router.Use(middleware.Timeout(r.requestTimeout))

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Content-Type", middleware.RequestIDHeader}
	config.ExposeHeaders = []string{middleware.RequestIDHeader}

	router.Use(cors.New(config))

	// Health endpoint
	router.GET("/health", r.handlers.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/", r.handlers.GetAPIInfo)
		v1.GET("", r.handlers.GetAPIInfo)

		leads := v1.Group("/leads")
		{
			leads.GET("", r.handlers.ListLeads)
			leads.POST("", r.handlers.CreateLead)
			leads.GET("/:id", r.handlers.GetLead)
			leads.PUT("/:id", r.handlers.UpdateLead)
			leads.PATCH("/:id/stage", r.handlers.ChangeLeadStage)
			leads.DELETE("/:id", r.handlers.DeleteLead)
		}

		groups := v1.Group("/campaign-groups")
		{
			groups.GET("", r.handlers.ListGroups)
			groups.POST("", r.handlers.CreateGroup)
			groups.POST("/reorder", r.handlers.ReorderGroups)
			groups.GET("/:id", r.handlers.GetGroup)
			groups.PUT("/:id", r.handlers.UpdateGroup)
			groups.DELETE("/:id", r.handlers.DeleteGroup)
		}

		campaigns := v1.Group("/campaigns")
		{
			campaigns.GET("", r.handlers.ListCampaigns)
			campaigns.POST("", r.handlers.CreateCampaign)
			campaigns.GET("/:id", r.handlers.GetCampaign)
			campaigns.PUT("/:id", r.handlers.UpdateCampaign)
			campaigns.PATCH("/:id/status", r.handlers.ChangeCampaignStatus)
			campaigns.DELETE("/:id", r.handlers.DeleteCampaign)
		}

		goals := v1.Group("/goals")
		{
			goals.GET("", r.handlers.GetGoals)
			goals.PUT("", r.handlers.SaveGoals)
			goals.POST("/sync-ad-spend", r.handlers.SyncAdSpend)
		}

		platforms := v1.Group("/platform-metrics")
		{
			platforms.GET("", r.handlers.ListPlatformMetrics)
			platforms.POST("", r.handlers.AddPlatformSeries)
			platforms.PUT("/:platform/series/:series/:month", r.handlers.SetPlatformValue)
		}

		// Rollup endpoints; all accept ?from=&to=
		dashboard := v1.Group("/dashboard")
		{
			dashboard.GET("", r.handlers.GetDashboard)
			dashboard.GET("/funnel", r.handlers.GetFunnel)
			dashboard.GET("/channels", r.handlers.GetChannels)
			dashboard.GET("/groups", r.handlers.GetGroups)
			dashboard.GET("/summary", r.handlers.GetSummary)
			dashboard.GET("/goals", r.handlers.GetGoalProgress)
			dashboard.GET("/expenses", r.handlers.GetExpenses)
			dashboard.GET("/plan", r.handlers.GetPlan)
		}

		v1.POST("/reports", r.handlers.GenerateReport)

		// Export endpoints
		export := v1.Group("/export")
		{
			export.POST("/run", r.handlers.ExportRun)
		}
	}

	// Prometheus metrics endpoint
	router.GET("/metrics", middleware.PrometheusHandler(r.metrics))

	return router
}
