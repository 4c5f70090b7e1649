package routes

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/skayplayerv1-cmyk/app-caloria-fotografica/controllers"
	"github.com/skayplayerv1-cmyk/app-caloria-fotografica/middlewares"
)

// Handlers is everything the router needs; built once in main.
type Handlers struct {
	JWTSecret string
	Meals     *controllers.MealController
	Stats     *controllers.StatsController
	Profile   *controllers.ProfileController
	Analytics *controllers.AnalyticsController
	Realtime  *controllers.RealtimeController
	Devices   *controllers.DeviceController
	Alerts    *controllers.AlertController
	Dev       *controllers.DevController
	// Health reports dependency status for /healthz; nil means always healthy.
	Health func(ctx context.Context) map[string]string
}

func SetupRouter(h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middlewares.RequestID(), middlewares.AccessLog())

	r.GET("/healthz", func(c *gin.Context) {
		status := map[string]string{}
		if h.Health != nil {
			status = h.Health(c.Request.Context())
		}
		code := http.StatusOK
		for _, v := range status {
			if v == "down" {
				code = http.StatusServiceUnavailable
			}
		}
		c.JSON(code, gin.H{"status": status})
	})

	// pure calculator, no user data involved
	r.GET("/goals/calculate", controllers.CalculateGoals)

	api := r.Group("/")
	api.Use(middlewares.AuthMiddleware(h.JWTSecret))
	{
		stats := api.Group("/stats")
		stats.GET("/today", h.Stats.Today)
		stats.GET("/date/:date", h.Stats.ForDate)
		stats.GET("/history", h.Stats.History)
		stats.POST("/date/:date/recompute", h.Stats.Recompute)

		api.GET("/ws/stats", h.Realtime.StatsWS)

		// the rest needs a database; left unregistered (404) when it is not configured
		if h.Meals != nil {
			meals := api.Group("/meals")
			meals.POST("", h.Meals.LogMeal)
			meals.GET("", h.Meals.ListMeals)
			meals.GET("/:id", h.Meals.GetMeal)
			meals.PUT("/:id", h.Meals.UpdateMeal)
			meals.DELETE("/:id", h.Meals.DeleteMeal)
		}
		if h.Profile != nil {
			api.GET("/profile", h.Profile.GetProfile)
			api.PUT("/profile", h.Profile.UpdateProfile)
		}
		if h.Analytics != nil {
			analytics := api.Group("/analytics")
			analytics.GET("/dashboard", h.Analytics.GetDashboard)
			analytics.GET("/summary", h.Analytics.GetAnalyticsSummary)
			analytics.GET("/weekly", h.Analytics.GetWeeklyOverview)
		}
		if h.Devices != nil {
			api.POST("/devices", h.Devices.Register)
			api.POST("/notifications/toggle", h.Devices.ToggleNotifications)
		}
		if h.Alerts != nil {
			api.GET("/alerts", h.Alerts.List)
		}
		if h.Dev != nil {
			api.POST("/dev/push", h.Dev.PushTest)
		}
	}

	return r
}
