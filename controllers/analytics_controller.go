package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/skayplayerv1-cmyk/app-caloria-fotografica/services"
	"github.com/skayplayerv1-cmyk/app-caloria-fotografica/utils"
)

type AnalyticsController struct {
	Svc *services.AnalyticsService
	loc *time.Location
}

func NewAnalyticsController(svc *services.AnalyticsService, loc *time.Location) *AnalyticsController {
	if loc == nil {
		loc = time.Local
	}
	return &AnalyticsController{Svc: svc, loc: loc}
}

// GET /analytics/dashboard
func (h *AnalyticsController) GetDashboard(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	out, err := h.Svc.Dashboard(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /analytics/summary?from&to&includeMissingDays; defaults to the current month
func (h *AnalyticsController) GetAnalyticsSummary(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	now := time.Now().In(h.loc)
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, h.loc)
	last := first.AddDate(0, 1, -1)

	from := c.DefaultQuery("from", first.Format(utils.DayLayout))
	to := c.DefaultQuery("to", last.Format(utils.DayLayout))
	includeMissing := c.DefaultQuery("includeMissingDays", "false") == "true"

	out, err := h.Svc.Summary(c.Request.Context(), userID, from, to, includeMissing)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /analytics/weekly?week_start&mode=chart|detailed
func (h *AnalyticsController) GetWeeklyOverview(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	weekStart := c.DefaultQuery("week_start", time.Now().In(h.loc).Format(utils.DayLayout))
	mode := c.DefaultQuery("mode", "detailed")

	out, err := h.Svc.WeeklyOverview(c.Request.Context(), userID, weekStart, mode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
