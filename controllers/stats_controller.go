package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/skayplayerv1-cmyk/app-caloria-fotografica/services"
)

type StatsController struct {
	Svc *services.DailyStatsService
}

func NewStatsController(svc *services.DailyStatsService) *StatsController {
	return &StatsController{Svc: svc}
}

// GET /stats/today
func (h *StatsController) Today(c *gin.Context) {
	h.forDate(c, "")
}

// GET /stats/date/:date
func (h *StatsController) ForDate(c *gin.Context) {
	h.forDate(c, c.Param("date"))
}

func (h *StatsController) forDate(c *gin.Context, date string) {
	uid, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	row, err := h.Svc.GetStatsForDate(c.Request.Context(), uid, date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": row, "exists": row.Exists(), "configured": h.Svc.Configured()})
}

// GET /stats/history?days=7
func (h *StatsController) History(c *gin.Context) {
	uid, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be an integer"})
		return
	}

	rows, err := h.Svc.GetStatsRange(c.Request.Context(), uid, days)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": days, "stats": rows})
}

// POST /stats/date/:date/recompute
func (h *StatsController) Recompute(c *gin.Context) {
	uid, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	row, err := h.Svc.RecomputeForDate(c.Request.Context(), uid, c.Param("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	if row == nil {
		c.JSON(http.StatusOK, gin.H{"stats": nil, "exists": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": row, "exists": true})
}
