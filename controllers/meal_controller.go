package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/skayplayerv1-cmyk/app-caloria-fotografica/services"
)

type MealController struct {
	Svc *services.MealService
}

func NewMealController(svc *services.MealService) *MealController {
	return &MealController{Svc: svc}
}

// POST /meals
func (h *MealController) LogMeal(c *gin.Context) {
	uid, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body services.MealRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	meal, err := h.Svc.AddMeal(c.Request.Context(), uid, body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, meal)
}

// GET /meals?date=YYYY-MM-DD | ?recent=N
func (h *MealController) ListMeals(c *gin.Context) {
	uid, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	ctx := c.Request.Context()
	var (
		out any
		err error
	)
	switch {
	case c.Query("date") != "":
		out, err = h.Svc.ListMealsForDay(ctx, uid, c.Query("date"))
	case c.Query("recent") != "":
		n, _ := strconv.Atoi(c.Query("recent"))
		out, err = h.Svc.ListRecentMeals(ctx, uid, n)
	default:
		out, err = h.Svc.ListMeals(ctx, uid)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /meals/:id
func (h *MealController) GetMeal(c *gin.Context) {
	uid, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}

	meal, err := h.Svc.GetMeal(c.Request.Context(), uid, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, meal)
}

// PUT /meals/:id
func (h *MealController) UpdateMeal(c *gin.Context) {
	uid, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}

	var body services.MealRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	meal, err := h.Svc.UpdateMeal(c.Request.Context(), uid, id, body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, meal)
}

// DELETE /meals/:id
func (h *MealController) DeleteMeal(c *gin.Context) {
	uid, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}

	if err := h.Svc.DeleteMeal(c.Request.Context(), uid, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
