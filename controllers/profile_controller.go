package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/skayplayerv1-cmyk/app-caloria-fotografica/services"
	"github.com/skayplayerv1-cmyk/app-caloria-fotografica/utils"
)

type ProfileController struct {
	Svc *services.ProfileService
}

func NewProfileController(svc *services.ProfileService) *ProfileController {
	return &ProfileController{Svc: svc}
}

// GET /profile
func (h *ProfileController) GetProfile(c *gin.Context) {
	uid, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	p, err := h.Svc.GetProfile(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// PUT /profile
func (h *ProfileController) UpdateProfile(c *gin.Context) {
	uid, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var in services.ProfileInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if in.Email == "" {
		in.Email = c.GetString("email")
	}

	p, err := h.Svc.SaveProfile(c.Request.Context(), uid, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GET /goals/calculate?weight=&height=&age=&gender=&activity_level=&goal=
// Pure calculator, nothing is stored.
func CalculateGoals(c *gin.Context) {
	weight, err1 := strconv.ParseFloat(c.Query("weight"), 64)
	height, err2 := strconv.ParseFloat(c.Query("height"), 64)
	age, err3 := strconv.ParseFloat(c.Query("age"), 64)
	if err1 != nil || err2 != nil || err3 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "weight, height and age are required numbers"})
		return
	}

	g, err := utils.CalculateDailyGoals(weight, height, age,
		c.DefaultQuery("gender", services.DefaultGender),
		c.DefaultQuery("activity_level", services.DefaultActivityLevel),
		c.DefaultQuery("goal", services.DefaultGoal))
	if err != nil {
		respondError(c, err)
		return
	}

	out := gin.H{"goals": g}
	if bmi, err := utils.CalculateBMI(height, weight); err == nil {
		out["bmi"] = bmi
	}
	c.JSON(http.StatusOK, out)
}
