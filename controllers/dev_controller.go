package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/skayplayerv1-cmyk/app-caloria-fotografica/services"
)

// DevController sends a test push to the caller's own devices.
type DevController struct {
	Push *services.PushService
}

func NewDevController(p *services.PushService) *DevController {
	return &DevController{Push: p}
}

type pushReq struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data"`
}

// POST /dev/push
func (d *DevController) PushTest(c *gin.Context) {
	uid, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if d.Push == nil {
		respondError(c, services.ErrPushNotConfigured)
		return
	}

	var req pushReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Title == "" {
		req.Title = "Test alert"
	}
	if req.Body == "" {
		req.Body = "This is only a test."
	}
	if req.Data == nil {
		req.Data = map[string]string{"type": services.AlertInfo}
	}

	// fire and forget, failures are logged by the service
	d.Push.PushToUser(c.Request.Context(), uid, req.Title, req.Body, req.Data)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
