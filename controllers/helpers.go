package controllers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/skayplayerv1-cmyk/app-caloria-fotografica/middlewares"
	"github.com/skayplayerv1-cmyk/app-caloria-fotografica/services"
)

func userIDFromCtx(c *gin.Context) (string, bool) {
	id := c.GetString(middlewares.UserIDKey)
	return id, id != ""
}

// respondError maps service errors to a status; anything unmapped is logged and hidden.
func respondError(c *gin.Context, err error) {
	code := services.StatusFor(err)
	if code >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "err", err)
		c.JSON(code, gin.H{"error": "internal error"})
		return
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

func paramUint(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(v), true
}
