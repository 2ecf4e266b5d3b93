package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ListMedia returns the media manifest: every stored image or video,
// in backend listing order.
func (a *API) ListMedia(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	items, err := a.Media.List(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success":   false,
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to list media", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"media":   items,
	})
}
