package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GuestbookFetch returns every guestbook entry in append order. A
// missing document is an empty guestbook, not an error.
func (a *API) GuestbookFetch(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	res, err := a.Guestbook.Entries(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success":   false,
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch guestbook entries", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	resp := gin.H{
		"success": true,
		"entries": res.Entries,
	}

	if res.URL != "" {
		resp["url"] = res.URL
		resp["filename"] = a.Guestbook.Filename()
	}

	c.JSON(http.StatusOK, resp)
}
