package api

import (
	"errors"
	"net/http"

	"guestbook-api/guestbook"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// GuestbookSubmit appends one entry to the guestbook document. The
// body may be url-encoded or multipart form data; missing or unparsable
// fields come through as empty strings rather than failing the request.
func (a *API) GuestbookSubmit(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	sub := guestbook.Submission{
		Name:      c.PostForm("name"),
		Message:   c.PostForm("message"),
		Timestamp: c.PostForm("timestamp"),
		Honeypot:  c.PostForm(viper.GetString("guestbook.honeypot_field")),
	}

	res, err := a.Guestbook.Append(c.Request.Context(), sub, c.ClientIP())
	if err != nil {
		if errors.Is(err, guestbook.ErrThrottled) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success":   false,
				"error":     "Too many requests. Please wait a moment before signing again.",
				"requestID": requestID,
			})
			return
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success":   false,
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to append guestbook entry", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"url":       res.URL,
		"filename":  a.Guestbook.Filename(),
		"timestamp": res.Timestamp,
	})
}
