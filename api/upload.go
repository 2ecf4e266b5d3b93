package api

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Upload serves both upload flows. A JSON body asks for a direct-upload
// URL so the browser can push bytes straight to the blob store; any
// other body is the legacy path where the file is streamed through this
// process.
func (a *API) Upload(c *gin.Context) {
	if strings.Contains(strings.ToLower(c.GetHeader("Content-Type")), "application/json") {
		a.uploadDirect(c)
		return
	}

	a.uploadProxy(c)
}

func (a *API) uploadDirect(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var req struct {
		Filename    string `json:"filename"`
		ContentType string `json:"contentType"`
		Size        int64  `json:"size"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"success":   false,
			"error":     "Invalid JSON body",
			"requestID": requestID,
		})
		return
	}

	if req.Filename == "" {
		req.Filename = "upload"
	}

	if req.ContentType == "" {
		req.ContentType = "application/octet-stream"
	}

	res, code, err := a.Media.RequestDirectUpload(c.Request.Context(), req.Filename, req.ContentType, req.Size)
	if err != nil {
		if code == 0 {
			code = http.StatusInternalServerError

			zap.L().Error("Failed to issue direct upload URL", zap.Error(err), zap.String("requestID", requestID))
			err = nil
		}

		msg := "Internal server error"
		if err != nil {
			msg = err.Error()
		}

		c.AbortWithStatusJSON(code, gin.H{
			"success":   false,
			"error":     msg,
			"requestID": requestID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"filename":    res.Filename,
		"contentType": res.ContentType,
		"url":         res.URL,
		"uploadUrl":   res.UploadURL,
		"maxSize":     res.MaxSize,
	})
}

func (a *API) uploadProxy(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	filename := c.GetHeader("x-filename")
	if decoded, err := url.PathUnescape(filename); err == nil && decoded != "" {
		filename = decoded
	}
	if filename == "" {
		filename = "unknown-file"
	}

	contentType := c.GetHeader("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	res, code, err := a.Media.ProxyUpload(c.Request.Context(), filename, contentType, c.Request.Body, c.Request.ContentLength)
	if err != nil {
		if code == 0 {
			code = http.StatusInternalServerError

			zap.L().Error("Failed to proxy upload", zap.Error(err), zap.String("requestID", requestID))
			err = nil
		}

		msg := "Internal server error"
		if err != nil {
			msg = err.Error()
		}

		c.AbortWithStatusJSON(code, gin.H{
			"success":   false,
			"error":     msg,
			"requestID": requestID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"filename":    res.Filename,
		"size":        res.Size,
		"contentType": res.ContentType,
		"url":         res.URL,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	})
}
