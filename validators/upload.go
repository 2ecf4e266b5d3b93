// Package validators holds the request validation helpers shared by
// the upload endpoints.
package validators

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/viper"
)

var (
	ErrFileTooLarge        = errors.New("file too large")
	ErrFileTypeUnsupported = errors.New("unsupported file type")
)

// Browsers report wildly different MIME types for the same file, so
// matching happens on subtype fragments rather than exact types.
var allowedTypeFragments = []string{
	"jpeg", "jpg", "png", "gif", "webp", "heic",
	"mp4", "mov", "quicktime", "x-msvideo", "avi", "webm",
}

// Upload checks a declared content type and size against the allow
// list and the configured ceiling. Returns the HTTP status code to
// respond with alongside the error.
func Upload(contentType string, size int64) (int, error) {
	ct := strings.ToLower(contentType)

	ok := false
	for _, frag := range allowedTypeFragments {
		if strings.Contains(ct, frag) {
			ok = true
			break
		}
	}

	if !ok {
		return http.StatusBadRequest, ErrFileTypeUnsupported
	}

	maxSize := viper.GetInt64("upload.max_size")
	if size > maxSize {
		return http.StatusBadRequest, fmt.Errorf("%w (%dMB), maximum size is %dMB",
			ErrFileTooLarge, size>>20, maxSize>>20)
	}

	return 0, nil
}
