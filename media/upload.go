package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"guestbook-api/blob"
	"guestbook-api/validators"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// RequestDirectUpload validates the announced file and issues a
// presigned URL the browser can upload to directly, bypassing this
// process's body limits. The returned status code is only meaningful
// when err is non-nil.
func (s *Service) RequestDirectUpload(ctx context.Context, filename, contentType string, size int64) (*DirectUpload, int, error) {
	code, err := validators.Upload(contentType, size)
	if err != nil {
		return nil, code, err
	}

	uploadURL, err := s.store.PresignPut(ctx, filename, contentType, directUploadExpiry)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to presign upload, %w", err)
	}

	return &DirectUpload{
		Filename:    filename,
		ContentType: contentType,
		URL:         s.store.ObjectURL(filename),
		UploadURL:   uploadURL,
		MaxSize:     viper.GetInt64("upload.max_size"),
	}, 0, nil
}

// ProxyUpload streams the request body straight into the blob store.
// This is the legacy path for clients that don't use direct uploads;
// validation runs on the declared type and length before any byte of
// the body is consumed. The declared type is easy to spoof, so the
// first bytes are sniffed as well once validation passed.
func (s *Service) ProxyUpload(ctx context.Context, filename, contentType string, body io.Reader, declaredLength int64) (*UploadResult, int, error) {
	code, err := validators.Upload(contentType, declaredLength)
	if err != nil {
		return nil, code, err
	}

	body, code, err = s.sniffBody(body, contentType)
	if err != nil {
		return nil, code, err
	}

	length := declaredLength
	if length <= 0 {
		// Unknown size, let the uploader chunk it
		length = -1
	}

	obj, err := s.store.Put(ctx, filename, body, blob.PutOptions{
		ContentType:   contentType,
		ContentLength: length,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to upload file, %w", err)
	}

	zap.L().Debug("File uploaded",
		zap.String("filename", filename),
		zap.Int64("size", declaredLength),
	)

	return &UploadResult{
		Filename:    filename,
		ContentType: contentType,
		URL:         obj.URL,
		Size:        declaredLength,
	}, 0, nil
}

// sniffBody detects the real content type from the body's first bytes
// and rejects uploads whose content is recognizably neither image nor
// video. Unrecognized content is let through on the declared type.
func (s *Service) sniffBody(body io.Reader, declared string) (io.Reader, int, error) {
	head := make([]byte, 3072)

	n, err := io.ReadFull(body, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, 0, fmt.Errorf("failed to read upload body, %w", err)
	}
	head = head[:n]

	detected := mimetype.Detect(head).String()

	recognized := strings.HasPrefix(detected, "image/") || strings.HasPrefix(detected, "video/")
	if !recognized && detected != "application/octet-stream" {
		zap.L().Warn("Upload content does not match its declared type",
			zap.String("declared", declared),
			zap.String("detected", detected),
		)
		return nil, http.StatusBadRequest, validators.ErrFileTypeUnsupported
	}

	return io.MultiReader(bytes.NewReader(head), body), 0, nil
}
