package media

import (
	"context"
	"fmt"
	"path"
	"strings"
)

// Name extensions recognized as gallery media.
var mediaExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".heic": true,
	".mp4":  true,
	".mov":  true,
	".avi":  true,
	".webm": true,
}

// List returns the stored media objects in backend listing order,
// dropping the guestbook document and anything without a recognized
// image or video extension.
func (s *Service) List(ctx context.Context) ([]Item, error) {
	objects, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list objects, %w", err)
	}

	items := []Item{}

	for _, obj := range objects {
		if strings.EqualFold(obj.Name, s.guestbookFile) {
			continue
		}

		if !mediaExtensions[strings.ToLower(path.Ext(obj.Name))] {
			continue
		}

		items = append(items, Item{
			Name:       obj.Name,
			URL:        obj.URL,
			Size:       obj.Size,
			UploadedAt: obj.UploadedAt,
		})
	}

	return items, nil
}
