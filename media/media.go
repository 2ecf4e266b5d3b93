// Package media handles uploads to the blob store and the media
// manifest served to the gallery frontend.
package media

import (
	"time"

	"guestbook-api/blob"
)

// How long an issued direct-upload URL stays valid.
const directUploadExpiry = 15 * time.Minute

// DirectUpload is the answer to a direct-upload request: the client
// PUTs its bytes to UploadURL and the object becomes reachable at URL.
type DirectUpload struct {
	Filename    string
	ContentType string
	URL         string
	UploadURL   string
	MaxSize     int64
}

// UploadResult describes a completed proxy upload.
type UploadResult struct {
	Filename    string
	ContentType string
	URL         string
	Size        int64
}

// Item is one entry of the media manifest.
type Item struct {
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt,omitzero"`
}

type Service struct {
	store         blob.Store
	guestbookFile string
}

// NewService returns a media service. guestbookFile is the storage
// name of the guestbook document, which listings must never include.
func NewService(store blob.Store, guestbookFile string) *Service {
	return &Service{
		store:         store,
		guestbookFile: guestbookFile,
	}
}
