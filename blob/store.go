// Package blob defines the object storage contract the services work
// against. The production implementation lives in the aws package.
package blob

import (
	"context"
	"io"
	"time"
)

// Object describes a single stored object as returned by listings
// and uploads.
type Object struct {
	Name       string
	URL        string
	Size       int64
	UploadedAt time.Time
}

// PutOptions carries optional upload parameters. ContentLength may be
// -1 when the caller streams a body of unknown size.
type PutOptions struct {
	ContentType   string
	ContentLength int64
}

// Store is a name-addressed object store. Writes to an existing name
// overwrite the previous object.
type Store interface {
	// Put uploads the body under the given name and returns the stored
	// object's metadata.
	Put(ctx context.Context, name string, body io.Reader, opts PutOptions) (Object, error)

	// Download returns the full contents of the named object.
	Download(ctx context.Context, name string) ([]byte, error)

	// List returns every stored object in backend order.
	List(ctx context.Context) ([]Object, error)

	// PresignPut returns a short-lived URL a client can PUT bytes to
	// directly, bypassing this process.
	PresignPut(ctx context.Context, name, contentType string, expiry time.Duration) (string, error)

	// ObjectURL returns the public URL an object stored under name is
	// (or will be) reachable at.
	ObjectURL(name string) string
}
