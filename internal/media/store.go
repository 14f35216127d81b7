package media

import (
	"context"
	"errors"
	"io"
)

var (
	ErrUploadFailed = errors.New("media upload failed")
	ErrDeleteFailed = errors.New("media delete failed")
)

// Asset is what the media host hands back for an uploaded file: a durable
// URL and the opaque handle required to delete the asset later.
type Asset struct {
	URL    string
	Handle string
}

// Store provides access to the external media host. Content-type and size
// constraints are enforced by callers, not here.
type Store interface {
	Upload(ctx context.Context, folder, filename string, r io.Reader, size int64) (*Asset, error)
	Delete(ctx context.Context, handle string) error
}
