package objectstore

import (
	"context"
	"io"
)

// Store is the binary blob storage contract. Upload writes the object at
// the given path and returns its public URL. Re-uploading the same path
// overwrites: last write wins, no versioning.
type Store interface {
	Upload(ctx context.Context, path string, r io.Reader) (string, error)
}
