package storage

import "context"

// Uploader pushes a local file to binary-asset storage and returns its
// public URL. An empty URL with nil error means a transient upload failure;
// callers decide whether the asset was mandatory.
type Uploader interface {
	Upload(ctx context.Context, localPath string) (string, error)
}
