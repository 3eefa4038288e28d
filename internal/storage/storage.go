package storage

import (
	"context"
	"errors"
	"path"
)

var ErrNotFound = errors.New("object not found")

// BlobStore holds audio payloads. Put returns a reference that Get accepts
// back; references are store specific (file path, gs:// or s3:// URI).
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, ref string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// AudioKey names the object holding the audio for slug.
func AudioKey(prefix, slug string) string {
	return path.Join(prefix, slug+".mp3")
}
