package object

import (
	"context"
	"io"
	"time"
)

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	ContentType string
	SizeBytes   int64
}

// ObjectStore defines the contract for storing and retrieving binary
// objects. Keys are opaque strings generated by the caller.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Stat(ctx context.Context, key string) (ObjectInfo, error)
}

// Presigner is implemented by stores that can hand out temporary
// download URLs without proxying the bytes.
type Presigner interface {
	PresignGet(ctx context.Context, key string, expires time.Duration) (string, error)
}
