package blobstore

import (
	"context"
	"io"
	"time"
)

// BlobStore przechowuje treść plików pod nieprzezroczystym kluczem.
// Metadane (nazwy, hierarchia, rozmiary) żyją wyłącznie w bazie.
type BlobStore interface {
	Put(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	SignedURL(ctx context.Context, key string, filename string, expires time.Duration) (string, error)
}
