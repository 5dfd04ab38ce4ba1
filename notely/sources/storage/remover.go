package storage

import (
	"context"
	"errors"
)

var ErrBlobStoreDisabled = errors.New("blob store is not configured")

// BlobRemover deletes the object behind an image URL.
type BlobRemover interface {
	Remove(ctx context.Context, rawURL string) error
}

// Remover routes a stored image URL to whichever backend wrote it.
type Remover struct {
	Legacy LegacyUploads
	Blobs  BlobRemover
}

func (r Remover) Remove(ctx context.Context, rawURL string) error {
	if r.Legacy.Owns(rawURL) {
		return r.Legacy.Remove(ctx, rawURL)
	}
	if r.Blobs == nil {
		return ErrBlobStoreDisabled
	}
	return r.Blobs.Remove(ctx, rawURL)
}
