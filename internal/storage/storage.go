package storage

import (
	"context"

	"github.com/tastyhouse/backend/internal/types"
)

// Kind is the content class of a stored object.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// BlobStore uploads media to an external host and deletes it by the URL a
// previous upload returned. Uploading a nil file is not an error and yields
// an empty URL, mirroring the optional-asset convention of the API payloads.
type BlobStore interface {
	Upload(ctx context.Context, file *types.FileUpload, kind Kind) (string, error)
	Delete(ctx context.Context, url string, kind Kind) error
}
