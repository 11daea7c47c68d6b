package testhelpers

import (
	"context"
	"fmt"
	"sync"

	"github.com/tastyhouse/backend/internal/storage"
	"github.com/tastyhouse/backend/internal/types"
)

// FakeBlobStore is an in-memory storage.BlobStore that records every
// upload and delete so tests can assert on compensation behavior.
type FakeBlobStore struct {
	mu      sync.Mutex
	counter int

	// FailKinds makes Upload fail for the listed kinds.
	FailKinds map[storage.Kind]bool

	Uploads []string
	Deletes []string
}

func NewFakeBlobStore() *FakeBlobStore {
	return &FakeBlobStore{FailKinds: make(map[storage.Kind]bool)}
}

func (f *FakeBlobStore) Upload(ctx context.Context, file *types.FileUpload, kind storage.Kind) (string, error) {
	if file == nil {
		return "", nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailKinds[kind] {
		return "", fmt.Errorf("simulated %s upload failure", kind)
	}
	f.counter++
	url := fmt.Sprintf("https://test-bucket.s3.amazonaws.com/test/%ss/%d-%s", kind, f.counter, file.Name)
	f.Uploads = append(f.Uploads, url)
	return url, nil
}

func (f *FakeBlobStore) Delete(ctx context.Context, url string, kind storage.Kind) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Deletes = append(f.Deletes, url)
	return nil
}

// Deleted reports whether the given URL was deleted.
func (f *FakeBlobStore) Deleted(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.Deletes {
		if d == url {
			return true
		}
	}
	return false
}

func (f *FakeBlobStore) UploadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Uploads)
}

func (f *FakeBlobStore) DeleteCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Deletes)
}
