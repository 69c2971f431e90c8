package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"eldertales_api/types"
)

// MemoryStore keeps blobs in process. URLs point at baseURL, which never resolves.
type MemoryStore struct {
	mu      sync.Mutex
	baseURL string
	objects map[string][]byte
}

func NewMemoryStore(baseURL string) *MemoryStore {
	if baseURL == "" {
		baseURL = "http://blobs.local"
	}
	return &MemoryStore{baseURL: baseURL, objects: make(map[string][]byte)}
}

func (s *MemoryStore) Upload(ctx context.Context, blob types.MediaBlob) (types.StoredMedia, error) {
	if err := ctx.Err(); err != nil {
		return types.StoredMedia{}, err
	}

	objectName, err := objectName(blob.Extension)
	if err != nil {
		return types.StoredMedia{}, err
	}

	var buf bytes.Buffer
	if blob.File != nil {
		if _, err := io.Copy(&buf, blob.File); err != nil {
			return types.StoredMedia{}, fmt.Errorf("%w: error reading media: %v", types.ErrInvalidArgument, err)
		}
	}

	s.mu.Lock()
	s.objects[objectName] = buf.Bytes()
	s.mu.Unlock()

	return types.StoredMedia{URL: s.baseURL + "/" + objectName, Path: objectName}, nil
}

func (s *MemoryStore) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.objects, path)
	return nil
}

// Has reports whether an object exists at path.
func (s *MemoryStore) Has(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.objects[path]
	return ok
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.objects)
}
