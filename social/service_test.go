package social

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"eldertales_api/blob"
	"eldertales_api/events"
	"eldertales_api/store"
	"eldertales_api/tools"
	"eldertales_api/types"

	"github.com/stretchr/testify/require"
)

// fakeClock advances by step on every reading.
type fakeClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(c.step)
	return c.now
}

func (c *fakeClock) SetStep(step time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.step = step
}

type fixture struct {
	svc      *Service
	store    *store.MemoryStore
	blobs    *blob.MemoryStore
	recorder *events.Recorder
	clock    *fakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:    store.NewMemoryStore(),
		blobs:    blob.NewMemoryStore("http://cdn"),
		recorder: &events.Recorder{},
		clock:    &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), step: time.Second},
	}
	f.svc = NewService(f.store, f.blobs, f.recorder, tools.NewConsoleLogger(io.Discard), WithClock(f.clock.Now))
	return f
}

func (f *fixture) register(t *testing.T, id, name string) {
	t.Helper()

	_, err := f.svc.RegisterProfile(context.Background(), id, types.RegisterRequest{
		Name:    name,
		Age:     72,
		Contact: "555-0100",
		Email:   strings.ToLower(name) + "@example.com",
	})
	require.NoError(t, err)
}

func (f *fixture) post(t *testing.T, actorId, description string, blobs ...types.MediaBlob) *types.Post {
	t.Helper()

	post, err := f.svc.CreatePost(context.Background(), actorId, description, blobs)
	require.NoError(t, err)
	return post
}

func jpeg(name string) types.MediaBlob {
	return types.MediaBlob{
		File:        strings.NewReader("jpeg:" + name),
		Name:        name,
		Extension:   ".jpg",
		ContentType: "image/jpeg",
		Size:        int64(len(name) + 5),
	}
}

func jpegs(n int) []types.MediaBlob {
	blobs := make([]types.MediaBlob, 0, n)
	for i := 0; i < n; i++ {
		blobs = append(blobs, jpeg(fmt.Sprintf("photo-%d.jpg", i)))
	}
	return blobs
}
