package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"lecturepdf/internal/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// countingStore records calls made against the wrapped store and can inject
// errors for Head and List.
type countingStore struct {
	storage.Store

	mu      sync.Mutex
	heads   int
	gets    int
	puts    int
	headErr error
	listErr error
}

func (s *countingStore) List(ctx context.Context) ([]storage.ObjectInfo, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.Store.List(ctx)
}

func (s *countingStore) Head(ctx context.Context, key string) (storage.ObjectInfo, error) {
	s.mu.Lock()
	s.heads++
	s.mu.Unlock()
	if s.headErr != nil {
		return storage.ObjectInfo{}, s.headErr
	}
	return s.Store.Head(ctx, key)
}

func (s *countingStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	s.gets++
	s.mu.Unlock()
	return s.Store.Get(ctx, key)
}

func (s *countingStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	s.mu.Lock()
	s.puts++
	s.mu.Unlock()
	return s.Store.Put(ctx, key, data, contentType)
}

func (s *countingStore) counts() (heads, gets, puts int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.heads, s.gets, s.puts
}

func newStores(t *testing.T) (*countingStore, *countingStore) {
	t.Helper()
	dir := t.TempDir()

	source, err := storage.NewFileStore(dir, "transcripts", "")
	require.NoError(t, err)
	target, err := storage.NewFileStore(dir, "pdfs", "")
	require.NoError(t, err)

	return &countingStore{Store: source}, &countingStore{Store: target}
}

func transcriptJSON(t *testing.T, text string) []byte {
	t.Helper()
	payload := map[string]any{
		"jobName": "job",
		"results": map[string]any{
			"transcripts": []map[string]string{{"transcript": text}},
		},
	}
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return data
}

func putTranscript(t *testing.T, store storage.Store, key, text string) {
	t.Helper()
	require.NoError(t, store.Put(context.Background(), key, transcriptJSON(t, text), "application/json"))
}
