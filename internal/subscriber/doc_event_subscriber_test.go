package subscriber

import (
	"context"
	"errors"
	"testing"

	"github.com/Andrew-Beniash/tai/internal/eventbus"
	"github.com/Andrew-Beniash/tai/internal/pkg/rag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEnqueuer struct {
	calls []string
	err   error
}

func (f *fakeEnqueuer) Enqueue(docID, reason string) error {
	f.calls = append(f.calls, docID+":"+reason)
	return f.err
}

func seededCache() *rag.MemoryChunkCache {
	cache := rag.NewMemoryChunkCache()
	cache.Put("doc-001", rag.ContentHash("a"), []rag.Chunk{{DocumentID: "doc-001", Text: "a", End: 1}})
	cache.Put("doc-002", rag.ContentHash("b"), []rag.Chunk{{DocumentID: "doc-002", Text: "b", End: 1}})
	return cache
}

func TestContentChangeInvalidatesAndReindexes(t *testing.T) {
	cache := seededCache()
	enq := &fakeEnqueuer{}
	bus := eventbus.NewDocEventBus()
	NewDocEventSubscriber(cache, enq).Register(bus)

	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, eventbus.DocEventFileChanged, eventbus.DocEvent{Type: eventbus.DocEventFileChanged, DocumentID: "doc-001"}))

	_, ok := cache.Get("doc-001", rag.ContentHash("a"))
	assert.False(t, ok)
	assert.Equal(t, 1, cache.Len())
	assert.Equal(t, []string{"doc-001:DocFileChanged"}, enq.calls)
}

func TestIndexedAndDeletedOnlyInvalidate(t *testing.T) {
	cache := seededCache()
	enq := &fakeEnqueuer{}
	bus := eventbus.NewDocEventBus()
	NewDocEventSubscriber(cache, enq).Register(bus)

	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, eventbus.DocEventIndexed, eventbus.DocEvent{Type: eventbus.DocEventIndexed, DocumentID: "doc-001"}))
	require.NoError(t, bus.Publish(ctx, eventbus.DocEventDeleted, eventbus.DocEvent{Type: eventbus.DocEventDeleted, DocumentID: "doc-002"}))

	assert.Equal(t, 0, cache.Len())
	assert.Empty(t, enq.calls)
}

func TestEnqueueFailureSurfaces(t *testing.T) {
	enq := &fakeEnqueuer{err: errors.New("queue full")}
	bus := eventbus.NewDocEventBus()
	NewDocEventSubscriber(nil, enq).Register(bus)

	err := bus.Publish(context.Background(), eventbus.DocEventCreated, eventbus.DocEvent{Type: eventbus.DocEventCreated, DocumentID: "doc-003"})
	assert.Error(t, err)
}

func TestNilCollaborators(t *testing.T) {
	var cache *rag.MemoryChunkCache
	bus := eventbus.NewDocEventBus()
	NewDocEventSubscriber(cache, nil).Register(bus)
	assert.NoError(t, bus.Publish(context.Background(), eventbus.DocEventUpdated, eventbus.DocEvent{Type: eventbus.DocEventUpdated, DocumentID: "doc-001"}))
}
