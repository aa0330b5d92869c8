package handler

import (
	"net/http"
	"testing"

	"github.com/Andrew-Beniash/tai/internal/service/orchestrator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingQueue struct {
	single []string
	batch  []*orchestrator.Job
}

func (q *recordingQueue) Enqueue(docID, reason string) error {
	q.single = append(q.single, docID)
	return nil
}

func (q *recordingQueue) EnqueueBatch(jobs []*orchestrator.Job) error {
	q.batch = append(q.batch, jobs...)
	return nil
}

func (q *recordingQueue) GetQueueStatus() *orchestrator.QueueStatus {
	return &orchestrator.QueueStatus{QueueLength: len(q.single) + len(q.batch)}
}

func TestReindexProjectQueuesEveryDocument(t *testing.T) {
	queue := &recordingQueue{}
	s := newTestServerWithQueue(t, queue)

	w := s.do(t, http.MethodPost, "/projects/proj-001/documents/reindex", nil)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Equal(t, 1, decode[map[string]int](t, w)["queued"])

	require.Len(t, queue.batch, 1)
	assert.Equal(t, "doc-001", queue.batch[0].DocumentID)
	assert.Equal(t, "project_reindex", queue.batch[0].Reason)
	assert.Empty(t, queue.single)
}

func TestReindexProjectErrors(t *testing.T) {
	w := newTestServerWithQueue(t, &recordingQueue{}).do(t, http.MethodPost, "/projects/proj-404/documents/reindex", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = newTestServer(t).do(t, http.MethodPost, "/projects/proj-001/documents/reindex", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestReindexSingleDocument(t *testing.T) {
	queue := &recordingQueue{}
	s := newTestServerWithQueue(t, queue)

	w := s.do(t, http.MethodPost, "/documents/doc-001/reindex", nil)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Equal(t, []string{"doc-001"}, queue.single)
}
