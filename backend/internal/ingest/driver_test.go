package ingest

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdelJumaily/Odin/backend/internal/embed"
	"github.com/AdelJumaily/Odin/backend/internal/events"
	"github.com/AdelJumaily/Odin/backend/internal/extract"
	"github.com/AdelJumaily/Odin/backend/internal/graphstore"
	"github.com/AdelJumaily/Odin/backend/internal/index"
	"github.com/AdelJumaily/Odin/backend/internal/model"
	"github.com/AdelJumaily/Odin/backend/internal/store"
)

type statusRecorder struct {
	mu       sync.Mutex
	statuses []string
	jobIDs   []string
}

func (r *statusRecorder) ID() string { return "status-recorder" }

func (r *statusRecorder) Send(payload []byte) error {
	var event events.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, event.Status)
	r.jobIDs = append(r.jobIDs, event.JobID)
	return nil
}

func (r *statusRecorder) recorded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.statuses...)
}

func (r *statusRecorder) recordedJobIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.jobIDs...)
}

func newTestDriver(t *testing.T) (*Driver, *store.Store, *events.Hub) {
	t.Helper()

	st, err := store.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	gs := graphstore.New(context.Background(), nil, st)
	indexer := index.NewIndexer(st, embed.NewHashProvider(64), extract.NewRegexExtractor(), gs, 50, 10)
	hub := events.NewHub(64)
	return NewDriver(st, indexer, hub), st, hub
}

func writeDocument(t *testing.T, st *store.Store, content string) *model.Document {
	t.Helper()

	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	doc := &model.Document{
		ID:          "doc-1",
		ProjectID:   "proj-1",
		Title:       "Test Document",
		StoragePath: path,
		MimeType:    "text/plain",
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, st.PutDocument(doc))
	return doc
}

func TestDriverRunCompletesJob(t *testing.T) {
	driver, st, _ := newTestDriver(t)
	doc := writeDocument(t, st, "Alice met Bob in the Apollo program.")

	job, err := driver.CreateJob(doc.ProjectID, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobPending, job.Status)

	require.NoError(t, driver.Run(context.Background(), job.ID))

	stored, err := st.GetJob(job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobCompleted, stored.Status)
	assert.Empty(t, stored.ErrorMessage)
	require.NotNil(t, stored.FinishedAt)
	assert.Equal(t, "3", stored.Payload["entities"])

	chunks, err := st.ChunksByDocument(doc.ProjectID, doc.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, chunks)

	entity, err := st.GetEntityByName(doc.ProjectID, "Alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", entity.CanonicalName)
}

func TestDriverRunFailsWhenDocumentMissing(t *testing.T) {
	driver, st, _ := newTestDriver(t)

	job, err := driver.CreateJob("proj-1", "no-such-doc")
	require.NoError(t, err)

	require.NoError(t, driver.Run(context.Background(), job.ID))

	stored, err := st.GetJob(job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobFailed, stored.Status)
	assert.Equal(t, "Document not found", stored.ErrorMessage)
	require.NotNil(t, stored.FinishedAt)
}

func TestDriverRunFailsWhenDocumentEmpty(t *testing.T) {
	driver, st, _ := newTestDriver(t)
	doc := writeDocument(t, st, "")

	job, err := driver.CreateJob(doc.ProjectID, doc.ID)
	require.NoError(t, err)

	require.NoError(t, driver.Run(context.Background(), job.ID))

	stored, err := st.GetJob(job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobFailed, stored.Status)
	assert.Equal(t, "Document empty", stored.ErrorMessage)
}

func TestDriverRunIgnoresTerminalJob(t *testing.T) {
	driver, st, _ := newTestDriver(t)

	job := &model.IngestJob{
		ID:         "job-done",
		ProjectID:  "proj-1",
		DocumentID: "doc-1",
		Status:     model.JobCompleted,
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, st.PutJob(job))

	require.NoError(t, driver.Run(context.Background(), job.ID))

	stored, err := st.GetJob(job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobCompleted, stored.Status)
}

func TestDriverPublishesEveryTransition(t *testing.T) {
	driver, st, hub := newTestDriver(t)
	doc := writeDocument(t, st, "Alice met Bob in the Apollo program.")

	recorder := &statusRecorder{}
	hub.Connect(recorder)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = hub.Run(ctx)
	}()

	job, err := driver.CreateJob(doc.ProjectID, doc.ID)
	require.NoError(t, err)
	require.NoError(t, driver.Run(context.Background(), job.ID))

	require.Eventually(t, func() bool {
		return len(recorder.recorded()) == 4
	}, time.Second, 10*time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, []string{"extracting", "embedding", "graph", "completed"}, recorder.recorded())
	for _, id := range recorder.recordedJobIDs() {
		assert.Equal(t, job.ID, id)
	}
}

// persistenceSubscriber records how many chunks were stored at the
// moment each status event was delivered
type persistenceSubscriber struct {
	st      *store.Store
	project string
	docID   string

	mu            sync.Mutex
	chunksAtGraph int
	sawGraph      bool
	events        int
}

func (p *persistenceSubscriber) ID() string { return "persistence-subscriber" }

func (p *persistenceSubscriber) Send(payload []byte) error {
	var event events.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events++
	if event.Status == string(model.JobGraph) {
		chunks, err := p.st.ChunksByDocument(p.project, p.docID)
		if err == nil {
			p.chunksAtGraph = len(chunks)
		}
		p.sawGraph = true
	}
	return nil
}

func TestDriverPersistsBeforeGraphState(t *testing.T) {
	driver, st, hub := newTestDriver(t)
	doc := writeDocument(t, st, "Alice met Bob in the Apollo program.")

	sub := &persistenceSubscriber{st: st, project: doc.ProjectID, docID: doc.ID}
	hub.Connect(sub)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = hub.Run(ctx)
	}()

	job, err := driver.CreateJob(doc.ProjectID, doc.ID)
	require.NoError(t, err)
	require.NoError(t, driver.Run(context.Background(), job.ID))

	require.Eventually(t, func() bool {
		sub.mu.Lock()
		defer sub.mu.Unlock()
		return sub.events == 4
	}, time.Second, 10*time.Millisecond)
	cancel()
	<-done

	sub.mu.Lock()
	defer sub.mu.Unlock()
	assert.True(t, sub.sawGraph)
	assert.Greater(t, sub.chunksAtGraph, 0)
}
