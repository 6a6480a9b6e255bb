package ingest

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AdelJumaily/Odin/backend/internal/events"
	"github.com/AdelJumaily/Odin/backend/internal/index"
	"github.com/AdelJumaily/Odin/backend/internal/model"
	"github.com/AdelJumaily/Odin/backend/internal/store"
	apperrors "github.com/AdelJumaily/Odin/backend/pkg/errors"
	"github.com/AdelJumaily/Odin/backend/pkg/logger"
)

const (
	failureDocumentNotFound = "Document not found"
	failureDocumentEmpty    = "Document empty"
)

// Driver executes ingest jobs through their state machine. Every status
// transition is persisted before the next stage runs and broadcast as a
// job_update event, so observers see progress even if the process dies
// mid-pipeline.
type Driver struct {
	store   *store.Store
	indexer *index.Indexer
	hub     *events.Hub
	logger  *zap.Logger
}

// NewDriver creates an ingest driver
func NewDriver(s *store.Store, indexer *index.Indexer, hub *events.Hub) *Driver {
	return &Driver{
		store:   s,
		indexer: indexer,
		hub:     hub,
		logger:  logger.Get(),
	}
}

// CreateJob registers a pending ingest job for a document
func (d *Driver) CreateJob(projectID, documentID string) (*model.IngestJob, error) {
	job := &model.IngestJob{
		ID:         uuid.NewString(),
		ProjectID:  projectID,
		DocumentID: documentID,
		Status:     model.JobPending,
		CreatedAt:  time.Now().UTC(),
	}
	if err := d.store.PutJob(job); err != nil {
		return nil, err
	}
	return job, nil
}

// Run drives one job from pending to a terminal state. Any pipeline error
// lands the job in failed with the error message recorded; Run itself only
// returns an error when the job cannot be loaded or persisted.
func (d *Driver) Run(ctx context.Context, jobID string) error {
	job, err := d.store.GetJob(jobID)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		d.logger.Warn("Ignoring run of terminal job", zap.String("job_id", jobID), zap.String("status", string(job.Status)))
		return nil
	}

	started := time.Now().UTC()
	job.StartedAt = &started

	if err := d.transition(job, model.JobExtracting); err != nil {
		return err
	}

	doc, err := d.store.GetDocument(job.DocumentID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return d.fail(job, failureDocumentNotFound)
		}
		return d.fail(job, err.Error())
	}

	text := ReadDocumentText(doc.StoragePath, doc.MimeType)
	if text == "" {
		return d.fail(job, failureDocumentEmpty)
	}

	extracted, extractedRelations, err := d.indexer.ExtractEntities(ctx, text)
	if err != nil {
		return d.fail(job, err.Error())
	}

	if err := d.transition(job, model.JobEmbedding); err != nil {
		return err
	}
	chunks, err := d.indexer.EmbedChunks(ctx, doc, text)
	if err != nil {
		return d.fail(job, err.Error())
	}
	result, err := d.indexer.PersistAndSync(ctx, doc, chunks, extracted, extractedRelations)
	if err != nil {
		return d.fail(job, err.Error())
	}

	// Persistence and graph sync complete during embedding; the graph
	// state marks that the mirror has been synchronized
	if err := d.transition(job, model.JobGraph); err != nil {
		return err
	}

	job.Payload = map[string]string{
		"chunks":    strconv.Itoa(len(result.Chunks)),
		"entities":  strconv.Itoa(len(result.Entities)),
		"relations": strconv.Itoa(len(result.Relations)),
	}
	return d.transition(job, model.JobCompleted)
}

// transition persists a legal status change and broadcasts it
func (d *Driver) transition(job *model.IngestJob, next model.JobStatus) error {
	if !job.Status.CanTransition(next) {
		return apperrors.NewPipelineFailed(job.ID, "transition "+string(job.Status)+" -> "+string(next), nil)
	}
	job.Status = next
	if next.Terminal() {
		finished := time.Now().UTC()
		job.FinishedAt = &finished
	}
	if err := d.store.PutJob(job); err != nil {
		return err
	}
	d.publish(job)
	return nil
}

// fail moves a job to failed with the given message. Failure is reachable
// from every non-terminal state, so this never violates the state machine.
func (d *Driver) fail(job *model.IngestJob, message string) error {
	d.logger.Warn("Ingest job failed",
		zap.String("job_id", job.ID),
		zap.String("document_id", job.DocumentID),
		zap.String("reason", message))
	job.ErrorMessage = message
	return d.transition(job, model.JobFailed)
}

func (d *Driver) publish(job *model.IngestJob) {
	data := make(map[string]any, len(job.Payload))
	for k, v := range job.Payload {
		data[k] = v
	}
	d.hub.Publish(events.Event{
		Type:      "job_update",
		ProjectID: job.ProjectID,
		JobID:     job.ID,
		Status:    string(job.Status),
		Message:   job.ErrorMessage,
		Data:      data,
	})
}
