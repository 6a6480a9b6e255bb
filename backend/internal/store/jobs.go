package store

import (
	stderrors "errors"

	"github.com/dgraph-io/badger/v4"

	"github.com/AdelJumaily/Odin/backend/internal/model"
	"github.com/AdelJumaily/Odin/backend/pkg/errors"
)

func jobKey(jobID string) string {
	return "job:" + jobID
}

// PutJob stores an ingest job record
func (t *Tx) PutJob(job *model.IngestJob) error {
	return t.putJSON(jobKey(job.ID), job)
}

// GetJob loads an ingest job by id
func (t *Tx) GetJob(jobID string) (*model.IngestJob, error) {
	var job model.IngestJob
	if err := t.getJSON(jobKey(jobID), &job); err != nil {
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return nil, errors.NewJobNotFound(jobID)
		}
		return nil, errors.NewStoreFailed("get job", err)
	}
	return &job, nil
}

// PutJob stores a job in its own transaction. Each status transition goes
// through here so the new status is durable before the next stage runs.
func (s *Store) PutJob(job *model.IngestJob) error {
	return s.Update(func(tx *Tx) error {
		return tx.PutJob(job)
	})
}

// GetJob loads a job in its own transaction
func (s *Store) GetJob(jobID string) (*model.IngestJob, error) {
	var job *model.IngestJob
	err := s.View(func(tx *Tx) error {
		var inner error
		job, inner = tx.GetJob(jobID)
		return inner
	})
	return job, err
}
