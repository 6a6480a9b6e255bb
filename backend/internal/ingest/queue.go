package ingest

import (
	"context"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/AdelJumaily/Odin/backend/pkg/logger"
)

// Queue runs ingest jobs on a bounded worker pool so a burst of uploads
// cannot spawn unbounded goroutines
type Queue struct {
	pool   *ants.Pool
	driver *Driver
	logger *zap.Logger
}

// NewQueue creates a queue backed by size workers
func NewQueue(driver *Driver, size int) (*Queue, error) {
	pool, err := ants.NewPool(size, ants.WithNonblocking(false))
	if err != nil {
		return nil, err
	}
	return &Queue{
		pool:   pool,
		driver: driver,
		logger: logger.Get(),
	}, nil
}

// Enqueue submits a job for asynchronous execution. Submission blocks
// only when all workers are busy and the pool queue is full. Jobs run
// under a background context so they outlive the submitting request.
func (q *Queue) Enqueue(jobID string) error {
	return q.pool.Submit(func() {
		if err := q.driver.Run(context.Background(), jobID); err != nil {
			q.logger.Error("Ingest job execution failed", zap.String("job_id", jobID), zap.Error(err))
		}
	})
}

// Release shuts the pool down, waiting for in-flight jobs
func (q *Queue) Release() {
	q.pool.Release()
}
