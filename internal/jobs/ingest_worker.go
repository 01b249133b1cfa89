package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/curiolabs/curio/internal/domain"
)

// IngestJobQueue claims queued process-all jobs
type IngestJobQueue interface {
	ClaimNextPending(ctx context.Context) (*domain.IngestJob, error)
}

// IngestRunner executes one claimed job to completion
type IngestRunner interface {
	RunJob(ctx context.Context, job *domain.IngestJob) error
}

// IngestWorker drains the process-all job queue. One job runs at a time;
// claiming uses SKIP LOCKED so multiple workers never collide.
type IngestWorker struct {
	queue  IngestJobQueue
	runner IngestRunner
}

// NewIngestWorker creates a new IngestWorker instance
func NewIngestWorker(queue IngestJobQueue, runner IngestRunner) *IngestWorker {
	return &IngestWorker{
		queue:  queue,
		runner: runner,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *IngestWorker) ProcessJobs(ctx context.Context) error {
	for {
		job, err := w.queue.ClaimNextPending(ctx)
		if err != nil {
			if errors.Is(err, domain.ErrIngestJobNotFound) {
				return nil
			}
			return fmt.Errorf("failed to claim ingest job: %w", err)
		}

		log.Printf("Processing ingest job %s for owner %s (%d records)", job.ID, job.OwnerID, job.Total)

		if err := w.runner.RunJob(ctx, job); err != nil {
			// RunJob already persisted the failure; keep draining the queue.
			log.Printf("Ingest job %s failed: %v", job.ID, err)
			continue
		}

		log.Printf("Ingest job %s completed: %d processed, %d failed", job.ID, job.Processed, job.Failed)
	}
}
