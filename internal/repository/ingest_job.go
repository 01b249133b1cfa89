package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/curiolabs/curio/internal/domain"
)

type IngestJobRepository struct {
	db dbtx
}

func NewIngestJobRepository(pool *pgxpool.Pool) *IngestJobRepository {
	return &IngestJobRepository{db: pool}
}

func NewIngestJobRepositoryWithTx(tx pgx.Tx) *IngestJobRepository {
	return &IngestJobRepository{db: tx}
}

func (r *IngestJobRepository) Create(ctx context.Context, job *domain.IngestJob) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO ingest_jobs (id, owner_id, status, total, processed, failed, last_error, created_at, updated_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		job.ID, job.OwnerID, job.Status, job.Total, job.Processed, job.Failed,
		nullableString(job.LastError), job.CreatedAt, job.UpdatedAt, job.CompletedAt,
	)
	return err
}

func (r *IngestJobRepository) GetByID(ctx context.Context, ownerID, id string) (*domain.IngestJob, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, owner_id, status, total, processed, failed, last_error, created_at, updated_at, completed_at
		 FROM ingest_jobs WHERE owner_id = $1 AND id = $2`,
		ownerID, id,
	)
	job, err := scanIngestJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrIngestJobNotFound
		}
		return nil, err
	}
	return job, nil
}

// ClaimNextPending atomically takes the oldest pending job and marks it
// running. SKIP LOCKED keeps concurrent workers off the same job. Returns
// ErrIngestJobNotFound when the queue is empty.
func (r *IngestJobRepository) ClaimNextPending(ctx context.Context) (*domain.IngestJob, error) {
	row := r.db.QueryRow(ctx,
		`WITH cte AS (
			 SELECT id
			 FROM ingest_jobs
			 WHERE status = $1
			 ORDER BY created_at ASC
			 FOR UPDATE SKIP LOCKED
			 LIMIT 1
		 )
		 UPDATE ingest_jobs
		 SET status = $2, updated_at = now()
		 FROM cte
		 WHERE ingest_jobs.id = cte.id
		 RETURNING ingest_jobs.id, ingest_jobs.owner_id, ingest_jobs.status,
		           ingest_jobs.total, ingest_jobs.processed, ingest_jobs.failed,
		           ingest_jobs.last_error, ingest_jobs.created_at, ingest_jobs.updated_at,
		           ingest_jobs.completed_at`,
		domain.IngestJobStatusPending, domain.IngestJobStatusRunning,
	)
	job, err := scanIngestJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrIngestJobNotFound
		}
		return nil, err
	}
	return job, nil
}

func (r *IngestJobRepository) Update(ctx context.Context, job *domain.IngestJob) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE ingest_jobs
		 SET status = $1, processed = $2, failed = $3, last_error = $4, updated_at = $5, completed_at = $6
		 WHERE id = $7`,
		job.Status, job.Processed, job.Failed, nullableString(job.LastError),
		job.UpdatedAt, job.CompletedAt, job.ID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrIngestJobNotFound
	}
	return nil
}

func scanIngestJob(row pgx.Row) (*domain.IngestJob, error) {
	var job domain.IngestJob
	var lastError pgtype.Text
	err := row.Scan(&job.ID, &job.OwnerID, &job.Status, &job.Total, &job.Processed, &job.Failed,
		&lastError, &job.CreatedAt, &job.UpdatedAt, &job.CompletedAt)
	if err != nil {
		return nil, err
	}
	if lastError.Valid {
		job.LastError = lastError.String
	}
	return &job, nil
}
