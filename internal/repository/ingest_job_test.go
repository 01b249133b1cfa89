//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curiolabs/curio/internal/domain"
	"github.com/curiolabs/curio/internal/testutil"
)

func setupOwnerForJob(ctx context.Context, t *testing.T, ownerRepo *OwnerRepository) *domain.Owner {
	owner := &domain.Owner{
		ID:        uuid.NewString(),
		Name:      "job-test-owner",
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, ownerRepo.Create(ctx, owner))
	return owner
}

func TestIngestJobRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	ownerRepo := NewOwnerRepository(pool)
	jobRepo := NewIngestJobRepository(pool)

	owner := setupOwnerForJob(ctx, t, ownerRepo)

	job := domain.NewIngestJob(uuid.NewString(), owner.ID, time.Now().UTC().Truncate(time.Microsecond))
	job.Total = 7
	require.NoError(t, jobRepo.Create(ctx, job))

	retrieved, err := jobRepo.GetByID(ctx, owner.ID, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, retrieved.ID)
	assert.Equal(t, domain.IngestJobStatusPending, retrieved.Status)
	assert.Equal(t, int32(7), retrieved.Total)
	assert.Empty(t, retrieved.LastError)
	assert.Nil(t, retrieved.CompletedAt)
}

func TestIngestJobRepository_GetByID_WrongOwner(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	ownerRepo := NewOwnerRepository(pool)
	jobRepo := NewIngestJobRepository(pool)

	owner := setupOwnerForJob(ctx, t, ownerRepo)

	job := domain.NewIngestJob(uuid.NewString(), owner.ID, time.Now().UTC().Truncate(time.Microsecond))
	require.NoError(t, jobRepo.Create(ctx, job))

	_, err := jobRepo.GetByID(ctx, uuid.NewString(), job.ID)
	assert.ErrorIs(t, err, domain.ErrIngestJobNotFound)
}

func TestIngestJobRepository_ClaimNextPending(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	ownerRepo := NewOwnerRepository(pool)
	jobRepo := NewIngestJobRepository(pool)

	owner := setupOwnerForJob(ctx, t, ownerRepo)

	older := domain.NewIngestJob(uuid.NewString(), owner.ID, time.Now().UTC().Add(-time.Minute).Truncate(time.Microsecond))
	newer := domain.NewIngestJob(uuid.NewString(), owner.ID, time.Now().UTC().Truncate(time.Microsecond))
	require.NoError(t, jobRepo.Create(ctx, older))
	require.NoError(t, jobRepo.Create(ctx, newer))

	claimed, err := jobRepo.ClaimNextPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, older.ID, claimed.ID)
	assert.Equal(t, domain.IngestJobStatusRunning, claimed.Status)

	claimed2, err := jobRepo.ClaimNextPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, claimed2.ID)

	_, err = jobRepo.ClaimNextPending(ctx)
	assert.ErrorIs(t, err, domain.ErrIngestJobNotFound)
}

func TestIngestJobRepository_Update(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	ownerRepo := NewOwnerRepository(pool)
	jobRepo := NewIngestJobRepository(pool)

	owner := setupOwnerForJob(ctx, t, ownerRepo)

	job := domain.NewIngestJob(uuid.NewString(), owner.ID, time.Now().UTC().Truncate(time.Microsecond))
	job.Total = 3
	require.NoError(t, jobRepo.Create(ctx, job))

	now := time.Now().UTC().Truncate(time.Microsecond)
	job.Status = domain.IngestJobStatusCompleted
	job.Processed = 2
	job.Failed = 1
	job.LastError = "embedding failed"
	job.UpdatedAt = now
	job.CompletedAt = &now
	require.NoError(t, jobRepo.Update(ctx, job))

	retrieved, err := jobRepo.GetByID(ctx, owner.ID, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IngestJobStatusCompleted, retrieved.Status)
	assert.Equal(t, int32(2), retrieved.Processed)
	assert.Equal(t, int32(1), retrieved.Failed)
	assert.Equal(t, "embedding failed", retrieved.LastError)
	require.NotNil(t, retrieved.CompletedAt)
}

func TestIngestJobRepository_Update_NotFound(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	jobRepo := NewIngestJobRepository(pool)

	job := domain.NewIngestJob(uuid.NewString(), uuid.NewString(), time.Now().UTC())
	err := jobRepo.Update(ctx, job)
	assert.ErrorIs(t, err, domain.ErrIngestJobNotFound)
}
