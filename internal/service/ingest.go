package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/curiolabs/curio/internal/domain"
	"github.com/curiolabs/curio/internal/fetch"
	"github.com/curiolabs/curio/internal/telemetry"
)

// ingestPageSize bounds how many pending records a process-all run loads
// per repository round trip
const ingestPageSize = 50

// FetcherInterface is the acquisition chain contract
type FetcherInterface interface {
	Fetch(ctx context.Context, in fetch.Input) fetch.Result
}

// ExtractorInterface is the structured-extraction contract. It never
// fails; degraded fields are still fields.
type ExtractorInterface interface {
	Extract(ctx context.Context, title, content string) domain.StructuredFields
}

// IngestJobRepositoryInterface defines persistence for process-all jobs
type IngestJobRepositoryInterface interface {
	Create(ctx context.Context, job *domain.IngestJob) error
	GetByID(ctx context.Context, ownerID, id string) (*domain.IngestJob, error)
	ClaimNextPending(ctx context.Context) (*domain.IngestJob, error)
	Update(ctx context.Context, job *domain.IngestJob) error
}

// BatchResult summarizes one synchronous ingestion batch
type BatchResult struct {
	Processed int      `json:"processed"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}

// IngestService drives the fetch→extract→embed pipeline. Records are
// processed strictly one at a time; the external-API spend of a batch is
// proportional to its size and nothing more.
type IngestService struct {
	recordRepo RecordRepositoryInterface
	jobRepo    IngestJobRepositoryInterface
	fetcher    FetcherInterface
	extractor  ExtractorInterface
	embedding  *EmbeddingService
	uuidGen    UUIDGenerator
	logger     *log.Logger
}

// NewIngestService creates a new IngestService instance
func NewIngestService(
	recordRepo RecordRepositoryInterface,
	jobRepo IngestJobRepositoryInterface,
	fetcher FetcherInterface,
	extractor ExtractorInterface,
	embedding *EmbeddingService,
	logger *log.Logger,
) *IngestService {
	if logger == nil {
		logger = log.Default()
	}
	return &IngestService{
		recordRepo: recordRepo,
		jobRepo:    jobRepo,
		fetcher:    fetcher,
		extractor:  extractor,
		embedding:  embedding,
		uuidGen:    &DefaultUUIDGenerator{},
		logger:     logger,
	}
}

// ProcessRecord runs one record through the full pipeline and persists the
// outcome in a single update. Fetch and extraction degrade internally; an
// embedding failure still persists the extracted fields (the record must
// become visible) but is returned so callers count the record as failed.
func (s *IngestService) ProcessRecord(ctx context.Context, record *domain.KnowledgeRecord) error {
	ctx, span := telemetry.StartSpan(ctx, "IngestService.ProcessRecord", telemetry.SpanAttributes{
		OwnerID:   record.OwnerID,
		RecordID:  record.ID,
		Operation: "process_record",
	})
	defer span.End()

	result := s.fetcher.Fetch(ctx, fetch.Input{
		SourceURL:       record.SourceURL,
		DocumentKey:     record.DocumentKey,
		ExistingContent: record.RawContent,
		Title:           record.Fields.Title,
	})

	// Only freshly fetched content is worth persisting.
	if result.Kind != fetch.SourceKindExisting && result.Kind != fetch.SourceKindFallback {
		record.RawContent = result.Content
	}

	title := record.Fields.Title
	if title == "" {
		title = record.SourceURL
	}

	record.Fields = s.extractor.Extract(ctx, title, result.Content)
	record.Status = domain.RecordStatusExtracted
	record.UpdatedAt = time.Now().UTC()

	vec, embedErr := s.embedding.EmbedRecord(ctx, record.Fields)
	if embedErr == nil {
		record.Embedding = vec
	} else {
		span.SetError(embedErr)
		s.logger.Printf("ingest: embedding failed for record %s: %v", record.ID, embedErr)
	}

	if err := s.recordRepo.UpdateIngestResult(ctx, record); err != nil {
		span.SetError(err)
		return err
	}

	return embedErr
}

// ProcessBatch ingests up to limit pending records for the owner,
// sequentially. Per-record failures are collected, not fatal.
func (s *IngestService) ProcessBatch(ctx context.Context, ownerID string, limit int) (*BatchResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "IngestService.ProcessBatch", telemetry.SpanAttributes{
		OwnerID:   ownerID,
		Operation: "process_batch",
	})
	defer span.End()

	if limit <= 0 {
		limit = ingestPageSize
	}

	pending, err := s.recordRepo.ListPending(ctx, ownerID, limit)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	result := &BatchResult{}
	for _, record := range pending {
		if err := s.ProcessRecord(ctx, record); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", record.ID, err))
			continue
		}
		result.Processed++
	}

	return result, nil
}

// StartProcessAll registers a detached process-all job and returns it
// immediately. Progress is observed by polling GetJob, never by holding
// the initiating request open.
func (s *IngestService) StartProcessAll(ctx context.Context, ownerID string) (*domain.IngestJob, error) {
	ctx, span := telemetry.StartSpan(ctx, "IngestService.StartProcessAll", telemetry.SpanAttributes{
		OwnerID:   ownerID,
		Operation: "start_process_all",
	})
	defer span.End()

	total, err := s.recordRepo.CountPending(ctx, ownerID)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	job := domain.NewIngestJob(s.uuidGen.NewString(), ownerID, time.Now().UTC())
	job.Total = int32(total)

	if err := s.jobRepo.Create(ctx, job); err != nil {
		span.SetError(err)
		return nil, err
	}

	return job, nil
}

// GetJob returns a job's current progress, scoped to the owner
func (s *IngestService) GetJob(ctx context.Context, ownerID, jobID string) (*domain.IngestJob, error) {
	return s.jobRepo.GetByID(ctx, ownerID, jobID)
}

// RunJob executes a claimed process-all job to completion, persisting
// counter updates after every record so polled progress is monotonic and
// survives a crash mid-run.
func (s *IngestService) RunJob(ctx context.Context, job *domain.IngestJob) error {
	ctx, span := telemetry.StartSpan(ctx, "IngestService.RunJob", telemetry.SpanAttributes{
		OwnerID:   job.OwnerID,
		JobID:     job.ID,
		Operation: "run_job",
	})
	defer span.End()

	job.Status = domain.IngestJobStatusRunning
	job.UpdatedAt = time.Now().UTC()
	if err := s.jobRepo.Update(ctx, job); err != nil {
		span.SetError(err)
		return err
	}

	// A record that fails to leave pending status (e.g. its persist failed)
	// would otherwise be listed again forever.
	seen := make(map[string]bool)

	for {
		pending, err := s.recordRepo.ListPending(ctx, job.OwnerID, ingestPageSize)
		if err != nil {
			return s.failJob(ctx, job, err)
		}
		if len(pending) == 0 {
			break
		}
		if seen[pending[0].ID] {
			return s.failJob(ctx, job, fmt.Errorf("record %s did not leave pending status", pending[0].ID))
		}

		for _, record := range pending {
			seen[record.ID] = true
			if err := s.ProcessRecord(ctx, record); err != nil {
				job.Failed++
				job.LastError = err.Error()
			} else {
				job.Processed++
			}
			job.UpdatedAt = time.Now().UTC()
			if err := s.jobRepo.Update(ctx, job); err != nil {
				span.SetError(err)
				return err
			}
		}
	}

	now := time.Now().UTC()
	job.Status = domain.IngestJobStatusCompleted
	job.UpdatedAt = now
	job.CompletedAt = &now
	return s.jobRepo.Update(ctx, job)
}

func (s *IngestService) failJob(ctx context.Context, job *domain.IngestJob, cause error) error {
	now := time.Now().UTC()
	job.Status = domain.IngestJobStatusFailed
	job.LastError = cause.Error()
	job.UpdatedAt = now
	job.CompletedAt = &now
	if err := s.jobRepo.Update(ctx, job); err != nil {
		s.logger.Printf("ingest: failed to persist job failure for %s: %v", job.ID, err)
	}
	return cause
}
