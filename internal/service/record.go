package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/curiolabs/curio/internal/domain"
	"github.com/curiolabs/curio/internal/pagination"
	"github.com/curiolabs/curio/internal/telemetry"
)

// RecordRepositoryInterface defines the repository interface for record
// persistence. Every read is owner-scoped: a record belonging to a
// different owner is indistinguishable from a missing one.
type RecordRepositoryInterface interface {
	Create(ctx context.Context, r *domain.KnowledgeRecord) error
	GetByID(ctx context.Context, ownerID, id string) (*domain.KnowledgeRecord, error)
	ListWithCursor(ctx context.Context, ownerID string, cursor *pagination.Cursor, limit int) (*RecordPageResult, error)
	ListPending(ctx context.Context, ownerID string, limit int) ([]*domain.KnowledgeRecord, error)
	CountPending(ctx context.Context, ownerID string) (int, error)
	UpdateIngestResult(ctx context.Context, r *domain.KnowledgeRecord) error
	UpdateAnnotations(ctx context.Context, ownerID, id string, a domain.Annotations) error
	UpdateStatus(ctx context.Context, ownerID, id string, status domain.RecordStatus) error
	UpdateImageKey(ctx context.Context, ownerID, id, imageKey string) error
	MarkDistributed(ctx context.Context, ownerID, id string, channel domain.DistributionChannel, at time.Time) error
}

type RecordPageResult struct {
	Items      []*domain.KnowledgeRecord
	NextCursor string
	HasMore    bool
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// RecordService handles business logic for knowledge records
type RecordService struct {
	recordRepo RecordRepositoryInterface
	uuidGen    UUIDGenerator
}

// NewRecordService creates a new RecordService instance
func NewRecordService(recordRepo RecordRepositoryInterface) *RecordService {
	return &RecordService{
		recordRepo: recordRepo,
		uuidGen:    &DefaultUUIDGenerator{},
	}
}

// NewRecordServiceWithUUIDGen creates a new RecordService with custom UUID generator (for testing)
func NewRecordServiceWithUUIDGen(recordRepo RecordRepositoryInterface, uuidGen UUIDGenerator) *RecordService {
	return &RecordService{
		recordRepo: recordRepo,
		uuidGen:    uuidGen,
	}
}

// CaptureInput represents the input for capturing a reference
type CaptureInput struct {
	OwnerID     string
	SourceURL   string
	DocumentKey string
	Title       string
	Note        string
}

type ListRecordsInput struct {
	OwnerID string
	Cursor  string
	Limit   int
}

type ListRecordsOutput struct {
	Items   []*domain.KnowledgeRecord
	Cursor  string
	HasMore bool
}

// Capture stores a new pending record. No fetching or extraction happens
// here; ingestion picks the record up later.
func (s *RecordService) Capture(ctx context.Context, input CaptureInput) (*domain.KnowledgeRecord, error) {
	ctx, span := telemetry.StartSpan(ctx, "RecordService.Capture", telemetry.SpanAttributes{
		OwnerID:   input.OwnerID,
		Operation: "capture",
	})
	defer span.End()

	now := time.Now().UTC()
	record := domain.NewKnowledgeRecord(
		s.uuidGen.NewString(),
		input.OwnerID,
		input.SourceURL,
		input.DocumentKey,
		input.Title,
		input.Note,
		now,
	)

	if err := domain.ValidateRecord(record); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid record", err)
	}

	if err := s.recordRepo.Create(ctx, record); err != nil {
		span.SetError(err)
		return nil, err
	}

	return record, nil
}

// Get returns one record scoped to the owner
func (s *RecordService) Get(ctx context.Context, ownerID, id string) (*domain.KnowledgeRecord, error) {
	ctx, span := telemetry.StartSpan(ctx, "RecordService.Get", telemetry.SpanAttributes{
		OwnerID:   ownerID,
		RecordID:  id,
		Operation: "get",
	})
	defer span.End()

	return s.recordRepo.GetByID(ctx, ownerID, id)
}

// List returns a cursor page of the owner's records, newest first
func (s *RecordService) List(ctx context.Context, input ListRecordsInput) (*ListRecordsOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "RecordService.List", telemetry.SpanAttributes{
		OwnerID:   input.OwnerID,
		Operation: "list",
	})
	defer span.End()

	limit := input.Limit
	if limit <= 0 || limit > pagination.MaxLimit {
		limit = pagination.DefaultLimit
	}

	var cursor *pagination.Cursor
	if input.Cursor != "" {
		parsed, err := pagination.DecodeCursor(input.Cursor)
		if err != nil {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid cursor", err)
		}
		cursor = parsed
	}

	page, err := s.recordRepo.ListWithCursor(ctx, input.OwnerID, cursor, limit)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	return &ListRecordsOutput{
		Items:   page.Items,
		Cursor:  page.NextCursor,
		HasMore: page.HasMore,
	}, nil
}

// Annotate replaces the curator note and highlighted indices on a record
func (s *RecordService) Annotate(ctx context.Context, ownerID, id string, a domain.Annotations) error {
	ctx, span := telemetry.StartSpan(ctx, "RecordService.Annotate", telemetry.SpanAttributes{
		OwnerID:   ownerID,
		RecordID:  id,
		Operation: "annotate",
	})
	defer span.End()

	return s.recordRepo.UpdateAnnotations(ctx, ownerID, id, a)
}

// Archive moves a record out of active circulation without losing it
func (s *RecordService) Archive(ctx context.Context, ownerID, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "RecordService.Archive", telemetry.SpanAttributes{
		OwnerID:   ownerID,
		RecordID:  id,
		Operation: "archive",
	})
	defer span.End()

	return s.recordRepo.UpdateStatus(ctx, ownerID, id, domain.RecordStatusArchived)
}

// Discard marks a record as rejected. Discarded records stay queryable by
// id but drop out of retrieval.
func (s *RecordService) Discard(ctx context.Context, ownerID, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "RecordService.Discard", telemetry.SpanAttributes{
		OwnerID:   ownerID,
		RecordID:  id,
		Operation: "discard",
	})
	defer span.End()

	return s.recordRepo.UpdateStatus(ctx, ownerID, id, domain.RecordStatusDiscarded)
}
