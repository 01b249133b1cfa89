package service

import (
	"context"
	"strings"

	"github.com/curiolabs/curio/internal/domain"
	"github.com/curiolabs/curio/internal/telemetry"
)

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingService produces the vectors behind semantic retrieval. Unlike
// fetching and extraction it has no degraded mode: failures propagate.
type EmbeddingService struct {
	client EmbeddingClient
}

// NewEmbeddingService creates a new EmbeddingService instance
func NewEmbeddingService(client EmbeddingClient) *EmbeddingService {
	return &EmbeddingService{client: client}
}

// RecordText assembles the canonical embedding text for a record: title,
// summary, relevance note, and tags. Raw content is deliberately excluded
// so all records embed comparably regardless of fetch quality.
func RecordText(fields domain.StructuredFields) string {
	parts := []string{fields.Title, fields.Summary, fields.RelevanceNote}
	parts = append(parts, fields.Tags.Topics...)
	parts = append(parts, fields.Tags.Methods...)
	parts = append(parts, fields.Tags.Industries...)
	parts = append(parts, fields.Tags.Audiences...)

	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			nonEmpty = append(nonEmpty, strings.TrimSpace(p))
		}
	}
	return strings.Join(nonEmpty, "\n")
}

// EmbedRecord generates the record's vector from its structured fields
func (s *EmbeddingService) EmbedRecord(ctx context.Context, fields domain.StructuredFields) ([]float32, error) {
	ctx, span := telemetry.StartSpan(ctx, "EmbeddingService.EmbedRecord", telemetry.SpanAttributes{
		Operation: "embed_record",
	})
	defer span.End()

	vec, err := s.client.GenerateEmbedding(ctx, RecordText(fields))
	if err != nil {
		span.SetError(err)
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUpstreamFailure, "embedding generation failed", err)
	}
	return vec, nil
}

// EmbedQuery generates the vector for a raw query string
func (s *EmbeddingService) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	ctx, span := telemetry.StartSpan(ctx, "EmbeddingService.EmbedQuery", telemetry.SpanAttributes{
		Operation: "embed_query",
	})
	defer span.End()

	vec, err := s.client.GenerateEmbedding(ctx, query)
	if err != nil {
		span.SetError(err)
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUpstreamFailure, "embedding generation failed", err)
	}
	return vec, nil
}
