package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/curiolabs/curio/internal/domain"
)

func sampleFields() domain.StructuredFields {
	return domain.StructuredFields{
		Title:         "Continuous deployment at scale",
		Summary:       "Elite teams deploy 973x more frequently than low performers.",
		RelevanceNote: "Grounding for our release cadence targets.",
		ContentType:   domain.ContentTypeReport,
		Credibility:   domain.TierHigh,
		Actionability: domain.TierMedium,
		Freshness:     domain.FreshnessCurrent,
		Tags: domain.TagSet{
			Topics:     []string{"devops", "deployment"},
			Methods:    []string{"survey"},
			Industries: []string{"software"},
			Audiences:  []string{"engineering leaders"},
		},
	}
}

func TestRecordText(t *testing.T) {
	text := RecordText(sampleFields())

	assert.Contains(t, text, "Continuous deployment at scale")
	assert.Contains(t, text, "973x more frequently")
	assert.Contains(t, text, "release cadence targets")
	assert.Contains(t, text, "devops")
	assert.Contains(t, text, "survey")
	assert.Contains(t, text, "engineering leaders")
}

func TestRecordText_OmitsEmptySections(t *testing.T) {
	text := RecordText(domain.StructuredFields{Title: "Just a title"})

	assert.Equal(t, "Just a title", text)
}

func TestEmbeddingService_EmbedRecord(t *testing.T) {
	mockClient := new(MockEmbeddingClient)
	svc := NewEmbeddingService(mockClient)

	ctx := context.Background()
	vec := make([]float32, 1536)
	mockClient.On("GenerateEmbedding", ctx, mock.MatchedBy(func(text string) bool {
		return text != ""
	})).Return(vec, nil)

	result, err := svc.EmbedRecord(ctx, sampleFields())

	require.NoError(t, err)
	assert.Len(t, result, 1536)
	mockClient.AssertExpectations(t)
}

func TestEmbeddingService_EmbedRecord_Failure(t *testing.T) {
	mockClient := new(MockEmbeddingClient)
	svc := NewEmbeddingService(mockClient)

	ctx := context.Background()
	mockClient.On("GenerateEmbedding", ctx, mock.Anything).Return(nil, errors.New("api timeout"))

	_, err := svc.EmbedRecord(ctx, sampleFields())

	require.Error(t, err)
	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeUpstreamFailure, domainErr.Code)
}

func TestEmbeddingService_EmbedQuery(t *testing.T) {
	mockClient := new(MockEmbeddingClient)
	svc := NewEmbeddingService(mockClient)

	ctx := context.Background()
	vec := make([]float32, 1536)
	mockClient.On("GenerateEmbedding", ctx, "what is our deploy cadence?").Return(vec, nil)

	result, err := svc.EmbedQuery(ctx, "what is our deploy cadence?")

	require.NoError(t, err)
	assert.Len(t, result, 1536)
}
