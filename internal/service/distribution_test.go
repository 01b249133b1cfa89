package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/curiolabs/curio/internal/domain"
	"github.com/curiolabs/curio/internal/extract"
	"github.com/curiolabs/curio/internal/render"
)

type MockDeliverer struct {
	mock.Mock
}

func (m *MockDeliverer) Deliver(ctx context.Context, msg render.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type staticAssetURLs struct{}

func (staticAssetURLs) PublicURL(key string) string { return "https://cdn.example.com/" + key }

func extractedRecord(id string) *domain.KnowledgeRecord {
	now := time.Now().UTC()
	return &domain.KnowledgeRecord{
		ID:        id,
		OwnerID:   "owner1",
		SourceURL: "https://example.com/post",
		Status:    domain.RecordStatusExtracted,
		Fields:    extract.Fallback("Example post"),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestDistributionService_Distribute_TeamChannel(t *testing.T) {
	recordRepo := new(MockRecordRepository)
	deliverer := new(MockDeliverer)
	svc := NewDistributionService(recordRepo, deliverer, staticAssetURLs{})

	ctx := context.Background()
	recordRepo.On("GetByID", ctx, "owner1", "rec-1").Return(extractedRecord("rec-1"), nil)
	deliverer.On("Deliver", ctx, mock.Anything).Return(nil)
	recordRepo.On("MarkDistributed", ctx, "owner1", "rec-1", domain.ChannelTeam, mock.Anything).Return(nil)

	result, err := svc.Distribute(ctx, DistributeInput{
		OwnerID:  "owner1",
		RecordID: "rec-1",
		Channel:  domain.ChannelTeam,
	})

	require.NoError(t, err)
	assert.True(t, result.Delivered)
	assert.True(t, result.Validation.Valid)
	assert.Contains(t, result.Message.Body, render.HeaderContext)
	recordRepo.AssertExpectations(t)
	deliverer.AssertExpectations(t)
}

func TestDistributionService_Distribute_DigestSkipsDelivery(t *testing.T) {
	recordRepo := new(MockRecordRepository)
	deliverer := new(MockDeliverer)
	svc := NewDistributionService(recordRepo, deliverer, staticAssetURLs{})

	ctx := context.Background()
	recordRepo.On("GetByID", ctx, "owner1", "rec-1").Return(extractedRecord("rec-1"), nil)
	recordRepo.On("MarkDistributed", ctx, "owner1", "rec-1", domain.ChannelDigest, mock.Anything).Return(nil)

	result, err := svc.Distribute(ctx, DistributeInput{
		OwnerID:  "owner1",
		RecordID: "rec-1",
		Channel:  domain.ChannelDigest,
	})

	require.NoError(t, err)
	assert.False(t, result.Delivered)
	deliverer.AssertNotCalled(t, "Deliver")
	recordRepo.AssertExpectations(t)
}

func TestDistributionService_Distribute_DeliveryFailureDoesNotFlag(t *testing.T) {
	recordRepo := new(MockRecordRepository)
	deliverer := new(MockDeliverer)
	svc := NewDistributionService(recordRepo, deliverer, staticAssetURLs{})

	ctx := context.Background()
	recordRepo.On("GetByID", ctx, "owner1", "rec-1").Return(extractedRecord("rec-1"), nil)
	deliverer.On("Deliver", ctx, mock.Anything).Return(errors.New("webhook 500"))

	_, err := svc.Distribute(ctx, DistributeInput{
		OwnerID:  "owner1",
		RecordID: "rec-1",
		Channel:  domain.ChannelTeam,
	})

	require.Error(t, err)
	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeUpstreamFailure, domainErr.Code)
	recordRepo.AssertNotCalled(t, "MarkDistributed")
}

func TestDistributionService_Distribute_InvalidChannel(t *testing.T) {
	svc := NewDistributionService(new(MockRecordRepository), new(MockDeliverer), staticAssetURLs{})

	_, err := svc.Distribute(context.Background(), DistributeInput{
		OwnerID:  "owner1",
		RecordID: "rec-1",
		Channel:  "carrier-pigeon",
	})

	assert.ErrorIs(t, err, domain.ErrInvalidChannel)
}

func TestDistributionService_Distribute_PendingRecordRejected(t *testing.T) {
	recordRepo := new(MockRecordRepository)
	svc := NewDistributionService(recordRepo, new(MockDeliverer), staticAssetURLs{})

	ctx := context.Background()
	record := extractedRecord("rec-1")
	record.Status = domain.RecordStatusPending
	recordRepo.On("GetByID", ctx, "owner1", "rec-1").Return(record, nil)

	_, err := svc.Distribute(ctx, DistributeInput{
		OwnerID:  "owner1",
		RecordID: "rec-1",
		Channel:  domain.ChannelTeam,
	})

	assert.ErrorIs(t, err, domain.ErrRecordNotDistributable)
}

func TestDistributionService_Distribute_ImageOption(t *testing.T) {
	recordRepo := new(MockRecordRepository)
	deliverer := new(MockDeliverer)
	svc := NewDistributionService(recordRepo, deliverer, staticAssetURLs{})

	ctx := context.Background()
	record := extractedRecord("rec-1")
	record.ImageKey = "images/rec-1.png"
	recordRepo.On("GetByID", ctx, "owner1", "rec-1").Return(record, nil)
	recordRepo.On("MarkDistributed", ctx, "owner1", "rec-1", domain.ChannelDigest, mock.Anything).Return(nil)

	result, err := svc.Distribute(ctx, DistributeInput{
		OwnerID:      "owner1",
		RecordID:     "rec-1",
		Channel:      domain.ChannelDigest,
		IncludeImage: true,
	})

	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/images/rec-1.png", result.Message.ImageURL)
}
