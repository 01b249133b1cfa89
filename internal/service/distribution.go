package service

import (
	"context"
	"time"

	"github.com/curiolabs/curio/internal/domain"
	"github.com/curiolabs/curio/internal/messaging"
	"github.com/curiolabs/curio/internal/render"
	"github.com/curiolabs/curio/internal/telemetry"
)

// AssetURLProvider resolves a stored asset key to a URL usable inside an
// outbound message
type AssetURLProvider interface {
	PublicURL(key string) string
}

// DistributeInput selects the channel and message options for one share
type DistributeInput struct {
	OwnerID      string
	RecordID     string
	Channel      domain.DistributionChannel
	IncludeImage bool
}

// DistributeResult carries the rendered message, its compliance report,
// and whether delivery happened
type DistributeResult struct {
	Message    render.Message    `json:"message"`
	Validation render.Validation `json:"validation"`
	Delivered  bool              `json:"delivered"`
}

// DistributionService renders, validates, delivers, and flags outbound
// shares. The compliance validator reports violations but never blocks
// delivery; a failed delivery never flips the channel flag.
type DistributionService struct {
	recordRepo RecordRepositoryInterface
	deliverer  messaging.Deliverer
	assets     AssetURLProvider
}

// NewDistributionService creates a new DistributionService instance
func NewDistributionService(recordRepo RecordRepositoryInterface, deliverer messaging.Deliverer, assets AssetURLProvider) *DistributionService {
	return &DistributionService{
		recordRepo: recordRepo,
		deliverer:  deliverer,
		assets:     assets,
	}
}

// Distribute generates the channel message for a record and, for the team
// channel, posts it to the webhook. Digest and newsletter shares only
// generate and flag; their delivery happens downstream.
func (s *DistributionService) Distribute(ctx context.Context, input DistributeInput) (*DistributeResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "DistributionService.Distribute", telemetry.SpanAttributes{
		OwnerID:   input.OwnerID,
		RecordID:  input.RecordID,
		Operation: "distribute",
	})
	defer span.End()

	if !domain.IsValidChannel(input.Channel) {
		return nil, domain.ErrInvalidChannel
	}

	record, err := s.recordRepo.GetByID(ctx, input.OwnerID, input.RecordID)
	if err != nil {
		return nil, err
	}
	if record.Status != domain.RecordStatusExtracted {
		return nil, domain.ErrRecordNotDistributable
	}

	opts := render.Options{
		IncludeImage: input.IncludeImage,
		LinkURL:      record.SourceURL,
	}
	if record.ImageKey != "" && s.assets != nil {
		opts.ImageURL = s.assets.PublicURL(record.ImageKey)
	}

	msg := render.Render(record.Fields, opts)
	validation := render.Validate(msg.Text)

	result := &DistributeResult{
		Message:    msg,
		Validation: validation,
	}

	if input.Channel == domain.ChannelTeam {
		if err := s.deliverer.Deliver(ctx, msg); err != nil {
			span.SetError(err)
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUpstreamFailure, "message delivery failed", err)
		}
		result.Delivered = true
	}

	if err := s.recordRepo.MarkDistributed(ctx, input.OwnerID, input.RecordID, input.Channel, time.Now().UTC()); err != nil {
		span.SetError(err)
		return nil, err
	}

	return result, nil
}
