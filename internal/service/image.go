package service

import (
	"context"
	"strings"

	"github.com/curiolabs/curio/internal/domain"
	"github.com/curiolabs/curio/internal/telemetry"
)

// VisionClient defines the interface for image understanding
type VisionClient interface {
	DescribeImage(ctx context.Context, prompt, imageURL string) (string, error)
}

// AssetPresigner resolves an asset's storage key to a short-lived URL the
// vision model can fetch
type AssetPresigner interface {
	PresignGet(ctx context.Context, key string) (string, error)
}

const imagePrompt = `Describe this image for a knowledge base: what it shows, any text or data
visible in it, and what a reader would learn from it. One paragraph of plain prose.`

// ImageService generates searchable AI summaries for uploaded images
type ImageService struct {
	assetRepo AssetRepositoryInterface
	presigner AssetPresigner
	vision    VisionClient
	embedding *EmbeddingService
}

// NewImageService creates a new ImageService instance
func NewImageService(assetRepo AssetRepositoryInterface, presigner AssetPresigner, vision VisionClient, embedding *EmbeddingService) *ImageService {
	return &ImageService{
		assetRepo: assetRepo,
		presigner: presigner,
		vision:    vision,
		embedding: embedding,
	}
}

// GenerateImageSummary runs the vision model over a stored image asset and
// persists the description, derived keywords, and embedding. Failures
// propagate: an asset without a summary stays as it was.
func (s *ImageService) GenerateImageSummary(ctx context.Context, ownerID, assetID string) (*domain.Asset, error) {
	ctx, span := telemetry.StartSpan(ctx, "ImageService.GenerateImageSummary", telemetry.SpanAttributes{
		OwnerID:   ownerID,
		Operation: "image_summary",
	})
	defer span.End()

	asset, err := s.assetRepo.GetByID(ctx, ownerID, assetID)
	if err != nil {
		return nil, err
	}
	if !asset.IsImage() {
		return nil, domain.ErrAssetNotImage
	}

	url, err := s.presigner.PresignGet(ctx, asset.StorageKey)
	if err != nil {
		span.SetError(err)
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "storage operation failed", err)
	}

	description, err := s.vision.DescribeImage(ctx, imagePrompt, url)
	if err != nil {
		span.SetError(err)
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUpstreamFailure, "image description failed", err)
	}

	keywords := deriveKeywords(description, 8)

	vec, err := s.embedding.client.GenerateEmbedding(ctx, description)
	if err != nil {
		span.SetError(err)
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUpstreamFailure, "embedding generation failed", err)
	}

	if err := s.assetRepo.UpdateSummary(ctx, ownerID, assetID, description, keywords, vec); err != nil {
		span.SetError(err)
		return nil, err
	}

	asset.Description = description
	asset.Keywords = keywords
	asset.Embedding = vec
	return asset, nil
}

// deriveKeywords picks the most salient distinct words from a description.
// Deterministic: first-seen order, lowercase, stopwords and short words
// dropped.
func deriveKeywords(description string, max int) []string {
	stop := map[string]bool{
		"this": true, "that": true, "with": true, "from": true, "image": true,
		"shows": true, "would": true, "there": true, "their": true, "which": true,
		"about": true, "reader": true, "learn": true,
	}

	seen := make(map[string]bool)
	keywords := make([]string, 0, max)
	for _, word := range strings.Fields(strings.ToLower(description)) {
		word = strings.Trim(word, ".,:;!?()\"'")
		if len(word) < 4 || stop[word] || seen[word] {
			continue
		}
		seen[word] = true
		keywords = append(keywords, word)
		if len(keywords) == max {
			break
		}
	}
	return keywords
}
