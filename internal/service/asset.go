package service

import (
	"context"
	"fmt"
	"time"

	"github.com/curiolabs/curio/internal/domain"
)

type StorageClientInterface interface {
	GenerateUploadURL(ctx context.Context, key string, contentType string) (string, error)
	GenerateDownloadURL(ctx context.Context, key string) (string, error)
	DeleteObject(ctx context.Context, key string) error
	HeadObject(ctx context.Context, key string) (*ObjectMetadata, error)
}

type ObjectMetadata struct {
	ContentLength int64
	ContentType   string
	ETag          string
}

// AssetRepositoryInterface defines the repository interface for assets
type AssetRepositoryInterface interface {
	Create(ctx context.Context, a *domain.Asset) error
	GetByID(ctx context.Context, ownerID, id string) (*domain.Asset, error)
	UpdateSummary(ctx context.Context, ownerID, id, description string, keywords []string, embedding []float32) error
	Delete(ctx context.Context, ownerID, id string) error
}

// AssetService manages uploaded binaries: presigned upload handshakes,
// download URLs, and attaching images to records.
type AssetService struct {
	assetRepo  AssetRepositoryInterface
	recordRepo RecordRepositoryInterface
	storage    StorageClientInterface
	uuidGen    UUIDGenerator
	txRunner   TxRunner
}

func NewAssetService(assetRepo AssetRepositoryInterface, recordRepo RecordRepositoryInterface, storage StorageClientInterface, txRunner TxRunner) *AssetService {
	return &AssetService{
		assetRepo:  assetRepo,
		recordRepo: recordRepo,
		storage:    storage,
		uuidGen:    &DefaultUUIDGenerator{},
		txRunner:   txRunner,
	}
}

func NewAssetServiceWithUUIDGen(assetRepo AssetRepositoryInterface, recordRepo RecordRepositoryInterface, storage StorageClientInterface, txRunner TxRunner, uuidGen UUIDGenerator) *AssetService {
	return &AssetService{
		assetRepo:  assetRepo,
		recordRepo: recordRepo,
		storage:    storage,
		uuidGen:    uuidGen,
		txRunner:   txRunner,
	}
}

type InitUploadInput struct {
	OwnerID     string
	Filename    string
	ContentType string
}

type InitUploadResult struct {
	AssetID    string
	StorageKey string
	UploadURL  string
}

// InitUpload hands the client a presigned PUT URL. The asset row is not
// created until CompleteUpload verifies the object landed.
func (s *AssetService) InitUpload(ctx context.Context, input InitUploadInput) (*InitUploadResult, error) {
	assetID := s.uuidGen.NewString()
	storageKey := buildStorageKey(input.OwnerID, assetID, input.Filename)

	uploadURL, err := s.storage.GenerateUploadURL(ctx, storageKey, input.ContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to generate upload URL: %w", err)
	}

	return &InitUploadResult{
		AssetID:    assetID,
		StorageKey: storageKey,
		UploadURL:  uploadURL,
	}, nil
}

type CompleteUploadInput struct {
	AssetID     string
	OwnerID     string
	Filename    string
	ContentType string
	StorageKey  string
	SHA256      string
	RecordID    string
}

// CompleteUpload registers an uploaded object. When RecordID is set, the
// asset row and the record's image pointer commit together.
func (s *AssetService) CompleteUpload(ctx context.Context, input CompleteUploadInput) (*domain.Asset, error) {
	_, err := s.storage.HeadObject(ctx, input.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("failed to verify uploaded file: %w", err)
	}

	asset := domain.NewAsset(
		input.AssetID, input.OwnerID,
		input.Filename, input.ContentType, input.SHA256, input.StorageKey,
		time.Now().UTC(),
	)
	if err := domain.ValidateAsset(asset); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid asset", err)
	}

	if input.RecordID != "" && s.txRunner != nil {
		if err := s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
			if err := repos.Assets().Create(ctx, asset); err != nil {
				return fmt.Errorf("failed to create asset record: %w", err)
			}
			return repos.Records().UpdateImageKey(ctx, input.OwnerID, input.RecordID, input.StorageKey)
		}); err != nil {
			return nil, err
		}
		return asset, nil
	}

	if err := s.assetRepo.Create(ctx, asset); err != nil {
		return nil, fmt.Errorf("failed to create asset record: %w", err)
	}

	if input.RecordID != "" {
		if err := s.recordRepo.UpdateImageKey(ctx, input.OwnerID, input.RecordID, input.StorageKey); err != nil {
			return nil, err
		}
	}

	return asset, nil
}

func (s *AssetService) GetDownloadURL(ctx context.Context, ownerID, assetID string) (string, error) {
	asset, err := s.assetRepo.GetByID(ctx, ownerID, assetID)
	if err != nil {
		return "", err
	}

	url, err := s.storage.GenerateDownloadURL(ctx, asset.StorageKey)
	if err != nil {
		return "", fmt.Errorf("failed to generate download URL: %w", err)
	}

	return url, nil
}

func (s *AssetService) Delete(ctx context.Context, ownerID, assetID string) error {
	asset, err := s.assetRepo.GetByID(ctx, ownerID, assetID)
	if err != nil {
		return err
	}

	if err := s.storage.DeleteObject(ctx, asset.StorageKey); err != nil {
		return fmt.Errorf("failed to delete from storage: %w", err)
	}

	if err := s.assetRepo.Delete(ctx, ownerID, assetID); err != nil {
		return fmt.Errorf("failed to delete asset record: %w", err)
	}

	return nil
}

func (s *AssetService) GetByID(ctx context.Context, ownerID, assetID string) (*domain.Asset, error) {
	return s.assetRepo.GetByID(ctx, ownerID, assetID)
}

func buildStorageKey(ownerID, assetID, filename string) string {
	return fmt.Sprintf("%s/%s/%s", ownerID, assetID, filename)
}
