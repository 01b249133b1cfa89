package domain

import (
	"fmt"
	"strings"
	"time"
)

// Asset represents an uploaded binary, typically an image attached to a record
type Asset struct {
	ID          string
	OwnerID     string
	Filename    string
	MimeType    string
	SHA256      string
	StorageKey  string
	Keywords    []string
	Description string
	Embedding   []float32
	CreatedAt   time.Time
}

// NewAsset creates a new Asset instance
func NewAsset(
	id, ownerID string,
	filename, mimeType, sha256, storageKey string,
	createdAt time.Time,
) *Asset {
	return &Asset{
		ID:         id,
		OwnerID:    ownerID,
		Filename:   filename,
		MimeType:   mimeType,
		SHA256:     sha256,
		StorageKey: storageKey,
		CreatedAt:  createdAt,
	}
}

// IsImage reports whether the asset can be sent to the vision model
func (a *Asset) IsImage() bool {
	return strings.HasPrefix(a.MimeType, "image/")
}

// ValidateAsset validates an Asset instance
func ValidateAsset(a *Asset) error {
	if a == nil {
		return fmt.Errorf("asset cannot be nil")
	}

	if a.ID == "" {
		return fmt.Errorf("asset ID is required")
	}

	if a.OwnerID == "" {
		return fmt.Errorf("asset OwnerID is required")
	}

	if a.Filename == "" {
		return fmt.Errorf("asset Filename is required")
	}

	if a.MimeType == "" {
		return fmt.Errorf("asset MimeType is required")
	}

	if a.SHA256 == "" {
		return fmt.Errorf("asset SHA256 is required")
	}

	if a.StorageKey == "" {
		return fmt.Errorf("asset StorageKey is required")
	}

	return nil
}
