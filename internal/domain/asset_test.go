package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAsset(t *testing.T) {
	now := time.Now()
	asset := NewAsset(
		"a1",
		"owner1",
		"diagram.png",
		"image/png",
		"abc123def456",
		"assets/owner1/diagram.png",
		now,
	)

	assert.Equal(t, "a1", asset.ID)
	assert.Equal(t, "owner1", asset.OwnerID)
	assert.Equal(t, "diagram.png", asset.Filename)
	assert.Equal(t, "image/png", asset.MimeType)
	assert.Equal(t, "abc123def456", asset.SHA256)
	assert.Equal(t, "assets/owner1/diagram.png", asset.StorageKey)
	assert.Empty(t, asset.Description)
	assert.Equal(t, now, asset.CreatedAt)
}

func TestAssetIsImage(t *testing.T) {
	tests := []struct {
		mimeType string
		expected bool
	}{
		{"image/png", true},
		{"image/jpeg", true},
		{"application/pdf", false},
		{"text/html", false},
	}

	for _, tt := range tests {
		t.Run(tt.mimeType, func(t *testing.T) {
			asset := &Asset{MimeType: tt.mimeType}
			assert.Equal(t, tt.expected, asset.IsImage())
		})
	}
}

func TestValidateAsset(t *testing.T) {
	now := time.Now()

	valid := func() *Asset {
		return &Asset{
			ID:         "a1",
			OwnerID:    "owner1",
			Filename:   "diagram.png",
			MimeType:   "image/png",
			SHA256:     "abc123def456",
			StorageKey: "assets/owner1/diagram.png",
			CreatedAt:  now,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Asset)
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid asset",
			mutate:  func(*Asset) {},
			wantErr: false,
		},
		{
			name:    "missing ID",
			mutate:  func(a *Asset) { a.ID = "" },
			wantErr: true,
			errMsg:  "ID",
		},
		{
			name:    "missing OwnerID",
			mutate:  func(a *Asset) { a.OwnerID = "" },
			wantErr: true,
			errMsg:  "OwnerID",
		},
		{
			name:    "missing Filename",
			mutate:  func(a *Asset) { a.Filename = "" },
			wantErr: true,
			errMsg:  "Filename",
		},
		{
			name:    "missing MimeType",
			mutate:  func(a *Asset) { a.MimeType = "" },
			wantErr: true,
			errMsg:  "MimeType",
		},
		{
			name:    "missing SHA256",
			mutate:  func(a *Asset) { a.SHA256 = "" },
			wantErr: true,
			errMsg:  "SHA256",
		},
		{
			name:    "missing StorageKey",
			mutate:  func(a *Asset) { a.StorageKey = "" },
			wantErr: true,
			errMsg:  "StorageKey",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			asset := valid()
			tt.mutate(asset)
			err := ValidateAsset(asset)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
