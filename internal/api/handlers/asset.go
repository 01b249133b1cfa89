package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/curiolabs/curio/internal/api"
	"github.com/curiolabs/curio/internal/api/middleware"
	"github.com/curiolabs/curio/internal/domain"
	"github.com/curiolabs/curio/internal/service"
	"github.com/go-chi/chi/v5"
)

type AssetService interface {
	InitUpload(ctx context.Context, input service.InitUploadInput) (*service.InitUploadResult, error)
	CompleteUpload(ctx context.Context, input service.CompleteUploadInput) (*domain.Asset, error)
	GetDownloadURL(ctx context.Context, ownerID, assetID string) (string, error)
	GetByID(ctx context.Context, ownerID, assetID string) (*domain.Asset, error)
	Delete(ctx context.Context, ownerID, assetID string) error
}

type ImageSummaryService interface {
	GenerateImageSummary(ctx context.Context, ownerID, assetID string) (*domain.Asset, error)
}

type AssetHandler struct {
	svc    AssetService
	images ImageSummaryService
}

func NewAssetHandler(svc AssetService, images ImageSummaryService) *AssetHandler {
	return &AssetHandler{svc: svc, images: images}
}

type InitUploadRequest struct {
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
}

type InitUploadResponse struct {
	AssetID    string `json:"asset_id"`
	StorageKey string `json:"storage_key"`
	UploadURL  string `json:"upload_url"`
}

type CompleteUploadRequest struct {
	AssetID    string `json:"asset_id"`
	StorageKey string `json:"storage_key"`
	Filename   string `json:"filename"`
	MimeType   string `json:"mime_type"`
	SHA256     string `json:"sha256"`
	RecordID   string `json:"record_id,omitempty"`
}

type AssetResponse struct {
	ID          string   `json:"id"`
	OwnerID     string   `json:"owner_id"`
	Filename    string   `json:"filename"`
	MimeType    string   `json:"mime_type"`
	SHA256      string   `json:"sha256"`
	Keywords    []string `json:"keywords,omitempty"`
	Description string   `json:"description,omitempty"`
	CreatedAt   string   `json:"created_at"`
}

type DownloadURLResponse struct {
	DownloadURL string `json:"download_url"`
}

func assetToResponse(a *domain.Asset) *AssetResponse {
	return &AssetResponse{
		ID:          a.ID,
		OwnerID:     a.OwnerID,
		Filename:    a.Filename,
		MimeType:    a.MimeType,
		SHA256:      a.SHA256,
		Keywords:    a.Keywords,
		Description: a.Description,
		CreatedAt:   a.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func (h *AssetHandler) InitUpload(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req InitUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Filename == "" {
		api.Error(w, http.StatusBadRequest, "filename is required")
		return
	}
	if req.MimeType == "" {
		api.Error(w, http.StatusBadRequest, "mime_type is required")
		return
	}

	input := service.InitUploadInput{
		OwnerID:     ownerID,
		Filename:    req.Filename,
		ContentType: req.MimeType,
	}

	result, err := h.svc.InitUpload(r.Context(), input)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, InitUploadResponse{
		AssetID:    result.AssetID,
		StorageKey: result.StorageKey,
		UploadURL:  result.UploadURL,
	})
}

func (h *AssetHandler) CompleteUpload(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CompleteUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.AssetID == "" {
		api.Error(w, http.StatusBadRequest, "asset_id is required")
		return
	}
	if req.StorageKey == "" {
		api.Error(w, http.StatusBadRequest, "storage_key is required")
		return
	}
	if req.Filename == "" {
		api.Error(w, http.StatusBadRequest, "filename is required")
		return
	}
	if req.MimeType == "" {
		api.Error(w, http.StatusBadRequest, "mime_type is required")
		return
	}
	if req.SHA256 == "" {
		api.Error(w, http.StatusBadRequest, "sha256 is required")
		return
	}

	input := service.CompleteUploadInput{
		AssetID:     req.AssetID,
		OwnerID:     ownerID,
		StorageKey:  req.StorageKey,
		Filename:    req.Filename,
		ContentType: req.MimeType,
		SHA256:      req.SHA256,
		RecordID:    req.RecordID,
	}

	asset, err := h.svc.CompleteUpload(r.Context(), input)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, assetToResponse(asset))
}

func (h *AssetHandler) GetDownloadURL(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	downloadURL, err := h.svc.GetDownloadURL(r.Context(), ownerID, id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, DownloadURLResponse{
		DownloadURL: downloadURL,
	})
}

func (h *AssetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.svc.Delete(r.Context(), ownerID, id); err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusNoContent, nil)
}

// GenerateSummary runs the vision model over an image asset and stores the
// resulting searchable description.
func (h *AssetHandler) GenerateSummary(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	if h.images == nil {
		api.Error(w, http.StatusServiceUnavailable, "image summaries are not configured")
		return
	}

	asset, err := h.images.GenerateImageSummary(r.Context(), ownerID, id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, assetToResponse(asset))
}
