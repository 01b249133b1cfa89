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

type IngestService interface {
	ProcessBatch(ctx context.Context, ownerID string, limit int) (*service.BatchResult, error)
	StartProcessAll(ctx context.Context, ownerID string) (*domain.IngestJob, error)
	GetJob(ctx context.Context, ownerID, jobID string) (*domain.IngestJob, error)
}

type IngestHandler struct {
	svc IngestService
}

func NewIngestHandler(svc IngestService) *IngestHandler {
	return &IngestHandler{svc: svc}
}

type ProcessBatchRequest struct {
	Limit int `json:"limit"`
}

type IngestJobResponse struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Total       int32  `json:"total"`
	Processed   int32  `json:"processed"`
	Failed      int32  `json:"failed"`
	LastError   string `json:"last_error,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
	CompletedAt string `json:"completed_at,omitempty"`
}

func ingestJobToResponse(job *domain.IngestJob) *IngestJobResponse {
	return &IngestJobResponse{
		ID:          job.ID,
		Status:      string(job.Status),
		Total:       job.Total,
		Processed:   job.Processed,
		Failed:      job.Failed,
		LastError:   job.LastError,
		CreatedAt:   job.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:   job.UpdatedAt.Format("2006-01-02T15:04:05Z"),
		CompletedAt: formatOptionalTime(job.CompletedAt),
	}
}

// ProcessBatch ingests pending records synchronously, one at a time. The
// response reports per-record outcomes for the batch.
func (h *IngestHandler) ProcessBatch(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ProcessBatchRequest
	if r.Body != nil {
		// An empty body means "use the default batch size".
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	result, err := h.svc.ProcessBatch(r.Context(), ownerID, req.Limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, result)
}

// ProcessAll registers a detached job covering every pending record and
// returns immediately. Progress is polled via GetJob.
func (h *IngestHandler) ProcessAll(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	job, err := h.svc.StartProcessAll(r.Context(), ownerID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusAccepted, ingestJobToResponse(job))
}

func (h *IngestHandler) GetJob(w http.ResponseWriter, r *http.Request) {
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

	job, err := h.svc.GetJob(r.Context(), ownerID, id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, ingestJobToResponse(job))
}
