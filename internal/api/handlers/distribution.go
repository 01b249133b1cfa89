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

type DistributionService interface {
	Distribute(ctx context.Context, input service.DistributeInput) (*service.DistributeResult, error)
}

type DistributionHandler struct {
	svc DistributionService
}

func NewDistributionHandler(svc DistributionService) *DistributionHandler {
	return &DistributionHandler{svc: svc}
}

type DistributeRequest struct {
	Channel      string `json:"channel"`
	IncludeImage bool   `json:"include_image"`
}

func (h *DistributionHandler) Distribute(w http.ResponseWriter, r *http.Request) {
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

	var req DistributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Channel == "" {
		api.Error(w, http.StatusBadRequest, "channel is required")
		return
	}

	input := service.DistributeInput{
		OwnerID:      ownerID,
		RecordID:     id,
		Channel:      domain.DistributionChannel(req.Channel),
		IncludeImage: req.IncludeImage,
	}

	result, err := h.svc.Distribute(r.Context(), input)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, result)
}
