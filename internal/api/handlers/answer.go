package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/curiolabs/curio/internal/api"
	"github.com/curiolabs/curio/internal/api/middleware"
	"github.com/curiolabs/curio/internal/domain"
)

type AnswerService interface {
	Ask(ctx context.Context, ownerID, question string, mode domain.SearchMode) (*domain.AnswerResult, error)
}

type AnswerHandler struct {
	svc AnswerService
}

func NewAnswerHandler(svc AnswerService) *AnswerHandler {
	return &AnswerHandler{svc: svc}
}

type AskRequest struct {
	Question string `json:"question"`
	Mode     string `json:"mode"`
}

func (h *AnswerHandler) Ask(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Question == "" {
		api.Error(w, http.StatusBadRequest, "question is required")
		return
	}

	mode := domain.SearchMode(req.Mode)
	if !domain.IsValidSearchMode(mode) {
		mode = domain.SearchModeStandard
	}

	result, err := h.svc.Ask(r.Context(), ownerID, req.Question, mode)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, result)
}
