package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/curiolabs/curio/internal/api"
	"github.com/curiolabs/curio/internal/api/middleware"
	"github.com/curiolabs/curio/internal/domain"
	"github.com/go-chi/chi/v5"
)

type AuthService interface {
	CreateOwner(ctx context.Context, name, email string) (*domain.Owner, error)
	CreateAPIKey(ctx context.Context, ownerID, name string) (string, error)
	ListAPIKeys(ctx context.Context, ownerID string) ([]*domain.APIKey, error)
	RevokeAPIKey(ctx context.Context, keyID string) error
}

type AuthHandler struct {
	svc AuthService
}

func NewAuthHandler(svc AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type CreateOwnerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type OwnerResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	CreatedAt string `json:"created_at"`
}

type CreateAPIKeyRequest struct {
	OwnerID string `json:"owner_id"`
	Name    string `json:"name"`
}

type APIKeyResponse struct {
	Token string `json:"token,omitempty"`
	Name  string `json:"name"`
}

type APIKeyListItem struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Revoked   bool   `json:"revoked"`
	CreatedAt string `json:"created_at"`
}

func (h *AuthHandler) CreateOwner(w http.ResponseWriter, r *http.Request) {
	var req CreateOwnerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		api.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	owner, err := h.svc.CreateOwner(r.Context(), req.Name, req.Email)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, OwnerResponse{
		ID:        owner.ID,
		Name:      owner.Name,
		Email:     owner.Email,
		CreatedAt: owner.CreatedAt.Format("2006-01-02T15:04:05Z"),
	})
}

func (h *AuthHandler) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	var req CreateAPIKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.OwnerID == "" {
		api.Error(w, http.StatusBadRequest, "owner_id is required")
		return
	}
	if req.Name == "" {
		api.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	token, err := h.svc.CreateAPIKey(r.Context(), req.OwnerID, req.Name)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, APIKeyResponse{
		Token: token,
		Name:  req.Name,
	})
}

func (h *AuthHandler) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	keys, err := h.svc.ListAPIKeys(r.Context(), ownerID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]APIKeyListItem, 0, len(keys))
	for _, key := range keys {
		items = append(items, APIKeyListItem{
			ID:        key.ID,
			Name:      key.Name,
			Revoked:   key.IsRevoked(),
			CreatedAt: key.CreatedAt.Format("2006-01-02T15:04:05Z"),
		})
	}

	api.Success(w, http.StatusOK, items)
}

func (h *AuthHandler) RevokeAPIKey(w http.ResponseWriter, r *http.Request) {
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

	if err := h.svc.RevokeAPIKey(r.Context(), id); err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusNoContent, nil)
}
