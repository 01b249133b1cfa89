package handlers

import (
	"context"
	"net/http"

	"github.com/curiolabs/curio/internal/api"
	"github.com/curiolabs/curio/internal/api/middleware"
	"github.com/curiolabs/curio/internal/domain"
)

type SearchService interface {
	Search(ctx context.Context, ownerID, query string, mode domain.SearchMode) ([]*domain.RetrievalCandidate, error)
}

type SearchHandler struct {
	svc SearchService
}

func NewSearchHandler(svc SearchService) *SearchHandler {
	return &SearchHandler{svc: svc}
}

type SearchHitResponse struct {
	RecordID       string  `json:"record_id"`
	Title          string  `json:"title"`
	Summary        string  `json:"summary,omitempty"`
	RelevanceNote  string  `json:"relevance_note,omitempty"`
	SourceURL      string  `json:"source_url,omitempty"`
	Similarity     float32 `json:"similarity"`
	Score          float32 `json:"score"`
	HasFullContent bool    `json:"has_full_content"`
}

type SearchResponse struct {
	Query string              `json:"query"`
	Mode  string              `json:"mode"`
	Hits  []SearchHitResponse `json:"hits"`
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		api.Error(w, http.StatusBadRequest, "q is required")
		return
	}

	mode := domain.SearchMode(r.URL.Query().Get("mode"))
	if !domain.IsValidSearchMode(mode) {
		mode = domain.SearchModeStandard
	}

	candidates, err := h.svc.Search(r.Context(), ownerID, query, mode)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	hits := make([]SearchHitResponse, 0, len(candidates))
	for _, c := range candidates {
		hits = append(hits, SearchHitResponse{
			RecordID:       c.RecordID,
			Title:          c.Title,
			Summary:        c.Summary,
			RelevanceNote:  c.RelevanceNote,
			SourceURL:      c.SourceURL,
			Similarity:     c.Similarity,
			Score:          c.FusedScore,
			HasFullContent: c.HasFull,
		})
	}

	api.Success(w, http.StatusOK, SearchResponse{
		Query: query,
		Mode:  string(mode),
		Hits:  hits,
	})
}
