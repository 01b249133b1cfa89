package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/curiolabs/curio/internal/api"
	"github.com/curiolabs/curio/internal/api/middleware"
	"github.com/curiolabs/curio/internal/domain"
	"github.com/curiolabs/curio/internal/service"
	"github.com/go-chi/chi/v5"
)

type RecordService interface {
	Capture(ctx context.Context, input service.CaptureInput) (*domain.KnowledgeRecord, error)
	Get(ctx context.Context, ownerID, id string) (*domain.KnowledgeRecord, error)
	List(ctx context.Context, input service.ListRecordsInput) (*service.ListRecordsOutput, error)
	Annotate(ctx context.Context, ownerID, id string, a domain.Annotations) error
	Archive(ctx context.Context, ownerID, id string) error
	Discard(ctx context.Context, ownerID, id string) error
}

type RecordHandler struct {
	svc RecordService
}

func NewRecordHandler(svc RecordService) *RecordHandler {
	return &RecordHandler{svc: svc}
}

type CaptureRecordRequest struct {
	SourceURL   string `json:"source_url"`
	DocumentKey string `json:"document_key"`
	Title       string `json:"title"`
	Note        string `json:"note"`
}

type AnnotateRecordRequest struct {
	Note       string `json:"note"`
	Highlights []int  `json:"highlights"`
}

type FindingResponse struct {
	Label  string `json:"label"`
	Detail string `json:"detail"`
}

type TagSetResponse struct {
	Topics     []string `json:"topics,omitempty"`
	Methods    []string `json:"methods,omitempty"`
	Industries []string `json:"industries,omitempty"`
	Audiences  []string `json:"audiences,omitempty"`
}

type DistributionResponse struct {
	SharedTeam       bool   `json:"shared_team"`
	SharedTeamAt     string `json:"shared_team_at,omitempty"`
	SharedDigest     bool   `json:"shared_digest"`
	SharedDigestAt   string `json:"shared_digest_at,omitempty"`
	SharedNewsletter bool   `json:"shared_newsletter"`
	SharedNewsAt     string `json:"shared_newsletter_at,omitempty"`
}

type RecordResponse struct {
	ID             string               `json:"id"`
	OwnerID        string               `json:"owner_id"`
	SourceURL      string               `json:"source_url,omitempty"`
	DocumentKey    string               `json:"document_key,omitempty"`
	Status         string               `json:"status"`
	Title          string               `json:"title"`
	Summary        string               `json:"summary,omitempty"`
	Findings       []FindingResponse    `json:"findings,omitempty"`
	RelevanceNote  string               `json:"relevance_note,omitempty"`
	Excerpts       []string             `json:"excerpts,omitempty"`
	Tags           TagSetResponse       `json:"tags"`
	ContentType    string               `json:"content_type,omitempty"`
	Credibility    string               `json:"credibility,omitempty"`
	Actionability  string               `json:"actionability,omitempty"`
	Freshness      string               `json:"freshness,omitempty"`
	Author         string               `json:"author,omitempty"`
	OrgName        string               `json:"org_name,omitempty"`
	Methodology    string               `json:"methodology,omitempty"`
	Note           string               `json:"note,omitempty"`
	Highlights     []int                `json:"highlights,omitempty"`
	ImageKey       string               `json:"image_key,omitempty"`
	HasFullContent bool                 `json:"has_full_content"`
	Distributed    DistributionResponse `json:"distributed"`
	CreatedAt      string               `json:"created_at"`
	UpdatedAt      string               `json:"updated_at"`
}

func recordToResponse(rec *domain.KnowledgeRecord) *RecordResponse {
	resp := &RecordResponse{
		ID:             rec.ID,
		OwnerID:        rec.OwnerID,
		SourceURL:      rec.SourceURL,
		DocumentKey:    rec.DocumentKey,
		Status:         string(rec.Status),
		Title:          rec.Fields.Title,
		Summary:        rec.Fields.Summary,
		RelevanceNote:  rec.Fields.RelevanceNote,
		Excerpts:       rec.Fields.Excerpts,
		ContentType:    string(rec.Fields.ContentType),
		Credibility:    string(rec.Fields.Credibility),
		Actionability:  string(rec.Fields.Actionability),
		Freshness:      string(rec.Fields.Freshness),
		Author:         rec.Fields.Author,
		OrgName:        rec.Fields.OrgName,
		Methodology:    rec.Fields.Methodology,
		Note:           rec.Annotations.Note,
		Highlights:     rec.Annotations.Highlights,
		ImageKey:       rec.ImageKey,
		HasFullContent: rec.HasFullContent(),
		Tags: TagSetResponse{
			Topics:     rec.Fields.Tags.Topics,
			Methods:    rec.Fields.Tags.Methods,
			Industries: rec.Fields.Tags.Industries,
			Audiences:  rec.Fields.Tags.Audiences,
		},
		Distributed: DistributionResponse{
			SharedTeam:       rec.Distributed.SharedTeam,
			SharedTeamAt:     formatOptionalTime(rec.Distributed.SharedTeamAt),
			SharedDigest:     rec.Distributed.SharedDigest,
			SharedDigestAt:   formatOptionalTime(rec.Distributed.SharedDigestAt),
			SharedNewsletter: rec.Distributed.SharedNewsletter,
			SharedNewsAt:     formatOptionalTime(rec.Distributed.SharedNewsletterAt),
		},
		CreatedAt: rec.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt: rec.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}

	for _, f := range rec.Fields.Findings {
		resp.Findings = append(resp.Findings, FindingResponse{Label: f.Label, Detail: f.Detail})
	}

	return resp
}

func (h *RecordHandler) Capture(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CaptureRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.SourceURL == "" && req.DocumentKey == "" {
		api.Error(w, http.StatusBadRequest, "source_url or document_key is required")
		return
	}

	input := service.CaptureInput{
		OwnerID:     ownerID,
		SourceURL:   req.SourceURL,
		DocumentKey: req.DocumentKey,
		Title:       req.Title,
		Note:        req.Note,
	}

	record, err := h.svc.Capture(r.Context(), input)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, recordToResponse(record))
}

func (h *RecordHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	record, err := h.svc.Get(r.Context(), ownerID, id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, recordToResponse(record))
}

type RecordListResponse struct {
	Items   []*RecordResponse `json:"items"`
	Cursor  string            `json:"cursor,omitempty"`
	HasMore bool              `json:"has_more"`
}

func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	cursor := r.URL.Query().Get("cursor")
	limitStr := r.URL.Query().Get("limit")
	limit := 0
	if limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	input := service.ListRecordsInput{
		OwnerID: ownerID,
		Cursor:  cursor,
		Limit:   limit,
	}

	output, err := h.svc.List(r.Context(), input)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*RecordResponse, len(output.Items))
	for i, rec := range output.Items {
		responses[i] = recordToResponse(rec)
	}

	api.Success(w, http.StatusOK, RecordListResponse{
		Items:   responses,
		Cursor:  output.Cursor,
		HasMore: output.HasMore,
	})
}

func (h *RecordHandler) Annotate(w http.ResponseWriter, r *http.Request) {
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

	var req AnnotateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	annotations := domain.Annotations{
		Note:       req.Note,
		Highlights: req.Highlights,
	}

	if err := h.svc.Annotate(r.Context(), ownerID, id, annotations); err != nil {
		api.HandleError(w, err)
		return
	}

	record, err := h.svc.Get(r.Context(), ownerID, id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, recordToResponse(record))
}

func (h *RecordHandler) Archive(w http.ResponseWriter, r *http.Request) {
	h.updateStatus(w, r, h.svc.Archive)
}

func (h *RecordHandler) Discard(w http.ResponseWriter, r *http.Request) {
	h.updateStatus(w, r, h.svc.Discard)
}

func (h *RecordHandler) updateStatus(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, ownerID, id string) error) {
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

	if err := op(r.Context(), ownerID, id); err != nil {
		api.HandleError(w, err)
		return
	}

	record, err := h.svc.Get(r.Context(), ownerID, id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, recordToResponse(record))
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02T15:04:05Z")
}
