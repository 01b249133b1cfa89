package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/curiolabs/curio/internal/api/middleware"
	"github.com/curiolabs/curio/internal/domain"
	"github.com/curiolabs/curio/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRecordService struct {
	mock.Mock
}

func (m *MockRecordService) Capture(ctx context.Context, input service.CaptureInput) (*domain.KnowledgeRecord, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.KnowledgeRecord), args.Error(1)
}

func (m *MockRecordService) Get(ctx context.Context, ownerID, id string) (*domain.KnowledgeRecord, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.KnowledgeRecord), args.Error(1)
}

func (m *MockRecordService) List(ctx context.Context, input service.ListRecordsInput) (*service.ListRecordsOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListRecordsOutput), args.Error(1)
}

func (m *MockRecordService) Annotate(ctx context.Context, ownerID, id string, a domain.Annotations) error {
	args := m.Called(ctx, ownerID, id, a)
	return args.Error(0)
}

func (m *MockRecordService) Archive(ctx context.Context, ownerID, id string) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

func (m *MockRecordService) Discard(ctx context.Context, ownerID, id string) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

func newTestRecord() *domain.KnowledgeRecord {
	now := time.Now().UTC()
	rec := domain.NewKnowledgeRecord("rec-123", "owner-456", "https://example.com/post", "", "Test Record", "worth a read", now)
	return rec
}

func requestWithOwnerID(method, url string, body []byte) *http.Request {
	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	ctx := context.WithValue(req.Context(), middleware.OwnerIDKey, "owner-456")
	return req.WithContext(ctx)
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestRecordHandler_Capture_Success(t *testing.T) {
	mockSvc := new(MockRecordService)
	handler := NewRecordHandler(mockSvc)

	expected := newTestRecord()
	mockSvc.On("Capture", mock.Anything, mock.MatchedBy(func(input service.CaptureInput) bool {
		return input.OwnerID == "owner-456" && input.SourceURL == "https://example.com/post"
	})).Return(expected, nil)

	body := `{"source_url":"https://example.com/post","title":"Test Record","note":"worth a read"}`
	req := requestWithOwnerID(http.MethodPost, "/records", []byte(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler.Capture(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "rec-123", data["id"])
	assert.Equal(t, "pending", data["status"])
	mockSvc.AssertExpectations(t)
}

func TestRecordHandler_Capture_Unauthorized(t *testing.T) {
	mockSvc := new(MockRecordService)
	handler := NewRecordHandler(mockSvc)

	body := `{"source_url":"https://example.com/post"}`
	req := httptest.NewRequest(http.MethodPost, "/records", bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()

	handler.Capture(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRecordHandler_Capture_InvalidJSON(t *testing.T) {
	mockSvc := new(MockRecordService)
	handler := NewRecordHandler(mockSvc)

	req := requestWithOwnerID(http.MethodPost, "/records", []byte(`{invalid`))
	w := httptest.NewRecorder()

	handler.Capture(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecordHandler_Capture_MissingSource(t *testing.T) {
	mockSvc := new(MockRecordService)
	handler := NewRecordHandler(mockSvc)

	req := requestWithOwnerID(http.MethodPost, "/records", []byte(`{"title":"No source"}`))
	w := httptest.NewRecorder()

	handler.Capture(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "source_url or document_key")
	mockSvc.AssertNotCalled(t, "Capture", mock.Anything, mock.Anything)
}

func TestRecordHandler_Get_Success(t *testing.T) {
	mockSvc := new(MockRecordService)
	handler := NewRecordHandler(mockSvc)

	expected := newTestRecord()
	mockSvc.On("Get", mock.Anything, "owner-456", "rec-123").Return(expected, nil)

	req := requestWithOwnerID(http.MethodGet, "/records/rec-123", nil)
	req = withURLParam(req, "id", "rec-123")
	w := httptest.NewRecorder()

	handler.Get(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestRecordHandler_Get_NotFound(t *testing.T) {
	mockSvc := new(MockRecordService)
	handler := NewRecordHandler(mockSvc)

	mockSvc.On("Get", mock.Anything, "owner-456", "rec-999").Return(nil, domain.ErrRecordNotFound)

	req := requestWithOwnerID(http.MethodGet, "/records/rec-999", nil)
	req = withURLParam(req, "id", "rec-999")
	w := httptest.NewRecorder()

	handler.Get(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecordHandler_List_Success(t *testing.T) {
	mockSvc := new(MockRecordService)
	handler := NewRecordHandler(mockSvc)

	output := &service.ListRecordsOutput{
		Items:   []*domain.KnowledgeRecord{newTestRecord()},
		Cursor:  "next-cursor",
		HasMore: true,
	}
	mockSvc.On("List", mock.Anything, mock.MatchedBy(func(input service.ListRecordsInput) bool {
		return input.OwnerID == "owner-456" && input.Limit == 5
	})).Return(output, nil)

	req := requestWithOwnerID(http.MethodGet, "/records?limit=5", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "next-cursor", data["cursor"])
	assert.Equal(t, true, data["has_more"])
	mockSvc.AssertExpectations(t)
}

func TestRecordHandler_Annotate_Success(t *testing.T) {
	mockSvc := new(MockRecordService)
	handler := NewRecordHandler(mockSvc)

	annotated := newTestRecord()
	annotated.Annotations = domain.Annotations{Note: "updated note", Highlights: []int{0, 2}}

	mockSvc.On("Annotate", mock.Anything, "owner-456", "rec-123", domain.Annotations{
		Note:       "updated note",
		Highlights: []int{0, 2},
	}).Return(nil)
	mockSvc.On("Get", mock.Anything, "owner-456", "rec-123").Return(annotated, nil)

	body := `{"note":"updated note","highlights":[0,2]}`
	req := requestWithOwnerID(http.MethodPut, "/records/rec-123/annotations", []byte(body))
	req = withURLParam(req, "id", "rec-123")
	w := httptest.NewRecorder()

	handler.Annotate(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "updated note")
	mockSvc.AssertExpectations(t)
}

func TestRecordHandler_Archive_Success(t *testing.T) {
	mockSvc := new(MockRecordService)
	handler := NewRecordHandler(mockSvc)

	archived := newTestRecord()
	archived.Status = domain.RecordStatusArchived

	mockSvc.On("Archive", mock.Anything, "owner-456", "rec-123").Return(nil)
	mockSvc.On("Get", mock.Anything, "owner-456", "rec-123").Return(archived, nil)

	req := requestWithOwnerID(http.MethodPost, "/records/rec-123/archive", nil)
	req = withURLParam(req, "id", "rec-123")
	w := httptest.NewRecorder()

	handler.Archive(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "archived")
	mockSvc.AssertExpectations(t)
}

func TestRecordHandler_Discard_NotFound(t *testing.T) {
	mockSvc := new(MockRecordService)
	handler := NewRecordHandler(mockSvc)

	mockSvc.On("Discard", mock.Anything, "owner-456", "rec-999").Return(domain.ErrRecordNotFound)

	req := requestWithOwnerID(http.MethodPost, "/records/rec-999/discard", nil)
	req = withURLParam(req, "id", "rec-999")
	w := httptest.NewRecorder()

	handler.Discard(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
