package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/curiolabs/curio/internal/domain"
	"github.com/curiolabs/curio/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockIngestService struct {
	mock.Mock
}

func (m *MockIngestService) ProcessBatch(ctx context.Context, ownerID string, limit int) (*service.BatchResult, error) {
	args := m.Called(ctx, ownerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BatchResult), args.Error(1)
}

func (m *MockIngestService) StartProcessAll(ctx context.Context, ownerID string) (*domain.IngestJob, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IngestJob), args.Error(1)
}

func (m *MockIngestService) GetJob(ctx context.Context, ownerID, jobID string) (*domain.IngestJob, error) {
	args := m.Called(ctx, ownerID, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IngestJob), args.Error(1)
}

func TestIngestHandler_ProcessBatch_Success(t *testing.T) {
	mockSvc := new(MockIngestService)
	handler := NewIngestHandler(mockSvc)

	result := &service.BatchResult{Processed: 3, Failed: 1, Errors: []string{"rec-bad: embedding generation failed"}}
	mockSvc.On("ProcessBatch", mock.Anything, "owner-456", 10).Return(result, nil)

	req := requestWithOwnerID(http.MethodPost, "/ingest/process", []byte(`{"limit":10}`))
	w := httptest.NewRecorder()

	handler.ProcessBatch(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(3), data["processed"])
	assert.Equal(t, float64(1), data["failed"])
	mockSvc.AssertExpectations(t)
}

func TestIngestHandler_ProcessBatch_EmptyBodyUsesDefault(t *testing.T) {
	mockSvc := new(MockIngestService)
	handler := NewIngestHandler(mockSvc)

	mockSvc.On("ProcessBatch", mock.Anything, "owner-456", 0).Return(&service.BatchResult{}, nil)

	req := requestWithOwnerID(http.MethodPost, "/ingest/process", nil)
	w := httptest.NewRecorder()

	handler.ProcessBatch(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestIngestHandler_ProcessBatch_Unauthorized(t *testing.T) {
	mockSvc := new(MockIngestService)
	handler := NewIngestHandler(mockSvc)

	req := httptest.NewRequest(http.MethodPost, "/ingest/process", nil)
	w := httptest.NewRecorder()

	handler.ProcessBatch(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIngestHandler_ProcessAll_Accepted(t *testing.T) {
	mockSvc := new(MockIngestService)
	handler := NewIngestHandler(mockSvc)

	job := domain.NewIngestJob("job-1", "owner-456", time.Now().UTC())
	job.Total = 12
	mockSvc.On("StartProcessAll", mock.Anything, "owner-456").Return(job, nil)

	req := requestWithOwnerID(http.MethodPost, "/ingest/process-all", nil)
	w := httptest.NewRecorder()

	handler.ProcessAll(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "job-1", data["id"])
	assert.Equal(t, "pending", data["status"])
	assert.Equal(t, float64(12), data["total"])
	mockSvc.AssertExpectations(t)
}

func TestIngestHandler_GetJob_Success(t *testing.T) {
	mockSvc := new(MockIngestService)
	handler := NewIngestHandler(mockSvc)

	job := domain.NewIngestJob("job-1", "owner-456", time.Now().UTC())
	job.Status = domain.IngestJobStatusRunning
	job.Total = 10
	job.Processed = 4
	mockSvc.On("GetJob", mock.Anything, "owner-456", "job-1").Return(job, nil)

	req := requestWithOwnerID(http.MethodGet, "/ingest/jobs/job-1", nil)
	req = withURLParam(req, "id", "job-1")
	w := httptest.NewRecorder()

	handler.GetJob(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "running", data["status"])
	assert.Equal(t, float64(4), data["processed"])
	mockSvc.AssertExpectations(t)
}

func TestIngestHandler_GetJob_NotFound(t *testing.T) {
	mockSvc := new(MockIngestService)
	handler := NewIngestHandler(mockSvc)

	mockSvc.On("GetJob", mock.Anything, "owner-456", "job-999").Return(nil, domain.ErrIngestJobNotFound)

	req := requestWithOwnerID(http.MethodGet, "/ingest/jobs/job-999", nil)
	req = withURLParam(req, "id", "job-999")
	w := httptest.NewRecorder()

	handler.GetJob(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
