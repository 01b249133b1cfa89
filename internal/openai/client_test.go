package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockOpenAIAPI is a mock for the OpenAI API
type MockOpenAIAPI struct {
	mock.Mock
}

func (m *MockOpenAIAPI) CreateEmbeddings(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func (m *MockOpenAIAPI) CreateCompletion(ctx context.Context, system, user string, jsonMode bool) (string, error) {
	args := m.Called(ctx, system, user, jsonMode)
	return args.String(0), args.Error(1)
}

func (m *MockOpenAIAPI) CreateVisionCompletion(ctx context.Context, prompt, imageURL string) (string, error) {
	args := m.Called(ctx, prompt, imageURL)
	return args.String(0), args.Error(1)
}

func TestClient_GenerateEmbedding_Success(t *testing.T) {
	mockAPI := new(MockOpenAIAPI)
	client := &Client{embeddings: mockAPI}

	ctx := context.Background()
	text := "This is a test document about Go programming."
	expectedEmbedding := make([]float32, 1536)
	for i := range expectedEmbedding {
		expectedEmbedding[i] = float32(i) * 0.001
	}

	mockAPI.On("CreateEmbeddings", ctx, text).Return(expectedEmbedding, nil)

	embedding, err := client.GenerateEmbedding(ctx, text)

	assert.NoError(t, err)
	assert.Len(t, embedding, 1536)
	assert.Equal(t, expectedEmbedding, embedding)
	mockAPI.AssertExpectations(t)
}

func TestClient_GenerateEmbedding_EmptyText(t *testing.T) {
	client := NewClient("")

	ctx := context.Background()
	embedding, err := client.GenerateEmbedding(ctx, "")

	assert.Error(t, err)
	assert.Nil(t, embedding)
	assert.Equal(t, ErrEmptyText, err)
}

func TestClient_GenerateEmbedding_APIError(t *testing.T) {
	mockAPI := new(MockOpenAIAPI)
	client := &Client{embeddings: mockAPI}

	ctx := context.Background()
	text := "Test text"
	apiErr := errors.New("API rate limit exceeded")

	mockAPI.On("CreateEmbeddings", ctx, text).Return(nil, apiErr)

	embedding, err := client.GenerateEmbedding(ctx, text)

	assert.Error(t, err)
	assert.Nil(t, embedding)
	assert.Contains(t, err.Error(), "failed to create embedding")
	mockAPI.AssertExpectations(t)
}

func TestNewClient(t *testing.T) {
	apiKey := "test-api-key"
	client := NewClient(apiKey)

	assert.NotNil(t, client)
	assert.NotNil(t, client.embeddings)
	assert.NotNil(t, client.completions)
}

func TestClient_GenerateEmbedding_WrongDimensions(t *testing.T) {
	mockAPI := new(MockOpenAIAPI)
	client := &Client{embeddings: mockAPI}

	ctx := context.Background()
	text := "Test text"
	// Return embedding with wrong dimensions
	wrongEmbedding := make([]float32, 512)

	mockAPI.On("CreateEmbeddings", ctx, text).Return(wrongEmbedding, nil)

	embedding, err := client.GenerateEmbedding(ctx, text)

	assert.Error(t, err)
	assert.Nil(t, embedding)
	assert.Equal(t, ErrWrongDimensions, err)
	mockAPI.AssertExpectations(t)
}

func TestClient_CompleteJSON_Success(t *testing.T) {
	mockAPI := new(MockOpenAIAPI)
	client := &Client{completions: mockAPI}

	ctx := context.Background()
	mockAPI.On("CreateCompletion", ctx, "extract", "some content", true).
		Return(`{"title":"ok"}`, nil)

	out, err := client.CompleteJSON(ctx, "extract", "some content")

	assert.NoError(t, err)
	assert.Equal(t, `{"title":"ok"}`, out)
	mockAPI.AssertExpectations(t)
}

func TestClient_CompleteJSON_EmptyInput(t *testing.T) {
	client := NewClient("")

	out, err := client.CompleteJSON(context.Background(), "extract", "")

	assert.Error(t, err)
	assert.Empty(t, out)
	assert.Equal(t, ErrEmptyText, err)
}

func TestClient_Complete_APIError(t *testing.T) {
	mockAPI := new(MockOpenAIAPI)
	client := &Client{completions: mockAPI}

	ctx := context.Background()
	mockAPI.On("CreateCompletion", ctx, "answer", "question", false).
		Return("", errors.New("model overloaded"))

	out, err := client.Complete(ctx, "answer", "question")

	assert.Error(t, err)
	assert.Empty(t, out)
	assert.Contains(t, err.Error(), "failed to create completion")
	mockAPI.AssertExpectations(t)
}

func TestClient_DescribeImage_Success(t *testing.T) {
	mockAPI := new(MockOpenAIAPI)
	client := &Client{completions: mockAPI}

	ctx := context.Background()
	mockAPI.On("CreateVisionCompletion", ctx, "describe this chart", "https://cdn.example.com/a.png").
		Return("A bar chart comparing deployment frequency.", nil)

	out, err := client.DescribeImage(ctx, "describe this chart", "https://cdn.example.com/a.png")

	assert.NoError(t, err)
	assert.Equal(t, "A bar chart comparing deployment frequency.", out)
	mockAPI.AssertExpectations(t)
}

func TestClient_DescribeImage_EmptyURL(t *testing.T) {
	client := NewClient("")

	out, err := client.DescribeImage(context.Background(), "describe", "")

	assert.Error(t, err)
	assert.Empty(t, out)
	assert.Equal(t, ErrEmptyText, err)
}

func TestNewClientFromEnv_NoAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	client, err := NewClientFromEnv()

	assert.Nil(t, client)
	assert.Error(t, err)
	assert.Equal(t, ErrNoAPIKey, err)
}

func TestNewClientFromEnv_WithAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-api-key")

	client, err := NewClientFromEnv()

	assert.NotNil(t, client)
	assert.NoError(t, err)
}
