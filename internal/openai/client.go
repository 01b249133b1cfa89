package openai

import (
	"context"
	"errors"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultEmbeddingModel is the OpenAI model used for generating embeddings
	DefaultEmbeddingModel = openai.AdaEmbeddingV2
	// DefaultEmbeddingDimensions is the expected dimension of embeddings from ada-002
	DefaultEmbeddingDimensions = 1536
	// DefaultCompletionModel is the OpenAI model used for text generation
	DefaultCompletionModel = openai.GPT4oMini
	// DefaultVisionModel is the OpenAI model used for image understanding
	DefaultVisionModel = openai.GPT4o
)

var (
	// ErrEmptyText is returned when text is empty
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrWrongDimensions is returned when embedding has wrong dimensions
	ErrWrongDimensions = errors.New("embedding has wrong dimensions, expected 1536")
	// ErrNoAPIKey is returned when OpenAI API key is not set
	ErrNoAPIKey = errors.New("OPENAI_API_KEY environment variable not set")
	// ErrEmptyCompletion is returned when the model returns no choices
	ErrEmptyCompletion = errors.New("completion returned no choices")
)

// EmbeddingAPI defines the interface for embedding generation
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, text string) ([]float32, error)
}

// CompletionAPI defines the interface for chat and vision completions
type CompletionAPI interface {
	CreateCompletion(ctx context.Context, system, user string, jsonMode bool) (string, error)
	CreateVisionCompletion(ctx context.Context, prompt, imageURL string) (string, error)
}

// Client wraps the OpenAI API client
type Client struct {
	embeddings  EmbeddingAPI
	completions CompletionAPI
	dimensions  int
}

type OpenAIAdapter struct {
	client          *openai.Client
	embeddingModel  openai.EmbeddingModel
	completionModel string
	visionModel     string
}

func NewOpenAIAdapter(apiKey string, model openai.EmbeddingModel) *OpenAIAdapter {
	if model == "" {
		model = DefaultEmbeddingModel
	}
	return &OpenAIAdapter{
		client:          openai.NewClient(apiKey),
		embeddingModel:  model,
		completionModel: DefaultCompletionModel,
		visionModel:     DefaultVisionModel,
	}
}

// CreateEmbeddings calls the OpenAI API to create embeddings
func (a *OpenAIAdapter) CreateEmbeddings(ctx context.Context, text string) ([]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: a.embeddingModel,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 {
		return nil, errors.New("no embedding data returned")
	}

	return resp.Data[0].Embedding, nil
}

// CreateCompletion calls the OpenAI chat API. With jsonMode set the model is
// constrained to emit a single JSON object.
func (a *OpenAIAdapter) CreateCompletion(ctx context.Context, system, user string, jsonMode bool) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: a.completionModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	return resp.Choices[0].Message.Content, nil
}

// CreateVisionCompletion sends an image URL plus a prompt to the vision model
func (a *OpenAIAdapter) CreateVisionCompletion(ctx context.Context, prompt, imageURL string) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.visionModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    imageURL,
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	return resp.Choices[0].Message.Content, nil
}

type Config struct {
	APIKey              string
	EmbeddingModel      openai.EmbeddingModel
	EmbeddingDimensions int
}

// NewClient creates a new OpenAI client using defaults.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(Config{APIKey: apiKey})
}

// NewClientWithConfig creates a new OpenAI client with explicit configuration.
func NewClientWithConfig(cfg Config) *Client {
	dimensions := cfg.EmbeddingDimensions
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	adapter := NewOpenAIAdapter(cfg.APIKey, cfg.EmbeddingModel)
	return &Client{
		embeddings:  adapter,
		completions: adapter,
		dimensions:  dimensions,
	}
}

// NewClientFromEnv creates a new OpenAI client using OPENAI_API_KEY environment variable
func NewClientFromEnv() (*Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return NewClient(apiKey), nil
}

// GenerateEmbedding generates an embedding for the given text
func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	embedding, err := c.embeddings.CreateEmbeddings(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}

	expected := c.dimensions
	if expected <= 0 {
		expected = DefaultEmbeddingDimensions
	}
	if len(embedding) != expected {
		return nil, ErrWrongDimensions
	}

	return embedding, nil
}

// Complete generates a free-form completion
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	if user == "" {
		return "", ErrEmptyText
	}

	out, err := c.completions.CreateCompletion(ctx, system, user, false)
	if err != nil {
		return "", fmt.Errorf("failed to create completion: %w", err)
	}
	return out, nil
}

// CompleteJSON generates a completion constrained to a single JSON object
func (c *Client) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	if user == "" {
		return "", ErrEmptyText
	}

	out, err := c.completions.CreateCompletion(ctx, system, user, true)
	if err != nil {
		return "", fmt.Errorf("failed to create json completion: %w", err)
	}
	return out, nil
}

const readURLSystemPrompt = `You read remote resources (web pages, videos, documents) and return their
textual content. Follow the instruction exactly. Output plain text only.`

// ReadURL asks the model to open the resource behind the URL and return its
// textual content according to the instruction.
func (c *Client) ReadURL(ctx context.Context, url, instruction string) (string, error) {
	if url == "" {
		return "", ErrEmptyText
	}

	user := fmt.Sprintf("%s\n\nURL: %s", instruction, url)
	out, err := c.completions.CreateCompletion(ctx, readURLSystemPrompt, user, false)
	if err != nil {
		return "", fmt.Errorf("failed to read url: %w", err)
	}
	return out, nil
}

// DescribeImage asks the vision model about the image behind the given URL
func (c *Client) DescribeImage(ctx context.Context, prompt, imageURL string) (string, error) {
	if imageURL == "" {
		return "", ErrEmptyText
	}

	out, err := c.completions.CreateVisionCompletion(ctx, prompt, imageURL)
	if err != nil {
		return "", fmt.Errorf("failed to create vision completion: %w", err)
	}
	return out, nil
}
