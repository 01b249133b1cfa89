// Package messaging delivers rendered distribution messages to the team
// channel over an incoming webhook. Delivery is single-shot: a failed POST
// is reported to the caller, never retried.
package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/curiolabs/curio/internal/render"
)

// WebhookMessage is the Slack-compatible block payload
type WebhookMessage struct {
	Text   string  `json:"text,omitempty"`
	Blocks []Block `json:"blocks,omitempty"`
}

// Block is one block kit element
type Block struct {
	Type     string    `json:"type"`
	Text     *Text     `json:"text,omitempty"`
	ImageURL string    `json:"image_url,omitempty"`
	AltText  string    `json:"alt_text,omitempty"`
	Elements []Element `json:"elements,omitempty"`
}

// Text is formatted text inside a block
type Text struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Element is an interactive element, used here for the link action
type Element struct {
	Type string `json:"type"`
	Text *Text  `json:"text,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Deliverer posts messages to the team channel
type Deliverer interface {
	Deliver(ctx context.Context, msg render.Message) error
}

// WebhookClient delivers messages to a single incoming-webhook URL
type WebhookClient struct {
	webhookURL string
	httpClient *http.Client
}

// NewWebhookClient creates a WebhookClient
func NewWebhookClient(webhookURL string, timeout time.Duration) *WebhookClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &WebhookClient{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// BuildPayload converts a rendered message into webhook blocks. Kept
// separate from delivery so payload construction stays testable offline.
func BuildPayload(msg render.Message) *WebhookMessage {
	blocks := []Block{
		{
			Type: "header",
			Text: &Text{Type: "plain_text", Text: msg.Title},
		},
	}

	if msg.ImageURL != "" {
		blocks = append(blocks, Block{
			Type:     "image",
			ImageURL: msg.ImageURL,
			AltText:  msg.Title,
		})
	}

	blocks = append(blocks, Block{
		Type: "section",
		Text: &Text{Type: "mrkdwn", Text: msg.Body},
	})

	if msg.LinkURL != "" {
		blocks = append(blocks, Block{
			Type: "actions",
			Elements: []Element{
				{
					Type: "button",
					Text: &Text{Type: "plain_text", Text: "Open source"},
					URL:  msg.LinkURL,
				},
			},
		})
	}

	return &WebhookMessage{
		Text:   msg.Title,
		Blocks: blocks,
	}
}

// Deliver posts the message to the configured webhook
func (c *WebhookClient) Deliver(ctx context.Context, msg render.Message) error {
	if c.webhookURL == "" {
		return fmt.Errorf("webhook URL not configured")
	}

	jsonData, err := json.Marshal(BuildPayload(msg))
	if err != nil {
		return fmt.Errorf("failed to marshal webhook message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
