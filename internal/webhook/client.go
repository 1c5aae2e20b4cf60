// Package webhook delivers run-status notifications to the external
// automation endpoint. Delivery is fire-and-forget: failures are logged
// and counted, never propagated into the pipeline.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"catalog-service/pkg/config"
)

// Status is the run status reported to the external endpoint.
type Status string

const (
	StatusComplete   Status = "complete"
	StatusError      Status = "error"
	StatusInProgress Status = "in_progress"
)

// Payload is the notification body.
type Payload struct {
	ID     int    `json:"id"`
	Status Status `json:"status"`
}

// Client posts catalog upload status notifications.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a webhook client from configuration
func NewClient(cfg config.WebhookConfig) *Client {
	return &Client{
		baseURL:    cfg.URL,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify posts the run status. A client with no configured URL is a
// no-op, so local environments work without an endpoint.
func (c *Client) Notify(ctx context.Context, status Status) error {
	if c.baseURL == "" {
		return nil
	}

	body, err := json.Marshal(Payload{ID: 0, Status: status})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	url := c.baseURL + "/webhook/catalog-upload-status"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
