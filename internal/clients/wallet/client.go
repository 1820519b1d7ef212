// Package wallet delivers ledger events to the wallet system's webhook.
package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ChangoHQ/chango_backend/internal/core/domain"
	portssvc "github.com/ChangoHQ/chango_backend/internal/core/ports/services"
)

// Client posts ledger events to a single webhook URL.
type Client struct {
	webhookURL string
	httpClient *http.Client
}

// NewClient creates a new wallet webhook client.
func NewClient(webhookURL string) *Client {
	return &Client{
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

var _ portssvc.WebhookPoster = (*Client)(nil)

// Post delivers one ledger event. Delivery is best effort; the caller decides
// whether a failure matters.
func (c *Client) Post(ctx context.Context, event domain.LedgerEvent) error {
	jsonBody, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
