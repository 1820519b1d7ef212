// Package mpesa is a client for the Safaricom Daraja API. It handles OAuth
// token acquisition and caching, and submits B2C payment requests.
package mpesa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/ChangoHQ/chango_backend/internal/apperrors"
	"github.com/ChangoHQ/chango_backend/internal/core/domain"
	portssvc "github.com/ChangoHQ/chango_backend/internal/core/ports/services"
	"golang.org/x/sync/singleflight"
)

// Config carries the credentials and endpoints for one Daraja app.
type Config struct {
	BaseURL            string
	ConsumerKey        string
	ConsumerSecret     string
	InitiatorName      string
	SecurityCredential string
	Shortcode          string
	ResultURL          string
	TimeoutURL         string
}

// Client is a client for the Daraja B2C API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
	refresh     singleflight.Group
}

// NewClient creates a new Daraja API client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		cfg:    cfg,
		logger: logger,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

var _ portssvc.PayoutClient = (*Client)(nil)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"` // Seconds, sent as a string
}

type b2cRequest struct {
	OriginatorConversationID string `json:"OriginatorConversationID"`
	InitiatorName            string `json:"InitiatorName"`
	SecurityCredential       string `json:"SecurityCredential"`
	CommandID                string `json:"CommandID"`
	Amount                   string `json:"Amount"`
	PartyA                   string `json:"PartyA"`
	PartyB                   string `json:"PartyB"`
	Remarks                  string `json:"Remarks"`
	QueueTimeOutURL          string `json:"QueueTimeOutURL"`
	ResultURL                string `json:"ResultURL"`
	Occassion                string `json:"Occassion,omitempty"` // Spelled per the API
}

type b2cResponse struct {
	ConversationID           string `json:"ConversationID"`
	OriginatorConversationID string `json:"OriginatorConversationID"`
	ResponseCode             string `json:"ResponseCode"`
	ResponseDescription      string `json:"ResponseDescription"`
}

// SubmitPayout submits a B2C payment request. The synchronous response only
// acknowledges queueing; the outcome arrives on the result or timeout
// callback URLs.
func (c *Client) SubmitPayout(ctx context.Context, req domain.PayoutRequest) (*domain.PayoutSubmission, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrProviderSubmission, err)
	}

	body := b2cRequest{
		OriginatorConversationID: req.OriginatorID,
		InitiatorName:            c.cfg.InitiatorName,
		SecurityCredential:       c.cfg.SecurityCredential,
		CommandID:                string(req.Reason),
		Amount:                   req.Amount.String(),
		PartyA:                   c.cfg.Shortcode,
		PartyB:                   req.Phone,
		Remarks:                  req.Remarks,
		QueueTimeOutURL:          c.cfg.TimeoutURL,
		ResultURL:                c.cfg.ResultURL,
	}

	var resp b2cResponse
	if err := c.do(ctx, http.MethodPost, c.cfg.BaseURL+"/mpesa/b2c/v1/paymentrequest", token, body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrProviderSubmission, err)
	}

	if resp.ResponseCode != "0" {
		return nil, fmt.Errorf("%w: provider rejected request: code %s: %s", apperrors.ErrProviderSubmission, resp.ResponseCode, resp.ResponseDescription)
	}

	c.logger.Info("B2C payout accepted by provider",
		slog.String("conversation_id", resp.ConversationID),
		slog.String("originator_conversation_id", resp.OriginatorConversationID))

	return &domain.PayoutSubmission{
		ConversationID:           resp.ConversationID,
		OriginatorConversationID: resp.OriginatorConversationID,
		ResponseCode:             resp.ResponseCode,
		ResponseDescription:      resp.ResponseDescription,
	}, nil
}

// token returns a cached OAuth access token, fetching a fresh one when the
// cached token is within a minute of expiry. The fetch happens outside the
// cache lock and concurrent refreshes collapse into one request, so parallel
// payout submissions never queue behind the token round-trip.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.accessToken != "" && time.Now().Before(c.tokenExpiry.Add(-time.Minute)) {
		token := c.accessToken
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	v, err, _ := c.refresh.Do("token", func() (interface{}, error) {
		token, expiry, err := c.fetchToken(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.accessToken = token
		c.tokenExpiry = expiry
		c.mu.Unlock()
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// fetchToken performs the client-credentials exchange.
func (c *Client) fetchToken(ctx context.Context) (string, time.Time, error) {
	url := c.cfg.BaseURL + "/oauth/v1/generate?grant_type=client_credentials"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to create token request: %w", err)
	}
	req.SetBasicAuth(c.cfg.ConsumerKey, c.cfg.ConsumerSecret)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", time.Time{}, fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var tok tokenResponse
	if err := json.Unmarshal(respBody, &tok); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to unmarshal token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", time.Time{}, fmt.Errorf("token endpoint returned empty access token")
	}

	ttl, err := strconv.Atoi(tok.ExpiresIn)
	if err != nil || ttl <= 0 {
		ttl = 3600
	}

	return tok.AccessToken, time.Now().Add(time.Duration(ttl) * time.Second), nil
}

// do makes an authenticated JSON request against the Daraja API.
func (c *Client) do(ctx context.Context, method, url, token string, body, target interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("Daraja API returned non-success status",
			slog.Int("status", resp.StatusCode),
			slog.String("url", url))
		return fmt.Errorf("daraja API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	if target != nil {
		if err := json.Unmarshal(respBody, target); err != nil {
			return fmt.Errorf("failed to unmarshal response body: %w", err)
		}
	}
	return nil
}
