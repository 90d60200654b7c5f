// Package ledger is the HTTP client for the external double-entry ledger
// that receives finalised transactions.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kvashee/bankfeed/pkg/models"
)

// ErrRejected is returned when the ledger refuses a transaction (a
// validation failure on its side). Rejections are never retried; the
// message stays unprocessed and surfaces in the run result.
var ErrRejected = errors.New("ledger rejected transaction")

// Client is a ledger API client
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Config for the ledger client
type Config struct {
	BaseURL string // e.g., https://ledger.example.com
	Token   string // bearer token
	Timeout time.Duration
}

type createRequest struct {
	UserID   int64            `json:"user_id"`
	Date     string           `json:"date"`
	Payee    string           `json:"payee"`
	Postings []models.Posting `json:"postings"`
}

type createResponse struct {
	TransactionID string `json:"transaction_id"`
	Error         string `json:"error,omitempty"`
}

// NewClient creates a new ledger API client
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Submit creates a transaction in the ledger and returns its id. A 4xx
// response means the ledger rejected the candidate (ErrRejected); other
// failures are transport errors.
func (c *Client) Submit(ctx context.Context, userID int64, candidate *models.Candidate) (string, error) {
	req := createRequest{
		UserID:   userID,
		Date:     candidate.Date.Format("2006-01-02"),
		Payee:    candidate.Payee,
		Postings: candidate.Postings,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/transactions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		var apiResp createResponse
		if err := json.Unmarshal(respBody, &apiResp); err == nil && apiResp.Error != "" {
			return "", fmt.Errorf("%w: %s", ErrRejected, apiResp.Error)
		}
		return "", fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("ledger API error: %s (status %d)", string(respBody), resp.StatusCode)
	}

	var apiResp createResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w (body: %s)", err, string(respBody))
	}
	if apiResp.TransactionID == "" {
		return "", fmt.Errorf("ledger returned no transaction id")
	}

	return apiResp.TransactionID, nil
}
