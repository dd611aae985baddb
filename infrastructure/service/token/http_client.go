// Package token implements the external token-ledger collaborator. The HTTP
// client talks to a bridge exposing transferFrom/transfer/balanceOf; the mock
// client keeps token balances in memory for tests and local development.
package token

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/commitpool/commitpool/application/port/outbound"
	"github.com/commitpool/commitpool/infrastructure/service/logger"
)

// HTTPClient calls a token bridge over HTTP. Any transport or decode failure
// maps to TransferUnreachable so the engine sees a closed result set.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.Logger
}

// NewHTTPClient creates a bridge client with the given request timeout.
func NewHTTPClient(baseURL string, timeout time.Duration, log logger.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
	}
}

type transferRequest struct {
	From   string `json:"from,omitempty"`
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}

type transferResponse struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

type balanceResponse struct {
	Address string `json:"address"`
	Amount  int64  `json:"amount"`
}

func (c *HTTPClient) TransferFrom(ctx context.Context, from, to string, amount int64) outbound.TransferResult {
	return c.post(ctx, "/v1/transfer-from", transferRequest{From: from, To: to, Amount: amount})
}

func (c *HTTPClient) Transfer(ctx context.Context, to string, amount int64) outbound.TransferResult {
	return c.post(ctx, "/v1/transfer", transferRequest{To: to, Amount: amount})
}

func (c *HTTPClient) BalanceOf(ctx context.Context, address string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/balance/"+address, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create balance request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("token bridge request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("token bridge returned status %d", resp.StatusCode)
	}

	var body balanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("failed to decode balance response: %w", err)
	}
	return body.Amount, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, payload transferRequest) outbound.TransferResult {
	raw, err := json.Marshal(payload)
	if err != nil {
		return outbound.TransferResult{Status: outbound.TransferUnreachable, Reason: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return outbound.TransferResult{Status: outbound.TransferUnreachable, Reason: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn(ctx, "token bridge request failed", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		return outbound.TransferResult{Status: outbound.TransferUnreachable, Reason: err.Error()}
	}
	defer resp.Body.Close()

	var body transferResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return outbound.TransferResult{Status: outbound.TransferUnreachable, Reason: err.Error()}
	}

	if resp.StatusCode != http.StatusOK || !body.OK {
		reason := body.Reason
		if reason == "" {
			reason = fmt.Sprintf("bridge returned status %d", resp.StatusCode)
		}
		return outbound.TransferResult{Status: outbound.TransferRejected, Reason: reason}
	}
	return outbound.TransferResult{Status: outbound.TransferOK}
}
