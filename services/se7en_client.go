package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const redeemTimeout = 10 * time.Second

// RedemptionGateway settles token redemptions against the se7en treasury
// service.
type RedemptionGateway interface {
	// Redeem posts a redemption request and returns the decoded response
	// body together with the upstream HTTP status code. Transport and
	// timeout failures come back as *GatewayError.
	Redeem(ctx context.Context, holderID string, tokens any) (map[string]any, int, error)
}

// Se7enClient is the HTTP RedemptionGateway implementation.
type Se7enClient struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewSe7enClient creates a client for the se7en service at baseURL.
func NewSe7enClient(baseURL string, log zerolog.Logger) *Se7enClient {
	return &Se7enClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: redeemTimeout,
		},
		log: log,
	}
}

// Redeem implements RedemptionGateway. Any non-exceptional HTTP response is
// passed through unmodified, whatever its status code; only transport
// failures and undecodable bodies become errors.
func (c *Se7enClient) Redeem(ctx context.Context, holderID string, tokens any) (map[string]any, int, error) {
	payload, err := json.Marshal(map[string]any{
		"holderId": holderID,
		"tokens":   tokens,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("marshal redemption request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/treasury/redeem", bytes.NewReader(payload))
	if err != nil {
		return nil, 0, fmt.Errorf("create redemption request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, &GatewayError{Err: err}
	}
	defer resp.Body.Close()

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		return nil, 0, &GatewayError{Err: fmt.Errorf("decode redemption response: %w", err)}
	}

	c.log.Debug().
		Str("holderId", holderID).
		Int("status", resp.StatusCode).
		Msg("se7en redemption response")

	return body, resp.StatusCode, nil
}
