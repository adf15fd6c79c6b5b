package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	irrmodels "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Models"
)

// APIClient forwards bridged telemetry into the API service's ingestion
// endpoint. Calls go through a circuit breaker so a dead API service does
// not pile up retries, and each attempt is retried with exponential backoff.
type APIClient struct {
	baseURL     string
	httpClient  *http.Client
	deviceToken string
	breaker     *gobreaker.CircuitBreaker
	maxElapsed  time.Duration
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL, deviceToken string) *APIClient {
	settings := gobreaker.Settings{
		Name:    "api-service",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &APIClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		deviceToken: deviceToken,
		breaker:     gobreaker.NewCircuitBreaker(settings),
		maxElapsed:  15 * time.Second,
	}
}

// PostTelemetry forwards one reading and returns the authoritative pump
// state from the response.
func (c *APIClient) PostTelemetry(ctx context.Context, req irrmodels.TelemetryRequest) (*irrmodels.TelemetryResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal telemetry: %w", err)
	}

	var resp *irrmodels.TelemetryResponse
	operation := func() error {
		result, err := c.breaker.Execute(func() (interface{}, error) {
			return c.doPost(ctx, "/api/telemetry", body)
		})
		if err != nil {
			return err
		}
		resp = result.(*irrmodels.TelemetryResponse)
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = c.maxElapsed
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	return resp, nil
}

// Health checks the API service's health endpoint.
func (c *APIClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("api service unhealthy: %s", resp.Status)
	}
	return nil
}

// BreakerState reports the circuit breaker state for the health endpoint.
func (c *APIClient) BreakerState() string {
	return c.breaker.State().String()
}

func (c *APIClient) doPost(ctx context.Context, path string, body []byte) (*irrmodels.TelemetryResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.deviceToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
		var out irrmodels.TelemetryResponse
		if err := json.Unmarshal(payload, &out); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		return &out, nil
	case http.StatusUnauthorized:
		// Misconfigured credential: retrying cannot help, but the breaker
		// should still see the failure.
		return nil, backoff.Permanent(fmt.Errorf("api service rejected credential"))
	case http.StatusBadRequest:
		return nil, backoff.Permanent(fmt.Errorf("api service rejected payload: %s", string(payload)))
	default:
		return nil, fmt.Errorf("api service returned %s", resp.Status)
	}
}
