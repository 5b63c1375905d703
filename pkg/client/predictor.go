// Package client provides an HTTP client for the climacast server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// PredictorClient calls the climacast HTTP API.
// It is safe for concurrent use by multiple goroutines.
type PredictorClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewPredictorClient creates a client for baseURL (e.g. "http://localhost:8080")
// with a 5 second request timeout.
func NewPredictorClient(baseURL string) *PredictorClient {
	return NewPredictorClientWithTimeout(baseURL, 5*time.Second)
}

// NewPredictorClientWithTimeout creates a client with a custom timeout.
func NewPredictorClientWithTimeout(baseURL string, timeout time.Duration) *PredictorClient {
	return &PredictorClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// PredictResponse is the body of a successful POST /predict.
type PredictResponse struct {
	Prediction float64 `json:"prediction"`
}

// ModelInfo is the body of GET /model.
type ModelInfo struct {
	Model     string   `json:"model"`
	Features  []string `json:"features"`
	Target    string   `json:"target"`
	RunID     string   `json:"run_id"`
	Source    string   `json:"source"`
	MeanError float64  `json:"mean_error"`
}

// APIError is a non-2xx reply from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// IsBadRequest reports whether err is a 400 reply, i.e. rejected input.
func IsBadRequest(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest
}

// Predict posts a feature record and returns the prediction.
func (c *PredictorClient) Predict(ctx context.Context, features map[string]float64) (float64, error) {
	if len(features) == 0 {
		return 0, fmt.Errorf("features cannot be empty")
	}
	body, err := json.Marshal(features)
	if err != nil {
		return 0, fmt.Errorf("failed to encode features: %w", err)
	}

	var out PredictResponse
	if err := c.do(ctx, http.MethodPost, "/predict", bytes.NewReader(body), &out); err != nil {
		return 0, err
	}
	return out.Prediction, nil
}

// Model fetches metadata about the served model.
func (c *PredictorClient) Model(ctx context.Context) (*ModelInfo, error) {
	var out ModelInfo
	if err := c.do(ctx, http.MethodGet, "/model", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health returns nil when GET /healthz answers 200.
func (c *PredictorClient) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

func (c *PredictorClient) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	u.Path = path

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var e struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&e) == nil {
			apiErr.Message = e.Error
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
