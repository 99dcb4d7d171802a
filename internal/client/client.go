package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/TimurManjosov/erpredict/internal/inference"
	"github.com/TimurManjosov/erpredict/internal/model"
)

// Client is an HTTP client for the prediction service
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError is a non-2xx response. Code, Message and Fields are filled from
// the service's error envelope when the body carries one.
type APIError struct {
	StatusCode int
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Fields     map[string]string `json:"fields"`
	RequestID  string            `json:"request_id"`
	Body       string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
	}
	msg := fmt.Sprintf("API error (status %d, %s): %s", e.StatusCode, e.Code, e.Message)
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg += fmt.Sprintf("\n  %s: %s", k, e.Fields[k])
		}
	}
	return msg
}

// Prediction is a scored payload plus the id the service logged it under.
type Prediction struct {
	inference.Result
	ID string `json:"id,omitempty"`
}

// Health checks the liveness probe.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Predict posts a JSON payload to /predict.
func (c *Client) Predict(ctx context.Context, payload []byte) (*Prediction, error) {
	resp, err := c.do(ctx, http.MethodPost, "/predict", payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var p Prediction
	if err := json.NewDecoder(resp.Body).Decode(&p.Result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	p.ID = resp.Header.Get("X-Prediction-Id")
	return &p, nil
}

// ModelInfo retrieves metadata about the served model.
func (c *Client) ModelInfo(ctx context.Context) (*model.Info, error) {
	resp, err := c.do(ctx, http.MethodGet, "/v1/model", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var info model.Info
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &info, nil
}

// do sends a request and turns any non-2xx status into *APIError.
func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		bodyBytes, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(bodyBytes))}
		_ = json.Unmarshal(bodyBytes, apiErr)
		return nil, apiErr
	}

	return resp, nil
}
