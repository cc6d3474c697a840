// Package upstream talks to the daily challenge REST backend on behalf of the
// calling user.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/gema-daily-challenge/internal/middleware"
	"github.com/noah-isme/gema-daily-challenge/internal/observability"
)

const maxResponseBytes = 8 << 20

// APIError is a failed backend call, carrying the backend's message when it sent one.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend responded with status %d", e.Status)
	}
	return fmt.Sprintf("backend responded with status %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Config configures the backend client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	Transport http.RoundTripper
}

// Client is the backend REST client. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

// New constructs a client whose transport is traced with OpenTelemetry.
func New(cfg Config, logger zerolog.Logger) *Client {
	base := cfg.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(base),
		},
		logger: logger.With().Str("component", "upstream_client").Logger(),
	}
}

// ListQuery carries the paging and search parameters the backend accepts.
type ListQuery struct {
	Page    int
	Size    int
	Text    string
	SortBy  string
	SortDir string
}

func (q ListQuery) values() url.Values {
	values := url.Values{}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	if q.Size > 0 {
		values.Set("size", strconv.Itoa(q.Size))
	}
	if text := strings.TrimSpace(q.Text); text != "" {
		values.Set("text", text)
	}
	if q.SortBy != "" {
		values.Set("sortBy", q.SortBy)
	}
	if q.SortDir != "" {
		values.Set("sortDir", q.SortDir)
	}
	return values
}

// Page is one page of a backend listing.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func (e envelope) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

func (c *Client) do(ctx context.Context, operation, method, path string, query url.Values, body, out interface{}) error {
	payload, err := c.send(ctx, operation, method, path, query, body)
	if err != nil {
		return err
	}

	data, err := unwrap(payload)
	if err != nil {
		return err
	}
	if out == nil || len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", operation, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, operation, method, path string, query url.Values, body interface{}) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", operation, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", operation, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := middleware.BearerTokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	correlationID := middleware.CorrelationIDFromContext(ctx)
	if correlationID != "" {
		req.Header.Set(middleware.CorrelationHeader, correlationID)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		observability.ObserveUpstream(operation, 0, time.Since(start))
		c.logger.Warn().Err(err).Str("operation", operation).Str("correlation_id", correlationID).Msg("backend call failed")
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	defer resp.Body.Close()
	observability.ObserveUpstream(operation, resp.StatusCode, time.Since(start))

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", operation, err)
	}

	c.logger.Debug().
		Str("operation", operation).
		Str("correlation_id", correlationID).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("backend call completed")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Message: errorMessage(payload)}
	}

	return payload, nil
}

// unwrap strips the {success, data, message} envelope. Bodies without one are
// returned as-is.
func unwrap(payload []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	_, hasData := fields["data"]
	_, hasSuccess := fields["success"]
	if !hasData && !hasSuccess {
		return trimmed, nil
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Success != nil && !*env.Success {
		return nil, &APIError{Status: http.StatusUnprocessableEntity, Message: env.text()}
	}
	return env.Data, nil
}

func errorMessage(payload []byte) string {
	var env envelope
	if err := json.Unmarshal(payload, &env); err == nil {
		if text := strings.TrimSpace(env.text()); text != "" {
			return text
		}
	}
	return ""
}

type listEnvelope struct {
	Data          json.RawMessage `json:"data"`
	Content       json.RawMessage `json:"content"`
	Items         json.RawMessage `json:"items"`
	Total         *int            `json:"total"`
	TotalElements *int            `json:"totalElements"`
	TotalItems    *int            `json:"totalItems"`
}

// decodeList accepts a bare array, {data: [...]} and {data: {data: [...]}}
// along with the usual total fields.
func decodeList[T any](raw json.RawMessage) (Page[T], error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Page[T]{Items: []T{}}, nil
	}

	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return Page[T]{}, fmt.Errorf("decode list: %w", err)
		}
		return Page[T]{Items: items, Total: len(items)}, nil
	}

	var env listEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return Page[T]{}, fmt.Errorf("decode list: %w", err)
	}

	inner := env.Data
	if len(inner) == 0 {
		inner = env.Content
	}
	if len(inner) == 0 {
		inner = env.Items
	}
	if len(inner) == 0 {
		return Page[T]{}, fmt.Errorf("decode list: no items in response")
	}

	page, err := decodeList[T](inner)
	if err != nil {
		return Page[T]{}, err
	}

	for _, total := range []*int{env.Total, env.TotalElements, env.TotalItems} {
		if total != nil {
			page.Total = *total
			break
		}
	}
	return page, nil
}

// list returns the undecoded listing body so decodeList can see sibling
// total fields next to the items.
func (c *Client) list(ctx context.Context, operation, path string, query url.Values) (json.RawMessage, error) {
	payload, err := c.send(ctx, operation, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	if _, err := unwrap(payload); err != nil {
		return nil, err
	}
	return payload, nil
}
