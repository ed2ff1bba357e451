// Package client is a small typed client for the sitewatch HTTP API.
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
	"strings"
	"time"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/probe"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New returns a client for base. Live status requests probe every endpoint,
// so the default HTTP timeout leaves room for a full pass.
func New(base string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(base, "/"),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api returned %d", e.StatusCode)
	}
	return fmt.Sprintf("api returned %d: %s", e.StatusCode, e.Message)
}

// Unwrap lets callers match domain sentinels with errors.Is.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusBadRequest:
		return domain.ErrInvalidURL
	}
	return nil
}

func (c *Client) ListEndpoints(ctx context.Context) ([]domain.Endpoint, error) {
	var out []domain.Endpoint
	return out, c.do(ctx, http.MethodGet, "/api/endpoints", nil, &out)
}

func (c *Client) AddEndpoint(ctx context.Context, name, rawURL string) (domain.Endpoint, error) {
	var out domain.Endpoint
	body := map[string]string{"name": name, "url": rawURL}
	return out, c.do(ctx, http.MethodPost, "/api/endpoints", body, &out)
}

func (c *Client) DeleteEndpoint(ctx context.Context, id domain.EndpointID) error {
	return c.do(ctx, http.MethodDelete, "/api/endpoints/"+url.PathEscape(string(id)), nil, nil)
}

// LiveStatuses asks the server to probe every endpoint now.
func (c *Client) LiveStatuses(ctx context.Context) ([]domain.ViewRecord, error) {
	var out []domain.ViewRecord
	return out, c.do(ctx, http.MethodGet, "/api/status", nil, &out)
}

// LatestStatuses returns the background rechecker's last observations.
func (c *Client) LatestStatuses(ctx context.Context) ([]domain.ViewRecord, error) {
	var out []domain.ViewRecord
	return out, c.do(ctx, http.MethodGet, "/api/status/latest", nil, &out)
}

func (c *Client) DNS(ctx context.Context, id domain.EndpointID) (probe.DNSReport, error) {
	var out probe.DNSReport
	return out, c.do(ctx, http.MethodGet, "/api/endpoints/"+url.PathEscape(string(id))+"/dns", nil, &out)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var e struct {
			Error string `json:"error"`
		}
		if b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096)); len(b) > 0 {
			if json.Unmarshal(b, &e) == nil {
				apiErr.Message = e.Error
			} else {
				apiErr.Message = strings.TrimSpace(string(b))
			}
		}
		return apiErr
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
