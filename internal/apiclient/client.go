// Package apiclient is an HTTP client for the server inventory REST API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/tphummel/server_inventory/internal/models"
)

// Client is an HTTP client for the server inventory REST API.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
}

// NewClient creates a Client targeting endpoint with Bearer token auth.
func NewClient(endpoint, token string) *Client {
	return &Client{
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// APIError is returned for any unexpected response status. Message is the
// service's "error" field when the body carried one.
type APIError struct {
	Op      string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: unexpected status %d", e.Op, e.Status)
}

// ImportResult mirrors the response of the import endpoints.
type ImportResult struct {
	Source     string          `json:"source"`
	Seen       int             `json:"seen"`
	Rejected   int             `json:"rejected"`
	Duplicates int             `json:"duplicates"`
	Added      []models.Server `json:"added"`
}

func (c *Client) doRequest(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return c.httpClient.Do(req)
}

// doJSON sends in (when non-nil) as JSON, checks the status and decodes the
// response into out (when non-nil).
func (c *Client) doJSON(ctx context.Context, op, method, path string, want int, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = &buf
		contentType = "application/json"
	}
	resp, err := c.doRequest(ctx, method, path, contentType, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeResponse(resp, op, want, out)
}

func decodeResponse(resp *http.Response, op string, want int, out any) error {
	if resp.StatusCode != want {
		apiErr := &APIError{Op: op, Status: resp.StatusCode}
		var e struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(&e) == nil {
			apiErr.Message = e.Error
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// CreateServer POSTs a new server and returns the stored record.
func (c *Client) CreateServer(ctx context.Context, s models.Server) (*models.Server, error) {
	var out models.Server
	if err := c.doJSON(ctx, "create server", http.MethodPost, "/api/v1/servers", http.StatusCreated, s, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetServer fetches a single server by ID. Returns nil, nil when the service
// responds 404.
func (c *Client) GetServer(ctx context.Context, id string) (*models.Server, error) {
	var out models.Server
	err := c.doJSON(ctx, fmt.Sprintf("get server %q", id), http.MethodGet, "/api/v1/servers/"+url.PathEscape(id), http.StatusOK, nil, &out)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateServer PUTs a full replacement for the server with s.ID.
func (c *Client) UpdateServer(ctx context.Context, s models.Server) (*models.Server, error) {
	var out models.Server
	if err := c.doJSON(ctx, fmt.Sprintf("update server %q", s.ID), http.MethodPut, "/api/v1/servers/"+url.PathEscape(s.ID), http.StatusOK, s, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteServer removes the server with the given ID. A server that is
// already gone is not an error.
func (c *Client) DeleteServer(ctx context.Context, id string) error {
	resp, err := c.doRequest(ctx, http.MethodDelete, "/api/v1/servers/"+url.PathEscape(id), "", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return decodeResponse(resp, fmt.Sprintf("delete server %q", id), http.StatusNoContent, nil)
}

// ListServers returns the servers matching query; see the q, os, backup,
// flag and value parameters of GET /api/v1/servers.
func (c *Client) ListServers(ctx context.Context, query url.Values) ([]models.Server, error) {
	path := "/api/v1/servers"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	var out []models.Server
	if err := c.doJSON(ctx, "list servers", http.MethodGet, path, http.StatusOK, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Stats returns the dashboard statistics.
func (c *Client) Stats(ctx context.Context) (*models.Stats, error) {
	var out models.Stats
	if err := c.doJSON(ctx, "get stats", http.MethodGet, "/api/v1/stats", http.StatusOK, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ImportText uploads a free-text server list.
func (c *Client) ImportText(ctx context.Context, text string) (*ImportResult, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/v1/import/text", "text/plain; charset=utf-8", strings.NewReader(text))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var out ImportResult
	if err := decodeResponse(resp, "import text", http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ImportSpreadsheet uploads an XLSX or CSV file. filename selects the reader
// on the service side.
func (c *Client) ImportSpreadsheet(ctx context.Context, filename string, r io.Reader) (*ImportResult, error) {
	path := "/api/v1/import/spreadsheet?" + url.Values{"filename": {filepath.Base(filename)}}.Encode()
	resp, err := c.doRequest(ctx, http.MethodPost, path, "application/octet-stream", r)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var out ImportResult
	if err := decodeResponse(resp, "import spreadsheet", http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
