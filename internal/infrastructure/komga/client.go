// Package komga implements the HTTP client for the Komga endpoints
// consumed by the Komga Sync loop, with a cenkalti/backoff retry
// policy over transient server errors.
package komga

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/domain/h2h"
)

// retryAttempts and retryInterval implement a "3 attempts, 5s sleep on
// 500/504/429" retry policy.
const (
	retryAttempts = 3
	retryInterval = 5 * time.Second
)

// Config holds the connection details for one Komga server.
type Config struct {
	BaseURL   string
	Username  string
	Password  string
	LibraryID string
}

// Client is a thin, retrying wrapper over net/http for the Komga REST
// surface.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// New constructs a Client for cfg.
func New(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{cfg: cfg, httpClient: httpClient}
}

// Page is one page of a Komga paginated list response.
type Page struct {
	Content []json.RawMessage `json:"content"`
	Last    bool              `json:"last"`
}

// Series is the subset of Komga's series representation consumed here.
type Series struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
}

// Book is the subset of Komga's book representation consumed here.
type Book struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	SeriesID string `json:"seriesId"`
}

// Author is one entry of a book's metadata.authors array.
type Author struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// BookMetadataPatch is the payload for PATCH /api/v1/books/{id}/metadata.
type BookMetadataPatch struct {
	Title       string   `json:"title"`
	Summary     string   `json:"summary"`
	ReleaseDate string   `json:"releaseDate"`
	Authors     []Author `json:"authors"`
}

// SeriesMetadataPatch is the payload for PATCH /api/v1/series/{id}/metadata.
type SeriesMetadataPatch struct {
	Title string `json:"title"`
}

// TriggerScan starts a library scan (POST /api/v1/libraries/{id}/scan).
func (c *Client) TriggerScan(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/libraries/%s/scan", c.cfg.LibraryID), nil)
	return err
}

// ListSeriesPage returns one page of the library's series.
func (c *Client) ListSeriesPage(ctx context.Context, page int) (Page, error) {
	path := fmt.Sprintf("/api/v1/series?library_id=%s&page=%d&size=100", c.cfg.LibraryID, page)
	return c.getPage(ctx, path)
}

// GetSeries fetches one series by id.
func (c *Client) GetSeries(ctx context.Context, id string) (Series, error) {
	var s Series
	body, err := c.do(ctx, http.MethodGet, "/api/v1/series/"+id, nil)
	if err != nil {
		return s, err
	}
	return s, json.Unmarshal(body, &s)
}

// ListSeriesBooksPage returns one page of a series' books.
func (c *Client) ListSeriesBooksPage(ctx context.Context, seriesID string, page int) (Page, error) {
	path := fmt.Sprintf("/api/v1/series/%s/books?page=%d&size=100", seriesID, page)
	return c.getPage(ctx, path)
}

// ListBooksPage returns one page of the library's books.
func (c *Client) ListBooksPage(ctx context.Context, page int) (Page, error) {
	path := fmt.Sprintf("/api/v1/books?library_id=%s&page=%d&size=100", c.cfg.LibraryID, page)
	return c.getPage(ctx, path)
}

// GetBook fetches one book by id.
func (c *Client) GetBook(ctx context.Context, id string) (Book, error) {
	var b Book
	body, err := c.do(ctx, http.MethodGet, "/api/v1/books/"+id, nil)
	if err != nil {
		return b, err
	}
	return b, json.Unmarshal(body, &b)
}

// GetBookFilename fetches the underlying filename Komga indexed for a book.
func (c *Client) GetBookFilename(ctx context.Context, id string) (string, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/v1/books/"+id+"/file", nil)
	if err != nil {
		return "", err
	}
	var meta struct {
		Name string `json:"name"`
	}
	return meta.Name, json.Unmarshal(body, &meta)
}

// PatchBookMetadata applies patch to a book's metadata.
func (c *Client) PatchBookMetadata(ctx context.Context, id string, patch BookMetadataPatch) error {
	body, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("marshal book metadata patch: %w", err)
	}
	_, err = c.do(ctx, http.MethodPatch, "/api/v1/books/"+id+"/metadata", body)
	return err
}

// PatchSeriesMetadata applies patch to a series' metadata.
func (c *Client) PatchSeriesMetadata(ctx context.Context, id string, patch SeriesMetadataPatch) error {
	body, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("marshal series metadata patch: %w", err)
	}
	_, err = c.do(ctx, http.MethodPatch, "/api/v1/series/"+id+"/metadata", body)
	return err
}

func (c *Client) getPage(ctx context.Context, path string) (Page, error) {
	var p Page
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return p, err
	}
	return p, json.Unmarshal(body, &p)
}

// do executes one request with the configured retry policy: up to
// retryAttempts tries, retryInterval apart, on 500/502/503/504/429;
// 401 aborts immediately as non-retryable.
func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(retryInterval), retryAttempts-1), ctx)

	var result []byte
	op := func() error {
		resp, err := c.once(ctx, method, path, body)
		if err != nil {
			var remote *remoteStatusError
			if asRemoteStatusError(err, &remote) {
				if remote.status == http.StatusUnauthorized {
					return backoff.Permanent(err)
				}
				if isRetryableStatus(remote.status) {
					return err
				}
				return backoff.Permanent(err)
			}
			return backoff.Permanent(err)
		}
		result = resp
		return nil
	}

	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) once(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", method, path, err)
	}
	req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", h2h.ErrRemote, method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", h2h.ErrRemote, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &remoteStatusError{status: resp.StatusCode, method: method, path: path}
	}
	return respBody, nil
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable,
		http.StatusGatewayTimeout, http.StatusTooManyRequests:
		return true
	default:
		return false
	}
}

// remoteStatusError carries the HTTP status of a non-2xx response so
// the retry policy can classify it without parsing error strings.
type remoteStatusError struct {
	status int
	method string
	path   string
}

func (e *remoteStatusError) Error() string {
	return fmt.Sprintf("%s: %s %s returned status %d", h2h.ErrRemote, e.method, e.path, e.status)
}

func (e *remoteStatusError) Unwrap() error { return h2h.ErrRemote }

func asRemoteStatusError(err error, target **remoteStatusError) bool {
	rse, ok := err.(*remoteStatusError)
	if !ok {
		return false
	}
	*target = rse
	return true
}
