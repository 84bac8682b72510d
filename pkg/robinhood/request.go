package robinhood

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Request engine: thin wrappers over the session's HTTP client that attach
// the persistent headers, enforce the optional rate limit, transparently
// refresh the access token once on a 401, and decode the broker's response
// envelopes including both pagination styles.

var (
	// ErrNotFound is returned when a singleton lookup matches nothing.
	ErrNotFound = errors.New("robinhood: not found")

	// ErrUnauthenticated is returned when a call fails with 401 and the
	// session cannot be refreshed.
	ErrUnauthenticated = errors.New("robinhood: not logged in")
)

// APIError is a non-2xx response from the broker.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Sprintf("robinhood: http %d: %s", e.Status, body)
}

// isRateLimited reports whether err is an APIError with a status the broker
// uses for throttling and transient overload.
func isRateLimited(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Status {
	case http.StatusTooManyRequests, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// do issues one HTTP request and returns the decompressed body. When authed
// is true and the response is a 401, the access token is refreshed once and
// the request replayed; a second 401 surfaces as ErrUnauthenticated.
func (c *Client) do(ctx context.Context, method, rawURL string, params url.Values, body []byte, contentType string, authed bool) ([]byte, error) {
	data, err := c.doOnce(ctx, method, rawURL, params, body, contentType, authed)
	if err == nil {
		return data, nil
	}

	var apiErr *APIError
	if authed && errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		if rerr := c.refreshAccessToken(ctx); rerr != nil {
			c.setToken("")
			c.log.Warn("session expired and refresh failed", "error", rerr)
			return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, rerr)
		}
		data, err = c.doOnce(ctx, method, rawURL, params, body, contentType, authed)
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			c.setToken("")
			return nil, ErrUnauthenticated
		}
	}
	return data, err
}

func (c *Client) doOnce(ctx context.Context, method, rawURL string, params url.Values, body []byte, contentType string, authed bool) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	u := rawURL
	if len(params) > 0 {
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += sep + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	req.Header.Set("Accept-Language", "en-US,en;q=1")
	req.Header.Set("X-Robinhood-API-Version", apiVersion)
	req.Header.Set("Connection", "keep-alive")
	if contentType == "" {
		contentType = contentTypeForm
	}
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	if authed && c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, rawURL, err)
	}
	defer resp.Body.Close()

	var bodyReader io.Reader = resp.Body
	if strings.Contains(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("decompressing response: %w", err)
		}
		defer gz.Close()
		bodyReader = gz
	}

	data, err := io.ReadAll(bodyReader)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}

// get fetches a URL and returns the raw body.
func (c *Client) get(ctx context.Context, rawURL string, params url.Values) ([]byte, error) {
	return c.do(ctx, http.MethodGet, rawURL, params, nil, "", true)
}

// postForm sends a form-encoded POST without authentication requirements
// beyond whatever token is installed.
func (c *Client) postForm(ctx context.Context, rawURL string, form url.Values, authed bool) ([]byte, error) {
	return c.do(ctx, http.MethodPost, rawURL, nil, []byte(form.Encode()), contentTypeForm, authed)
}

// postJSON marshals v and sends it as an application/json POST. The session
// default content type (form-encoded) is untouched for subsequent calls.
func (c *Client) postJSON(ctx context.Context, rawURL string, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}
	return c.do(ctx, http.MethodPost, rawURL, nil, body, contentTypeJSON, true)
}

// patchJSON marshals v and sends it as an application/json PATCH.
func (c *Client) patchJSON(ctx context.Context, rawURL string, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}
	return c.do(ctx, http.MethodPatch, rawURL, nil, body, contentTypeJSON, true)
}

// del issues a DELETE and returns the raw body.
func (c *Client) del(ctx context.Context, rawURL string) ([]byte, error) {
	return c.do(ctx, http.MethodDelete, rawURL, nil, nil, "", true)
}

// Download streams a binary document body. The caller owns the ReadCloser.
// No JSON decoding is attempted.
func (c *Client) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", rawURL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &APIError{Status: resp.StatusCode, Body: string(data)}
	}
	return resp.Body, nil
}

// ---------------------------------------------------------------------------
// Typed decoding helpers
// ---------------------------------------------------------------------------

// getJSON fetches rawURL and decodes the whole body into T.
func getJSON[T any](ctx context.Context, c *Client, rawURL string, params url.Values) (*T, error) {
	data, err := c.get(ctx, rawURL, params)
	if err != nil {
		return nil, err
	}
	return decode[T](data)
}

// getResults fetches a collection and returns its results array without
// following pagination.
func getResults[T any](ctx context.Context, c *Client, rawURL string, params url.Values) ([]T, error) {
	p, err := getJSON[page[T]](ctx, c, rawURL, params)
	if err != nil {
		return nil, err
	}
	return p.Results, nil
}

// getFirst fetches a collection and returns its first result, or ErrNotFound
// when the collection is empty.
func getFirst[T any](ctx context.Context, c *Client, rawURL string, params url.Values) (*T, error) {
	results, err := getResults[T](ctx, c, rawURL, params)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}
	return &results[0], nil
}

func decode[T any](data []byte) (*T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &v, nil
}

// ---------------------------------------------------------------------------
// Pagination
//
// Two cursor styles exist: the standard envelope carries a full next-page
// URL, while the crypto/futures collections return an opaque token under
// data.next that is passed back as a ?cursor= parameter. Both run through
// the same traversal loop with a pluggable step.
// ---------------------------------------------------------------------------

// pageStep extracts one page's items and the cursor for the following page.
// An empty cursor terminates traversal.
type pageStep[T any] func(raw []byte) (items []T, cursor string, err error)

// cursorApply turns a cursor into the next request's URL and parameters.
type cursorApply func(cursor, current string, params url.Values) (string, url.Values)

func nextURLStep[T any](raw []byte) ([]T, string, error) {
	p, err := decode[page[T]](raw)
	if err != nil {
		return nil, "", err
	}
	return p.Results, p.Next, nil
}

func nextURLApply(cursor, _ string, _ url.Values) (string, url.Values) {
	return cursor, nil
}

func cursorTokenStep[T any](raw []byte) ([]T, string, error) {
	p, err := decode[cursorPage[T]](raw)
	if err != nil {
		return nil, "", err
	}
	return p.Results, p.Data.Next, nil
}

func cursorTokenApply(cursor, current string, params url.Values) (string, url.Values) {
	next := url.Values{}
	for k, v := range params {
		if k == "cursor" {
			continue
		}
		next[k] = v
	}
	next.Set("cursor", cursor)
	return current, next
}

// traverse walks a paginated collection sequentially, concatenating page
// results in traversal order.
func traverse[T any](ctx context.Context, c *Client, rawURL string, params url.Values, step pageStep[T], apply cursorApply) ([]T, error) {
	var all []T
	for pageNum := 1; rawURL != ""; pageNum++ {
		c.log.Info("loading page", "page", pageNum)
		raw, err := c.get(ctx, rawURL, params)
		if err != nil {
			return all, err
		}
		items, cursor, err := step(raw)
		if err != nil {
			return all, err
		}
		all = append(all, items...)
		if cursor == "" {
			break
		}
		rawURL, params = apply(cursor, rawURL, params)
	}
	return all, nil
}

// getPaginated follows full next-page URLs until exhausted.
func getPaginated[T any](ctx context.Context, c *Client, rawURL string, params url.Values) ([]T, error) {
	return traverse[T](ctx, c, rawURL, params, nextURLStep[T], nextURLApply)
}

// getCursorPaginated follows opaque data.next tokens until exhausted.
func getCursorPaginated[T any](ctx context.Context, c *Client, rawURL string, params url.Values) ([]T, error) {
	return traverse[T](ctx, c, rawURL, params, cursorTokenStep[T], cursorTokenApply)
}
