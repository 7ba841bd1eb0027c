// Package api contains the HTTP core of the storefront client: the base REST
// client with the shared response envelope, the error taxonomy, and the
// request authenticator that recovers transparently from access-token expiry.
package api

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

	"github.com/rs/zerolog"

	"github.com/davemarchant/tienda-go/notify"
)

// Response is the general API envelope: {"data":..., "message":"..."}.
type Response[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message"`
}

// PaginationParams are the common list-endpoint query parameters.
type PaginationParams struct {
	PageNumber int
	PageSize   int
	SearchTerm string
}

// Values encodes the parameters into a query string.
func (p PaginationParams) Values() url.Values {
	values := url.Values{}
	if p.PageNumber > 0 {
		values.Set("pageNumber", strconv.Itoa(p.PageNumber))
	}
	if p.PageSize > 0 {
		values.Set("pageSize", strconv.Itoa(p.PageSize))
	}
	if p.SearchTerm != "" {
		values.Set("searchTerm", p.SearchTerm)
	}
	return values
}

// PaginatedResponse wraps a page of items plus paging metadata.
type PaginatedResponse[T any] struct {
	Items           T    `json:"items"`
	TotalCount      int  `json:"totalCount"`
	PageNumber      int  `json:"pageNumber"`
	PageSize        int  `json:"pageSize"`
	TotalPages      int  `json:"totalPages"`
	HasPreviousPage bool `json:"hasPreviousPage"`
	HasNextPage     bool `json:"hasNextPage"`
}

// Client is the base REST client. It is the single place where API failures
// are translated to display strings and surfaced to the notifier; feature
// code receives the translated error but must not notify again.
type Client struct {
	baseURL  string
	httpc    *http.Client
	notifier notify.Notifier
	logger   zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying HTTP client (transport, cookie jar,
// timeout).
func WithHTTPClient(httpc *http.Client) ClientOption {
	return func(c *Client) { c.httpc = httpc }
}

// WithNotifier sets the notification sink. Without one the client stays
// silent, which is what the internal refresh call uses.
func WithNotifier(n notify.Notifier) ClientOption {
	return func(c *Client) { c.notifier = n }
}

// WithLogger sets the structured logger.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a client rooted at baseURL.
func NewClient(baseURL string, options ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{},
		logger:  zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Get issues a GET request and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST request with a JSON body and decodes the response.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Put issues a PUT request with a JSON body and decodes the response.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

// Delete issues a DELETE request and decodes the response.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out)
}

// Do performs a request against the API. Failures come back as *APIError
// (or *SessionExpiredError when a token refresh just failed) after exactly
// one notification has been emitted for them.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	return c.do(ctx, method, path, "", body, out)
}

// DoWithToken performs a request with an explicit bearer token, bypassing
// the session token (used by password reset, where the token arrives by
// email).
func (c *Client) DoWithToken(ctx context.Context, method, path, token string, body, out any) error {
	return c.do(ctx, method, path, token, body, out)
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		var expired *SessionExpiredError
		if errors.As(err, &expired) {
			// The authenticator already cleared the session and notified.
			return expired
		}
		c.logger.Warn().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		apiErr := &APIError{Status: 0, Message: MsgNetworkError}
		c.notifyError(apiErr.Message)
		return apiErr
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		apiErr := &APIError{Status: 0, Message: MsgNetworkError}
		c.notifyError(apiErr.Message)
		return apiErr
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := translateError(resp.StatusCode, data)
		c.logger.Debug().Int("status", resp.StatusCode).Str("path", path).Msg(apiErr.Message)
		c.notifyError(apiErr.Message)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) notifyError(message string) {
	if c.notifier != nil {
		c.notifier.Error(message)
	}
}
