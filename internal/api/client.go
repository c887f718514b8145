// Package api is the HTTP client for the DevApply backend.
//
// Every call attaches the stored bearer credential unless the caller passes
// one explicitly with WithBearer, and every failure, whether transport or
// HTTP, comes back as *Error carrying a single user-facing message.
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
	"strings"

	"github.com/google/uuid"
	"github.com/khrees2412/devapply/internal/logging"
)

// maxErrorBody bounds how much of a failed response is read looking for detail
const maxErrorBody = 1 << 20

// TokenSource supplies the persisted credential
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Error is the only error shape the UI layer sees from this package
type Error struct {
	Message    string
	StatusCode int   // 0 for transport failures
	Err        error // underlying cause, kept for logging
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Message extracts the user-facing text from err, or fallback when err is
// not an *Error or carries no message.
func Message(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if err != nil && fallback == "" {
		return err.Error()
	}
	return fallback
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	log        logging.Logger
}

// New builds a Client. tokens may be nil, in which case only explicit
// credentials are sent.
func New(baseURL string, httpClient *http.Client, tokens TokenSource, log logging.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		tokens:     tokens,
		log:        log.With("component", "api"),
	}
}

// BaseURL returns the backend root the client talks to
func (c *Client) BaseURL() string { return c.baseURL }

type requestOptions struct {
	bearer      string
	query       url.Values
	body        io.Reader
	contentType string
	jsonBody    any
}

// RequestOption customises a single request
type RequestOption func(*requestOptions)

// WithBearer sends token instead of the stored credential
func WithBearer(token string) RequestOption {
	return func(o *requestOptions) { o.bearer = token }
}

func WithQuery(q url.Values) RequestOption {
	return func(o *requestOptions) { o.query = q }
}

// WithJSON encodes v as the request body
func WithJSON(v any) RequestOption {
	return func(o *requestOptions) { o.jsonBody = v }
}

// WithBody sends a pre-encoded body with the given content type
func WithBody(body io.Reader, contentType string) RequestOption {
	return func(o *requestOptions) {
		o.body = body
		o.contentType = contentType
	}
}

// Do performs one request and decodes a JSON success body into out (if non-nil).
// fallback is the message used when the backend supplies no detail.
// There are no retries.
func (c *Client) Do(ctx context.Context, method, path, fallback string, out any, opts ...RequestOption) error {
	o := &requestOptions{}
	for _, opt := range opts {
		opt(o)
	}

	target := c.baseURL + path
	if len(o.query) > 0 {
		target += "?" + o.query.Encode()
	}

	body := o.body
	contentType := o.contentType
	if o.jsonBody != nil {
		data, err := json.Marshal(o.jsonBody)
		if err != nil {
			return &Error{Message: fallback, Err: fmt.Errorf("encode request: %w", err)}
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return &Error{Message: fallback, Err: fmt.Errorf("create request: %w", err)}
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if auth := c.authorization(ctx, o.bearer); auth != "" {
		req.Header.Set("Authorization", auth)
	}

	log := c.log.With("method", method, "path", path, "request_id", requestID)
	log.Debug(ctx, "request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn(ctx, "transport failure", "error", err)
		return &Error{Message: fallback, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := detailMessage(resp.Body, fallback)
		log.Warn(ctx, "request failed", "status", resp.StatusCode, "message", message)
		return &Error{
			Message:    message,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("HTTP %d", resp.StatusCode),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		log.Warn(ctx, "decode failure", "error", err)
		return &Error{Message: fallback, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	log.Debug(ctx, "response", "status", resp.StatusCode)
	return nil
}

// authorization resolves the Authorization header. An explicit token wins over storage.
func (c *Client) authorization(ctx context.Context, explicit string) string {
	if explicit != "" {
		return "Bearer " + explicit
	}
	if c.tokens == nil {
		return ""
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		c.log.Warn(ctx, "read stored credential", "error", err)
		return ""
	}
	if token == "" {
		return ""
	}
	return "Bearer " + token
}

// detailMessage pulls {"detail": "..."} out of an error body. Any other shape,
// including FastAPI's list-valued validation details, yields fallback.
func detailMessage(body io.Reader, fallback string) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || json.Unmarshal(data, &payload) != nil || len(payload.Detail) == 0 {
		return fallback
	}
	var detail string
	if err := json.Unmarshal(payload.Detail, &detail); err != nil {
		return fallback
	}
	if detail = strings.TrimSpace(detail); detail == "" {
		return fallback
	}
	return detail
}
