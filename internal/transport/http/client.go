package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"quizroom/internal/domain"
)

// TokenSource hands out the bearer token for authenticated endpoints.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type authMode int

const (
	authNone authMode = iota
	// authOptional attaches the token when there is one.
	authOptional
	authRequired
)

// Client talks JSON-over-POST to the quiz API.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	headers map[string]string
}

// ClientOption customises a Client.
type ClientOption func(*Client)

// WithHTTPClient swaps the underlying *http.Client.
func WithHTTPClient(hc *http.Client) ClientOption { return func(c *Client) { c.http = hc } }

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHeader adds a static header to every request.
func WithHeader(key, value string) ClientOption {
	return func(c *Client) { c.headers[key] = value }
}

func NewClient(baseURL string, tokens TokenSource, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		tokens:  tokens,
		headers: make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the common part of every response body.
type envelope struct {
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
}

// failure extracts the business error, if any. "error" may be a boolean flag
// (text in "message") or the text itself.
func (e envelope) failure() (string, bool) {
	raw := bytes.TrimSpace(e.Error)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) || bytes.Equal(raw, []byte("false")) {
		return "", false
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if text == "" {
			text = e.Message
		}
		return text, true
	}
	return e.Message, true
}

func (c *Client) post(ctx context.Context, endpoint string, auth authMode, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s: %w", endpoint, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	if auth != authNone {
		token, err := c.token(ctx)
		switch {
		case err == nil:
			req.Header.Set("Authorization", "Bearer "+token)
		case auth == authRequired:
			return fmt.Errorf("%s: %w", endpoint, err)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", endpoint, err)
	}
	log.Debug().
		Str("endpoint", endpoint).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("api call")

	var env envelope
	envErr := json.Unmarshal(data, &env)
	if msg, failed := env.failure(); failed || resp.StatusCode >= http.StatusBadRequest {
		if msg == "" {
			msg = env.Message
		}
		return &domain.APIError{Endpoint: endpoint, Status: resp.StatusCode, Message: msg}
	}
	// A 2xx body that is not a JSON object did not come from the API.
	if envErr != nil && len(bytes.TrimSpace(data)) > 0 {
		return fmt.Errorf("%s: %w: %v", endpoint, domain.ErrWireSchema, envErr)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		if errors.Is(err, domain.ErrWireSchema) {
			return fmt.Errorf("%s: %w", endpoint, err)
		}
		return fmt.Errorf("%s: %w: %v", endpoint, domain.ErrWireSchema, err)
	}
	return nil
}

func (c *Client) token(ctx context.Context) (string, error) {
	if c.tokens == nil {
		return "", domain.ErrNotAuthenticated
	}
	return c.tokens.Token(ctx)
}
