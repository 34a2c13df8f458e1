// Package tools provides the external capabilities an agent may invoke
// during a turn. The only capability here is the schema probe: an HTTP
// POST against a caller-supplied URL whose outcome is normalized into a
// uniform result shape.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// DefaultProbeTimeout bounds a single schema probe.
const DefaultProbeTimeout = 30 * time.Second

// Result is the uniform outcome of a schema probe. HTTP-level failures
// (4xx/5xx, including payment-required responses) are successful probes:
// Status and Body are populated and Error stays empty. Only adapter-local
// faults (malformed URL, connection failure, body read failure) set Error,
// and then Status is absent.
type Result struct {
	OK         bool   `json:"ok"`
	Status     int    `json:"status,omitempty"`
	StatusText string `json:"statusText,omitempty"`
	Body       any    `json:"body,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Prober is the schema probe capability handed to the agent runtime for
// one session's turn.
type Prober interface {
	FetchSchema(ctx context.Context, rawURL string) Result
}

// Client performs schema probes. It holds no per-probe state and may be
// shared; session scoping happens via ForSession.
type Client struct {
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a schema probe client.
func NewClient(logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: DefaultProbeTimeout},
		logger:     logger,
	}
}

// ForSession binds the client to one session's turn. The returned prober
// caches nothing: results are never shared or memoized across sessions.
func (c *Client) ForSession(sessionID string) *SessionProber {
	return &SessionProber{
		client: c,
		logger: c.logger.With().Str("session_key", sessionID).Logger(),
	}
}

// SessionProber executes probes on behalf of exactly one session's turn.
type SessionProber struct {
	client *Client
	logger zerolog.Logger
}

// FetchSchema issues a POST with an empty JSON body to rawURL and reads
// the response as JSON, falling back to raw text. It never panics and
// never returns an error: all failure modes fold into the Result shape.
func (p *SessionProber) FetchSchema(ctx context.Context, rawURL string) Result {
	parsed, err := url.ParseRequestURI(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		p.logger.Debug().Str("url", rawURL).Msg("Schema probe rejected malformed URL")
		return Result{OK: false, Error: fmt.Sprintf("invalid URL: %q", rawURL)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, parsed.String(), bytes.NewReader([]byte("{}")))
	if err != nil {
		return Result{OK: false, Error: fmt.Sprintf("failed to build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.httpClient.Do(req)
	if err != nil {
		p.logger.Debug().Str("url", rawURL).Err(err).Msg("Schema probe failed")
		return Result{OK: false, Error: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{OK: false, Error: fmt.Sprintf("failed to read response body: %v", err)}
	}

	var body any = string(raw)
	var parsedBody any
	if err := json.Unmarshal(raw, &parsedBody); err == nil {
		body = parsedBody
	}

	p.logger.Debug().
		Str("url", rawURL).
		Int("status", resp.StatusCode).
		Msg("Schema probe completed")

	return Result{
		OK:         resp.StatusCode < http.StatusBadRequest,
		Status:     resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
		Body:       body,
	}
}
