package simulation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"crosscore/pkg/genetics"
)

// simulatePath is the engine endpoint cross payloads are submitted to.
const simulatePath = "/v1/cross-simulations"

const defaultHTTPTimeout = 30 * time.Second

// EngineError reports a non-success response from the cross-simulation
// engine.
type EngineError struct {
	StatusCode int
	Message    string
}

func (e *EngineError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("cross engine returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("cross engine returned status %d: %s", e.StatusCode, e.Message)
}

// HTTPEngine submits cross payloads to a remote engine over HTTP.
type HTTPEngine struct {
	baseURL string
	client  *http.Client
}

// HTTPEngineOption customizes HTTPEngine construction.
type HTTPEngineOption func(*HTTPEngine)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) HTTPEngineOption {
	return func(e *HTTPEngine) {
		if client != nil {
			e.client = client
		}
	}
}

// WithTimeout overrides the request timeout of the default client.
func WithTimeout(timeout time.Duration) HTTPEngineOption {
	return func(e *HTTPEngine) {
		if timeout > 0 {
			e.client.Timeout = timeout
		}
	}
}

// NewHTTPEngine constructs an engine client for the given base URL.
func NewHTTPEngine(baseURL string, opts ...HTTPEngineOption) *HTTPEngine {
	engine := &HTTPEngine{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(engine)
		}
	}
	return engine
}

// Simulate posts the payload to the engine and decodes its outcome. Non-2xx
// responses surface as *EngineError carrying the status code and whatever
// message the engine answered with.
func (e *HTTPEngine) Simulate(ctx context.Context, payload genetics.CrossPayload) (Outcome, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Outcome{}, fmt.Errorf("marshal cross payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+simulatePath, bytes.NewReader(body))
	if err != nil {
		return Outcome{}, fmt.Errorf("build engine request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return Outcome{}, fmt.Errorf("submit cross payload: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return Outcome{}, &EngineError{StatusCode: resp.StatusCode, Message: readEngineMessage(resp.Body)}
	}
	var outcome Outcome
	if err := json.NewDecoder(resp.Body).Decode(&outcome); err != nil {
		return Outcome{}, fmt.Errorf("decode engine outcome: %w", err)
	}
	return outcome, nil
}

// readEngineMessage extracts a short description from an error body. Engines
// answer failures as {"message": ...} or {"error": ...}; anything else is
// used as trimmed raw text.
func readEngineMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}
	var wire struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &wire); err == nil {
		if wire.Message != "" {
			return wire.Message
		}
		if wire.Error != "" {
			return wire.Error
		}
	}
	return strings.TrimSpace(string(data))
}
