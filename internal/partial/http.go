package partial

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// DefaultURL is the engine's default listen address.
const DefaultURL = "http://localhost:8181"

// compilePath is the engine's partial-evaluation endpoint.
const compilePath = "/v1/compile"

// HTTPEvaluator calls a policy engine's compile API.
//
// Thread-safety: HTTPEvaluator holds no mutable state and is safe for
// concurrent use.
type HTTPEvaluator struct {
	baseURL string
	client  *http.Client
}

// NewHTTPEvaluator creates an evaluator for the engine at baseURL. A nil
// client means http.DefaultClient.
func NewHTTPEvaluator(baseURL string, client *http.Client) *HTTPEvaluator {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPEvaluator{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// Partial POSTs the request to <base>/v1/compile.
// Non-200 responses become *EvalError carrying the engine's code and message.
func (e *HTTPEvaluator) Partial(ctx context.Context, req Request) (*Response, error) {
	if req.Unknowns == nil {
		req.Unknowns = []string{}
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode compile request: %w", err)
	}

	url := e.baseURL + compilePath
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create compile request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	slog.Debug("calling compile API", "url", url, "query", req.Query, "unknowns", req.Unknowns)

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, &EvalError{Code: "unavailable", Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &EvalError{Status: resp.StatusCode, Code: "read_failed", Message: err.Error(), Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		evalErr := &EvalError{Status: resp.StatusCode}
		if jsonErr := json.Unmarshal(body, evalErr); jsonErr != nil || evalErr.Code == "" {
			evalErr.Code = "http_error"
			evalErr.Message = strings.TrimSpace(string(body))
		}
		evalErr.Status = resp.StatusCode
		return nil, evalErr
	}

	out, err := decodeResponse(body)
	if err != nil {
		return nil, &EvalError{Status: resp.StatusCode, Code: "invalid_response", Message: err.Error(), Err: err}
	}

	slog.Debug("compile API returned", "url", url, "queries", len(out.Queries))
	return out, nil
}
