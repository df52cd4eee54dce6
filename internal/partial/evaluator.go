package partial

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/roach88/rowfilter/internal/ir"
	"github.com/roach88/rowfilter/internal/queryset"
)

// Request is a partial-evaluation request.
type Request struct {
	// Query is the policy query, e.g. "data.example.allow == true".
	Query string `json:"query"`

	// Input is the known input document.
	Input any `json:"input,omitempty"`

	// Unknowns are the data roots left unevaluated, e.g. "data.posts".
	Unknowns []string `json:"unknowns"`
}

// Fingerprint returns a stable hash of the request.
func (r Request) Fingerprint() (string, error) {
	return ir.RequestFingerprint(r.Query, r.Input, r.Unknowns)
}

// Response is the residual query set of a partial evaluation.
type Response struct {
	Queries queryset.QuerySet
}

// Evaluator performs partial evaluation.
//
// Implementations must be safe for concurrent use.
type Evaluator interface {
	Partial(ctx context.Context, req Request) (*Response, error)
}

// EvalError is a failure reported by, or while reaching, the policy engine.
type EvalError struct {
	// Status is the HTTP status, or 0 if no response was received.
	Status int `json:"status,omitempty"`

	// Code is the engine's error code, e.g. "invalid_parameter".
	Code string `json:"code"`

	// Message is a human-readable description.
	Message string `json:"message"`

	// Err is the underlying transport error, if any.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *EvalError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("partial evaluation failed (status %d): %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("partial evaluation failed: %s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying transport error.
func (e *EvalError) Unwrap() error { return e.Err }

// compileResponse is the engine's compile API response body.
type compileResponse struct {
	Result struct {
		Queries json.RawMessage `json:"queries"`
	} `json:"result"`
}

// decodeResponse parses a compile API response body. A missing or null
// query list means the query is never defined.
func decodeResponse(body []byte) (*Response, error) {
	var cr compileResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return nil, fmt.Errorf("decode compile response: %w", err)
	}

	raw := cr.Result.Queries
	if len(raw) == 0 || string(raw) == "null" {
		return &Response{Queries: queryset.QuerySet{}}, nil
	}

	qs, err := queryset.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode compile response: %w", err)
	}
	return &Response{Queries: qs}, nil
}
