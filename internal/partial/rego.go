package partial

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/open-policy-agent/opa/ast"
	"github.com/open-policy-agent/opa/rego"

	"github.com/roach88/rowfilter/internal/queryset"
)

// RegoEvaluator partially evaluates queries in-process against a fixed set
// of policy modules.
//
// Thread-safety: RegoEvaluator is immutable after construction; every call
// prepares its own evaluation.
type RegoEvaluator struct {
	names   []string
	modules map[string]string
}

// NewRegoEvaluator creates an evaluator from module sources keyed by file
// name. Every module is parsed up front so syntax errors surface here.
func NewRegoEvaluator(modules map[string]string) (*RegoEvaluator, error) {
	e := &RegoEvaluator{modules: make(map[string]string, len(modules))}
	for name, src := range modules {
		if _, err := ast.ParseModule(name, src); err != nil {
			return nil, fmt.Errorf("parse policy %s: %w", name, err)
		}
		e.names = append(e.names, name)
		e.modules[name] = src
	}
	sort.Strings(e.names)
	return e, nil
}

// LoadPolicies reads policy files and creates an evaluator from them.
func LoadPolicies(paths ...string) (*RegoEvaluator, error) {
	modules := make(map[string]string, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read policy: %w", err)
		}
		modules[path] = string(data)
	}
	return NewRegoEvaluator(modules)
}

// Partial runs partial evaluation with the request's unknowns.
// Engine failures are reported as *EvalError with Status 0.
func (e *RegoEvaluator) Partial(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := []func(*rego.Rego){
		rego.Query(req.Query),
		rego.Unknowns(req.Unknowns),
	}
	for _, name := range e.names {
		opts = append(opts, rego.Module(name, e.modules[name]))
	}
	if req.Input != nil {
		input, err := ast.InterfaceToValue(req.Input)
		if err != nil {
			return nil, &EvalError{Code: "invalid_input", Message: err.Error(), Err: err}
		}
		opts = append(opts, rego.ParsedInput(input))
	}

	pq, err := rego.New(opts...).Partial(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &EvalError{Code: "partial_failed", Message: err.Error(), Err: err}
	}

	qs, err := queryset.FromBodies(pq.Queries)
	if err != nil {
		return nil, &EvalError{Code: "unsupported_result", Message: err.Error(), Err: err}
	}
	return &Response{Queries: qs}, nil
}
