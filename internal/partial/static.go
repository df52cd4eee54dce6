package partial

import (
	"context"

	"github.com/roach88/rowfilter/internal/queryset"
)

// StaticEvaluator answers every request with the same residual queries,
// written in text form (see queryset.ParseQuery). An empty Queries list
// means the query is never defined.
type StaticEvaluator struct {
	Queries []string
}

// Partial parses the queries afresh for each call.
func (s StaticEvaluator) Partial(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	qs, err := queryset.ParseQuerySet(s.Queries)
	if err != nil {
		return nil, err
	}
	return &Response{Queries: qs}, nil
}
