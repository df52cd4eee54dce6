package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/rowfilter/internal/ir"
)

// Snapshot returns the canonical JSON of a result: the fields that a
// golden file pins. Expectation errors are not part of it.
func Snapshot(scenarioName string, r *Result) ([]byte, error) {
	snap := map[string]any{
		"scenario": scenarioName,
		"defined":  r.Defined,
	}
	if r.Decision.ID != "" {
		snap["decision"] = r.Decision.ID
	}
	if len(r.Clauses) > 0 {
		snap["clauses"] = stringList(r.Clauses)
	}
	if r.Statement != "" {
		snap["statement"] = r.Statement
	}
	if r.Rows != nil {
		snap["rows"] = stringList(r.Rows)
	}
	if r.Error != "" {
		snap["error"] = r.Error
	}
	return ir.MarshalCanonical(snap)
}

func stringList(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also check result.Pass.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
