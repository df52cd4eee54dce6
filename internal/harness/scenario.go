package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/rowfilter/internal/compiler"
)

// Scenario defines a translation scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Query is the policy query sent to the engine.
	// Default: "data.scenario.allow == true".
	Query string `yaml:"query,omitempty"`

	// Input is the known input document.
	Input map[string]any `yaml:"input,omitempty"`

	// Unknowns are the unknown tables. Default: [from_table].
	Unknowns []string `yaml:"unknowns,omitempty"`

	// FromTable is the base table of the caller's query.
	FromTable string `yaml:"from_table"`

	// Queries are the residual queries in text form, one disjunct per
	// entry. An empty list means the query is never defined; an empty
	// entry is an unconditional disjunct.
	Queries []string `yaml:"queries,omitempty"`

	// Response is a recorded compile response, relative to the scenario
	// file. Exactly one of Queries and Response must be set.
	Response string `yaml:"response,omitempty"`

	// Quote is the string quote used when rendering. Default: `"`.
	Quote string `yaml:"quote,omitempty"`

	// Select and Where feed the spliced statement:
	// SELECT <select> FROM <from_table> ... AND (<where>).
	// Select defaults to "*".
	Select string `yaml:"select,omitempty"`
	Where  string `yaml:"where,omitempty"`

	// Expect is the expected decision.
	Expect Expect `yaml:"expect"`
}

// Expect specifies the expected outcome. Unset fields are not checked.
type Expect struct {
	// Defined is the expected definedness.
	Defined *bool `yaml:"defined,omitempty"`

	// Clauses are the expected rendered clauses, in order.
	Clauses []string `yaml:"clauses,omitempty"`

	// Statement is the expected spliced statement.
	Statement string `yaml:"statement,omitempty"`

	// Rows are the IDs of the sample posts the statement selects, in any
	// order. Requires from_table: posts.
	Rows []string `yaml:"rows,omitempty"`

	// Error is the expected translation error code.
	Error string `yaml:"error,omitempty"`
}

var errorCodes = map[string]bool{
	string(compiler.ErrCodeReferenceShape):      true,
	string(compiler.ErrCodeSelfJoinUnsupported): true,
	string(compiler.ErrCodeInvalidArity):        true,
	string(compiler.ErrCodeUnsupportedOperator): true,
	string(compiler.ErrCodeUnsupportedTerm):     true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
//
// A relative Response path is resolved against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	s, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if s.Response != "" && !filepath.IsAbs(s.Response) {
		s.Response = filepath.Join(filepath.Dir(path), s.Response)
	}
	if s.Response != "" {
		if _, err := os.Stat(s.Response); err != nil {
			return nil, fmt.Errorf("invalid scenario: response file not found: %s", s.Response)
		}
	}
	return s, nil
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // typos like "claus:" fail loudly
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.FromTable == "" {
		return fmt.Errorf("from_table is required")
	}

	switch {
	case s.Queries == nil && s.Response == "":
		return fmt.Errorf("one of queries or response is required")
	case s.Queries != nil && s.Response != "":
		return fmt.Errorf("queries and response are mutually exclusive")
	}

	switch s.Quote {
	case "", `"`, "'":
	default:
		return fmt.Errorf("quote must be %q or %q, got %q", `"`, "'", s.Quote)
	}

	e := s.Expect
	if e.Defined == nil && e.Clauses == nil && e.Statement == "" && e.Rows == nil && e.Error == "" {
		return fmt.Errorf("expect must set at least one of defined, clauses, statement, rows or error")
	}
	if e.Error != "" {
		if !errorCodes[e.Error] {
			return fmt.Errorf("expect.error: unknown error code %q", e.Error)
		}
		if e.Defined != nil || e.Clauses != nil || e.Statement != "" || e.Rows != nil {
			return fmt.Errorf("expect.error excludes the other expectations")
		}
	}
	if e.Rows != nil && s.FromTable != "posts" {
		return fmt.Errorf("expect.rows requires from_table posts, got %q", s.FromTable)
	}
	return nil
}
