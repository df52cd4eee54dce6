// Package config loads the rowfilter configuration file.
//
// The file is CUE (plain JSON is valid CUE) and is validated against an
// embedded schema that also supplies defaults. Unknown fields are errors.
//
//	query:      "data.example.allow == true"
//	unknowns:   ["posts"]
//	from_table: "posts"
//	engine: url: "http://localhost:8181"
//	database: {driver: "sqlite", dsn: "posts.db"}
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaCUE string

// Config is the decoded configuration.
type Config struct {
	Engine    Engine   `json:"engine"`
	Recording string   `json:"recording,omitempty"`
	Policies  []string `json:"policies,omitempty"`
	Query     string   `json:"query,omitempty"`
	Unknowns  []string `json:"unknowns"`
	FromTable string   `json:"from_table"`
	Quote     string   `json:"quote,omitempty"`
	Database  Database `json:"database"`
}

// Engine locates the policy engine.
type Engine struct {
	URL     string `json:"url"`
	Timeout string `json:"timeout"`
}

// Database selects the posts database.
type Database struct {
	Driver string `json:"driver"`
	DSN    string `json:"dsn"`
}

// Error reports an invalid configuration file.
type Error struct {
	File    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %s", e.File, e.Message)
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data, path)
}

// Default returns the configuration of an empty file.
func Default() *Config {
	cfg, err := Parse([]byte("{}"), "default")
	if err != nil {
		panic(fmt.Sprintf("config: embedded schema defaults invalid: %v", err))
	}
	return cfg
}

// Parse validates data against the schema and decodes it. filename is used
// in error messages.
func Parse(data []byte, filename string) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile config schema: %w", err)
	}

	value := ctx.CompileBytes(data, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, &Error{File: filename, Message: details(err)}
	}

	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, &Error{File: filename, Message: details(err)}
	}

	var cfg Config
	if err := unified.Decode(&cfg); err != nil {
		return nil, &Error{File: filename, Message: details(err)}
	}

	if _, err := cfg.EngineTimeout(); err != nil {
		return nil, &Error{File: filename, Message: err.Error()}
	}
	return &cfg, nil
}

// EngineTimeout parses Engine.Timeout.
func (c *Config) EngineTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Engine.Timeout)
	if err != nil {
		return 0, fmt.Errorf("engine.timeout: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("engine.timeout: must be positive, got %s", c.Engine.Timeout)
	}
	return d, nil
}

func details(err error) string {
	return cueerrors.Details(err, nil)
}
