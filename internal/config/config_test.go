package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "http://localhost:8181", cfg.Engine.URL)
	assert.Equal(t, "10s", cfg.Engine.Timeout)
	assert.Equal(t, []string{"posts"}, cfg.Unknowns)
	assert.Equal(t, "posts", cfg.FromTable)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, "posts.db", cfg.Database.DSN)
	assert.Empty(t, cfg.Query)
	assert.Empty(t, cfg.Quote)
	assert.Empty(t, cfg.Recording)
	assert.Empty(t, cfg.Policies)

	timeout, err := cfg.EngineTimeout()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, timeout)
}

func TestParse_CUE(t *testing.T) {
	src := `
query:      "data.example.allow == true"
unknowns:   ["posts", "users"]
from_table: "posts"
quote:      "'"
engine: {
	url:     "http://opa:8181"
	timeout: "2s"
}
database: {driver: "sqlite", dsn: ":memory:"}
`
	cfg, err := Parse([]byte(src), "rowfilter.cue")
	require.NoError(t, err)

	assert.Equal(t, "data.example.allow == true", cfg.Query)
	assert.Equal(t, []string{"posts", "users"}, cfg.Unknowns)
	assert.Equal(t, "'", cfg.Quote)
	assert.Equal(t, "http://opa:8181", cfg.Engine.URL)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, ":memory:", cfg.Database.DSN)
}

func TestParse_JSON(t *testing.T) {
	cfg, err := Parse([]byte(`{"recording": "testdata/bob.json", "database": {"driver": "pgx", "dsn": "postgres://localhost/posts"}}`), "rowfilter.json")
	require.NoError(t, err)

	assert.Equal(t, "testdata/bob.json", cfg.Recording)
	assert.Equal(t, "pgx", cfg.Database.Driver)
	assert.Equal(t, "http://localhost:8181", cfg.Engine.URL, "defaults fill unset fields")
}

func TestParse_Policies(t *testing.T) {
	cfg, err := Parse([]byte(`policies: ["policy/posts.rego", "policy/users.rego"]`), "rowfilter.cue")
	require.NoError(t, err)
	assert.Equal(t, []string{"policy/posts.rego", "policy/users.rego"}, cfg.Policies)

	_, err = Parse([]byte(`policies: "policy/posts.rego"`), "rowfilter.cue")
	assert.Error(t, err)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown field", `bogus: 1`},
		{"unsupported driver", `database: driver: "oracle"`},
		{"bad quote", "quote: \"`\""},
		{"wrong type", `unknowns: "posts"`},
		{"bad timeout", `engine: timeout: "soon"`},
		{"negative timeout", `engine: timeout: "-1s"`},
		{"syntax error", `query: `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "bad.cue")
			require.Error(t, err)

			var cfgErr *Error
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, "bad.cue", cfgErr.File)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rowfilter.cue")
	require.NoError(t, os.WriteFile(path, []byte(`query: "data.example.allow == true"`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "data.example.allow == true", cfg.Query)

	_, err = Load(filepath.Join(t.TempDir(), "missing.cue"))
	assert.Error(t, err)
}
