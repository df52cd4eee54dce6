package cli

import (
	"encoding/json"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type queryResponse struct {
	Status string `json:"status"`
	Data   struct {
		Decision DecisionResult   `json:"decision"`
		Rows     []map[string]any `json:"rows"`
	} `json:"data"`
	Error *CLIError `json:"error"`
}

func rowIDs(rows []map[string]any) []string {
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i], _ = r["id"].(string)
	}
	sort.Strings(ids)
	return ids
}

func TestQuery(t *testing.T) {
	dir := t.TempDir()
	rec := writeFile(t, dir, "recording.json", recording)

	tests := []struct {
		name      string
		driver    string
		user      string
		where     string
		statement string
		ids       []string
	}{
		{
			name:      "own posts",
			driver:    "sqlite3",
			user:      "bob",
			statement: "SELECT posts.* FROM posts WHERE (('bob' = posts.author))",
			ids:       []string{"post1", "post2"},
		},
		{
			name:      "own posts, pure-Go driver",
			driver:    "sqlite",
			user:      "bob",
			statement: "SELECT posts.* FROM posts WHERE (('bob' = posts.author))",
			ids:       []string{"post1", "post2"},
		},
		{
			name:      "own posts in one department",
			driver:    "sqlite3",
			user:      "bob",
			where:     "posts.department = 'sec'",
			statement: "SELECT posts.* FROM posts WHERE (('bob' = posts.author)) AND (posts.department = 'sec')",
			ids:       []string{"post2"},
		},
		{
			name:      "admin sees everything",
			driver:    "sqlite3",
			user:      "admin",
			statement: "SELECT posts.* FROM posts",
			ids:       []string{"post1", "post2", "post3", "post4", "post5", "post6"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dsn := filepath.Join(t.TempDir(), "posts.db")
			args := []string{
				"--recording", rec,
				"-q", "data.example.allow == true",
				"-i", `{"user":"` + tt.user + `"}`,
				"--driver", tt.driver,
				"--dsn", dsn,
				"--seed",
			}
			if tt.where != "" {
				args = append(args, "--where", tt.where)
			}

			out, err := execute(t, NewQueryCommand(&RootOptions{Format: "json"}), args...)
			require.NoError(t, err, out)

			var resp queryResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
			assert.Equal(t, "ok", resp.Status)
			assert.Equal(t, tt.statement, resp.Data.Decision.Statement)
			assert.Equal(t, tt.ids, rowIDs(resp.Data.Rows))
		})
	}
}

func TestQuery_Deny(t *testing.T) {
	dir := t.TempDir()
	rec := writeFile(t, dir, "recording.json", recording)

	out, err := execute(t, NewQueryCommand(&RootOptions{Format: "json"}),
		"--recording", rec,
		"-q", "data.example.allow == true",
		"-i", `{"user":"eve"}`,
		"--dsn", filepath.Join(dir, "posts.db"),
		"--seed")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp queryResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	assert.False(t, resp.Data.Decision.Defined)
	assert.Empty(t, resp.Data.Decision.Statement)
	assert.NotNil(t, resp.Data.Rows)
	assert.Empty(t, resp.Data.Rows)
}

func TestQuery_Text(t *testing.T) {
	dir := t.TempDir()
	rec := writeFile(t, dir, "recording.json", recording)

	out, err := execute(t, NewQueryCommand(&RootOptions{Format: "text"}),
		"--recording", rec,
		"-q", "data.example.allow == true",
		"-i", `{"user":"bob"}`,
		"--dsn", filepath.Join(dir, "posts.db"),
		"--seed",
		"--where", "posts.id = 'post2'")
	require.NoError(t, err)
	assert.Contains(t, out, "1 row(s)\n")
	assert.Contains(t, out, `"id":"post2"`)
	assert.Contains(t, out, `"clearance_level":2`)
}

func TestQuery_BadDriver(t *testing.T) {
	rec := writeFile(t, t.TempDir(), "recording.json", recording)

	out, err := execute(t, NewQueryCommand(&RootOptions{Format: "text"}),
		"--recording", rec,
		"-q", "data.example.allow == true",
		"-i", `{"user":"bob"}`,
		"--driver", "nosuch")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E030]")
}
