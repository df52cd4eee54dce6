package store

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rowfilter/internal/compiler"
	"github.com/roach88/rowfilter/internal/filter"
	"github.com/roach88/rowfilter/internal/queryset"
)

func seededStore(t *testing.T, driver string) *Store {
	t.Helper()
	s := createTestStore(t, driver)
	require.NoError(t, s.Seed(context.Background()))
	return s
}

// decision translates residual queries over posts the way Compile would.
func decision(t *testing.T, srcs ...string) filter.Decision {
	t.Helper()
	qs := queryset.MustParseQuerySet(srcs...)
	require.NoError(t, compiler.Preprocess(qs))
	u, err := compiler.Translate(qs, "posts")
	require.NoError(t, err)
	return filter.Decision{Defined: true, SQL: u}
}

func postIDs(posts []Post) []string {
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	sort.Strings(ids)
	return ids
}

func TestSeed_Idempotent(t *testing.T) {
	s := seededStore(t, "sqlite3")
	require.NoError(t, s.Seed(context.Background()))

	posts, err := s.Posts(context.Background(), "SELECT posts.* FROM posts")
	require.NoError(t, err)
	assert.Len(t, posts, len(SamplePosts))
}

func TestFilteredPosts(t *testing.T) {
	tests := []struct {
		name     string
		srcs     []string
		extra    string
		args     []any
		expected []string
	}{
		{
			name:     "own posts",
			srcs:     []string{`data.posts[x]; "bob" = x.author`},
			expected: []string{"post1", "post2"},
		},
		{
			name:     "own post by id",
			srcs:     []string{`data.posts[x]; "bob" = x.author`},
			extra:    "posts.id = ?",
			args:     []any{"post2"},
			expected: []string{"post2"},
		},
		{
			name:     "other author's post by id",
			srcs:     []string{`data.posts[x]; "bob" = x.author`},
			extra:    "posts.id = ?",
			args:     []any{"post3"},
			expected: []string{},
		},
		{
			name: "department or clearance",
			srcs: []string{
				`data.posts[x].department = "sec"; data.posts[x].clearance_level <= 5`,
				`data.posts[x].department = "dev"`,
			},
			expected: []string{"post1", "post2", "post3"},
		},
		{
			name:     "abs call",
			srcs:     []string{`abs(data.posts[x].clearance_level) > 5`},
			expected: []string{"post4", "post6"},
		},
		{
			name:     "join on users",
			srcs:     []string{`data.posts[x].author = data.users[u].name; data.users[u].clearance_level >= 10`},
			expected: []string{"post3", "post4", "post5", "post6"},
		},
		{
			name: "where union join",
			srcs: []string{
				`data.posts[x].author = data.users[u].name; data.users[u].clearance_level >= 10; data.posts[x].department = "hr"`,
				`"bob" = data.posts[x].author`,
			},
			expected: []string{"post1", "post2", "post6"},
		},
	}

	for _, driver := range []string{"sqlite3", "sqlite"} {
		s := seededStore(t, driver)
		for _, tt := range tests {
			t.Run(driver+"/"+tt.name, func(t *testing.T) {
				d := decision(t, tt.srcs...)
				stmt := filter.Splice("posts.*", "posts", tt.extra, d, s.Dialect().Options())

				posts, err := s.Posts(context.Background(), stmt, tt.args...)
				require.NoError(t, err, stmt)
				assert.Equal(t, tt.expected, postIDs(posts), stmt)
			})
		}
	}
}

func TestQueryRows(t *testing.T) {
	s := seededStore(t, "sqlite")
	d := decision(t, `data.posts[x]; "alice" = x.author`)
	stmt := filter.Splice("posts.id, posts.clearance_level", "posts", "", d, s.Dialect().Options())

	rows, err := s.QueryRows(context.Background(), stmt+" ORDER BY posts.id")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "post3", rows[0]["id"])
	assert.EqualValues(t, 5, rows[0]["clearance_level"])
	assert.Equal(t, "post4", rows[1]["id"])
}

func TestInsertPost(t *testing.T) {
	s := createTestStore(t, "sqlite3")
	ctx := context.Background()

	require.NoError(t, s.InsertPost(ctx, Post{ID: "p", Name: "n", Author: "dave", Department: "ops", ClearanceLevel: 2}))

	posts, err := s.Posts(ctx, "SELECT posts.* FROM posts")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "dave", posts[0].Author)
}
