package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Post is a row of the posts table.
type Post struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Author         string `json:"author"`
	Content        string `json:"content"`
	ClearanceLevel int    `json:"clearance_level"`
	Department     string `json:"department"`
}

// User is a row of the users table.
type User struct {
	Name           string `json:"name"`
	ClearanceLevel int    `json:"clearance_level"`
}

// SamplePosts is the seed data for the posts table.
var SamplePosts = []Post{
	{ID: "post1", Name: "Personalization Updated to v2.1", Author: "bob", Department: "dev", ClearanceLevel: 3,
		Content: "Leverage agile frameworks to provide a robust synopsis for high level overviews."},
	{ID: "post2", Name: "Critical Vulnerability in Y2K patch (CVE-2018-DEADBEEF)", Author: "bob", Department: "sec", ClearanceLevel: 2,
		Content: "Bring to the table win-win survival strategies to ensure proactive domination."},
	{ID: "post3", Name: "Blockchain Service Mesh deployed", Author: "alice", Department: "sec", ClearanceLevel: 5,
		Content: "Capitalize on low hanging fruit to identify a ballpark value added activity to beta test."},
	{ID: "post4", Name: "Quantum Gigaflux encountering errors", Author: "alice", Department: "sec", ClearanceLevel: 10,
		Content: "Collaboratively administrate turnkey channels whereas virtual e-tailers."},
	{ID: "post5", Name: "Missing printer", Author: "charlie", Department: "company", ClearanceLevel: 1,
		Content: "Objectively innovate empowered manufactured products whereas parallel platforms."},
	{ID: "post6", Name: "Loud keyboards considered harmful", Author: "charlie", Department: "hr", ClearanceLevel: 10,
		Content: "Podcasting operational change management inside of workflows to establish a framework."},
}

// SampleUsers is the seed data for the users table.
var SampleUsers = []User{
	{Name: "alice", ClearanceLevel: 10},
	{Name: "bob", ClearanceLevel: 5},
	{Name: "charlie", ClearanceLevel: 10},
}

// Seed inserts the sample posts and users. Existing rows are left alone.
// Only the SQLite drivers are supported.
func (s *Store) Seed(ctx context.Context) error {
	if !s.isSQLite() {
		return fmt.Errorf("seed: driver %q not supported", s.driver)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed: begin: %w", err)
	}
	defer tx.Rollback()

	for _, p := range SamplePosts {
		if err := insertPost(ctx, tx, p); err != nil {
			return fmt.Errorf("seed post %s: %w", p.ID, err)
		}
	}
	for _, u := range SampleUsers {
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO users (name, clearance_level) VALUES (?, ?)`,
			u.Name, u.ClearanceLevel)
		if err != nil {
			return fmt.Errorf("seed user %s: %w", u.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed: commit: %w", err)
	}
	return nil
}

// InsertPost adds a post.
func (s *Store) InsertPost(ctx context.Context, p Post) error {
	return insertPost(ctx, s.db, p)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertPost(ctx context.Context, db execer, p Post) error {
	_, err := db.ExecContext(ctx, `
		INSERT OR IGNORE INTO posts (id, name, author, content, clearance_level, department)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.Author, p.Content, p.ClearanceLevel, p.Department)
	return err
}

// Posts runs a spliced SELECT over posts and scans the rows. The statement
// must select posts.* (or the same columns in schema order).
//
// Returns an empty slice (not nil) if no rows match.
func (s *Store) Posts(ctx context.Context, query string, args ...any) ([]Post, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.Name, &p.Author, &p.Content, &p.ClearanceLevel, &p.Department); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, nil
}
