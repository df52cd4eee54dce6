// Package store provides the sample posts database that row filters are
// applied to.
//
// The schema has two tables:
//   - posts: id, name, author, content, clearance_level, department
//   - users: name, clearance_level
//
// Statements spliced from a filter decision are executed with Query,
// QueryRows or Posts.
//
// # Drivers
//
// Open uses github.com/mattn/go-sqlite3 (driver "sqlite3"). OpenDriver
// accepts any registered database/sql driver; this package registers
//   - sqlite3: github.com/mattn/go-sqlite3
//   - sqlite: modernc.org/sqlite (cgo-free)
//   - pgx: github.com/jackc/pgx/v5/stdlib
//   - mysql: github.com/go-sql-driver/mysql
//   - sqlserver: github.com/microsoft/go-mssqldb
//
// The schema, pragmas and seed data are managed only for the SQLite
// drivers. Other drivers must point at a database that already has the
// schema.
//
// # Database Configuration (SQLite)
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
