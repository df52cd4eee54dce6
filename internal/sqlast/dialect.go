package sqlast

import "strings"

// Dialect names the string quoting a database/sql driver expects.
type Dialect struct {
	Name  string
	Quote string
}

// dialects is keyed by database/sql driver name.
var dialects = map[string]Dialect{
	"sqlite3":   {Name: "sqlite", Quote: "'"},
	"sqlite":    {Name: "sqlite", Quote: "'"},
	"pgx":       {Name: "postgres", Quote: "'"},
	"postgres":  {Name: "postgres", Quote: "'"},
	"mysql":     {Name: "mysql", Quote: "'"},
	"sqlserver": {Name: "mssql", Quote: "'"},
}

// DialectFor returns the dialect for a driver name. Unknown drivers get the
// default double-quote convention.
func DialectFor(driver string) Dialect {
	if d, ok := dialects[strings.ToLower(driver)]; ok {
		return d
	}
	return Dialect{Name: "default", Quote: DefaultQuote}
}

// Options returns RenderOptions for the dialect.
func (d Dialect) Options() RenderOptions {
	return RenderOptions{Quote: d.Quote}
}
