package datastore

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Dialect identifies the SQL backend behind a Datastore.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// DriverName returns the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	if d == Postgres {
		return "pgx"
	}
	return "sqlite"
}

// ParseDialect validates a configured driver name.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", name)
	}
}

// Rebind rewrites '?' placeholders into the dialect's native form.
// Queries are written once with '?'; PostgreSQL wants $1, $2, ...
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Datastore owns the connection pool and the statement cache shared by all tables.
type Datastore struct {
	DB      *sql.DB
	Dialect Dialect
	stmts   *stmtCache
}

// New wraps an open, migrated database.
func New(db *sql.DB, dialect Dialect) *Datastore {
	return &Datastore{
		DB:      db,
		Dialect: dialect,
		stmts:   newStmtCache(db),
	}
}

// Close releases cached statements and the pool.
func (ds *Datastore) Close() error {
	return errors.Join(ds.stmts.close(), ds.DB.Close())
}
