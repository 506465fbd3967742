package config

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/jbweber/homelab/shelf/internal/datastore"
	"github.com/jbweber/homelab/shelf/internal/migrations"
)

// sqlitePragmas are applied by the driver to every new connection in the pool.
var sqlitePragmas = []string{
	"foreign_keys(1)",
	"busy_timeout(5000)",
	"synchronous(NORMAL)",
	"temp_store(MEMORY)",
}

// InitializeDatabase opens the configured database, tunes the pool, runs migrations
// and returns the datastore the repositories are built on.
func (c *Config) InitializeDatabase(ctx context.Context) (*datastore.Datastore, error) {
	dialect, err := datastore.ParseDialect(c.Database.Driver)
	if err != nil {
		return nil, err
	}

	dsn := c.Database.DSN
	memory := false
	if dialect == datastore.SQLite {
		path := expandPath(dsn)
		if path == ":memory:" {
			path = sharedMemoryPath()
		}
		memory = isMemoryDSN(path)
		if !memory {
			// Ensure database directory exists
			if err := os.MkdirAll(filepath.Dir(strings.TrimPrefix(path, "file:")), 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		dsn = sqliteDSN(path)
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if memory {
		pinMemoryPool(db)
	} else {
		OptimizeDatabaseConnection(db, dialect)
	}

	if err := prepareDatabase(ctx, db, dialect); err != nil {
		_ = db.Close()
		return nil, err
	}

	return datastore.New(db, dialect), nil
}

func prepareDatabase(ctx context.Context, db *sql.DB, dialect datastore.Dialect) error {
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if dialect == datastore.SQLite {
		if err := ApplyPragmaOptimizations(db); err != nil {
			return fmt.Errorf("failed to apply performance optimizations: %w", err)
		}
	}

	if err := migrations.Run(db, dialect); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// OptimizeDatabaseConnection sizes the connection pool for the dialect.
func OptimizeDatabaseConnection(db *sql.DB, dialect datastore.Dialect) {
	if dialect == datastore.Postgres {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(10)
	} else {
		// one writer at a time; more connections only queue on the file lock
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
	}
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)
}

// pinMemoryPool keeps pooled connections open for the life of the pool. An in-memory
// database is dropped together with its last connection.
func pinMemoryPool(db *sql.DB) {
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)
}

// ApplyPragmaOptimizations applies the database-wide SQLite settings that persist in the file.
func ApplyPragmaOptimizations(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA optimize",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("%s: %w", pragma, err)
		}
	}

	return nil
}

func sqliteDSN(path string) string {
	params := make([]string, len(sqlitePragmas))
	for i, p := range sqlitePragmas {
		params[i] = "_pragma=" + p
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(params, "&")
}

var memorySeq atomic.Uint64

// sharedMemoryPath names a fresh in-memory database that every connection of one pool
// opens. A bare :memory: would give each connection its own empty database.
func sharedMemoryPath() string {
	return fmt.Sprintf("file:shelf-memory-%d?mode=memory&cache=shared", memorySeq.Add(1))
}

func isMemoryDSN(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}
