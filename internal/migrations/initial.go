package migrations

import (
	"database/sql"

	"github.com/jbweber/homelab/shelf/internal/datastore"
)

var sqliteCatalogTables = []string{
	`CREATE TABLE categories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name VARCHAR(100) NOT NULL
	)`,
	// price is kept as text so the decimal survives SQLite's numeric affinity unchanged.
	`CREATE TABLE products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name VARCHAR(200) NOT NULL,
		price TEXT NOT NULL DEFAULT '0',
		stock INTEGER NOT NULL DEFAULT 0,
		color VARCHAR(50) NOT NULL DEFAULT '',
		category_id INTEGER,
		FOREIGN KEY (category_id) REFERENCES categories(id) ON DELETE CASCADE
	)`,
}

var postgresCatalogTables = []string{
	`CREATE TABLE categories (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(100) NOT NULL
	)`,
	`CREATE TABLE products (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(200) NOT NULL,
		price NUMERIC(18, 2) NOT NULL DEFAULT 0,
		stock INTEGER NOT NULL DEFAULT 0,
		color VARCHAR(50) NOT NULL DEFAULT '',
		category_id BIGINT REFERENCES categories(id) ON DELETE CASCADE
	)`,
}

// GetInitialMigrations returns the schema migrations for dialect.
func GetInitialMigrations(dialect datastore.Dialect) []Migration {
	tables := sqliteCatalogTables
	if dialect == datastore.Postgres {
		tables = postgresCatalogTables
	}

	migrations := []Migration{
		{
			Version: 1,
			Name:    "create_catalog_tables",
			Up: func(tx *sql.Tx) error {
				return execAll(tx, tables)
			},
			Down: func(tx *sql.Tx) error {
				// products first, it references categories
				return execAll(tx, []string{
					`DROP TABLE IF EXISTS products`,
					`DROP TABLE IF EXISTS categories`,
				})
			},
		},
	}
	return append(migrations, GetPerformanceMigrations()...)
}

func execAll(tx *sql.Tx, statements []string) error {
	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
