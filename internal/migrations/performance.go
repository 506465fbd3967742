package migrations

import (
	"database/sql"
)

// GetPerformanceMigrations returns index migrations shared by both dialects.
func GetPerformanceMigrations() []Migration {
	return []Migration{
		{
			Version: 10,
			Name:    "add_catalog_indices",
			Up: func(tx *sql.Tx) error {
				return execAll(tx, []string{
					"CREATE INDEX IF NOT EXISTS idx_products_category_id ON products(category_id)",
					"CREATE INDEX IF NOT EXISTS idx_products_name ON products(name)",
				})
			},
			Down: func(tx *sql.Tx) error {
				return execAll(tx, []string{
					"DROP INDEX IF EXISTS idx_products_category_id",
					"DROP INDEX IF EXISTS idx_products_name",
				})
			},
		},
	}
}
