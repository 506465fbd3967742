package testutil

import (
	"fmt"
	"strings"
)

// NewTestDSN generates a DSN for a named in-memory SQLite database with foreign keys enforced
// on every pooled connection.
func NewTestDSN(testName string) string {
	name := strings.NewReplacer("/", "_", " ", "_").Replace(testName)
	return fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)
}
