//go:build tools

// Package shelf records development tools in go.mod so `go run` resolves the pinned versions.
package shelf

import (
	_ "golang.org/x/tools/cmd/goimports"
)
