package crud

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrNotFound is carried by NotFound outcomes.
	ErrNotFound = errors.New("entity not found")

	// ErrConsistency is carried by BadRequest outcomes: the route id and body id disagree.
	ErrConsistency = errors.New("route id does not match entity id")
)

// FieldErrors maps a field name to a human readable problem.
type FieldErrors map[string]string

// ValidationError reports structurally invalid input. No store mutation follows it.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
