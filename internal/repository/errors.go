package repository

import (
	"errors"
	"fmt"
)

// StoreError reports a failure of the backing store. It is the only error a Repository returns.
type StoreError struct {
	Op     string // create, get, get_all, update, delete
	Entity string // table name
	Err    error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Entity, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// IsStoreError reports whether err wraps a *StoreError.
func IsStoreError(err error) bool {
	var storeErr *StoreError
	return errors.As(err, &storeErr)
}
