package repository

import "context"

// Repository is the storage contract every orchestrator depends on.
// It performs no existence or validation checks; callers load and validate first.
type Repository[T any] interface {
	// GetAll returns every stored entity. No rows yields an empty slice, not an error.
	GetAll(ctx context.Context) ([]T, error)

	// GetByID returns the entity with the given id.
	// ok is false when it does not exist; that is not an error.
	GetByID(ctx context.Context, id int64) (entity T, ok bool, err error)

	// Create persists a new entity. The store assigns the id and writes it back into entity.
	Create(ctx context.Context, entity *T) error

	// Update replaces every mutable field of an existing entity and commits.
	Update(ctx context.Context, entity T) error

	// Delete removes a persisted entity and commits.
	Delete(ctx context.Context, entity T) error
}
