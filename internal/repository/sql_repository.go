package repository

import (
	"context"

	"github.com/jbweber/homelab/shelf/internal/datastore"
	"github.com/jbweber/homelab/shelf/internal/domain"
)

// SQLRepository implements Repository over a datastore table.
type SQLRepository[T any] struct {
	table *datastore.Table[T]
}

// NewSQLRepository creates a repository backed by table.
func NewSQLRepository[T any](table *datastore.Table[T]) *SQLRepository[T] {
	return &SQLRepository[T]{table: table}
}

// NewProductRepository creates the product repository for ds.
func NewProductRepository(ds *datastore.Datastore) *SQLRepository[domain.Product] {
	return NewSQLRepository(ds.Products())
}

// NewCategoryRepository creates the category repository for ds.
func NewCategoryRepository(ds *datastore.Datastore) *SQLRepository[domain.Category] {
	return NewSQLRepository(ds.Categories())
}

// GetAll retrieves all entities
func (r *SQLRepository[T]) GetAll(ctx context.Context) ([]T, error) {
	entities, err := r.table.FindAll(ctx)
	if err != nil {
		return nil, r.storeError("get_all", err)
	}
	return entities, nil
}

// GetByID retrieves an entity by its ID
func (r *SQLRepository[T]) GetByID(ctx context.Context, id int64) (T, bool, error) {
	entity, ok, err := r.table.FindByID(ctx, id)
	if err != nil {
		var zero T
		return zero, false, r.storeError("get", err)
	}
	return entity, ok, nil
}

// Create inserts a new entity
func (r *SQLRepository[T]) Create(ctx context.Context, entity *T) error {
	if err := r.table.Insert(ctx, entity); err != nil {
		return r.storeError("create", err)
	}
	return nil
}

// Update replaces an existing entity
func (r *SQLRepository[T]) Update(ctx context.Context, entity T) error {
	if err := r.table.Update(ctx, entity); err != nil {
		return r.storeError("update", err)
	}
	return nil
}

// Delete removes an entity
func (r *SQLRepository[T]) Delete(ctx context.Context, entity T) error {
	if err := r.table.Delete(ctx, entity); err != nil {
		return r.storeError("delete", err)
	}
	return nil
}

func (r *SQLRepository[T]) storeError(op string, err error) error {
	return &StoreError{Op: op, Entity: r.table.Name(), Err: err}
}

var (
	_ Repository[domain.Product]  = (*SQLRepository[domain.Product])(nil)
	_ Repository[domain.Category] = (*SQLRepository[domain.Category])(nil)
)
