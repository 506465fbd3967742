package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// Scanner is satisfied by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// Mapper describes how an entity type maps onto a table.
// Columns excludes the id column, which is always named "id" and assigned by the store.
type Mapper[T any] interface {
	Table() string
	Columns() []string
	Values(entity T) []any
	Scan(s Scanner) (T, error)
	ID(entity T) int64
	SetID(entity *T, id int64)
}

// Table provides generic CRUD primitives for one mapped entity type.
// Each mutating call is a single autocommitted statement.
type Table[T any] struct {
	ds     *Datastore
	mapper Mapper[T]

	selectAll  string
	selectByID string
	insert     string
	update     string
	delete     string
}

// NewTable builds the statements for mapper against ds.
func NewTable[T any](ds *Datastore, mapper Mapper[T]) *Table[T] {
	name := mapper.Table()
	cols := mapper.Columns()

	placeholders := make([]string, len(cols))
	assignments := make([]string, len(cols))
	for i, c := range cols {
		placeholders[i] = "?"
		assignments[i] = c + " = ?"
	}
	selectCols := "id, " + strings.Join(cols, ", ")

	return &Table[T]{
		ds:         ds,
		mapper:     mapper,
		selectAll:  ds.Dialect.Rebind(fmt.Sprintf("SELECT %s FROM %s ORDER BY id ASC", selectCols, name)),
		selectByID: ds.Dialect.Rebind(fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", selectCols, name)),
		insert: ds.Dialect.Rebind(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
			name, strings.Join(cols, ", "), strings.Join(placeholders, ", "))),
		update: ds.Dialect.Rebind(fmt.Sprintf("UPDATE %s SET %s WHERE id = ?",
			name, strings.Join(assignments, ", "))),
		delete: ds.Dialect.Rebind(fmt.Sprintf("DELETE FROM %s WHERE id = ?", name)),
	}
}

// Name returns the underlying table name.
func (t *Table[T]) Name() string {
	return t.mapper.Table()
}

// FindAll returns every row ordered by id. An empty table yields an empty, non-nil slice.
func (t *Table[T]) FindAll(ctx context.Context) ([]T, error) {
	stmt, err := t.ds.stmts.prepare(ctx, t.selectAll)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select on %s: %w", t.Name(), err)
	}
	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", t.Name(), err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Warn().Err(err).Str("table", t.Name()).Msg("failed to close rows")
		}
	}()

	entities := []T{}
	for rows.Next() {
		e, err := t.mapper.Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", t.Name(), err)
		}
		entities = append(entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", t.Name(), err)
	}
	return entities, nil
}

// FindByID returns the row with the given id. found is false when no such row exists.
func (t *Table[T]) FindByID(ctx context.Context, id int64) (entity T, found bool, err error) {
	stmt, err := t.ds.stmts.prepare(ctx, t.selectByID)
	if err != nil {
		return entity, false, fmt.Errorf("failed to prepare select on %s: %w", t.Name(), err)
	}
	entity, err = t.mapper.Scan(stmt.QueryRowContext(ctx, id))
	if err != nil {
		var zero T
		if errors.Is(err, sql.ErrNoRows) {
			return zero, false, nil
		}
		return zero, false, fmt.Errorf("failed to find %s %d: %w", t.Name(), id, err)
	}
	return entity, true, nil
}

// Insert writes a new row and stores the assigned id back into entity.
func (t *Table[T]) Insert(ctx context.Context, entity *T) error {
	stmt, err := t.ds.stmts.prepare(ctx, t.insert)
	if err != nil {
		return fmt.Errorf("failed to prepare insert on %s: %w", t.Name(), err)
	}
	var id int64
	if err := stmt.QueryRowContext(ctx, t.mapper.Values(*entity)...).Scan(&id); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", t.Name(), err)
	}
	t.mapper.SetID(entity, id)
	return nil
}

// Update replaces every mapped column of the row identified by entity's id.
func (t *Table[T]) Update(ctx context.Context, entity T) error {
	stmt, err := t.ds.stmts.prepare(ctx, t.update)
	if err != nil {
		return fmt.Errorf("failed to prepare update on %s: %w", t.Name(), err)
	}
	args := append(t.mapper.Values(entity), t.mapper.ID(entity))
	if _, err := stmt.ExecContext(ctx, args...); err != nil {
		return fmt.Errorf("failed to update %s %d: %w", t.Name(), t.mapper.ID(entity), err)
	}
	return nil
}

// Delete removes the row identified by entity's id. Dependent rows follow the schema's cascade rules.
func (t *Table[T]) Delete(ctx context.Context, entity T) error {
	stmt, err := t.ds.stmts.prepare(ctx, t.delete)
	if err != nil {
		return fmt.Errorf("failed to prepare delete on %s: %w", t.Name(), err)
	}
	if _, err := stmt.ExecContext(ctx, t.mapper.ID(entity)); err != nil {
		return fmt.Errorf("failed to delete %s %d: %w", t.Name(), t.mapper.ID(entity), err)
	}
	return nil
}
