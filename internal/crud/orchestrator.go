// Package crud turns create/read/update/delete requests into typed outcomes.
//
// An Orchestrator holds no per-request state: every call is one synchronous unit of
// work against its repository, and every mutating repository call happens at most once.
package crud

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/jbweber/homelab/shelf/internal/domain"
	"github.com/jbweber/homelab/shelf/internal/repository"
)

// Entity is anything with a store-assigned integer identifier.
type Entity interface {
	GetID() int64
}

// Rule checks input against stored state, e.g. that a referenced row exists. Problems
// are returned as field errors; err is a store failure.
type Rule[T any] func(ctx context.Context, entity T) (FieldErrors, error)

// Option configures an Orchestrator.
type Option[T Entity] func(*Orchestrator[T])

// WithRule adds a rule that Create and Update run alongside struct validation.
func WithRule[T Entity](rule Rule[T]) Option[T] {
	return func(o *Orchestrator[T]) {
		o.rules = append(o.rules, rule)
	}
}

// Orchestrator applies existence, consistency and validation rules on top of a Repository.
type Orchestrator[T Entity] struct {
	name     string
	repo     repository.Repository[T]
	validate *validator.Validate
	rules    []Rule[T]
	logger   zerolog.Logger
}

// NewOrchestrator creates an orchestrator for the entity called name (used in logs and errors).
func NewOrchestrator[T Entity](name string, repo repository.Repository[T], logger zerolog.Logger, opts ...Option[T]) *Orchestrator[T] {
	o := &Orchestrator[T]{
		name:     name,
		repo:     repo,
		validate: NewValidator(),
		logger:   logger.With().Str("component", "crud").Str("entity", name).Logger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// CategoryExists rejects a product whose category_id names no stored category.
func CategoryExists(categories *Orchestrator[domain.Category]) Rule[domain.Product] {
	return func(ctx context.Context, p domain.Product) (FieldErrors, error) {
		if p.CategoryID == nil {
			return nil, nil
		}
		ok, err := categories.Exists(ctx, *p.CategoryID)
		if err != nil || ok {
			return nil, err
		}
		return FieldErrors{"category_id": "is not a valid category"}, nil
	}
}

// Name returns the entity name the orchestrator was created with.
func (o *Orchestrator[T]) Name() string {
	return o.name
}

// List returns every entity.
func (o *Orchestrator[T]) List(ctx context.Context) Outcome[T] {
	entities, err := o.repo.GetAll(ctx)
	if err != nil {
		return o.storeFailure("list", 0, err)
	}
	if entities == nil {
		entities = []T{}
	}
	return Outcome[T]{Kind: KindSuccess, Entities: entities}
}

// Get returns the entity with id, or NotFound.
func (o *Orchestrator[T]) Get(ctx context.Context, id int64) Outcome[T] {
	entity, ok, err := o.repo.GetByID(ctx, id)
	if err != nil {
		return o.storeFailure("get", id, err)
	}
	if !ok {
		return o.notFound(id)
	}
	return Outcome[T]{Kind: KindSuccess, Entity: entity}
}

// Exists reports whether an entity with id is stored.
func (o *Orchestrator[T]) Exists(ctx context.Context, id int64) (bool, error) {
	_, ok, err := o.repo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return ok, nil
}

// Create persists entity. binding carries problems the caller found while decoding the
// request; together with struct validation they short-circuit to InvalidInput before
// the repository is touched.
func (o *Orchestrator[T]) Create(ctx context.Context, entity T, binding FieldErrors) Outcome[T] {
	if outcome, ok := o.verify(ctx, "create", 0, entity, binding); !ok {
		return outcome
	}

	if err := o.repo.Create(ctx, &entity); err != nil {
		return o.storeFailure("create", 0, err)
	}

	o.logger.Debug().Int64("id", entity.GetID()).Msg("created")
	return Outcome[T]{Kind: KindCreated, Entity: entity, ID: entity.GetID()}
}

// Update replaces the entity addressed by routeID with entity.
//
// The checks run in order: the route and body ids must agree (BadRequest), the input must
// be valid (InvalidInput, echoing entity back), and the target must exist (NotFound).
// Only then is Repository.Update called, exactly once.
func (o *Orchestrator[T]) Update(ctx context.Context, routeID int64, entity T, binding FieldErrors) Outcome[T] {
	if routeID != entity.GetID() {
		return Outcome[T]{
			Kind:   KindBadRequest,
			Entity: entity,
			Err:    fmt.Errorf("%s: route id %d, body id %d: %w", o.name, routeID, entity.GetID(), ErrConsistency),
		}
	}

	if outcome, ok := o.verify(ctx, "update", routeID, entity, binding); !ok {
		return outcome
	}

	exists, err := o.Exists(ctx, routeID)
	if err != nil {
		return o.storeFailure("update", routeID, err)
	}
	if !exists {
		return o.notFound(routeID)
	}

	if err := o.repo.Update(ctx, entity); err != nil {
		return o.storeFailure("update", routeID, err)
	}
	return Outcome[T]{Kind: KindNoContent}
}

// RequestDelete is the first phase of a confirmed delete: it only loads the entity.
func (o *Orchestrator[T]) RequestDelete(ctx context.Context, id int64) Outcome[T] {
	entity, ok, err := o.repo.GetByID(ctx, id)
	if err != nil {
		return o.storeFailure("delete", id, err)
	}
	if !ok {
		return o.notFound(id)
	}
	return Outcome[T]{Kind: KindConfirm, Entity: entity}
}

// CommitDelete is the second phase of a confirmed delete. It re-reads the entity and
// deletes it if it is still there. An entity that vanished after confirmation is not an
// error: the outcome is NoContent either way and Repository.Delete is skipped.
func (o *Orchestrator[T]) CommitDelete(ctx context.Context, id int64) Outcome[T] {
	entity, ok, err := o.repo.GetByID(ctx, id)
	if err != nil {
		return o.storeFailure("delete", id, err)
	}
	if !ok {
		o.logger.Debug().Int64("id", id).Msg("already deleted")
		return Outcome[T]{Kind: KindNoContent}
	}

	if err := o.repo.Delete(ctx, entity); err != nil {
		return o.storeFailure("delete", id, err)
	}
	return Outcome[T]{Kind: KindNoContent}
}

// Delete is the single step delete used by the API: NotFound when absent, otherwise the
// entity is removed.
func (o *Orchestrator[T]) Delete(ctx context.Context, id int64) Outcome[T] {
	entity, ok, err := o.repo.GetByID(ctx, id)
	if err != nil {
		return o.storeFailure("delete", id, err)
	}
	if !ok {
		return o.notFound(id)
	}

	if err := o.repo.Delete(ctx, entity); err != nil {
		return o.storeFailure("delete", id, err)
	}
	return Outcome[T]{Kind: KindNoContent}
}

// verify merges struct validation with the rules. ok is false when outcome must be
// returned to the caller.
func (o *Orchestrator[T]) verify(ctx context.Context, op string, id int64, entity T, binding FieldErrors) (outcome Outcome[T], ok bool) {
	fields := FieldErrors{}
	if err := check(o.validate, entity, binding); err != nil {
		var verr *ValidationError
		if !errors.As(err, &verr) {
			return o.invalid(entity, err), false
		}
		fields = verr.Fields
	}

	for _, rule := range o.rules {
		found, err := rule(ctx, entity)
		if err != nil {
			return o.storeFailure(op, id, err), false
		}
		for k, msg := range found {
			if _, seen := fields[k]; !seen {
				fields[k] = msg
			}
		}
	}

	if len(fields) > 0 {
		return o.invalid(entity, &ValidationError{Fields: fields}), false
	}
	return Outcome[T]{}, true
}

func (o *Orchestrator[T]) notFound(id int64) Outcome[T] {
	return Outcome[T]{Kind: KindNotFound, Err: fmt.Errorf("%s %d: %w", o.name, id, ErrNotFound)}
}

func (o *Orchestrator[T]) invalid(entity T, err error) Outcome[T] {
	o.logger.Debug().Err(err).Msg("invalid input")
	return Outcome[T]{Kind: KindInvalidInput, Entity: entity, Err: err}
}

func (o *Orchestrator[T]) storeFailure(op string, id int64, err error) Outcome[T] {
	o.logger.Error().Err(err).Str("op", op).Int64("id", id).Msg("store failure")
	return Outcome[T]{Kind: KindStoreFailure, Err: err}
}
