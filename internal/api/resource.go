package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/jbweber/homelab/shelf/internal/crud"
)

// Resource exposes one orchestrator as a JSON collection:
//
//	GET    /{name}       list
//	POST   /{name}       create, 201 with Location
//	GET    /{name}/{id}  read one
//	PUT    /{name}/{id}  full replace, 204
//	DELETE /{name}/{id}  delete, 204
type Resource[T crud.Entity] struct {
	orch     *crud.Orchestrator[T]
	basePath string
}

// NewResource creates a resource served below prefix, e.g. /api.
func NewResource[T crud.Entity](prefix string, orch *crud.Orchestrator[T]) *Resource[T] {
	return &Resource[T]{orch: orch, basePath: prefix + "/" + orch.Name()}
}

// Register mounts the resource's routes on r, which must be rooted at the resource prefix.
func (res *Resource[T]) Register(r chi.Router) {
	r.Route("/"+res.orch.Name(), func(r chi.Router) {
		r.Get("/", res.List)
		r.Post("/", res.Create)
		r.Get("/{id}", res.Get)
		r.Put("/{id}", res.Update)
		r.Delete("/{id}", res.Delete)
	})
}

// List handles GET /{name}.
func (res *Resource[T]) List(w http.ResponseWriter, r *http.Request) {
	outcome := res.orch.List(r.Context())
	if outcome.Kind == crud.KindSuccess {
		writeJSON(w, r, http.StatusOK, outcome.Entities)
		return
	}
	res.respond(w, r, outcome)
}

// Get handles GET /{name}/{id}.
func (res *Resource[T]) Get(w http.ResponseWriter, r *http.Request) {
	id, err := routeID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	res.respond(w, r, res.orch.Get(r.Context(), id))
}

// Create handles POST /{name}.
func (res *Resource[T]) Create(w http.ResponseWriter, r *http.Request) {
	entity, binding, err := decodeEntity[T](w, r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	res.respond(w, r, res.orch.Create(r.Context(), entity, binding))
}

// Update handles PUT /{name}/{id}. The body must carry the same id as the route.
func (res *Resource[T]) Update(w http.ResponseWriter, r *http.Request) {
	id, err := routeID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	entity, binding, err := decodeEntity[T](w, r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	res.respond(w, r, res.orch.Update(r.Context(), id, entity, binding))
}

// Delete handles DELETE /{name}/{id}.
func (res *Resource[T]) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := routeID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	res.respond(w, r, res.orch.Delete(r.Context(), id))
}

func (res *Resource[T]) respond(w http.ResponseWriter, r *http.Request, outcome crud.Outcome[T]) {
	switch outcome.Kind {
	case crud.KindSuccess, crud.KindConfirm:
		writeJSON(w, r, http.StatusOK, outcome.Entity)
	case crud.KindCreated:
		w.Header().Set("Location", fmt.Sprintf("%s/%d", res.basePath, outcome.ID))
		writeJSON(w, r, http.StatusCreated, outcome.Entity)
	case crud.KindNoContent:
		w.WriteHeader(http.StatusNoContent)
	case crud.KindNotFound:
		writeError(w, r, http.StatusNotFound, outcome.Err.Error())
	case crud.KindBadRequest:
		writeError(w, r, http.StatusBadRequest, outcome.Err.Error())
	case crud.KindInvalidInput:
		writeJSON(w, r, http.StatusBadRequest, ErrorResponse{
			Error:            "validation failed",
			ValidationErrors: outcome.FieldErrors(),
			Entity:           outcome.Entity,
		})
	default:
		hlog.FromRequest(r).Error().Err(outcome.Err).Str("outcome", outcome.Kind.String()).Msg("request failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}
