// Package api serves the catalog as a JSON API.
package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/jbweber/homelab/shelf/internal/crud"
	"github.com/jbweber/homelab/shelf/internal/domain"
)

// Prefix is where the JSON API is mounted.
const Prefix = "/api"

// API holds one JSON resource per entity.
type API struct {
	products   *Resource[domain.Product]
	categories *Resource[domain.Category]

	rateRequests int
	rateWindow   time.Duration
}

// Option configures an API.
type Option func(*API)

// WithRateLimit limits each client IP to requests per window. Zero requests disables it.
func WithRateLimit(requests int, window time.Duration) Option {
	return func(a *API) {
		a.rateRequests = requests
		a.rateWindow = window
	}
}

// NewAPI creates the JSON API over the product and category orchestrators.
func NewAPI(products *crud.Orchestrator[domain.Product], categories *crud.Orchestrator[domain.Category], opts ...Option) *API {
	a := &API{
		products:   NewResource(Prefix, products),
		categories: NewResource(Prefix, categories),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RegisterRoutes registers all API endpoints to the given chi router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route(Prefix, func(r chi.Router) {
		if a.rateRequests > 0 {
			r.Use(httprate.LimitByIP(a.rateRequests, a.rateWindow))
		}

		a.products.Register(r)
		a.categories.Register(r)
	})
}
