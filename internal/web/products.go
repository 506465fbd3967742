package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/jbweber/homelab/shelf/internal/crud"
	"github.com/jbweber/homelab/shelf/internal/domain"
)

// Prefix is where the product pages are mounted.
const Prefix = "/products"

// Products serves the product pages. Mutations use post/redirect/get.
type Products struct {
	products   *crud.Orchestrator[domain.Product]
	categories *crud.Orchestrator[domain.Category]
	views      *Engine
}

// NewProducts creates the product page handlers.
func NewProducts(products *crud.Orchestrator[domain.Product], categories *crud.Orchestrator[domain.Category], views *Engine) *Products {
	return &Products{products: products, categories: categories, views: views}
}

// RegisterRoutes registers the product pages on r.
func (h *Products) RegisterRoutes(r chi.Router) {
	r.Route(Prefix, func(r chi.Router) {
		r.Get("/", h.Index)
		r.Get("/details", h.Details)
		r.Get("/details/{id}", h.Details)
		r.Get("/create", h.CreateForm)
		r.Post("/create", h.Create)
		r.Get("/edit", h.EditForm)
		r.Get("/edit/{id}", h.EditForm)
		r.Post("/edit/{id}", h.Edit)
		r.Get("/delete", h.DeleteForm)
		r.Get("/delete/{id}", h.DeleteForm)
		r.Post("/delete/{id}", h.DeleteConfirmed)
	})
}

// productRow is a product with its category name resolved for display.
type productRow struct {
	domain.Product
	Category string
}

type page struct {
	Title      string
	Rows       []productRow
	Row        productRow
	Form       productForm
	Errors     crud.FieldErrors
	Categories []domain.Category
	Action     string
	Message    string
}

// Index lists every product.
func (h *Products) Index(w http.ResponseWriter, r *http.Request) {
	outcome := h.products.List(r.Context())
	if outcome.Kind != crud.KindSuccess {
		h.fail(w, r, outcome.Kind, outcome.Err)
		return
	}

	names, ok := h.categoryNames(w, r)
	if !ok {
		return
	}
	rows := make([]productRow, len(outcome.Entities))
	for i, p := range outcome.Entities {
		rows[i] = newRow(p, names)
	}
	h.render(w, r, http.StatusOK, "index", page{Title: "Products", Rows: rows})
}

// Details shows one product. Without an id it goes back to the index.
func (h *Products) Details(w http.ResponseWriter, r *http.Request) {
	id, present, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if !present {
		http.Redirect(w, r, Prefix, http.StatusSeeOther)
		return
	}

	outcome := h.products.Get(r.Context(), id)
	if outcome.Kind != crud.KindSuccess {
		h.fail(w, r, outcome.Kind, outcome.Err)
		return
	}
	h.renderEntity(w, r, "details", "Details", outcome.Entity)
}

// CreateForm shows an empty product form.
func (h *Products) CreateForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, "Create", Prefix+"/create", productForm{}, nil)
}

// Create stores a submitted product.
func (h *Products) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Bad request")
		return
	}

	product, form, binding := bindProduct(r)
	form.ID = ""
	product.ID = 0

	outcome := h.products.Create(r.Context(), product, binding)
	switch outcome.Kind {
	case crud.KindCreated:
		http.Redirect(w, r, Prefix, http.StatusSeeOther)
	case crud.KindInvalidInput:
		h.renderForm(w, r, http.StatusUnprocessableEntity, "Create", Prefix+"/create", form, outcome.FieldErrors())
	default:
		h.fail(w, r, outcome.Kind, outcome.Err)
	}
}

// EditForm shows the form for an existing product. Without an id it goes back to the index.
func (h *Products) EditForm(w http.ResponseWriter, r *http.Request) {
	id, present, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if !present {
		http.Redirect(w, r, Prefix, http.StatusSeeOther)
		return
	}

	outcome := h.products.Get(r.Context(), id)
	if outcome.Kind != crud.KindSuccess {
		h.fail(w, r, outcome.Kind, outcome.Err)
		return
	}
	h.renderForm(w, r, http.StatusOK, "Edit", editAction(id), formFromProduct(outcome.Entity), nil)
}

// Edit replaces a product with the submitted form. The hidden id field must match the route.
func (h *Products) Edit(w http.ResponseWriter, r *http.Request) {
	id, _, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Bad request")
		return
	}

	product, form, binding := bindProduct(r)

	outcome := h.products.Update(r.Context(), id, product, binding)
	switch outcome.Kind {
	case crud.KindNoContent:
		http.Redirect(w, r, Prefix, http.StatusSeeOther)
	case crud.KindInvalidInput:
		h.renderForm(w, r, http.StatusUnprocessableEntity, "Edit", editAction(id), form, outcome.FieldErrors())
	default:
		h.fail(w, r, outcome.Kind, outcome.Err)
	}
}

// DeleteForm asks for confirmation before deleting. A missing id is not found.
func (h *Products) DeleteForm(w http.ResponseWriter, r *http.Request) {
	id, present, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if !present {
		h.renderError(w, r, http.StatusNotFound, "Product not found")
		return
	}

	outcome := h.products.RequestDelete(r.Context(), id)
	if outcome.Kind != crud.KindConfirm {
		h.fail(w, r, outcome.Kind, outcome.Err)
		return
	}
	h.renderEntity(w, r, "delete", "Delete", outcome.Entity)
}

// DeleteConfirmed deletes the product and returns to the index, even if it was already gone.
func (h *Products) DeleteConfirmed(w http.ResponseWriter, r *http.Request) {
	id, _, ok := h.pathID(w, r)
	if !ok {
		return
	}

	outcome := h.products.CommitDelete(r.Context(), id)
	if outcome.Kind != crud.KindNoContent {
		h.fail(w, r, outcome.Kind, outcome.Err)
		return
	}
	http.Redirect(w, r, Prefix, http.StatusSeeOther)
}

// pathID reads the optional {id} parameter. present is false when the route has none;
// ok is false when a response has already been written for a malformed id.
func (h *Products) pathID(w http.ResponseWriter, r *http.Request) (id int64, present, ok bool) {
	raw := chi.URLParam(r, "id")
	if raw == "" {
		return 0, false, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Invalid product ID")
		return 0, true, false
	}
	return id, true, true
}

func (h *Products) categoryNames(w http.ResponseWriter, r *http.Request) (map[int64]string, bool) {
	outcome := h.categories.List(r.Context())
	if outcome.Kind != crud.KindSuccess {
		h.fail(w, r, outcome.Kind, outcome.Err)
		return nil, false
	}
	names := make(map[int64]string, len(outcome.Entities))
	for _, c := range outcome.Entities {
		names[c.ID] = c.Name
	}
	return names, true
}

func (h *Products) renderEntity(w http.ResponseWriter, r *http.Request, name, title string, product domain.Product) {
	names, ok := h.categoryNames(w, r)
	if !ok {
		return
	}
	h.render(w, r, http.StatusOK, name, page{Title: title, Row: newRow(product, names)})
}

func (h *Products) renderForm(w http.ResponseWriter, r *http.Request, status int, title, action string, form productForm, errs crud.FieldErrors) {
	outcome := h.categories.List(r.Context())
	if outcome.Kind != crud.KindSuccess {
		h.fail(w, r, outcome.Kind, outcome.Err)
		return
	}
	h.render(w, r, status, "form", page{
		Title:      title,
		Form:       form,
		Errors:     errs,
		Categories: outcome.Entities,
		Action:     action,
	})
}

// fail renders the page for an outcome that is not the handler's success path.
func (h *Products) fail(w http.ResponseWriter, r *http.Request, kind crud.Kind, err error) {
	switch kind {
	case crud.KindNotFound:
		h.renderError(w, r, http.StatusNotFound, "Product not found")
	case crud.KindBadRequest:
		h.renderError(w, r, http.StatusBadRequest, "The product id in the form does not match the page")
	default:
		hlog.FromRequest(r).Error().Err(err).Str("outcome", kind.String()).Msg("request failed")
		h.renderError(w, r, http.StatusInternalServerError, "Something went wrong. Please try again later.")
	}
}

func (h *Products) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.render(w, r, status, "error", page{Title: http.StatusText(status), Message: message})
}

func (h *Products) render(w http.ResponseWriter, r *http.Request, status int, name string, data page) {
	if err := h.views.Render(w, status, name, data); err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("template", name).Msg("template render failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func newRow(p domain.Product, categoryNames map[int64]string) productRow {
	row := productRow{Product: p}
	if p.CategoryID != nil {
		row.Category = categoryNames[*p.CategoryID]
	}
	return row
}

func editAction(id int64) string {
	return Prefix + "/edit/" + strconv.FormatInt(id, 10)
}
