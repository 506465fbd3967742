package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jbweber/homelab/shelf/internal/crud"
	"github.com/jbweber/homelab/shelf/internal/domain"
)

// productForm holds the raw submitted values so a rejected form is redisplayed exactly
// as the user typed it.
type productForm struct {
	ID         string
	Name       string
	Price      string
	Stock      string
	Color      string
	CategoryID string
}

// Selected reports whether the category option with id should be preselected.
func (f productForm) Selected(id int64) bool {
	return f.CategoryID == strconv.FormatInt(id, 10)
}

func formFromProduct(p domain.Product) productForm {
	f := productForm{
		Name:  p.Name,
		Price: p.Price.StringFixed(2),
		Stock: strconv.Itoa(p.Stock),
		Color: p.Color,
	}
	if p.ID != 0 {
		f.ID = strconv.FormatInt(p.ID, 10)
	}
	if p.CategoryID != nil {
		f.CategoryID = strconv.FormatInt(*p.CategoryID, 10)
	}
	return f
}

// bindProduct converts a submitted form into a Product. Values that cannot be converted
// are reported in the returned field errors and left at their zero value.
func bindProduct(r *http.Request) (domain.Product, productForm, crud.FieldErrors) {
	form := productForm{
		ID:         strings.TrimSpace(r.PostFormValue("id")),
		Name:       strings.TrimSpace(r.PostFormValue("name")),
		Price:      strings.TrimSpace(r.PostFormValue("price")),
		Stock:      strings.TrimSpace(r.PostFormValue("stock")),
		Color:      strings.TrimSpace(r.PostFormValue("color")),
		CategoryID: strings.TrimSpace(r.PostFormValue("category_id")),
	}

	errs := crud.FieldErrors{}
	product := domain.Product{Name: form.Name, Color: form.Color}

	if form.ID != "" {
		// an unparseable id stays 0 and fails the route consistency check
		product.ID, _ = strconv.ParseInt(form.ID, 10, 64)
	}

	switch price, err := decimal.NewFromString(form.Price); {
	case form.Price == "":
		errs["price"] = "is required"
	case err != nil:
		errs["price"] = "must be a number"
	default:
		product.Price = price
	}

	switch stock, err := strconv.Atoi(form.Stock); {
	case form.Stock == "":
		errs["stock"] = "is required"
	case err != nil:
		errs["stock"] = "must be a whole number"
	default:
		product.Stock = stock
	}

	if form.CategoryID != "" {
		id, err := strconv.ParseInt(form.CategoryID, 10, 64)
		if err != nil || id <= 0 {
			errs["category_id"] = "is not a valid category"
		} else {
			product.CategoryID = &id
		}
	}

	return product, form, errs
}
