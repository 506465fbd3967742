package datastore

import (
	"database/sql"

	"github.com/jbweber/homelab/shelf/internal/domain"
)

// CategoryMapper maps domain.Category onto the categories table.
type CategoryMapper struct{}

func (CategoryMapper) Table() string     { return "categories" }
func (CategoryMapper) Columns() []string { return []string{"name"} }

func (CategoryMapper) Values(c domain.Category) []any {
	return []any{c.Name}
}

func (CategoryMapper) Scan(s Scanner) (domain.Category, error) {
	var c domain.Category
	err := s.Scan(&c.ID, &c.Name)
	return c, err
}

func (CategoryMapper) ID(c domain.Category) int64         { return c.ID }
func (CategoryMapper) SetID(c *domain.Category, id int64) { c.ID = id }

// ProductMapper maps domain.Product onto the products table.
type ProductMapper struct{}

func (ProductMapper) Table() string { return "products" }

func (ProductMapper) Columns() []string {
	return []string{"name", "price", "stock", "color", "category_id"}
}

func (ProductMapper) Values(p domain.Product) []any {
	var categoryID sql.NullInt64
	if p.CategoryID != nil {
		categoryID = sql.NullInt64{Int64: *p.CategoryID, Valid: true}
	}
	return []any{p.Name, p.Price, p.Stock, p.Color, categoryID}
}

func (ProductMapper) Scan(s Scanner) (domain.Product, error) {
	var (
		p          domain.Product
		categoryID sql.NullInt64
	)
	if err := s.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.Color, &categoryID); err != nil {
		return domain.Product{}, err
	}
	if categoryID.Valid {
		id := categoryID.Int64
		p.CategoryID = &id
	}
	return p, nil
}

func (ProductMapper) ID(p domain.Product) int64         { return p.ID }
func (ProductMapper) SetID(p *domain.Product, id int64) { p.ID = id }

// Categories returns the generic table for categories.
func (ds *Datastore) Categories() *Table[domain.Category] {
	return NewTable[domain.Category](ds, CategoryMapper{})
}

// Products returns the generic table for products.
func (ds *Datastore) Products() *Table[domain.Product] {
	return NewTable[domain.Product](ds, ProductMapper{})
}
