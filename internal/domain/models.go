package domain

import "github.com/shopspring/decimal"

// Category groups products. Deleting a category removes its products.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name" validate:"required,max=100"`
}

// Product is a catalog item, optionally assigned to a Category.
type Product struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name" validate:"required,max=200"`
	Price      decimal.Decimal `json:"price" validate:"nonnegative,scale=2,intdigits=16"` // decimal(18,2)
	Stock      int             `json:"stock"`
	Color      string          `json:"color" validate:"max=50"`
	CategoryID *int64          `json:"category_id,omitempty"`
}

// GetID returns the store-assigned identifier.
func (c Category) GetID() int64 { return c.ID }

// GetID returns the store-assigned identifier.
func (p Product) GetID() int64 { return p.ID }
