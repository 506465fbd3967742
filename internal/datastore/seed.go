package datastore

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jbweber/homelab/shelf/internal/domain"
)

// Seed inserts the demo catalog when no categories exist yet.
// It reports whether anything was written.
func Seed(ctx context.Context, ds *Datastore) (bool, error) {
	categories := ds.Categories()
	existing, err := categories.FindAll(ctx)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}

	pens := domain.Category{Name: "Kalemler"}
	notebooks := domain.Category{Name: "Defterler"}
	for _, c := range []*domain.Category{&pens, &notebooks} {
		if err := categories.Insert(ctx, c); err != nil {
			return false, fmt.Errorf("failed to seed category %q: %w", c.Name, err)
		}
	}

	products := []domain.Product{
		{Name: "Kalem", Price: decimal.NewFromInt(100), Stock: 50, Color: "Kırmızı", CategoryID: &pens.ID},
		{Name: "Defter", Price: decimal.NewFromInt(200), Stock: 500, Color: "Mavi", CategoryID: &notebooks.ID},
	}
	table := ds.Products()
	for i := range products {
		if err := table.Insert(ctx, &products[i]); err != nil {
			return false, fmt.Errorf("failed to seed product %q: %w", products[i].Name, err)
		}
	}

	return true, nil
}
