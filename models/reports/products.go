package reports

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/tradedesk/portal_backend/models"
)

type ProductRow struct {
	Id        string               `json:"id"`
	Name      string               `json:"name"`
	Sku       string               `json:"sku"`
	Category  string               `json:"category"`
	Price     decimal.Decimal      `json:"price"`
	Status    models.ProductStatus `json:"status"`
	TotalSold int64                `json:"totalSold"`
	Revenue   decimal.Decimal      `json:"revenue"`
	LastSold  *string              `json:"lastSold"`
}

type ProductsPayload struct {
	Products []ProductRow `json:"products"`
}

var productsHeaders = []string{"Name", "SKU", "Category", "Price", "Status", "Total Sold", "Revenue", "Last Sold"}

// productsReport joins the catalogue with in-range sales of non-cancelled orders.
// Products without sales are kept with zero totals. Highest revenue first, ties
// by name.
func (s *Service) productsReport(ctx context.Context, p *plan) (any, Table, error) {
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, Table{}, err
	}
	sales, err := s.store.ProductSales(ctx, p.scope, p.rng)
	if err != nil {
		return nil, Table{}, err
	}
	byProduct := make(map[string]ProductSalesTotal, len(sales))
	for _, ps := range sales {
		byProduct[ps.ProductId] = ps
	}

	rows := make([]ProductRow, 0, len(products))
	for _, prod := range products {
		row := ProductRow{
			Id:       prod.ID,
			Name:     prod.Name,
			Sku:      prod.Sku,
			Category: prod.CategoryName(),
			Price:    money(prod.Price),
			Status:   prod.Status,
			Revenue:  decimal.Zero,
		}
		if ps, ok := byProduct[prod.ID]; ok {
			row.TotalSold = ps.TotalSold
			row.Revenue = money(ps.Revenue)
			if ps.LastSold != nil {
				at := ps.LastSold.UTC().Format(timestampLayout)
				row.LastSold = &at
			}
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if c := rows[i].Revenue.Cmp(rows[j].Revenue); c != 0 {
			return c > 0
		}
		return rows[i].Name < rows[j].Name
	})

	table := Table{Headers: productsHeaders, Data: make([][]any, 0, len(rows))}
	for _, row := range rows {
		var last any
		if row.LastSold != nil {
			last = *row.LastSold
		}
		table.Data = append(table.Data, []any{
			row.Name, row.Sku, row.Category, row.Price, string(row.Status), row.TotalSold, row.Revenue, last,
		})
	}

	return ProductsPayload{Products: rows}, table, nil
}
