package reports

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/tradedesk/portal_backend/models"
)

type InventorySummary struct {
	TotalProducts       int             `json:"totalProducts"`
	ActiveProducts      int             `json:"activeProducts"`
	LowStockItems       int             `json:"lowStockItems"`
	OutOfStockItems     int             `json:"outOfStockItems"`
	TotalInventoryValue decimal.Decimal `json:"totalInventoryValue"`
}

type InventoryRow struct {
	Id             string               `json:"id"`
	Name           string               `json:"name"`
	Sku            string               `json:"sku"`
	Category       string               `json:"category"`
	Price          decimal.Decimal      `json:"price"`
	Stock          int                  `json:"stock"`
	MinStock       int                  `json:"minStock"`
	Status         models.ProductStatus `json:"status"`
	LowStock       bool                 `json:"lowStock"`
	OutOfStock     bool                 `json:"outOfStock"`
	InventoryValue decimal.Decimal      `json:"inventoryValue"`
	OrderItemCount int64                `json:"orderItemCount"`
}

type InventoryPayload struct {
	Summary  InventorySummary `json:"summary"`
	Products []InventoryRow   `json:"products"`
}

var inventoryHeaders = []string{"Name", "SKU", "Category", "Price", "Stock", "Min Stock", "Status", "Inventory Value", "Times Ordered"}

// inventoryReport covers the whole catalogue. Order item counts are all-time and
// limited to the caller's scope.
func (s *Service) inventoryReport(ctx context.Context, p *plan) (any, Table, error) {
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, Table{}, err
	}
	counts, err := s.store.OrderItemCounts(ctx, p.scope)
	if err != nil {
		return nil, Table{}, err
	}

	summary := InventorySummary{TotalProducts: len(products), TotalInventoryValue: decimal.Zero}
	rows := make([]InventoryRow, 0, len(products))
	table := Table{Headers: inventoryHeaders, Data: make([][]any, 0, len(products))}
	for _, prod := range products {
		if prod.Status == models.ProductStatusActive {
			summary.ActiveProducts++
		}
		if prod.IsLowStock() {
			summary.LowStockItems++
		}
		if prod.IsOutOfStock() {
			summary.OutOfStockItems++
		}
		value := prod.InventoryValue()
		summary.TotalInventoryValue = summary.TotalInventoryValue.Add(value)

		row := InventoryRow{
			Id:             prod.ID,
			Name:           prod.Name,
			Sku:            prod.Sku,
			Category:       prod.CategoryName(),
			Price:          money(prod.Price),
			Stock:          prod.Stock,
			MinStock:       prod.MinStock,
			Status:         prod.Status,
			LowStock:       prod.IsLowStock(),
			OutOfStock:     prod.IsOutOfStock(),
			InventoryValue: money(value),
			OrderItemCount: counts[prod.ID],
		}
		rows = append(rows, row)
		table.Data = append(table.Data, []any{
			row.Name, row.Sku, row.Category, row.Price, row.Stock, row.MinStock,
			string(row.Status), row.InventoryValue, row.OrderItemCount,
		})
	}
	summary.TotalInventoryValue = money(summary.TotalInventoryValue)

	return InventoryPayload{Summary: summary, Products: rows}, table, nil
}
