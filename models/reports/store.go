package reports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tradedesk/portal_backend/models"
)

// Store is the read side the report service aggregates over. Every method that
// touches company-owned rows takes the request's scope.
type Store interface {
	// ListOrders returns orders created in rng with user, company, items and payments loaded.
	ListOrders(ctx context.Context, scope models.Scope, rng DateRange, excludeCancelled bool) ([]models.Order, error)
	// DailySales groups non-cancelled orders in rng by UTC calendar date.
	DailySales(ctx context.Context, scope models.Scope, rng DateRange) ([]DailySales, error)
	// CompanySales groups non-cancelled orders in rng by company, highest revenue first.
	CompanySales(ctx context.Context, scope models.Scope, rng DateRange) ([]CompanySales, error)
	// TopProducts ranks products by line revenue of non-cancelled orders in rng.
	TopProducts(ctx context.Context, scope models.Scope, rng DateRange, limit int) ([]ProductRevenue, error)
	// ListProducts returns the whole catalogue with categories.
	ListProducts(ctx context.Context) ([]models.Product, error)
	// OrderItemCounts counts order lines per product across all time.
	OrderItemCounts(ctx context.Context, scope models.Scope) (map[string]int64, error)
	// ProductSales totals quantities and line revenue per product for non-cancelled orders in rng.
	ProductSales(ctx context.Context, scope models.Scope, rng DateRange) ([]ProductSalesTotal, error)
	// ListCustomers returns buyers with their orders in rng loaded.
	ListCustomers(ctx context.Context, scope models.Scope, rng DateRange) ([]models.User, error)
	// ListAuditLogs returns at most limit entries in rng, newest first.
	ListAuditLogs(ctx context.Context, rng DateRange, limit int) ([]models.AuditLog, error)
}

type DailySales struct {
	Date              string          `json:"date"`
	OrderCount        int64           `json:"orderCount"`
	Revenue           decimal.Decimal `json:"revenue"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`
}

type CompanySales struct {
	CompanyId   *string         `json:"companyId"`
	CompanyName string          `json:"companyName"`
	OrderCount  int64           `json:"orderCount"`
	Revenue     decimal.Decimal `json:"revenue"`
}

type ProductRevenue struct {
	ProductId   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Sku         string          `json:"sku"`
	Quantity    int64           `json:"quantity"`
	Revenue     decimal.Decimal `json:"revenue"`
}

type ProductSalesTotal struct {
	ProductId string
	TotalSold int64
	Revenue   decimal.Decimal
	LastSold  *time.Time
}
