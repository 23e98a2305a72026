package reports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tradedesk/portal_backend/models"
	"gorm.io/gorm"
)

// GormStore runs the report queries against the shared connection pool.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) ListOrders(ctx context.Context, scope models.Scope, rng DateRange, excludeCancelled bool) ([]models.Order, error) {
	q := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Scopes(scope.Orders(), models.CreatedBetween("orders", rng.From, rng.To)).
		Preload("User", models.WithoutCompanyGuard).
		Preload("Company").
		Preload("Items").
		Preload("Items.Product").
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("payments.created_at ASC")
		}).
		Order("orders.created_at DESC")
	if excludeCancelled {
		q = q.Scopes(models.RevenueOrders())
	}

	var orders []models.Order
	if err := q.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *GormStore) DailySales(ctx context.Context, scope models.Scope, rng DateRange) ([]DailySales, error) {
	var rows []struct {
		Day        time.Time
		OrderCount int64
		Revenue    decimal.Decimal
	}
	if err := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("DATE(orders.created_at) AS day, COUNT(orders.id) AS order_count, COALESCE(SUM(orders.total), 0) AS revenue").
		Scopes(scope.Orders(), models.CreatedBetween("orders", rng.From, rng.To), models.RevenueOrders()).
		Group("DATE(orders.created_at)").
		Order("day ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	results := make([]DailySales, 0, len(rows))
	for _, r := range rows {
		results = append(results, DailySales{
			Date:              r.Day.UTC().Format(time.DateOnly),
			OrderCount:        r.OrderCount,
			Revenue:           r.Revenue,
			AverageOrderValue: averageOf(r.Revenue, int(r.OrderCount)),
		})
	}
	return results, nil
}

func (s *GormStore) CompanySales(ctx context.Context, scope models.Scope, rng DateRange) ([]CompanySales, error) {
	var results []CompanySales
	if err := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("orders.company_id AS company_id, COALESCE(companies.name, '') AS company_name, COUNT(orders.id) AS order_count, COALESCE(SUM(orders.total), 0) AS revenue").
		Joins("LEFT JOIN companies ON companies.id = orders.company_id").
		Scopes(scope.Orders(), models.CreatedBetween("orders", rng.From, rng.To), models.RevenueOrders()).
		Group("orders.company_id, companies.name").
		Order("revenue DESC").
		Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *GormStore) TopProducts(ctx context.Context, scope models.Scope, rng DateRange, limit int) ([]ProductRevenue, error) {
	var results []ProductRevenue
	if err := s.orderLines(ctx, scope).
		Select("order_items.product_id AS product_id, products.name AS product_name, products.sku AS sku, SUM(order_items.quantity) AS quantity, SUM(order_items.quantity * order_items.price) AS revenue").
		Joins("JOIN products ON products.id = order_items.product_id").
		Scopes(models.CreatedBetween("orders", rng.From, rng.To), models.RevenueOrders()).
		Group("order_items.product_id, products.name, products.sku").
		Order("revenue DESC").
		Limit(limit).
		Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *GormStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := s.db.WithContext(ctx).
		Preload("Category").
		Order("products.name ASC").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (s *GormStore) OrderItemCounts(ctx context.Context, scope models.Scope) (map[string]int64, error) {
	var rows []struct {
		ProductId string
		ItemCount int64
	}
	if err := s.orderLines(ctx, scope).
		Select("order_items.product_id AS product_id, COUNT(order_items.id) AS item_count").
		Group("order_items.product_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.ProductId] = r.ItemCount
	}
	return counts, nil
}

func (s *GormStore) ProductSales(ctx context.Context, scope models.Scope, rng DateRange) ([]ProductSalesTotal, error) {
	var results []ProductSalesTotal
	if err := s.orderLines(ctx, scope).
		Select("order_items.product_id AS product_id, SUM(order_items.quantity) AS total_sold, SUM(order_items.quantity * order_items.price) AS revenue, MAX(orders.created_at) AS last_sold").
		Scopes(models.CreatedBetween("orders", rng.From, rng.To), models.RevenueOrders()).
		Group("order_items.product_id").
		Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *GormStore) ListCustomers(ctx context.Context, scope models.Scope, rng DateRange) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("users.role = ?", string(models.UserRoleBuyer)).
		Scopes(scope.Users()).
		Preload("Company").
		Preload("Orders", func(db *gorm.DB) *gorm.DB {
			return db.Scopes(scope.Orders(), models.CreatedBetween("orders", rng.From, rng.To)).
				Order("orders.created_at DESC")
		}).
		Order("users.name ASC").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *GormStore) ListAuditLogs(ctx context.Context, rng DateRange, limit int) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	if err := s.db.WithContext(ctx).
		Model(&models.AuditLog{}).
		Scopes(models.CreatedBetween("audit_logs", rng.From, rng.To)).
		Order("audit_logs.created_at DESC").
		Limit(limit).
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// orderLines starts an order_items query joined to its orders and filtered to scope.
func (s *GormStore) orderLines(ctx context.Context, scope models.Scope) *gorm.DB {
	return s.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Scopes(scope.Orders())
}
