package reports

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tradedesk/portal_backend/models"
)

var errBoom = errors.New("boom")

// fakeStore answers Store queries from memory, filtering with the same scope and
// range rules the SQL applies.
type fakeStore struct {
	orders    []models.Order
	products  []models.Product
	customers []models.User
	logs      []models.AuditLog
	failOn    string

	mu     sync.Mutex
	calls  map[string]int
	scopes []models.Scope
}

func (f *fakeStore) record(method string, scope *models.Scope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[method]++
	if scope != nil {
		f.scopes = append(f.scopes, *scope)
	}
	if f.failOn == method {
		return errBoom
	}
	return nil
}

func (f *fakeStore) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeStore) seenScopes() []models.Scope {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Scope(nil), f.scopes...)
}

func (f *fakeStore) scopedOrders(scope models.Scope, rng *DateRange, excludeCancelled bool) []models.Order {
	var out []models.Order
	for _, o := range f.orders {
		if !scope.Allows(o.CompanyId) {
			continue
		}
		if rng != nil && !rng.Contains(o.CreatedAt) {
			continue
		}
		if excludeCancelled && !o.Status.CountsAsRevenue() {
			continue
		}
		out = append(out, o)
	}
	return out
}

func (f *fakeStore) ListOrders(ctx context.Context, scope models.Scope, rng DateRange, excludeCancelled bool) ([]models.Order, error) {
	if err := f.record("ListOrders", &scope); err != nil {
		return nil, err
	}
	orders := f.scopedOrders(scope, &rng, excludeCancelled)
	sort.SliceStable(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders, nil
}

func (f *fakeStore) DailySales(ctx context.Context, scope models.Scope, rng DateRange) ([]DailySales, error) {
	if err := f.record("DailySales", &scope); err != nil {
		return nil, err
	}
	byDay := map[string]*DailySales{}
	var days []string
	for _, o := range f.scopedOrders(scope, &rng, true) {
		day := o.CreatedAt.UTC().Format(time.DateOnly)
		d, ok := byDay[day]
		if !ok {
			d = &DailySales{Date: day, Revenue: decimal.Zero}
			byDay[day] = d
			days = append(days, day)
		}
		d.OrderCount++
		d.Revenue = d.Revenue.Add(o.Total)
	}
	sort.Strings(days)
	out := make([]DailySales, 0, len(days))
	for _, day := range days {
		d := byDay[day]
		d.AverageOrderValue = averageOf(d.Revenue, int(d.OrderCount))
		out = append(out, *d)
	}
	return out, nil
}

func (f *fakeStore) CompanySales(ctx context.Context, scope models.Scope, rng DateRange) ([]CompanySales, error) {
	if err := f.record("CompanySales", &scope); err != nil {
		return nil, err
	}
	byCompany := map[string]*CompanySales{}
	var keys []string
	for _, o := range f.scopedOrders(scope, &rng, true) {
		key := ""
		if o.CompanyId != nil {
			key = *o.CompanyId
		}
		c, ok := byCompany[key]
		if !ok {
			c = &CompanySales{CompanyId: o.CompanyId, CompanyName: o.CompanyName(), Revenue: decimal.Zero}
			byCompany[key] = c
			keys = append(keys, key)
		}
		c.OrderCount++
		c.Revenue = c.Revenue.Add(o.Total)
	}
	out := make([]CompanySales, 0, len(keys))
	for _, k := range keys {
		out = append(out, *byCompany[k])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Revenue.GreaterThan(out[j].Revenue) })
	return out, nil
}

func (f *fakeStore) lines(orders []models.Order) map[string]*ProductRevenue {
	byProduct := map[string]*ProductRevenue{}
	for _, o := range orders {
		for _, it := range o.Items {
			p, ok := byProduct[it.ProductId]
			if !ok {
				p = &ProductRevenue{ProductId: it.ProductId, Revenue: decimal.Zero}
				if it.Product != nil {
					p.ProductName = it.Product.Name
					p.Sku = it.Product.Sku
				}
				byProduct[it.ProductId] = p
			}
			p.Quantity += int64(it.Quantity)
			p.Revenue = p.Revenue.Add(it.LineTotal())
		}
	}
	return byProduct
}

func (f *fakeStore) TopProducts(ctx context.Context, scope models.Scope, rng DateRange, limit int) ([]ProductRevenue, error) {
	if err := f.record("TopProducts", &scope); err != nil {
		return nil, err
	}
	out := []ProductRevenue{}
	for _, p := range f.lines(f.scopedOrders(scope, &rng, true)) {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Revenue.GreaterThan(out[j].Revenue) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	if err := f.record("ListProducts", nil); err != nil {
		return nil, err
	}
	return append([]models.Product(nil), f.products...), nil
}

func (f *fakeStore) OrderItemCounts(ctx context.Context, scope models.Scope) (map[string]int64, error) {
	if err := f.record("OrderItemCounts", &scope); err != nil {
		return nil, err
	}
	counts := map[string]int64{}
	for _, o := range f.scopedOrders(scope, nil, false) {
		for _, it := range o.Items {
			counts[it.ProductId]++
		}
	}
	return counts, nil
}

func (f *fakeStore) ProductSales(ctx context.Context, scope models.Scope, rng DateRange) ([]ProductSalesTotal, error) {
	if err := f.record("ProductSales", &scope); err != nil {
		return nil, err
	}
	byProduct := map[string]*ProductSalesTotal{}
	for _, o := range f.scopedOrders(scope, &rng, true) {
		for _, it := range o.Items {
			p, ok := byProduct[it.ProductId]
			if !ok {
				p = &ProductSalesTotal{ProductId: it.ProductId, Revenue: decimal.Zero}
				byProduct[it.ProductId] = p
			}
			p.TotalSold += int64(it.Quantity)
			p.Revenue = p.Revenue.Add(it.LineTotal())
			at := o.CreatedAt
			if p.LastSold == nil || at.After(*p.LastSold) {
				p.LastSold = &at
			}
		}
	}
	out := make([]ProductSalesTotal, 0, len(byProduct))
	for _, p := range byProduct {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeStore) ListCustomers(ctx context.Context, scope models.Scope, rng DateRange) ([]models.User, error) {
	if err := f.record("ListCustomers", &scope); err != nil {
		return nil, err
	}
	var out []models.User
	for _, u := range f.customers {
		if u.Role != models.UserRoleBuyer || !scope.Allows(u.CompanyId) {
			continue
		}
		u.Orders = nil
		for _, o := range f.scopedOrders(scope, &rng, false) {
			if o.UserId == u.ID {
				u.Orders = append(u.Orders, o)
			}
		}
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeStore) ListAuditLogs(ctx context.Context, rng DateRange, limit int) ([]models.AuditLog, error) {
	if err := f.record("ListAuditLogs", nil); err != nil {
		return nil, err
	}
	var out []models.AuditLog
	for _, l := range f.logs {
		if rng.Contains(l.CreatedAt) {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// memoryCache is a Cache backed by a map.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	getErr  error
	locks   int
}

func (c *memoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	b, ok := c.entries[key]
	return b, ok, nil
}

func (c *memoryCache) Set(ctx context.Context, key string, body []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = map[string][]byte{}
	}
	c.entries[key] = body
	return nil
}

func (c *memoryCache) Lock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	c.mu.Lock()
	c.locks++
	c.mu.Unlock()
	return func() {}, nil
}
