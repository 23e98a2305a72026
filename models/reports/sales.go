package reports

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/tradedesk/portal_backend/models"
	"golang.org/x/sync/errgroup"
)

type SalesSummary struct {
	TotalOrders       int             `json:"totalOrders"`
	TotalRevenue      decimal.Decimal `json:"totalRevenue"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`
}

type SalesOrderRow struct {
	Id            string             `json:"id"`
	OrderNumber   string             `json:"orderNumber"`
	Status        models.OrderStatus `json:"status"`
	Total         decimal.Decimal    `json:"total"`
	ItemCount     int                `json:"itemCount"`
	CustomerName  string             `json:"customerName"`
	CustomerEmail string             `json:"customerEmail"`
	CompanyName   string             `json:"companyName"`
	CreatedAt     string             `json:"createdAt"`
}

type SalesPayload struct {
	Summary      SalesSummary     `json:"summary"`
	DailySales   []DailySales     `json:"dailySales"`
	CompanySales []CompanySales   `json:"companySales,omitempty"`
	TopProducts  []ProductRevenue `json:"topProducts"`
	Orders       []SalesOrderRow  `json:"orders"`
}

var salesHeaders = []string{"Order Number", "Date", "Customer", "Email", "Company", "Status", "Items", "Total"}

func (s *Service) salesReport(ctx context.Context, p *plan) (any, Table, error) {
	var (
		orders    []models.Order
		daily     []DailySales
		companies []CompanySales
		top       []ProductRevenue
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orders, err = s.store.ListOrders(gctx, p.scope, p.rng, true)
		return err
	})
	g.Go(func() error {
		var err error
		daily, err = s.store.DailySales(gctx, p.scope, p.rng)
		return err
	})
	if p.capabilities.CompanyBreakdown {
		g.Go(func() error {
			var err error
			companies, err = s.store.CompanySales(gctx, p.scope, p.rng)
			return err
		})
	}
	g.Go(func() error {
		var err error
		top, err = s.store.TopProducts(gctx, p.scope, p.rng, topProducts)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, Table{}, err
	}

	total := decimal.Zero
	count := 0
	rows := make([]SalesOrderRow, 0, len(orders))
	table := Table{Headers: salesHeaders, Data: make([][]any, 0, len(orders))}
	for _, o := range orders {
		if !o.Status.CountsAsRevenue() {
			continue
		}
		total = total.Add(o.Total)
		count++

		name, email := o.Customer()
		row := SalesOrderRow{
			Id:            o.ID,
			OrderNumber:   o.OrderNumber,
			Status:        o.Status,
			Total:         money(o.Total),
			ItemCount:     len(o.Items),
			CustomerName:  name,
			CustomerEmail: email,
			CompanyName:   o.CompanyName(),
			CreatedAt:     o.CreatedAt.UTC().Format(timestampLayout),
		}
		rows = append(rows, row)
		table.Data = append(table.Data, []any{
			row.OrderNumber, row.CreatedAt, row.CustomerName, row.CustomerEmail,
			row.CompanyName, string(row.Status), row.ItemCount, row.Total,
		})
	}

	for i := range daily {
		daily[i].Revenue = money(daily[i].Revenue)
		daily[i].AverageOrderValue = money(daily[i].AverageOrderValue)
	}
	for i := range companies {
		companies[i].Revenue = money(companies[i].Revenue)
	}
	for i := range top {
		top[i].Revenue = money(top[i].Revenue)
	}
	if daily == nil {
		daily = []DailySales{}
	}
	if top == nil {
		top = []ProductRevenue{}
	}

	return SalesPayload{
		Summary: SalesSummary{
			TotalOrders:       count,
			TotalRevenue:      money(total),
			AverageOrderValue: money(averageOf(total, count)),
		},
		DailySales:   daily,
		CompanySales: companies,
		TopProducts:  top,
		Orders:       rows,
	}, table, nil
}
