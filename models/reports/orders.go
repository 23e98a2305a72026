package reports

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/tradedesk/portal_backend/models"
)

type OrdersSummary struct {
	TotalOrders       int                        `json:"totalOrders"`
	TotalRevenue      decimal.Decimal            `json:"totalRevenue"`
	AverageOrderValue decimal.Decimal            `json:"averageOrderValue"`
	StatusBreakdown   map[models.OrderStatus]int `json:"statusBreakdown"`
}

type OrderPayment struct {
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method"`
	Status string          `json:"status"`
}

type OrderRow struct {
	Id            string             `json:"id"`
	OrderNumber   string             `json:"orderNumber"`
	Status        models.OrderStatus `json:"status"`
	CustomerName  string             `json:"customerName"`
	CustomerEmail string             `json:"customerEmail"`
	CompanyName   string             `json:"companyName"`
	ItemCount     int                `json:"itemCount"`
	Subtotal      decimal.Decimal    `json:"subtotal"`
	Tax           decimal.Decimal    `json:"tax"`
	Shipping      decimal.Decimal    `json:"shipping"`
	Discount      decimal.Decimal    `json:"discount"`
	Total         decimal.Decimal    `json:"total"`
	Payment       *OrderPayment      `json:"payment"`
	CreatedAt     string             `json:"createdAt"`
}

type OrdersPayload struct {
	Summary OrdersSummary `json:"summary"`
	Orders  []OrderRow    `json:"orders"`
}

var ordersHeaders = []string{
	"Order Number", "Date", "Customer", "Email", "Company", "Status", "Items",
	"Subtotal", "Tax", "Shipping", "Discount", "Total", "Payment Method", "Payment Status",
}

// ordersReport lists every order in range whatever its status. Cancelled orders
// are counted in the breakdown and totalOrders but not in revenue; the average is
// over revenue orders.
func (s *Service) ordersReport(ctx context.Context, p *plan) (any, Table, error) {
	orders, err := s.store.ListOrders(ctx, p.scope, p.rng, false)
	if err != nil {
		return nil, Table{}, err
	}

	breakdown := make(map[models.OrderStatus]int, len(models.OrderStatuses))
	for _, st := range models.OrderStatuses {
		breakdown[st] = 0
	}

	revenue := decimal.Zero
	revenueOrders := 0
	rows := make([]OrderRow, 0, len(orders))
	table := Table{Headers: ordersHeaders, Data: make([][]any, 0, len(orders))}
	for _, o := range orders {
		breakdown[o.Status]++
		if o.Status.CountsAsRevenue() {
			revenue = revenue.Add(o.Total)
			revenueOrders++
		}

		name, email := o.Customer()
		row := OrderRow{
			Id:            o.ID,
			OrderNumber:   o.OrderNumber,
			Status:        o.Status,
			CustomerName:  name,
			CustomerEmail: email,
			CompanyName:   o.CompanyName(),
			ItemCount:     len(o.Items),
			Subtotal:      money(o.Subtotal),
			Tax:           money(o.Tax),
			Shipping:      money(o.Shipping),
			Discount:      money(o.Discount),
			Total:         money(o.Total),
			CreatedAt:     o.CreatedAt.UTC().Format(timestampLayout),
		}
		var method, status any
		if pay := o.FirstPayment(); pay != nil {
			row.Payment = &OrderPayment{Amount: money(pay.Amount), Method: pay.Method, Status: pay.Status}
			method, status = pay.Method, pay.Status
		}
		rows = append(rows, row)
		table.Data = append(table.Data, []any{
			row.OrderNumber, row.CreatedAt, row.CustomerName, row.CustomerEmail, row.CompanyName,
			string(row.Status), row.ItemCount, row.Subtotal, row.Tax, row.Shipping, row.Discount,
			row.Total, method, status,
		})
	}

	return OrdersPayload{
		Summary: OrdersSummary{
			TotalOrders:       len(orders),
			TotalRevenue:      money(revenue),
			AverageOrderValue: money(averageOf(revenue, revenueOrders)),
			StatusBreakdown:   breakdown,
		},
		Orders: rows,
	}, table, nil
}
