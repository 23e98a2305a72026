package reports

import (
	"context"

	"github.com/shopspring/decimal"
)

type CustomersSummary struct {
	TotalCustomers  int `json:"totalCustomers"`
	ActiveCustomers int `json:"activeCustomers"`
	NewCustomers    int `json:"newCustomers"`
}

type CustomerRow struct {
	Id          string          `json:"id"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	CompanyName string          `json:"companyName"`
	IsActive    bool            `json:"isActive"`
	OrderCount  int             `json:"orderCount"`
	TotalSpent  decimal.Decimal `json:"totalSpent"`
	LastOrderAt *string         `json:"lastOrderAt"`
	CreatedAt   string          `json:"createdAt"`
}

type CustomersPayload struct {
	Summary   CustomersSummary `json:"summary"`
	Customers []CustomerRow    `json:"customers"`
}

var customersHeaders = []string{"Name", "Email", "Company", "Orders", "Total Spent", "Last Order", "Joined"}

// customersReport lists buyers in scope. A customer is active with at least one
// order in range and new when the account was created in range. Spend leaves out
// cancelled orders.
func (s *Service) customersReport(ctx context.Context, p *plan) (any, Table, error) {
	users, err := s.store.ListCustomers(ctx, p.scope, p.rng)
	if err != nil {
		return nil, Table{}, err
	}

	var summary CustomersSummary
	rows := make([]CustomerRow, 0, len(users))
	table := Table{Headers: customersHeaders, Data: make([][]any, 0, len(users))}
	for _, u := range users {
		summary.TotalCustomers++
		if p.rng.Contains(u.CreatedAt) {
			summary.NewCustomers++
		}

		spent := decimal.Zero
		orderCount := 0
		var lastOrder *string
		for _, o := range u.Orders {
			if !p.rng.Contains(o.CreatedAt) || !p.scope.Allows(o.CompanyId) {
				continue
			}
			orderCount++
			if o.Status.CountsAsRevenue() {
				spent = spent.Add(o.Total)
			}
			at := o.CreatedAt.UTC().Format(timestampLayout)
			if lastOrder == nil || at > *lastOrder {
				lastOrder = &at
			}
		}
		if orderCount > 0 {
			summary.ActiveCustomers++
		}

		row := CustomerRow{
			Id:          u.ID,
			Name:        u.Name,
			Email:       u.Email,
			CompanyName: u.CompanyName(),
			IsActive:    u.IsActive,
			OrderCount:  orderCount,
			TotalSpent:  money(spent),
			LastOrderAt: lastOrder,
			CreatedAt:   u.CreatedAt.UTC().Format(timestampLayout),
		}
		rows = append(rows, row)
		var last any
		if lastOrder != nil {
			last = *lastOrder
		}
		table.Data = append(table.Data, []any{
			row.Name, row.Email, row.CompanyName, row.OrderCount, row.TotalSpent, last, row.CreatedAt,
		})
	}

	return CustomersPayload{Summary: summary, Customers: rows}, table, nil
}
