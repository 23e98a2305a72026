package reports

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tradedesk/portal_backend/models"
)

func init() {
	// Money goes out as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

type ReportType string

const (
	ReportTypeSales     ReportType = "sales"
	ReportTypeInventory ReportType = "inventory"
	ReportTypeCustomers ReportType = "customers"
	ReportTypeProducts  ReportType = "products"
	ReportTypeOrders    ReportType = "orders"
	ReportTypeAudit     ReportType = "audit"
)

var reportTypes = map[ReportType]bool{
	ReportTypeSales:     true,
	ReportTypeInventory: true,
	ReportTypeCustomers: true,
	ReportTypeProducts:  true,
	ReportTypeOrders:    true,
	ReportTypeAudit:     true,
}

func (t ReportType) IsValid() bool {
	return reportTypes[t]
}

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Caller is the authenticated identity the report runs as.
type Caller struct {
	Id        string          `validate:"required"`
	Name      string
	Email     string
	Role      models.UserRole `validate:"required"`
	CompanyId *string
}

type Request struct {
	ReportType ReportType
	// DateFrom and DateTo default to the 30 days ending now.
	DateFrom *time.Time
	DateTo   *time.Time
	Format   Format
	// CompanyId is ignored for callers pinned to their own company.
	CompanyId *string
	Caller    Caller
}

type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && !t.After(r.To)
}

type GeneratedBy struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Table is the tabular projection of a report. JSON embeds it as "table" and CSV
// serializes it, so both outputs come from the same aggregation.
type Table struct {
	Headers []string `json:"headers"`
	Data    [][]any  `json:"data"`
}

// Report is the JSON envelope. The type-specific payload is flattened into the
// top level next to the common fields.
type Report struct {
	ReportType  ReportType
	DateRange   DateRange
	GeneratedAt time.Time
	GeneratedBy GeneratedBy
	Payload     any
	Table       Table
}

type envelope struct {
	ReportType  ReportType  `json:"reportType"`
	DateRange   DateRange   `json:"dateRange"`
	GeneratedAt time.Time   `json:"generatedAt"`
	GeneratedBy GeneratedBy `json:"generatedBy"`
	Table       Table       `json:"table"`
}

func (r Report) MarshalJSON() ([]byte, error) {
	out := map[string]json.RawMessage{}
	if r.Payload != nil {
		b, err := json.Marshal(r.Payload)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(b, &out); err != nil {
			return nil, err
		}
	}
	base, err := json.Marshal(envelope{
		ReportType:  r.ReportType,
		DateRange:   r.DateRange,
		GeneratedAt: r.GeneratedAt,
		GeneratedBy: r.GeneratedBy,
		Table:       r.Table,
	})
	if err != nil {
		return nil, err
	}
	common := map[string]json.RawMessage{}
	if err := json.Unmarshal(base, &common); err != nil {
		return nil, err
	}
	for k, v := range common {
		out[k] = v
	}
	return json.Marshal(out)
}

// Output is a rendered report ready to be written to a response or a file.
type Output struct {
	ContentType string
	// Filename is set for downloads (CSV).
	Filename string
	Body     []byte
}

func money(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// averageOf is total/count, or zero when count is zero.
func averageOf(total decimal.Decimal, count int) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(int64(count)))
}
