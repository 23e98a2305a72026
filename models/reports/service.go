package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/tradedesk/portal_backend/config"
	"github.com/tradedesk/portal_backend/models"
	"github.com/tradedesk/portal_backend/utils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	defaultWindow  = 30 * 24 * time.Hour
	topProducts    = 10
	auditLogLimit  = 1000
	csvContentType = "text/csv"
)

var tracer = otel.Tracer("portal-backend/reports")

// Service generates reports. It holds no per-request state; one instance serves
// all requests.
type Service struct {
	store    Store
	cache    Cache
	logger   *logrus.Logger
	settings config.ReportSettings
	validate *validator.Validate
	now      func() time.Time
}

// NewService wires a service. cache may be nil.
func NewService(store Store, cache Cache, logger *logrus.Logger, settings config.ReportSettings) *Service {
	if logger == nil {
		logger = logrus.New()
	}
	return &Service{
		store:    store,
		cache:    cache,
		logger:   logger,
		settings: settings,
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// plan is a validated request with defaults filled in and the scope resolved.
type plan struct {
	reportType   ReportType
	format       Format
	rng          DateRange
	scope        models.Scope
	capabilities models.Capabilities
	caller       Caller
	generatedAt  time.Time

	// openEnded is set when the range ends at the invocation instant.
	openEnded bool
}

// Generate validates the request, builds the report and renders it as JSON or CSV.
func (s *Service) Generate(ctx context.Context, req Request) (*Output, error) {
	format, err := ParseFormat(req.Format)
	if err != nil {
		return nil, err
	}
	req.Format = format

	ctx, cancel := context.WithTimeout(ctx, s.settings.Timeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "reports.Generate")
	defer span.End()

	started := time.Now()
	p, err := s.plan(req)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("report.type", string(p.reportType)),
		attribute.String("report.format", string(p.format)),
		attribute.String("report.scope", p.scope.Key()),
	)

	render := func(ctx context.Context) ([]byte, error) {
		report, err := s.build(ctx, p)
		if err != nil {
			return nil, err
		}
		return renderBody(report, p.format)
	}

	var body []byte
	if s.cacheEnabled() {
		body, err = s.cached(ctx, cacheKey(p), render)
	} else {
		body, err = render(ctx)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	s.logSlowReport(ctx, p, started)

	out := &Output{ContentType: "application/json", Body: body}
	if p.format == FormatCSV {
		out.ContentType = csvContentType
		out.Filename = fmt.Sprintf("%s_report_%s.csv", p.reportType, p.generatedAt.Format(time.DateOnly))
	}
	return out, nil
}

// Build validates the request and returns the structured report. The format is
// not looked at; offline exporters render the result themselves.
func (s *Service) Build(ctx context.Context, req Request) (*Report, error) {
	ctx, cancel := context.WithTimeout(ctx, s.settings.Timeout)
	defer cancel()

	p, err := s.plan(req)
	if err != nil {
		return nil, err
	}
	return s.build(ctx, p)
}

// ParseFormat normalizes the requested format. Empty means JSON. XLSX is
// recognized but not served over HTTP.
func ParseFormat(f Format) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(string(f)))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return "", ErrNotImplemented
	default:
		return "", ErrInvalidFormat
	}
}

func (s *Service) plan(req Request) (*plan, error) {
	if err := s.validate.Struct(req); err != nil {
		config.LogError(s.logger, "reports", "plan", "validate request", utils.ProcessValidationErrors(err), err)
		return nil, ErrUnauthenticated
	}

	caps := models.CapabilitiesFor(req.Caller.Role)
	if !caps.ViewReports {
		return nil, ErrForbidden
	}

	reportType := req.ReportType
	if reportType == "" {
		reportType = ReportTypeSales
	}
	if !reportType.IsValid() {
		return nil, ErrInvalidReportType
	}

	now := s.now()
	rng, err := resolveRange(req.DateFrom, req.DateTo, now)
	if err != nil {
		return nil, err
	}

	format := req.Format
	if format == "" {
		format = FormatJSON
	}

	return &plan{
		reportType:   reportType,
		format:       format,
		rng:          rng,
		scope:        models.ResolveScope(req.Caller.Role, req.Caller.CompanyId, req.CompanyId),
		capabilities: caps,
		caller:       req.Caller,
		generatedAt:  now,
		openEnded:    req.DateTo == nil,
	}, nil
}

// resolveRange fills the rolling 30-day default and rejects inverted ranges.
func resolveRange(from *time.Time, to *time.Time, now time.Time) (DateRange, error) {
	rng := DateRange{From: now.Add(-defaultWindow), To: now}
	if to != nil {
		rng.To = to.UTC()
	}
	if from != nil {
		rng.From = from.UTC()
	} else if to != nil {
		rng.From = rng.To.Add(-defaultWindow)
	}
	if rng.From.After(rng.To) {
		return DateRange{}, ErrInvalidDateRange
	}
	return rng, nil
}

// ParseDateParam accepts YYYY-MM-DD or RFC3339. A date-only value is the start of
// that UTC day, or its last instant when endOfDay is set. Empty input returns nil.
func ParseDateParam(value string, endOfDay bool) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDateRange, value)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func (s *Service) build(ctx context.Context, p *plan) (*Report, error) {
	ctx, span := tracer.Start(ctx, "reports."+string(p.reportType))
	defer span.End()

	var (
		payload any
		table   Table
		err     error
	)
	switch p.reportType {
	case ReportTypeSales:
		payload, table, err = s.salesReport(ctx, p)
	case ReportTypeInventory:
		payload, table, err = s.inventoryReport(ctx, p)
	case ReportTypeCustomers:
		payload, table, err = s.customersReport(ctx, p)
	case ReportTypeProducts:
		payload, table, err = s.productsReport(ctx, p)
	case ReportTypeOrders:
		payload, table, err = s.ordersReport(ctx, p)
	case ReportTypeAudit:
		payload, table, err = s.auditReport(ctx, p)
	default:
		return nil, ErrInvalidReportType
	}
	if err != nil {
		config.LogError(s.logger, "reports", "build", string(p.reportType), p.scope.Key(), err)
		span.RecordError(err)
		return nil, fmt.Errorf("%s report: %w", p.reportType, err)
	}

	return &Report{
		ReportType:  p.reportType,
		DateRange:   p.rng,
		GeneratedAt: p.generatedAt,
		GeneratedBy: GeneratedBy{Name: p.caller.Name, Email: p.caller.Email},
		Payload:     payload,
		Table:       table,
	}, nil
}

func renderBody(r *Report, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return EncodeCSV(r.Table), nil
	case FormatJSON:
		return json.Marshal(r)
	default:
		return nil, ErrInvalidFormat
	}
}

// IsClientError reports whether err is one of the request errors (4xx).
func IsClientError(err error) bool {
	return errors.Is(err, ErrUnauthenticated) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrInvalidReportType) ||
		errors.Is(err, ErrInvalidFormat) ||
		errors.Is(err, ErrNotImplemented) ||
		errors.Is(err, ErrInvalidDateRange)
}

func (s *Service) logSlowReport(ctx context.Context, p *plan, started time.Time) {
	d := time.Since(started)
	if d < s.settings.SlowAfter {
		return
	}
	cid, _ := utils.GetCorrelationIdFromContext(ctx)
	s.logger.WithFields(logrus.Fields{
		"report":         p.reportType,
		"format":         p.format,
		"scope":          p.scope.Key(),
		"ms":             d.Milliseconds(),
		"correlation_id": cid,
	}).Warn("slow report")
}
