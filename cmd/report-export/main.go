// report-export renders a report offline, as a given user, to a file or stdout.
// Unlike the HTTP API it can write XLSX, and it can upload the result to GCS.
//
// Usage:
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//	  go run ./cmd/report-export --caller-id <user id> --type sales --format xlsx --out sales.xlsx
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/tradedesk/portal_backend/config"
	"github.com/tradedesk/portal_backend/models"
	"github.com/tradedesk/portal_backend/models/reports"
	"github.com/tradedesk/portal_backend/utils"
)

type options struct {
	reportType string
	from       string
	to         string
	companyId  string
	callerId   string
	format     string
	out        string
	gcs        bool
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	var opts options
	flagSet := pflag.NewFlagSet("report-export", pflag.ContinueOnError)
	flagSet.StringVar(&opts.reportType, "type", string(reports.ReportTypeSales), "report type: sales|inventory|customers|products|orders|audit")
	flagSet.StringVar(&opts.from, "from", "", "start date (YYYY-MM-DD or RFC3339), default 30 days before --to")
	flagSet.StringVar(&opts.to, "to", "", "end date, inclusive (YYYY-MM-DD or RFC3339), default now")
	flagSet.StringVar(&opts.companyId, "company-id", "", "restrict to one company (ignored for company-bound callers)")
	flagSet.StringVar(&opts.callerId, "caller-id", "", "id of the user the report runs as (required)")
	flagSet.StringVar(&opts.format, "format", "csv", "output format: csv|json|xlsx")
	flagSet.StringVarP(&opts.out, "out", "o", "", "output file (default stdout)")
	flagSet.BoolVar(&opts.gcs, "gcs", false, "also upload to GCS_BUCKET")
	if err := flagSet.Parse(args); err != nil {
		return opts, err
	}
	if extra := flagSet.Args(); len(extra) > 0 {
		return opts, fmt.Errorf("unexpected argument: %s", extra[0])
	}
	if strings.TrimSpace(opts.callerId) == "" {
		return opts, errors.New("--caller-id is required")
	}
	switch reports.Format(strings.ToLower(opts.format)) {
	case reports.FormatCSV, reports.FormatJSON, reports.FormatXLSX:
		opts.format = strings.ToLower(opts.format)
	default:
		return opts, fmt.Errorf("unsupported --format %q", opts.format)
	}
	return opts, nil
}

func run(args []string) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	from, err := reports.ParseDateParam(opts.from, false)
	if err != nil {
		return err
	}
	to, err := reports.ParseDateParam(opts.to, true)
	if err != nil {
		return err
	}

	logger := config.GetLogger()
	db := config.ConnectDatabaseWithRetry()
	if db == nil {
		return errors.New("database not initialized; set DB_* env vars")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = utils.SetCorrelationIdInContext(ctx, "report-export")

	user, err := models.GetUser(utils.SetSkipCompanyScopeInContext(ctx, true), db, opts.callerId)
	if err != nil {
		return fmt.Errorf("load caller %s: %w", opts.callerId, err)
	}
	if !models.CapabilitiesFor(user.Role).CrossCompany {
		ctx = utils.SetPinnedCompanyIdInContext(ctx, utils.DereferencePtr(user.CompanyId, ""))
	}

	settings := config.GetReportSettings()
	settings.CacheEnabled = false
	settings.Timeout = 10 * time.Minute
	svc := reports.NewService(reports.NewGormStore(db), nil, logger, settings)

	report, err := svc.Build(ctx, reports.Request{
		ReportType: reports.ReportType(opts.reportType),
		DateFrom:   from,
		DateTo:     to,
		CompanyId:  utils.NilIfEmpty(strings.TrimSpace(opts.companyId)),
		Caller: reports.Caller{
			Id:        user.ID,
			Name:      user.Name,
			Email:     user.Email,
			Role:      user.Role,
			CompanyId: user.CompanyId,
		},
	})
	if err != nil {
		return err
	}

	body, contentType, err := render(report, reports.Format(opts.format))
	if err != nil {
		return err
	}

	if err := writeOutput(opts.out, body); err != nil {
		return err
	}

	if opts.gcs {
		name := fmt.Sprintf("reports/%s_report_%s.%s", report.ReportType, report.GeneratedAt.Format(time.DateOnly), opts.format)
		url, err := utils.UploadReportToGCS(ctx, name, contentType, body)
		if err != nil {
			return fmt.Errorf("upload: %w", err)
		}
		fmt.Fprintln(os.Stderr, "uploaded", url)
	}
	return nil
}

func render(report *reports.Report, format reports.Format) ([]byte, string, error) {
	switch format {
	case reports.FormatCSV:
		return reports.EncodeCSV(report.Table), "text/csv", nil
	case reports.FormatJSON:
		b, err := json.MarshalIndent(report, "", "  ")
		return b, "application/json", err
	case reports.FormatXLSX:
		var buf bytes.Buffer
		if err := reports.ExportExcel(report, &buf); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), reports.XLSXContentType, nil
	default:
		return nil, "", reports.ErrInvalidFormat
	}
}

func writeOutput(path string, body []byte) error {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	_, err := w.Write(body)
	return err
}
