package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tradedesk/portal_backend/config"
	"github.com/tradedesk/portal_backend/models"
	"github.com/tradedesk/portal_backend/models/reports"
	"github.com/tradedesk/portal_backend/utils"
)

type reportGenerator interface {
	Generate(ctx context.Context, req reports.Request) (*reports.Output, error)
}

// reportsHandler serves GET /api/reports. generator returns nil until the
// database is connected.
func reportsHandler(generator func() reportGenerator, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		caller, ok := callerFromContext(ctx)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		format, err := reports.ParseFormat(reports.Format(c.Query("format")))
		if err != nil {
			writeReportError(c, logger, err)
			return
		}
		// Role precedes type and date validation.
		if !models.CapabilitiesFor(caller.Role).ViewReports {
			writeReportError(c, logger, reports.ErrForbidden)
			return
		}
		reportType := reports.ReportType(strings.TrimSpace(c.DefaultQuery("type", string(reports.ReportTypeSales))))
		if !reportType.IsValid() {
			writeReportError(c, logger, reports.ErrInvalidReportType)
			return
		}
		dateFrom, err := reports.ParseDateParam(c.Query("dateFrom"), false)
		if err != nil {
			writeReportError(c, logger, err)
			return
		}
		dateTo, err := reports.ParseDateParam(c.Query("dateTo"), true)
		if err != nil {
			writeReportError(c, logger, err)
			return
		}

		gen := generator()
		if gen == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}

		out, err := gen.Generate(ctx, reports.Request{
			ReportType: reportType,
			DateFrom:   dateFrom,
			DateTo:     dateTo,
			Format:     format,
			CompanyId:  utils.NilIfEmpty(strings.TrimSpace(c.Query("companyId"))),
			Caller:     caller,
		})
		if err != nil {
			writeReportError(c, logger, err)
			return
		}

		if out.Filename != "" {
			c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, out.Filename))
		}
		c.Data(http.StatusOK, out.ContentType, out.Body)
	}
}

func callerFromContext(ctx context.Context) (reports.Caller, bool) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return reports.Caller{}, false
	}
	role, ok := utils.GetUserRoleFromContext(ctx)
	if !ok {
		return reports.Caller{}, false
	}
	name, _ := utils.GetUserNameFromContext(ctx)
	email, _ := utils.GetUserEmailFromContext(ctx)
	caller := reports.Caller{
		Id:    userId,
		Name:  name,
		Email: email,
		Role:  models.UserRole(role),
	}
	if companyId, ok := utils.GetCompanyIdFromContext(ctx); ok && companyId != "" {
		caller.CompanyId = &companyId
	}
	return caller, true
}

// reportErrorResponse maps a report error to its status and public message.
func reportErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, reports.ErrUnauthenticated):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, reports.ErrForbidden):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, reports.ErrInvalidReportType):
		return http.StatusBadRequest, "Invalid report type"
	case errors.Is(err, reports.ErrNotImplemented):
		return http.StatusBadRequest, "XLSX format not yet implemented. Please use CSV or JSON."
	case errors.Is(err, reports.ErrInvalidFormat):
		return http.StatusBadRequest, "Invalid format"
	case errors.Is(err, reports.ErrInvalidDateRange):
		return http.StatusBadRequest, "Invalid date range"
	default:
		return http.StatusInternalServerError, "Internal Server Error"
	}
}

func writeReportError(c *gin.Context, logger *logrus.Logger, err error) {
	status, message := reportErrorResponse(err)
	if status == http.StatusInternalServerError {
		cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
		config.LogError(logger, "reportsHandler", "Generate", c.Request.URL.RawQuery, cid, err)
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"error": message})
}
