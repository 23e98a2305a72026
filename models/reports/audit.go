package reports

import (
	"context"

	"github.com/tradedesk/portal_backend/models"
)

type AuditSummary struct {
	TotalLogs         int                          `json:"totalLogs"`
	UniqueUsers       int                          `json:"uniqueUsers"`
	ActionBreakdown   map[string]int               `json:"actionBreakdown"`
	SeverityBreakdown map[models.AuditSeverity]int `json:"severityBreakdown"`
	CategoryBreakdown map[models.AuditCategory]int `json:"categoryBreakdown"`
}

type AuditPayload struct {
	Summary AuditSummary      `json:"summary"`
	Logs    []models.AuditLog `json:"logs"`
}

// deniedPayload is the whole body of an audit report the caller may not read.
type deniedPayload struct {
	Error string `json:"error"`
}

var auditHeaders = []string{"Timestamp", "Action", "Resource Type", "Resource ID", "User", "Email", "Severity", "Category"}

func (s *Service) auditReport(ctx context.Context, p *plan) (any, Table, error) {
	if !p.capabilities.ViewAuditLogs {
		return deniedPayload{Error: AuditAccessDeniedMessage}, Table{
			Headers: []string{"error"},
			Data:    [][]any{{AuditAccessDeniedMessage}},
		}, nil
	}

	logs, err := s.store.ListAuditLogs(ctx, p.rng, auditLogLimit)
	if err != nil {
		return nil, Table{}, err
	}

	summary := AuditSummary{
		TotalLogs:         len(logs),
		ActionBreakdown:   map[string]int{},
		SeverityBreakdown: map[models.AuditSeverity]int{},
		CategoryBreakdown: map[models.AuditCategory]int{},
	}
	users := map[string]struct{}{}
	table := Table{Headers: auditHeaders, Data: make([][]any, 0, len(logs))}
	for _, l := range logs {
		summary.ActionBreakdown[l.Action]++
		summary.SeverityBreakdown[l.Severity]++
		summary.CategoryBreakdown[l.Category]++
		if l.UserId != "" {
			users[l.UserId] = struct{}{}
		}
		table.Data = append(table.Data, []any{
			l.CreatedAt.UTC().Format(timestampLayout), l.Action, l.ResourceType, l.ResourceId,
			l.UserName, l.UserEmail, string(l.Severity), string(l.Category),
		})
	}
	summary.UniqueUsers = len(users)
	if logs == nil {
		logs = []models.AuditLog{}
	}

	return AuditPayload{Summary: summary, Logs: logs}, table, nil
}
