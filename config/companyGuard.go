package config

import (
	"context"
	"strings"

	"github.com/tradedesk/portal_backend/appctx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CompanyGuardPlugin scopes queries on company-owned tables to the request's pinned
// company (ContextKeyPinnedCompanyId) when the model has a company_id column.
//
// NOTE:
// - Raw SQL and queries whose model has no company_id column are not touched;
//   those must carry the filter themselves (see models.Scope).
// - A WHERE that already filters company_id is left alone.
type CompanyGuardPlugin struct{}

func NewCompanyGuardPlugin() *CompanyGuardPlugin { return &CompanyGuardPlugin{} }

func (p *CompanyGuardPlugin) Name() string { return "company_guard" }

func (p *CompanyGuardPlugin) Initialize(db *gorm.DB) error {
	if err := db.Callback().Query().Before("gorm:query").Register("company_guard:query", companyGuardCallback); err != nil {
		return err
	}
	if err := db.Callback().Row().Before("gorm:row").Register("company_guard:row", companyGuardCallback); err != nil {
		return err
	}
	return nil
}

func companyGuardCallback(db *gorm.DB) {
	if db == nil || db.Statement == nil {
		return
	}
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	companyID, ok := pinnedCompanyFromContext(ctx)
	if !ok {
		return
	}

	if db.Statement.Schema == nil {
		return
	}
	if _, has := db.Statement.Schema.FieldsByDBName["company_id"]; !has {
		return
	}

	if whereHasCompanyID(db.Statement.Clauses["WHERE"]) {
		return
	}

	db.Statement.AddClause(clause.Where{
		Exprs: []clause.Expression{
			clause.Eq{
				Column: clause.Column{Table: db.Statement.Table, Name: "company_id"},
				Value:  companyID,
			},
		},
	})
}

// A pinned company of "" is still a pin: it matches no rows.
func pinnedCompanyFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(appctx.ContextKeySkipCompanyScope).(bool); ok && v {
		return "", false
	}
	v, ok := ctx.Value(appctx.ContextKeyPinnedCompanyId).(string)
	return v, ok
}

func whereHasCompanyID(c clause.Clause) bool {
	if c.Expression == nil {
		return false
	}
	w, ok := c.Expression.(clause.Where)
	if !ok {
		return false
	}
	for _, e := range w.Exprs {
		if exprHasCompanyID(e) {
			return true
		}
	}
	return false
}

func exprHasCompanyID(e clause.Expression) bool {
	switch v := e.(type) {
	case clause.Eq:
		return colIsCompanyID(v.Column)
	case clause.Neq:
		return colIsCompanyID(v.Column)
	case clause.IN:
		return colIsCompanyID(v.Column)
	case clause.AndConditions:
		for _, x := range v.Exprs {
			if exprHasCompanyID(x) {
				return true
			}
		}
		return false
	case clause.OrConditions:
		for _, x := range v.Exprs {
			if exprHasCompanyID(x) {
				return true
			}
		}
		return false
	case clause.Expr:
		return strings.Contains(strings.ToLower(v.SQL), "company_id")
	default:
		return false
	}
}

func colIsCompanyID(col any) bool {
	switch c := col.(type) {
	case string:
		return strings.EqualFold(c, "company_id")
	case clause.Column:
		return strings.EqualFold(c.Name, "company_id")
	default:
		return false
	}
}
