package models

import (
	"context"
	"time"

	"github.com/tradedesk/portal_backend/appctx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Scope is the company restriction resolved once per request and threaded
// through every query a report runs.
type Scope struct {
	companyId  string
	restricted bool
}

// UnrestrictedScope sees every company.
func UnrestrictedScope() Scope {
	return Scope{}
}

// CompanyScope restricts to one company. An empty id matches nothing.
func CompanyScope(companyId string) Scope {
	return Scope{companyId: companyId, restricted: true}
}

// ResolveScope applies the role rules: callers without CrossCompany are pinned
// to their own company and the requested id is ignored; everyone else gets the
// requested company, or all companies when none was asked for.
func ResolveScope(role UserRole, callerCompanyId *string, requestedCompanyId *string) Scope {
	if !CapabilitiesFor(role).CrossCompany {
		if callerCompanyId == nil {
			return CompanyScope("")
		}
		return CompanyScope(*callerCompanyId)
	}
	if requestedCompanyId != nil && *requestedCompanyId != "" {
		return CompanyScope(*requestedCompanyId)
	}
	return UnrestrictedScope()
}

// Key is a stable identifier for cache keys and logs.
func (s Scope) Key() string {
	if !s.restricted {
		return "all"
	}
	if s.companyId == "" {
		return "none"
	}
	return "company:" + s.companyId
}

// Allows reports whether a row owned by companyId is visible in this scope.
func (s Scope) Allows(companyId *string) bool {
	if !s.restricted {
		return true
	}
	return companyId != nil && *companyId != "" && *companyId == s.companyId
}

// Orders filters any query that has the orders table in its FROM/JOIN.
func (s Scope) Orders() func(*gorm.DB) *gorm.DB {
	return s.column("orders")
}

// Users filters any query that has the users table in its FROM/JOIN.
func (s Scope) Users() func(*gorm.DB) *gorm.DB {
	return s.column("users")
}

func (s Scope) column(table string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if !s.restricted {
			return db
		}
		return db.Where(clause.Eq{
			Column: clause.Column{Table: table, Name: "company_id"},
			Value:  s.companyId,
		})
	}
}

// CreatedBetween filters table.created_at to the inclusive range [from, to].
func CreatedBetween(table string, from time.Time, to time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		col := clause.Column{Table: table, Name: "created_at"}
		return db.Where(clause.Gte{Column: col, Value: from}).Where(clause.Lte{Column: col, Value: to})
	}
}

// RevenueOrders drops cancelled orders.
func RevenueOrders() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(clause.Neq{
			Column: clause.Column{Table: "orders", Name: "status"},
			Value:  string(OrderStatusCancelled),
		})
	}
}

// WithoutCompanyGuard exempts one query from the pinned-company guard. Use it for
// association preloads whose parent rows were already filtered by a Scope: an
// order of company A may have been placed by a user outside company A.
func WithoutCompanyGuard(db *gorm.DB) *gorm.DB {
	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	db.Statement.Context = appctx.Set(ctx, appctx.ContextKeySkipCompanyScope, true)
	return db
}
