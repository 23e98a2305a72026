package utils

import (
	"context"

	"github.com/tradedesk/portal_backend/appctx"
)

// Alias the shared context key type so existing code keeps working.
type contextKey = appctx.ContextKey

var (
	ContextKeyToken         = appctx.ContextKeyToken
	ContextKeyUserId        = appctx.ContextKeyUserId
	ContextKeyUserName      = appctx.ContextKeyUserName
	ContextKeyUserEmail     = appctx.ContextKeyUserEmail
	ContextKeyUserRole      = appctx.ContextKeyUserRole
	ContextKeyCompanyId     = appctx.ContextKeyCompanyId
	ContextKeyCorrelationId = appctx.ContextKeyCorrelationId

	ContextKeyPinnedCompanyId  = appctx.ContextKeyPinnedCompanyId
	ContextKeySkipCompanyScope = appctx.ContextKeySkipCompanyScope
)

func GetTokenFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyToken)
}

func GetUserIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyUserId)
}

func GetUserNameFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyUserName)
}

func GetUserEmailFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyUserEmail)
}

func GetUserRoleFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyUserRole)
}

func GetCompanyIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCompanyId)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func SetTokenInContext(ctx context.Context, token string) context.Context {
	return appctx.Set(ctx, ContextKeyToken, token)
}

func SetUserIdInContext(ctx context.Context, userId string) context.Context {
	return appctx.Set(ctx, ContextKeyUserId, userId)
}

func SetUserNameInContext(ctx context.Context, userName string) context.Context {
	return appctx.Set(ctx, ContextKeyUserName, userName)
}

func SetUserEmailInContext(ctx context.Context, email string) context.Context {
	return appctx.Set(ctx, ContextKeyUserEmail, email)
}

func SetUserRoleInContext(ctx context.Context, role string) context.Context {
	return appctx.Set(ctx, ContextKeyUserRole, role)
}

func SetCompanyIdInContext(ctx context.Context, companyId string) context.Context {
	return appctx.Set(ctx, ContextKeyCompanyId, companyId)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}

func SetPinnedCompanyIdInContext(ctx context.Context, companyId string) context.Context {
	return appctx.Set(ctx, ContextKeyPinnedCompanyId, companyId)
}

func SetSkipCompanyScopeInContext(ctx context.Context, skip bool) context.Context {
	return appctx.Set(ctx, ContextKeySkipCompanyScope, skip)
}
