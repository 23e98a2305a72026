package appctx

import "context"

// ContextKey is the shared type for all context keys in this codebase.
// Keeping it in a tiny package avoids import cycles (config <-> utils).
type ContextKey string

func (c ContextKey) String() string { return string(c) }

var (
	ContextKeyToken         = ContextKey("Token")
	ContextKeyUserId        = ContextKey("UserId")
	ContextKeyUserName      = ContextKey("UserName")
	ContextKeyUserEmail     = ContextKey("UserEmail")
	ContextKeyUserRole      = ContextKey("UserRole")
	ContextKeyCompanyId     = ContextKey("CompanyId")
	ContextKeyCorrelationId = ContextKey("CorrelationId")

	// ContextKeyPinnedCompanyId is set for callers that may only ever see one company.
	// The company guard plugin scopes every company-owned query to it.
	ContextKeyPinnedCompanyId = ContextKey("PinnedCompanyId")

	// ContextKeySkipCompanyScope disables the company guard for the request.
	// Use sparingly (offline tooling only).
	ContextKeySkipCompanyScope = ContextKey("SkipCompanyScope")
)

func GetString(ctx context.Context, key ContextKey) (string, bool) {
	v, ok := ctx.Value(key).(string)
	return v, ok
}

func Set(ctx context.Context, key ContextKey, value any) context.Context {
	return context.WithValue(ctx, key, value)
}
