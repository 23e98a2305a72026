package reports

import "errors"

var (
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidReportType = errors.New("invalid report type")
	ErrInvalidFormat     = errors.New("invalid format")
	ErrNotImplemented    = errors.New("xlsx format not yet implemented")
	ErrInvalidDateRange  = errors.New("invalid date range")
)

// AuditAccessDeniedMessage is returned in the body of an audit report requested
// by a caller who may not read audit logs. The response is still a 200.
const AuditAccessDeniedMessage = "Unauthorized to access audit logs"
