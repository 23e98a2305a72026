package models

import (
	"errors"
	"strings"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// CountsAsRevenue reports whether an order with this status contributes to revenue sums.
func (s OrderStatus) CountsAsRevenue() bool {
	return s != OrderStatusCancelled
}

type ProductStatus string

const (
	ProductStatusActive       ProductStatus = "ACTIVE"
	ProductStatusInactive     ProductStatus = "INACTIVE"
	ProductStatusDiscontinued ProductStatus = "DISCONTINUED"
)

type UserRole string

const (
	UserRoleSuperAdmin   UserRole = "SUPER_ADMIN"
	UserRoleAccountAdmin UserRole = "ACCOUNT_ADMIN"
	UserRoleOperation    UserRole = "OPERATION"
	UserRoleBuyer        UserRole = "BUYER"
)

func ParseUserRole(s string) (UserRole, error) {
	userRole := map[string]UserRole{
		"SUPER_ADMIN":   UserRoleSuperAdmin,
		"ACCOUNT_ADMIN": UserRoleAccountAdmin,
		"OPERATION":     UserRoleOperation,
		"BUYER":         UserRoleBuyer,
	}
	role, ok := userRole[strings.ToUpper(strings.TrimSpace(s))]
	if !ok {
		return "", errors.New("invalid user role")
	}
	return role, nil
}

type AuditSeverity string

const (
	AuditSeverityInfo     AuditSeverity = "info"
	AuditSeverityWarning  AuditSeverity = "warning"
	AuditSeverityError    AuditSeverity = "error"
	AuditSeverityCritical AuditSeverity = "critical"
)

type AuditCategory string

const (
	AuditCategoryAuthentication AuditCategory = "authentication"
	AuditCategoryUserManagement AuditCategory = "user_management"
	AuditCategorySystem         AuditCategory = "system"
	AuditCategoryData           AuditCategory = "data"
	AuditCategorySecurity       AuditCategory = "security"
)
