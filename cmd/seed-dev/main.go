// seed-dev fills an empty development database with two companies, one user per
// role, a small catalogue, orders in every status and some audit entries, so the
// report endpoints have something to show.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-dev
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tradedesk/portal_backend/config"
	"github.com/tradedesk/portal_backend/models"
	"github.com/tradedesk/portal_backend/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func main() {
	ctx := utils.SetSkipCompanyScopeInContext(context.Background(), true)
	db := config.ConnectDatabaseWithRetry()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	if err := models.MigrateTable(db); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}

	var count int64
	if err := db.WithContext(ctx).Model(&models.Company{}).Count(&count).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to count companies: %v\n", err)
		os.Exit(1)
	}
	if count > 0 {
		fmt.Println("database already has companies; nothing to seed")
		return
	}

	if err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return seed(tx, time.Now().UTC())
	}); err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("seeded development data")
}

func seed(tx *gorm.DB, now time.Time) error {
	acme := models.Company{Name: "Acme Trading"}
	globex := models.Company{Name: "Globex Supplies"}
	if err := tx.Create(&[]*models.Company{&acme, &globex}).Error; err != nil {
		return err
	}

	users := []*models.User{
		{Name: "Sam Super", Email: "super@example.com", Role: models.UserRoleSuperAdmin, IsActive: true},
		{Name: "Ada Account", Email: "admin@acme.example.com", Role: models.UserRoleAccountAdmin, CompanyId: &acme.ID, IsActive: true},
		{Name: "Otto Ops", Email: "ops@example.com", Role: models.UserRoleOperation, IsActive: true},
		{Name: "Bea Buyer", Email: "buyer@acme.example.com", Role: models.UserRoleBuyer, CompanyId: &acme.ID, IsActive: true},
		{Name: "Gil Buyer", Email: "buyer@globex.example.com", Role: models.UserRoleBuyer, CompanyId: &globex.ID, IsActive: true},
	}
	if err := tx.Create(&users).Error; err != nil {
		return err
	}

	hardware := models.Category{Name: "Hardware"}
	if err := tx.Create(&hardware).Error; err != nil {
		return err
	}
	products := []*models.Product{
		{Name: "Widget", Sku: "WID-001", Price: decimal.NewFromInt(10), Stock: 100, MinStock: 10, Status: models.ProductStatusActive, CategoryId: &hardware.ID},
		{Name: "Gadget", Sku: "GAD-001", Price: decimal.RequireFromString("24.50"), Stock: 5, MinStock: 10, Status: models.ProductStatusActive, CategoryId: &hardware.ID},
		{Name: "Gizmo, Deluxe", Sku: "GIZ-001", Price: decimal.NewFromInt(99), Stock: 0, MinStock: 2, Status: models.ProductStatusDiscontinued},
	}
	if err := tx.Create(&products).Error; err != nil {
		return err
	}

	buyers := []*models.User{users[3], users[4]}
	for i, status := range models.OrderStatuses {
		buyer := buyers[i%len(buyers)]
		product := products[i%len(products)]
		qty := i + 1
		subtotal := product.Price.Mul(decimal.NewFromInt(int64(qty)))
		order := models.Order{
			OrderNumber: fmt.Sprintf("ORD-%04d", i+1),
			Status:      status,
			Subtotal:    subtotal,
			Total:       subtotal,
			UserId:      buyer.ID,
			CompanyId:   buyer.CompanyId,
			CreatedAt:   now.Add(-time.Duration(i*24) * time.Hour),
			Items: []models.OrderItem{
				{ProductId: product.ID, Quantity: qty, Price: product.Price},
			},
			Payments: []models.Payment{
				{Amount: subtotal, Method: "bank_transfer", Status: "PAID"},
			},
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
	}

	logs := []*models.AuditLog{
		{Action: "user.login", ResourceType: "user", ResourceId: users[1].ID, UserId: users[1].ID, UserName: users[1].Name, UserEmail: users[1].Email, Severity: models.AuditSeverityInfo, Category: models.AuditCategoryAuthentication},
		{Action: "product.update", ResourceType: "product", ResourceId: products[1].ID, UserId: users[2].ID, UserName: users[2].Name, UserEmail: users[2].Email, Severity: models.AuditSeverityWarning, Category: models.AuditCategoryData,
			OldValues: datatypes.JSONMap{"stock": 20}, NewValues: datatypes.JSONMap{"stock": 5}},
	}
	return tx.Create(&logs).Error
}
