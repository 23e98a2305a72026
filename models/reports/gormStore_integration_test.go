package reports_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradedesk/portal_backend/config"
	"github.com/tradedesk/portal_backend/models"
	"github.com/tradedesk/portal_backend/models/reports"
	"github.com/tradedesk/portal_backend/utils"
	"gorm.io/gorm"
)

func TestGormStoreAgainstMySQL(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "portal_test")

	db := config.ConnectDatabaseWithRetry()
	require.NoError(t, models.MigrateTable(db))

	now := time.Now().UTC().Truncate(time.Second)
	seedReportData(t, db, now)

	ctx := context.Background()
	store := reports.NewGormStore(db)
	rng := reports.DateRange{From: now.Add(-7 * 24 * time.Hour), To: now}
	all := models.UnrestrictedScope()
	coA := models.CompanyScope("it-co-a")

	t.Run("orders are scoped and ranged", func(t *testing.T) {
		orders, err := store.ListOrders(ctx, all, rng, false)
		require.NoError(t, err)
		assert.Len(t, orders, 3)

		orders, err = store.ListOrders(ctx, coA, rng, true)
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, "IT-1", orders[0].OrderNumber)
		assert.Equal(t, "Acme", orders[0].CompanyName())
		assert.Len(t, orders[0].Items, 1)
		require.NotNil(t, orders[0].FirstPayment())
		assert.Equal(t, "card", orders[0].FirstPayment().Method)
	})

	t.Run("sales aggregates skip cancelled orders", func(t *testing.T) {
		daily, err := store.DailySales(ctx, all, rng)
		require.NoError(t, err)
		total := decimal.Zero
		for _, d := range daily {
			total = total.Add(d.Revenue)
		}
		assert.True(t, decimal.NewFromInt(130).Equal(total), total.String())

		companies, err := store.CompanySales(ctx, all, rng)
		require.NoError(t, err)
		require.Len(t, companies, 2)
		assert.Equal(t, "Acme", companies[0].CompanyName)
		assert.True(t, decimal.NewFromInt(100).Equal(companies[0].Revenue))

		top, err := store.TopProducts(ctx, coA, rng, 10)
		require.NoError(t, err)
		require.Len(t, top, 1)
		assert.Equal(t, "IT-SKU-1", top[0].Sku)
		assert.Equal(t, int64(4), top[0].Quantity)
	})

	t.Run("item counts and product sales follow scope", func(t *testing.T) {
		counts, err := store.OrderItemCounts(ctx, coA)
		require.NoError(t, err)
		assert.Equal(t, int64(2), counts["it-p-1"])

		totals, err := store.ProductSales(ctx, models.CompanyScope("it-co-b"), rng)
		require.NoError(t, err)
		require.Len(t, totals, 1)
		assert.Equal(t, int64(3), totals[0].TotalSold)
	})

	t.Run("customers are buyers in scope", func(t *testing.T) {
		users, err := store.ListCustomers(ctx, coA, rng)
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, "it-u-buyer-a", users[0].ID)
		assert.Len(t, users[0].Orders, 2)

		users, err = store.ListCustomers(ctx, models.CompanyScope(""), rng)
		require.NoError(t, err)
		assert.Empty(t, users)
	})

	t.Run("audit logs are limited and ranged", func(t *testing.T) {
		logs, err := store.ListAuditLogs(ctx, rng, 1)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, "user.login", logs[0].Action)
	})

	t.Run("pinned context is enforced by the guard", func(t *testing.T) {
		pinned := utils.SetPinnedCompanyIdInContext(ctx, "it-co-b")
		orders, err := store.ListOrders(pinned, all, rng, false)
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, "IT-3", orders[0].OrderNumber)
	})

	t.Run("pinned callers still see orderers from outside their company", func(t *testing.T) {
		coAId := "it-co-a"
		require.NoError(t, db.Create(&models.User{ID: "it-u-ops", Name: "Otto Ops", Email: "ops@it.test", Role: models.UserRoleOperation, IsActive: true}).Error)
		require.NoError(t, db.Create(&models.Order{ID: "it-o-5", OrderNumber: "IT-5", Status: models.OrderStatusPending, Total: decimal.NewFromInt(5), UserId: "it-u-ops", CompanyId: &coAId, CreatedAt: now.Add(-4 * 24 * time.Hour)}).Error)
		t.Cleanup(func() {
			db.Delete(&models.Order{}, "id = ?", "it-o-5")
			db.Delete(&models.User{}, "id = ?", "it-u-ops")
		})

		pinned := utils.SetPinnedCompanyIdInContext(ctx, coAId)
		orders, err := store.ListOrders(pinned, coA, rng, false)
		require.NoError(t, err)
		var placed *models.Order
		for i := range orders {
			if orders[i].ID == "it-o-5" {
				placed = &orders[i]
			}
		}
		require.NotNil(t, placed)
		name, email := placed.Customer()
		assert.Equal(t, "Otto Ops", name)
		assert.Equal(t, "ops@it.test", email)

		// customers stay pinned: the ops user is not a buyer of company A
		users, err := store.ListCustomers(pinned, coA, rng)
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, "it-u-buyer-a", users[0].ID)
	})

	t.Run("service renders from the database", func(t *testing.T) {
		svc := reports.NewService(store, nil, logrus.New(), config.GetReportSettings())
		from, to := rng.From, rng.To
		out, err := svc.Generate(ctx, reports.Request{
			ReportType: reports.ReportTypeOrders,
			DateFrom:   &from,
			DateTo:     &to,
			Caller:     reports.Caller{Id: "it-u-admin", Role: models.UserRoleAccountAdmin, CompanyId: utils.NilIfEmpty("it-co-a")},
		})
		require.NoError(t, err)

		var body struct {
			Summary struct {
				TotalOrders int `json:"totalOrders"`
			} `json:"summary"`
		}
		require.NoError(t, json.Unmarshal(out.Body, &body))
		assert.Equal(t, 2, body.Summary.TotalOrders)
	})
}

func seedReportData(t *testing.T, db *gorm.DB, now time.Time) {
	t.Helper()
	coA, coB := "it-co-a", "it-co-b"
	day := 24 * time.Hour

	rows := []any{
		&[]models.Company{{ID: coA, Name: "Acme"}, {ID: coB, Name: "Globex"}},
		&[]models.User{
			{ID: "it-u-admin", Name: "Admin", Email: "admin@it.test", Role: models.UserRoleAccountAdmin, CompanyId: &coA, IsActive: true},
			{ID: "it-u-buyer-a", Name: "Buyer A", Email: "a@it.test", Role: models.UserRoleBuyer, CompanyId: &coA, IsActive: true},
			{ID: "it-u-buyer-b", Name: "Buyer B", Email: "b@it.test", Role: models.UserRoleBuyer, CompanyId: &coB, IsActive: true},
		},
		&[]models.Product{
			{ID: "it-p-1", Name: "Widget", Sku: "IT-SKU-1", Price: decimal.NewFromInt(25), Stock: 10, MinStock: 2, Status: models.ProductStatusActive},
			{ID: "it-p-2", Name: "Gadget", Sku: "IT-SKU-2", Price: decimal.NewFromInt(10), Stock: 0, MinStock: 1, Status: models.ProductStatusActive},
		},
		&[]models.Order{
			{ID: "it-o-1", OrderNumber: "IT-1", Status: models.OrderStatusDelivered, Total: decimal.NewFromInt(100), UserId: "it-u-buyer-a", CompanyId: &coA, CreatedAt: now.Add(-1 * day)},
			{ID: "it-o-2", OrderNumber: "IT-2", Status: models.OrderStatusCancelled, Total: decimal.NewFromInt(50), UserId: "it-u-buyer-a", CompanyId: &coA, CreatedAt: now.Add(-2 * day)},
			{ID: "it-o-3", OrderNumber: "IT-3", Status: models.OrderStatusPending, Total: decimal.NewFromInt(30), UserId: "it-u-buyer-b", CompanyId: &coB, CreatedAt: now.Add(-3 * day)},
			{ID: "it-o-4", OrderNumber: "IT-4", Status: models.OrderStatusDelivered, Total: decimal.NewFromInt(999), UserId: "it-u-buyer-b", CompanyId: &coB, CreatedAt: now.Add(-90 * day)},
		},
		&[]models.OrderItem{
			{OrderId: "it-o-1", ProductId: "it-p-1", Quantity: 4, Price: decimal.NewFromInt(25)},
			{OrderId: "it-o-2", ProductId: "it-p-1", Quantity: 2, Price: decimal.NewFromInt(25)},
			{OrderId: "it-o-3", ProductId: "it-p-2", Quantity: 3, Price: decimal.NewFromInt(10)},
		},
		&[]models.Payment{
			{OrderId: "it-o-1", Amount: decimal.NewFromInt(100), Method: "card", Status: "COMPLETED", CreatedAt: now.Add(-1 * day)},
			{OrderId: "it-o-1", Amount: decimal.NewFromInt(0), Method: "refund", Status: "COMPLETED", CreatedAt: now},
		},
		&[]models.AuditLog{
			{Action: "user.login", UserId: "it-u-admin", Severity: models.AuditSeverityInfo, Category: models.AuditCategoryAuthentication, CreatedAt: now.Add(-1 * time.Hour)},
			{Action: "order.update", UserId: "it-u-admin", Severity: models.AuditSeverityWarning, Category: models.AuditCategoryData, CreatedAt: now.Add(-2 * day)},
			{Action: "user.delete", UserId: "it-u-admin", Severity: models.AuditSeverityCritical, Category: models.AuditCategoryUserManagement, CreatedAt: now.Add(-60 * day)},
		},
	}
	for _, r := range rows {
		require.NoError(t, db.Create(r).Error)
	}
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("portal-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=portal_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// "127.0.0.1:49154\n"
	m := regexp.MustCompile(`:(\d+)`).FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	b, err := exec.Command("docker", args...).CombinedOutput()
	return string(b), err
}
