package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/apotek/internal/audit/domain"
	auditrepository "github.com/smallbiznis/apotek/internal/audit/repository"
	auditservice "github.com/smallbiznis/apotek/internal/audit/service"
	"github.com/smallbiznis/apotek/internal/clock"
	customerdomain "github.com/smallbiznis/apotek/internal/customer/domain"
	"github.com/smallbiznis/apotek/internal/dashboard/domain"
	"github.com/smallbiznis/apotek/internal/dashboard/repository"
	invoicedomain "github.com/smallbiznis/apotek/internal/invoice/domain"
	ledgerdomain "github.com/smallbiznis/apotek/internal/ledger/domain"
	"github.com/smallbiznis/apotek/internal/migration"
	purchasedomain "github.com/smallbiznis/apotek/internal/purchase/domain"
	supplierdomain "github.com/smallbiznis/apotek/internal/supplier/domain"
	"github.com/smallbiznis/apotek/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	node  *snowflake.Node
	clock *clock.FakeClock
	audit auditdomain.Service
	svc   domain.Service
}

func date(value string) time.Time {
	t, _ := time.Parse("2006-01-02", value)
	return t
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn, err := db.NewTest(t.Name())
	require.NoError(t, err)
	require.NoError(t, migration.AutoMigrate(conn))
	readDB, err := db.NewReadDB(conn)
	require.NoError(t, err)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC))
	audit := auditservice.NewService(auditservice.Params{
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		Repo:  auditrepository.Provide(conn),
	})

	return &fixture{
		db:    conn,
		node:  node,
		clock: fake,
		audit: audit,
		svc: New(Params{
			Log:      zap.NewNop(),
			Clock:    fake,
			Repo:     repository.Provide(readDB),
			AuditSvc: audit,
		}),
	}
}

func (f *fixture) medicine(t *testing.T, supplierID snowflake.ID, active bool) {
	t.Helper()
	now := f.clock.Now()
	m := ledgerdomain.Medicine{
		ID:         f.node.Generate(),
		Name:       "Amoxicillin",
		EntryDate:  date("2024-03-01"),
		ExpiryDate: date("2025-03-01"),
		Quantity:   10,
		CostPrice:  decimal.RequireFromString("3.00"),
		SUID:       supplierID,
		IsActive:   active,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, f.db.Create(&m).Error)
}

func (f *fixture) invoice(t *testing.T, customerID snowflake.ID, day, total string) {
	t.Helper()
	inv := invoicedomain.Invoice{
		ID:          f.node.Generate(),
		CUID:        customerID,
		Date:        date(day),
		Discount:    decimal.Zero,
		TotalAmount: decimal.RequireFromString(total),
		CreatedAt:   f.clock.Now(),
	}
	require.NoError(t, f.db.Create(&inv).Error)
}

func (f *fixture) purchase(t *testing.T, supplierID snowflake.ID, day, total string) {
	t.Helper()
	entry := purchasedomain.PurchaseEntry{
		ID:           f.node.Generate(),
		PID:          1,
		MedicineID:   f.node.Generate(),
		MedicineName: "Amoxicillin",
		SUID:         supplierID,
		SupplierName: "PT Anugrah Medika",
		Quantity:     1,
		UnitPrice:    decimal.RequireFromString(total),
		TotalPrice:   decimal.RequireFromString(total),
		Date:         date(day),
		CreatedAt:    f.clock.Now(),
	}
	require.NoError(t, f.db.Create(&entry).Error)
}

func (f *fixture) parties(t *testing.T) (supplierdomain.Supplier, customerdomain.Customer) {
	t.Helper()
	now := f.clock.Now()
	supplier := supplierdomain.Supplier{ID: f.node.Generate(), Name: "PT Anugrah Medika", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, f.db.Create(&supplier).Error)
	customer := customerdomain.Customer{ID: f.node.Generate(), Name: "Budi", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, f.db.Create(&customer).Error)
	return supplier, customer
}

func TestTotalsCountsActiveMedicinesOnly(t *testing.T) {
	f := newFixture(t)
	supplier, customer := f.parties(t)
	f.medicine(t, supplier.ID, true)
	f.medicine(t, supplier.ID, true)
	f.medicine(t, supplier.ID, false)
	f.invoice(t, customer.ID, "2024-03-02", "10.00")

	totals, err := f.svc.Totals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Totals{
		TotalMedicines: 2,
		TotalSuppliers: 1,
		TotalCustomers: 1,
		TotalInvoices:  1,
	}, totals)

	raw, err := json.Marshal(totals)
	require.NoError(t, err)
	assert.JSONEq(t, `{"medicines":2,"suppliers":1,"customers":1,"invoices":1}`, string(raw))
}

func TestMonthlySalesOrderedByYearMonth(t *testing.T) {
	f := newFixture(t)
	_, customer := f.parties(t)
	f.invoice(t, customer.ID, "2024-02-10", "10.00")
	f.invoice(t, customer.ID, "2023-12-31", "7.50")
	f.invoice(t, customer.ID, "2024-02-28", "2.25")
	f.invoice(t, customer.ID, "2024-03-01", "1.00")

	sales, err := f.svc.MonthlySales(context.Background())
	require.NoError(t, err)
	require.Len(t, sales, 3)
	assert.Equal(t, "12-2023", sales[0].Month)
	assert.Equal(t, "02-2024", sales[1].Month)
	assert.Equal(t, "12.25", sales[1].Total.StringFixed(2))
	assert.Equal(t, "03-2024", sales[2].Month)
}

func TestPurchaseSummary(t *testing.T) {
	f := newFixture(t)

	empty, err := f.svc.PurchaseSummary(context.Background())
	require.NoError(t, err)
	assert.True(t, empty.Total.IsZero())
	assert.True(t, empty.CurrentMonth.IsZero())

	supplier, _ := f.parties(t)
	f.purchase(t, supplier.ID, "2024-02-29", "40.00")
	f.purchase(t, supplier.ID, "2024-03-01", "12.50")
	f.purchase(t, supplier.ID, "2024-03-31", "7.50")
	f.purchase(t, supplier.ID, "2024-04-01", "100.00")

	summary, err := f.svc.PurchaseSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "160.00", summary.Total.StringFixed(2))
	assert.Equal(t, "20.00", summary.CurrentMonth.StringFixed(2))
}

func TestRecentLogsReturnsLastFour(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 6; i++ {
		f.clock.Advance(time.Minute)
		require.NoError(t, f.audit.Record(context.Background(), auditdomain.TypeAddition, fmt.Sprintf("entry %d", i), nil))
	}

	logs, err := f.svc.RecentLogs(context.Background())
	require.NoError(t, err)
	require.Len(t, logs, 4)
	assert.Equal(t, "entry 5", logs[0].Message)
	assert.Equal(t, "entry 2", logs[3].Message)
}
