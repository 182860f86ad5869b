package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	customerdomain "github.com/smallbiznis/apotek/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/apotek/internal/invoice/domain"
	ledgerdomain "github.com/smallbiznis/apotek/internal/ledger/domain"
	"github.com/smallbiznis/apotek/internal/migration"
	purchasedomain "github.com/smallbiznis/apotek/internal/purchase/domain"
	"github.com/smallbiznis/apotek/internal/report/domain"
	"github.com/smallbiznis/apotek/internal/report/repository"
	supplierdomain "github.com/smallbiznis/apotek/internal/supplier/domain"
	"github.com/smallbiznis/apotek/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	node     *snowflake.Node
	svc      domain.Service
	supplier supplierdomain.Supplier
	customer customerdomain.Customer
	medicine ledgerdomain.Medicine
}

func day(value string) time.Time {
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
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	f := &fixture{
		db:   conn,
		node: node,
		svc:  New(Params{Log: zap.NewNop(), Repo: repository.Provide(readDB)}),
	}
	f.supplier = supplierdomain.Supplier{ID: node.Generate(), Name: "PT Anugrah Medika", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, conn.Create(&f.supplier).Error)
	f.customer = customerdomain.Customer{ID: node.Generate(), Name: "Budi", Address: "Jl. Merdeka 1", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, conn.Create(&f.customer).Error)
	f.medicine = ledgerdomain.Medicine{
		ID:         node.Generate(),
		Name:       "Paracetamol",
		EntryDate:  day("2024-03-01"),
		ExpiryDate: day("2025-03-01"),
		Quantity:   100,
		CostPrice:  decimal.RequireFromString("2.50"),
		SUID:       f.supplier.ID,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, conn.Create(&f.medicine).Error)
	return f
}

func (f *fixture) purchase(t *testing.T, pid int64, date string, qty int64, unit string) {
	t.Helper()
	price := decimal.RequireFromString(unit)
	entry := purchasedomain.PurchaseEntry{
		ID:           f.node.Generate(),
		PID:          pid,
		MedicineID:   f.medicine.ID,
		MedicineName: f.medicine.Name,
		SUID:         f.supplier.ID,
		SupplierName: f.supplier.Name,
		Quantity:     qty,
		UnitPrice:    price,
		TotalPrice:   price.Mul(decimal.NewFromInt(qty)),
		Date:         day(date),
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, f.db.Create(&entry).Error)
}

func (f *fixture) invoice(t *testing.T, date string, total string, lines ...int64) invoicedomain.Invoice {
	t.Helper()
	inv := invoicedomain.Invoice{
		ID:          f.node.Generate(),
		CUID:        f.customer.ID,
		Date:        day(date),
		Discount:    decimal.Zero,
		TotalAmount: decimal.RequireFromString(total),
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, f.db.Create(&inv).Error)
	for _, qty := range lines {
		item := invoicedomain.InvoiceItem{
			ID:         f.node.Generate(),
			InvoiceID:  inv.ID,
			MedicineID: f.medicine.ID,
			Quantity:   qty,
			UnitPrice:  decimal.RequireFromString("5.25"),
		}
		require.NoError(t, f.db.Create(&item).Error)
	}
	return inv
}

func TestParseDateRange(t *testing.T) {
	_, err := domain.ParseDateRange("2024-03-01", "2024-03-31")
	assert.NoError(t, err)

	cases := [][2]string{
		{"", "2024-03-31"},
		{"2024-03-01", ""},
		{"2024/03/01", "2024-03-31"},
		{"2024-04-01", "2024-03-31"},
	}
	for _, tc := range cases {
		_, err := domain.ParseDateRange(tc[0], tc[1])
		assert.ErrorIs(t, err, domain.ErrInvalidDateRange, "%v", tc)
	}
}

func TestPurchaseReportGroupsByBatch(t *testing.T) {
	f := newFixture(t)
	f.purchase(t, 1, "2024-03-02", 10, "2.50")
	f.purchase(t, 1, "2024-03-02", 4, "1.25")
	f.purchase(t, 2, "2024-03-05", 3, "10.00")
	f.purchase(t, 3, "2024-04-02", 50, "1.00")

	report, err := f.svc.PurchaseReport(context.Background(), domain.PurchaseReportRequest{
		StartDate: "2024-03-01",
		EndDate:   "2024-03-31",
	})
	require.NoError(t, err)

	require.Len(t, report.Data, 2)
	assert.Equal(t, int64(2), report.Data[0].PurchaseID)
	assert.Equal(t, "2024-03-05", report.Data[0].Date)
	assert.Equal(t, int64(1), report.Data[1].PurchaseID)
	assert.Len(t, report.Data[1].Items, 2)
	assert.Equal(t, "30.00", report.Data[1].TotalAmount.StringFixed(2))
	assert.Equal(t, int64(14), report.Data[1].TotalQuantity)
	assert.Equal(t, "PT Anugrah Medika", report.Data[1].SupplierName)

	assert.Equal(t, int64(17), report.TotalQuantity)
	assert.Equal(t, "60.00", report.TotalAmount.StringFixed(2))
}

func TestPurchaseReportKeepsSupplierSnapshot(t *testing.T) {
	f := newFixture(t)
	f.purchase(t, 1, "2024-03-02", 10, "2.50")

	require.NoError(t, f.db.Model(&supplierdomain.Supplier{}).Where("id = ?", f.supplier.ID).
		Update("name", "Renamed Supplier").Error)

	report, err := f.svc.PurchaseReport(context.Background(), domain.PurchaseReportRequest{
		StartDate: "2024-03-01",
		EndDate:   "2024-03-31",
	})
	require.NoError(t, err)

	require.Len(t, report.Data, 1)
	group := report.Data[0]
	assert.Equal(t, "PT Anugrah Medika", group.SupplierName)
	require.Len(t, group.Items, 1)
	assert.Equal(t, "PT Anugrah Medika", group.Items[0].SupplierName)

	raw, err := json.Marshal(group)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"suid":"`+f.supplier.ID.String()+`"`)
}

func TestPurchaseReportSupplierFilter(t *testing.T) {
	f := newFixture(t)
	f.purchase(t, 1, "2024-03-02", 10, "2.50")

	report, err := f.svc.PurchaseReport(context.Background(), domain.PurchaseReportRequest{
		StartDate: "2024-03-01",
		EndDate:   "2024-03-31",
		SUID:      f.node.Generate().String(),
	})
	require.NoError(t, err)
	assert.Empty(t, report.Data)
	assert.True(t, report.TotalAmount.IsZero())

	_, err = f.svc.PurchaseReport(context.Background(), domain.PurchaseReportRequest{
		StartDate: "2024-03-01",
		EndDate:   "2024-03-31",
		SUID:      "abc",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidSupplierID)
}

func TestSalesReport(t *testing.T) {
	f := newFixture(t)
	first := f.invoice(t, "2024-03-03", "52.50", 10)
	second := f.invoice(t, "2024-03-08", "20.00", 2, 2)
	f.invoice(t, "2024-05-01", "99.00", 1)

	report, err := f.svc.SalesReport(context.Background(), domain.SalesReportRequest{
		StartDate: "2024-03-01",
		EndDate:   "2024-03-31",
	})
	require.NoError(t, err)

	require.Len(t, report.Invoices, 2)
	assert.Equal(t, second.ID, report.Invoices[0].ID)
	assert.Equal(t, first.ID, report.Invoices[1].ID)
	assert.Equal(t, "Budi", report.Invoices[0].CustomerName)
	assert.Equal(t, "Jl. Merdeka 1", report.Invoices[0].CustomerAddress)
	assert.Len(t, report.Invoices[0].Items, 2)
	assert.Equal(t, "21.00", report.Invoices[0].AmountBeforeDiscount.StringFixed(2))
	assert.Equal(t, "Paracetamol", report.Invoices[1].Items[0].MedicineName)

	assert.Equal(t, int64(14), report.TotalQuantity)
	assert.Equal(t, "72.50", report.TotalAmount.StringFixed(2))
}

func TestSalesReportCustomerFilter(t *testing.T) {
	f := newFixture(t)
	f.invoice(t, "2024-03-03", "52.50", 10)

	report, err := f.svc.SalesReport(context.Background(), domain.SalesReportRequest{
		StartDate:  "2024-03-01",
		EndDate:    "2024-03-31",
		CustomerID: f.customer.ID.String(),
	})
	require.NoError(t, err)
	assert.Len(t, report.Invoices, 1)

	report, err = f.svc.SalesReport(context.Background(), domain.SalesReportRequest{
		StartDate:  "2024-03-01",
		EndDate:    "2024-03-31",
		CustomerID: f.node.Generate().String(),
	})
	require.NoError(t, err)
	assert.Empty(t, report.Invoices)
	assert.Equal(t, int64(0), report.TotalQuantity)
}
