package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/apotek/internal/audit/domain"
	"github.com/smallbiznis/apotek/pkg/db"
)

const RecentLogLimit = 4

type Totals struct {
	TotalMedicines int64 `json:"medicines" db:"total_medicines"`
	TotalSuppliers int64 `json:"suppliers" db:"total_suppliers"`
	TotalCustomers int64 `json:"customers" db:"total_customers"`
	TotalInvoices  int64 `json:"invoices" db:"total_invoices"`
}

// MonthlySales is the invoice total of one calendar month, keyed "MM-YYYY".
type MonthlySales struct {
	Month string          `json:"month"`
	Total decimal.Decimal `json:"total"`
}

type PurchaseSummary struct {
	Total        decimal.Decimal `json:"total"`
	CurrentMonth decimal.Decimal `json:"current_month"`
}

type SaleRow struct {
	Date        db.Date         `db:"date"`
	TotalAmount decimal.Decimal `db:"total_amount"`
}

type Repository interface {
	Totals(ctx context.Context) (Totals, error)
	ListSales(ctx context.Context) ([]SaleRow, error)
	SumPurchases(ctx context.Context, from, to *time.Time) (decimal.Decimal, error)
}

type Service interface {
	Totals(ctx context.Context) (Totals, error)
	MonthlySales(ctx context.Context) ([]MonthlySales, error)
	PurchaseSummary(ctx context.Context) (PurchaseSummary, error)
	RecentLogs(ctx context.Context) ([]auditdomain.ActivityLog, error)
}
