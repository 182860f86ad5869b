package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/apotek/pkg/db"
)

// PurchaseRow is one purchases line joined with its supplier.
type PurchaseRow struct {
	PID          int64           `db:"p_id"`
	Date         db.Date         `db:"date"`
	SUID         snowflake.ID    `db:"suid"`
	SupplierName string          `db:"supplier_name"`
	MedicineName string          `db:"medicine_name"`
	Quantity     int64           `db:"quantity"`
	UnitPrice    decimal.Decimal `db:"unit_price"`
	TotalPrice   decimal.Decimal `db:"total_price"`
}

type InvoiceRow struct {
	ID              snowflake.ID    `db:"id"`
	Date            db.Date         `db:"date"`
	CUID            snowflake.ID    `db:"cuid"`
	CustomerName    string          `db:"customer_name"`
	CustomerAddress string          `db:"customer_address"`
	Discount        decimal.Decimal `db:"discount"`
	TotalAmount     decimal.Decimal `db:"total_amount"`
}

type InvoiceItemRow struct {
	InvoiceID    snowflake.ID    `db:"invoice_id"`
	MedicineName string          `db:"medicine_name"`
	Quantity     int64           `db:"quantity"`
	UnitPrice    decimal.Decimal `db:"unit_price"`
}

type Repository interface {
	ListPurchases(ctx context.Context, r DateRange, supplierID *snowflake.ID) ([]PurchaseRow, error)
	ListInvoices(ctx context.Context, r DateRange, customerID *snowflake.ID) ([]InvoiceRow, error)
	ListInvoiceItems(ctx context.Context, invoiceIDs []snowflake.ID) ([]InvoiceItemRow, error)
}
