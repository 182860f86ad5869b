package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Invoice is an immutable sale header. Discount and TotalAmount are stored as
// supplied by the caller.
type Invoice struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	CUID        snowflake.ID    `gorm:"column:cuid;not null;index" json:"CUID"`
	Date        time.Time       `gorm:"type:date;not null;index" json:"date"`
	Discount    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"discount"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total_amount"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
}

func (Invoice) TableName() string { return "invoices" }

type InvoiceItem struct {
	ID         snowflake.ID    `gorm:"primaryKey" json:"id"`
	InvoiceID  snowflake.ID    `gorm:"not null;index" json:"invoice_id"`
	MedicineID snowflake.ID    `gorm:"not null;index" json:"medicine_id"`
	Quantity   int64           `gorm:"not null" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
}

func (InvoiceItem) TableName() string { return "invoice_items" }

type InvoiceItemDetail struct {
	InvoiceItem
	MedicineName string `gorm:"column:medicine_name" json:"medicine_name"`
}

// InvoiceDetail is an invoice with its customer and line items resolved.
type InvoiceDetail struct {
	Invoice
	CustomerName         string              `gorm:"column:customer_name" json:"customer_name"`
	CustomerAddress      string              `gorm:"column:customer_address" json:"customer_address"`
	CustomerPhone        string              `gorm:"column:customer_phone" json:"customer_phone"`
	AmountBeforeDiscount decimal.Decimal     `gorm:"-" json:"amount_before_discount"`
	Items                []InvoiceItemDetail `gorm:"-" json:"items"`
}

// Subtotal sums unit_price * quantity over items.
func Subtotal(items []InvoiceItemDetail) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(item.Quantity)))
	}
	return total
}
