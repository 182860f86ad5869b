package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

const DateLayout = "2006-01-02"

var ErrInvalidDateRange = errors.New("invalid_date_range")

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParseDateRange requires both bounds in YYYY-MM-DD with start not after end.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := time.Parse(DateLayout, strings.TrimSpace(start))
	if err != nil {
		return DateRange{}, ErrInvalidDateRange
	}
	e, err := time.Parse(DateLayout, strings.TrimSpace(end))
	if err != nil {
		return DateRange{}, ErrInvalidDateRange
	}
	if s.After(e) {
		return DateRange{}, ErrInvalidDateRange
	}
	return DateRange{Start: s, End: e}, nil
}

type PurchaseItem struct {
	MedicineName string          `json:"medicine_name"`
	SupplierName string          `json:"supplier_name"`
	Quantity     int64           `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	TotalCost    decimal.Decimal `json:"total_cost"`
}

// PurchaseGroup is one purchase batch.
type PurchaseGroup struct {
	PurchaseID    int64           `json:"purchase_id"`
	Date          string          `json:"date"`
	SUID          snowflake.ID    `json:"suid"`
	SupplierName  string          `json:"supplier_name"`
	Items         []PurchaseItem  `json:"items"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	TotalQuantity int64           `json:"total_quantity"`
}

type PurchaseReport struct {
	TotalQuantity int64           `json:"total_quantity"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Data          []PurchaseGroup `json:"data"`
}

type SalesItem struct {
	MedicineName string          `json:"medicine_name"`
	Quantity     int64           `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
}

type SalesRow struct {
	ID                   snowflake.ID    `json:"id"`
	Date                 string          `json:"date"`
	CUID                 snowflake.ID    `json:"CUID"`
	CustomerName         string          `json:"customer_name"`
	CustomerAddress      string          `json:"customer_address"`
	Discount             decimal.Decimal `json:"discount"`
	TotalAmount          decimal.Decimal `json:"total_amount"`
	AmountBeforeDiscount decimal.Decimal `json:"amount_before_discount"`
	Items                []SalesItem     `json:"items"`
}

type SalesReport struct {
	Invoices      []SalesRow      `json:"invoices"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	TotalQuantity int64           `json:"total_quantity"`
}

var (
	ErrInvalidSupplierID = errors.New("invalid_supplier_id")
	ErrInvalidCustomerID = errors.New("invalid_customer_id")
)
