package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

type CreateInvoiceItem struct {
	MedicineID string          `json:"medicineId"`
	Quantity   int64           `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
}

type CreateInvoiceRequest struct {
	CUID       string              `json:"CUID"`
	Date       string              `json:"date"`
	Discount   decimal.Decimal     `json:"discount"`
	Items      []CreateInvoiceItem `json:"items"`
	FinalTotal decimal.Decimal     `json:"finalTotal"`
}

type Document struct {
	Filename string
	Content  []byte
}

type Service interface {
	CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (InvoiceDetail, error)
	List(ctx context.Context) ([]InvoiceDetail, error)
	GetByID(ctx context.Context, id string) (InvoiceDetail, error)
	RenderPDF(ctx context.Context, id string) (Document, error)
}

var (
	ErrInvalidID         = errors.New("invalid_id")
	ErrInvalidCustomerID = errors.New("invalid_customer_id")
	ErrInvalidDate       = errors.New("invalid_date")
	ErrInvalidDiscount   = errors.New("invalid_discount")
	ErrInvalidFinalTotal = errors.New("invalid_final_total")
	ErrEmptyItems        = errors.New("empty_items")
	ErrInvalidMedicineID = errors.New("invalid_medicine_id")
	ErrInvalidQuantity   = errors.New("invalid_quantity")
	ErrInvalidUnitPrice  = errors.New("invalid_unit_price")
	ErrTotalMismatch     = errors.New("total_mismatch")
	ErrNotFound          = errors.New("invoice_not_found")
)

// LineError ties a validation failure to one request line.
type LineError struct {
	Index int
	Field string
	Err   error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("items[%d].%s: %v", e.Index, e.Field, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }
