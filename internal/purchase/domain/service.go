package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// IntakeItem is one incoming medicine. Dates use YYYY-MM-DD.
type IntakeItem struct {
	Name        string          `json:"name"`
	BatchNumber string          `json:"batchNumber"`
	EntryDate   string          `json:"entryDate"`
	ExpiryDate  string          `json:"expiryDate"`
	Quantity    int64           `json:"quantity"`
	CostPrice   decimal.Decimal `json:"costPrice"`
	Description string          `json:"description"`
	SUID        string          `json:"SUID"`
}

type IntakeResult struct {
	BatchID     int64    `json:"purchase_id"`
	Count       int      `json:"count"`
	MedicineIDs []string `json:"medicine_ids"`
}

type Service interface {
	Intake(ctx context.Context, items []IntakeItem) (IntakeResult, error)
}

var (
	ErrEmptyIntake       = errors.New("empty_intake")
	ErrInvalidName       = errors.New("invalid_name")
	ErrInvalidQuantity   = errors.New("invalid_quantity")
	ErrInvalidCostPrice  = errors.New("invalid_cost_price")
	ErrInvalidEntryDate  = errors.New("invalid_entry_date")
	ErrInvalidExpiryDate = errors.New("invalid_expiry_date")
	ErrExpiryBeforeEntry = errors.New("expiry_before_entry")
	ErrInvalidSupplierID = errors.New("invalid_supplier_id")
)

// ItemError ties a validation failure to the offending intake item.
type ItemError struct {
	Index int
	Field string
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %d: %s: %v", e.Index, e.Field, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }
