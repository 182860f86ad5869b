package domain

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidQuantity     = errors.New("invalid_quantity")
	ErrMedicineNotFound    = errors.New("medicine_not_found")
	ErrInsufficientStock   = errors.New("insufficient_stock")
	ErrMedicineUnavailable = errors.New("medicine_unavailable")
	ErrMedicineReferenced  = errors.New("medicine_referenced_by_invoice")
)

// InsufficientStockError names the medicine whose stock could not cover a debit.
type InsufficientStockError struct {
	MedicineID snowflake.ID
	Name       string
	Requested  int64
	Available  int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.Name, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// UnavailableError is returned when selling an inactive or expired medicine.
type UnavailableError struct {
	MedicineID snowflake.ID
	Name       string
	Reason     string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("medicine %s is %s", e.Name, e.Reason)
}

func (e *UnavailableError) Is(target error) bool {
	return target == ErrMedicineUnavailable
}
