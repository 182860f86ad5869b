package domain

import (
	"context"
	"errors"
)

type CreateSupplierRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

type UpdateSupplierRequest = CreateSupplierRequest

type Service interface {
	Create(context.Context, CreateSupplierRequest) (Supplier, error)
	Update(ctx context.Context, id string, req UpdateSupplierRequest) (Supplier, error)
	List(context.Context) ([]Supplier, error)
	GetByID(ctx context.Context, id string) (Supplier, error)
}

var (
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidEmail = errors.New("invalid_email")
	ErrInvalidID    = errors.New("invalid_id")
	ErrNotFound     = errors.New("supplier_not_found")
)
