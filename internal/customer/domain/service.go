package domain

import (
	"context"
	"errors"
)

type CreateCustomerRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

type UpdateCustomerRequest = CreateCustomerRequest

type Service interface {
	Create(context.Context, CreateCustomerRequest) (Customer, error)
	Update(ctx context.Context, id string, req UpdateCustomerRequest) (Customer, error)
	List(context.Context) ([]Customer, error)
	GetByID(ctx context.Context, id string) (Customer, error)
}

var (
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidEmail = errors.New("invalid_email")
	ErrInvalidID    = errors.New("invalid_id")
	ErrNotFound     = errors.New("customer_not_found")
)
