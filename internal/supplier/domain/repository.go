package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository methods run on the handle they are given, so callers can pass a transaction.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, supplier *Supplier) error
	Update(ctx context.Context, db *gorm.DB, supplier *Supplier) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Supplier, error)
	List(ctx context.Context, db *gorm.DB) ([]*Supplier, error)
	Count(ctx context.Context, db *gorm.DB) (int64, error)
}
