package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	IncludeInactive   bool
	MaxQuantity       *int64
	ExpiresOnOrBefore *time.Time
	OrderBy           string
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, medicine *Medicine) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Medicine, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Medicine, error)
	FindView(ctx context.Context, db *gorm.DB, id snowflake.ID) (*MedicineView, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]MedicineView, error)

	AddQuantity(ctx context.Context, db *gorm.DB, id snowflake.ID, delta int64, now time.Time) (int64, error)
	SubtractQuantity(ctx context.Context, db *gorm.DB, id snowflake.ID, delta int64, now time.Time) (int64, error)
	DeactivateDepleted(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (int64, error)
	DeactivateExpiredByID(ctx context.Context, db *gorm.DB, id snowflake.ID, today time.Time, now time.Time) (int64, error)
	DeactivateExpired(ctx context.Context, db *gorm.DB, today time.Time, now time.Time) (int64, error)
	Deactivate(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) error

	CountInvoiceReferences(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error)
	DeletePurchases(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
