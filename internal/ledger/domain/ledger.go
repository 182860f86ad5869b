package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Ledger owns medicine quantities. Every operation runs on the caller's transaction.
type Ledger interface {
	Get(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*Medicine, error)
	GetForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*Medicine, error)
	Open(ctx context.Context, tx *gorm.DB, medicine *Medicine) error
	Credit(ctx context.Context, tx *gorm.DB, id snowflake.ID, delta int64) error
	Debit(ctx context.Context, tx *gorm.DB, id snowflake.ID, delta int64) error
	DeactivateIfDepleted(ctx context.Context, tx *gorm.DB, id snowflake.ID) (bool, error)
	DeactivateIfExpired(ctx context.Context, tx *gorm.DB, id snowflake.ID, today time.Time) (bool, error)
	DeactivateExpired(ctx context.Context, tx *gorm.DB, today time.Time) (int64, error)
}
