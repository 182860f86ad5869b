package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	// NextBatchID allocates the next purchase batch id inside db's transaction.
	NextBatchID(ctx context.Context, db *gorm.DB, now time.Time) (int64, error)
	InsertEntry(ctx context.Context, db *gorm.DB, entry *PurchaseEntry) error
}
