package repository

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/apotek/internal/purchase/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const batchSequenceRowID = 1

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

// NextBatchID increments the counter row before reading it back, so the row
// lock is held for the rest of the caller's transaction.
func (r *repo) NextBatchID(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	db = db.WithContext(ctx)

	affected, err := r.bump(db, now)
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		var maxPID int64
		if err := db.Raw(`SELECT COALESCE(MAX(p_id), 0) FROM purchases`).Scan(&maxPID).Error; err != nil {
			return 0, err
		}
		seed := domain.BatchSequence{ID: batchSequenceRowID, NextValue: maxPID + 1, UpdatedAt: now}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return 0, err
		}
		affected, err = r.bump(db, now)
		if err != nil {
			return 0, err
		}
		if affected == 0 {
			return 0, errors.New("purchase batch sequence unavailable")
		}
	}

	var next int64
	err = db.Raw(
		`SELECT next_value FROM purchase_batch_sequences WHERE id = ?`, batchSequenceRowID,
	).Scan(&next).Error
	if err != nil {
		return 0, err
	}
	return next - 1, nil
}

func (r *repo) bump(db *gorm.DB, now time.Time) (int64, error) {
	result := db.Exec(
		`UPDATE purchase_batch_sequences SET next_value = next_value + 1, updated_at = ? WHERE id = ?`,
		now, batchSequenceRowID,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) InsertEntry(ctx context.Context, db *gorm.DB, entry *domain.PurchaseEntry) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO purchases (
			id, p_id, medicine_id, medicine_name, suid, supplier_name,
			quantity, unit_price, total_price, date, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.PID,
		entry.MedicineID,
		entry.MedicineName,
		entry.SUID,
		entry.SupplierName,
		entry.Quantity,
		entry.UnitPrice,
		entry.TotalPrice,
		entry.Date,
		entry.CreatedAt,
	).Error
}
