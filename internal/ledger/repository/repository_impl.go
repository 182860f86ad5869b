package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/apotek/internal/ledger/domain"
	pkgdb "github.com/smallbiznis/apotek/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, medicine *domain.Medicine) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO medicines (
			id, name, batch_number, entry_date, expiry_date, quantity, cost_price,
			description, suid, is_active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		medicine.ID,
		medicine.Name,
		medicine.BatchNumber,
		medicine.EntryDate,
		medicine.ExpiryDate,
		medicine.Quantity,
		medicine.CostPrice,
		medicine.Description,
		medicine.SUID,
		medicine.IsActive,
		medicine.CreatedAt,
		medicine.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Medicine, error) {
	return r.find(db.WithContext(ctx), id)
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Medicine, error) {
	return r.find(pkgdb.ForUpdate(db.WithContext(ctx)), id)
}

func (r *repo) find(stmt *gorm.DB, id snowflake.ID) (*domain.Medicine, error) {
	var medicine domain.Medicine
	err := stmt.Where("id = ?", id).Take(&medicine).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &medicine, nil
}

func (r *repo) FindView(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.MedicineView, error) {
	var views []domain.MedicineView
	err := viewQuery(db.WithContext(ctx)).
		Where("m.id = ?", id).
		Limit(1).
		Scan(&views).Error
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, nil
	}
	return &views[0], nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.MedicineView, error) {
	stmt := viewQuery(db.WithContext(ctx))
	if !filter.IncludeInactive {
		stmt = stmt.Where("m.is_active = ?", true)
	}
	if filter.MaxQuantity != nil {
		stmt = stmt.Where("m.quantity <= ?", *filter.MaxQuantity)
	}
	if filter.ExpiresOnOrBefore != nil {
		stmt = stmt.Where("m.expiry_date <= ?", filter.ExpiresOnOrBefore.UTC())
	}

	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "m.id asc"
	}

	var views []domain.MedicineView
	if err := stmt.Order(orderBy).Scan(&views).Error; err != nil {
		return nil, err
	}
	return views, nil
}

func viewQuery(db *gorm.DB) *gorm.DB {
	return db.Table("medicines AS m").
		Select("m.*, COALESCE(s.name, '') AS supplier_name").
		Joins("LEFT JOIN suppliers s ON s.id = m.suid")
}

func (r *repo) AddQuantity(ctx context.Context, db *gorm.DB, id snowflake.ID, delta int64, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE medicines SET quantity = quantity + ?, updated_at = ? WHERE id = ?`,
		delta, now, id,
	)
	return result.RowsAffected, result.Error
}

// SubtractQuantity only applies when the row still holds at least delta units.
func (r *repo) SubtractQuantity(ctx context.Context, db *gorm.DB, id snowflake.ID, delta int64, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE medicines SET quantity = quantity - ?, updated_at = ? WHERE id = ? AND quantity >= ?`,
		delta, now, id, delta,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) DeactivateDepleted(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE medicines SET is_active = ?, updated_at = ? WHERE id = ? AND quantity = 0 AND is_active = ?`,
		false, now, id, true,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) DeactivateExpiredByID(ctx context.Context, db *gorm.DB, id snowflake.ID, today time.Time, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE medicines SET is_active = ?, updated_at = ? WHERE id = ? AND expiry_date < ? AND is_active = ?`,
		false, now, id, today, true,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) DeactivateExpired(ctx context.Context, db *gorm.DB, today time.Time, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE medicines SET is_active = ?, updated_at = ? WHERE expiry_date < ? AND is_active = ?`,
		false, now, today, true,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) Deactivate(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE medicines SET is_active = ?, updated_at = ? WHERE id = ?`,
		false, now, id,
	).Error
}

func (r *repo) CountInvoiceReferences(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM invoice_items WHERE medicine_id = ?`, id,
	).Scan(&count).Error
	return count, err
}

func (r *repo) DeletePurchases(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM purchases WHERE medicine_id = ?`, id).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM medicines WHERE id = ?`, id).Error
}
