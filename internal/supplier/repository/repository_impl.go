package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/apotek/internal/supplier/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, supplier *domain.Supplier) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO suppliers (id, name, phone, email, address, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		supplier.ID,
		supplier.Name,
		supplier.Phone,
		supplier.Email,
		supplier.Address,
		supplier.CreatedAt,
		supplier.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, supplier *domain.Supplier) error {
	return db.WithContext(ctx).Exec(
		`UPDATE suppliers SET name = ?, phone = ?, email = ?, address = ?, updated_at = ?
		 WHERE id = ?`,
		supplier.Name,
		supplier.Phone,
		supplier.Email,
		supplier.Address,
		supplier.UpdatedAt,
		supplier.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Supplier, error) {
	var supplier domain.Supplier
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, phone, email, address, created_at, updated_at
		 FROM suppliers WHERE id = ?`,
		id,
	).Scan(&supplier).Error
	if err != nil {
		return nil, err
	}
	if supplier.ID == 0 {
		return nil, nil
	}
	return &supplier, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]*domain.Supplier, error) {
	var suppliers []*domain.Supplier
	err := db.WithContext(ctx).
		Model(&domain.Supplier{}).
		Order("id asc").
		Find(&suppliers).Error
	if err != nil {
		return nil, err
	}
	return suppliers, nil
}

func (r *repo) Count(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&domain.Supplier{}).Count(&count).Error
	return count, err
}
