package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/apotek/internal/invoice/domain"
	"gorm.io/gorm"
)

const unknownName = "Unknown"

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

// ListDetails returns invoices newest first, or only id when it is set.
func (r *repo) ListDetails(ctx context.Context, db *gorm.DB, id *snowflake.ID) ([]domain.InvoiceDetail, error) {
	stmt := db.WithContext(ctx).
		Table("invoices AS i").
		Select(`i.*,
			COALESCE(c.name, ?) AS customer_name,
			COALESCE(c.address, '') AS customer_address,
			COALESCE(c.phone, '') AS customer_phone`, unknownName).
		Joins("LEFT JOIN customers c ON c.id = i.cuid")
	if id != nil {
		stmt = stmt.Where("i.id = ?", *id)
	}

	var details []domain.InvoiceDetail
	if err := stmt.Order("i.date desc, i.id desc").Scan(&details).Error; err != nil {
		return nil, err
	}
	return details, nil
}

func (r *repo) ListItemDetails(ctx context.Context, db *gorm.DB, invoiceIDs []snowflake.ID) ([]domain.InvoiceItemDetail, error) {
	if len(invoiceIDs) == 0 {
		return nil, nil
	}

	var items []domain.InvoiceItemDetail
	err := db.WithContext(ctx).
		Table("invoice_items AS ii").
		Select("ii.*, COALESCE(m.name, ?) AS medicine_name", unknownName).
		Joins("LEFT JOIN medicines m ON m.id = ii.medicine_id").
		Where("ii.invoice_id IN ?", invoiceIDs).
		Order("ii.id asc").
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
