package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/jmoiron/sqlx"
	"github.com/smallbiznis/apotek/internal/report/domain"
)

type repo struct {
	db *sqlx.DB
}

func Provide(db *sqlx.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) ListPurchases(ctx context.Context, rng domain.DateRange, supplierID *snowflake.ID) ([]domain.PurchaseRow, error) {
	query := `SELECT p.p_id, p.date, p.suid, p.supplier_name,
			p.medicine_name, p.quantity, p.unit_price, p.total_price
		FROM purchases p
		WHERE p.date >= ? AND p.date <= ?`
	args := []any{rng.Start, rng.End}
	if supplierID != nil {
		query += ` AND p.suid = ?`
		args = append(args, *supplierID)
	}
	query += ` ORDER BY p.date DESC, p.p_id DESC, p.id ASC`

	rows := []domain.PurchaseRow{}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) ListInvoices(ctx context.Context, rng domain.DateRange, customerID *snowflake.ID) ([]domain.InvoiceRow, error) {
	query := `SELECT i.id, i.date, i.cuid,
			COALESCE(c.name, 'Unknown') AS customer_name,
			COALESCE(c.address, '') AS customer_address,
			i.discount, i.total_amount
		FROM invoices i
		LEFT JOIN customers c ON c.id = i.cuid
		WHERE i.date >= ? AND i.date <= ?`
	args := []any{rng.Start, rng.End}
	if customerID != nil {
		query += ` AND i.cuid = ?`
		args = append(args, *customerID)
	}
	query += ` ORDER BY i.date DESC, i.id DESC`

	rows := []domain.InvoiceRow{}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) ListInvoiceItems(ctx context.Context, invoiceIDs []snowflake.ID) ([]domain.InvoiceItemRow, error) {
	if len(invoiceIDs) == 0 {
		return nil, nil
	}
	ids := make([]int64, 0, len(invoiceIDs))
	for _, id := range invoiceIDs {
		ids = append(ids, id.Int64())
	}

	query, args, err := sqlx.In(`SELECT ii.invoice_id,
			COALESCE(m.name, 'Unknown') AS medicine_name,
			ii.quantity, ii.unit_price
		FROM invoice_items ii
		LEFT JOIN medicines m ON m.id = ii.medicine_id
		WHERE ii.invoice_id IN (?)
		ORDER BY ii.id ASC`, ids)
	if err != nil {
		return nil, err
	}

	rows := []domain.InvoiceItemRow{}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return rows, nil
}
