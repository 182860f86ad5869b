package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/apotek/internal/dashboard/domain"
)

type repo struct {
	db *sqlx.DB
}

func Provide(db *sqlx.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) Totals(ctx context.Context) (domain.Totals, error) {
	var totals domain.Totals
	err := r.db.GetContext(ctx, &totals, r.db.Rebind(`SELECT
			(SELECT COUNT(*) FROM medicines WHERE is_active = ?) AS total_medicines,
			(SELECT COUNT(*) FROM suppliers) AS total_suppliers,
			(SELECT COUNT(*) FROM customers) AS total_customers,
			(SELECT COUNT(*) FROM invoices) AS total_invoices`), true)
	return totals, err
}

func (r *repo) ListSales(ctx context.Context) ([]domain.SaleRow, error) {
	rows := []domain.SaleRow{}
	if err := r.db.SelectContext(ctx, &rows, `SELECT date, total_amount FROM invoices ORDER BY date ASC`); err != nil {
		return nil, err
	}
	return rows, nil
}

// SumPurchases totals purchase lines with from <= date < to. Nil bounds are open.
func (r *repo) SumPurchases(ctx context.Context, from, to *time.Time) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(total_price), 0) FROM purchases WHERE 1 = 1`
	args := []any{}
	if from != nil {
		query += ` AND date >= ?`
		args = append(args, *from)
	}
	if to != nil {
		query += ` AND date < ?`
		args = append(args, *to)
	}

	var total decimal.Decimal
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(query), args...); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}
