package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/apotek/internal/audit/domain"
	auditrepository "github.com/smallbiznis/apotek/internal/audit/repository"
	auditservice "github.com/smallbiznis/apotek/internal/audit/service"
	"github.com/smallbiznis/apotek/internal/clock"
	"github.com/smallbiznis/apotek/internal/config"
	ledgerdomain "github.com/smallbiznis/apotek/internal/ledger/domain"
	"github.com/smallbiznis/apotek/internal/ledger/repository"
	"github.com/smallbiznis/apotek/internal/migration"
	supplierdomain "github.com/smallbiznis/apotek/internal/supplier/domain"
	"github.com/smallbiznis/apotek/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	node     *snowflake.Node
	clock    *clock.FakeClock
	ledger   ledgerdomain.Ledger
	svc      ledgerdomain.Service
	audit    auditdomain.Service
	supplier supplierdomain.Supplier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn, err := db.NewTest(t.Name())
	require.NoError(t, err)
	require.NoError(t, migration.AutoMigrate(conn))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC))

	audit := auditservice.NewService(auditservice.Params{
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		Repo:  auditrepository.Provide(conn),
	})
	repo := repository.Provide()
	ledger := NewLedger(LedgerParams{Log: zap.NewNop(), Clock: fake, Repo: repo})
	svc := New(Params{
		DB:       conn,
		Log:      zap.NewNop(),
		Clock:    fake,
		Repo:     repo,
		Ledger:   ledger,
		AuditSvc: audit,
		Policy:   config.NewStaticInventoryPolicy(config.DefaultInventoryPolicy()),
	})

	supplier := supplierdomain.Supplier{
		ID:        node.Generate(),
		Name:      "PT Kimia Farma",
		CreatedAt: fake.Now(),
		UpdatedAt: fake.Now(),
	}
	require.NoError(t, conn.Create(&supplier).Error)

	return &fixture{db: conn, node: node, clock: fake, ledger: ledger, svc: svc, audit: audit, supplier: supplier}
}

func (f *fixture) stock(t *testing.T, name string, qty int64, expiry time.Time) ledgerdomain.Medicine {
	t.Helper()
	medicine := ledgerdomain.Medicine{
		ID:         f.node.Generate(),
		Name:       name,
		EntryDate:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		ExpiryDate: expiry,
		CostPrice:  decimal.RequireFromString("10.00"),
		SUID:       f.supplier.ID,
	}
	ctx := context.Background()
	err := f.db.Transaction(func(tx *gorm.DB) error {
		if err := f.ledger.Open(ctx, tx, &medicine); err != nil {
			return err
		}
		if qty == 0 {
			return nil
		}
		return f.ledger.Credit(ctx, tx, medicine.ID, qty)
	})
	require.NoError(t, err)
	medicine.Quantity = qty
	return medicine
}

func (f *fixture) reload(t *testing.T, id snowflake.ID) ledgerdomain.Medicine {
	t.Helper()
	medicine, err := f.ledger.Get(context.Background(), f.db, id)
	require.NoError(t, err)
	return *medicine
}

var farExpiry = time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)

func TestDebitRejectsOverdraw(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	med := f.stock(t, "Amoxicillin 500mg", 5, farExpiry)

	err := f.ledger.Debit(ctx, f.db, med.ID, 6)
	require.ErrorIs(t, err, ledgerdomain.ErrInsufficientStock)

	var stockErr *ledgerdomain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Amoxicillin 500mg", stockErr.Name)
	assert.Equal(t, int64(5), stockErr.Available)
	assert.Equal(t, int64(5), f.reload(t, med.ID).Quantity)

	assert.ErrorIs(t, f.ledger.Debit(ctx, f.db, med.ID, 0), ledgerdomain.ErrInvalidQuantity)
	assert.ErrorIs(t, f.ledger.Debit(ctx, f.db, f.node.Generate(), 1), ledgerdomain.ErrMedicineNotFound)
}

func TestDepletionDeactivates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	med := f.stock(t, "Paracetamol 500mg", 10, farExpiry)

	require.NoError(t, f.ledger.Debit(ctx, f.db, med.ID, 4))
	ok, err := f.ledger.DeactivateIfDepleted(ctx, f.db, med.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, f.ledger.Debit(ctx, f.db, med.ID, 6))
	ok, err = f.ledger.DeactivateIfDepleted(ctx, f.db, med.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	reloaded := f.reload(t, med.ID)
	assert.Equal(t, int64(0), reloaded.Quantity)
	assert.False(t, reloaded.IsActive)

	active, err := f.svc.List(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := f.svc.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "PT Kimia Farma", all[0].SupplierName)
}

func TestExpirySweepIsIdempotentAndMonotonic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	expired := f.stock(t, "Ibuprofen 200mg", 40, time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC))
	lastDay := f.stock(t, "Cetirizine 10mg", 40, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC))

	count, err := f.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = f.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	assert.False(t, f.reload(t, expired.ID).IsActive)
	assert.True(t, f.reload(t, lastDay.ID).IsActive)

	f.clock.Advance(24 * time.Hour)
	list, err := f.svc.List(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, list)

	f.clock.Set(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	_, err = f.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.False(t, f.reload(t, expired.ID).IsActive)
}

func TestArchive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	med := f.stock(t, "Omeprazole 20mg", 12, farExpiry)

	result, err := f.svc.Archive(ctx, med.ID.String())
	require.NoError(t, err)
	assert.True(t, result.Archived)
	assert.False(t, result.IsActive)

	logs, err := f.audit.Recent(ctx, 4)
	require.NoError(t, err)
	require.NotEmpty(t, logs)
	assert.Equal(t, auditdomain.TypeArchiving, logs[0].Type)
	assert.Equal(t, "Medicine Archived: Omeprazole 20mg (ID: "+med.ID.String()+")", logs[0].Message)

	_, err = f.svc.Archive(ctx, f.node.Generate().String())
	assert.ErrorIs(t, err, ledgerdomain.ErrMedicineNotFound)
	_, err = f.svc.Archive(ctx, "not-an-id")
	assert.ErrorIs(t, err, ledgerdomain.ErrInvalidID)
}

func TestDeleteOnlyBeforeSale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	unsold := f.stock(t, "Vitamin C 500mg", 10, farExpiry)
	sold := f.stock(t, "Loratadine 10mg", 10, farExpiry)

	require.NoError(t, f.db.Exec(
		`INSERT INTO purchases (id, p_id, medicine_id, medicine_name, suid, supplier_name, quantity, unit_price, total_price, date, created_at)
		 VALUES (?, 1, ?, 'Vitamin C 500mg', ?, 'PT Kimia Farma', 10, 1, 10, ?, ?)`,
		f.node.Generate(), unsold.ID, f.supplier.ID, unsold.EntryDate, f.clock.Now(),
	).Error)
	require.NoError(t, f.db.Exec(
		`INSERT INTO invoice_items (id, invoice_id, medicine_id, quantity, unit_price) VALUES (?, ?, ?, 1, 5)`,
		f.node.Generate(), f.node.Generate(), sold.ID,
	).Error)

	require.NoError(t, f.svc.Delete(ctx, unsold.ID.String()))
	_, err := f.svc.Get(ctx, unsold.ID.String())
	assert.ErrorIs(t, err, ledgerdomain.ErrMedicineNotFound)

	var purchases int64
	require.NoError(t, f.db.Table("purchases").Where("medicine_id = ?", unsold.ID).Count(&purchases).Error)
	assert.Zero(t, purchases)

	err = f.svc.Delete(ctx, sold.ID.String())
	assert.ErrorIs(t, err, ledgerdomain.ErrMedicineReferenced)
	assert.Equal(t, int64(10), f.reload(t, sold.ID).Quantity)
}

func TestLowStockAndNearExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	low := f.stock(t, "Salbutamol inhaler", 20, farExpiry)
	f.stock(t, "Metformin 500mg", 21, farExpiry)
	soon := f.stock(t, "Insulin pen", 50, time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC))
	gone := f.stock(t, "Old syrup", 50, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	f.stock(t, "Later syrup", 50, time.Date(2024, 7, 16, 0, 0, 0, 0, time.UTC))

	lows, err := f.svc.LowStock(ctx)
	require.NoError(t, err)
	require.Len(t, lows, 1)
	assert.Equal(t, low.ID, lows[0].ID)

	near, err := f.svc.NearExpiry(ctx)
	require.NoError(t, err)
	require.Len(t, near, 2)
	assert.Equal(t, gone.ID, near[0].ID)
	assert.False(t, near[0].IsActive)
	assert.Equal(t, soon.ID, near[1].ID)
}
