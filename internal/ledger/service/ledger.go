package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/apotek/internal/clock"
	ledgerdomain "github.com/smallbiznis/apotek/internal/ledger/domain"
	obsmetrics "github.com/smallbiznis/apotek/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type LedgerParams struct {
	fx.In

	Log        *zap.Logger
	Clock      clock.Clock
	Repo       ledgerdomain.Repository
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type stockLedger struct {
	log        *zap.Logger
	clock      clock.Clock
	repo       ledgerdomain.Repository
	obsMetrics *obsmetrics.Metrics
}

func NewLedger(p LedgerParams) ledgerdomain.Ledger {
	return &stockLedger{
		log:        p.Log.Named("ledger.stock"),
		clock:      p.Clock,
		repo:       p.Repo,
		obsMetrics: p.ObsMetrics,
	}
}

func (l *stockLedger) Get(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*ledgerdomain.Medicine, error) {
	medicine, err := l.repo.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if medicine == nil {
		return nil, ledgerdomain.ErrMedicineNotFound
	}
	return medicine, nil
}

func (l *stockLedger) GetForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*ledgerdomain.Medicine, error) {
	medicine, err := l.repo.FindByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if medicine == nil {
		return nil, ledgerdomain.ErrMedicineNotFound
	}
	return medicine, nil
}

// Open inserts a new medicine with no stock. Quantity arrives through Credit.
func (l *stockLedger) Open(ctx context.Context, tx *gorm.DB, medicine *ledgerdomain.Medicine) error {
	now := l.clock.Now().UTC()
	medicine.Quantity = 0
	medicine.IsActive = true
	medicine.CreatedAt = now
	medicine.UpdatedAt = now
	return l.repo.Insert(ctx, tx, medicine)
}

func (l *stockLedger) Credit(ctx context.Context, tx *gorm.DB, id snowflake.ID, delta int64) error {
	if delta <= 0 {
		return ledgerdomain.ErrInvalidQuantity
	}
	affected, err := l.repo.AddQuantity(ctx, tx, id, delta, l.clock.Now().UTC())
	if err != nil {
		return err
	}
	if affected == 0 {
		return ledgerdomain.ErrMedicineNotFound
	}
	return nil
}

// Debit decrements stock with a conditional update so concurrent sales cannot
// drive quantity below zero.
func (l *stockLedger) Debit(ctx context.Context, tx *gorm.DB, id snowflake.ID, delta int64) error {
	if delta <= 0 {
		return ledgerdomain.ErrInvalidQuantity
	}
	affected, err := l.repo.SubtractQuantity(ctx, tx, id, delta, l.clock.Now().UTC())
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	medicine, err := l.Get(ctx, tx, id)
	if err != nil {
		return err
	}
	l.obsMetrics.RecordStockRejection(ctx, "insufficient_stock")
	return &ledgerdomain.InsufficientStockError{
		MedicineID: medicine.ID,
		Name:       medicine.Name,
		Requested:  delta,
		Available:  medicine.Quantity,
	}
}

func (l *stockLedger) DeactivateIfDepleted(ctx context.Context, tx *gorm.DB, id snowflake.ID) (bool, error) {
	affected, err := l.repo.DeactivateDepleted(ctx, tx, id, l.clock.Now().UTC())
	if err != nil {
		return false, err
	}
	if affected > 0 {
		l.obsMetrics.RecordDeactivation(ctx, "depleted", affected)
		l.log.Info("medicine depleted", zap.String("medicine_id", id.String()))
	}
	return affected > 0, nil
}

func (l *stockLedger) DeactivateIfExpired(ctx context.Context, tx *gorm.DB, id snowflake.ID, today time.Time) (bool, error) {
	affected, err := l.repo.DeactivateExpiredByID(ctx, tx, id, clock.StartOfDay(today), l.clock.Now().UTC())
	if err != nil {
		return false, err
	}
	if affected > 0 {
		l.obsMetrics.RecordDeactivation(ctx, "expired", affected)
	}
	return affected > 0, nil
}

func (l *stockLedger) DeactivateExpired(ctx context.Context, tx *gorm.DB, today time.Time) (int64, error) {
	affected, err := l.repo.DeactivateExpired(ctx, tx, clock.StartOfDay(today), l.clock.Now().UTC())
	if err != nil {
		return 0, err
	}
	if affected > 0 {
		l.obsMetrics.RecordDeactivation(ctx, "expired", affected)
		l.log.Info("expired medicines deactivated", zap.Int64("count", affected))
	}
	return affected, nil
}
