package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/apotek/internal/audit/domain"
	"github.com/smallbiznis/apotek/internal/clock"
	"github.com/smallbiznis/apotek/internal/config"
	ledgerdomain "github.com/smallbiznis/apotek/internal/ledger/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	Repo     ledgerdomain.Repository
	Ledger   ledgerdomain.Ledger
	AuditSvc auditdomain.Service
	Policy   *config.InventoryPolicyHolder `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	repo     ledgerdomain.Repository
	ledger   ledgerdomain.Ledger
	auditSvc auditdomain.Service
	policy   *config.InventoryPolicyHolder
}

func New(p Params) ledgerdomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("ledger.service"),
		clock:    p.Clock,
		repo:     p.Repo,
		ledger:   p.Ledger,
		auditSvc: p.AuditSvc,
		policy:   p.Policy,
	}
}

func (s *Service) List(ctx context.Context, includeInactive bool) ([]ledgerdomain.MedicineView, error) {
	if _, err := s.SweepExpired(ctx); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, s.db, ledgerdomain.ListFilter{IncludeInactive: includeInactive})
}

func (s *Service) Get(ctx context.Context, id string) (ledgerdomain.MedicineView, error) {
	medicineID, err := parseID(id)
	if err != nil {
		return ledgerdomain.MedicineView{}, err
	}

	var view *ledgerdomain.MedicineView
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.ledger.DeactivateIfExpired(ctx, tx, medicineID, clock.Today(s.clock)); err != nil {
			return err
		}
		view, err = s.repo.FindView(ctx, tx, medicineID)
		return err
	})
	if err != nil {
		return ledgerdomain.MedicineView{}, err
	}
	if view == nil {
		return ledgerdomain.MedicineView{}, ledgerdomain.ErrMedicineNotFound
	}
	return *view, nil
}

// Archive hides a medicine from sale. Archiving an inactive medicine is a no-op success.
func (s *Service) Archive(ctx context.Context, id string) (ledgerdomain.ArchiveResult, error) {
	medicineID, err := parseID(id)
	if err != nil {
		return ledgerdomain.ArchiveResult{}, err
	}

	var view *ledgerdomain.MedicineView
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.ledger.GetForUpdate(ctx, tx, medicineID); err != nil {
			return err
		}
		if err := s.repo.Deactivate(ctx, tx, medicineID, s.clock.Now().UTC()); err != nil {
			return err
		}
		view, err = s.repo.FindView(ctx, tx, medicineID)
		return err
	})
	if err != nil {
		return ledgerdomain.ArchiveResult{}, err
	}
	if view == nil {
		return ledgerdomain.ArchiveResult{}, ledgerdomain.ErrMedicineNotFound
	}

	_ = s.auditSvc.Record(ctx, auditdomain.TypeArchiving,
		fmt.Sprintf("Medicine Archived: %s (ID: %s)", view.Name, view.ID),
		map[string]any{"medicine_id": view.ID.String()},
	)
	return ledgerdomain.ArchiveResult{MedicineView: *view, Archived: true}, nil
}

// Delete removes a medicine that was never sold, together with its purchase rows.
func (s *Service) Delete(ctx context.Context, id string) error {
	medicineID, err := parseID(id)
	if err != nil {
		return err
	}

	var deleted *ledgerdomain.Medicine
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		medicine, err := s.ledger.GetForUpdate(ctx, tx, medicineID)
		if err != nil {
			return err
		}
		refs, err := s.repo.CountInvoiceReferences(ctx, tx, medicineID)
		if err != nil {
			return err
		}
		if refs > 0 {
			return ledgerdomain.ErrMedicineReferenced
		}
		if err := s.repo.DeletePurchases(ctx, tx, medicineID); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, tx, medicineID); err != nil {
			return err
		}
		deleted = medicine
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("medicine deleted", zap.String("medicine_id", deleted.ID.String()))
	_ = s.auditSvc.Record(ctx, auditdomain.TypeDeletion,
		fmt.Sprintf("Medicine Deleted: %s (ID: %s)", deleted.Name, deleted.ID),
		map[string]any{"medicine_id": deleted.ID.String()},
	)
	return nil
}

// LowStock includes inactive medicines so depleted stock stays visible for reordering.
func (s *Service) LowStock(ctx context.Context) ([]ledgerdomain.MedicineView, error) {
	if _, err := s.SweepExpired(ctx); err != nil {
		return nil, err
	}
	threshold := int64(s.policy.Get().LowStockThreshold)
	return s.repo.List(ctx, s.db, ledgerdomain.ListFilter{
		IncludeInactive: true,
		MaxQuantity:     &threshold,
		OrderBy:         "m.quantity asc, m.id asc",
	})
}

// NearExpiry includes medicines that have already expired.
func (s *Service) NearExpiry(ctx context.Context) ([]ledgerdomain.MedicineView, error) {
	if _, err := s.SweepExpired(ctx); err != nil {
		return nil, err
	}
	cutoff := clock.Today(s.clock).AddDate(0, 0, s.policy.Get().NearExpiryDays)
	return s.repo.List(ctx, s.db, ledgerdomain.ListFilter{
		IncludeInactive:   true,
		ExpiresOnOrBefore: &cutoff,
		OrderBy:           "m.expiry_date asc, m.id asc",
	})
}

// SweepExpired deactivates every medicine past its expiry date.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		count, err = s.ledger.DeactivateExpired(ctx, tx, clock.Today(s.clock))
		return err
	})
	return count, err
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, ledgerdomain.ErrInvalidID
	}
	return id, nil
}
