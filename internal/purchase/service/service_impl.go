package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/apotek/internal/audit/domain"
	"github.com/smallbiznis/apotek/internal/clock"
	ledgerdomain "github.com/smallbiznis/apotek/internal/ledger/domain"
	obsmetrics "github.com/smallbiznis/apotek/internal/observability/metrics"
	purchasedomain "github.com/smallbiznis/apotek/internal/purchase/domain"
	supplierdomain "github.com/smallbiznis/apotek/internal/supplier/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         purchasedomain.Repository
	Ledger       ledgerdomain.Ledger
	SupplierRepo supplierdomain.Repository
	AuditSvc     auditdomain.Service
	ObsMetrics   *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         purchasedomain.Repository
	ledger       ledgerdomain.Ledger
	supplierRepo supplierdomain.Repository
	auditSvc     auditdomain.Service
	obsMetrics   *obsmetrics.Metrics
}

func New(p Params) purchasedomain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("purchase.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		ledger:       p.Ledger,
		supplierRepo: p.SupplierRepo,
		auditSvc:     p.AuditSvc,
		obsMetrics:   p.ObsMetrics,
	}
}

type intakeLine struct {
	name        string
	batchNumber string
	entryDate   time.Time
	expiryDate  time.Time
	quantity    int64
	costPrice   decimal.Decimal
	description string
	supplierID  snowflake.ID
}

// Intake records a purchase batch. Either every item lands in stock under one
// batch id or nothing does.
func (s *Service) Intake(ctx context.Context, items []purchasedomain.IntakeItem) (purchasedomain.IntakeResult, error) {
	lines, err := validateItems(items)
	if err != nil {
		return purchasedomain.IntakeResult{}, err
	}

	result := purchasedomain.IntakeResult{MedicineIDs: make([]string, 0, len(lines))}
	var units int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.clock.Now().UTC()
		batchID, err := s.repo.NextBatchID(ctx, tx, now)
		if err != nil {
			return err
		}
		result.BatchID = batchID

		suppliers := map[snowflake.ID]*supplierdomain.Supplier{}
		for _, line := range lines {
			supplier, ok := suppliers[line.supplierID]
			if !ok {
				supplier, err = s.supplierRepo.FindByID(ctx, tx, line.supplierID)
				if err != nil {
					return err
				}
				if supplier == nil {
					return supplierdomain.ErrNotFound
				}
				suppliers[line.supplierID] = supplier
			}

			medicine := &ledgerdomain.Medicine{
				ID:          s.genID.Generate(),
				Name:        line.name,
				BatchNumber: line.batchNumber,
				EntryDate:   line.entryDate,
				ExpiryDate:  line.expiryDate,
				CostPrice:   line.costPrice,
				Description: line.description,
				SUID:        supplier.ID,
			}
			if err := s.ledger.Open(ctx, tx, medicine); err != nil {
				return err
			}
			if err := s.ledger.Credit(ctx, tx, medicine.ID, line.quantity); err != nil {
				return err
			}

			entry := &purchasedomain.PurchaseEntry{
				ID:           s.genID.Generate(),
				PID:          batchID,
				MedicineID:   medicine.ID,
				MedicineName: medicine.Name,
				SUID:         supplier.ID,
				SupplierName: supplier.Name,
				Quantity:     line.quantity,
				UnitPrice:    line.costPrice,
				TotalPrice:   line.costPrice.Mul(decimal.NewFromInt(line.quantity)),
				Date:         line.entryDate,
				CreatedAt:    now,
			}
			if err := s.repo.InsertEntry(ctx, tx, entry); err != nil {
				return err
			}

			result.MedicineIDs = append(result.MedicineIDs, medicine.ID.String())
			units += line.quantity
		}
		return nil
	})
	if err != nil {
		return purchasedomain.IntakeResult{}, err
	}
	result.Count = len(lines)

	s.obsMetrics.RecordIntake(ctx, result.Count, units)
	s.log.Info("purchase batch recorded",
		zap.Int64("p_id", result.BatchID),
		zap.Int("medicines", result.Count),
		zap.Int64("units", units),
	)
	_ = s.auditSvc.Record(ctx, auditdomain.TypeAddition,
		fmt.Sprintf("%d medicines and purchases added (P_ID: %d)", result.Count, result.BatchID),
		map[string]any{"p_id": result.BatchID, "medicine_ids": result.MedicineIDs},
	)
	return result, nil
}

func validateItems(items []purchasedomain.IntakeItem) ([]intakeLine, error) {
	if len(items) == 0 {
		return nil, purchasedomain.ErrEmptyIntake
	}

	lines := make([]intakeLine, 0, len(items))
	for i, item := range items {
		fail := func(field string, err error) error {
			return &purchasedomain.ItemError{Index: i, Field: field, Err: err}
		}

		name := strings.TrimSpace(item.Name)
		if name == "" {
			return nil, fail("name", purchasedomain.ErrInvalidName)
		}
		if item.Quantity < 1 {
			return nil, fail("quantity", purchasedomain.ErrInvalidQuantity)
		}
		if item.CostPrice.IsNegative() {
			return nil, fail("costPrice", purchasedomain.ErrInvalidCostPrice)
		}
		entryDate, err := time.Parse(dateLayout, strings.TrimSpace(item.EntryDate))
		if err != nil {
			return nil, fail("entryDate", purchasedomain.ErrInvalidEntryDate)
		}
		expiryDate, err := time.Parse(dateLayout, strings.TrimSpace(item.ExpiryDate))
		if err != nil {
			return nil, fail("expiryDate", purchasedomain.ErrInvalidExpiryDate)
		}
		if expiryDate.Before(entryDate) {
			return nil, fail("expiryDate", purchasedomain.ErrExpiryBeforeEntry)
		}
		supplierID, err := snowflake.ParseString(strings.TrimSpace(item.SUID))
		if err != nil || supplierID == 0 {
			return nil, fail("SUID", purchasedomain.ErrInvalidSupplierID)
		}

		lines = append(lines, intakeLine{
			name:        name,
			batchNumber: strings.TrimSpace(item.BatchNumber),
			entryDate:   entryDate,
			expiryDate:  expiryDate,
			quantity:    item.Quantity,
			costPrice:   item.CostPrice,
			description: strings.TrimSpace(item.Description),
			supplierID:  supplierID,
		})
	}
	return lines, nil
}
