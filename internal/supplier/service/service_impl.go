package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/apotek/internal/audit/domain"
	"github.com/smallbiznis/apotek/internal/clock"
	"github.com/smallbiznis/apotek/internal/supplier/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	AuditSvc auditdomain.Service
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	auditSvc auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("supplier.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateSupplierRequest) (domain.Supplier, error) {
	fields, err := normalize(req)
	if err != nil {
		return domain.Supplier{}, err
	}

	now := s.clock.Now().UTC()
	supplier := domain.Supplier{
		ID:        s.genID.Generate(),
		Name:      fields.Name,
		Phone:     fields.Phone,
		Email:     fields.Email,
		Address:   fields.Address,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, &supplier); err != nil {
		return domain.Supplier{}, err
	}

	s.record(ctx, auditdomain.TypeAddition, fmt.Sprintf("Supplier added: %s", supplier.Name), supplier)
	return supplier, nil
}

func (s *Service) Update(ctx context.Context, id string, req domain.UpdateSupplierRequest) (domain.Supplier, error) {
	supplierID, err := parseID(id)
	if err != nil {
		return domain.Supplier{}, err
	}
	fields, err := normalize(req)
	if err != nil {
		return domain.Supplier{}, err
	}

	var updated domain.Supplier
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByID(ctx, tx, supplierID)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrNotFound
		}

		existing.Name = fields.Name
		existing.Phone = fields.Phone
		existing.Email = fields.Email
		existing.Address = fields.Address
		existing.UpdatedAt = s.clock.Now().UTC()
		if err := s.repo.Update(ctx, tx, existing); err != nil {
			return err
		}
		updated = *existing
		return nil
	})
	if err != nil {
		return domain.Supplier{}, err
	}

	s.record(ctx, auditdomain.TypeEdit, fmt.Sprintf("Supplier updated: %s", updated.Name), updated)
	return updated, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Supplier, error) {
	items, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}

	suppliers := make([]domain.Supplier, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		suppliers = append(suppliers, *item)
	}
	return suppliers, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Supplier, error) {
	supplierID, err := parseID(id)
	if err != nil {
		return domain.Supplier{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, supplierID)
	if err != nil {
		return domain.Supplier{}, err
	}
	if item == nil {
		return domain.Supplier{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) record(ctx context.Context, logType, message string, supplier domain.Supplier) {
	if s.auditSvc == nil {
		return
	}
	_ = s.auditSvc.Record(ctx, logType, message, map[string]any{
		"supplier_id": supplier.ID.String(),
		"email":       supplier.Email,
		"phone":       supplier.Phone,
	})
}

func normalize(req domain.CreateSupplierRequest) (domain.CreateSupplierRequest, error) {
	out := domain.CreateSupplierRequest{
		Name:    strings.TrimSpace(req.Name),
		Phone:   strings.TrimSpace(req.Phone),
		Email:   strings.TrimSpace(req.Email),
		Address: strings.TrimSpace(req.Address),
	}
	if out.Name == "" {
		return out, domain.ErrInvalidName
	}
	if out.Email != "" && !strings.Contains(out.Email, "@") {
		return out, domain.ErrInvalidEmail
	}
	return out, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
