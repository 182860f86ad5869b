package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/apotek/internal/audit/domain"
	"github.com/smallbiznis/apotek/internal/clock"
	"github.com/smallbiznis/apotek/internal/customer/domain"
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
		log:      p.Log.Named("customer.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateCustomerRequest) (domain.Customer, error) {
	fields, err := normalize(req)
	if err != nil {
		return domain.Customer{}, err
	}

	now := s.clock.Now().UTC()
	customer := domain.Customer{
		ID:        s.genID.Generate(),
		Name:      fields.Name,
		Phone:     fields.Phone,
		Email:     fields.Email,
		Address:   fields.Address,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, &customer); err != nil {
		return domain.Customer{}, err
	}

	s.record(ctx, auditdomain.TypeAddition, fmt.Sprintf("Customer added: %s", customer.Name), customer)
	return customer, nil
}

func (s *Service) Update(ctx context.Context, id string, req domain.UpdateCustomerRequest) (domain.Customer, error) {
	customerID, err := parseID(id)
	if err != nil {
		return domain.Customer{}, err
	}
	fields, err := normalize(req)
	if err != nil {
		return domain.Customer{}, err
	}

	var updated domain.Customer
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByID(ctx, tx, customerID)
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
		return domain.Customer{}, err
	}

	s.record(ctx, auditdomain.TypeEdit, fmt.Sprintf("Customer updated: %s", updated.Name), updated)
	return updated, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Customer, error) {
	items, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}

	customers := make([]domain.Customer, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		customers = append(customers, *item)
	}
	return customers, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Customer, error) {
	customerID, err := parseID(id)
	if err != nil {
		return domain.Customer{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, customerID)
	if err != nil {
		return domain.Customer{}, err
	}
	if item == nil {
		return domain.Customer{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) record(ctx context.Context, logType, message string, customer domain.Customer) {
	if s.auditSvc == nil {
		return
	}
	_ = s.auditSvc.Record(ctx, logType, message, map[string]any{
		"customer_id": customer.ID.String(),
		"email":       customer.Email,
		"phone":       customer.Phone,
	})
}

func normalize(req domain.CreateCustomerRequest) (domain.CreateCustomerRequest, error) {
	out := domain.CreateCustomerRequest{
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
