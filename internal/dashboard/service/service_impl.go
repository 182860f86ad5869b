package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/apotek/internal/audit/domain"
	"github.com/smallbiznis/apotek/internal/clock"
	"github.com/smallbiznis/apotek/internal/dashboard/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Clock    clock.Clock
	Repo     domain.Repository
	AuditSvc auditdomain.Service
}

type Service struct {
	log      *zap.Logger
	clock    clock.Clock
	repo     domain.Repository
	auditSvc auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		log:      p.Log.Named("dashboard.service"),
		clock:    p.Clock,
		repo:     p.Repo,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) Totals(ctx context.Context) (domain.Totals, error) {
	return s.repo.Totals(ctx)
}

func (s *Service) MonthlySales(ctx context.Context) ([]domain.MonthlySales, error) {
	rows, err := s.repo.ListSales(ctx)
	if err != nil {
		s.log.Error("failed to list sales", zap.Error(err))
		return nil, err
	}

	type bucket struct {
		year  int
		month time.Month
	}
	sums := map[bucket]decimal.Decimal{}
	for _, row := range rows {
		key := bucket{year: row.Date.Year(), month: row.Date.Month()}
		sums[key] = sums[key].Add(row.TotalAmount)
	}

	keys := make([]bucket, 0, len(sums))
	for key := range sums {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})

	out := make([]domain.MonthlySales, 0, len(keys))
	for _, key := range keys {
		out = append(out, domain.MonthlySales{
			Month: fmt.Sprintf("%02d-%04d", int(key.month), key.year),
			Total: sums[key].Round(2),
		})
	}
	return out, nil
}

func (s *Service) PurchaseSummary(ctx context.Context) (domain.PurchaseSummary, error) {
	total, err := s.repo.SumPurchases(ctx, nil, nil)
	if err != nil {
		return domain.PurchaseSummary{}, err
	}

	from := clock.StartOfMonth(s.clock.Now())
	to := from.AddDate(0, 1, 0)
	current, err := s.repo.SumPurchases(ctx, &from, &to)
	if err != nil {
		return domain.PurchaseSummary{}, err
	}

	return domain.PurchaseSummary{
		Total:        total.Round(2),
		CurrentMonth: current.Round(2),
	}, nil
}

func (s *Service) RecentLogs(ctx context.Context) ([]auditdomain.ActivityLog, error) {
	return s.auditSvc.Recent(ctx, domain.RecentLogLimit)
}
