package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/apotek/internal/report/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log  *zap.Logger
	Repo domain.Repository
}

type Service struct {
	log  *zap.Logger
	repo domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		log:  p.Log.Named("report.service"),
		repo: p.Repo,
	}
}

func (s *Service) PurchaseReport(ctx context.Context, req domain.PurchaseReportRequest) (domain.PurchaseReport, error) {
	rng, err := domain.ParseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return domain.PurchaseReport{}, err
	}
	supplierID, err := parseOptionalID(req.SUID, domain.ErrInvalidSupplierID)
	if err != nil {
		return domain.PurchaseReport{}, err
	}

	rows, err := s.repo.ListPurchases(ctx, rng, supplierID)
	if err != nil {
		s.log.Error("failed to list purchases", zap.Error(err))
		return domain.PurchaseReport{}, err
	}

	groups := make([]domain.PurchaseGroup, 0)
	index := map[int64]int{}
	for _, row := range rows {
		pos, ok := index[row.PID]
		if !ok {
			groups = append(groups, domain.PurchaseGroup{
				PurchaseID:   row.PID,
				Date:         row.Date.Format(domain.DateLayout),
				SUID:         row.SUID,
				SupplierName: row.SupplierName,
				Items:        []domain.PurchaseItem{},
				TotalAmount:  decimal.Zero,
			})
			pos = len(groups) - 1
			index[row.PID] = pos
		}
		group := &groups[pos]
		group.Items = append(group.Items, domain.PurchaseItem{
			MedicineName: row.MedicineName,
			SupplierName: row.SupplierName,
			Quantity:     row.Quantity,
			UnitPrice:    row.UnitPrice.Round(2),
			TotalCost:    row.TotalPrice.Round(2),
		})
		group.TotalAmount = group.TotalAmount.Add(row.TotalPrice)
		group.TotalQuantity += row.Quantity
	}

	report := domain.PurchaseReport{TotalAmount: decimal.Zero, Data: groups}
	for i := range groups {
		report.TotalAmount = report.TotalAmount.Add(groups[i].TotalAmount)
		report.TotalQuantity += groups[i].TotalQuantity
		groups[i].TotalAmount = groups[i].TotalAmount.Round(2)
	}
	report.TotalAmount = report.TotalAmount.Round(2)
	return report, nil
}

func (s *Service) SalesReport(ctx context.Context, req domain.SalesReportRequest) (domain.SalesReport, error) {
	rng, err := domain.ParseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return domain.SalesReport{}, err
	}
	customerID, err := parseOptionalID(req.CustomerID, domain.ErrInvalidCustomerID)
	if err != nil {
		return domain.SalesReport{}, err
	}

	invoices, err := s.repo.ListInvoices(ctx, rng, customerID)
	if err != nil {
		s.log.Error("failed to list invoices", zap.Error(err))
		return domain.SalesReport{}, err
	}

	ids := make([]snowflake.ID, 0, len(invoices))
	for _, inv := range invoices {
		ids = append(ids, inv.ID)
	}
	items, err := s.repo.ListInvoiceItems(ctx, ids)
	if err != nil {
		s.log.Error("failed to list invoice items", zap.Error(err))
		return domain.SalesReport{}, err
	}
	byInvoice := map[snowflake.ID][]domain.InvoiceItemRow{}
	for _, item := range items {
		byInvoice[item.InvoiceID] = append(byInvoice[item.InvoiceID], item)
	}

	report := domain.SalesReport{
		Invoices:    make([]domain.SalesRow, 0, len(invoices)),
		TotalAmount: decimal.Zero,
	}
	for _, inv := range invoices {
		row := domain.SalesRow{
			ID:              inv.ID,
			Date:            inv.Date.Format(domain.DateLayout),
			CUID:            inv.CUID,
			CustomerName:    inv.CustomerName,
			CustomerAddress: inv.CustomerAddress,
			Discount:        inv.Discount.Round(2),
			TotalAmount:     inv.TotalAmount.Round(2),
			Items:           []domain.SalesItem{},
		}
		before := decimal.Zero
		for _, item := range byInvoice[inv.ID] {
			before = before.Add(item.UnitPrice.Mul(decimal.NewFromInt(item.Quantity)))
			report.TotalQuantity += item.Quantity
			row.Items = append(row.Items, domain.SalesItem{
				MedicineName: item.MedicineName,
				Quantity:     item.Quantity,
				UnitPrice:    item.UnitPrice.Round(2),
			})
		}
		row.AmountBeforeDiscount = before.Round(2)
		report.TotalAmount = report.TotalAmount.Add(inv.TotalAmount)
		report.Invoices = append(report.Invoices, row)
	}
	report.TotalAmount = report.TotalAmount.Round(2)
	return report, nil
}

func parseOptionalID(raw string, invalid error) (*snowflake.ID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := snowflake.ParseString(raw)
	if err != nil || id <= 0 {
		return nil, invalid
	}
	return &id, nil
}
