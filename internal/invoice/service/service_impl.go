package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/apotek/internal/audit/domain"
	"github.com/smallbiznis/apotek/internal/clock"
	"github.com/smallbiznis/apotek/internal/config"
	customerdomain "github.com/smallbiznis/apotek/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/apotek/internal/invoice/domain"
	ledgerdomain "github.com/smallbiznis/apotek/internal/ledger/domain"
	obsmetrics "github.com/smallbiznis/apotek/internal/observability/metrics"
	"github.com/smallbiznis/apotek/internal/providers/pdf"
	"github.com/smallbiznis/apotek/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

var hundred = decimal.NewFromInt(100)

type ServiceParam struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Cfg          config.Config
	Repo         invoicedomain.Repository
	Ledger       ledgerdomain.Ledger
	CustomerRepo customerdomain.Repository
	AuditSvc     auditdomain.Service
	PDF          pdf.Provider
	Policy       *config.InventoryPolicyHolder `optional:"true"`
	ObsMetrics   *obsmetrics.Metrics           `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	appName      string
	repo         invoicedomain.Repository
	invoicerepo  repository.Repository[invoicedomain.Invoice]
	itemrepo     repository.Repository[invoicedomain.InvoiceItem]
	ledger       ledgerdomain.Ledger
	customerRepo customerdomain.Repository
	auditSvc     auditdomain.Service
	pdf          pdf.Provider
	policy       *config.InventoryPolicyHolder
	obsMetrics   *obsmetrics.Metrics
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("invoice.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		appName: p.Cfg.AppName,

		repo:         p.Repo,
		invoicerepo:  repository.ProvideStore[invoicedomain.Invoice](p.DB),
		itemrepo:     repository.ProvideStore[invoicedomain.InvoiceItem](p.DB),
		ledger:       p.Ledger,
		customerRepo: p.CustomerRepo,
		auditSvc:     p.AuditSvc,
		pdf:          p.PDF,
		policy:       p.Policy,
		obsMetrics:   p.ObsMetrics,
	}
}

type saleLine struct {
	medicineID snowflake.ID
	quantity   int64
	unitPrice  decimal.Decimal
}

type parsedRequest struct {
	customerID snowflake.ID
	date       time.Time
	discount   decimal.Decimal
	finalTotal decimal.Decimal
	lines      []saleLine
}

// CreateInvoice sells stock. Every line is checked against the locked ledger
// rows before anything is written, and any failure rolls the whole sale back.
func (s *Service) CreateInvoice(ctx context.Context, req invoicedomain.CreateInvoiceRequest) (invoicedomain.InvoiceDetail, error) {
	parsed, err := parseRequest(req)
	if err != nil {
		return invoicedomain.InvoiceDetail{}, err
	}

	demand := map[snowflake.ID]int64{}
	for _, line := range parsed.lines {
		demand[line.medicineID] += line.quantity
	}
	medicineIDs := make([]snowflake.ID, 0, len(demand))
	for id := range demand {
		medicineIDs = append(medicineIDs, id)
	}
	sort.Slice(medicineIDs, func(i, j int) bool { return medicineIDs[i] < medicineIDs[j] })

	var (
		detail   invoicedomain.InvoiceDetail
		units    int64
		depleted int
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		customer, err := s.customerRepo.FindByID(ctx, tx, parsed.customerID)
		if err != nil {
			return err
		}
		if customer == nil {
			return customerdomain.ErrNotFound
		}

		policy := s.policy.Get()
		today := clock.Today(s.clock)
		names := make(map[snowflake.ID]string, len(medicineIDs))
		for _, id := range medicineIDs {
			medicine, err := s.ledger.GetForUpdate(ctx, tx, id)
			if err != nil {
				return err
			}
			if policy.BlockUnavailableSales {
				if !medicine.IsActive {
					return &ledgerdomain.UnavailableError{MedicineID: id, Name: medicine.Name, Reason: "inactive"}
				}
				if medicine.Expired(today) {
					return &ledgerdomain.UnavailableError{MedicineID: id, Name: medicine.Name, Reason: "expired"}
				}
			}
			if demand[id] > medicine.Quantity {
				s.obsMetrics.RecordStockRejection(ctx, "insufficient_stock")
				return &ledgerdomain.InsufficientStockError{
					MedicineID: id,
					Name:       medicine.Name,
					Requested:  demand[id],
					Available:  medicine.Quantity,
				}
			}
			names[id] = medicine.Name
		}

		if policy.VerifyInvoiceTotals {
			if err := verifyTotals(parsed); err != nil {
				return err
			}
		}

		invoice := invoicedomain.Invoice{
			ID:          s.genID.Generate(),
			CUID:        customer.ID,
			Date:        parsed.date,
			Discount:    parsed.discount,
			TotalAmount: parsed.finalTotal,
			CreatedAt:   s.clock.Now().UTC(),
		}
		if err := s.invoicerepo.WithTrx(tx).Create(ctx, &invoice); err != nil {
			return err
		}

		items := make([]*invoicedomain.InvoiceItem, 0, len(parsed.lines))
		itemDetails := make([]invoicedomain.InvoiceItemDetail, 0, len(parsed.lines))
		for _, line := range parsed.lines {
			item := &invoicedomain.InvoiceItem{
				ID:         s.genID.Generate(),
				InvoiceID:  invoice.ID,
				MedicineID: line.medicineID,
				Quantity:   line.quantity,
				UnitPrice:  line.unitPrice,
			}
			items = append(items, item)
			itemDetails = append(itemDetails, invoicedomain.InvoiceItemDetail{
				InvoiceItem:  *item,
				MedicineName: names[line.medicineID],
			})
		}
		if err := s.itemrepo.WithTrx(tx).BatchCreate(ctx, items); err != nil {
			return err
		}

		for _, id := range medicineIDs {
			if err := s.ledger.Debit(ctx, tx, id, demand[id]); err != nil {
				return err
			}
			ok, err := s.ledger.DeactivateIfDepleted(ctx, tx, id)
			if err != nil {
				return err
			}
			if ok {
				depleted++
			}
			units += demand[id]
		}

		detail = invoicedomain.InvoiceDetail{
			Invoice:         invoice,
			CustomerName:    customer.Name,
			CustomerAddress: customer.Address,
			CustomerPhone:   customer.Phone,
			Items:           itemDetails,
		}
		detail.AmountBeforeDiscount = invoicedomain.Subtotal(itemDetails)
		return nil
	})
	if err != nil {
		return invoicedomain.InvoiceDetail{}, err
	}

	s.obsMetrics.RecordInvoice(ctx, units)
	s.log.Info("invoice created",
		zap.String("invoice_id", detail.ID.String()),
		zap.Int("lines", len(detail.Items)),
		zap.Int64("units", units),
		zap.Int("depleted", depleted),
	)
	_ = s.auditSvc.Record(ctx, auditdomain.TypeInvoice,
		fmt.Sprintf("Invoice created (ID: %s) for customer: %s, Total: %s",
			detail.ID, detail.CustomerName, detail.TotalAmount.StringFixed(2)),
		map[string]any{
			"invoice_id":  detail.ID.String(),
			"customer_id": detail.CUID.String(),
		},
	)
	return detail, nil
}

func (s *Service) List(ctx context.Context) ([]invoicedomain.InvoiceDetail, error) {
	return s.load(ctx, nil)
}

func (s *Service) GetByID(ctx context.Context, id string) (invoicedomain.InvoiceDetail, error) {
	invoiceID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || invoiceID == 0 {
		return invoicedomain.InvoiceDetail{}, invoicedomain.ErrInvalidID
	}

	details, err := s.load(ctx, &invoiceID)
	if err != nil {
		return invoicedomain.InvoiceDetail{}, err
	}
	if len(details) == 0 {
		return invoicedomain.InvoiceDetail{}, invoicedomain.ErrNotFound
	}
	return details[0], nil
}

func (s *Service) load(ctx context.Context, id *snowflake.ID) ([]invoicedomain.InvoiceDetail, error) {
	details, err := s.repo.ListDetails(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return []invoicedomain.InvoiceDetail{}, nil
	}

	ids := make([]snowflake.ID, 0, len(details))
	for _, d := range details {
		ids = append(ids, d.ID)
	}
	items, err := s.repo.ListItemDetails(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}

	byInvoice := make(map[snowflake.ID][]invoicedomain.InvoiceItemDetail, len(details))
	for _, item := range items {
		byInvoice[item.InvoiceID] = append(byInvoice[item.InvoiceID], item)
	}
	for i := range details {
		details[i].Items = byInvoice[details[i].ID]
		if details[i].Items == nil {
			details[i].Items = []invoicedomain.InvoiceItemDetail{}
		}
		details[i].AmountBeforeDiscount = invoicedomain.Subtotal(details[i].Items)
	}
	return details, nil
}

func (s *Service) RenderPDF(ctx context.Context, id string) (invoicedomain.Document, error) {
	detail, err := s.GetByID(ctx, id)
	if err != nil {
		return invoicedomain.Document{}, err
	}

	pharmacy := s.appName
	if pharmacy == "" {
		pharmacy = "Apotek"
	}
	data := pdf.InvoiceData{
		PharmacyName:    pharmacy,
		InvoiceNumber:   detail.ID.String(),
		IssueDate:       detail.Date.Format(dateLayout),
		CustomerName:    detail.CustomerName,
		CustomerAddress: detail.CustomerAddress,
		CustomerPhone:   detail.CustomerPhone,
		Subtotal:        detail.AmountBeforeDiscount.StringFixed(2),
		Discount:        detail.Discount.StringFixed(2),
		Total:           detail.TotalAmount.StringFixed(2),
	}
	for _, item := range detail.Items {
		data.Items = append(data.Items, pdf.InvoiceItem{
			Description: item.MedicineName,
			Qty:         item.Quantity,
			UnitPrice:   item.UnitPrice.StringFixed(2),
			Amount:      item.UnitPrice.Mul(decimal.NewFromInt(item.Quantity)).StringFixed(2),
		})
	}

	reader, err := s.pdf.GenerateInvoice(ctx, data)
	if err != nil {
		return invoicedomain.Document{}, err
	}
	if reader == nil {
		return invoicedomain.Document{}, fmt.Errorf("pdf provider returned no document")
	}
	content, err := io.ReadAll(reader)
	if err != nil {
		return invoicedomain.Document{}, err
	}

	filename := fmt.Sprintf("invoice-%s-%s.pdf", slug.Make(detail.CustomerName), detail.ID)
	return invoicedomain.Document{Filename: filename, Content: content}, nil
}

func parseRequest(req invoicedomain.CreateInvoiceRequest) (parsedRequest, error) {
	customerID, err := snowflake.ParseString(strings.TrimSpace(req.CUID))
	if err != nil || customerID == 0 {
		return parsedRequest{}, invoicedomain.ErrInvalidCustomerID
	}
	date, err := time.Parse(dateLayout, strings.TrimSpace(req.Date))
	if err != nil {
		return parsedRequest{}, invoicedomain.ErrInvalidDate
	}
	if req.Discount.IsNegative() {
		return parsedRequest{}, invoicedomain.ErrInvalidDiscount
	}
	if req.FinalTotal.IsNegative() {
		return parsedRequest{}, invoicedomain.ErrInvalidFinalTotal
	}
	if len(req.Items) == 0 {
		return parsedRequest{}, invoicedomain.ErrEmptyItems
	}

	lines := make([]saleLine, 0, len(req.Items))
	for i, item := range req.Items {
		medicineID, err := snowflake.ParseString(strings.TrimSpace(item.MedicineID))
		if err != nil || medicineID == 0 {
			return parsedRequest{}, &invoicedomain.LineError{Index: i, Field: "medicineId", Err: invoicedomain.ErrInvalidMedicineID}
		}
		if item.Quantity < 1 {
			return parsedRequest{}, &invoicedomain.LineError{Index: i, Field: "quantity", Err: invoicedomain.ErrInvalidQuantity}
		}
		if item.UnitPrice.IsNegative() {
			return parsedRequest{}, &invoicedomain.LineError{Index: i, Field: "unitPrice", Err: invoicedomain.ErrInvalidUnitPrice}
		}
		lines = append(lines, saleLine{medicineID: medicineID, quantity: item.Quantity, unitPrice: item.UnitPrice})
	}

	return parsedRequest{
		customerID: customerID,
		date:       date,
		discount:   req.Discount,
		finalTotal: req.FinalTotal,
		lines:      lines,
	}, nil
}

// verifyTotals accepts the final total when it matches the discount read either
// as a flat amount or as a percentage.
func verifyTotals(req parsedRequest) error {
	subtotal := decimal.Zero
	for _, line := range req.lines {
		subtotal = subtotal.Add(line.unitPrice.Mul(decimal.NewFromInt(line.quantity)))
	}

	final := req.finalTotal.Round(2)
	flat := subtotal.Sub(req.discount).Round(2)
	percent := subtotal.Mul(decimal.NewFromInt(1).Sub(req.discount.Div(hundred))).Round(2)
	if final.Equal(flat) || final.Equal(percent) {
		return nil
	}
	return invoicedomain.ErrTotalMismatch
}
