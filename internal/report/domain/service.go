package domain

import "context"

type PurchaseReportRequest struct {
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	SUID      string `form:"suid"`
}

type SalesReportRequest struct {
	StartDate  string `form:"start_date"`
	EndDate    string `form:"end_date"`
	CustomerID string `form:"customer_id"`
}

type Service interface {
	PurchaseReport(ctx context.Context, req PurchaseReportRequest) (PurchaseReport, error)
	SalesReport(ctx context.Context, req SalesReportRequest) (SalesReport, error)
}
