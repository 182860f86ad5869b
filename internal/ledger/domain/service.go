package domain

import "context"

// Service is the catalogue view of the ledger.
type Service interface {
	List(ctx context.Context, includeInactive bool) ([]MedicineView, error)
	Get(ctx context.Context, id string) (MedicineView, error)
	Archive(ctx context.Context, id string) (ArchiveResult, error)
	Delete(ctx context.Context, id string) error
	LowStock(ctx context.Context) ([]MedicineView, error)
	NearExpiry(ctx context.Context) ([]MedicineView, error)
	SweepExpired(ctx context.Context) (int64, error)
}
