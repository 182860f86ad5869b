package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository serves the joined read side. Writes go through the generic store.
type Repository interface {
	ListDetails(ctx context.Context, db *gorm.DB, id *snowflake.ID) ([]InvoiceDetail, error)
	ListItemDetails(ctx context.Context, db *gorm.DB, invoiceIDs []snowflake.ID) ([]InvoiceItemDetail, error)
}
