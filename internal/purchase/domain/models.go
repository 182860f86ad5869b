package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// PurchaseEntry records one medicine received in a purchase batch. Names are
// snapshots taken at intake time.
type PurchaseEntry struct {
	ID           snowflake.ID    `gorm:"primaryKey" json:"id"`
	PID          int64           `gorm:"column:p_id;not null;index" json:"purchase_id"`
	MedicineID   snowflake.ID    `gorm:"not null;index" json:"medicine_id"`
	MedicineName string          `gorm:"type:varchar(255);not null" json:"medicine_name"`
	SUID         snowflake.ID    `gorm:"column:suid;not null;index" json:"SUID"`
	SupplierName string          `gorm:"type:varchar(255);not null" json:"supplier_name"`
	Quantity     int64           `gorm:"not null" json:"quantity"`
	UnitPrice    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	TotalPrice   decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total_price"`
	Date         time.Time       `gorm:"type:date;not null;index" json:"date"`
	CreatedAt    time.Time       `gorm:"not null" json:"created_at"`
}

func (PurchaseEntry) TableName() string { return "purchases" }

// BatchSequence is the single-row counter handing out purchase batch ids.
type BatchSequence struct {
	ID        int       `gorm:"primaryKey;autoIncrement:false"`
	NextValue int64     `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (BatchSequence) TableName() string { return "purchase_batch_sequences" }
