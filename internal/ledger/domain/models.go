package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Medicine is one stock-keeping row. Quantity never goes below zero and
// IsActive only ever moves from true to false.
type Medicine struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	BatchNumber string          `gorm:"type:varchar(128)" json:"batch_number"`
	EntryDate   time.Time       `gorm:"type:date;not null" json:"entry_date"`
	ExpiryDate  time.Time       `gorm:"type:date;not null;index" json:"expiry_date"`
	Quantity    int64           `gorm:"not null;check:chk_medicines_quantity_non_negative,quantity >= 0" json:"quantity"`
	CostPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"cost_price"`
	Description string          `gorm:"type:text" json:"description"`
	SUID        snowflake.ID    `gorm:"column:suid;not null;index" json:"SUID"`
	IsActive    bool            `gorm:"not null;index" json:"is_active"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null" json:"updated_at"`
}

func (Medicine) TableName() string { return "medicines" }

// Expired reports whether the medicine is past its expiry on the given UTC day.
func (m Medicine) Expired(today time.Time) bool {
	return m.ExpiryDate.Before(today)
}

// MedicineView is a medicine joined with its supplier name.
type MedicineView struct {
	Medicine
	SupplierName string `gorm:"column:supplier_name" json:"supplier_name"`
}

type ArchiveResult struct {
	MedicineView
	Archived bool `json:"archived"`
}
