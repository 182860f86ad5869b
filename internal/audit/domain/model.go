package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	TypeAddition      = "addition"
	TypeArchiving     = "archiving"
	TypeInvoice       = "invoice"
	TypeEdit          = "edit"
	TypeDeletion      = "deletion"
	TypeUser          = "user"
	TypeAuthorization = "authorization"
)

// ActivityLog is an append-only, human readable record of a business event.
type ActivityLog struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	Type      string            `gorm:"type:varchar(32);not null;index" json:"type"`
	Message   string            `gorm:"type:text;not null" json:"message"`
	Metadata  datatypes.JSONMap `json:"metadata,omitempty"`
	Timestamp time.Time         `gorm:"not null;index" json:"timestamp"`
}

func (ActivityLog) TableName() string { return "activity_logs" }
