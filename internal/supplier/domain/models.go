package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Supplier struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"type:varchar(255);not null" json:"name"`
	Phone     string       `gorm:"type:varchar(64)" json:"phone"`
	Email     string       `gorm:"type:varchar(255)" json:"email"`
	Address   string       `gorm:"type:text" json:"address"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null" json:"updated_at"`
}

func (Supplier) TableName() string { return "suppliers" }
