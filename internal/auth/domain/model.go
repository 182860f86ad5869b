// Package domain contains core types for the auth service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// User represents a pharmacy staff account.
type User struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	Name         string       `gorm:"type:varchar(255);not null" json:"name"`
	Email        string       `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	PasswordHash string       `gorm:"type:text;not null" json:"-"`
	Role         string       `gorm:"type:varchar(32);not null;default:'staff'" json:"role"`
	CreatedAt    time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// Principal is the authenticated caller resolved from a bearer token.
type Principal struct {
	UserID snowflake.ID
	Email  string
	Role   string
}

func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleStaff
}
