package repository

import (
	"github.com/smallbiznis/apotek/internal/audit/domain"
	"github.com/smallbiznis/apotek/pkg/repository"
	"gorm.io/gorm"
)

func Provide(db *gorm.DB) repository.Repository[domain.ActivityLog] {
	return repository.ProvideStore[domain.ActivityLog](db)
}
