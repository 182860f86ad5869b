package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	auditdomain "github.com/smallbiznis/apotek/internal/audit/domain"
	authdomain "github.com/smallbiznis/apotek/internal/auth/domain"
	customerdomain "github.com/smallbiznis/apotek/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/apotek/internal/invoice/domain"
	ledgerdomain "github.com/smallbiznis/apotek/internal/ledger/domain"
	purchasedomain "github.com/smallbiznis/apotek/internal/purchase/domain"
	supplierdomain "github.com/smallbiznis/apotek/internal/supplier/domain"
	"gorm.io/gorm"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// RunMigrations applies the embedded postgres schema.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// AutoMigrate builds the schema from the gorm models. Used for mysql, sqlite and tests.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&authdomain.User{},
		&supplierdomain.Supplier{},
		&customerdomain.Customer{},
		&ledgerdomain.Medicine{},
		&purchasedomain.BatchSequence{},
		&purchasedomain.PurchaseEntry{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceItem{},
		&auditdomain.ActivityLog{},
	)
}
