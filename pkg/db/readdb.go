package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
)

// NewReadDB exposes the gorm connection pool through sqlx for hand-written
// read queries. Both handles share the same *sql.DB.
func NewReadDB(conn *gorm.DB) (*sqlx.DB, error) {
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	return sqlx.NewDb(sqlDB, sqlxDriverName(conn.Dialector.Name())), nil
}

func sqlxDriverName(dialect string) string {
	switch dialect {
	case "postgres":
		return "postgres"
	case "mysql":
		return "mysql"
	default:
		return "sqlite3"
	}
}

var dateLayouts = []string{
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Date scans DATE columns whether the driver hands back time.Time or text.
type Date struct {
	time.Time
}

var _ sql.Scanner = (*Date)(nil)

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		d.Time = time.Time{}
		return nil
	case time.Time:
		d.Time = v.UTC()
		return nil
	case []byte:
		return d.parse(string(v))
	case string:
		return d.parse(v)
	default:
		return fmt.Errorf("db.Date: unsupported source %T", src)
	}
}

func (d *Date) parse(value string) error {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("db.Date: cannot parse %q", value)
}
