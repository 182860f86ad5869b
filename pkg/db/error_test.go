package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsDuplicateKeyErr(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "gorm", err: fmt.Errorf("create: %w", gorm.ErrDuplicatedKey), want: true},
		{name: "pgx", err: &pgconn.PgError{Code: "23505"}, want: true},
		{name: "pgx_other", err: &pgconn.PgError{Code: "23503"}, want: false},
		{name: "pq", err: &pq.Error{Code: "23505"}, want: true},
		{name: "mysql", err: &mysql.MySQLError{Number: 1062}, want: true},
		{name: "sqlite", err: errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)"), want: true},
		{name: "other", err: errors.New("connection refused"), want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsDuplicateKeyErr(tc.err))
		})
	}
}
