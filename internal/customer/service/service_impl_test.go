package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/apotek/internal/audit/domain"
	"github.com/smallbiznis/apotek/internal/clock"
	"github.com/smallbiznis/apotek/internal/customer/domain"
	"github.com/smallbiznis/apotek/internal/customer/repository"
	"github.com/smallbiznis/apotek/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type auditMock struct {
	mock.Mock
}

func (m *auditMock) Record(ctx context.Context, logType string, message string, metadata map[string]any) error {
	args := m.Called(ctx, logType, message, metadata)
	return args.Error(0)
}

func (m *auditMock) List(ctx context.Context, req auditdomain.ListActivityLogRequest) (auditdomain.ListActivityLogResponse, error) {
	return auditdomain.ListActivityLogResponse{}, nil
}

func (m *auditMock) Recent(ctx context.Context, limit int) ([]auditdomain.ActivityLog, error) {
	return nil, nil
}

func newTestService(t *testing.T, audit *auditMock) domain.Service {
	t.Helper()
	conn, err := db.NewTest(t.Name())
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Customer{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(Params{
		DB:       conn,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    clock.NewFakeClock(time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)),
		Repo:     repository.Provide(),
		AuditSvc: audit,
	})
}

func TestCreateAndGetCustomer(t *testing.T) {
	audit := &auditMock{}
	audit.On("Record", mock.Anything, auditdomain.TypeAddition, "Customer added: Ibu Sari", mock.Anything).Return(nil)
	svc := newTestService(t, audit)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateCustomerRequest{Name: " Ibu Sari ", Phone: "0812", Address: "Jl. Melati 3"})
	require.NoError(t, err)
	assert.Equal(t, "Ibu Sari", created.Name)

	got, err := svc.GetByID(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Jl. Melati 3", got.Address)
	audit.AssertExpectations(t)
}

func TestUpdateCustomer(t *testing.T) {
	audit := &auditMock{}
	audit.On("Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	svc := newTestService(t, audit)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateCustomerRequest{Name: "Pak Budi"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID.String(), domain.UpdateCustomerRequest{Name: "Pak Budi S.", Email: "budi@mail.id"})
	require.NoError(t, err)
	assert.Equal(t, "Pak Budi S.", updated.Name)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "budi@mail.id", list[0].Email)
	audit.AssertCalled(t, "Record", mock.Anything, auditdomain.TypeEdit, "Customer updated: Pak Budi S.", mock.Anything)
}

func TestCustomerValidation(t *testing.T) {
	svc := newTestService(t, &auditMock{})
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateCustomerRequest{Name: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Create(ctx, domain.CreateCustomerRequest{Name: "X", Email: "nope"})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	_, err = svc.GetByID(ctx, "abc")
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = svc.GetByID(ctx, "12345")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Update(ctx, "12345", domain.UpdateCustomerRequest{Name: "Y"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
