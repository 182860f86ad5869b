package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/apotek/internal/audit/domain"
	"github.com/smallbiznis/apotek/internal/audit/repository"
	"github.com/smallbiznis/apotek/internal/clock"
	obscontext "github.com/smallbiznis/apotek/internal/observability/context"
	"github.com/smallbiznis/apotek/pkg/db"
	"github.com/smallbiznis/apotek/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (auditdomain.Service, *clock.FakeClock) {
	t.Helper()
	conn, err := db.NewTest(t.Name())
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&auditdomain.ActivityLog{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))

	svc := NewService(Params{
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		Repo:  repository.Provide(conn),
	})
	return svc, fake
}

func TestRecordCapturesActorAndMasksContact(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := obscontext.WithActor(context.Background(), "42", "staff")
	ctx = obscontext.WithRequestID(ctx, "req-1")

	err := svc.Record(ctx, auditdomain.TypeAddition, "Supplier added: Kimia Farma", map[string]any{
		"email": "sales@kf.co.id",
	})
	require.NoError(t, err)

	logs, err := svc.Recent(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, auditdomain.TypeAddition, logs[0].Type)
	assert.Equal(t, "42", logs[0].Metadata["actor_id"])
	assert.Equal(t, "staff", logs[0].Metadata["actor_role"])
	assert.Equal(t, "req-1", logs[0].Metadata["request_id"])
	assert.Equal(t, "****@kf.co.id", logs[0].Metadata["email"])
}

func TestRecordRejectsEmptyInput(t *testing.T) {
	svc, _ := newTestService(t)

	assert.ErrorIs(t, svc.Record(context.Background(), "", "x", nil), auditdomain.ErrInvalidType)
	assert.ErrorIs(t, svc.Record(context.Background(), auditdomain.TypeEdit, " ", nil), auditdomain.ErrInvalidMessage)
}

func TestRecentReturnsNewestFour(t *testing.T) {
	svc, fake := newTestService(t)
	ctx := context.Background()

	for i := 1; i <= 6; i++ {
		require.NoError(t, svc.Record(ctx, auditdomain.TypeInvoice, fmt.Sprintf("entry %d", i), nil))
		fake.Advance(time.Minute)
	}

	logs, err := svc.Recent(ctx, 4)
	require.NoError(t, err)
	require.Len(t, logs, 4)
	assert.Equal(t, "entry 6", logs[0].Message)
	assert.Equal(t, "entry 3", logs[3].Message)
}

func TestListPagesByCursor(t *testing.T) {
	svc, fake := newTestService(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		logType := auditdomain.TypeInvoice
		if i%2 == 0 {
			logType = auditdomain.TypeEdit
		}
		require.NoError(t, svc.Record(ctx, logType, fmt.Sprintf("entry %d", i), nil))
		fake.Advance(time.Second)
	}

	first, err := svc.List(ctx, auditdomain.ListActivityLogRequest{})
	require.NoError(t, err)
	assert.Len(t, first.ActivityLogs, 5)
	assert.False(t, first.HasMore)

	page := auditdomain.ListActivityLogRequest{}
	page.PageSize = 2
	resp, err := svc.List(ctx, page)
	require.NoError(t, err)
	require.Len(t, resp.ActivityLogs, 2)
	assert.True(t, resp.HasMore)
	assert.Equal(t, "entry 5", resp.ActivityLogs[0].Message)

	page.PageToken = resp.NextPageToken
	resp, err = svc.List(ctx, page)
	require.NoError(t, err)
	require.Len(t, resp.ActivityLogs, 2)
	assert.Equal(t, "entry 3", resp.ActivityLogs[0].Message)

	edits, err := svc.List(ctx, auditdomain.ListActivityLogRequest{Type: auditdomain.TypeEdit})
	require.NoError(t, err)
	assert.Len(t, edits.ActivityLogs, 2)

	_, err = svc.List(ctx, auditdomain.ListActivityLogRequest{Pagination: paginationToken("%%%")})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidPageToken)
}

func paginationToken(token string) pagination.Pagination {
	return pagination.Pagination{PageToken: token}
}
