package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/apotek/internal/audit/domain"
	"github.com/smallbiznis/apotek/internal/audit/masking"
	"github.com/smallbiznis/apotek/internal/clock"
	obscontext "github.com/smallbiznis/apotek/internal/observability/context"
	"github.com/smallbiznis/apotek/pkg/db/option"
	"github.com/smallbiznis/apotek/pkg/db/pagination"
	"github.com/smallbiznis/apotek/pkg/repository"
	"github.com/smallbiznis/apotek/pkg/telemetry/correlation"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	defaultPageSize = 10
	maxPageSize     = 250
)

var sensitiveKeys = []string{"email", "phone", "password"}

type Params struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  repository.Repository[auditdomain.ActivityLog]
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  repository.Repository[auditdomain.ActivityLog]
}

func NewService(p Params) auditdomain.Service {
	return &Service{
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Record(ctx context.Context, logType string, message string, metadata map[string]any) error {
	logType = strings.TrimSpace(logType)
	if logType == "" {
		return auditdomain.ErrInvalidType
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return auditdomain.ErrInvalidMessage
	}

	payload := masking.MaskFields(metadata, sensitiveKeys...)
	if payload == nil {
		payload = map[string]any{}
	}

	actorID, role := obscontext.ActorFromContext(ctx)
	payload["actor_id"] = actorID
	if role != "" {
		payload["actor_role"] = role
	}
	if requestID := obscontext.RequestIDFromContext(ctx); requestID != "" {
		payload["request_id"] = requestID
	}
	if correlationID := correlation.ExtractCorrelationID(ctx); correlationID != "" {
		payload["correlation_id"] = correlationID
	}
	if ip := obscontext.IPAddressFromContext(ctx); ip != "" {
		payload["ip_address"] = ip
	}

	entry := auditdomain.ActivityLog{
		ID:        s.genID.Generate(),
		Type:      logType,
		Message:   message,
		Metadata:  datatypes.JSONMap(payload),
		Timestamp: s.clock.Now().UTC(),
	}
	if err := s.repo.Create(ctx, &entry); err != nil {
		s.log.Warn("failed to write activity log", zap.String("type", logType), zap.Error(err))
		return err
	}
	return nil
}

func (s *Service) List(ctx context.Context, req auditdomain.ListActivityLogRequest) (auditdomain.ListActivityLogResponse, error) {
	if token := strings.TrimSpace(req.PageToken); token != "" {
		cursor, err := pagination.DecodeCursor(token)
		if err != nil || cursor.ID == "" {
			return auditdomain.ListActivityLogResponse{}, auditdomain.ErrInvalidPageToken
		}
		if _, err := snowflake.ParseString(cursor.ID); err != nil {
			return auditdomain.ListActivityLogResponse{}, auditdomain.ErrInvalidPageToken
		}
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	req.PageSize = pageSize

	items, err := s.repo.Find(ctx, &auditdomain.ActivityLog{Type: strings.TrimSpace(req.Type)},
		option.WithSortBy(option.QuerySortBy{}),
		option.ApplyPagination(req.Pagination),
	)
	if err != nil {
		return auditdomain.ListActivityLogResponse{}, err
	}

	items, pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(item *auditdomain.ActivityLog) string {
		return item.ID.String()
	})

	logs := make([]auditdomain.ActivityLog, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		logs = append(logs, *item)
	}

	resp := auditdomain.ListActivityLogResponse{ActivityLogs: logs}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

// Recent returns the newest entries first.
func (s *Service) Recent(ctx context.Context, limit int) ([]auditdomain.ActivityLog, error) {
	if limit <= 0 {
		limit = 4
	}
	items, err := s.repo.Find(ctx, &auditdomain.ActivityLog{},
		option.WithSortBy(option.WithQuerySortBy("timestamp", "desc", map[string]bool{"timestamp": true})),
		option.ApplyPagination(pagination.Pagination{PageSize: limit}),
	)
	if err != nil {
		return nil, err
	}
	if len(items) > limit {
		items = items[:limit]
	}

	logs := make([]auditdomain.ActivityLog, 0, len(items))
	for _, item := range items {
		logs = append(logs, *item)
	}
	return logs, nil
}
