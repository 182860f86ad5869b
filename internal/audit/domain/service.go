package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/apotek/pkg/db/pagination"
)

type ListActivityLogRequest struct {
	pagination.Pagination
	Type string `form:"type"`
}

type ListActivityLogResponse struct {
	pagination.PageInfo
	ActivityLogs []ActivityLog `json:"activity_logs"`
}

type Service interface {
	Record(ctx context.Context, logType string, message string, metadata map[string]any) error
	List(ctx context.Context, req ListActivityLogRequest) (ListActivityLogResponse, error)
	Recent(ctx context.Context, limit int) ([]ActivityLog, error)
}

var (
	ErrInvalidType      = errors.New("invalid_activity_type")
	ErrInvalidMessage   = errors.New("invalid_activity_message")
	ErrInvalidPageToken = errors.New("invalid_page_token")
)
