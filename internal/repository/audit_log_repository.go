package repository

import (
	"context"

	"marketplace/internal/domain/model"
)

// 監査ログの絞り込み条件。nilは絞り込まない
type AuditLogFilter struct {
	ActorUserID  *int64
	ResourceType *model.AuditResourceType
	ResourceID   *int64
	//このIDより古いものだけ（ページング用）
	BeforeID int64
	Limit    int
}

// 監査ログは追記のみ
type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error
	//新しい順
	List(ctx context.Context, filter AuditLogFilter) ([]model.AuditLog, error)
}
