package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type auditLogGormRepository struct {
	db *gorm.DB
}

func NewAuditLogGormRepository(db *gorm.DB) repo.AuditLogRepository {
	return &auditLogGormRepository{db: db}
}

func (r *auditLogGormRepository) Create(ctx context.Context, entry model.AuditLog) error {
	return r.db.WithContext(ctx).Create(&entry).Error
}

// nilの条件は無視する
func auditFilter(f repo.AuditLogFilter) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		conds := []struct {
			set   bool
			query string
			arg   func() any
		}{
			{f.ActorUserID != nil, "actor_user_id = ?", func() any { return *f.ActorUserID }},
			{f.Action != nil, "action = ?", func() any { return *f.Action }},
			{f.ResourceType != nil, "resource_type = ?", func() any { return *f.ResourceType }},
			{f.ResourceID != nil, "resource_id = ?", func() any { return *f.ResourceID }},
			{f.CreatedFrom != nil, "created_at >= ?", func() any { return *f.CreatedFrom }},
			{f.CreatedTo != nil, "created_at <= ?", func() any { return *f.CreatedTo }},
		}
		for _, c := range conds {
			if c.set {
				q = q.Where(c.query, c.arg())
			}
		}
		return q
	}
}

func (r *auditLogGormRepository) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := max(f.Offset, 0)

	logs := []model.AuditLog{}
	err := r.db.WithContext(ctx).
		Scopes(auditFilter(f)).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}
