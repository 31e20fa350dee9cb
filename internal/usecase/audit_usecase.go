package usecase

import (
	"context"
	"net/http"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type AuditUsecase struct {
	auditRepo repo.AuditLogRepository
}

func NewAuditUsecase(auditRepo repo.AuditLogRepository) *AuditUsecase {
	return &AuditUsecase{auditRepo: auditRepo}
}

func (u *AuditUsecase) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	if f.Action != nil {
		switch *f.Action {
		case model.AuditActionUpdateStock, model.AuditActionUpdateOrder, model.AuditActionDeleteProduct:
		default:
			return nil, NewValidationError("action")
		}
	}
	if f.ResourceType != nil {
		switch *f.ResourceType {
		case model.AuditResourceProduct, model.AuditResourceOrder:
		default:
			return nil, NewValidationError("resourceType")
		}
	}
	if f.CreatedFrom != nil && f.CreatedTo != nil && f.CreatedFrom.After(*f.CreatedTo) {
		return nil, NewHTTPError(http.StatusBadRequest, "from must be before to")
	}

	logs, err := u.auditRepo.List(ctx, f)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return logs, nil
}
