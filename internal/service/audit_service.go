package service

import (
	"encoding/json"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-pos-rd/internal/model"
	"go-pos-rd/internal/repository"
)

type AuditService interface {
	// Record writes an audit entry. Pass the surrounding transaction so the
	// entry commits or rolls back with the change it describes.
	Record(tx *gorm.DB, actor Actor, action, entity, entityID string, details interface{}) error
	List(filter repository.AuditFilter) (model.Page[model.AuditLog], error)
}

type auditService struct {
	repo repository.AuditRepository
	log  *zap.Logger
}

func NewAuditService(repo repository.AuditRepository, log *zap.Logger) AuditService {
	return &auditService{repo: repo, log: log.Named("audit")}
}

func (s *auditService) Record(tx *gorm.DB, actor Actor, action, entity, entityID string, details interface{}) error {
	entry := &model.AuditLog{
		UserID:    actor.idPtr(),
		UserEmail: actor.Email,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		IPAddress: actor.IP,
	}
	if details != nil {
		raw, err := json.Marshal(details)
		if err != nil {
			return err
		}
		entry.Details = string(raw)
	}
	return s.repo.Create(tx, entry)
}

func (s *auditService) List(filter repository.AuditFilter) (model.Page[model.AuditLog], error) {
	filter.Pagination = filter.Pagination.Normalize()
	logs, total, err := s.repo.List(filter)
	if err != nil {
		return model.Page[model.AuditLog]{}, err
	}
	return model.NewPage(logs, total, filter.Pagination.Page, filter.Pagination.Limit), nil
}

// recordBestEffort is for mutations that ran outside a transaction; a failed audit
// write is logged rather than reported to the caller.
func recordBestEffort(audit AuditService, log *zap.Logger, actor Actor, action, entity, entityID string, details interface{}) {
	if err := audit.Record(nil, actor, action, entity, entityID, details); err != nil {
		log.Warn("audit write failed",
			zap.String("action", action),
			zap.String("entity", entity),
			zap.String("entity_id", entityID),
			zap.Error(err),
		)
	}
}
