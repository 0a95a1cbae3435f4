package implementation

import (
	"context"

	"bcct-chatbot-be/internal/entity"
	"bcct-chatbot-be/internal/mapper"
	"bcct-chatbot-be/internal/repository/contract"

	"gorm.io/gorm"
)

type ChecklistRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ContractMapper
}

func NewChecklistRepository(db *gorm.DB) contract.ChecklistRepository {
	return &ChecklistRepositoryImpl{
		db:     db,
		mapper: mapper.NewContractMapper(),
	}
}

func (r *ChecklistRepositoryImpl) Create(ctx context.Context, c *entity.ContractChecklist) error {
	m := r.mapper.ChecklistToModel(c)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	c.Id = m.Id
	c.CreatedAt = m.CreateDate
	return nil
}

type AuditLogRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ContractMapper
}

func NewAuditLogRepository(db *gorm.DB) contract.AuditLogRepository {
	return &AuditLogRepositoryImpl{
		db:     db,
		mapper: mapper.NewContractMapper(),
	}
}

func (r *AuditLogRepositoryImpl) Create(ctx context.Context, l *entity.AuditLog) error {
	m, err := r.mapper.AuditLogToModel(l)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(m).Error
}
