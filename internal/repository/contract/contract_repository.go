package contract

import (
	"context"

	"bcct-chatbot-be/internal/entity"
	"bcct-chatbot-be/internal/repository/specification"
)

type ContractRepository interface {
	Create(ctx context.Context, contract *entity.Contract) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Contract, error)
	MaxAwardNumber(ctx context.Context) (string, error)
}

type ChecklistRepository interface {
	Create(ctx context.Context, checklist *entity.ContractChecklist) error
}

type AuditLogRepository interface {
	Create(ctx context.Context, log *entity.AuditLog) error
}
