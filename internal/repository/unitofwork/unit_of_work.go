package unitofwork

import (
	"context"

	"bcct-chatbot-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ContractRepository() contract.ContractRepository
	ChecklistRepository() contract.ChecklistRepository
	AuditLogRepository() contract.AuditLogRepository
	LookupRepository() contract.LookupRepository
}

type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}
