package unitofwork

import (
	"context"
	"fmt"

	"bcct-chatbot-be/internal/repository/contract"
	"bcct-chatbot-be/internal/repository/implementation"

	"gorm.io/gorm"
)

type UnitOfWorkImpl struct {
	db *gorm.DB
	tx *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &UnitOfWorkImpl{db: db}
}

func (u *UnitOfWorkImpl) getDB() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *UnitOfWorkImpl) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}
	u.tx = u.db.WithContext(ctx).Begin()
	return u.tx.Error
}

func (u *UnitOfWorkImpl) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}
	err := u.tx.Commit().Error
	u.tx = nil
	return err
}

// Rollback is a no-op after Commit so it can always be deferred.
func (u *UnitOfWorkImpl) Rollback() error {
	if u.tx == nil {
		return nil
	}
	err := u.tx.Rollback().Error
	u.tx = nil
	return err
}

func (u *UnitOfWorkImpl) ContractRepository() contract.ContractRepository {
	return implementation.NewContractRepository(u.getDB())
}

func (u *UnitOfWorkImpl) ChecklistRepository() contract.ChecklistRepository {
	return implementation.NewChecklistRepository(u.getDB())
}

func (u *UnitOfWorkImpl) AuditLogRepository() contract.AuditLogRepository {
	return implementation.NewAuditLogRepository(u.getDB())
}

func (u *UnitOfWorkImpl) LookupRepository() contract.LookupRepository {
	return implementation.NewLookupRepository(u.getDB())
}

type RepositoryFactoryImpl struct {
	db *gorm.DB
}

func NewRepositoryFactory(db *gorm.DB) RepositoryFactory {
	return &RepositoryFactoryImpl{db: db}
}

// NewUnitOfWork is short lived, one per request.
func (f *RepositoryFactoryImpl) NewUnitOfWork(ctx context.Context) UnitOfWork {
	return NewUnitOfWork(f.db)
}
