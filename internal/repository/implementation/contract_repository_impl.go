package implementation

import (
	"context"
	"errors"

	"bcct-chatbot-be/internal/entity"
	"bcct-chatbot-be/internal/mapper"
	"bcct-chatbot-be/internal/model"
	"bcct-chatbot-be/internal/repository/contract"
	"bcct-chatbot-be/internal/repository/specification"

	"gorm.io/gorm"
)

type ContractRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ContractMapper
}

func NewContractRepository(db *gorm.DB) contract.ContractRepository {
	return &ContractRepositoryImpl{
		db:     db,
		mapper: mapper.NewContractMapper(),
	}
}

func applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ContractRepositoryImpl) Create(ctx context.Context, c *entity.Contract) error {
	m := r.mapper.ToModel(c)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*c = *r.mapper.ToEntity(m)
	return nil
}

func (r *ContractRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Contract, error) {
	var m model.Contract
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

// MaxAwardNumber returns the highest award number in use, empty when none.
func (r *ContractRepositoryImpl) MaxAwardNumber(ctx context.Context) (string, error) {
	var max string
	err := r.db.WithContext(ctx).
		Model(&model.Contract{}).
		Select("COALESCE(MAX(award_number), '')").
		Scan(&max).Error
	return max, err
}
