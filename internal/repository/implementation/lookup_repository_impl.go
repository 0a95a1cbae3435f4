package implementation

import (
	"context"

	"bcct-chatbot-be/internal/model"
	"bcct-chatbot-be/internal/repository/contract"
	"bcct-chatbot-be/internal/repository/specification"

	"gorm.io/gorm"
)

type LookupRepositoryImpl struct {
	db *gorm.DB
}

func NewLookupRepository(db *gorm.DB) contract.LookupRepository {
	return &LookupRepositoryImpl{db: db}
}

func (r *LookupRepositoryImpl) Rows(ctx context.Context, table string, columns []string, specs ...specification.Specification) ([]map[string]interface{}, error) {
	query := r.db.WithContext(ctx).Table(table)
	if len(columns) > 0 {
		query = query.Select(columns)
	}
	query = applySpecifications(query, specs...)

	rows := make([]map[string]interface{}, 0)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *LookupRepositoryImpl) CustomerExists(ctx context.Context, customerNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Customer{}).
		Where("customer_number = ?", customerNumber).
		Count(&count).Error
	return count > 0, err
}

func (r *LookupRepositoryImpl) FindUserNames(ctx context.Context, pattern string, limit int) ([]string, error) {
	var names []string
	query := applySpecifications(
		r.db.WithContext(ctx).Model(&model.User{}).Where("active = ?", true),
		specification.NameLike{Field: "full_name", Pattern: pattern},
		specification.OrderBy{Field: "full_name"},
		specification.Pagination{Limit: limit},
	)
	if err := query.Distinct().Pluck("full_name", &names).Error; err != nil {
		return nil, err
	}
	return names, nil
}
