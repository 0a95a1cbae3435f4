package contract

import (
	"context"

	"bcct-chatbot-be/internal/repository/specification"
)

// LookupRepository serves the read side: filtered rows, customer checks and
// user name search.
type LookupRepository interface {
	Rows(ctx context.Context, table string, columns []string, specs ...specification.Specification) ([]map[string]interface{}, error)
	CustomerExists(ctx context.Context, customerNumber string) (bool, error)
	FindUserNames(ctx context.Context, pattern string, limit int) ([]string, error)
}
