package contract

import (
	"context"
	"errors"

	"bcct-chatbot-be/pkg/nlp"
)

var (
	ErrAccountNotFound = errors.New("account number not found")
	ErrUnknownTable    = errors.New("unknown table")
)

// CreateResult is the outcome of a create call. Success is false when the
// backend refused the record for a business reason; Message says why.
type CreateResult struct {
	Success    bool   `json:"success"`
	Identifier string `json:"identifier,omitempty"`
	Message    string `json:"message"`
}

// DataProvider is everything the conversation core needs from the contract
// system of record.
type DataProvider interface {
	RunFilteredQuery(ctx context.Context, tableHint string, entities []nlp.EntityFilter, displayEntities []string) ([]map[string]interface{}, error)
	CreateContract(ctx context.Context, fields map[string]string) (CreateResult, error)
	CreateChecklist(ctx context.Context, fields map[string]string) (CreateResult, error)
	FindUsersByNamePattern(ctx context.Context, pattern string) ([]string, error)
	ValidateAccountNumber(ctx context.Context, number string) (bool, error)
}
