package implementation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"bcct-chatbot-be/internal/entity"
	"bcct-chatbot-be/internal/pkg/logger"
	"bcct-chatbot-be/internal/repository/contract"
	"bcct-chatbot-be/internal/repository/specification"
	"bcct-chatbot-be/pkg/lexicon"
	"bcct-chatbot-be/pkg/nlp"
	"bcct-chatbot-be/pkg/nlp/extractor"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	firstAwardNumber   = 100000
	maxCreateAttempts  = 3
	defaultRowLimit    = 100
	userCandidateLimit = 20

	pgUniqueViolation = "23505"
)

// ContractDataProvider is the Postgres-backed system of record.
type ContractDataProvider struct {
	db       *gorm.DB
	lex      *lexicon.Lexicon
	logger   logger.ILogger
	rowLimit int
}

func NewContractDataProvider(db *gorm.DB, lex *lexicon.Lexicon, logger logger.ILogger) contract.DataProvider {
	return &ContractDataProvider{
		db:       db,
		lex:      lex,
		logger:   logger,
		rowLimit: defaultRowLimit,
	}
}

func (p *ContractDataProvider) RunFilteredQuery(ctx context.Context, tableHint string, entities []nlp.EntityFilter, displayEntities []string) ([]map[string]interface{}, error) {
	table, ok := p.lex.Table(tableHint)
	if !ok {
		return nil, fmt.Errorf("%w: %s", contract.ErrUnknownTable, tableHint)
	}
	plan, err := specification.Plan(table, entities, displayEntities, p.rowLimit)
	if err != nil {
		return nil, err
	}

	rows, err := NewLookupRepository(p.db).Rows(ctx, plan.Table, plan.Columns, plan.Specs...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", plan.Table, err)
	}
	return rows, nil
}

// CreateContract allocates the next award number and inserts the contract.
// A concurrent insert that took the same number is retried.
func (p *ContractDataProvider) CreateContract(ctx context.Context, fields map[string]string) (contract.CreateResult, error) {
	account := fields["ACCOUNT_NUMBER"]
	exists, err := p.ValidateAccountNumber(ctx, account)
	if err != nil {
		return contract.CreateResult{}, err
	}
	if !exists {
		return contract.CreateResult{}, fmt.Errorf("%w: %s", contract.ErrAccountNotFound, account)
	}

	for attempt := 1; ; attempt++ {
		c := &entity.Contract{
			AccountNumber:  account,
			CustomerNumber: account,
			ContractName:   fields["CONTRACT_NAME"],
			Title:          fields["TITLE"],
			Description:    fields["DESCRIPTION"],
			Comments:       fields["COMMENTS"],
			IsPricelist:    fields["IS_PRICELIST"] == "YES",
			Status:         "DRAFT",
			CreatedBy:      fields["CREATED_BY"],
		}

		err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			repo := NewContractRepository(tx)
			max, err := repo.MaxAwardNumber(ctx)
			if err != nil {
				return err
			}
			c.AwardNumber, err = nextAwardNumber(max)
			if err != nil {
				return err
			}
			return repo.Create(ctx, c)
		})
		if err == nil {
			p.logger.Info("ContractDataProvider", "Contract created", map[string]interface{}{
				"award_number": c.AwardNumber,
				"created_by":   c.CreatedBy,
			})
			return contract.CreateResult{
				Success:    true,
				Identifier: c.AwardNumber,
				Message:    fmt.Sprintf("Contract %s was created.", c.AwardNumber),
			}, nil
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && attempt < maxCreateAttempts {
			p.logger.Warn("ContractDataProvider", "Award number taken, retrying", map[string]interface{}{
				"attempt": attempt,
			})
			continue
		}
		return contract.CreateResult{}, fmt.Errorf("create contract: %w", err)
	}
}

func nextAwardNumber(max string) (string, error) {
	if max == "" {
		return strconv.Itoa(firstAwardNumber), nil
	}
	n, err := strconv.Atoi(max)
	if err != nil {
		return "", fmt.Errorf("award number %q is not numeric: %w", max, err)
	}
	if n < firstAwardNumber {
		n = firstAwardNumber - 1
	}
	return strconv.Itoa(n + 1), nil
}

func (p *ContractDataProvider) CreateChecklist(ctx context.Context, fields map[string]string) (contract.CreateResult, error) {
	award := fields["AWARD_NUMBER"]
	existing, err := NewContractRepository(p.db).FindOne(ctx, specification.Filter("award_number", award))
	if err != nil {
		return contract.CreateResult{}, fmt.Errorf("find contract %s: %w", award, err)
	}
	if existing == nil {
		return contract.CreateResult{Success: false, Message: fmt.Sprintf("Contract %s was not found, so no checklist was saved.", award)}, nil
	}

	cl := &entity.ContractChecklist{AwardNumber: award, CreatedBy: fields["CREATED_BY"], Extra: map[string]string{}}
	dates := map[string]*time.Time{
		"DATE_OF_SIGNATURE":     &cl.DateOfSignature,
		"EFFECTIVE_DATE":        &cl.EffectiveDate,
		"EXPIRATION_DATE":       &cl.ExpirationDate,
		"FLOW_DOWN_DATE":        &cl.FlowDownDate,
		"PRICE_EXPIRATION_DATE": &cl.PriceExpirationDate,
	}
	for name, value := range fields {
		target, isDate := dates[name]
		if !isDate {
			if name != "AWARD_NUMBER" && name != "CREATED_BY" {
				cl.Extra[name] = value
			}
			continue
		}
		t, ok := extractor.ParseDate(value)
		if !ok {
			return contract.CreateResult{Success: false, Message: fmt.Sprintf("%s '%s' is not a valid date.", name, value)}, nil
		}
		*target = t
	}

	if err := NewChecklistRepository(p.db).Create(ctx, cl); err != nil {
		return contract.CreateResult{}, fmt.Errorf("create checklist: %w", err)
	}
	return contract.CreateResult{
		Success:    true,
		Identifier: cl.Id.String(),
		Message:    fmt.Sprintf("Checklist saved for contract %s.", award),
	}, nil
}

func (p *ContractDataProvider) FindUsersByNamePattern(ctx context.Context, pattern string) ([]string, error) {
	return NewLookupRepository(p.db).FindUserNames(ctx, pattern, userCandidateLimit)
}

func (p *ContractDataProvider) ValidateAccountNumber(ctx context.Context, number string) (bool, error) {
	return NewLookupRepository(p.db).CustomerExists(ctx, number)
}
