package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"bcct-chatbot-be/internal/repository/contract"
	"bcct-chatbot-be/internal/repository/specification"
	"bcct-chatbot-be/pkg/lexicon"
	"bcct-chatbot-be/pkg/nlp"
	"bcct-chatbot-be/pkg/nlp/extractor"
)

// ContractDataProvider keeps every table in memory. It backs the local REPL
// and the tests; filter semantics mirror the SQL provider.
type ContractDataProvider struct {
	lex *lexicon.Lexicon
	now func() time.Time

	mu         sync.RWMutex
	rows       map[string][]map[string]interface{}
	users      []string
	checklists []map[string]string
	nextAward  int
}

func NewContractDataProvider(lex *lexicon.Lexicon, now func() time.Time) *ContractDataProvider {
	return &ContractDataProvider{
		lex:       lex,
		now:       now,
		rows:      make(map[string][]map[string]interface{}),
		nextAward: 200000,
	}
}

// AddRow inserts a row under a table hint such as CONTRACTS.
func (p *ContractDataProvider) AddRow(tableHint string, row map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rows[tableHint] = append(p.rows[tableHint], copyRow(row))
}

func (p *ContractDataProvider) AddUser(names ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users = append(p.users, names...)
}

// Checklists returns the saved checklists in creation order.
func (p *ContractDataProvider) Checklists() []map[string]string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]map[string]string, len(p.checklists))
	for i, c := range p.checklists {
		out[i] = make(map[string]string, len(c))
		for k, v := range c {
			out[i][k] = v
		}
	}
	return out
}

func (p *ContractDataProvider) RunFilteredQuery(ctx context.Context, tableHint string, entities []nlp.EntityFilter, displayEntities []string) ([]map[string]interface{}, error) {
	table, ok := p.lex.Table(tableHint)
	if !ok {
		return nil, fmt.Errorf("%w: %s", contract.ErrUnknownTable, tableHint)
	}
	for _, e := range entities {
		if !table.HasColumn(e.Attribute) {
			return nil, fmt.Errorf("%w: %s on %s", specification.ErrUnknownColumn, e.Attribute, table.Name)
		}
	}

	p.mu.RLock()
	var matched []map[string]interface{}
	for _, row := range p.rows[tableHint] {
		if matchesAll(row, entities) {
			matched = append(matched, row)
		}
	}
	p.mu.RUnlock()

	count := false
	var cols []string
	for _, d := range displayEntities {
		if d == nlp.DisplayCount {
			count = true
		} else if table.HasColumn(d) {
			cols = append(cols, d)
		}
	}
	if count {
		return groupCount(matched, cols), nil
	}

	if table.CreatedColumn != "" {
		sort.SliceStable(matched, func(i, j int) bool {
			return fmt.Sprint(matched[i][table.CreatedColumn]) > fmt.Sprint(matched[j][table.CreatedColumn])
		})
	}
	out := make([]map[string]interface{}, 0, len(matched))
	for _, row := range matched {
		out = append(out, project(row, cols))
	}
	return out, nil
}

func (p *ContractDataProvider) CreateContract(ctx context.Context, fields map[string]string) (contract.CreateResult, error) {
	account := fields["ACCOUNT_NUMBER"]
	exists, _ := p.ValidateAccountNumber(ctx, account)
	if !exists {
		return contract.CreateResult{}, fmt.Errorf("%w: %s", contract.ErrAccountNotFound, account)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextAward++
	award := strconv.Itoa(p.nextAward)

	row := map[string]interface{}{
		"AWARD_NUMBER":    award,
		"ACCOUNT_NUMBER":  account,
		"CUSTOMER_NUMBER": account,
		"STATUS":          "DRAFT",
		"CREATE_DATE":     p.now().Format(extractor.ISODate),
	}
	for k, v := range fields {
		if _, set := row[k]; !set {
			row[k] = v
		}
	}
	p.rows["CONTRACTS"] = append(p.rows["CONTRACTS"], row)

	return contract.CreateResult{
		Success:    true,
		Identifier: award,
		Message:    fmt.Sprintf("Contract %s was created.", award),
	}, nil
}

func (p *ContractDataProvider) CreateChecklist(ctx context.Context, fields map[string]string) (contract.CreateResult, error) {
	award := fields["AWARD_NUMBER"]
	rows, err := p.RunFilteredQuery(ctx, "CONTRACTS", []nlp.EntityFilter{
		{Attribute: nlp.AttrAwardNumber, Operation: nlp.OpEquals, Value: award},
	}, nil)
	if err != nil {
		return contract.CreateResult{}, err
	}
	if len(rows) == 0 {
		return contract.CreateResult{Success: false, Message: fmt.Sprintf("Contract %s was not found, so no checklist was saved.", award)}, nil
	}

	saved := make(map[string]string, len(fields))
	for k, v := range fields {
		saved[k] = v
	}
	p.mu.Lock()
	p.checklists = append(p.checklists, saved)
	p.mu.Unlock()

	return contract.CreateResult{Success: true, Message: fmt.Sprintf("Checklist saved for contract %s.", award)}, nil
}

func (p *ContractDataProvider) FindUsersByNamePattern(ctx context.Context, pattern string) ([]string, error) {
	needle := strings.ToLower(strings.TrimSpace(pattern))
	p.mu.RLock()
	defer p.mu.RUnlock()

	var out []string
	for _, u := range p.users {
		if strings.Contains(strings.ToLower(u), needle) {
			out = append(out, u)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (p *ContractDataProvider) ValidateAccountNumber(ctx context.Context, number string) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, row := range p.rows["CUSTOMERS"] {
		if fmt.Sprint(row["CUSTOMER_NUMBER"]) == number {
			return true, nil
		}
	}
	return false, nil
}

func matchesAll(row map[string]interface{}, entities []nlp.EntityFilter) bool {
	for _, e := range entities {
		if !matches(fmt.Sprint(row[e.Attribute]), e) {
			return false
		}
	}
	return true
}

// matches compares as strings: identifiers are fixed width and dates ISO, so
// lexical order is value order.
func matches(v string, e nlp.EntityFilter) bool {
	switch e.Operation {
	case nlp.OpEquals:
		return strings.EqualFold(v, e.Value)
	case nlp.OpGreater:
		return v > e.Value
	case nlp.OpLess:
		return v < e.Value
	case nlp.OpGreaterEqual:
		return v >= e.Value
	case nlp.OpLessEqual:
		return v <= e.Value
	case nlp.OpBetween:
		lo, hi, ok := e.Bounds()
		return ok && v >= lo && v <= hi
	case nlp.OpLike:
		return strings.Contains(strings.ToLower(v), strings.ToLower(e.Value))
	default:
		return false
	}
}

func groupCount(rows []map[string]interface{}, cols []string) []map[string]interface{} {
	type group struct {
		row   map[string]interface{}
		count int
	}
	var order []string
	groups := make(map[string]*group)
	for _, row := range rows {
		key := make([]string, len(cols))
		for i, c := range cols {
			key[i] = fmt.Sprint(row[c])
		}
		k := strings.Join(key, "\x00")
		g, ok := groups[k]
		if !ok {
			g = &group{row: project(row, cols)}
			if len(cols) == 0 {
				g.row = map[string]interface{}{}
			}
			groups[k] = g
			order = append(order, k)
		}
		g.count++
	}
	if len(rows) == 0 && len(cols) == 0 {
		return []map[string]interface{}{{"COUNT": 0}}
	}

	out := make([]map[string]interface{}, 0, len(order))
	for _, k := range order {
		g := groups[k]
		g.row["COUNT"] = g.count
		out = append(out, g.row)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i]["COUNT"].(int) > out[j]["COUNT"].(int) })
	return out
}

func project(row map[string]interface{}, cols []string) map[string]interface{} {
	if len(cols) == 0 {
		return copyRow(row)
	}
	out := make(map[string]interface{}, len(cols))
	for _, c := range cols {
		if v, ok := row[c]; ok {
			out[c] = v
		}
	}
	return out
}

func copyRow(row map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}
