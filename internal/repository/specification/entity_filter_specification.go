package specification

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"bcct-chatbot-be/pkg/lexicon"
	"bcct-chatbot-be/pkg/nlp"

	"gorm.io/gorm"
)

var (
	ErrUnknownColumn    = errors.New("column not available for table")
	ErrInvalidOperation = errors.New("unsupported filter operation")
)

var columnRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike neutralizes LIKE wildcards typed by the user.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// EntityFilter applies one extracted filter as a WHERE condition.
type EntityFilter struct {
	Filter nlp.EntityFilter
}

func (s EntityFilter) Apply(db *gorm.DB) *gorm.DB {
	cond, args, err := Condition(s.Filter)
	if err != nil {
		_ = db.AddError(err)
		return db
	}
	return db.Where(cond, args...)
}

// Condition renders a filter as a parameterized SQL condition. Column names
// are the lower-cased attribute and must be plain identifiers.
func Condition(f nlp.EntityFilter) (string, []interface{}, error) {
	col := strings.ToLower(f.Attribute)
	if !columnRe.MatchString(col) {
		return "", nil, fmt.Errorf("%w: %q", ErrUnknownColumn, f.Attribute)
	}

	switch f.Operation {
	case nlp.OpEquals, nlp.OpGreater, nlp.OpLess, nlp.OpGreaterEqual, nlp.OpLessEqual:
		return fmt.Sprintf("%s %s ?", col, f.Operation), []interface{}{f.Value}, nil
	case nlp.OpBetween:
		lo, hi, ok := f.Bounds()
		if !ok {
			return "", nil, fmt.Errorf("%w: BETWEEN needs two bounds, got %q", ErrInvalidOperation, f.Value)
		}
		return fmt.Sprintf("%s BETWEEN ? AND ?", col), []interface{}{lo, hi}, nil
	case nlp.OpLike:
		return fmt.Sprintf("%s ILIKE ?", col), []interface{}{"%" + EscapeLike(f.Value) + "%"}, nil
	default:
		return "", nil, fmt.Errorf("%w: %q", ErrInvalidOperation, f.Operation)
	}
}

// FromEntities builds the specifications for a table, rejecting attributes the
// table does not have.
func FromEntities(table lexicon.Table, entities []nlp.EntityFilter) ([]Specification, error) {
	specs := make([]Specification, 0, len(entities))
	for _, e := range entities {
		if !table.HasColumn(e.Attribute) {
			return nil, fmt.Errorf("%w: %s on %s", ErrUnknownColumn, e.Attribute, table.Name)
		}
		specs = append(specs, EntityFilter{Filter: e})
	}
	return specs, nil
}

// SelectColumns keeps the display columns the table knows, lower-cased for SQL.
// An empty result means all columns.
func SelectColumns(table lexicon.Table, display []string) []string {
	cols := make([]string, 0, len(display))
	for _, d := range display {
		if table.HasColumn(d) {
			cols = append(cols, strings.ToLower(d))
		}
	}
	return cols
}
