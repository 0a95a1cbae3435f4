package specification

import (
	"strings"

	"bcct-chatbot-be/pkg/lexicon"
	"bcct-chatbot-be/pkg/nlp"
)

const countColumn = "COUNT(*) AS count"

// QueryPlan is a filtered read against one table.
type QueryPlan struct {
	Table   string
	Columns []string
	Specs   []Specification
	Count   bool
}

// Plan turns entities and display columns into a query. A COUNT display
// entity makes it an aggregate grouped by the remaining display columns;
// otherwise rows come newest first, capped at limit.
func Plan(table lexicon.Table, entities []nlp.EntityFilter, display []string, limit int) (QueryPlan, error) {
	specs, err := FromEntities(table, entities)
	if err != nil {
		return QueryPlan{}, err
	}

	plan := QueryPlan{Table: table.Name}
	var rest []string
	for _, d := range display {
		if d == nlp.DisplayCount {
			plan.Count = true
			continue
		}
		rest = append(rest, d)
	}
	cols := SelectColumns(table, rest)

	if plan.Count {
		plan.Columns = append(cols, countColumn)
		specs = append(specs, GroupBy{Fields: cols})
		if len(cols) > 0 {
			specs = append(specs, OrderBy{Field: "count", Desc: true})
		}
		plan.Specs = specs
		return plan, nil
	}

	plan.Columns = cols
	if table.CreatedColumn != "" {
		specs = append(specs, OrderBy{Field: strings.ToLower(table.CreatedColumn), Desc: true})
	}
	if limit > 0 {
		specs = append(specs, Pagination{Limit: limit})
	}
	plan.Specs = specs
	return plan, nil
}
