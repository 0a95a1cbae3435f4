package classifier

import (
	"sort"

	"bcct-chatbot-be/pkg/nlp"
)

// dataQueries are the query types that return rows and therefore columns.
var dataQueries = map[nlp.QueryType]struct{}{
	nlp.QueryContracts:     {},
	nlp.QueryParts:         {},
	nlp.QueryFailedParts:   {},
	nlp.QueryCustomers:     {},
	nlp.QueryOpportunities: {},
}

type displayHit struct {
	column   string
	specific bool
	start    int
	end      int
}

// displayEntities decides which columns the answer should show.
//
// A request joining two domains ("contracts and parts") gets both default
// sets. Otherwise the display vocabulary is scanned: a lone specific attribute
// is returned on its own, any other mention set is prefixed with the table
// identifier. With no mention the query type default applies.
func (c *Classifier) displayEntities(in *input, qt nlp.QueryType) []string {
	if _, ok := dataQueries[qt]; !ok {
		return []string{}
	}

	merged := nlp.NewOrderedSet()
	for _, conj := range c.lex.DomainConjunctions() {
		if !conj.Regexp().MatchString(in.lower) {
			continue
		}
		for _, domain := range conj.Domains {
			for _, col := range c.lex.DefaultDisplay(domain) {
				merged.Add(col)
			}
		}
	}
	if merged.Len() > 0 {
		return merged.Items()
	}

	hits := c.scanVocabulary(in.lower)
	if len(hits) == 1 && hits[0].specific {
		return []string{hits[0].column}
	}
	if len(hits) > 0 {
		cols := nlp.NewOrderedSet()
		if table, ok := c.lex.Table(string(qt)); ok {
			cols.Add(table.Identifier)
		}
		for _, h := range hits {
			cols.Add(h.column)
		}
		return cols.Items()
	}

	return c.lex.DefaultDisplay(string(qt))
}

// scanVocabulary finds display terms in text order. A term overlapping one
// found earlier in the vocabulary is dropped, so "price expiration" does not
// also count as "price".
func (c *Classifier) scanVocabulary(lower string) []displayHit {
	var hits []displayHit
	for _, term := range c.lex.DisplayVocabulary() {
		for _, loc := range term.Regexp().FindAllStringIndex(lower, -1) {
			if overlaps(hits, loc[0], loc[1]) {
				continue
			}
			hits = append(hits, displayHit{column: term.Column, specific: term.Specific, start: loc[0], end: loc[1]})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].start < hits[j].start })
	return hits
}

func overlaps(hits []displayHit, start, end int) bool {
	for _, h := range hits {
		if start < h.end && h.start < end {
			return true
		}
	}
	return false
}
