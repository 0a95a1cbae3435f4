package extractor

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"bcct-chatbot-be/pkg/lexicon"
	"bcct-chatbot-be/pkg/nlp"
)

var (
	numberRe     = regexp.MustCompile(`\b\d+\b`)
	crfRe        = regexp.MustCompile(`(?i)\bCRF\d+\b`)
	createdByRe  = regexp.MustCompile(`(?i)\b(created|loaded|uploaded|added)\s+by\s+([A-Za-z][A-Za-z.'-]*(?:\s+[A-Za-z][A-Za-z.'-]*){0,2})`)
	customerRe   = regexp.MustCompile(`(?i)\b(?:customer|client)\s+(?:name\s+)?(?:is\s+|=\s*|:\s*)?([A-Za-z][A-Za-z0-9&.'-]*(?:\s+[A-Za-z][A-Za-z0-9&.'-]*){0,3})`)
	shortIDRe    = regexp.MustCompile(`(?i)\b(contract|award|customer|account|client)\s*(?:number|no\.?|#)?\s*(\d{1,5})\b`)
	nonPartUnits = regexp.MustCompile(`(?i)^\d+(st|nd|rd|th|h|hr|hrs|d|m|y|k|days?|weeks?|months?|years?|hours?|mins?)$`)
)

// nameStopwords end a captured name; a name made only of them is discarded.
var nameStopwords = map[string]struct{}{
	"in": {}, "on": {}, "at": {}, "after": {}, "before": {}, "between": {}, "since": {}, "during": {},
	"for": {}, "with": {}, "from": {}, "and": {}, "or": {}, "last": {}, "this": {}, "that": {},
	"the": {}, "a": {}, "an": {}, "of": {}, "by": {}, "number": {}, "no": {}, "num": {}, "id": {},
	"name": {}, "details": {}, "detail": {}, "info": {}, "information": {}, "contract": {},
	"contracts": {}, "part": {}, "parts": {}, "status": {}, "created": {}, "loaded": {}, "where": {},
	"who": {}, "which": {}, "is": {}, "are": {}, "was": {}, "were": {}, "has": {}, "have": {},
	"show": {}, "list": {}, "me": {}, "all": {}, "please": {}, "customer": {}, "customers": {},
	"account": {}, "today": {}, "yesterday": {}, "count": {}, "total": {},
}

// Extractor pulls typed entity filters out of normalized text.
type Extractor struct {
	lex *lexicon.Lexicon
	now func() time.Time
}

type Option func(*Extractor)

// WithClock fixes the reference time for relative date ranges.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

func New(lex *lexicon.Lexicon, opts ...Option) *Extractor {
	e := &Extractor{lex: lex, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns validated entity filters plus advisory format issues.
func (e *Extractor) Extract(normalized string) ([]nlp.EntityFilter, []string) {
	lower := strings.ToLower(normalized)
	ctx := DetectContext(e.lex, lower)

	b := newBuilder()
	var issues []string

	dates := e.scanDates(normalized, lower, ctx)
	issues = append(issues, dates.issues...)
	text := dates.masked

	issues = append(issues, e.numbers(text, ctx, b)...)

	for _, m := range crfRe.FindAllString(text, -1) {
		b.add(nlp.AttrOpportunityNumber, nlp.OpEquals, strings.ToUpper(m), nlp.SourceExtracted)
	}

	issues = append(issues, e.partNumbers(text, ctx, b)...)
	if !ctx.Parts && b.has(nlp.AttrInvoicePartNumber) {
		// A part number alone is enough parts language for the contract number.
		b.relabel(nlp.AttrAwardNumber, nlp.AttrLoadedCPNumber)
	}

	if m := createdByRe.FindStringSubmatch(normalized); m != nil {
		if name := trimName(m[2]); name != "" {
			b.add(nlp.AttrCreatedBy, nlp.OpLike, name, nlp.SourceUserInput)
		}
	}

	if !b.has(nlp.AttrCustomerNumber) {
		if m := customerRe.FindStringSubmatch(normalized); m != nil {
			if name := trimName(m[1]); name != "" && !e.lex.StatusRegexp().MatchString(name) {
				b.add(nlp.AttrCustomerName, nlp.OpLike, name, nlp.SourceUserInput)
			}
		}
	}

	if !ctx.FailedParts() {
		if status := e.lex.StatusRegexp().FindString(lower); status != "" {
			b.add(nlp.AttrStatus, nlp.OpEquals, strings.ToUpper(status), nlp.SourceExtracted)
		}
	}

	for _, f := range dates.filters {
		b.add(f.Attribute, f.Operation, f.Value, f.Source)
	}

	return b.result(), issues
}

func (e *Extractor) numbers(text string, ctx Context, b *builder) []string {
	var issues []string
	for _, n := range numberRe.FindAllString(text, -1) {
		switch {
		case len(n) == 6:
			b.add(ctx.ContractNumberAttribute(), nlp.OpEquals, n, nlp.SourceExtracted)
		case len(n) == 7 || (len(n) > 7 && ctx.Customer):
			b.add(nlp.AttrCustomerNumber, nlp.OpEquals, n, nlp.SourceExtracted)
		case len(n) > 7:
			issues = append(issues, fmt.Sprintf("Number '%s' is neither a contract number (6 digits) nor a customer number; add the word customer if it is an account number.", n))
		}
	}

	for _, m := range shortIDRe.FindAllStringSubmatch(text, -1) {
		kind := strings.ToLower(m[1])
		if kind == "contract" || kind == "award" {
			issues = append(issues, fmt.Sprintf("Contract number '%s' must be exactly 6 digits.", m[2]))
		} else {
			issues = append(issues, fmt.Sprintf("Customer number '%s' must be 7 or more digits.", m[2]))
		}
	}
	return issues
}

func (e *Extractor) partNumbers(text string, ctx Context, b *builder) []string {
	var issues []string
	attr := ctx.PartNumberAttribute()

	for _, tok := range candidateRe.FindAllString(text, -1) {
		if !isPartCandidate(tok) || opportunityRe.MatchString(tok) || nonPartUnits.MatchString(tok) {
			continue
		}
		up := strings.ToUpper(tok)
		if e.lex.IsBlocked(up) || e.lex.IsBlocked(leetFold.Replace(up)) {
			continue
		}
		if len(strings.ReplaceAll(tok, "-", "")) < 3 {
			if ctx.Parts {
				issues = append(issues, fmt.Sprintf("Part number '%s' must be 3+ alphanumeric characters.", tok))
			}
			continue
		}
		if _, ok := MatchPartShape(up); !ok {
			if ctx.Parts {
				issues = append(issues, fmt.Sprintf("Part number '%s' does not match a known part number format.", tok))
			}
			continue
		}
		b.add(attr, nlp.OpEquals, up, nlp.SourceExtracted)
	}
	return issues
}

// trimName keeps the leading words of a captured name up to the first stopword.
func trimName(raw string) string {
	var kept []string
	for _, w := range strings.Fields(raw) {
		if _, stop := nameStopwords[strings.ToLower(strings.Trim(w, ".,'"))]; stop {
			break
		}
		kept = append(kept, strings.Trim(w, ".,"))
	}
	return strings.Join(kept, " ")
}

// builder deduplicates filters and enforces one home per contract number.
type builder struct {
	filters []nlp.EntityFilter
	seen    map[string]struct{}
}

// singleValued attributes keep their first value only.
var singleValued = map[string]struct{}{
	nlp.AttrStatus:       {},
	nlp.AttrCreatedBy:    {},
	nlp.AttrCustomerName: {},
}

func newBuilder() *builder {
	return &builder{seen: make(map[string]struct{})}
}

func (b *builder) add(attr string, op nlp.Operation, value string, src nlp.Source) {
	f := nlp.EntityFilter{Attribute: attr, Operation: op, Value: value, Source: src}
	if _, dup := b.seen[f.Key()]; dup {
		return
	}
	if _, single := singleValued[attr]; single && b.has(attr) {
		return
	}
	b.seen[f.Key()] = struct{}{}
	b.filters = append(b.filters, f)
}

func (b *builder) relabel(from, to string) {
	for i, f := range b.filters {
		if f.Attribute != from {
			continue
		}
		delete(b.seen, f.Key())
		b.filters[i].Attribute = to
		b.seen[b.filters[i].Key()] = struct{}{}
	}
}

func (b *builder) has(attr string) bool {
	_, ok := nlp.FindEntity(b.filters, attr)
	return ok
}

// result drops lower-priority homes of a contract number that appears under
// more than one of the contract-number attributes.
func (b *builder) result() []nlp.EntityFilter {
	rank := make(map[string]int, len(nlp.ContractNumberAttributes))
	for i, a := range nlp.ContractNumberAttributes {
		rank[a] = i
	}

	best := make(map[string]string)
	for _, f := range b.filters {
		r, ok := rank[f.Attribute]
		if !ok {
			continue
		}
		if cur, exists := best[f.Value]; !exists || r < rank[cur] {
			best[f.Value] = f.Attribute
		}
	}

	out := make([]nlp.EntityFilter, 0, len(b.filters))
	for _, f := range b.filters {
		if _, ok := rank[f.Attribute]; ok && best[f.Value] != f.Attribute {
			continue
		}
		out = append(out, f)
	}
	return out
}
