package classifier

import (
	"math"
	"regexp"
	"strings"

	"bcct-chatbot-be/pkg/lexicon"
	"bcct-chatbot-be/pkg/nlp"
	"bcct-chatbot-be/pkg/nlp/extractor"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Action types produced by the rule table.
const (
	ActionChecklistCreate   = "CONTRACT_CREATION_CHECKLIST"
	ActionContractCreateBot = "HELP_CONTRACT_CREATE_BOT"
	ActionContractCreateUsr = "HELP_CONTRACT_CREATE_USER"
	ActionHelpGeneral       = "help_general"
	ActionParseError        = "PARSE_ERROR"
	ActionDisambiguation    = "user_disambiguation"
)

var classificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "bcct",
	Name:      "classifications_total",
	Help:      "Number of classified user inputs by query and action type.",
}, []string{"query_type", "action_type"})

var wordRe = regexp.MustCompile(`[A-Za-z]+`)

type input struct {
	text     string
	lower    string
	entities []nlp.EntityFilter
	ctx      extractor.Context
}

func (in *input) has(attr string) bool {
	_, ok := nlp.FindEntity(in.entities, attr)
	return ok
}

func (in *input) hasAny(attrs ...string) bool {
	for _, a := range attrs {
		if in.has(a) {
			return true
		}
	}
	return false
}

type rule struct {
	name     string
	match    func(in *input) bool
	classify func(in *input) (nlp.QueryType, string)
}

// Classifier maps normalized text plus entities to a query type and action.
// Rules are tried in order and the first match wins.
type Classifier struct {
	lex        *lexicon.Lexicon
	rules      []rule
	creationRe *regexp.Regexp
}

func New(lex *lexicon.Lexicon) *Classifier {
	c := &Classifier{lex: lex, creationRe: creationRegexp(lex)}
	c.rules = []rule{
		{"quick_action", c.isQuickAction, c.quickAction},
		{"checklist_creation", c.isChecklistCreation, fixed(nlp.QueryHelp, ActionChecklistCreate)},
		{"contract_creation", c.isContractCreation, c.contractCreation},
		{"created_by", c.isCreatedBy, c.createdBy},
		{"failed_parts", c.isFailedParts, failedParts},
		{"parts", isParts, parts},
		{"customers", isCustomers, fixed(nlp.QueryCustomers, "customers_by_number")},
		{"opportunities", isOpportunities, opportunities},
		{"contracts", isContracts, contracts},
		{"help", c.isHelp, fixed(nlp.QueryHelp, ActionHelpGeneral)},
		{"fallback", func(*input) bool { return true }, c.fallback},
	}
	return c
}

// creationRegexp matches a creation verb aimed at a contract, allowing a few
// filler words in between ("create a new contract", "make me a contract").
func creationRegexp(lex *lexicon.Lexicon) *regexp.Regexp {
	verbs := lex.KeywordRegexp("creation_verbs").String()
	verbs = strings.TrimPrefix(verbs, `(?i)`)
	return regexp.MustCompile(`(?i)(?:` + verbs + `(?:\s+(?:a|an|the|new|one|me|my|us|another))*\s+contract\b|\bcontract\s+creation\b)`)
}

// Rules returns the rule names in evaluation order.
func (c *Classifier) Rules() []string {
	names := make([]string, len(c.rules))
	for i, r := range c.rules {
		names[i] = r.name
	}
	return names
}

// Classify runs the rule table. A request that carries no entity and no
// domain-related word comes back AMBIGUOUS with a MISSING_HEADER blocker.
func (c *Classifier) Classify(normalized string, entities []nlp.EntityFilter) (nlp.QueryClassification, []nlp.ValidationError) {
	lower := strings.ToLower(normalized)
	in := &input{
		text:     normalized,
		lower:    lower,
		entities: entities,
		ctx:      extractor.DetectContext(c.lex, lower),
	}

	var res nlp.QueryClassification
	for _, r := range c.rules {
		if r.match(in) {
			res.QueryType, res.ActionType = r.classify(in)
			break
		}
	}

	var errs []nlp.ValidationError
	if res.QueryType == nlp.QueryAmbiguous {
		errs = append(errs, nlp.ValidationError{
			Code:     nlp.CodeMissingHeader,
			Message:  "I could not tell what you are looking for. Mention a contract, part, customer or opportunity, or type 'help'.",
			Severity: nlp.SeverityBlocker,
		})
	}

	res.DisplayEntities = c.displayEntities(in, res.QueryType)
	res.Confidence = Score(errs, entities)

	classificationsTotal.WithLabelValues(string(res.QueryType), res.ActionType).Inc()
	return res, errs
}

// Score is the heuristic confidence: 0.8 base, minus 0.1 per error, plus 0.1
// when a contract or part number was recognized, clamped to [0, 1].
func Score(errs []nlp.ValidationError, entities []nlp.EntityFilter) float64 {
	score := 0.8 - 0.1*float64(len(errs))
	if hasIdentifier(entities) {
		score += 0.1
	}
	score = math.Max(0, math.Min(1, score))
	return math.Round(score*100) / 100
}

func hasIdentifier(entities []nlp.EntityFilter) bool {
	for _, e := range entities {
		switch e.Attribute {
		case nlp.AttrAwardNumber, nlp.AttrLoadedCPNumber, nlp.AttrContractNo,
			nlp.AttrInvoicePartNumber, nlp.AttrPartNumber:
			return true
		}
	}
	return false
}

func fixed(qt nlp.QueryType, action string) func(*input) (nlp.QueryType, string) {
	return func(*input) (nlp.QueryType, string) { return qt, action }
}

func (c *Classifier) isQuickAction(in *input) bool {
	_, ok := c.lex.QuickAction(in.text)
	return ok
}

func (c *Classifier) quickAction(in *input) (nlp.QueryType, string) {
	qa, _ := c.lex.QuickAction(in.text)
	return nlp.QueryQuickAction, qa.Action
}

func (c *Classifier) isChecklistCreation(in *input) bool {
	if !c.lex.Has("checklist", in.lower) {
		return false
	}
	return c.lex.Has("creation_verbs", in.lower) || strings.HasPrefix(strings.TrimSpace(in.lower), "checklist")
}

func (c *Classifier) isContractCreation(in *input) bool {
	return c.creationRe.MatchString(in.lower)
}

// contractCreation separates "how do I create a contract" from "create a contract".
func (c *Classifier) contractCreation(in *input) (nlp.QueryType, string) {
	if c.lex.Has("instruction", in.lower) && !c.lex.Has("bot_request", in.lower) {
		return nlp.QueryHelp, ActionContractCreateUsr
	}
	return nlp.QueryHelp, ActionContractCreateBot
}

func (c *Classifier) isCreatedBy(in *input) bool {
	return in.has(nlp.AttrCreatedBy)
}

func (c *Classifier) createdBy(in *input) (nlp.QueryType, string) {
	prefix := ""
	if c.lex.Has("count", in.lower) {
		prefix = "count_"
	}
	if in.ctx.Parts || strings.Contains(in.lower, "loaded by") || strings.Contains(in.lower, "uploaded by") {
		return nlp.QueryParts, prefix + "parts_loaded_by_user"
	}
	return nlp.QueryContracts, prefix + "contracts_created_by_user"
}

func (c *Classifier) isFailedParts(in *input) bool {
	return in.ctx.FailedParts() || (in.ctx.Failed && in.has(nlp.AttrPartNumber))
}

func failedParts(in *input) (nlp.QueryType, string) {
	if in.has(nlp.AttrContractNo) {
		return nlp.QueryFailedParts, "parts_failed_by_contract_number"
	}
	return nlp.QueryFailedParts, "parts_failed_by_filter"
}

func isParts(in *input) bool {
	return in.ctx.Parts || in.hasAny(nlp.AttrInvoicePartNumber, nlp.AttrLoadedCPNumber)
}

func parts(in *input) (nlp.QueryType, string) {
	switch {
	case in.has(nlp.AttrInvoicePartNumber):
		return nlp.QueryParts, "parts_by_part_number"
	case in.has(nlp.AttrLoadedCPNumber):
		return nlp.QueryParts, "parts_by_contract_number"
	default:
		return nlp.QueryParts, "parts_by_filter"
	}
}

// isCustomers wants customer language plus a customer number. When the user
// also asks about contracts the contract rule answers instead.
func isCustomers(in *input) bool {
	return in.ctx.Customer && in.has(nlp.AttrCustomerNumber) && !in.ctx.Contract
}

func isOpportunities(in *input) bool {
	return in.ctx.Opportunity || in.has(nlp.AttrOpportunityNumber)
}

func opportunities(in *input) (nlp.QueryType, string) {
	if in.has(nlp.AttrOpportunityNumber) {
		return nlp.QueryOpportunities, "opportunities_by_number"
	}
	return nlp.QueryOpportunities, "opportunities_by_filter"
}

func isContracts(in *input) bool {
	return in.ctx.Contract || in.has(nlp.AttrAwardNumber)
}

func contracts(in *input) (nlp.QueryType, string) {
	return nlp.QueryContracts, contractAction(in)
}

func contractAction(in *input) string {
	switch {
	case in.has(nlp.AttrAwardNumber):
		return "contracts_by_contractnumber"
	case in.hasAny(nlp.AttrCustomerName, nlp.AttrCustomerNumber):
		return "contracts_by_customer"
	case in.has(nlp.AttrStatus):
		return "contracts_by_status"
	case in.hasAny(nlp.AttrCreateDate, nlp.AttrEffectiveDate, nlp.AttrExpirationDate):
		return "contracts_by_date"
	default:
		return "contracts_by_filter"
	}
}

func (c *Classifier) isHelp(in *input) bool {
	return len(in.entities) == 0 && c.lex.Has("help", in.lower)
}

func (c *Classifier) fallback(in *input) (nlp.QueryType, string) {
	if len(in.entities) > 0 || c.domainPlausible(in.lower) {
		return nlp.QueryContracts, contractAction(in)
	}
	return nlp.QueryAmbiguous, ActionParseError
}

func (c *Classifier) domainPlausible(lower string) bool {
	for _, w := range wordRe.FindAllString(lower, -1) {
		if c.lex.IsDomainPlausible(w) {
			return true
		}
	}
	return false
}
