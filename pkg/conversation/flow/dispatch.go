package flow

import (
	"context"
	"fmt"
	"time"

	"bcct-chatbot-be/pkg/conversation/response"
	"bcct-chatbot-be/pkg/nlp"
	"bcct-chatbot-be/pkg/nlp/classifier"
	"bcct-chatbot-be/pkg/nlp/extractor"
	"bcct-chatbot-be/pkg/store"
)

// query is a classified request on its way to the data provider.
type query struct {
	table    string
	cls      nlp.QueryClassification
	entities []nlp.EntityFilter
	issues   []string
	errs     []nlp.ValidationError
}

func (q query) result() response.Result {
	return response.Result{
		Classification: q.cls,
		Entities:       q.entities,
		Issues:         q.issues,
		Errors:         q.errs,
	}
}

func (q query) failed(message string, err nlp.ValidationError) response.Result {
	res := q.result()
	res.Errors = append(res.Errors, err)
	res.Message = message
	res.Failed = true
	return res
}

// cannedQuery is the fixed query behind a quick action.
type cannedQuery struct {
	display []string
	filters func(now time.Time) []nlp.EntityFilter
}

var cannedQueries = map[string]cannedQuery{
	"QUICK_ACTION_RECENT_CONTRACTS": {
		display: []string{"AWARD_NUMBER", "CONTRACT_NAME", "CUSTOMER_NAME", "CREATE_DATE"},
		filters: func(now time.Time) []nlp.EntityFilter {
			return []nlp.EntityFilter{{
				Attribute: nlp.AttrCreateDate,
				Operation: nlp.OpGreaterEqual,
				Value:     now.AddDate(0, 0, -1).Format(extractor.ISODate),
				Source:    nlp.SourceDefault,
			}}
		},
	},
	"QUICK_ACTION_PARTS_COUNT": {
		display: []string{nlp.DisplayCount},
	},
	"QUICK_ACTION_FAILED_CONTRACTS": {
		display: []string{nlp.AttrContractNo, nlp.DisplayCount},
	},
	"QUICK_ACTION_EXPIRING_SOON": {
		display: []string{"AWARD_NUMBER", "CONTRACT_NAME", "CUSTOMER_NAME", "EXPIRATION_DATE"},
		filters: func(now time.Time) []nlp.EntityFilter {
			return []nlp.EntityFilter{{
				Attribute: nlp.AttrExpirationDate,
				Operation: nlp.OpBetween,
				Value:     now.Format(extractor.ISODate) + nlp.BetweenSeparator + now.AddDate(0, 0, 30).Format(extractor.ISODate),
				Source:    nlp.SourceDefault,
			}}
		},
	},
	"QUICK_ACTION_AWARD_REPS": {
		display: []string{"AWARD_REP", nlp.DisplayCount},
	},
}

const (
	quickActionHelp           = "QUICK_ACTION_HELP"
	quickActionCreateContract = "QUICK_ACTION_CREATE_CONTRACT"
)

// query classifies a fresh request and routes it.
func (c *Controller) query(ctx context.Context, sess *store.ConversationSession, input nlp.NormalizedInput, text string) response.Result {
	entities, issues := c.extractor.Extract(input.Corrected)
	cls, errs := c.classifier.Classify(input.Corrected, entities)
	for _, issue := range issues {
		errs = append(errs, nlp.ValidationError{Code: nlp.CodeParseFormat, Message: issue, Severity: nlp.SeverityError})
	}
	cls.Confidence = classifier.Score(errs, entities)

	q := query{table: string(cls.QueryType), cls: cls, entities: entities, issues: issues, errs: errs}
	if nlp.HasBlocker(errs) {
		res := q.result()
		res.Message = response.MsgMissingIdentifiers
		return res
	}

	switch cls.QueryType {
	case nlp.QueryHelp:
		return c.help(ctx, sess, q, text)
	case nlp.QueryQuickAction:
		return c.quickAction(ctx, sess, q)
	}
	if _, ok := nlp.FindEntity(entities, nlp.AttrCreatedBy); ok {
		return c.lookupUser(ctx, sess, q)
	}
	return c.run(ctx, sess, q)
}

func (c *Controller) help(ctx context.Context, sess *store.ConversationSession, q query, text string) response.Result {
	var res response.Result
	switch q.cls.ActionType {
	case classifier.ActionContractCreateBot:
		res = c.startContract(ctx, sess, text, q.entities)
	case classifier.ActionChecklistCreate:
		res = c.startChecklist(ctx, sess, text, q.entities)
	case classifier.ActionContractCreateUsr:
		res.Message = c.lex.Help().CreateContractSteps
	default:
		res.Message = c.lex.Help().General
	}
	// The opening turn of a flow reports how the request was understood.
	res.Classification = q.cls
	res.Entities = q.entities
	res.Issues = q.issues
	res.Errors = append(q.errs, res.Errors...)
	return res
}

func (c *Controller) quickAction(ctx context.Context, sess *store.ConversationSession, q query) response.Result {
	switch q.cls.ActionType {
	case quickActionHelp:
		res := q.result()
		res.Message = c.lex.Help().General
		return res
	case quickActionCreateContract:
		res := q.result()
		res.Message = c.lex.Help().CreateContractSteps
		return res
	}

	canned, ok := cannedQueries[q.cls.ActionType]
	if !ok {
		return q.failed(response.MsgQueryFailed, nlp.ValidationError{
			Code:     nlp.CodeProcessing,
			Message:  fmt.Sprintf("Quick action %s has no query.", q.cls.ActionType),
			Severity: nlp.SeverityError,
		})
	}
	for _, qa := range c.lex.QuickActions() {
		if qa.Action == q.cls.ActionType {
			q.table = qa.Table
		}
	}
	q.cls.DisplayEntities = canned.display
	q.entities = nil
	if canned.filters != nil {
		q.entities = canned.filters(c.now())
	}
	return c.run(ctx, sess, q)
}

// run executes the query and remembers the contracts it returned, so a later
// "create checklist" can refer to a single result.
func (c *Controller) run(ctx context.Context, sess *store.ConversationSession, q query) response.Result {
	rows, err := c.provider.RunFilteredQuery(ctx, q.table, q.entities, q.cls.DisplayEntities)
	if err != nil {
		c.logger.Error("FlowController", "Query failed", map[string]interface{}{
			"table":  q.table,
			"action": q.cls.ActionType,
			"error":  err.Error(),
		})
		return q.failed(response.MsgQueryFailed, collaboratorError(fmt.Sprintf("The %s search could not be completed.", q.table)))
	}

	if q.table == string(nlp.QueryContracts) {
		rememberContracts(sess, rows, c.now())
	}

	res := q.result()
	res.Rows = rows
	res.Message = response.QueryResult(nlp.QueryType(q.table), q.cls.DisplayEntities, len(rows))
	return res
}

func rememberContracts(sess *store.ConversationSession, rows []map[string]interface{}, now time.Time) {
	var ids []string
	for _, row := range rows {
		if v, ok := row[nlp.AttrAwardNumber]; ok {
			ids = append(ids, fmt.Sprint(v))
		}
	}
	if len(ids) > 0 {
		sess.ContractSearchCache = store.NewCandidateCache(nlp.AttrAwardNumber, ids, now)
	}
}
