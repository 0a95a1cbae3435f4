package flow

import (
	"context"

	"bcct-chatbot-be/pkg/conversation/response"
	"bcct-chatbot-be/pkg/nlp"
	"bcct-chatbot-be/pkg/nlp/classifier"
	"bcct-chatbot-be/pkg/store"
)

// lookupUser resolves a partial CREATED_BY name before the query runs. More
// than one match parks the query until the user picks a candidate.
func (c *Controller) lookupUser(ctx context.Context, sess *store.ConversationSession, q query) response.Result {
	name, _ := nlp.FindEntity(q.entities, nlp.AttrCreatedBy)

	names, err := c.provider.FindUsersByNamePattern(ctx, name.Value)
	if err != nil {
		c.logger.Error("FlowController", "User lookup failed", map[string]interface{}{
			"pattern": name.Value,
			"error":   err.Error(),
		})
		return q.failed(response.MsgQueryFailed, collaboratorError("The user directory is not available."))
	}

	switch len(names) {
	case 0:
		res := q.result()
		res.Message = response.NoUserMatch(name.Value)
		return res
	case 1:
		q.entities = withCreatedBy(q.entities, names[0])
		return c.run(ctx, sess, q)
	}

	cache := store.NewCandidateCache(nlp.AttrCreatedBy, names, c.now())
	c.states.TransitionToDisambiguation(sess, cache, &store.PendingQuery{
		Classification: q.cls,
		Entities:       q.entities,
		Issues:         q.issues,
	})

	res := q.result()
	res.Classification = nlp.QueryClassification{
		QueryType:       nlp.QueryAmbiguous,
		ActionType:      classifier.ActionDisambiguation,
		Confidence:      q.cls.Confidence,
		DisplayEntities: []string{},
	}
	res.Message = response.ChooseCandidate(name.Value, names)
	res.Rows = candidateRows(cache)
	res.ActionRequired = true
	return res
}

// resolveSelection answers a pending candidate list. Anything other than a
// listed index or an exact name keeps the list and asks again.
func (c *Controller) resolveSelection(ctx context.Context, sess *store.ConversationSession, text string) response.Result {
	cache := sess.UserSearchCache
	pending := sess.PendingQuery

	cand, ok := cache.Select(text)
	if !ok {
		res := response.Result{
			Classification: nlp.QueryClassification{
				QueryType:       nlp.QueryAmbiguous,
				ActionType:      classifier.ActionDisambiguation,
				Confidence:      1,
				DisplayEntities: []string{},
			},
			Errors: []nlp.ValidationError{{
				Code:     nlp.CodeInvalidSelection,
				Message:  "That reply does not match any of the listed users.",
				Severity: nlp.SeverityBlocker,
			}},
			Message:        response.InvalidSelection(text, cache.Values()),
			Rows:           candidateRows(cache),
			ActionRequired: true,
		}
		if pending != nil {
			res.Entities = pending.Entities
		}
		return res
	}

	c.states.ClearDisambiguation(sess)
	c.logger.Debug("FlowController", "Candidate selected", map[string]interface{}{
		"session_id": sess.SessionID,
		"value":      cand.Value,
	})
	if pending == nil {
		return flowResult(classifier.ActionDisambiguation, "Selected "+cand.Value+".")
	}
	return c.run(ctx, sess, query{
		table:    string(pending.Classification.QueryType),
		cls:      pending.Classification,
		entities: withCreatedBy(pending.Entities, cand.Value),
		issues:   pending.Issues,
	})
}

// withCreatedBy pins the CREATED_BY filter to an exact user name.
func withCreatedBy(entities []nlp.EntityFilter, name string) []nlp.EntityFilter {
	out := make([]nlp.EntityFilter, 0, len(entities))
	for _, e := range entities {
		if e.Attribute == nlp.AttrCreatedBy {
			e.Operation = nlp.OpEquals
			e.Value = name
			e.Source = nlp.SourceUserInput
		}
		out = append(out, e)
	}
	return out
}

func candidateRows(cache *store.CandidateCache) []map[string]interface{} {
	rows := make([]map[string]interface{}, 0, len(cache.Candidates))
	for _, cand := range cache.Candidates {
		rows = append(rows, map[string]interface{}{
			"OPTION":        cand.DisplayOrder,
			cache.Attribute: cand.Value,
		})
	}
	return rows
}
