package flow

import (
	"context"
	"errors"
	"fmt"

	"bcct-chatbot-be/pkg/conversation/response"
	"bcct-chatbot-be/pkg/lexicon"
	"bcct-chatbot-be/pkg/nlp"
	"bcct-chatbot-be/pkg/nlp/extractor"
	"bcct-chatbot-be/pkg/store"
)

const (
	flowChecklist      = lexicon.FlowCreateChecklist
	fieldEffective     = "EFFECTIVE_DATE"
	fieldExpiration    = "EXPIRATION_DATE"
	fieldChecklistLink = "AWARD_NUMBER"
)

// ErrNoChecklistTarget means nothing in the message or the session names the
// contract a checklist belongs to.
var ErrNoChecklistTarget = errors.New("no contract to attach the checklist to")

// checklistTarget picks the contract for a standalone checklist request: an
// explicit number, then the last contract created in this session, then the
// only contract the last search returned.
func checklistTarget(sess *store.ConversationSession, entities []nlp.EntityFilter) (string, error) {
	if id, ok := contractNumber(entities); ok {
		return id, nil
	}
	if rec, ok := sess.LatestAudit(); ok {
		return rec.ContractID, nil
	}
	if cache := sess.ContractSearchCache; cache != nil && len(cache.Candidates) == 1 {
		return cache.Candidates[0].Value, nil
	}
	return "", ErrNoChecklistTarget
}

func contractNumber(entities []nlp.EntityFilter) (string, bool) {
	for _, attr := range nlp.ContractNumberAttributes {
		if e, ok := nlp.FindEntity(entities, attr); ok && e.Operation == nlp.OpEquals {
			return e.Value, true
		}
	}
	return "", false
}

// verifyChecklistTarget looks the contract up before any date is asked for,
// so a wrong number is caught while it is the only thing typed.
func (c *Controller) verifyChecklistTarget(ctx context.Context, sess *store.ConversationSession, id string) (nlp.ValidationError, bool) {
	rows, err := c.provider.RunFilteredQuery(ctx, "CONTRACTS", []nlp.EntityFilter{
		{Attribute: nlp.AttrAwardNumber, Operation: nlp.OpEquals, Value: id},
	}, []string{nlp.AttrAwardNumber})
	if err != nil {
		c.logger.Error("FlowController", "Checklist target lookup failed", map[string]interface{}{
			"session_id":   sess.SessionID,
			"award_number": id,
			"error":        err.Error(),
		})
		return collaboratorError(fmt.Sprintf("I could not look up contract %s.", id)), false
	}
	if len(rows) == 0 {
		return nlp.ValidationError{
			Code:     nlp.CodeFieldValidation,
			Message:  fmt.Sprintf("Contract %s was not found.", id),
			Severity: nlp.SeverityBlocker,
		}, false
	}
	return nlp.ValidationError{}, true
}

func (c *Controller) startChecklist(ctx context.Context, sess *store.ConversationSession, text string, entities []nlp.EntityFilter) response.Result {
	target, err := checklistTarget(sess, entities)
	if errors.Is(err, ErrNoChecklistTarget) {
		c.states.TransitionToChecklistTarget(sess)
		return prompt(ActionChecklistTarget, response.MsgChecklistTarget, nil)
	}
	if e, ok := c.verifyChecklistTarget(ctx, sess, target); !ok {
		c.states.TransitionToChecklistTarget(sess)
		return prompt(ActionChecklistTarget, withErrors([]nlp.ValidationError{e}, response.MsgChecklistTarget), []nlp.ValidationError{e})
	}

	prefill := c.fields.ExtractLabeled(flowChecklist, text).Values
	c.states.TransitionToChecklistCollection(sess, target, nil)
	errs := c.merge(ctx, flowChecklist, sess, prefill)
	return c.advanceChecklist(sess, errs)
}

func (c *Controller) answerChecklistPrompt(sess *store.ConversationSession, text string) response.Result {
	tokens := c.lex.Tokens()
	switch {
	case lexicon.IsToken(text, tokens.Affirmative):
		c.states.TransitionToChecklistCollection(sess, sess.ChecklistContract, nil)
		return c.advanceChecklist(sess, nil)
	case lexicon.IsToken(text, tokens.Negative):
		c.states.TransitionToIdle(sess, "checklist declined")
		return flowResult(ActionChecklistSkipped, response.MsgChecklistSkipped)
	default:
		msg := fmt.Sprintf("Would you like to create a checklist for contract %s? %s", sess.ChecklistContract, response.MsgYesNo)
		return prompt(ActionChecklistPrompt, msg, nil)
	}
}

func (c *Controller) chooseChecklistTarget(ctx context.Context, sess *store.ConversationSession, corrected string) response.Result {
	entities, _ := c.extractor.Extract(corrected)
	id, ok := contractNumber(entities)
	if !ok {
		return prompt(ActionChecklistTarget, response.MsgChecklistTarget, []nlp.ValidationError{{
			Code:     nlp.CodeFieldValidation,
			Message:  "That does not look like a 6-digit contract number.",
			Severity: nlp.SeverityBlocker,
		}})
	}
	if e, ok := c.verifyChecklistTarget(ctx, sess, id); !ok {
		return prompt(ActionChecklistTarget, withErrors([]nlp.ValidationError{e}, response.MsgChecklistTarget), []nlp.ValidationError{e})
	}
	c.states.TransitionToChecklistCollection(sess, id, nil)
	return c.advanceChecklist(sess, nil)
}

func (c *Controller) collectChecklist(ctx context.Context, sess *store.ConversationSession, text string) response.Result {
	got := c.fields.Extract(flowChecklist, text, c.missingNames(flowChecklist, sess))
	errs := c.merge(ctx, flowChecklist, sess, got.Values)
	return c.advanceChecklist(sess, errs)
}

func (c *Controller) advanceChecklist(sess *store.ConversationSession, errs []nlp.ValidationError) response.Result {
	missing := c.missing(flowChecklist, sess)
	if len(missing) == 0 && !failing(errs) {
		if e, bad := c.checkDateOrder(sess); bad {
			errs = append(errs, e)
			missing = c.missing(flowChecklist, sess)
		}
	}
	if len(missing) == 0 && !failing(errs) {
		c.states.TransitionToChecklistConfirmation(sess)
		return prompt(ActionChecklistConfirm, c.confirmChecklistMessage(sess), errs)
	}
	what := fmt.Sprintf("save the checklist for contract %s", sess.ChecklistContract)
	if len(missing) == 0 {
		return prompt(ActionChecklistCollect, withErrors(errs, "Please send the corrected value."), errs)
	}
	return prompt(ActionChecklistCollect, withErrors(errs, response.PromptFields(what, missing)), errs)
}

// checkDateOrder rejects an expiration date that is not after the effective
// date. The expiration date is dropped so it is asked for again.
func (c *Controller) checkDateOrder(sess *store.ConversationSession) (nlp.ValidationError, bool) {
	eff, okEff := extractor.ParseDate(sess.CollectedData[fieldEffective])
	exp, okExp := extractor.ParseDate(sess.CollectedData[fieldExpiration])
	if !okEff || !okExp || exp.After(eff) {
		return nlp.ValidationError{}, false
	}
	def, _ := c.lex.Field(flowChecklist, fieldExpiration)
	bad := sess.CollectedData[fieldExpiration]
	delete(sess.CollectedData, fieldExpiration)
	return fieldError(def, bad, "must be after the Effective Date"), true
}

func (c *Controller) confirmChecklistMessage(sess *store.ConversationSession) string {
	return response.ConfirmChecklist(sess.ChecklistContract, c.summary(flowChecklist, sess.CollectedData))
}

func (c *Controller) confirmChecklist(ctx context.Context, sess *store.ConversationSession, text string) response.Result {
	tokens := c.lex.Tokens()
	switch {
	case lexicon.IsToken(text, tokens.Affirmative):
		return c.createChecklist(ctx, sess)
	case lexicon.IsToken(text, tokens.Negative):
		target := sess.ChecklistContract
		c.states.TransitionToChecklistCollection(sess, target, nil)
		res := c.advanceChecklist(sess, nil)
		res.Message = response.ChecklistFieldsReset(target) + "\n" + res.Message
		return res
	default:
		return prompt(ActionChecklistConfirm, c.confirmChecklistMessage(sess), nil)
	}
}

func (c *Controller) createChecklist(ctx context.Context, sess *store.ConversationSession) response.Result {
	target := sess.ChecklistContract
	fields := copyFields(sess.CollectedData)
	fields[fieldChecklistLink] = target
	fields[fieldCreatedBy] = sess.UserID

	// Failures keep the confirmation step and the collected dates.
	res, err := c.provider.CreateChecklist(ctx, fields)
	if err != nil || !res.Success {
		detail := res.Message
		if err != nil {
			c.logger.Error("FlowController", "Checklist creation failed", map[string]interface{}{
				"session_id":   sess.SessionID,
				"award_number": target,
				"error":        err.Error(),
			})
			detail = ""
		}
		out := prompt(ActionChecklistFailed, response.CreateFailed("save the checklist", detail), []nlp.ValidationError{
			collaboratorError("The checklist could not be saved."),
		})
		out.Failed = true
		return out
	}

	if rec, ok := sess.AuditData[target]; ok {
		rec.Checklist = true
		sess.AuditData[target] = rec
	}
	c.publish(ctx, EventChecklistCreated, sess, target, fields)
	c.states.TransitionToIdle(sess, "checklist created")

	out := flowResult(ActionChecklistCreated, res.Message)
	out.Rows = []map[string]interface{}{{nlp.AttrAwardNumber: target}}
	return out
}
