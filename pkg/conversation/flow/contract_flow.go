package flow

import (
	"context"
	"errors"

	"bcct-chatbot-be/internal/repository/contract"
	"bcct-chatbot-be/pkg/conversation/response"
	"bcct-chatbot-be/pkg/lexicon"
	"bcct-chatbot-be/pkg/nlp"
	"bcct-chatbot-be/pkg/store"
)

const (
	flowContract   = lexicon.FlowContractCreation
	fieldAccount   = "ACCOUNT_NUMBER"
	fieldCreatedBy = "CREATED_BY"
)

// startContract opens the contract flow. Only labeled fields and a bare
// customer number are taken from the opening message.
func (c *Controller) startContract(ctx context.Context, sess *store.ConversationSession, text string, entities []nlp.EntityFilter) response.Result {
	prefill := c.fields.ExtractLabeled(flowContract, text).Values
	if _, ok := prefill[fieldAccount]; !ok {
		if e, found := nlp.FindEntity(entities, nlp.AttrCustomerNumber); found {
			prefill[fieldAccount] = e.Value
		}
	}

	c.states.TransitionToContractCollection(sess, nil)
	errs := c.merge(ctx, flowContract, sess, prefill)
	return c.advanceContract(sess, errs)
}

func (c *Controller) collectContract(ctx context.Context, sess *store.ConversationSession, text string) response.Result {
	missing := c.missingNames(flowContract, sess)
	got := c.fields.Extract(flowContract, text, missing)
	errs := c.merge(ctx, flowContract, sess, got.Values)
	return c.advanceContract(sess, errs)
}

// advanceContract moves to confirmation once every field is present and the
// turn raised no field errors; otherwise it asks for what is missing.
func (c *Controller) advanceContract(sess *store.ConversationSession, errs []nlp.ValidationError) response.Result {
	missing := c.missing(flowContract, sess)
	if len(missing) == 0 && !failing(errs) {
		c.states.TransitionToContractConfirmation(sess)
		return prompt(ActionContractConfirm, response.ConfirmContract(c.summary(flowContract, sess.CollectedData)), errs)
	}
	if len(missing) == 0 {
		return prompt(ActionContractCollect, withErrors(errs, "Please send the corrected value."), errs)
	}
	return prompt(ActionContractCollect, withErrors(errs, response.PromptFields("create the contract", missing)), errs)
}

func (c *Controller) confirmContract(ctx context.Context, sess *store.ConversationSession, text string) response.Result {
	tokens := c.lex.Tokens()
	switch {
	case lexicon.IsToken(text, tokens.Affirmative):
		return c.createContract(ctx, sess)
	case lexicon.IsToken(text, tokens.Negative):
		c.states.TransitionToIdle(sess, "contract declined")
		return flowResult(ActionContractDiscarded, response.MsgContractDiscarded)
	default:
		return prompt(ActionContractConfirm, response.ConfirmContract(c.summary(flowContract, sess.CollectedData)), nil)
	}
}

func (c *Controller) createContract(ctx context.Context, sess *store.ConversationSession) response.Result {
	fields := copyFields(sess.CollectedData)
	fields[fieldCreatedBy] = sess.UserID

	res, err := c.provider.CreateContract(ctx, fields)
	if errors.Is(err, contract.ErrAccountNotFound) {
		def, _ := c.lex.Field(flowContract, fieldAccount)
		errs := []nlp.ValidationError{fieldError(def, sess.CollectedData[fieldAccount], "was not found in the customer list")}
		keep := copyFields(sess.CollectedData)
		delete(keep, fieldAccount)
		c.states.TransitionToContractCollection(sess, keep)
		return c.advanceContract(sess, errs)
	}
	if err != nil || !res.Success {
		detail := res.Message
		if err != nil {
			c.logger.Error("FlowController", "Contract creation failed", map[string]interface{}{
				"session_id": sess.SessionID,
				"error":      err.Error(),
			})
			detail = ""
		}
		out := prompt(ActionContractConfirm, response.CreateFailed("create the contract", detail), []nlp.ValidationError{
			collaboratorError("The contract could not be created."),
		})
		out.Failed = true
		return out
	}

	id := res.Identifier
	sess.AuditData[id] = store.AuditRecord{
		ContractID: id,
		Fields:     fields,
		CreatedBy:  sess.UserID,
		CreatedAt:  c.now(),
	}
	c.publish(ctx, EventContractCreated, sess, id, fields)
	c.logger.Info("FlowController", "Contract created", map[string]interface{}{
		"session_id":   sess.SessionID,
		"award_number": id,
	})

	c.states.TransitionToChecklistPrompt(sess, id)
	out := prompt(ActionContractCreated, response.ContractCreated(id), nil)
	out.Rows = []map[string]interface{}{{nlp.AttrAwardNumber: id}}
	return out
}

// missingNames returns canonical names of fields still missing, used as the
// positional order for unlabeled input.
func (c *Controller) missingNames(flow string, sess *store.ConversationSession) []string {
	var out []string
	for _, def := range c.lex.Fields(flow) {
		if _, ok := sess.CollectedData[def.Name]; !ok {
			out = append(out, def.Name)
		}
	}
	return out
}
