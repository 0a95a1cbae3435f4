package flow

import (
	"context"
	"fmt"
	"strings"

	"bcct-chatbot-be/pkg/conversation/response"
	"bcct-chatbot-be/pkg/lexicon"
	"bcct-chatbot-be/pkg/nlp"
	"bcct-chatbot-be/pkg/nlp/extractor"
	"bcct-chatbot-be/pkg/store"
)

// merge validates the supplied values and stores the good ones. A bad value
// never replaces a value collected earlier.
func (c *Controller) merge(ctx context.Context, flow string, sess *store.ConversationSession, values map[string]string) []nlp.ValidationError {
	var errs []nlp.ValidationError
	for _, def := range c.lex.Fields(flow) {
		raw, supplied := values[def.Name]
		if !supplied {
			continue
		}
		v := extractor.NormalizeFieldValue(def, raw, c.lex.Tokens().FlagTrue)
		stored, reason := extractor.ValidateField(def, v)
		if reason == "" && def.Validator == lexicon.ValidatorAccountNumber {
			var err error
			reason, err = c.checkAccount(ctx, stored)
			if err != nil {
				errs = append(errs, collaboratorError(fmt.Sprintf("I could not verify %s '%s' right now, please send it again.", def.Display, stored)))
				continue
			}
		}
		if reason != "" {
			errs = append(errs, fieldError(def, raw, reason))
			continue
		}
		sess.CollectedData[def.Name] = stored
	}
	return errs
}

func (c *Controller) checkAccount(ctx context.Context, number string) (string, error) {
	exists, err := c.provider.ValidateAccountNumber(ctx, number)
	if err != nil {
		c.logger.Error("FlowController", "Account validation failed", map[string]interface{}{
			"account_number": number,
			"error":          err.Error(),
		})
		return "", err
	}
	if !exists {
		return "was not found in the customer list", nil
	}
	return "", nil
}

func fieldError(def lexicon.FieldDef, value, reason string) nlp.ValidationError {
	return nlp.ValidationError{
		Code:     nlp.CodeFieldValidation,
		Message:  response.FieldInvalid(def.Display, strings.TrimSpace(value), reason),
		Severity: nlp.SeverityBlocker,
	}
}

func collaboratorError(message string) nlp.ValidationError {
	return nlp.ValidationError{Code: nlp.CodeCollaborator, Message: message, Severity: nlp.SeverityError}
}

// missing lists the display names of required fields not collected yet, in
// lexicon order.
func (c *Controller) missing(flow string, sess *store.ConversationSession) []string {
	var out []string
	for _, def := range c.lex.Fields(flow) {
		if _, ok := sess.CollectedData[def.Name]; !ok {
			out = append(out, def.Display)
		}
	}
	return out
}

// failing reports whether any supplied value was rejected this turn.
func failing(errs []nlp.ValidationError) bool {
	for _, e := range errs {
		if e.Code == nlp.CodeFieldValidation || e.Code == nlp.CodeCollaborator {
			return true
		}
	}
	return false
}

// summary renders collected data in lexicon order for a confirmation prompt.
func (c *Controller) summary(flow string, data map[string]string) string {
	var b strings.Builder
	for _, def := range c.lex.Fields(flow) {
		v, ok := data[def.Name]
		if !ok {
			continue
		}
		if v == "" {
			v = "(none)"
		}
		fmt.Fprintf(&b, "- %s: %s\n", def.Display, v)
	}
	return strings.TrimRight(b.String(), "\n")
}

func copyFields(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
