package response

import "bcct-chatbot-be/pkg/nlp"

// Result is what one turn produced, before it is shaped for the caller.
type Result struct {
	SessionID string
	Turn      int

	Input          nlp.NormalizedInput
	Classification nlp.QueryClassification
	Entities       []nlp.EntityFilter
	Issues         []string
	Errors         []nlp.ValidationError

	Message string
	Rows    []map[string]interface{}

	// Failed marks a turn that did not do what the user asked even though
	// no blocker was raised, e.g. a collaborator error.
	Failed         bool
	ActionRequired bool
}

func (r Result) Succeeded() bool {
	return !r.Failed && !nlp.HasBlocker(r.Errors)
}
