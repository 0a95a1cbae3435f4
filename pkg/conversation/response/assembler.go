package response

import (
	"strings"
	"time"

	"bcct-chatbot-be/internal/dto"
	"bcct-chatbot-be/pkg/nlp"
)

// Assembler shapes a turn Result into the response envelope.
type Assembler struct {
	now func() time.Time
}

func NewAssembler(now func() time.Time) *Assembler {
	if now == nil {
		now = time.Now
	}
	return &Assembler{now: now}
}

func (a *Assembler) Build(r Result, started time.Time) *dto.ChatbotResponse {
	resp := &dto.ChatbotResponse{
		IsSuccess: r.Succeeded(),
		Message:   r.Message,
		Data:      r.Rows,
		Metadata: dto.ResponseMetadata{
			QueryType:        string(r.Classification.QueryType),
			ActionType:       r.Classification.ActionType,
			ProcessingTimeMs: a.now().Sub(started).Milliseconds(),
			Confidence:       r.Classification.Confidence,
			SessionId:        r.SessionID,
			Turn:             r.Turn,
		},
		InputTracking: dto.InputTracking{
			OriginalInput:        r.Input.Original,
			CorrectedInput:       r.Input.Corrected,
			CorrectionConfidence: r.Input.Confidence,
			Corrections:          r.Input.Corrections,
		},
		Entities:           r.Entities,
		DisplayEntities:    r.Classification.DisplayEntities,
		Errors:             r.Errors,
		Issues:             r.Issues,
		UserActionRequired: r.ActionRequired,
	}

	if resp.Data == nil {
		resp.Data = []map[string]interface{}{}
	}
	if resp.Entities == nil {
		resp.Entities = []nlp.EntityFilter{}
	}
	if resp.DisplayEntities == nil {
		resp.DisplayEntities = []string{}
	}
	if resp.Errors == nil {
		resp.Errors = []nlp.ValidationError{}
	}
	if resp.Message == "" {
		resp.Message = fallbackMessage(r.Errors)
	}
	return resp
}

// Failure is the response for a turn that could not be processed at all.
func (a *Assembler) Failure(sessionID, raw string, started time.Time) *dto.ChatbotResponse {
	return a.Build(Result{
		SessionID: sessionID,
		Input:     nlp.NormalizedInput{Original: raw, Corrected: raw},
		Classification: nlp.QueryClassification{
			QueryType:       nlp.QueryAmbiguous,
			ActionType:      nlp.CodeProcessing,
			DisplayEntities: []string{},
		},
		Errors: []nlp.ValidationError{{
			Code:     nlp.CodeProcessing,
			Message:  MsgProcessingError,
			Severity: nlp.SeverityBlocker,
		}},
		Message: MsgProcessingError,
		Failed:  true,
	}, started)
}

func fallbackMessage(errs []nlp.ValidationError) string {
	if len(errs) == 0 {
		return "Done."
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, " ")
}
