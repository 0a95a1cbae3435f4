package flow

import (
	"context"
	"strings"
	"time"

	"bcct-chatbot-be/internal/pkg/logger"
	"bcct-chatbot-be/internal/repository/contract"
	"bcct-chatbot-be/pkg/conversation/response"
	"bcct-chatbot-be/pkg/conversation/state"
	"bcct-chatbot-be/pkg/lexicon"
	"bcct-chatbot-be/pkg/nlp"
	"bcct-chatbot-be/pkg/nlp/classifier"
	"bcct-chatbot-be/pkg/nlp/extractor"
	"bcct-chatbot-be/pkg/nlp/normalizer"
	"bcct-chatbot-be/pkg/store"
)

// Action types of turns answered by a flow rather than the classifier.
const (
	ActionCancelled         = "flow_cancelled"
	ActionContractCollect   = "contract_creation_collect"
	ActionContractConfirm   = "contract_creation_confirm"
	ActionContractCreated   = "contract_created"
	ActionContractDiscarded = "contract_discarded"
	ActionChecklistPrompt   = "checklist_prompt"
	ActionChecklistTarget   = "checklist_target"
	ActionChecklistCollect  = "checklist_collect"
	ActionChecklistConfirm  = "checklist_confirm"
	ActionChecklistCreated  = "checklist_created"
	ActionChecklistFailed   = "checklist_failed"
	ActionChecklistSkipped  = "checklist_skipped"
)

// Controller runs one user turn against a session: active flows first, then
// disambiguation answers, then fresh queries.
type Controller struct {
	lex        *lexicon.Lexicon
	normalizer *normalizer.Normalizer
	extractor  *extractor.Extractor
	fields     *extractor.FieldExtractor
	classifier *classifier.Classifier
	states     *state.Manager
	provider   contract.DataProvider
	audit      AuditPublisher
	logger     logger.ILogger
	now        func() time.Time
}

type Option func(*Controller)

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(c *Controller) { c.audit = p }
}

func NewController(lex *lexicon.Lexicon, provider contract.DataProvider, logger logger.ILogger, opts ...Option) *Controller {
	c := &Controller{
		lex:      lex,
		provider: provider,
		logger:   logger,
		now:      time.Now,
		audit:    nopPublisher{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.normalizer = normalizer.New(lex)
	c.extractor = extractor.New(lex, extractor.WithClock(c.now))
	c.fields = extractor.NewFieldExtractor(lex)
	c.classifier = classifier.New(lex)
	c.states = state.NewManager(logger)
	return c
}

// Handle processes raw user input. The caller holds the session lock.
func (c *Controller) Handle(ctx context.Context, sess *store.ConversationSession, raw string) response.Result {
	input := c.normalizer.Normalize(raw)
	text := strings.TrimSpace(raw)
	tokens := c.lex.Tokens()

	if lexicon.IsToken(text, tokens.Cancel) {
		c.states.TransitionToIdle(sess, "user cancelled")
		return c.finish(sess, input, nil, flowResult(ActionCancelled, response.MsgCancelled))
	}

	repairs := c.states.Sanitize(sess)

	if sess.CurrentFlowType == store.FlowCreateChecklist && lexicon.IsToken(text, tokens.ChecklistCancel) {
		c.states.TransitionToIdle(sess, "checklist skipped")
		return c.finish(sess, input, repairs, flowResult(ActionChecklistSkipped, response.MsgChecklistSkipped))
	}

	var res response.Result
	switch {
	case sess.WaitingForUserInput:
		res = c.resolveSelection(ctx, sess, text)
	case sess.Step == store.StepCollectingContractFields:
		res = c.collectContract(ctx, sess, text)
	case sess.Step == store.StepAwaitingContractConfirmation:
		res = c.confirmContract(ctx, sess, text)
	case sess.Step == store.StepAwaitingChecklistPrompt:
		res = c.answerChecklistPrompt(sess, text)
	case sess.Step == store.StepAwaitingChecklistTarget:
		res = c.chooseChecklistTarget(ctx, sess, input.Corrected)
	case sess.Step == store.StepCollectingChecklistFields:
		res = c.collectChecklist(ctx, sess, text)
	case sess.Step == store.StepAwaitingChecklistConfirmation:
		res = c.confirmChecklist(ctx, sess, text)
	default:
		res = c.query(ctx, sess, input, text)
	}
	return c.finish(sess, input, repairs, res)
}

func (c *Controller) finish(sess *store.ConversationSession, input nlp.NormalizedInput, repairs []nlp.ValidationError, res response.Result) response.Result {
	res.SessionID = sess.SessionID
	res.Turn = sess.TurnCount
	res.Input = input
	if len(repairs) > 0 {
		res.Errors = append(repairs, res.Errors...)
	}
	if res.Classification.DisplayEntities == nil {
		res.Classification.DisplayEntities = []string{}
	}
	return res
}

func flowResult(action, message string) response.Result {
	return response.Result{
		Classification: nlp.QueryClassification{
			QueryType:       nlp.QueryHelp,
			ActionType:      action,
			Confidence:      1,
			DisplayEntities: []string{},
		},
		Message: message,
	}
}

// prompt is a flow result that expects the next turn to answer it.
func prompt(action, message string, errs []nlp.ValidationError) response.Result {
	res := flowResult(action, message)
	res.Errors = errs
	res.ActionRequired = true
	return res
}

// withErrors prefixes the message with the user-facing text of errs.
func withErrors(errs []nlp.ValidationError, message string) string {
	if len(errs) == 0 {
		return message
	}
	lines := make([]string, 0, len(errs)+1)
	for _, e := range errs {
		lines = append(lines, e.Message)
	}
	return strings.Join(append(lines, message), "\n")
}
