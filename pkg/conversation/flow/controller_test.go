package flow

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"bcct-chatbot-be/internal/pkg/logger"
	"bcct-chatbot-be/internal/repository/contract"
	"bcct-chatbot-be/internal/repository/memory"
	"bcct-chatbot-be/pkg/conversation/response"
	"bcct-chatbot-be/pkg/lexicon"
	"bcct-chatbot-be/pkg/nlp"
	"bcct-chatbot-be/pkg/nlp/classifier"
	"bcct-chatbot-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return testNow }

type recordingPublisher struct {
	events []AuditEvent
}

func (p *recordingPublisher) PublishAudit(_ context.Context, ev AuditEvent) error {
	p.events = append(p.events, ev)
	return nil
}

// orderedUsers returns a fixed candidate list in a fixed order.
type orderedUsers struct {
	*memory.ContractDataProvider
	users []string
}

func (p orderedUsers) FindUsersByNamePattern(context.Context, string) ([]string, error) {
	return p.users, nil
}

type brokenCreate struct {
	*memory.ContractDataProvider
}

func (brokenCreate) CreateContract(context.Context, map[string]string) (contract.CreateResult, error) {
	return contract.CreateResult{}, errors.New("connection reset")
}

type rejectedChecklist struct {
	*memory.ContractDataProvider
}

func (rejectedChecklist) CreateChecklist(context.Context, map[string]string) (contract.CreateResult, error) {
	return contract.CreateResult{Success: false, Message: "Checklist storage is read-only."}, nil
}

type harness struct {
	ctrl  *Controller
	sess  *store.ConversationSession
	data  *memory.ContractDataProvider
	audit *recordingPublisher
}

func newHarness(t *testing.T, wrap func(*memory.ContractDataProvider) contract.DataProvider) *harness {
	t.Helper()
	lex := lexicon.MustDefault()
	data := memory.NewSeededContractDataProvider(lex, clock)
	var provider contract.DataProvider = data
	if wrap != nil {
		provider = wrap(data)
	}
	audit := &recordingPublisher{}
	return &harness{
		ctrl:  NewController(lex, provider, logger.NewNopLogger(), WithClock(clock), WithAuditPublisher(audit)),
		sess:  store.NewConversationSession("s1", "tester", testNow),
		data:  data,
		audit: audit,
	}
}

func (h *harness) say(text string) response.Result {
	h.sess.TurnCount++
	return h.ctrl.Handle(context.Background(), h.sess, text)
}

func codes(errs []nlp.ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func assertIdle(t *testing.T, sess *store.ConversationSession) {
	t.Helper()
	assert.Equal(t, store.FlowNone, sess.CurrentFlowType)
	assert.Equal(t, store.StepIdle, sess.Step)
	assert.False(t, sess.WaitingForUserInput)
	assert.Empty(t, sess.CollectedData)
	assert.Empty(t, sess.Context)
}

const fullContract = "account number: 1234567, contract name: ACME Supply, title: Annual Award, " +
	"description: Annual supply, comments: none, price list: no"

const fullChecklist = "date of signature: 06/01/25, effective date: 07/01/25, expiration date: 06/30/26, " +
	"flow down date: 07/15/25, price expiration date: 12/31/25"

func TestCancelIsIdempotent(t *testing.T) {
	setups := map[string][]string{
		"idle":                   nil,
		"collecting contract":    {"create contract"},
		"confirming contract":    {"create contract " + fullContract},
		"checklist prompt":       {"create contract " + fullContract, "yes"},
		"collecting checklist":   {"create contract " + fullContract, "yes", "yes"},
		"checklist target":       {"create checklist"},
		"waiting for user input": {"contracts created by alice"},
	}
	for name, turns := range setups {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, func(p *memory.ContractDataProvider) contract.DataProvider {
				return orderedUsers{p, []string{"Alice Smith", "Alice Jones"}}
			})
			for _, turn := range turns {
				h.say(turn)
			}

			first := h.say("cancel")
			assertIdle(t, h.sess)
			assert.Empty(t, first.Errors)
			assert.Equal(t, ActionCancelled, first.Classification.ActionType)

			second := h.say("  CANCEL ")
			assertIdle(t, h.sess)
			assert.Empty(t, second.Errors)
			assert.Equal(t, first.Message, second.Message)
		})
	}
}

func TestBreakAndTerminateCancel(t *testing.T) {
	for _, word := range []string{"break", "Terminate"} {
		h := newHarness(t, nil)
		h.say("create contract")
		h.say(word)
		assertIdle(t, h.sess)
	}
}

func TestContractFieldsAcrossTurns(t *testing.T) {
	multi := newHarness(t, nil)
	var confirmations []int
	turns := []string{
		"create contract",
		"account number: 1234567",
		"contract name: ACME Supply, title: Annual Award",
		"description: Annual supply, comments: none, price list: no",
	}
	for i, turn := range turns {
		res := multi.say(turn)
		assert.True(t, res.ActionRequired)
		if strings.Contains(res.Message, "Shall I create it?") {
			confirmations = append(confirmations, i)
		}
	}
	assert.Equal(t, []int{len(turns) - 1}, confirmations)
	assert.Equal(t, store.StepAwaitingContractConfirmation, multi.sess.Step)

	single := newHarness(t, nil)
	res := single.say("create contract " + fullContract)
	assert.Contains(t, res.Message, "Shall I create it?")
	assert.Equal(t, store.StepAwaitingContractConfirmation, single.sess.Step)

	assert.Equal(t, single.sess.CollectedData, multi.sess.CollectedData)
	assert.Equal(t, map[string]string{
		"ACCOUNT_NUMBER": "1234567",
		"CONTRACT_NAME":  "ACME Supply",
		"TITLE":          "Annual Award",
		"DESCRIPTION":    "Annual supply",
		"COMMENTS":       "",
		"IS_PRICELIST":   "NO",
	}, multi.sess.CollectedData)
}

func TestConfirmationTokensAreExact(t *testing.T) {
	h := newHarness(t, nil)
	h.say("create contract " + fullContract)
	collected := map[string]string{}
	for k, v := range h.sess.CollectedData {
		collected[k] = v
	}

	for _, reply := range []string{"nobody", "yes please", "okay then", "noo"} {
		res := h.say(reply)
		assert.Equal(t, store.StepAwaitingContractConfirmation, h.sess.Step, reply)
		assert.Equal(t, collected, h.sess.CollectedData, reply)
		assert.Contains(t, res.Message, "Shall I create it?", reply)
	}

	res := h.say(" No ")
	assert.Equal(t, ActionContractDiscarded, res.Classification.ActionType)
	assertIdle(t, h.sess)
	assert.Empty(t, h.audit.events)
}

func TestFieldValidationKeepsGoodFields(t *testing.T) {
	h := newHarness(t, nil)
	h.say("create contract")

	res := h.say("account number: 12, contract name: ACME Supply")
	require.Len(t, res.Errors, 1)
	assert.Equal(t, nlp.CodeFieldValidation, res.Errors[0].Code)
	assert.True(t, res.Errors[0].IsBlocker())
	assert.Contains(t, res.Errors[0].Message, "Customer Number '12'")
	assert.False(t, res.Succeeded())
	assert.Equal(t, store.StepCollectingContractFields, h.sess.Step)
	assert.Equal(t, map[string]string{"CONTRACT_NAME": "ACME Supply"}, h.sess.CollectedData)

	res = h.say("account number: 9999999")
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Message, "not found")
	assert.NotContains(t, h.sess.CollectedData, "ACCOUNT_NUMBER")

	res = h.say("1234567")
	assert.Empty(t, res.Errors)
	assert.Equal(t, "1234567", h.sess.CollectedData["ACCOUNT_NUMBER"])
}

func TestBadValueDoesNotReplaceGoodValue(t *testing.T) {
	h := newHarness(t, nil)
	h.say("create contract " + fullContract)
	require.Equal(t, store.StepAwaitingContractConfirmation, h.sess.Step)

	h.say("cancel")
	h.say("create contract account number: 1234567")
	res := h.say("account number: abc")
	assert.True(t, nlp.HasBlocker(res.Errors))
	assert.Equal(t, "1234567", h.sess.CollectedData["ACCOUNT_NUMBER"])
}

func TestContractAndChecklistEndToEnd(t *testing.T) {
	h := newHarness(t, nil)
	h.say("create contract " + fullContract)

	res := h.say("yes")
	assert.Equal(t, ActionContractCreated, res.Classification.ActionType)
	assert.Equal(t, []map[string]interface{}{{"AWARD_NUMBER": "200001"}}, res.Rows)
	assert.Equal(t, store.StepAwaitingChecklistPrompt, h.sess.Step)
	assert.Equal(t, "200001", h.sess.ChecklistContract)
	require.Contains(t, h.sess.AuditData, "200001")
	assert.Equal(t, "tester", h.sess.AuditData["200001"].Fields["CREATED_BY"])

	res = h.say("maybe")
	assert.Equal(t, store.StepAwaitingChecklistPrompt, h.sess.Step)
	assert.Contains(t, res.Message, "200001")

	res = h.say("yes")
	assert.Equal(t, store.StepCollectingChecklistFields, h.sess.Step)
	assert.Contains(t, res.Message, "Date of Signature")

	res = h.say(fullChecklist)
	assert.Equal(t, store.StepAwaitingChecklistConfirmation, h.sess.Step)
	assert.Contains(t, res.Message, "- Effective Date: 07/01/25")

	res = h.say("no")
	assert.Equal(t, store.StepCollectingChecklistFields, h.sess.Step)
	assert.Empty(t, h.sess.CollectedData)
	assert.Contains(t, res.Message, "again")

	h.say(fullChecklist)
	res = h.say("confirm")
	assert.Equal(t, ActionChecklistCreated, res.Classification.ActionType)
	assert.True(t, res.Succeeded())
	assertIdle(t, h.sess)

	saved := h.data.Checklists()
	require.Len(t, saved, 1)
	assert.Equal(t, "200001", saved[0]["AWARD_NUMBER"])
	assert.Equal(t, "06/30/26", saved[0]["EXPIRATION_DATE"])
	assert.True(t, h.sess.AuditData["200001"].Checklist)

	require.Len(t, h.audit.events, 2)
	assert.Equal(t, EventContractCreated, h.audit.events[0].Type)
	assert.Equal(t, EventChecklistCreated, h.audit.events[1].Type)
}

func TestChecklistDateOrder(t *testing.T) {
	h := newHarness(t, nil)
	h.say("create checklist for contract 123456")
	require.Equal(t, store.StepCollectingChecklistFields, h.sess.Step)

	res := h.say("date of signature: 06/01/25, effective date: 07/01/25, expiration date: 06/30/25, " +
		"flow down date: 07/15/25, price expiration date: 12/31/25")
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Message, "Expiration Date '06/30/25' must be after the Effective Date")
	assert.Equal(t, store.StepCollectingChecklistFields, h.sess.Step)
	assert.NotContains(t, h.sess.CollectedData, "EXPIRATION_DATE")
	assert.Equal(t, "07/01/25", h.sess.CollectedData["EFFECTIVE_DATE"])

	res = h.say("expiration date: 02/30/26")
	require.Len(t, res.Errors, 1)
	assert.Equal(t, nlp.CodeFieldValidation, res.Errors[0].Code)

	h.say("expiration: 06/30/26")
	assert.Equal(t, store.StepAwaitingChecklistConfirmation, h.sess.Step)
}

func TestSkipEndsChecklist(t *testing.T) {
	h := newHarness(t, nil)
	h.say("create contract " + fullContract)
	h.say("yes")
	h.say("yes")

	res := h.say("skip")
	assert.Equal(t, ActionChecklistSkipped, res.Classification.ActionType)
	assertIdle(t, h.sess)
	assert.Contains(t, h.sess.AuditData, "200001")
}

func TestStandaloneChecklistTarget(t *testing.T) {
	h := newHarness(t, nil)

	res := h.say("create checklist")
	assert.Equal(t, store.StepAwaitingChecklistTarget, h.sess.Step)
	assert.Equal(t, response.MsgChecklistTarget, res.Message)

	res = h.say("the big one")
	assert.True(t, nlp.HasBlocker(res.Errors))
	assert.Equal(t, store.StepAwaitingChecklistTarget, h.sess.Step)

	h.say("123456")
	assert.Equal(t, store.StepCollectingChecklistFields, h.sess.Step)
	assert.Equal(t, "123456", h.sess.ChecklistContract)
}

func TestChecklistTargetFallsBackToSearch(t *testing.T) {
	h := newHarness(t, nil)
	h.say("show contract 234567")
	require.NotNil(t, h.sess.ContractSearchCache)

	h.say("create checklist")
	assert.Equal(t, store.StepCollectingChecklistFields, h.sess.Step)
	assert.Equal(t, "234567", h.sess.ChecklistContract)
}

func TestChecklistTarget(t *testing.T) {
	sess := store.NewConversationSession("s", "u", testNow)
	_, err := checklistTarget(sess, nil)
	assert.True(t, errors.Is(err, ErrNoChecklistTarget))

	sess.ContractSearchCache = store.NewCandidateCache(nlp.AttrAwardNumber, []string{"111111", "222222"}, testNow)
	_, err = checklistTarget(sess, nil)
	assert.True(t, errors.Is(err, ErrNoChecklistTarget))

	sess.AuditData["200001"] = store.AuditRecord{ContractID: "200001", CreatedAt: testNow}
	id, err := checklistTarget(sess, nil)
	require.NoError(t, err)
	assert.Equal(t, "200001", id)

	id, _ = checklistTarget(sess, []nlp.EntityFilter{{Attribute: nlp.AttrAwardNumber, Operation: nlp.OpEquals, Value: "123456"}})
	assert.Equal(t, "123456", id)
}

func TestDisambiguation(t *testing.T) {
	withAlices := func(p *memory.ContractDataProvider) contract.DataProvider {
		return orderedUsers{p, []string{"Alice Smith", "Alice Jones"}}
	}

	tests := []struct {
		name  string
		reply string
		user  string
		award string
	}{
		{"by index", "1", "Alice Smith", "345678"},
		{"by name any case", "alice JONES", "Alice Jones", "234567"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, withAlices)

			res := h.say("contracts created by alice")
			assert.Equal(t, nlp.QueryAmbiguous, res.Classification.QueryType)
			assert.Equal(t, classifier.ActionDisambiguation, res.Classification.ActionType)
			assert.True(t, res.ActionRequired)
			assert.True(t, h.sess.WaitingForUserInput)
			assert.Contains(t, res.Message, "1. Alice Smith\n2. Alice Jones")

			res = h.say(tt.reply)
			assert.False(t, h.sess.WaitingForUserInput)
			assert.Nil(t, h.sess.UserSearchCache)
			assert.Equal(t, "contracts_created_by_user", res.Classification.ActionType)
			createdBy, ok := nlp.FindEntity(res.Entities, nlp.AttrCreatedBy)
			require.True(t, ok)
			assert.Equal(t, tt.user, createdBy.Value)
			assert.Equal(t, nlp.OpEquals, createdBy.Operation)
			require.Len(t, res.Rows, 1)
			assert.Equal(t, tt.award, res.Rows[0]["AWARD_NUMBER"])
		})
	}
}

func TestInvalidSelectionKeepsCandidates(t *testing.T) {
	h := newHarness(t, func(p *memory.ContractDataProvider) contract.DataProvider {
		return orderedUsers{p, []string{"Alice Smith", "Alice Jones"}}
	})
	h.say("contracts created by alice")

	for _, reply := range []string{"3", "0", "alice", "show contract 123456"} {
		res := h.say(reply)
		assert.Equal(t, []string{nlp.CodeInvalidSelection}, codes(res.Errors), reply)
		assert.True(t, res.ActionRequired, reply)
		assert.Contains(t, res.Message, "1. Alice Smith\n2. Alice Jones", reply)
		assert.True(t, h.sess.WaitingForUserInput, reply)
		assert.Equal(t, []string{"Alice Smith", "Alice Jones"}, h.sess.UserSearchCache.Values(), reply)
	}
}

func TestSingleUserMatchRunsDirectly(t *testing.T) {
	h := newHarness(t, nil)

	res := h.say("contracts created by vinod")
	assert.False(t, h.sess.WaitingForUserInput)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "123456", res.Rows[0]["AWARD_NUMBER"])

	res = h.say("contracts created by zed")
	assert.Contains(t, res.Message, "could not find any user matching 'zed'")
	assert.Empty(t, res.Rows)
}

func TestMissingHeaderIsBlocker(t *testing.T) {
	h := newHarness(t, nil)

	res := h.say("show me something")
	assert.Equal(t, nlp.QueryAmbiguous, res.Classification.QueryType)
	assert.Contains(t, codes(res.Errors), nlp.CodeMissingHeader)
	assert.False(t, res.Succeeded())
	assert.Equal(t, response.MsgMissingIdentifiers, res.Message)
	assert.Empty(t, res.Rows)
}

func TestStaleFlagIsClearedBeforeRouting(t *testing.T) {
	h := newHarness(t, nil)
	h.sess.Context[store.FlagAwaitingChecklistPrompt] = "true"

	res := h.say("yes")
	assert.Contains(t, codes(res.Errors), nlp.CodeStaleContextFlag)
	assert.Empty(t, h.sess.Context)
	assert.NotEqual(t, ActionChecklistCollect, res.Classification.ActionType)
	assert.False(t, h.sess.InFlow())
}

func TestQueries(t *testing.T) {
	tests := []struct {
		input   string
		action  string
		display []string
		rows    []map[string]interface{}
	}{
		{
			input:   "what are the payment terms for contract 123456",
			action:  "contracts_by_contractnumber",
			display: []string{"PAYMENT_TERMS"},
			rows:    []map[string]interface{}{{"PAYMENT_TERMS": "Net 30"}},
		},
		{
			input:   "show me contracts with failed parts and their counts",
			action:  "QUICK_ACTION_FAILED_CONTRACTS",
			display: []string{"CONTRACT_NO", "COUNT"},
			rows: []map[string]interface{}{
				{"CONTRACT_NO": "123456", "COUNT": 2},
				{"CONTRACT_NO": "345678", "COUNT": 1},
			},
		},
		{
			input:   "show me contracts expiring in the next 30 days",
			action:  "QUICK_ACTION_EXPIRING_SOON",
			display: []string{"AWARD_NUMBER", "CONTRACT_NAME", "CUSTOMER_NAME", "EXPIRATION_DATE"},
			rows: []map[string]interface{}{{
				"AWARD_NUMBER": "123456", "CONTRACT_NAME": "Boeing Fasteners",
				"CUSTOMER_NAME": "Boeing", "EXPIRATION_DATE": "2025-07-05",
			}},
		},
		{
			input:   "what is the total count of parts loaded in the system",
			action:  "QUICK_ACTION_PARTS_COUNT",
			display: []string{"COUNT"},
			rows:    []map[string]interface{}{{"COUNT": 3}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			h := newHarness(t, nil)
			res := h.say(tt.input)
			assert.Equal(t, tt.action, res.Classification.ActionType)
			assert.Equal(t, tt.display, res.Classification.DisplayEntities)
			assert.Equal(t, tt.rows, res.Rows)
			assert.True(t, res.Succeeded())
		})
	}
}

func TestHelpAnswers(t *testing.T) {
	h := newHarness(t, nil)
	lex := lexicon.MustDefault()

	res := h.say("how do i create a contract")
	assert.Equal(t, classifier.ActionContractCreateUsr, res.Classification.ActionType)
	assert.Equal(t, lex.Help().CreateContractSteps, res.Message)
	assert.False(t, h.sess.InFlow())

	res = h.say("help")
	assert.Equal(t, lex.Help().General, res.Message)
}

func TestCollaboratorFailureStaysInConfirmation(t *testing.T) {
	h := newHarness(t, func(p *memory.ContractDataProvider) contract.DataProvider {
		return brokenCreate{p}
	})
	h.say("create contract " + fullContract)

	res := h.say("yes")
	assert.False(t, res.Succeeded())
	assert.Equal(t, []string{nlp.CodeCollaborator}, codes(res.Errors))
	assert.Equal(t, store.StepAwaitingContractConfirmation, h.sess.Step)
	assert.Len(t, h.sess.CollectedData, 6)
	assert.Contains(t, res.Message, "Reply yes to try again")
	assert.Empty(t, h.audit.events)
}

func TestChecklistForUnknownContractAsksAgain(t *testing.T) {
	h := newHarness(t, nil)

	res := h.say("create checklist for 999999")
	assert.Equal(t, ActionChecklistTarget, res.Classification.ActionType)
	assert.Equal(t, store.StepAwaitingChecklistTarget, h.sess.Step)
	assert.Equal(t, []string{nlp.CodeFieldValidation}, codes(res.Errors))
	assert.True(t, nlp.HasBlocker(res.Errors))
	assert.Contains(t, res.Message, "Contract 999999 was not found.")
	assert.Empty(t, h.sess.ChecklistContract)

	res = h.say("888888")
	assert.Equal(t, store.StepAwaitingChecklistTarget, h.sess.Step)
	assert.Contains(t, res.Message, "Contract 888888 was not found.")

	h.say("123456")
	assert.Equal(t, store.StepCollectingChecklistFields, h.sess.Step)
	assert.Equal(t, "123456", h.sess.ChecklistContract)
}

func TestRejectedChecklistKeepsCollectedDates(t *testing.T) {
	h := newHarness(t, func(p *memory.ContractDataProvider) contract.DataProvider {
		return rejectedChecklist{p}
	})
	h.say("create checklist for contract 123456")
	h.say(fullChecklist)
	require.Equal(t, store.StepAwaitingChecklistConfirmation, h.sess.Step)

	res := h.say("yes")
	assert.False(t, res.Succeeded())
	assert.Equal(t, ActionChecklistFailed, res.Classification.ActionType)
	assert.Equal(t, []string{nlp.CodeCollaborator}, codes(res.Errors))
	assert.Contains(t, res.Message, "Checklist storage is read-only.")
	assert.Equal(t, store.StepAwaitingChecklistConfirmation, h.sess.Step)
	assert.Equal(t, "123456", h.sess.ChecklistContract)
	assert.Len(t, h.sess.CollectedData, 5)
	assert.Empty(t, h.audit.events)
}
