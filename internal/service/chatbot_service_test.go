package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bcct-chatbot-be/internal/pkg/logger"
	"bcct-chatbot-be/internal/repository/contract"
	"bcct-chatbot-be/internal/repository/memory"
	"bcct-chatbot-be/pkg/conversation/flow"
	"bcct-chatbot-be/pkg/conversation/response"
	"bcct-chatbot-be/pkg/conversation/session"
	"bcct-chatbot-be/pkg/lexicon"
	"bcct-chatbot-be/pkg/nlp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var seedNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

type panickingProvider struct {
	*memory.ContractDataProvider
}

func (panickingProvider) RunFilteredQuery(context.Context, string, []nlp.EntityFilter, []string) ([]map[string]interface{}, error) {
	panic("driver bug")
}

func newTestChatbotService(t *testing.T, wrap func(*memory.ContractDataProvider) contract.DataProvider) IChatbotService {
	t.Helper()
	lex := lexicon.MustDefault()
	now := func() time.Time { return seedNow }
	data := memory.NewSeededContractDataProvider(lex, now)
	var provider contract.DataProvider = data
	if wrap != nil {
		provider = wrap(data)
	}
	log := logger.NewNopLogger()
	return NewChatbotService(
		session.NewManager(memory.NewSessionRepository(0, 0), log),
		flow.NewController(lex, provider, log, flow.WithClock(now)),
		response.NewAssembler(nil),
		log,
	)
}

func TestProcessUserInputQuery(t *testing.T) {
	svc := newTestChatbotService(t, nil)

	resp := svc.ProcessUserInput(context.Background(), "show contract 123456", "s1", "tester")
	require.NotNil(t, resp)
	assert.True(t, resp.IsSuccess)
	assert.Equal(t, "s1", resp.Metadata.SessionId)
	assert.Equal(t, 1, resp.Metadata.Turn)
	assert.Equal(t, "CONTRACTS", resp.Metadata.QueryType)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "123456", resp.Data[0]["AWARD_NUMBER"])
	assert.Equal(t, "show contract 123456", resp.InputTracking.OriginalInput)
	assert.False(t, resp.UserActionRequired)
}

func TestProcessUserInputGeneratesSessionID(t *testing.T) {
	svc := newTestChatbotService(t, nil)

	resp := svc.ProcessUserInput(context.Background(), "help", "", "tester")
	assert.NotEmpty(t, resp.Metadata.SessionId)

	state, err := svc.SessionState(context.Background(), resp.Metadata.SessionId)
	require.NoError(t, err)
	assert.Equal(t, "tester", state.UserId)
}

func TestProcessUserInputRecoversPanics(t *testing.T) {
	svc := newTestChatbotService(t, func(p *memory.ContractDataProvider) contract.DataProvider {
		return panickingProvider{p}
	})

	resp := svc.ProcessUserInput(context.Background(), "show contract 123456", "s1", "tester")
	require.NotNil(t, resp)
	assert.False(t, resp.IsSuccess)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, nlp.CodeProcessing, resp.Errors[0].Code)
	assert.Equal(t, nlp.SeverityBlocker, resp.Errors[0].Severity)
	assert.Equal(t, response.MsgProcessingError, resp.Message)

	// The session survives the failed turn.
	state, err := svc.SessionState(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, state.TurnCount)
}

func TestSessionStateAndReset(t *testing.T) {
	svc := newTestChatbotService(t, nil)
	ctx := context.Background()

	_, err := svc.SessionState(ctx, "missing")
	assert.True(t, errors.Is(err, ErrSessionNotFound))

	resp := svc.ProcessUserInput(ctx, "create contract", "s1", "tester")
	assert.True(t, resp.UserActionRequired)

	state, err := svc.SessionState(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "CONTRACT_CREATION", state.FlowType)
	assert.Equal(t, "COLLECTING_CONTRACT_FIELDS", state.Step)

	svc.ResetSession(ctx, "s1")
	_, err = svc.SessionState(ctx, "s1")
	assert.True(t, errors.Is(err, ErrSessionNotFound))
}

func TestConcurrentTurnsOnOneSessionAreSerialized(t *testing.T) {
	svc := newTestChatbotService(t, nil)
	ctx := context.Background()

	const turns = 20
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sessionID := "shared"
			if i%2 == 1 {
				sessionID = "other"
			}
			svc.ProcessUserInput(ctx, "help", sessionID, "tester")
		}(i)
	}
	wg.Wait()

	shared, err := svc.SessionState(ctx, "shared")
	require.NoError(t, err)
	other, err := svc.SessionState(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, turns/2, shared.TurnCount)
	assert.Equal(t, turns/2, other.TurnCount)
}

func TestProcessUserInputRejectsAnotherUsersSession(t *testing.T) {
	svc := newTestChatbotService(t, nil)
	ctx := context.Background()

	resp := svc.ProcessUserInput(ctx, "create contract account number: 1234567, contract name: ACME Supply, "+
		"title: Annual Award, description: Annual supply, comments: none, price list: no", "s-alice", "alice")
	require.True(t, resp.UserActionRequired)
	before, err := svc.SessionState(ctx, "s-alice")
	require.NoError(t, err)

	resp = svc.ProcessUserInput(ctx, "yes", "s-alice", "mallory")
	assert.False(t, resp.IsSuccess)
	require.NotEmpty(t, resp.Errors)
	assert.Equal(t, nlp.CodeProcessing, resp.Errors[0].Code)
	assert.Empty(t, resp.Data)

	after, err := svc.SessionState(ctx, "s-alice")
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, "alice", after.UserId)
	assert.Equal(t, "AWAITING_CONTRACT_CONFIRMATION", after.Step)
	assert.Empty(t, after.CreatedContracts)

	assert.ErrorIs(t, svc.CheckOwner(ctx, "s-alice", "mallory"), ErrSessionNotOwned)
	assert.NoError(t, svc.CheckOwner(ctx, "s-alice", "alice"))
}
