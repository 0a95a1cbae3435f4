package state

import (
	"fmt"
	"sort"

	"bcct-chatbot-be/internal/pkg/logger"
	"bcct-chatbot-be/pkg/nlp"
	"bcct-chatbot-be/pkg/store"
)

const flagSet = "true"

// Manager is the only place that moves a session between flow steps.
type Manager struct {
	logger logger.ILogger
}

func NewManager(logger logger.ILogger) *Manager {
	return &Manager{logger: logger}
}

func (m *Manager) enter(sess *store.ConversationSession, flow store.FlowType, step store.FlowStep, flag string) {
	from := sess.Step
	sess.CurrentFlowType = flow
	sess.Step = step
	sess.Context = map[string]string{}
	if flag != "" {
		sess.Context[flag] = flagSet
	}
	m.logger.Debug("StateManager", "Transition", map[string]interface{}{
		"session_id": sess.SessionID,
		"from":       string(from),
		"to":         string(step),
	})
}

// TransitionToContractCollection starts the contract flow with whatever
// fields the opening message already carried.
func (m *Manager) TransitionToContractCollection(sess *store.ConversationSession, prefill map[string]string) {
	sess.CollectedData = map[string]string{}
	for k, v := range prefill {
		sess.CollectedData[k] = v
	}
	sess.ChecklistContract = ""
	m.enter(sess, store.FlowContractCreation, store.StepCollectingContractFields, "")
}

func (m *Manager) TransitionToContractConfirmation(sess *store.ConversationSession) {
	m.enter(sess, store.FlowContractCreation, store.StepAwaitingContractConfirmation, store.FlagAwaitingContractConfirmation)
}

// TransitionToChecklistPrompt offers a checklist for a freshly created contract.
func (m *Manager) TransitionToChecklistPrompt(sess *store.ConversationSession, contractID string) {
	sess.CollectedData = map[string]string{}
	sess.ChecklistContract = contractID
	m.enter(sess, store.FlowCreateChecklist, store.StepAwaitingChecklistPrompt, store.FlagAwaitingChecklistPrompt)
}

// TransitionToChecklistTarget asks which contract a checklist belongs to.
func (m *Manager) TransitionToChecklistTarget(sess *store.ConversationSession) {
	sess.CollectedData = map[string]string{}
	sess.ChecklistContract = ""
	m.enter(sess, store.FlowCreateChecklist, store.StepAwaitingChecklistTarget, "")
}

func (m *Manager) TransitionToChecklistCollection(sess *store.ConversationSession, contractID string, prefill map[string]string) {
	sess.CollectedData = map[string]string{}
	for k, v := range prefill {
		sess.CollectedData[k] = v
	}
	sess.ChecklistContract = contractID
	m.enter(sess, store.FlowCreateChecklist, store.StepCollectingChecklistFields, store.FlagCollectingChecklistData)
}

func (m *Manager) TransitionToChecklistConfirmation(sess *store.ConversationSession) {
	m.enter(sess, store.FlowCreateChecklist, store.StepAwaitingChecklistConfirmation, store.FlagAwaitingChecklistConfirmation)
}

// TransitionToIdle is the full reset used by cancel and by finished flows.
func (m *Manager) TransitionToIdle(sess *store.ConversationSession, reason string) {
	from := sess.Step
	sess.Reset()
	m.logger.Info("StateManager", "Returned to idle", map[string]interface{}{
		"session_id": sess.SessionID,
		"from":       string(from),
		"reason":     reason,
	})
}

// TransitionToDisambiguation parks a query until the user picks a candidate.
func (m *Manager) TransitionToDisambiguation(sess *store.ConversationSession, cache *store.CandidateCache, pending *store.PendingQuery) {
	sess.UserSearchCache = cache
	sess.PendingQuery = pending
	sess.WaitingForUserInput = true
	m.logger.Debug("StateManager", "Waiting for disambiguation", map[string]interface{}{
		"session_id": sess.SessionID,
		"candidates": len(cache.Candidates),
	})
}

// ClearDisambiguation drops the candidate list after a valid selection.
func (m *Manager) ClearDisambiguation(sess *store.ConversationSession) {
	sess.UserSearchCache = nil
	sess.PendingQuery = nil
	sess.WaitingForUserInput = false
}

// Sanitize removes context flags that do not belong to the current flow and
// repairs a step that disagrees with the flow type. Every repair is reported.
func (m *Manager) Sanitize(sess *store.ConversationSession) []nlp.ValidationError {
	var errs []nlp.ValidationError

	stale := make([]string, 0)
	for flag := range sess.Context {
		if flow, known := store.FlagFlow[flag]; known && flow == sess.CurrentFlowType {
			continue
		}
		stale = append(stale, flag)
	}
	sort.Strings(stale)
	for _, flag := range stale {
		delete(sess.Context, flag)
		errs = append(errs, nlp.ValidationError{
			Code:     nlp.CodeStaleContextFlag,
			Message:  fmt.Sprintf("Cleared the stale '%s' marker left over from an earlier conversation.", flag),
			Severity: nlp.SeverityError,
		})
	}

	if sess.Step == "" {
		sess.Step = store.StepIdle
	}
	if sess.Step.FlowOf() != sess.CurrentFlowType {
		errs = append(errs, nlp.ValidationError{
			Code:     nlp.CodeStaleContextFlag,
			Message:  "The previous conversation step no longer matched its flow, so it was reset.",
			Severity: nlp.SeverityError,
		})
		m.TransitionToIdle(sess, "inconsistent step")
	}
	if sess.WaitingForUserInput && sess.UserSearchCache == nil {
		sess.WaitingForUserInput = false
	}

	if len(errs) > 0 {
		m.logger.Warn("StateManager", "Sanitized session", map[string]interface{}{
			"session_id": sess.SessionID,
			"repairs":    len(errs),
		})
	}
	return errs
}
