package store

import (
	"strconv"
	"strings"
	"time"

	"bcct-chatbot-be/pkg/nlp"
)

// FlowType names the multi-turn dialogue a session is in, empty when idle.
type FlowType string

const (
	FlowNone             FlowType = ""
	FlowContractCreation FlowType = "CONTRACT_CREATION"
	FlowCreateChecklist  FlowType = "CREATE_CHECKLIST"
)

// FlowStep is the position inside the active flow.
type FlowStep string

const (
	StepIdle                          FlowStep = "IDLE"
	StepCollectingContractFields      FlowStep = "COLLECTING_CONTRACT_FIELDS"
	StepAwaitingContractConfirmation  FlowStep = "AWAITING_CONTRACT_CONFIRMATION"
	StepAwaitingChecklistPrompt       FlowStep = "AWAITING_CHECKLIST_PROMPT"
	StepAwaitingChecklistTarget       FlowStep = "AWAITING_CHECKLIST_TARGET"
	StepCollectingChecklistFields     FlowStep = "COLLECTING_CHECKLIST_FIELDS"
	StepAwaitingChecklistConfirmation FlowStep = "AWAITING_CHECKLIST_CONFIRMATION"
)

// FlowOf returns the flow a step belongs to.
func (s FlowStep) FlowOf() FlowType {
	switch s {
	case StepCollectingContractFields, StepAwaitingContractConfirmation:
		return FlowContractCreation
	case StepAwaitingChecklistPrompt, StepAwaitingChecklistTarget,
		StepCollectingChecklistFields, StepAwaitingChecklistConfirmation:
		return FlowCreateChecklist
	default:
		return FlowNone
	}
}

// Transient UI hint flags kept in ConversationSession.Context.
const (
	FlagAwaitingContractConfirmation  = "awaitingContractConfirmation"
	FlagAwaitingChecklistPrompt       = "awaitingChecklistPrompt"
	FlagCollectingChecklistData       = "collectingChecklistData"
	FlagAwaitingChecklistConfirmation = "awaitingChecklistConfirmation"
)

// FlagFlow maps each context flag to the only flow it is valid in.
var FlagFlow = map[string]FlowType{
	FlagAwaitingContractConfirmation:  FlowContractCreation,
	FlagAwaitingChecklistPrompt:       FlowCreateChecklist,
	FlagCollectingChecklistData:       FlowCreateChecklist,
	FlagAwaitingChecklistConfirmation: FlowCreateChecklist,
}

type Candidate struct {
	DisplayOrder int    `json:"displayOrder"`
	Value        string `json:"value"`
}

// CandidateCache holds a candidate list in the exact order it was shown.
type CandidateCache struct {
	Attribute  string      `json:"attribute"`
	Candidates []Candidate `json:"candidates"`
	Valid      bool        `json:"valid"`
	CreatedAt  time.Time   `json:"createdAt"`
}

func NewCandidateCache(attribute string, values []string, now time.Time) *CandidateCache {
	c := &CandidateCache{Attribute: attribute, Valid: true, CreatedAt: now}
	for i, v := range values {
		c.Candidates = append(c.Candidates, Candidate{DisplayOrder: i + 1, Value: v})
	}
	return c
}

// Select resolves a reply to a candidate: a 1-based index into the displayed
// order or an exact, case-insensitive value.
func (c *CandidateCache) Select(reply string) (Candidate, bool) {
	if c == nil || !c.Valid {
		return Candidate{}, false
	}
	r := strings.TrimSpace(reply)
	if n, err := strconv.Atoi(r); err == nil {
		for _, cand := range c.Candidates {
			if cand.DisplayOrder == n {
				return cand, true
			}
		}
		return Candidate{}, false
	}
	for _, cand := range c.Candidates {
		if strings.EqualFold(cand.Value, r) {
			return cand, true
		}
	}
	return Candidate{}, false
}

func (c *CandidateCache) Values() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.Candidates))
	for i, cand := range c.Candidates {
		out[i] = cand.Value
	}
	return out
}

// AuditRecord is the snapshot of a contract created in this session.
type AuditRecord struct {
	ContractID string            `json:"contractId"`
	Fields     map[string]string `json:"fields"`
	CreatedBy  string            `json:"createdBy"`
	CreatedAt  time.Time         `json:"createdAt"`
	Checklist  bool              `json:"checklist"`
}

// PendingQuery is a classified query parked until a disambiguation answer arrives.
type PendingQuery struct {
	Classification nlp.QueryClassification `json:"classification"`
	Entities       []nlp.EntityFilter      `json:"entities"`
	Issues         []string                `json:"issues,omitempty"`
}

// ConversationSession is the per-session dialogue state.
type ConversationSession struct {
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`

	CurrentFlowType FlowType          `json:"currentFlowType"`
	Step            FlowStep          `json:"step"`
	CollectedData   map[string]string `json:"collectedData"`
	Context         map[string]string `json:"context"`

	ChecklistContract string                 `json:"checklistContract,omitempty"`
	AuditData         map[string]AuditRecord `json:"auditData"`

	UserSearchCache     *CandidateCache `json:"userSearchCache,omitempty"`
	ContractSearchCache *CandidateCache `json:"contractSearchCache,omitempty"`
	PendingQuery        *PendingQuery   `json:"pendingQuery,omitempty"`
	WaitingForUserInput bool            `json:"waitingForUserInput"`

	LastActivity time.Time `json:"lastActivity"`
	TurnCount    int       `json:"turnCount"`
}

func NewConversationSession(sessionID, userID string, now time.Time) *ConversationSession {
	return &ConversationSession{
		SessionID:     sessionID,
		UserID:        userID,
		Step:          StepIdle,
		CollectedData: map[string]string{},
		Context:       map[string]string{},
		AuditData:     map[string]AuditRecord{},
		LastActivity:  now,
	}
}

// Reset returns the session to idle. Audit history survives a reset.
func (s *ConversationSession) Reset() {
	s.CurrentFlowType = FlowNone
	s.Step = StepIdle
	s.WaitingForUserInput = false
	s.CollectedData = map[string]string{}
	s.Context = map[string]string{}
	s.ChecklistContract = ""
	s.UserSearchCache = nil
	s.ContractSearchCache = nil
	s.PendingQuery = nil
}

func (s *ConversationSession) InFlow() bool {
	return s.CurrentFlowType != FlowNone
}

// LatestAudit returns the most recently created contract of the session.
func (s *ConversationSession) LatestAudit() (AuditRecord, bool) {
	var latest AuditRecord
	found := false
	for _, rec := range s.AuditData {
		if !found || rec.CreatedAt.After(latest.CreatedAt) {
			latest, found = rec, true
		}
	}
	return latest, found
}

// Clone returns a deep copy, safe to read after the session lock is released.
func (s *ConversationSession) Clone() *ConversationSession {
	c := *s
	c.CollectedData = copyMap(s.CollectedData)
	c.Context = copyMap(s.Context)
	c.AuditData = make(map[string]AuditRecord, len(s.AuditData))
	for k, rec := range s.AuditData {
		rec.Fields = copyMap(rec.Fields)
		c.AuditData[k] = rec
	}
	c.UserSearchCache = s.UserSearchCache.clone()
	c.ContractSearchCache = s.ContractSearchCache.clone()
	if s.PendingQuery != nil {
		pq := *s.PendingQuery
		pq.Entities = append([]nlp.EntityFilter(nil), s.PendingQuery.Entities...)
		pq.Issues = append([]string(nil), s.PendingQuery.Issues...)
		pq.Classification.DisplayEntities = append([]string(nil), s.PendingQuery.Classification.DisplayEntities...)
		c.PendingQuery = &pq
	}
	return &c
}

func (c *CandidateCache) clone() *CandidateCache {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Candidates = append([]Candidate(nil), c.Candidates...)
	return &cp
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
