package dto

import (
	"time"

	"bcct-chatbot-be/pkg/nlp"
)

type ChatRequest struct {
	Message   string `json:"message" validate:"required,max=2000"`
	SessionId string `json:"session_id" validate:"omitempty,max=64"`
}

// ChatbotResponse is the envelope returned for every user turn.
type ChatbotResponse struct {
	IsSuccess          bool                     `json:"isSuccess"`
	Message            string                   `json:"message"`
	Data               []map[string]interface{} `json:"data"`
	Metadata           ResponseMetadata         `json:"metadata"`
	InputTracking      InputTracking            `json:"inputTracking"`
	Entities           []nlp.EntityFilter       `json:"entities"`
	DisplayEntities    []string                 `json:"displayEntities"`
	Errors             []nlp.ValidationError    `json:"errors"`
	Issues             []string                 `json:"issues,omitempty"`
	UserActionRequired bool                     `json:"useractionrequired"`
}

type ResponseMetadata struct {
	QueryType        string  `json:"queryType"`
	ActionType       string  `json:"actionType"`
	ProcessingTimeMs int64   `json:"processingTimeMs"`
	Confidence       float64 `json:"confidence"`
	SessionId        string  `json:"sessionId"`
	Turn             int     `json:"turn"`
}

type InputTracking struct {
	OriginalInput        string           `json:"originalInput"`
	CorrectedInput       string           `json:"correctedInput"`
	CorrectionConfidence float64          `json:"correctionConfidence"`
	Corrections          []nlp.Correction `json:"corrections,omitempty"`
}

// SessionStateResponse exposes the dialogue state for support tooling.
type SessionStateResponse struct {
	SessionId           string            `json:"session_id"`
	UserId              string            `json:"user_id"`
	FlowType            string            `json:"flow_type"`
	Step                string            `json:"step"`
	CollectedData       map[string]string `json:"collected_data"`
	Context             map[string]string `json:"context"`
	WaitingForUserInput bool              `json:"waiting_for_user_input"`
	Candidates          []string          `json:"candidates,omitempty"`
	CreatedContracts    []string          `json:"created_contracts"`
	TurnCount           int               `json:"turn_count"`
	LastActivity        time.Time         `json:"last_activity"`
}

type ResetSessionRequest struct {
	SessionId string `json:"session_id" validate:"required,max=64"`
}
