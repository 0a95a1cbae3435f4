package mapper

import (
	"sort"

	"bcct-chatbot-be/internal/dto"
	"bcct-chatbot-be/pkg/store"
)

type SessionMapper struct{}

func NewSessionMapper() *SessionMapper {
	return &SessionMapper{}
}

func (m *SessionMapper) ToStateResponse(s *store.ConversationSession) *dto.SessionStateResponse {
	if s == nil {
		return nil
	}

	created := make([]string, 0, len(s.AuditData))
	for id := range s.AuditData {
		created = append(created, id)
	}
	sort.Strings(created)

	return &dto.SessionStateResponse{
		SessionId:           s.SessionID,
		UserId:              s.UserID,
		FlowType:            string(s.CurrentFlowType),
		Step:                string(s.Step),
		CollectedData:       s.CollectedData,
		Context:             s.Context,
		WaitingForUserInput: s.WaitingForUserInput,
		Candidates:          s.UserSearchCache.Values(),
		CreatedContracts:    created,
		TurnCount:           s.TurnCount,
		LastActivity:        s.LastActivity,
	}
}
