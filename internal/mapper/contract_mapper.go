package mapper

import (
	"encoding/json"

	"bcct-chatbot-be/internal/entity"
	"bcct-chatbot-be/internal/model"

	"gorm.io/datatypes"
)

type ContractMapper struct{}

func NewContractMapper() *ContractMapper {
	return &ContractMapper{}
}

func (m *ContractMapper) ToEntity(c *model.Contract) *entity.Contract {
	if c == nil {
		return nil
	}
	return &entity.Contract{
		Id:             c.Id,
		AwardNumber:    c.AwardNumber,
		AccountNumber:  c.AccountNumber,
		CustomerNumber: c.CustomerNumber,
		CustomerName:   c.CustomerName,
		ContractName:   c.ContractName,
		Title:          c.Title,
		Description:    c.Description,
		Comments:       c.Comments,
		IsPricelist:    c.IsPricelist == "YES",
		Status:         c.Status,
		CreatedBy:      c.CreatedBy,
		CreatedAt:      c.CreateDate,
	}
}

func (m *ContractMapper) ToModel(c *entity.Contract) *model.Contract {
	if c == nil {
		return nil
	}
	flag := "NO"
	if c.IsPricelist {
		flag = "YES"
	}
	return &model.Contract{
		Id:             c.Id,
		AwardNumber:    c.AwardNumber,
		AccountNumber:  c.AccountNumber,
		CustomerNumber: c.CustomerNumber,
		CustomerName:   c.CustomerName,
		ContractName:   c.ContractName,
		Title:          c.Title,
		Description:    c.Description,
		Comments:       c.Comments,
		IsPricelist:    flag,
		Status:         c.Status,
		CreatedBy:      c.CreatedBy,
		CreateDate:     c.CreatedAt,
	}
}

func (m *ContractMapper) ChecklistToModel(c *entity.ContractChecklist) *model.ContractChecklist {
	if c == nil {
		return nil
	}
	var extra datatypes.JSON
	if len(c.Extra) > 0 {
		// A map of strings always marshals.
		extra, _ = json.Marshal(c.Extra)
	}
	return &model.ContractChecklist{
		Id:                  c.Id,
		AwardNumber:         c.AwardNumber,
		DateOfSignature:     c.DateOfSignature,
		EffectiveDate:       c.EffectiveDate,
		ExpirationDate:      c.ExpirationDate,
		FlowDownDate:        c.FlowDownDate,
		PriceExpirationDate: c.PriceExpirationDate,
		Extra:               extra,
		CreatedBy:           c.CreatedBy,
		CreateDate:          c.CreatedAt,
	}
}

func (m *ContractMapper) AuditLogToModel(l *entity.AuditLog) (*model.AuditLog, error) {
	payload, err := json.Marshal(l.Payload)
	if err != nil {
		return nil, err
	}
	return &model.AuditLog{
		Id:        l.Id,
		Action:    l.Action,
		EntityId:  l.EntityId,
		SessionId: l.SessionId,
		UserId:    l.UserId,
		Payload:   datatypes.JSON(payload),
		CreatedAt: l.CreatedAt,
	}, nil
}
