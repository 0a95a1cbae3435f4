package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Contract struct {
	Id                  uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	AwardNumber         string     `gorm:"column:award_number;type:varchar(6);uniqueIndex;not null"`
	AccountNumber       string     `gorm:"column:account_number;type:varchar(20);not null;index"`
	CustomerNumber      string     `gorm:"column:customer_number;type:varchar(20);index"`
	CustomerName        string     `gorm:"column:customer_name;type:varchar(255)"`
	ContractName        string     `gorm:"column:contract_name;type:varchar(255);not null"`
	Title               string     `gorm:"column:title;type:varchar(255);not null"`
	Description         string     `gorm:"column:description;type:varchar(255)"`
	Comments            string     `gorm:"column:comments;type:varchar(255)"`
	IsPricelist         string     `gorm:"column:is_pricelist;type:varchar(3);default:'NO'"`
	Status              string     `gorm:"column:status;type:varchar(20);default:'DRAFT';index"`
	PaymentTerms        string     `gorm:"column:payment_terms;type:varchar(100)"`
	Incoterms           string     `gorm:"column:incoterms;type:varchar(50)"`
	ContractLength      string     `gorm:"column:contract_length;type:varchar(50)"`
	Currency            string     `gorm:"column:currency;type:varchar(10)"`
	EffectiveDate       *time.Time `gorm:"column:effective_date;type:date"`
	ExpirationDate      *time.Time `gorm:"column:expiration_date;type:date;index"`
	PriceExpirationDate *time.Time `gorm:"column:price_expiration_date;type:date"`
	AwardRep            string     `gorm:"column:award_rep;type:varchar(100)"`
	CreatedBy           string     `gorm:"column:created_by;type:varchar(100);index"`
	CreateDate          time.Time  `gorm:"column:create_date;autoCreateTime;index"`
}

func (Contract) TableName() string {
	return "cct_contracts"
}

type ContractChecklist struct {
	Id                  uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	AwardNumber         string         `gorm:"column:award_number;type:varchar(6);not null;index"`
	DateOfSignature     time.Time      `gorm:"column:date_of_signature;type:date"`
	EffectiveDate       time.Time      `gorm:"column:effective_date;type:date"`
	ExpirationDate      time.Time      `gorm:"column:expiration_date;type:date"`
	FlowDownDate        time.Time      `gorm:"column:flow_down_date;type:date"`
	PriceExpirationDate time.Time      `gorm:"column:price_expiration_date;type:date"`
	Extra               datatypes.JSON `gorm:"column:extra;type:jsonb"`
	CreatedBy           string         `gorm:"column:created_by;type:varchar(100)"`
	CreateDate          time.Time      `gorm:"column:create_date;autoCreateTime"`
}

func (ContractChecklist) TableName() string {
	return "cct_contract_checklists"
}
