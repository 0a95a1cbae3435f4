package model

import (
	"time"
)

type Part struct {
	LineNo            int       `gorm:"column:line_no;primaryKey"`
	LoadedCPNumber    string    `gorm:"column:loaded_cp_number;type:varchar(6);primaryKey"`
	InvoicePartNumber string    `gorm:"column:invoice_part_number;type:varchar(50);index"`
	EAU               int       `gorm:"column:eau"`
	UOM               string    `gorm:"column:uom;type:varchar(10)"`
	Price             float64   `gorm:"column:price;type:numeric(14,4)"`
	MOQ               int       `gorm:"column:moq"`
	LeadTime          int       `gorm:"column:lead_time"`
	Classification    string    `gorm:"column:classification;type:varchar(50)"`
	Status            string    `gorm:"column:status;type:varchar(20)"`
	CreatedBy         string    `gorm:"column:created_by;type:varchar(100);index"`
	CreationDate      time.Time `gorm:"column:creation_date;autoCreateTime"`
}

func (Part) TableName() string {
	return "cct_parts"
}

type FailedPart struct {
	ContractNo   string    `gorm:"column:contract_no;type:varchar(6);primaryKey"`
	LineNo       int       `gorm:"column:line_no;primaryKey"`
	PartNumber   string    `gorm:"column:part_number;type:varchar(50);index"`
	ErrorColumn  string    `gorm:"column:error_column;type:varchar(50)"`
	Reason       string    `gorm:"column:reason;type:text"`
	CreatedBy    string    `gorm:"column:created_by;type:varchar(100)"`
	CreationDate time.Time `gorm:"column:creation_date;autoCreateTime"`
}

func (FailedPart) TableName() string {
	return "cct_failed_parts"
}

type Customer struct {
	CustomerNumber string    `gorm:"column:customer_number;type:varchar(20);primaryKey"`
	CustomerName   string    `gorm:"column:customer_name;type:varchar(255);index"`
	Status         string    `gorm:"column:status;type:varchar(20)"`
	CreateDate     time.Time `gorm:"column:create_date;autoCreateTime"`
}

func (Customer) TableName() string {
	return "cct_customers"
}

type Opportunity struct {
	OpportunityNumber string    `gorm:"column:opportunity_number;type:varchar(20);primaryKey"`
	OpportunityName   string    `gorm:"column:opportunity_name;type:varchar(255)"`
	CustomerNumber    string    `gorm:"column:customer_number;type:varchar(20);index"`
	Status            string    `gorm:"column:status;type:varchar(20)"`
	CreateDate        time.Time `gorm:"column:create_date;autoCreateTime"`
}

func (Opportunity) TableName() string {
	return "cct_opportunities"
}

type User struct {
	UserId   string `gorm:"column:user_id;type:varchar(50);primaryKey"`
	FullName string `gorm:"column:full_name;type:varchar(100);not null;index"`
	Active   bool   `gorm:"column:active;default:true"`
}

func (User) TableName() string {
	return "cct_users"
}
