package main

import (
	"log"
	"time"

	"bcct-chatbot-be/internal/config"
	"bcct-chatbot-be/internal/model"
	"bcct-chatbot-be/pkg/database"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Seeds reference data for a local or staging database. Safe to run twice.
func main() {
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}
	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.IsProduction(), database.DefaultPool)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		ignore := tx.Clauses(clause.OnConflict{DoNothing: true})

		customers := []model.Customer{
			{CustomerNumber: "1234567", CustomerName: "Boeing", Status: "ACTIVE"},
			{CustomerNumber: "7654321", CustomerName: "Airbus", Status: "ACTIVE"},
			{CustomerNumber: "2345678", CustomerName: "Embraer", Status: "INACTIVE"},
		}
		if err := ignore.Create(&customers).Error; err != nil {
			return err
		}

		users := []model.User{
			{UserId: "asmith", FullName: "Alice Smith", Active: true},
			{UserId: "ajones", FullName: "Alice Jones", Active: true},
			{UserId: "vkumar", FullName: "Vinod Kumar", Active: true},
			{UserId: "blee", FullName: "Bob Lee", Active: true},
		}
		if err := ignore.Create(&users).Error; err != nil {
			return err
		}

		expires := time.Now().AddDate(0, 0, 20)
		contracts := []model.Contract{
			{
				AwardNumber: "123456", AccountNumber: "1234567", CustomerNumber: "1234567", CustomerName: "Boeing",
				ContractName: "Boeing Fasteners", Title: "2024 Fastener Award", IsPricelist: "NO", Status: "ACTIVE",
				PaymentTerms: "Net 30", Incoterms: "FCA", Currency: "USD", ExpirationDate: &expires,
				AwardRep: "Alice Smith", CreatedBy: "Vinod Kumar",
			},
			{
				AwardNumber: "234567", AccountNumber: "7654321", CustomerNumber: "7654321", CustomerName: "Airbus",
				ContractName: "Airbus Seals", Title: "Seal Supply", IsPricelist: "YES", Status: "EXPIRED",
				PaymentTerms: "Net 45", Incoterms: "DAP", Currency: "EUR",
				AwardRep: "Bob Lee", CreatedBy: "Alice Jones",
			},
		}
		if err := ignore.Create(&contracts).Error; err != nil {
			return err
		}

		parts := []model.Part{
			{LineNo: 1, LoadedCPNumber: "123456", InvoicePartNumber: "AB12345", EAU: 1200, UOM: "EA", Price: 4.25, MOQ: 100, LeadTime: 30, Classification: "FASTENER", Status: "ACTIVE", CreatedBy: "Vinod Kumar"},
			{LineNo: 2, LoadedCPNumber: "123456", InvoicePartNumber: "X9988776", EAU: 300, UOM: "EA", Price: 12.5, MOQ: 50, LeadTime: 45, Classification: "FASTENER", Status: "ACTIVE", CreatedBy: "Vinod Kumar"},
		}
		if err := ignore.Create(&parts).Error; err != nil {
			return err
		}

		failed := []model.FailedPart{
			{ContractNo: "123456", LineNo: 3, PartNumber: "AB1234X", ErrorColumn: "PRICE", Reason: "Price is missing", CreatedBy: "Vinod Kumar"},
		}
		return ignore.Create(&failed).Error
	})
	if err != nil {
		log.Fatalf("Error: seeding failed: %v", err)
	}
	log.Println("Success: seed data loaded.")
}
