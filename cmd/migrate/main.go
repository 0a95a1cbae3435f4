package main

import (
	"log"

	"bcct-chatbot-be/internal/config"
	"bcct-chatbot-be/internal/model"
	"bcct-chatbot-be/pkg/database"
)

func main() {
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.IsProduction(), database.DefaultPool)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Step 1: Extensions...")
	// gen_random_uuid() defaults on the audit and checklist tables
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		log.Printf("Warn: Failed to create pgcrypto: %v. Continuing...", err)
	}

	models := []interface{}{
		&model.Customer{},
		&model.User{},
		&model.Contract{},
		&model.ContractChecklist{},
		&model.Part{},
		&model.FailedPart{},
		&model.Opportunity{},
		&model.AuditLog{},
	}
	log.Printf("Step 2: AutoMigrate for %d tables...", len(models))
	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	log.Println("Step 3: Indexes...")
	// LIKE '%name%' user search
	postMigrationSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pg_trgm;`,
		`CREATE INDEX IF NOT EXISTS idx_cct_users_full_name_trgm ON cct_users USING gin (lower(full_name) gin_trgm_ops);`,
	}
	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("Success: database migration completed.")
}
