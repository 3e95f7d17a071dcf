package main

import (
	"log"
	"os"

	"dashboard-assistant-be/internal/model"
	"dashboard-assistant-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(os.Getenv("DB_CONNECTION_STRING"), false)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Step 1: Setting up Extensions...")
	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	}
	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	// 3. AutoMigrate
	models := []interface{}{
		&model.ChatSession{},
		&model.ChatMessage{},
		&model.Note{},
		&model.Meeting{},
		&model.Priority{},
		&model.Stakeholder{},
		&model.Email{},
		&model.MarketInsight{},
	}
	log.Printf("Step 2: Running AutoMigrate for %d tables...", len(models))
	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 4. Post-Migration: Indexes GORM tags cannot express
	log.Println("Step 3: Creating indexes...")
	postMigrationSQL := []string{
		`CREATE INDEX IF NOT EXISTS idx_chat_sessions_user_live ON chat_sessions (user_id, updated_at DESC) WHERE state <> 'DELETED';`,
		`CREATE INDEX IF NOT EXISTS idx_meetings_user_scheduled ON meetings (user_id, scheduled_at);`,
		`CREATE INDEX IF NOT EXISTS idx_priorities_user_due ON priorities (user_id, due_at);`,
		`CREATE INDEX IF NOT EXISTS idx_emails_user_received ON emails (user_id, received_at DESC);`,
	}
	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("✅ Success: Database migration completed successfully via GORM.")
}
