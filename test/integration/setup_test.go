package integration

import (
	"log"
	"os"
	"testing"

	"dashboard-assistant-be/internal/model"
	"dashboard-assistant-be/pkg/database"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// openDB connects to DB_CONNECTION_STRING and migrates the assistant
// tables, skipping the test when no database is configured
func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	db, err := database.NewGormDBFromDSN(dsn, true)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.ChatSession{},
		&model.ChatMessage{},
		&model.Note{},
		&model.Meeting{},
		&model.Priority{},
		&model.Stakeholder{},
		&model.Email{},
		&model.MarketInsight{},
	))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
