package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"dashboard-assistant-be/internal/model"
	"dashboard-assistant-be/pkg/database"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// seed fills the searchable collections with a small demo dashboard for
// one user, so the assistant has something to federate over
func main() {
	userFlag := flag.String("user", os.Getenv("SEED_USER_ID"), "owner of the demo records (uuid)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	userId, err := uuid.Parse(*userFlag)
	if err != nil {
		color.Red("Invalid -user %q: %v", *userFlag, err)
		os.Exit(1)
	}

	db, err := database.NewGormDBFromDSN(os.Getenv("DB_CONNECTION_STRING"), true)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	color.Cyan("Seeding demo records for %s", userId)
	now := time.Now()
	tomorrow := now.Add(24 * time.Hour)
	nextWeek := now.AddDate(0, 0, 6)

	seed(db, "notes", "title", userId, []*model.Note{
		{UserId: userId, Title: "Q3 budget review", Content: "Finance wants the Q3 budget review before the board meeting. Cut travel by 10%.", Tags: tags("budget", "finance")},
		{UserId: userId, Title: "Renewal talking points", Content: "Stress uptime, the new reporting module and the support SLA during the renewal call.", Tags: tags("renewal")},
	}, func(n *model.Note) string { return n.Title })

	seed(db, "meetings", "title", userId, []*model.Meeting{
		{UserId: userId, Title: "Renewal call with Acme", Agenda: "Pricing, SLA, reporting roadmap", Status: "scheduled", ScheduledAt: tomorrow},
		{UserId: userId, Title: "Board prep", Agenda: "Budget, hiring plan", Status: "scheduled", ScheduledAt: nextWeek},
	}, func(m *model.Meeting) string { return m.Title })

	seed(db, "priorities", "title", userId, []*model.Priority{
		{UserId: userId, Title: "Close Acme renewal", Description: "Contract expires end of month", Level: "critical", Status: "in_progress", DueAt: &nextWeek},
		{UserId: userId, Title: "Hire data analyst", Description: "Second round interviews", Level: "medium", Status: "backlog"},
	}, func(p *model.Priority) string { return p.Title })

	seed(db, "stakeholders", "name", userId, []*model.Stakeholder{
		{UserId: userId, Name: "Dana Whitfield", Organization: "Acme", Role: "VP Operations", Notes: "Decision maker for the renewal, prefers short meetings", Influence: "high"},
	}, func(s *model.Stakeholder) string { return s.Name })

	seed(db, "emails", "subject", userId, []*model.Email{
		{UserId: userId, Subject: "Re: renewal pricing", Sender: "dana@acme.example", Body: "Can we move the renewal call to the afternoon?", Importance: "high", ReceivedAt: now.Add(-2 * time.Hour)},
	}, func(e *model.Email) string { return e.Subject })

	seed(db, "market insights", "headline", userId, []*model.MarketInsight{
		{UserId: userId, Headline: "Competitor cuts reporting prices", Body: "A competitor dropped reporting add-on prices by 20% this quarter.", Source: "industry newsletter", Tags: tags("pricing", "competition")},
	}, func(m *model.MarketInsight) string { return m.Headline })

	color.Green("Demo seeding completed!")
}

// seed inserts rows whose key column value is not there yet for the user
func seed[M any](db *gorm.DB, label, column string, userId uuid.UUID, rows []*M, key func(*M) string) {
	color.Yellow("Seeding %s...", label)
	for _, row := range rows {
		var count int64
		if err := db.Model(new(M)).Where("user_id = ? AND "+column+" = ?", userId, key(row)).Count(&count).Error; err != nil {
			color.Red("  lookup %q failed: %v", key(row), err)
			continue
		}
		if count > 0 {
			log.Printf("  %q already exists, skipping...", key(row))
			continue
		}
		if err := db.Create(row).Error; err != nil {
			color.Red("  create %q failed: %v", key(row), err)
			continue
		}
		log.Printf("  created %q", key(row))
	}
}

func tags(values ...string) datatypes.JSON {
	raw, _ := json.Marshal(values)
	return datatypes.JSON(raw)
}
