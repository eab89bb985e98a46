// Package main provides a tool to seed the database with sample reports.
//
// This creates realistic reports across categories to exercise listing,
// filtering, tag vocabulary, and search during development.
//
// Usage:
//
//	DB_PATH=~/espresso/db go run ./cmd/seed
//	DB_PATH=~/espresso/db go run ./cmd/seed --count 50
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/espressoapp/espresso-server/internal/domain"
	"github.com/espressoapp/espresso-server/internal/id"
	"github.com/espressoapp/espresso-server/internal/normalize"
	"github.com/espressoapp/espresso-server/internal/store"
)

var count = flag.Int("count", 20, "Number of reports to create")

var categories = []string{
	domain.CategoryDevelopment,
	domain.CategoryAI,
	domain.CategoryCloud,
	domain.CategoryLinux,
	domain.CategoryContainer,
	domain.CategoryApplication,
	domain.CategoryProgram,
	domain.CategoryHobby,
}

var topics = []struct {
	title string
	tags  []string
}{
	{"Profiling a slow HTTP handler", []string{"#Go", "#Performance"}},
	{"Notes on container networking", []string{"#Docker", "#Networking"}},
	{"Weekly kernel reading", []string{"#Linux", "#Kernel"}},
	{"Prompt patterns that actually help", []string{"#LLM", "#Prompting"}},
	{"Trimming a cloud bill", []string{"#AWS", "#Cost"}},
	{"Home espresso dial-in log", []string{"#Coffee", "#Espresso"}},
	{"Migrating a cron job to a worker pool", []string{"#Go", "#Concurrency"}},
	{"Debugging a flaky integration test", []string{"#Testing", "#CI"}},
}

func main() {
	flag.Parse()

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/espresso/db")
	}

	fmt.Printf("Opening database at: %s\n", dbPath)

	s, err := store.New(dbPath, nil, store.NewNoopEmitter())
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	created := 0
	for i := 0; i < *count; i++ {
		topic := topics[rand.Intn(len(topics))]

		reportID, err := id.Generate("rpt")
		if err != nil {
			log.Fatalf("Failed to generate ID: %v", err)
		}

		report := &domain.Report{
			Title:       fmt.Sprintf("%s #%d", topic.title, i+1),
			Content:     sampleContent(topic.title),
			Summary:     fmt.Sprintf("Working notes on %s.", topic.title),
			Category:    categories[rand.Intn(len(categories))],
			Author:      domain.LocalUsername,
			PublishDate: time.Now().AddDate(0, 0, -rand.Intn(90)).Format("2006-01-02"),
			Tags:        normalize.Dedupe(topic.tags),
		}
		report.ID = reportID
		report.InitTimestamps()

		if err := s.CreateReport(ctx, report); err != nil {
			log.Fatalf("Failed to create report: %v", err)
		}
		created++
	}

	fmt.Printf("Created %d reports\n", created)

	tags, err := s.ListTagNames(ctx)
	if err != nil {
		log.Fatalf("Failed to list tags: %v", err)
	}
	fmt.Printf("Tag vocabulary now has %d entries\n", len(tags))
}

func sampleContent(title string) string {
	return fmt.Sprintf(`## %s

Quick notes from today.

・what worked
・what did not
・what to try next

More detail to follow in the next report.
`, title)
}
