// Package main provides a read-only inspector for the embedded report database.
//
// Usage:
//
//	DB_PATH=~/espresso/db go run ./cmd/dbinspect
package main

import (
	"encoding/json/v2"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/espressoapp/espresso-server/internal/domain"
)

func main() {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/espresso/db")
	}

	opts := badger.DefaultOptions(dbPath).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	fmt.Println("=== Database Inspection ===")
	fmt.Println()

	reportCount := 0
	deletedCount := 0
	byCategory := make(map[string]int)
	tagSet := make(map[string]struct{})

	err = db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = []byte("report:")
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		for it.Seek([]byte("report:")); it.ValidForPrefix([]byte("report:")); it.Next() {
			item := it.Item()
			key := string(item.Key())

			// Skip index keys
			if strings.HasPrefix(strings.TrimPrefix(key, "report:"), "idx:") {
				continue
			}

			err := item.Value(func(val []byte) error {
				var report domain.Report
				if err := json.Unmarshal(val, &report); err != nil {
					return err
				}

				if report.IsDeleted() {
					deletedCount++
					return nil
				}

				reportCount++
				byCategory[report.Category]++
				for _, tag := range report.Tags {
					tagSet[tag] = struct{}{}
				}

				// Show the first few reports in full
				if reportCount <= 3 {
					fmt.Printf("Report: %s\n", report.Title)
					fmt.Printf("  ID: %s\n", report.ID)
					fmt.Printf("  Category: %s\n", report.Category)
					fmt.Printf("  Author: %s\n", report.Author)
					fmt.Printf("  Tags: %s\n", strings.Join(report.Tags, ", "))
					fmt.Printf("  Content: %d bytes\n", len(report.Content))
					fmt.Println()
				}

				return nil
			})
			if err != nil {
				log.Printf("Error reading report %s: %v", key, err)
			}
		}
		return nil
	})

	if err != nil {
		log.Fatalf("Error iterating database: %v", err)
	}

	fmt.Println("=== Summary ===")
	fmt.Printf("Total reports: %d\n", reportCount)
	fmt.Printf("Deleted (tombstoned): %d\n", deletedCount)
	fmt.Printf("Distinct tags: %d\n", len(tagSet))
	for category, count := range byCategory {
		fmt.Printf("  %s: %d\n", category, count)
	}
}
