package main

import (
	"flag"
	"log"

	"github.com/oggyb/crushconnect/internal/config"
	"github.com/oggyb/crushconnect/internal/db"
)

func main() {
	count := flag.Int("users", 40, "number of demo users to create")
	flag.Parse()

	// Load configuration
	cfg := config.New()

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Fatalf("failed to init db: %v", err)
	}

	if err := db.SeedTestData(database, *count); err != nil {
		log.Fatalf("failed to seed: %v", err)
	}

	log.Println("Seeding completed.")
}
