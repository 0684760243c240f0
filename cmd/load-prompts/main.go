package main

import (
	"flag"
	"log"

	"github.com/charue808/eikogames/internal/config"
	"github.com/charue808/eikogames/internal/db"
)

func main() {
	filePath := flag.String("file", "db/prompts.csv", "path to prompts csv (topic1,topic2)")
	flag.Parse()

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}

	conn, err := db.Open(config.Load())
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	inserted, err := db.LoadPrompts(conn, *filePath)
	if err != nil {
		log.Fatalf("failed to load prompts: %v", err)
	}
	log.Printf("loaded %d prompts from %s", inserted, *filePath)
}
