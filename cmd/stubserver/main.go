package main

import (
	"log"

	"github.com/example/doot/internal/config"
	"github.com/example/doot/internal/stub"
)

func main() {
	cfg := config.LoadStub()

	db, err := stub.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database setup failed: %v", err)
	}

	if err := stub.Seed(db); err != nil {
		log.Printf("seed failed: %v", err)
	}

	app := stub.NewServer(db, cfg)

	log.Printf("Starting API stub on :%s", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatalf("fiber.Listen error: %v", err)
	}
}
