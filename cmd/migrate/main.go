package main

// Applies the embedded schema migrations, including the pgvector extension
// and the match_document_sections function:
//   go run ./cmd/migrate
//
// DATABASE_URL must point at a Postgres with the pgvector extension
// available; the API and worker refuse vector search without it.

import (
	"context"
	"log"

	"healthmate-backend/internal/shared/config"
	"healthmate-backend/internal/shared/storage/db"
)

func main() {
	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required to migrate")
	}
	ctx := context.Background()

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer sqlDB.Close()

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		log.Fatalf("run migrations: %v", err)
	}
	log.Print("migrations applied")
}
