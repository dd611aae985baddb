// Seeds the activity registry from the ACTIVITIES configuration without
// starting the server. Useful after migrations in fresh environments.
package main

import (
	"context"
	"database/sql"
	"log"
	"time"

	_ "github.com/lib/pq"

	"github.com/commitpool/commitpool/application/usecase"
	"github.com/commitpool/commitpool/infrastructure/adapter/postgres"
	"github.com/commitpool/commitpool/infrastructure/config"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if cfg.StoreBackend != "postgres" {
		log.Fatal("seeding requires STORE_BACKEND=postgres")
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		log.Fatalf("failed to ping database: %v", err)
	}

	seeds := make([]usecase.ActivitySeed, 0, len(cfg.Activities))
	for _, spec := range cfg.Activities {
		seeds = append(seeds, usecase.ActivitySeed{
			Name:           spec.Name,
			Measures:       spec.Measures,
			GoalLowerBound: spec.GoalLowerBound,
			GoalUpperBound: spec.GoalUpperBound,
			OracleRef:      cfg.OracleRef,
		})
	}

	created, err := usecase.SeedActivities(ctx, postgres.NewStore(db), seeds)
	if err != nil {
		log.Fatalf("failed to seed activities: %v", err)
	}
	log.Printf("seeded %d of %d activities", created, len(seeds))
}
