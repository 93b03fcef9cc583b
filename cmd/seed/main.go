// Command seed resets the customer schema and loads the CSV fixture into
// Postgres. Destructive: it drops existing customer and event rows first.
package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	customerx "github.com/techflow/careline/agent/customer"
	configx "github.com/techflow/careline/pkg/config"
	_ "github.com/techflow/careline/pkg/logger/autoload"
)

func main() {
	path := os.Getenv("CUSTOMERS_PATH")
	if path == "" {
		path = "data/customers.csv"
	}

	dbCfg := configx.MustNew[customerx.Config]("DATABASE")

	f, err := os.Open(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("open customer fixture")
	}
	customers, err := customerx.LoadCSV(f)
	f.Close()
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("parse customer fixture")
	}
	if len(customers) == 0 {
		log.Fatal().Str("path", path).Msg("fixture has no customers")
	}

	db, err := customerx.NewDB(*dbCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo := customerx.NewRepo(db)
	if err := repo.ResetSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("reset schema")
	}
	if err := repo.InsertCustomers(ctx, customers); err != nil {
		log.Fatal().Err(err).Msg("insert customers")
	}

	log.Info().Int("count", len(customers)).Str("path", path).Msg("seeded customers")
}
