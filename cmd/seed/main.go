package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/staffparty/partyhub/cmd/partyhub/repository"
	"github.com/staffparty/partyhub/common/bootstrap"
	"github.com/staffparty/partyhub/common/config"
	"github.com/staffparty/partyhub/common/db"
	"github.com/staffparty/partyhub/common/logger"
)

func main() {
	file := flag.String("file", "", "YAML programme to load (defaults to the embedded one)")
	flag.Parse()

	ctx := context.Background()

	prog, err := loadProgramme(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load programme: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load("seed")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Service.LogLevel, cfg.Service.LogFormat)

	// Seeding runs as the init hook, right after migrations
	components, err := bootstrap.Setup(ctx, "seed",
		bootstrap.WithCustomConfig(cfg),
		bootstrap.WithCustomLogger(log),
		bootstrap.WithMigrations(),
		bootstrap.WithoutRedis(),
		bootstrap.WithoutQueue(),
		bootstrap.WithoutCache(),
		bootstrap.WithoutTelemetry(),
		bootstrap.WithDBInitHook(func(ctx context.Context, database *db.DB) error {
			seeded, skipped, err := seedProgramme(ctx, repository.NewAgendaRepository(database), prog, log)
			if err != nil {
				return err
			}
			log.Info("Seeding finished", "seeded", seeded, "skipped", skipped)
			return nil
		}),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap seed: %v\n", err)
		os.Exit(1)
	}
	components.Shutdown(ctx)
}
