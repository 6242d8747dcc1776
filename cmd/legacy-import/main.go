package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/stjosephms/school-site-api/internal/migration"
	"github.com/stjosephms/school-site-api/pkg/config"
	"github.com/stjosephms/school-site-api/pkg/database"
	"github.com/stjosephms/school-site-api/pkg/logger"
)

func main() {
	legacyDSN := flag.String("legacy-dsn", os.Getenv("LEGACY_DATABASE_DSN"),
		"connection string of the restored legacy backup database")
	timeout := flag.Duration("timeout", 10*time.Minute, "abort the run after this long")
	flag.Parse()

	if *legacyDSN == "" {
		log.Fatal("legacy DSN is required: pass -legacy-dsn or set LEGACY_DATABASE_DSN")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	target, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect target database", "error", err)
	}
	defer target.Close() //nolint:errcheck

	source, err := database.Open(*legacyDSN)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect legacy database", "error", err)
	}
	defer source.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	summary, err := migration.NewImporter(source, target, logr).Run(ctx)
	if err != nil {
		logr.Sugar().Errorw("migration failed", "error", err)
		os.Exit(1)
	}

	logr.Sugar().Infow("migration finished",
		"users", summary.Users,
		"school_info", summary.SchoolInfo,
		"categories", summary.Categories,
		"documents", summary.Documents,
		"documents_skipped", summary.SkippedDocuments,
		"news", summary.News)
}
