package main

import (
	"context"
	"fmt"
	"log"

	"plinvoice/internal/config"
	"plinvoice/internal/handler"
	"plinvoice/internal/ncm"
	"plinvoice/internal/parser"
	"plinvoice/internal/parser/gemini"
	"plinvoice/internal/repository/postgres"
	"plinvoice/internal/router"
	"plinvoice/internal/service"
	s3storage "plinvoice/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// The NCM master list is loaded once at startup; the lookup is
	// read-only afterwards and shared across requests without locking.
	ncmRepo := postgres.NewNCMRepo(db)
	entries, err := ncmRepo.LoadAll(context.Background())
	if err != nil {
		return fmt.Errorf("failed to load NCM codes: %w", err)
	}
	ncmLookup := ncm.NewLookup(entries)
	log.Printf("server: NCM lookup ready (%d codes)", ncmLookup.Len())

	extractionRepo := postgres.NewExtractionRepo(db)

	storage, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	geminiClient := gemini.NewClient(&cfg.Gemini)
	extractor := parser.NewExtractor(geminiClient, cfg.Gemini.MaxAttempts)

	extractionSvc := service.NewExtractionService(
		extractionRepo, storage, extractor, geminiClient.Model(), &cfg.S3)

	extractionH := handler.NewExtractionHandler(extractionSvc)
	ncmH := handler.NewNCMHandler(ncmLookup)
	healthH := handler.NewHealthHandler(db)

	r := router.Setup(cfg, extractionH, ncmH, healthH)

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
