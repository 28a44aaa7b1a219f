package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"retrohub/internal/backup"
	"retrohub/internal/collection"
	"retrohub/internal/events"
	"retrohub/pkg/storage"
)

func main() {
	var (
		dbPath    = flag.String("db", "", "path to the collection database (defaults to RETROHUB_DB_PATH)")
		inPath    = flag.String("in", "", "backup JSON file to restore from (required)")
		imagesDir = flag.String("images", "images", "directory to restore embedded cover images into")
	)
	flag.Parse()

	if *inPath == "" {
		log.Fatal("missing required -in flag")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	cfg := storage.DefaultConfig()
	if *dbPath != "" {
		cfg.Path = *dbPath
	}

	kv := storage.MustOpen(cfg)
	defer kv.Close()

	f, err := os.Open(*inPath)
	if err != nil {
		log.Fatalf("open backup file: %v", err)
	}
	defer f.Close()

	store := collection.NewStore(kv, events.NewBus(), zap.NewNop())
	engine := backup.NewEngine(store, events.NewBus(), zap.NewNop(), "", *imagesDir)

	if err := engine.Restore(ctx, f); err != nil {
		log.Fatalf("restore failed: %v", err)
	}

	log.Printf("✅ restored collection from %s", *inPath)
}
