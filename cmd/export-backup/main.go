package main

import (
	"context"
	"flag"
	"log"
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
		backupDir = flag.String("out", "backups", "directory to write the backup file into")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := storage.DefaultConfig()
	if *dbPath != "" {
		cfg.Path = *dbPath
	}

	kv := storage.MustOpen(cfg)
	defer kv.Close()

	store := collection.NewStore(kv, events.NewBus(), zap.NewNop())
	engine := backup.NewEngine(store, events.NewBus(), zap.NewNop(), *backupDir, "")

	path, err := engine.Export(ctx)
	if err != nil {
		log.Fatalf("export failed: %v", err)
	}

	log.Printf("✅ exported collection backup to %s", path)
}
