package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"retrohub/internal/collection"
	"retrohub/internal/events"
	"retrohub/internal/maintenance"
	"retrohub/pkg/storage"
)

func main() {
	var (
		dbPath  = flag.String("db", "", "path to the collection database (defaults to RETROHUB_DB_PATH)")
		dueOnly = flag.Bool("due", false, "only show overdue and urgent items")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	cfg := storage.DefaultConfig()
	if *dbPath != "" {
		cfg.Path = *dbPath
	}

	kv := storage.MustOpen(cfg)
	defer kv.Close()

	store := collection.NewStore(kv, events.NewBus(), zap.NewNop())

	doc, err := store.Get(ctx)
	if err != nil {
		log.Fatalf("load collection: %v", err)
	}

	items := maintenance.BuildSchedule(doc, time.Now())
	if *dueOnly {
		kept := items[:0]
		for _, it := range items {
			if it.Status == maintenance.StatusOverdue || it.Status == maintenance.StatusUrgent {
				kept = append(kept, it)
			}
		}
		items = kept
	}

	if len(items) == 0 {
		fmt.Println("no maintenance scheduled")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STATUS\tKIND\tNAME\tNEXT DUE\tDAYS")
	for _, it := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", it.Status, it.Kind, it.Name, it.NextMaintenanceDate, it.DaysRemaining)
	}
	w.Flush()
}
