package maintenance

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"retrohub/internal/collection"
	"retrohub/internal/notify"
	"retrohub/pkg/dates"
)

// Scheduler reads the collection, classifies maintenance and keeps the
// reminder registry in sync. Marking an item done goes through the
// store's update path so the next due date is recomputed there.
type Scheduler struct {
	Store    *collection.Store
	Registry *notify.Registry
	Log      *zap.Logger

	now func() time.Time
}

func NewScheduler(store *collection.Store, registry *notify.Registry, log *zap.Logger) *Scheduler {
	return &Scheduler{Store: store, Registry: registry, Log: log, now: time.Now}
}

func (s *Scheduler) Schedule(ctx context.Context) ([]Item, error) {
	doc, err := s.Store.Get(ctx)
	if err != nil {
		return nil, err
	}
	return BuildSchedule(doc, s.now()), nil
}

// MarkDone stamps today's local calendar date as the last maintenance
// date. Returns false when no entity matches.
func (s *Scheduler) MarkDone(ctx context.Context, kind, id string) (bool, error) {
	today := dates.Today(s.now())

	switch kind {
	case KindConsole:
		updated, err := s.Store.UpdateConsole(ctx, id, collection.ConsolePatch{
			LastMaintenanceDate: &today,
		})
		if err != nil {
			return false, err
		}
		return updated != nil, nil
	case KindAccessory:
		updated, err := s.Store.UpdateAccessory(ctx, id, collection.AccessoryPatch{
			LastMaintenanceDate: &today,
		})
		if err != nil {
			return false, err
		}
		return updated != nil, nil
	default:
		return false, fmt.Errorf("unknown entity kind %q", kind)
	}
}

// SyncReminders rebuilds the reminder registry from the current
// schedule. Items with notifications disabled or without a derivable
// due date drop out; re-synced items replace their previous entry.
func (s *Scheduler) SyncReminders(ctx context.Context) error {
	if s.Registry == nil {
		return nil
	}

	items, err := s.Schedule(ctx)
	if err != nil {
		return err
	}

	keep := make(map[notify.Key]bool, len(items))
	for _, it := range items {
		if !it.Notify {
			continue
		}
		key := notify.Key{Kind: it.Kind, ID: it.ID}
		keep[key] = true
		s.Registry.Schedule(notify.Reminder{
			Key:           key,
			Name:          it.Name,
			DueDate:       it.NextMaintenanceDate,
			DaysRemaining: it.DaysRemaining,
		})
	}
	s.Registry.Prune(keep)

	s.Log.Debug("reminders synced", zap.Int("scheduled", len(keep)))
	return nil
}
