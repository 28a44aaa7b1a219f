// Package maintenance derives due dates and urgency classification for
// consoles and accessories. Classification is pure: it reads entity
// fields and the clock, nothing else, and persists nothing.
package maintenance

import (
	"math"
	"sort"
	"time"

	"retrohub/pkg/dates"
	"retrohub/pkg/models"
)

type Status string

const (
	StatusOverdue   Status = "overdue"
	StatusUrgent    Status = "urgent"
	StatusAttention Status = "attention"
	StatusNormal    Status = "normal"
)

const (
	urgentWithinDays    = 7
	attentionWithinDays = 15
)

const (
	KindConsole   = "console"
	KindAccessory = "accessory"
)

// Item is one classified schedule entry.
type Item struct {
	Kind                string `json:"kind"`
	ID                  string `json:"id"`
	Name                string `json:"name"`
	NextMaintenanceDate string `json:"next_maintenance_date"`
	DaysRemaining       int    `json:"days_remaining"`
	Status              Status `json:"status"`
	Notify              bool   `json:"notify"`
}

// DaysRemaining is ceil((next - now) / 1 day). A due date one day in
// the past yields -1; a date later today yields 0.
func DaysRemaining(next, now time.Time) int {
	return int(math.Ceil(next.Sub(now).Hours() / 24))
}

func Classify(daysRemaining int) Status {
	switch {
	case daysRemaining < 0:
		return StatusOverdue
	case daysRemaining <= urgentWithinDays:
		return StatusUrgent
	case daysRemaining <= attentionWithinDays:
		return StatusAttention
	default:
		return StatusNormal
	}
}

// BuildSchedule classifies every console and accessory with a derivable
// due date, most urgent first. Items without a next maintenance date
// (including those with an interval but no last maintenance date) are
// silently omitted, not reported as errors.
func BuildSchedule(doc models.CollectionDocument, now time.Time) []Item {
	var items []Item

	for _, c := range doc.Consoles {
		if it, ok := classifyEntity(KindConsole, c.ID, c.Name, c.Maintenance, now); ok {
			items = append(items, it)
		}
	}
	for _, a := range doc.Accessories {
		if it, ok := classifyEntity(KindAccessory, a.ID, a.Name, a.Maintenance, now); ok {
			items = append(items, it)
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].DaysRemaining < items[j].DaysRemaining
	})
	return items
}

func classifyEntity(kind, id, name string, m models.Maintenance, now time.Time) (Item, bool) {
	if m.NextMaintenanceDate == "" {
		return Item{}, false
	}
	next, err := dates.Parse(m.NextMaintenanceDate)
	if err != nil {
		return Item{}, false
	}

	days := DaysRemaining(next, now)
	return Item{
		Kind:                kind,
		ID:                  id,
		Name:                name,
		NextMaintenanceDate: m.NextMaintenanceDate,
		DaysRemaining:       days,
		Status:              Classify(days),
		Notify:              m.NotifyMaintenance,
	}, true
}
