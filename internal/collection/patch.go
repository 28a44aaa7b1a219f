package collection

import (
	"retrohub/pkg/dates"
	"retrohub/pkg/models"
)

// Patch types carry partial updates: only non-nil fields are applied,
// everything else keeps its stored value.

type GamePatch struct {
	Name         *string        `json:"name,omitempty"`
	ConsoleID    *string        `json:"console_id,omitempty"`
	Genre        *string        `json:"genre,omitempty"`
	Region       *string        `json:"region,omitempty"`
	ReleaseYear  *int           `json:"release_year,omitempty"`
	PurchaseDate *string        `json:"purchase_date,omitempty"`
	IsPhysical   *bool          `json:"is_physical,omitempty"`
	ImageURL     *string        `json:"image_url,omitempty"`
	ExternalID   *string        `json:"external_id,omitempty"`
	PricePaid    *float64       `json:"price_paid,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

type ConsolePatch struct {
	Name         *string  `json:"name,omitempty"`
	Brand        *string  `json:"brand,omitempty"`
	Model        *string  `json:"model,omitempty"`
	Region       *string  `json:"region,omitempty"`
	PurchaseDate *string  `json:"purchase_date,omitempty"`
	Condition    *string  `json:"condition,omitempty"`
	ImageURL     *string  `json:"image_url,omitempty"`
	PricePaid    *float64 `json:"price_paid,omitempty"`

	LastMaintenanceDate       *string `json:"last_maintenance_date,omitempty"`
	MaintenanceIntervalMonths *int    `json:"maintenance_interval_months,omitempty"`
	NotifyMaintenance         *bool   `json:"notify_maintenance,omitempty"`
}

type AccessoryPatch struct {
	Name         *string  `json:"name,omitempty"`
	Type         *string  `json:"type,omitempty"`
	ConsoleID    *string  `json:"console_id,omitempty"`
	PurchaseDate *string  `json:"purchase_date,omitempty"`
	Condition    *string  `json:"condition,omitempty"`
	ImageURL     *string  `json:"image_url,omitempty"`
	PricePaid    *float64 `json:"price_paid,omitempty"`

	LastMaintenanceDate       *string `json:"last_maintenance_date,omitempty"`
	MaintenanceIntervalMonths *int    `json:"maintenance_interval_months,omitempty"`
	NotifyMaintenance         *bool   `json:"notify_maintenance,omitempty"`
}

type WishlistPatch struct {
	Name           *string  `json:"name,omitempty"`
	Type           *string  `json:"type,omitempty"`
	Description    *string  `json:"description,omitempty"`
	Priority       *string  `json:"priority,omitempty"`
	EstimatedPrice *float64 `json:"estimated_price,omitempty"`
}

func applyGamePatch(g *models.Game, p GamePatch) {
	if p.Name != nil {
		g.Name = *p.Name
	}
	if p.ConsoleID != nil {
		g.ConsoleID = *p.ConsoleID
	}
	if p.Genre != nil {
		g.Genre = *p.Genre
	}
	if p.Region != nil {
		g.Region = *p.Region
	}
	if p.ReleaseYear != nil {
		g.ReleaseYear = *p.ReleaseYear
	}
	if p.PurchaseDate != nil {
		g.PurchaseDate = *p.PurchaseDate
	}
	if p.IsPhysical != nil {
		g.IsPhysical = *p.IsPhysical
	}
	if p.ImageURL != nil {
		g.ImageURL = *p.ImageURL
	}
	if p.ExternalID != nil {
		g.ExternalID = *p.ExternalID
	}
	if p.PricePaid != nil {
		g.PricePaid = p.PricePaid
	}
	if p.Metadata != nil {
		g.Metadata = p.Metadata
	}
}

func applyConsolePatch(c *models.Console, p ConsolePatch) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Brand != nil {
		c.Brand = *p.Brand
	}
	if p.Model != nil {
		c.Model = *p.Model
	}
	if p.Region != nil {
		c.Region = *p.Region
	}
	if p.PurchaseDate != nil {
		c.PurchaseDate = *p.PurchaseDate
	}
	if p.Condition != nil {
		c.Condition = *p.Condition
	}
	if p.ImageURL != nil {
		c.ImageURL = *p.ImageURL
	}
	if p.PricePaid != nil {
		c.PricePaid = p.PricePaid
	}
	applyMaintenancePatch(&c.Maintenance, p.LastMaintenanceDate, p.MaintenanceIntervalMonths, p.NotifyMaintenance)
}

func applyAccessoryPatch(a *models.Accessory, p AccessoryPatch) {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Type != nil {
		a.Type = *p.Type
	}
	if p.ConsoleID != nil {
		a.ConsoleID = *p.ConsoleID
	}
	if p.PurchaseDate != nil {
		a.PurchaseDate = *p.PurchaseDate
	}
	if p.Condition != nil {
		a.Condition = *p.Condition
	}
	if p.ImageURL != nil {
		a.ImageURL = *p.ImageURL
	}
	if p.PricePaid != nil {
		a.PricePaid = p.PricePaid
	}
	applyMaintenancePatch(&a.Maintenance, p.LastMaintenanceDate, p.MaintenanceIntervalMonths, p.NotifyMaintenance)
}

func applyWishlistPatch(w *models.WishlistItem, p WishlistPatch) {
	if p.Name != nil {
		w.Name = *p.Name
	}
	if p.Type != nil {
		w.Type = *p.Type
	}
	if p.Description != nil {
		w.Description = *p.Description
	}
	if p.Priority != nil {
		w.Priority = *p.Priority
	}
	if p.EstimatedPrice != nil {
		w.EstimatedPrice = p.EstimatedPrice
	}
}

// applyMaintenancePatch merges the maintenance fields and recomputes
// the denormalized next date whenever either input changed.
func applyMaintenancePatch(m *models.Maintenance, last *string, months *int, notify *bool) {
	if notify != nil {
		m.NotifyMaintenance = *notify
	}
	if last == nil && months == nil {
		return
	}
	if last != nil {
		m.LastMaintenanceDate = *last
	}
	if months != nil {
		m.MaintenanceIntervalMonths = *months
	}
	recomputeNext(m)
}

// recomputeNext derives next = last + interval months. Without a last
// date or a positive interval no due date can be derived and the field
// is cleared.
func recomputeNext(m *models.Maintenance) {
	if m.LastMaintenanceDate == "" || m.MaintenanceIntervalMonths <= 0 {
		m.NextMaintenanceDate = ""
		return
	}
	next, err := dates.AddMonths(m.LastMaintenanceDate, m.MaintenanceIntervalMonths)
	if err != nil {
		m.NextMaintenanceDate = ""
		return
	}
	m.NextMaintenanceDate = next
}
