package models

// Maintenance holds the preventive-maintenance fields shared by consoles
// and accessories. Dates are calendar dates formatted DD/MM/YYYY.
// NextMaintenanceDate is derived from the other two and stored
// denormalized; the store recomputes it whenever either input changes.
type Maintenance struct {
	LastMaintenanceDate       string `json:"last_maintenance_date,omitempty"`
	MaintenanceIntervalMonths int    `json:"maintenance_interval_months,omitempty"`
	NotifyMaintenance         bool   `json:"notify_maintenance,omitempty"`
	NextMaintenanceDate       string `json:"next_maintenance_date,omitempty"`
}

type Game struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	ConsoleID    string         `json:"console_id,omitempty"` // soft reference, may dangle
	Genre        string         `json:"genre,omitempty"`
	Region       string         `json:"region,omitempty"`
	ReleaseYear  int            `json:"release_year,omitempty"`
	PurchaseDate string         `json:"purchase_date,omitempty"`
	IsPhysical   bool           `json:"is_physical"`
	ImageURL     string         `json:"image_url,omitempty"`
	ImageBase64  string         `json:"image_base64,omitempty"` // only present inside backup files
	ExternalID   string         `json:"external_id,omitempty"`
	PricePaid    *float64       `json:"price_paid,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"` // blob fetched from the remote metadata API
}

type Console struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Brand        string   `json:"brand"`
	Model        string   `json:"model"`
	Region       string   `json:"region,omitempty"`
	PurchaseDate string   `json:"purchase_date,omitempty"`
	Condition    string   `json:"condition,omitempty"`
	ImageURL     string   `json:"image_url,omitempty"`
	ImageBase64  string   `json:"image_base64,omitempty"`
	PricePaid    *float64 `json:"price_paid,omitempty"`
	Maintenance
}

type Accessory struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	ConsoleID    string   `json:"console_id,omitempty"` // soft reference, may dangle
	PurchaseDate string   `json:"purchase_date,omitempty"`
	Condition    string   `json:"condition,omitempty"`
	ImageURL     string   `json:"image_url,omitempty"`
	ImageBase64  string   `json:"image_base64,omitempty"`
	PricePaid    *float64 `json:"price_paid,omitempty"`
	Maintenance
}

// Wishlist item types and priorities.
const (
	WishGame      = "game"
	WishConsole   = "console"
	WishAccessory = "accessory"
	WishOther     = "other"

	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

type WishlistItem struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Type           string   `json:"type"` // game, console, accessory, other
	Description    string   `json:"description,omitempty"`
	Priority       string   `json:"priority,omitempty"` // low, medium, high
	EstimatedPrice *float64 `json:"estimated_price,omitempty"`
}
