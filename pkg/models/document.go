package models

// CollectionDocument is the unit of persistence: all four collections are
// serialized and written together. There is no per-entity persistence;
// every mutation reads the whole document and writes it back.
type CollectionDocument struct {
	Games       []Game         `json:"games"`
	Consoles    []Console      `json:"consoles"`
	Accessories []Accessory    `json:"accessories"`
	Wishlist    []WishlistItem `json:"wishlist"`
}

// NewCollectionDocument returns an empty document with non-nil slices so
// it always serializes as four arrays, never null.
func NewCollectionDocument() CollectionDocument {
	return CollectionDocument{
		Games:       []Game{},
		Consoles:    []Console{},
		Accessories: []Accessory{},
		Wishlist:    []WishlistItem{},
	}
}

// Normalize replaces nil slices with empty ones. Documents read back from
// storage or a backup file may have been written with missing arrays.
func (d *CollectionDocument) Normalize() {
	if d.Games == nil {
		d.Games = []Game{}
	}
	if d.Consoles == nil {
		d.Consoles = []Console{}
	}
	if d.Accessories == nil {
		d.Accessories = []Accessory{}
	}
	if d.Wishlist == nil {
		d.Wishlist = []WishlistItem{}
	}
}
