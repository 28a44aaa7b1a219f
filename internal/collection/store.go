package collection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"retrohub/internal/events"
	"retrohub/pkg/models"
	"retrohub/pkg/storage"
)

// documentKey is the single storage slot the whole collection lives in.
const documentKey = "collection"

var ErrValidation = errors.New("validation")

// Store owns the collection document. Every mutation is a
// read-modify-write cycle over the full serialized document; mu
// serializes those cycles so two concurrent mutations cannot drop each
// other's writes. Readers of console_id references must treat a
// dangling id as "unknown console"; the store never enforces
// referential integrity.
//
// UpdateX and DeleteX on an id that does not exist are intentional
// no-ops: they return no error and leave the document untouched.
type Store struct {
	mu  sync.Mutex
	kv  storage.KV
	bus *events.Bus
	log *zap.Logger
}

func NewStore(kv storage.KV, bus *events.Bus, log *zap.Logger) *Store {
	return &Store{kv: kv, bus: bus, log: log}
}

// Get returns the whole collection document, an empty one on first
// access.
func (s *Store) Get(ctx context.Context) (models.CollectionDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Store) load(ctx context.Context) (models.CollectionDocument, error) {
	raw, ok, err := s.kv.Get(ctx, documentKey)
	if err != nil {
		return models.CollectionDocument{}, fmt.Errorf("load collection: %w", err)
	}
	if !ok {
		return models.NewCollectionDocument(), nil
	}

	var doc models.CollectionDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return models.CollectionDocument{}, fmt.Errorf("decode collection: %w", err)
	}
	doc.Normalize()
	return doc, nil
}

func (s *Store) save(ctx context.Context, doc models.CollectionDocument) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode collection: %w", err)
	}
	if err := s.kv.Set(ctx, documentKey, b); err != nil {
		return fmt.Errorf("save collection: %w", err)
	}
	return nil
}

// ReplaceAll overwrites the persisted document in one write. Used by
// restore; emits no event, the caller decides what to broadcast.
func (s *Store) ReplaceAll(ctx context.Context, doc models.CollectionDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc.Normalize()
	return s.save(ctx, doc)
}

// newID builds an id from an epoch-millis prefix and a random suffix.
// Ids are assigned once at creation and never reassigned; collision
// probability is treated as negligible, not cryptographically
// guaranteed.
func newID() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

func (s *Store) publish(kind, id string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.Event{Type: events.TypeDataChanged, Kind: kind, ID: id})
}

func requireName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	return nil
}

func (s *Store) AddGame(ctx context.Context, g models.Game) (models.Game, error) {
	if err := requireName(g.Name); err != nil {
		return models.Game{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return models.Game{}, err
	}

	g.ID = newID()
	g.ImageBase64 = ""
	doc.Games = append(doc.Games, g)

	if err := s.save(ctx, doc); err != nil {
		return models.Game{}, err
	}
	s.publish(events.KindGame, g.ID)
	return g, nil
}

func (s *Store) AddConsole(ctx context.Context, c models.Console) (models.Console, error) {
	if err := requireName(c.Name); err != nil {
		return models.Console{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return models.Console{}, err
	}

	c.ID = newID()
	c.ImageBase64 = ""
	recomputeNext(&c.Maintenance)
	doc.Consoles = append(doc.Consoles, c)

	if err := s.save(ctx, doc); err != nil {
		return models.Console{}, err
	}
	s.publish(events.KindConsole, c.ID)
	return c, nil
}

func (s *Store) AddAccessory(ctx context.Context, a models.Accessory) (models.Accessory, error) {
	if err := requireName(a.Name); err != nil {
		return models.Accessory{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return models.Accessory{}, err
	}

	a.ID = newID()
	a.ImageBase64 = ""
	recomputeNext(&a.Maintenance)
	doc.Accessories = append(doc.Accessories, a)

	if err := s.save(ctx, doc); err != nil {
		return models.Accessory{}, err
	}
	s.publish(events.KindAccessory, a.ID)
	return a, nil
}

func (s *Store) AddWishlistItem(ctx context.Context, w models.WishlistItem) (models.WishlistItem, error) {
	if err := requireName(w.Name); err != nil {
		return models.WishlistItem{}, err
	}
	if w.Type == "" {
		w.Type = models.WishOther
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return models.WishlistItem{}, err
	}

	w.ID = newID()
	doc.Wishlist = append(doc.Wishlist, w)

	if err := s.save(ctx, doc); err != nil {
		return models.WishlistItem{}, err
	}
	s.publish(events.KindWishlist, w.ID)
	return w, nil
}

func (s *Store) UpdateGame(ctx context.Context, id string, p GamePatch) (*models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	for i := range doc.Games {
		if doc.Games[i].ID != id {
			continue
		}
		applyGamePatch(&doc.Games[i], p)
		if err := s.save(ctx, doc); err != nil {
			return nil, err
		}
		s.publish(events.KindGame, id)
		out := doc.Games[i]
		return &out, nil
	}
	return nil, nil // unknown id: no-op
}

func (s *Store) UpdateConsole(ctx context.Context, id string, p ConsolePatch) (*models.Console, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	for i := range doc.Consoles {
		if doc.Consoles[i].ID != id {
			continue
		}
		applyConsolePatch(&doc.Consoles[i], p)
		if err := s.save(ctx, doc); err != nil {
			return nil, err
		}
		s.publish(events.KindConsole, id)
		out := doc.Consoles[i]
		return &out, nil
	}
	return nil, nil
}

func (s *Store) UpdateAccessory(ctx context.Context, id string, p AccessoryPatch) (*models.Accessory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	for i := range doc.Accessories {
		if doc.Accessories[i].ID != id {
			continue
		}
		applyAccessoryPatch(&doc.Accessories[i], p)
		if err := s.save(ctx, doc); err != nil {
			return nil, err
		}
		s.publish(events.KindAccessory, id)
		out := doc.Accessories[i]
		return &out, nil
	}
	return nil, nil
}

func (s *Store) UpdateWishlistItem(ctx context.Context, id string, p WishlistPatch) (*models.WishlistItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	for i := range doc.Wishlist {
		if doc.Wishlist[i].ID != id {
			continue
		}
		applyWishlistPatch(&doc.Wishlist[i], p)
		if err := s.save(ctx, doc); err != nil {
			return nil, err
		}
		s.publish(events.KindWishlist, id)
		out := doc.Wishlist[i]
		return &out, nil
	}
	return nil, nil
}

func (s *Store) DeleteGame(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return err
	}

	kept := doc.Games[:0]
	for _, g := range doc.Games {
		if g.ID != id {
			kept = append(kept, g)
		}
	}
	if len(kept) == len(doc.Games) {
		return nil // unknown id: no-op
	}
	doc.Games = kept

	if err := s.save(ctx, doc); err != nil {
		return err
	}
	s.publish(events.KindGame, id)
	return nil
}

func (s *Store) DeleteConsole(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return err
	}

	kept := doc.Consoles[:0]
	for _, c := range doc.Consoles {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(doc.Consoles) {
		return nil
	}
	doc.Consoles = kept

	if err := s.save(ctx, doc); err != nil {
		return err
	}
	s.publish(events.KindConsole, id)
	return nil
}

func (s *Store) DeleteAccessory(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return err
	}

	kept := doc.Accessories[:0]
	for _, a := range doc.Accessories {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	if len(kept) == len(doc.Accessories) {
		return nil
	}
	doc.Accessories = kept

	if err := s.save(ctx, doc); err != nil {
		return err
	}
	s.publish(events.KindAccessory, id)
	return nil
}

func (s *Store) DeleteWishlistItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return err
	}

	kept := doc.Wishlist[:0]
	for _, w := range doc.Wishlist {
		if w.ID != id {
			kept = append(kept, w)
		}
	}
	if len(kept) == len(doc.Wishlist) {
		return nil
	}
	doc.Wishlist = kept

	if err := s.save(ctx, doc); err != nil {
		return err
	}
	s.publish(events.KindWishlist, id)
	return nil
}
