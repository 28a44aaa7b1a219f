package collection

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"retrohub/internal/events"
	"retrohub/pkg/models"
	"retrohub/pkg/storage"
)

func newTestStore(t *testing.T) (*Store, *events.Bus) {
	t.Helper()
	kv, err := storage.Open(storage.Config{Path: filepath.Join(t.TempDir(), "data.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	bus := events.NewBus()
	return NewStore(kv, bus, zap.NewNop()), bus
}

func strp(s string) *string { return &s }

func intp(n int) *int { return &n }

func floatp(f float64) *float64 { return &f }

func TestFirstAccessYieldsEmptyDocument(t *testing.T) {
	store, _ := newTestStore(t)
	doc, err := store.Get(context.Background())
	require.NoError(t, err)

	assert.NotNil(t, doc.Games)
	assert.NotNil(t, doc.Consoles)
	assert.NotNil(t, doc.Accessories)
	assert.NotNil(t, doc.Wishlist)
	assert.Empty(t, doc.Games)
}

func TestAddGameThenGet(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	in := models.Game{
		Name:         "Chrono Trigger",
		Genre:        "RPG",
		Region:       "NTSC-J",
		ReleaseYear:  1995,
		PurchaseDate: "10/03/2023",
		IsPhysical:   true,
		PricePaid:    floatp(120),
	}
	created, err := store.AddGame(ctx, in)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	doc, err := store.Get(ctx)
	require.NoError(t, err)
	require.Len(t, doc.Games, 1)

	got := doc.Games[0]
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, in.Name, got.Name)
	assert.Equal(t, in.Genre, got.Genre)
	assert.Equal(t, in.Region, got.Region)
	assert.Equal(t, in.ReleaseYear, got.ReleaseYear)
	assert.Equal(t, in.PurchaseDate, got.PurchaseDate)
	assert.Equal(t, in.IsPhysical, got.IsPhysical)
	require.NotNil(t, got.PricePaid)
	assert.Equal(t, 120.0, *got.PricePaid)
}

func TestAddRequiresName(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.AddGame(ctx, models.Game{Name: "  "})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = store.AddConsole(ctx, models.Console{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestIDsAreUnique(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		g, err := store.AddGame(ctx, models.Game{Name: fmt.Sprintf("game %d", i)})
		require.NoError(t, err)
		require.NotEmpty(t, g.ID)
		assert.False(t, seen[g.ID], "duplicate id %s", g.ID)
		seen[g.ID] = true
	}
}

func TestUpdateMergesOnlyProvidedFields(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	created, err := store.AddGame(ctx, models.Game{
		Name:        "Sonic 2",
		Genre:       "Platformer",
		Region:      "PAL",
		ReleaseYear: 1992,
		IsPhysical:  true,
	})
	require.NoError(t, err)

	updated, err := store.UpdateGame(ctx, created.ID, GamePatch{Genre: strp("Action")})
	require.NoError(t, err)
	require.NotNil(t, updated)

	assert.Equal(t, "Action", updated.Genre)
	assert.Equal(t, "Sonic 2", updated.Name)
	assert.Equal(t, "PAL", updated.Region)
	assert.Equal(t, 1992, updated.ReleaseYear)
	assert.True(t, updated.IsPhysical)
	assert.Equal(t, created.ID, updated.ID)
}

func TestUpdateUnknownIDIsNoOp(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.AddGame(ctx, models.Game{Name: "Tetris"})
	require.NoError(t, err)

	updated, err := store.UpdateGame(ctx, "no-such-id", GamePatch{Name: strp("changed")})
	require.NoError(t, err)
	assert.Nil(t, updated)

	doc, err := store.Get(ctx)
	require.NoError(t, err)
	require.Len(t, doc.Games, 1)
	assert.Equal(t, "Tetris", doc.Games[0].Name)
}

func TestDeleteUnknownIDIsNoOp(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.AddGame(ctx, models.Game{Name: "Tetris"})
	require.NoError(t, err)
	_, err = store.AddConsole(ctx, models.Console{Name: "Game Boy", Brand: "Nintendo", Model: "DMG-01"})
	require.NoError(t, err)

	require.NoError(t, store.DeleteGame(ctx, "no-such-id"))
	require.NoError(t, store.DeleteConsole(ctx, "no-such-id"))

	doc, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Len(t, doc.Games, 1)
	assert.Len(t, doc.Consoles, 1)
}

func TestDeleteRemovesEntity(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	a, err := store.AddGame(ctx, models.Game{Name: "A"})
	require.NoError(t, err)
	_, err = store.AddGame(ctx, models.Game{Name: "B"})
	require.NoError(t, err)

	require.NoError(t, store.DeleteGame(ctx, a.ID))

	doc, err := store.Get(ctx)
	require.NoError(t, err)
	require.Len(t, doc.Games, 1)
	assert.Equal(t, "B", doc.Games[0].Name)
}

func TestMaintenanceRecomputedOnUpdate(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	created, err := store.AddConsole(ctx, models.Console{
		Name: "PS5", Brand: "Sony", Model: "Slim", PurchaseDate: "01/01/2024",
	})
	require.NoError(t, err)
	assert.Empty(t, created.NextMaintenanceDate)

	updated, err := store.UpdateConsole(ctx, created.ID, ConsolePatch{
		LastMaintenanceDate:       strp("01/06/2024"),
		MaintenanceIntervalMonths: intp(6),
	})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "01/12/2024", updated.NextMaintenanceDate)

	// changing only the interval recomputes from the stored last date
	updated, err = store.UpdateConsole(ctx, created.ID, ConsolePatch{
		MaintenanceIntervalMonths: intp(3),
	})
	require.NoError(t, err)
	assert.Equal(t, "01/09/2024", updated.NextMaintenanceDate)

	// dropping the interval clears the derived date
	updated, err = store.UpdateConsole(ctx, created.ID, ConsolePatch{
		MaintenanceIntervalMonths: intp(0),
	})
	require.NoError(t, err)
	assert.Empty(t, updated.NextMaintenanceDate)
}

func TestMaintenanceComputedOnAdd(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	created, err := store.AddAccessory(ctx, models.Accessory{
		Name: "Arcade Stick", Type: "controller",
		Maintenance: models.Maintenance{
			LastMaintenanceDate:       "15/02/2024",
			MaintenanceIntervalMonths: 12,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "15/02/2025", created.NextMaintenanceDate)
}

func TestConcurrentUpdatesToDifferentCollectionsBothSurvive(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	g, err := store.AddGame(ctx, models.Game{Name: "game"})
	require.NoError(t, err)
	con, err := store.AddConsole(ctx, models.Console{Name: "console", Brand: "b", Model: "m"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = store.UpdateGame(ctx, g.ID, GamePatch{Genre: strp("RPG")})
	}()
	go func() {
		defer wg.Done()
		_, _ = store.UpdateConsole(ctx, con.ID, ConsolePatch{Condition: strp("mint")})
	}()
	wg.Wait()

	doc, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "RPG", doc.Games[0].Genre)
	assert.Equal(t, "mint", doc.Consoles[0].Condition)
}

func TestMutationsPublishDataChanged(t *testing.T) {
	store, bus := newTestStore(t)
	ctx := context.Background()

	ch, cancel := bus.Subscribe()
	defer cancel()

	created, err := store.AddWishlistItem(ctx, models.WishlistItem{Name: "EverDrive"})
	require.NoError(t, err)

	ev := <-ch
	assert.Equal(t, events.TypeDataChanged, ev.Type)
	assert.Equal(t, events.KindWishlist, ev.Kind)
	assert.Equal(t, created.ID, ev.ID)
}

func TestReplaceAllOverwritesDocument(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.AddGame(ctx, models.Game{Name: "old"})
	require.NoError(t, err)

	next := models.NewCollectionDocument()
	next.Games = append(next.Games, models.Game{ID: "kept-id", Name: "new"})
	require.NoError(t, store.ReplaceAll(ctx, next))

	doc, err := store.Get(ctx)
	require.NoError(t, err)
	require.Len(t, doc.Games, 1)
	assert.Equal(t, "kept-id", doc.Games[0].ID)
	assert.Equal(t, "new", doc.Games[0].Name)
}

func TestWishlistDefaultsTypeToOther(t *testing.T) {
	store, _ := newTestStore(t)

	created, err := store.AddWishlistItem(context.Background(), models.WishlistItem{Name: "Shelf"})
	require.NoError(t, err)
	assert.Equal(t, models.WishOther, created.Type)
}
