package backup

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"retrohub/internal/collection"
	"retrohub/internal/events"
	"retrohub/pkg/models"
	"retrohub/pkg/storage"
)

func newTestEngine(t *testing.T) (*Engine, *collection.Store, *events.Bus) {
	t.Helper()
	kv, err := storage.Open(storage.Config{Path: filepath.Join(t.TempDir(), "data.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	bus := events.NewBus()
	store := collection.NewStore(kv, bus, zap.NewNop())
	engine := NewEngine(store, bus, zap.NewNop(), t.TempDir(), t.TempDir())
	return engine, store, bus
}

func writeImage(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cover.png")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExportEmbedsLocalImages(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	ctx := context.Background()

	img := writeImage(t, "png-bytes")
	_, err := store.AddGame(ctx, models.Game{Name: "Metroid", ImageURL: img})
	require.NoError(t, err)

	path, err := engine.Export(ctx)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var f File
	require.NoError(t, json.Unmarshal(raw, &f))
	require.Len(t, f.Games, 1)
	assert.Empty(t, f.Games[0].ImageURL)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("png-bytes")), f.Games[0].ImageBase64)
	assert.Equal(t, Version, f.Version)
	assert.NotEmpty(t, f.Timestamp)
}

func TestExportDropsRemoteImages(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := store.AddConsole(ctx, models.Console{
		Name: "Dreamcast", Brand: "Sega", Model: "HKT-3020",
		ImageURL: "https://example.com/dc.jpg",
	})
	require.NoError(t, err)

	path, err := engine.Export(ctx)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var f File
	require.NoError(t, json.Unmarshal(raw, &f))
	require.Len(t, f.Consoles, 1)
	assert.Empty(t, f.Consoles[0].ImageURL)
	assert.Empty(t, f.Consoles[0].ImageBase64)
}

func TestExportToleratesUnreadableImage(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := store.AddGame(ctx, models.Game{Name: "A", ImageURL: "/no/such/file.png"})
	require.NoError(t, err)
	_, err = store.AddGame(ctx, models.Game{Name: "B"})
	require.NoError(t, err)

	path, err := engine.Export(ctx)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var f File
	require.NoError(t, json.Unmarshal(raw, &f))
	assert.Len(t, f.Games, 2)
	assert.Empty(t, f.Games[0].ImageBase64)
}

func TestExportFilenameHasDayGranularity(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	engine.now = func() time.Time {
		return time.Date(2024, time.March, 9, 15, 4, 5, 0, time.UTC)
	}

	path, err := engine.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "retrohub-backup-09-03-2024.json", filepath.Base(path))

	// a second export the same day lands on the same file
	again, err := engine.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, path, again)
}

func TestRoundTrip(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	ctx := context.Background()

	img := writeImage(t, "cartridge-label")
	game, err := store.AddGame(ctx, models.Game{
		Name: "Chrono Trigger", Genre: "RPG", IsPhysical: true, ImageURL: img,
	})
	require.NoError(t, err)

	console, err := store.AddConsole(ctx, models.Console{
		Name: "PS5", Brand: "Sony", Model: "Slim", PurchaseDate: "01/01/2024",
	})
	require.NoError(t, err)
	updated, err := store.UpdateConsole(ctx, console.ID, collection.ConsolePatch{
		LastMaintenanceDate:       strp("01/06/2024"),
		MaintenanceIntervalMonths: intp(6),
	})
	require.NoError(t, err)
	require.Equal(t, "01/12/2024", updated.NextMaintenanceDate)

	path, err := engine.Export(ctx)
	require.NoError(t, err)

	// restore into a fresh, empty store
	engine2, store2, _ := newTestEngine(t)
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, engine2.Restore(ctx, f))

	doc, err := store2.Get(ctx)
	require.NoError(t, err)
	require.Len(t, doc.Games, 1)
	require.Len(t, doc.Consoles, 1)

	// ids are part of the entity and survive restore
	got := doc.Games[0]
	assert.Equal(t, game.ID, got.ID)
	assert.Equal(t, "Chrono Trigger", got.Name)

	// the image is re-materialized at a new path with identical content
	require.NotEmpty(t, got.ImageURL)
	assert.NotEqual(t, img, got.ImageURL)
	content, err := os.ReadFile(got.ImageURL)
	require.NoError(t, err)
	assert.Equal(t, []byte("cartridge-label"), content)
	assert.Empty(t, got.ImageBase64)

	restored := doc.Consoles[0]
	assert.Equal(t, console.ID, restored.ID)
	assert.Equal(t, "Sony", restored.Brand)
	assert.Equal(t, "Slim", restored.Model)
	assert.Equal(t, "01/01/2024", restored.PurchaseDate)
	assert.Equal(t, "01/06/2024", restored.LastMaintenanceDate)
	assert.Equal(t, 6, restored.MaintenanceIntervalMonths)
	assert.Equal(t, "01/12/2024", restored.NextMaintenanceDate)
}

func TestRestoreRejectsMissingVersion(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	body := `{"games":[],"consoles":[],"accessories":[],"wishlist":[],"timestamp":"2024-01-01T00:00:00Z"}`
	err := engine.Restore(context.Background(), strings.NewReader(body))
	assert.ErrorIs(t, err, ErrInvalidBackup)
}

func TestRestoreRejectsMissingTimestamp(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	body := `{"games":[],"consoles":[],"accessories":[],"wishlist":[],"version":"1"}`
	err := engine.Restore(context.Background(), strings.NewReader(body))
	assert.ErrorIs(t, err, ErrInvalidBackup)
}

func TestRestoreRejectsNonArrayCollection(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	body := `{"games":{},"consoles":[],"accessories":[],"wishlist":[],"timestamp":"2024-01-01T00:00:00Z","version":"1"}`
	err := engine.Restore(context.Background(), strings.NewReader(body))
	assert.ErrorIs(t, err, ErrInvalidBackup)

	body = `{"consoles":[],"accessories":[],"wishlist":[],"timestamp":"2024-01-01T00:00:00Z","version":"1"}`
	err = engine.Restore(context.Background(), strings.NewReader(body))
	assert.ErrorIs(t, err, ErrInvalidBackup)
}

func TestRestoreRejectsNonJSON(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	err := engine.Restore(context.Background(), bytes.NewReader([]byte("not json")))
	assert.ErrorIs(t, err, ErrInvalidBackup)
}

func TestInvalidRestoreLeavesStoreUntouched(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := store.AddGame(ctx, models.Game{Name: "keep me"})
	require.NoError(t, err)

	err = engine.Restore(ctx, strings.NewReader(`{"version":"1"}`))
	require.ErrorIs(t, err, ErrInvalidBackup)

	doc, err := store.Get(ctx)
	require.NoError(t, err)
	require.Len(t, doc.Games, 1)
	assert.Equal(t, "keep me", doc.Games[0].Name)
}

func TestRestoreEmptyBackupEmptiesStore(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := store.AddGame(ctx, models.Game{Name: "old"})
	require.NoError(t, err)

	body := `{"games":[],"consoles":[],"accessories":[],"wishlist":[],"timestamp":"2024-01-01T00:00:00Z","version":"1"}`
	require.NoError(t, engine.Restore(ctx, strings.NewReader(body)))

	doc, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, doc.Games)
	assert.Empty(t, doc.Consoles)
	assert.Empty(t, doc.Accessories)
	assert.Empty(t, doc.Wishlist)
}

func TestRestoreDegradesEntityWithBadImagePayload(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	ctx := context.Background()

	body := `{
		"games": [
			{"id":"g1","name":"Bad Image","image_base64":"%%%not-base64%%%"},
			{"id":"g2","name":"Good Image","image_base64":"` + base64.StdEncoding.EncodeToString([]byte("ok")) + `"}
		],
		"consoles": [], "accessories": [], "wishlist": [],
		"timestamp": "2024-01-01T00:00:00Z", "version": "1"
	}`
	require.NoError(t, engine.Restore(ctx, strings.NewReader(body)))

	doc, err := store.Get(ctx)
	require.NoError(t, err)
	require.Len(t, doc.Games, 2)

	assert.Empty(t, doc.Games[0].ImageURL)
	assert.Empty(t, doc.Games[0].ImageBase64)

	require.NotEmpty(t, doc.Games[1].ImageURL)
	content, err := os.ReadFile(doc.Games[1].ImageURL)
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), content)
}

func TestRestoreBroadcastsRestoreCompletedOnce(t *testing.T) {
	engine, _, bus := newTestEngine(t)
	ch, cancel := bus.Subscribe()
	defer cancel()

	body := `{"games":[],"consoles":[],"accessories":[],"wishlist":[],"timestamp":"2024-01-01T00:00:00Z","version":"1"}`
	require.NoError(t, engine.Restore(context.Background(), strings.NewReader(body)))

	ev := <-ch
	assert.Equal(t, events.TypeRestoreCompleted, ev.Type)

	select {
	case extra := <-ch:
		t.Fatalf("unexpected second event: %+v", extra)
	case <-time.After(100 * time.Millisecond):
	}
}

func strp(s string) *string { return &s }

func intp(n int) *int { return &n }
