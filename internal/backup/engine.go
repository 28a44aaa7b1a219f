package backup

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"retrohub/internal/collection"
	"retrohub/internal/events"
	"retrohub/pkg/models"
)

// Version tags every backup file this engine produces.
const Version = "1"

var ErrInvalidBackup = errors.New("invalid backup")

// File is the portable backup format: the four collections plus a
// timestamp and version tag. Inside this file entities carry their
// image inline as image_base64 instead of image_url.
type File struct {
	Consoles    []models.Console      `json:"consoles"`
	Games       []models.Game         `json:"games"`
	Accessories []models.Accessory    `json:"accessories"`
	Wishlist    []models.WishlistItem `json:"wishlist"`
	Timestamp   string                `json:"timestamp"`
	Version     string                `json:"version"`
}

// Engine serializes the whole collection to a backup file and restores
// it back. Image handling is best-effort in both directions: a single
// unreadable image never fails the whole export or restore, the entity
// just loses its image.
type Engine struct {
	Store     *collection.Store
	Bus       *events.Bus
	Log       *zap.Logger
	BackupDir string
	ImagesDir string

	now func() time.Time
}

func NewEngine(store *collection.Store, bus *events.Bus, log *zap.Logger, backupDir, imagesDir string) *Engine {
	return &Engine{
		Store:     store,
		Bus:       bus,
		Log:       log,
		BackupDir: backupDir,
		ImagesDir: imagesDir,
		now:       time.Now,
	}
}

// Export writes the full collection to a backup file and returns its
// path. Local images are embedded as base64; remote (http/https)
// images are dropped, so backups do not preserve remotely-sourced
// images. The filename has day granularity: two exports on the same
// calendar day overwrite each other.
func (e *Engine) Export(ctx context.Context) (string, error) {
	doc, err := e.Store.Get(ctx)
	if err != nil {
		return "", err
	}

	f := File{
		Consoles:    make([]models.Console, len(doc.Consoles)),
		Games:       make([]models.Game, len(doc.Games)),
		Accessories: make([]models.Accessory, len(doc.Accessories)),
		Wishlist:    append([]models.WishlistItem{}, doc.Wishlist...),
		Timestamp:   e.now().UTC().Format(time.RFC3339),
		Version:     Version,
	}

	for i, g := range doc.Games {
		g.ImageBase64 = e.embedImage(g.ID, g.ImageURL)
		g.ImageURL = ""
		f.Games[i] = g
	}
	for i, c := range doc.Consoles {
		c.ImageBase64 = e.embedImage(c.ID, c.ImageURL)
		c.ImageURL = ""
		f.Consoles[i] = c
	}
	for i, a := range doc.Accessories {
		a.ImageBase64 = e.embedImage(a.ID, a.ImageURL)
		a.ImageURL = ""
		f.Accessories[i] = a
	}

	b, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode backup: %w", err)
	}

	if err := os.MkdirAll(e.BackupDir, 0o755); err != nil {
		return "", fmt.Errorf("ensure backup dir: %w", err)
	}
	path := filepath.Join(e.BackupDir, fmt.Sprintf("retrohub-backup-%s.json", e.now().Format("02-01-2006")))
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}

	e.Log.Info("backup exported", zap.String("path", path))
	return path, nil
}

// embedImage reads a local image and returns it base64-encoded. Remote
// URLs and unreadable files yield ""; the entity is exported without
// an image.
func (e *Engine) embedImage(id, url string) string {
	if url == "" {
		return ""
	}
	if isRemote(url) {
		e.Log.Debug("dropping remote image from backup", zap.String("id", id), zap.String("url", url))
		return ""
	}
	b, err := os.ReadFile(url)
	if err != nil {
		e.Log.Warn("skipping unreadable image", zap.String("id", id), zap.Error(err))
		return ""
	}
	return base64.StdEncoding.EncodeToString(b)
}

func isRemote(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}

// Restore parses a backup, re-materializes embedded images as local
// files named by entity id, overwrites the persisted collection in one
// write and broadcasts restore.completed. Structural validation happens
// before any file or store I/O; a malformed backup is rejected whole,
// never partially applied.
func (e *Engine) Restore(ctx context.Context, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}

	if err := validate(data); err != nil {
		return err
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}

	for i := range f.Games {
		e.restoreImage(f.Games[i].ID, &f.Games[i].ImageURL, &f.Games[i].ImageBase64)
	}
	for i := range f.Consoles {
		e.restoreImage(f.Consoles[i].ID, &f.Consoles[i].ImageURL, &f.Consoles[i].ImageBase64)
	}
	for i := range f.Accessories {
		e.restoreImage(f.Accessories[i].ID, &f.Accessories[i].ImageURL, &f.Accessories[i].ImageBase64)
	}

	doc := models.CollectionDocument{
		Games:       f.Games,
		Consoles:    f.Consoles,
		Accessories: f.Accessories,
		Wishlist:    f.Wishlist,
	}
	if err := e.Store.ReplaceAll(ctx, doc); err != nil {
		return err
	}

	if e.Bus != nil {
		e.Bus.Publish(events.Event{Type: events.TypeRestoreCompleted})
	}
	e.Log.Info("restore completed",
		zap.Int("games", len(doc.Games)),
		zap.Int("consoles", len(doc.Consoles)),
		zap.Int("accessories", len(doc.Accessories)),
		zap.Int("wishlist", len(doc.Wishlist)))
	return nil
}

// validate checks the backup structure: version, timestamp and all
// four collections must be present, the collections as arrays. Empty
// arrays are fine: restoring an empty backup empties the store.
func validate(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("%w: not a JSON object", ErrInvalidBackup)
	}

	for _, key := range []string{"version", "timestamp"} {
		raw, ok := probe[key]
		if !ok {
			return fmt.Errorf("%w: missing %s", ErrInvalidBackup, key)
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil || s == "" {
			return fmt.Errorf("%w: missing %s", ErrInvalidBackup, key)
		}
	}

	for _, key := range []string{"games", "consoles", "accessories", "wishlist"} {
		raw, ok := probe[key]
		if !ok {
			return fmt.Errorf("%w: missing collection %s", ErrInvalidBackup, key)
		}
		var arr []json.RawMessage
		if err := json.Unmarshal(raw, &arr); err != nil {
			return fmt.Errorf("%w: %s is not an array", ErrInvalidBackup, key)
		}
	}
	return nil
}

// restoreImage writes the embedded payload to a local file named by
// entity id (ids are unique, so restored images cannot collide) and
// points image_url at it. Entities without a payload lose any exported
// image reference; a failed write degrades the entity to no image.
func (e *Engine) restoreImage(id string, url, b64 *string) {
	if *b64 == "" {
		*url = ""
		return
	}

	raw, err := base64.StdEncoding.DecodeString(*b64)
	if err != nil {
		e.Log.Warn("discarding undecodable image", zap.String("id", id), zap.Error(err))
		*url, *b64 = "", ""
		return
	}

	if err := os.MkdirAll(e.ImagesDir, 0o755); err != nil {
		e.Log.Warn("images dir unavailable", zap.String("id", id), zap.Error(err))
		*url, *b64 = "", ""
		return
	}

	path := filepath.Join(e.ImagesDir, id+".img")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		e.Log.Warn("failed to write restored image", zap.String("id", id), zap.Error(err))
		*url, *b64 = "", ""
		return
	}

	*url, *b64 = path, ""
}
