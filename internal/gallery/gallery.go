// Package gallery manages the images a document can reference by
// identifier with #image("001").
//
// Each image is stored as one JSON record {id, filename, data, timestamp}
// under "image:<id>"; data is the payload as uploaded (usually a data URL).
package gallery

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/alnah/go-livepreview/internal/logging"
	"github.com/alnah/go-livepreview/internal/store"
)

// KeyPrefix prefixes the storage key of every image record.
const KeyPrefix = "image:"

// MaxFilenameLength bounds the stored file name.
const MaxFilenameLength = 255

// Sentinel errors for gallery operations.
var (
	ErrImageNotFound = errors.New("image not found")
	ErrInvalidID     = errors.New("invalid image id")
	ErrEmptyImage    = errors.New("image data cannot be empty")
	ErrFilename      = errors.New("filename exceeds maximum length")
)

// Image is one gallery entry.
type Image struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	Data      string `json:"data"`
	Timestamp int64  `json:"timestamp"` // Unix milliseconds
}

// Gallery stores images through the storage collaborator.
type Gallery struct {
	store  store.Store
	alloc  *Allocator
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Gallery.
type Option func(*Gallery)

// WithLogger sets the logger. Default discards.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gallery) {
		if l != nil {
			g.logger = l
		}
	}
}

// withClock replaces time.Now (for testing).
func withClock(now func() time.Time) Option {
	return func(g *Gallery) {
		g.now = now
	}
}

// New creates a gallery backed by s.
func New(s store.Store, opts ...Option) *Gallery {
	g := &Gallery{
		store:  s,
		alloc:  NewAllocator(s),
		now:    time.Now,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Allocator exposes the identifier allocator of the gallery.
func (g *Gallery) Allocator() *Allocator {
	return g.alloc
}

// Add allocates an identifier and stores the image under it.
func (g *Gallery) Add(ctx context.Context, data, filename string) (Image, error) {
	if strings.TrimSpace(data) == "" {
		return Image{}, ErrEmptyImage
	}
	if len(filename) > MaxFilenameLength {
		return Image{}, fmt.Errorf("%w: %d chars, max %d", ErrFilename, len(filename), MaxFilenameLength)
	}

	id, err := g.alloc.Next(ctx)
	if err != nil {
		return Image{}, err
	}
	img := Image{
		ID:        id,
		Filename:  filename,
		Data:      data,
		Timestamp: g.now().UnixMilli(),
	}
	raw, err := json.Marshal(img)
	if err != nil {
		return Image{}, fmt.Errorf("encoding image %s: %w", id, err)
	}
	if err := g.store.Put(ctx, KeyPrefix+id, raw); err != nil {
		return Image{}, fmt.Errorf("storing image %s: %w", id, err)
	}

	g.logger.Info("image stored", "id", id, "filename", filename)
	return img, nil
}

// Get returns the image with the given identifier.
func (g *Gallery) Get(ctx context.Context, id string) (Image, error) {
	if !ValidID(id) {
		return Image{}, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	raw, err := g.store.Get(ctx, KeyPrefix+id)
	if errors.Is(err, store.ErrNotFound) {
		return Image{}, fmt.Errorf("%w: %s", ErrImageNotFound, id)
	}
	if err != nil {
		return Image{}, fmt.Errorf("reading image %s: %w", id, err)
	}
	img, err := decode(raw)
	if err != nil {
		return Image{}, fmt.Errorf("decoding image %s: %w", id, err)
	}
	img.ID = id
	return img, nil
}

// Delete removes the image. Its identifier is not reissued.
func (g *Gallery) Delete(ctx context.Context, id string) error {
	if _, err := g.Get(ctx, id); err != nil {
		return err
	}
	if err := g.store.Delete(ctx, KeyPrefix+id); err != nil {
		return fmt.Errorf("deleting image %s: %w", id, err)
	}
	g.logger.Info("image deleted", "id", id)
	return nil
}

// List returns every image sorted by identifier. Unreadable records are
// skipped with a warning.
func (g *Gallery) List(ctx context.Context) ([]Image, error) {
	keys, err := g.store.List(ctx, KeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}

	images := make([]Image, 0, len(keys))
	for _, k := range keys {
		id := strings.TrimPrefix(k, KeyPrefix)
		raw, err := g.store.Get(ctx, k)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading image %s: %w", id, err)
		}
		img, err := decode(raw)
		if err != nil {
			g.logger.Warn("skipping unreadable image record", "id", id, "error", err)
			continue
		}
		img.ID = id
		images = append(images, img)
	}
	sort.Slice(images, func(i, j int) bool { return images[i].ID < images[j].ID })
	return images, nil
}

// Table returns the identifier to payload mapping fed to the assembler.
func (g *Gallery) Table(ctx context.Context) (map[string]string, error) {
	images, err := g.List(ctx)
	if err != nil {
		return nil, err
	}
	table := make(map[string]string, len(images))
	for _, img := range images {
		table[img.ID] = img.Data
	}
	return table, nil
}

// Clear deletes every image and resets the counter.
func (g *Gallery) Clear(ctx context.Context) error {
	keys, err := g.store.List(ctx, KeyPrefix)
	if err != nil {
		return fmt.Errorf("listing images: %w", err)
	}
	for _, k := range keys {
		if err := g.store.Delete(ctx, k); err != nil {
			return fmt.Errorf("deleting %s: %w", k, err)
		}
	}
	return g.alloc.Reset(ctx)
}

// Snippet returns the markup that references the image.
func Snippet(id string) string {
	return fmt.Sprintf("#image(%q)", id)
}

// DataURL encodes raw file content as a base64 data URL, sniffing the
// media type from the content.
func DataURL(content []byte) string {
	mime := http.DetectContentType(content)
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	if mime == "text/xml" || mime == "text/plain" {
		if strings.Contains(string(content[:min(len(content), 512)]), "<svg") {
			mime = "image/svg+xml"
		}
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(content)
}

func decode(raw []byte) (Image, error) {
	var img Image
	if err := json.Unmarshal(raw, &img); err != nil {
		return Image{}, err
	}
	return img, nil
}
