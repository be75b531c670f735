package livepreview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"

	"github.com/alnah/go-livepreview/internal/assets"
	"github.com/alnah/go-livepreview/internal/gallery"
	"github.com/alnah/go-livepreview/internal/store"
)

// Storage keys of the editor state.
const (
	SourceKey       = "typst_source"
	BibliographyKey = "typst_bibliography"
)

var _ Snapshotter = (*Editor)(nil)

// Editor owns the document being edited: its source, its bibliography and
// the image table. Every change is applied in memory first, reported to the
// edit hook, then persisted. Snapshot returns copies, so an in-flight
// render never sees later edits.
type Editor struct {
	mu      sync.RWMutex
	source  string
	bib     string
	images  map[string]string
	store   store.Store
	gallery *gallery.Gallery
	onEdit  func(EditKind) Token
	logger  *slog.Logger
	closed  bool
}

// NewEditor creates an empty editor persisting through s.
func NewEditor(s store.Store, opts ...Option) *Editor {
	o := newOptions(opts)
	return &Editor{
		images:  map[string]string{},
		store:   s,
		gallery: gallery.New(s, gallery.WithLogger(o.logger)),
		logger:  o.logger,
	}
}

// OnEdit installs the hook called after every change (Scheduler.Notify).
func (e *Editor) OnEdit(fn func(EditKind) Token) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onEdit = fn
}

// Gallery returns the image gallery of the editor.
func (e *Editor) Gallery() *gallery.Gallery {
	return e.gallery
}

// Load restores the persisted state. A missing source or bibliography falls
// back to the embedded sample document and bibliography.
func (e *Editor) Load(ctx context.Context) error {
	source, err := e.loadText(ctx, SourceKey, assets.DefaultSource())
	if err != nil {
		return err
	}
	bib, err := e.loadText(ctx, BibliographyKey, assets.DefaultBibliography())
	if err != nil {
		return err
	}
	images, err := e.gallery.Table(ctx)
	if err != nil {
		return fmt.Errorf("loading images: %w", err)
	}

	e.mu.Lock()
	e.source, e.bib, e.images = source, bib, images
	e.mu.Unlock()

	e.logger.Debug("editor state loaded", "source_bytes", len(source), "images", len(images))
	return nil
}

func (e *Editor) loadText(ctx context.Context, key, fallback string) (string, error) {
	raw, err := e.store.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return fallback, nil
	}
	if err != nil {
		return "", fmt.Errorf("loading %s: %w", key, err)
	}
	return string(raw), nil
}

// close makes every later write fail with ErrClosed.
func (e *Editor) close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
}

func (e *Editor) checkOpen() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return ErrClosed
	}
	return nil
}

// SetSource replaces the source.
func (e *Editor) SetSource(ctx context.Context, source string) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.source = source
	e.mu.Unlock()

	e.notify(EditSource)
	if err := e.store.Put(ctx, SourceKey, []byte(source)); err != nil {
		return fmt.Errorf("saving source: %w", err)
	}
	return nil
}

// SetBibliography replaces the bibliography. Blank text means none.
func (e *Editor) SetBibliography(ctx context.Context, bib string) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.bib = bib
	e.mu.Unlock()

	e.notify(EditBibliography)
	if err := e.store.Put(ctx, BibliographyKey, []byte(bib)); err != nil {
		return fmt.Errorf("saving bibliography: %w", err)
	}
	return nil
}

// AddImage stores an image in the gallery and reloads the image table.
func (e *Editor) AddImage(ctx context.Context, data, filename string) (gallery.Image, error) {
	if err := e.checkOpen(); err != nil {
		return gallery.Image{}, err
	}
	img, err := e.gallery.Add(ctx, data, filename)
	if err != nil {
		return gallery.Image{}, err
	}
	if err := e.ReloadImages(ctx); err != nil {
		return img, err
	}
	return img, nil
}

// DeleteImage removes an image from the gallery and reloads the image table.
func (e *Editor) DeleteImage(ctx context.Context, id string) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	if err := e.gallery.Delete(ctx, id); err != nil {
		return err
	}
	return e.ReloadImages(ctx)
}

// ReloadImages re-reads the image table from the gallery.
func (e *Editor) ReloadImages(ctx context.Context) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	images, err := e.gallery.Table(ctx)
	if err != nil {
		return fmt.Errorf("reloading images: %w", err)
	}
	e.SetImages(images)
	return nil
}

// SetImages replaces the image table with a copy of images without
// persisting it (the CLI feeds images from a directory this way). It does
// nothing once the session is closed.
func (e *Editor) SetImages(images map[string]string) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.images = maps.Clone(images)
	if e.images == nil {
		e.images = map[string]string{}
	}
	e.mu.Unlock()

	e.notify(EditImages)
}

// Source returns the current source.
func (e *Editor) Source() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.source
}

// Bibliography returns the current bibliography.
func (e *Editor) Bibliography() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.bib
}

// Snapshot returns a copy of the state for one render attempt.
func (e *Editor) Snapshot() Input {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Input{
		Source:       e.source,
		Bibliography: e.bib,
		Images:       maps.Clone(e.images),
	}
}

// notify calls the edit hook without holding the state lock.
func (e *Editor) notify(kind EditKind) {
	e.mu.RLock()
	fn := e.onEdit
	e.mu.RUnlock()
	if fn != nil {
		fn(kind)
	}
}
