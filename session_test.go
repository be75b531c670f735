package livepreview

// Notes:
// - Sessions run over a memory store with a mocked renderer and an hour of
//   debounce, so only explicit Flush calls render.

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alnah/go-livepreview/internal/store"
)

func newTestSession(t *testing.T, r *mockRenderer) *Session {
	t.Helper()
	sess, err := NewSession(context.Background(), store.NewMemory(), WithRenderer(r), WithDelay(time.Hour))
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	t.Cleanup(func() { _ = sess.Close() })
	return sess
}

// ---------------------------------------------------------------------------
// TestSession_Export
// ---------------------------------------------------------------------------

func TestSession_Export(t *testing.T) {
	t.Parallel()

	sess := newTestSession(t, &mockRenderer{})
	if err := sess.Editor.SetSource(context.Background(), "doc"); err != nil {
		t.Fatalf("SetSource() error = %v", err)
	}

	data, err := sess.Export(context.Background())
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if string(data) != "%PDF-doc" {
		t.Errorf("Export() = %q", data)
	}
}

// ---------------------------------------------------------------------------
// TestSession_Closed
// ---------------------------------------------------------------------------

func TestSession_Closed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := &mockRenderer{}
	sess := newTestSession(t, r)
	if err := sess.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	tests := []struct {
		name string
		call func() error
	}{
		{"Export", func() error { _, err := sess.Export(ctx); return err }},
		{"SetSource", func() error { return sess.Editor.SetSource(ctx, "x") }},
		{"SetBibliography", func() error { return sess.Editor.SetBibliography(ctx, "x") }},
		{"AddImage", func() error { _, err := sess.Editor.AddImage(ctx, "data:image/png;base64,"+pngBase64, "a.png"); return err }},
		{"DeleteImage", func() error { return sess.Editor.DeleteImage(ctx, "001") }},
		{"ReloadImages", func() error { return sess.Editor.ReloadImages(ctx) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, ErrClosed) {
				t.Errorf("%s() error = %v, want ErrClosed", tt.name, err)
			}
		})
	}

	if r.callCount() != 0 {
		t.Errorf("render attempts after Close = %d, want 0", r.callCount())
	}
	if got := sess.Editor.Source(); got == "x" {
		t.Error("a write after Close changed the source")
	}
	if err := sess.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
}
