package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alnah/go-livepreview/internal/config"
	"github.com/alnah/go-livepreview/internal/pipeline"
	"github.com/alnah/go-livepreview/internal/store"
)

// fakeRenderer echoes the source as one page, or fails with err.
type fakeRenderer struct {
	err error
}

func (f *fakeRenderer) Render(_ context.Context, unit *pipeline.Unit, mode pipeline.Mode) (*pipeline.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	if mode == pipeline.ModeBinary {
		return &pipeline.Document{Binary: []byte("%PDF-1.7 " + unit.Source())}, nil
	}
	return &pipeline.Document{Pages: []pipeline.Page{{Number: 1, Fragment: "<p>" + unit.Source() + "</p>"}}}, nil
}

// testEnv returns an environment writing to buffers with the fake renderer.
func testEnv(t *testing.T, r *fakeRenderer) (*Environment, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	fixed := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	env := &Environment{
		Now:       func() time.Time { return fixed },
		Stdout:    &stdout,
		Stderr:    &stderr,
		Renderer:  r,
		OpenStore: store.Open,
	}
	return env, &stdout, &stderr
}

// failingOpen is an OpenStore that always fails.
func failingOpen(context.Context, config.StorageConfig) (store.Store, error) {
	return nil, errors.New("connection refused")
}
