package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/alnah/go-livepreview"
	"github.com/alnah/go-livepreview/internal/config"
	"github.com/alnah/go-livepreview/internal/store"
)

// Environment holds injectable dependencies for testability.
// Includes I/O, time, the renderer and the storage opener.
type Environment struct {
	Now    func() time.Time
	Stdout io.Writer
	Stderr io.Writer

	// Renderer replaces the reference engine when set.
	Renderer livepreview.Renderer

	// OpenStore opens the storage collaborator described by the config.
	OpenStore func(ctx context.Context, cfg config.StorageConfig) (store.Store, error)
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Now:       time.Now,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		OpenStore: store.Open,
	}
}
