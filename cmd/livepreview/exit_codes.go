package main

import (
	"errors"
	"os"

	"github.com/alnah/go-livepreview"
	"github.com/alnah/go-livepreview/internal/assets"
	"github.com/alnah/go-livepreview/internal/config"
	"github.com/alnah/go-livepreview/internal/engine"
	"github.com/alnah/go-livepreview/internal/gallery"
	"github.com/alnah/go-livepreview/internal/logging"
	"github.com/alnah/go-livepreview/internal/store"
)

// Exit codes for the livepreview CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful command
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied, storage failure
	ExitBrowser = 4 // Browser/Chrome errors
	ExitRender  = 5 // Document does not compile
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if errors.Is(err, engine.ErrBrowserConnect) ||
		errors.Is(err, engine.ErrPageCreate) ||
		errors.Is(err, engine.ErrPageLoad) ||
		errors.Is(err, engine.ErrPDFGeneration) {
		return ExitBrowser
	}

	// Render diagnostics (exit 5)
	if errors.Is(err, livepreview.ErrRender) ||
		errors.Is(err, livepreview.ErrEmptySource) {
		return ExitRender
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadSource) ||
		errors.Is(err, ErrWriteOutput) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, store.ErrClosed) ||
		errors.Is(err, ErrStorage) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, store.ErrUnknownDriver) ||
		errors.Is(err, assets.ErrStyleNotFound) ||
		errors.Is(err, assets.ErrInvalidAssetName) ||
		errors.Is(err, logging.ErrInvalidLevel) ||
		errors.Is(err, gallery.ErrInvalidID) ||
		errors.Is(err, gallery.ErrImageNotFound) ||
		errors.Is(err, gallery.ErrLimitReached) ||
		errors.Is(err, ErrInvalidDuration) ||
		errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrUnsupportedShell) {
		return ExitUsage
	}

	return ExitGeneral
}
