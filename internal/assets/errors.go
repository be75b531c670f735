package assets

import "errors"

// Sentinel errors for asset operations.
var (
	// ErrStyleNotFound is returned when no stylesheet has the requested name,
	// neither in the custom directory nor among the embedded ones.
	ErrStyleNotFound = errors.New("style not found")

	// ErrTemplateNotFound is returned for an unknown page template.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrInvalidAssetName rejects names that are empty, too long, or that
	// could escape the asset directory (separators, "..", NUL).
	ErrInvalidAssetName = errors.New("invalid asset name")

	// ErrInvalidBasePath is returned when render.assetPath is not a directory.
	ErrInvalidBasePath = errors.New("invalid base path")

	// ErrAssetRead wraps I/O failures on a custom asset file.
	ErrAssetRead = errors.New("failed to read asset")

	// ErrPathTraversal is returned when a resolved asset lies outside the
	// custom directory (symlinks included).
	ErrPathTraversal = errors.New("path traversal detected")
)
