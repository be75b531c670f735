package assets

import (
	"embed"
	"fmt"
)

// The embedded tree mirrors the layout expected under render.assetPath.
//
//go:embed styles/* templates/* samples/*
var embedded embed.FS

// EmbeddedLoader serves the assets compiled into the binary.
type EmbeddedLoader struct{}

// NewEmbeddedLoader creates an EmbeddedLoader.
func NewEmbeddedLoader() *EmbeddedLoader {
	return &EmbeddedLoader{}
}

// LoadStyle returns styles/{name}.css.
func (e *EmbeddedLoader) LoadStyle(name string) (string, error) {
	return readEmbedded("styles", name, ".css", ErrStyleNotFound)
}

// LoadTemplate returns templates/{name}.html.
func (e *EmbeddedLoader) LoadTemplate(name string) (string, error) {
	return readEmbedded("templates", name, ".html", ErrTemplateNotFound)
}

func readEmbedded(dir, name, ext string, notFound error) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}
	// embed.FS paths always use forward slashes.
	content, err := embedded.ReadFile(dir + "/" + name + ext)
	if err != nil {
		return "", fmt.Errorf("%w: %q", notFound, name)
	}
	return string(content), nil
}

// mustRead reads a file that is embedded at build time. A missing file is a
// packaging bug, not a runtime condition.
func mustRead(name string) []byte {
	data, err := embedded.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("assets: embedded file %s missing: %v", name, err))
	}
	return data
}

var _ AssetLoader = (*EmbeddedLoader)(nil)
