package assets

import (
	"fmt"
	"strings"
	"unicode"
)

// AssetLoader loads preview styles and page templates by name.
// Names carry no extension and no path.
type AssetLoader interface {
	LoadStyle(name string) (string, error)
	LoadTemplate(name string) (string, error)
}

// ValidateAssetName rejects names that are empty or that hold path
// separators, dots, whitespace or control characters.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if strings.ContainsAny(name, "/\\.") || strings.IndexFunc(name, invalidNameRune) >= 0 {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}

func invalidNameRune(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsControl(r)
}
