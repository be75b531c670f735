package assets

// Names of the built-in assets.
const (
	DefaultStyleName   = "preview"
	EditorTemplateName = "editor"
	PrintTemplateName  = "print"
)

// defaultLoader is the package-level embedded loader.
var defaultLoader = NewEmbeddedLoader()

// LoadStyle loads a CSS file by name using the default embedded loader.
// The name should not include the .css extension or path components.
// Returns ErrStyleNotFound if the style does not exist.
// Returns ErrInvalidAssetName if the name contains path separators or traversal.
func LoadStyle(name string) (string, error) {
	return defaultLoader.LoadStyle(name)
}

// LoadTemplate loads an HTML template by name using the default embedded loader.
func LoadTemplate(name string) (string, error) {
	return defaultLoader.LoadTemplate(name)
}

// DefaultSource returns the sample document shown when no saved source exists.
func DefaultSource() string {
	return string(mustRead("samples/document.typ"))
}

// DefaultBibliography returns the sample bibliography shown when no saved
// bibliography exists.
func DefaultBibliography() string {
	return string(mustRead("samples/bibliography.yml"))
}
