// Package assets provides the stylesheet, HTML templates and sample content
// of the live preview.
//
// # Loader Architecture
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - loads from go:embed filesystem (built-in assets)
//	    ├── FilesystemLoader  - loads from custom directory on disk
//	    └── AssetResolver     - combines both with custom-first fallback
//
// The preview stylesheet defines the page box and one rule per highlight
// class. The editor template is served by the preview server; the print
// template wraps rendered pages for PDF export.
//
// # Directory Structure
//
//	{basePath}/
//	├── styles/
//	│   └── {name}.css
//	└── templates/
//	    └── {name}.html
//
// Sample content (the default document and bibliography) is embedded only
// and is not overridable.
//
// # Security
//
// Asset names are validated to prevent path traversal attacks.
// FilesystemLoader resolves symlinks and verifies paths stay within basePath.
package assets
