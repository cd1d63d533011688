// Package assets provides the bundled transform rules and preview styles.
//
// # Loader Architecture
//
// The package implements a layered loading system:
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - loads from go:embed filesystem (bundled assets)
//	    ├── FilesystemLoader  - loads from custom directory on disk
//	    └── AssetResolver     - combines both with custom-first fallback
//
// EmbeddedLoader provides the MathML to OMML rule set and the HTML preview
// stylesheet compiled into the binary.
//
// FilesystemLoader lets users override either asset from a directory,
// with path traversal protection and symlink resolution.
//
// AssetResolver is the loader used by the analyser. It tries the custom
// FilesystemLoader first and falls back to EmbeddedLoader when the asset is
// not found there.
//
// # Directory Structure
//
//	{basePath}/
//	├── styles/
//	│   └── {name}.css           # preview stylesheet (e.g., preview.css)
//	└── transforms/
//	    └── {name}.yaml          # transform rules (e.g., mml2omml.yaml)
//
// # Security
//
// Asset names are validated to prevent path traversal attacks.
// FilesystemLoader resolves symlinks and verifies paths stay within basePath.
package assets
