package mathocr

import (
	"errors"

	"github.com/alnah/go-mathocr/internal/assets"
)

// Asset name constants for the built-in transform and style.
const (
	// DefaultTransform is the name of the MathML to OMML rule set.
	DefaultTransform = assets.DefaultTransformName

	// DefaultStyle is the name of the preview stylesheet.
	DefaultStyle = assets.DefaultStyleName
)

// AssetLoader defines the contract for loading transform rules and preview
// styles. Implementations may load from a filesystem, embedded assets or
// any other store.
type AssetLoader interface {
	// LoadTransform loads YAML transform rules by name (without extension).
	LoadTransform(name string) ([]byte, error)

	// LoadStyle loads a CSS stylesheet by name (without extension).
	// Returns ErrStyleNotFound if the style doesn't exist.
	LoadStyle(name string) (string, error)
}

// NewAssetLoader creates an AssetLoader for basePath. An empty basePath
// uses only embedded assets; otherwise files under basePath take precedence.
//
// The basePath directory may contain:
//   - transforms/{name}.yaml for transform rules
//   - styles/{name}.css for preview styles
//
// Returns ErrInvalidAssetPath if basePath is set but not a readable directory.
func NewAssetLoader(basePath string) (AssetLoader, error) {
	resolver, err := assets.NewAssetResolver(basePath)
	if err != nil {
		return nil, convertAssetError(err)
	}
	return &assetLoaderAdapter{resolver: resolver}, nil
}

// assetLoaderAdapter maps internal errors to public sentinels.
type assetLoaderAdapter struct {
	resolver *assets.AssetResolver
}

func (a *assetLoaderAdapter) LoadTransform(name string) ([]byte, error) {
	data, err := a.resolver.LoadTransform(name)
	if err != nil {
		return nil, convertAssetError(err)
	}
	return data, nil
}

func (a *assetLoaderAdapter) LoadStyle(name string) (string, error) {
	css, err := a.resolver.LoadStyle(name)
	if err != nil {
		return "", convertAssetError(err)
	}
	return css, nil
}

// convertAssetError maps internal asset errors to public errors.
func convertAssetError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, assets.ErrTransformNotFound):
		return wrapError(ErrTransformLoad, err)
	case errors.Is(err, assets.ErrStyleNotFound):
		return wrapError(ErrStyleNotFound, err)
	case errors.Is(err, assets.ErrInvalidBasePath), errors.Is(err, assets.ErrPathTraversal):
		return wrapError(ErrInvalidAssetPath, err)
	case errors.Is(err, assets.ErrInvalidAssetName):
		return wrapError(ErrInvalidAssetPath, err)
	default:
		return err
	}
}

// wrapError keeps the original message while matching the public sentinel.
func wrapError(sentinel, original error) error {
	return &wrappedAssetError{sentinel: sentinel, original: original}
}

type wrappedAssetError struct {
	sentinel error
	original error
}

func (e *wrappedAssetError) Error() string {
	return e.original.Error()
}

func (e *wrappedAssetError) Unwrap() error {
	return e.sentinel
}
