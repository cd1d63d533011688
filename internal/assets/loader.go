package assets

// AssetLoader defines the contract for loading preview styles and transform rules.
type AssetLoader interface {
	// LoadStyle loads a CSS style by name (without .css extension).
	// Returns ErrStyleNotFound if the style doesn't exist.
	// Returns ErrInvalidAssetName if the name contains invalid characters.
	LoadStyle(name string) (string, error)

	// LoadTransform loads transform rules by name (without .yaml extension).
	// Returns ErrTransformNotFound if the rule set doesn't exist.
	// Returns ErrInvalidAssetName if the name contains invalid characters.
	LoadTransform(name string) ([]byte, error)
}
