package assets

// DefaultTransformName is the name of the bundled MathML to OMML rule set.
const DefaultTransformName = "mml2omml"

// DefaultStyleName is the name of the bundled preview stylesheet.
const DefaultStyleName = "preview"

// defaultLoader is the package-level embedded loader.
var defaultLoader = NewEmbeddedLoader()

// LoadStyle loads a CSS file by name using the default embedded loader.
// The name should not include the .css extension or path components.
// Returns ErrStyleNotFound if the style does not exist.
func LoadStyle(name string) (string, error) {
	return defaultLoader.LoadStyle(name)
}

// LoadTransform loads transform rules by name using the default embedded loader.
// The name should not include the .yaml extension or path components.
// Returns ErrTransformNotFound if the rule set does not exist.
func LoadTransform(name string) ([]byte, error) {
	return defaultLoader.LoadTransform(name)
}
