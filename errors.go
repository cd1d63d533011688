package mathocr

import (
	"errors"

	"github.com/alnah/go-mathocr/internal/formula"
)

// Sentinel errors for library operations.
var (
	// ErrConversion reports a formula that could not be converted. Best-effort
	// targets recover from it; the document target returns it.
	ErrConversion = formula.ErrConversion

	// ErrMalformedMarkup reports markup that could not be parsed or transformed.
	ErrMalformedMarkup = formula.ErrMalformedMarkup

	ErrNotImplemented = errors.New("not implemented")
	ErrInternal       = errors.New("internal error")

	// Validation errors.
	ErrEmptyTargets     = errors.New("no output targets requested")
	ErrInvalidInputKind = errors.New("invalid input kind")
	ErrInvalidTarget    = errors.New("invalid output target")

	// Asset loading errors.
	ErrTransformLoad    = errors.New("failed to load transform")
	ErrStyleNotFound    = errors.New("style not found")
	ErrInvalidAssetPath = errors.New("invalid asset path")
)
