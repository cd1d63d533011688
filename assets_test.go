package mathocr_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	mathocr "github.com/alnah/go-mathocr"
)

func TestNewAssetLoader_EmptyPath(t *testing.T) {
	t.Parallel()

	loader, err := mathocr.NewAssetLoader("")
	if err != nil {
		t.Fatalf("NewAssetLoader(\"\") error = %v", err)
	}

	css, err := loader.LoadStyle(mathocr.DefaultStyle)
	if err != nil {
		t.Errorf("LoadStyle(%q) error = %v", mathocr.DefaultStyle, err)
	}
	if css == "" {
		t.Error("LoadStyle returned empty CSS for default style")
	}

	rules, err := loader.LoadTransform(mathocr.DefaultTransform)
	if err != nil {
		t.Errorf("LoadTransform(%q) error = %v", mathocr.DefaultTransform, err)
	}
	if len(rules) == 0 {
		t.Error("LoadTransform returned no rules for default transform")
	}
}

func TestNewAssetLoader_InvalidPath(t *testing.T) {
	t.Parallel()

	_, err := mathocr.NewAssetLoader("/nonexistent/mathocr/assets")
	if !errors.Is(err, mathocr.ErrInvalidAssetPath) {
		t.Errorf("error = %v, want ErrInvalidAssetPath", err)
	}
}

func TestNewAssetLoader_Errors(t *testing.T) {
	t.Parallel()

	loader, err := mathocr.NewAssetLoader("")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		load    func() error
		wantErr error
	}{
		{
			name: "unknown style",
			load: func() error {
				_, err := loader.LoadStyle("missing")
				return err
			},
			wantErr: mathocr.ErrStyleNotFound,
		},
		{
			name: "unknown transform",
			load: func() error {
				_, err := loader.LoadTransform("missing")
				return err
			},
			wantErr: mathocr.ErrTransformLoad,
		},
		{
			name: "traversal in name",
			load: func() error {
				_, err := loader.LoadTransform("../secrets")
				return err
			},
			wantErr: mathocr.ErrInvalidAssetPath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if err := tt.load(); !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewAssetLoader_Override(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "styles"), 0o755); err != nil {
		t.Fatal(err)
	}
	custom := "body { color: teal; }"
	if err := os.WriteFile(filepath.Join(dir, "styles", "preview.css"), []byte(custom), 0o600); err != nil {
		t.Fatal(err)
	}

	loader, err := mathocr.NewAssetLoader(dir)
	if err != nil {
		t.Fatalf("NewAssetLoader() error = %v", err)
	}

	css, err := loader.LoadStyle(mathocr.DefaultStyle)
	if err != nil {
		t.Fatal(err)
	}
	if css != custom {
		t.Errorf("LoadStyle() = %q, want the override", css)
	}

	// Transforms are missing from dir and fall back to the embedded set.
	if _, err := loader.LoadTransform(mathocr.DefaultTransform); err != nil {
		t.Errorf("LoadTransform() error = %v, want embedded fallback", err)
	}

	an, err := mathocr.NewAnalyser(mathocr.WithAssetLoader(loader))
	if err != nil {
		t.Fatalf("NewAnalyser() error = %v", err)
	}
	res := analyse(t, an, "x", mathocr.InputText, mathocr.TargetHTML)
	if !strings.Contains(res.Outputs[mathocr.TargetHTML].HTML, "color: teal") {
		t.Error("HTML does not embed the custom style")
	}
}
