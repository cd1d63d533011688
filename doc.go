// Package mathocr turns raw handwriting and formula recognizer output into
// well-formed math markup and assembled documents.
//
// # Quick Start
//
// Create an analyser once and reuse it:
//
//	an, err := mathocr.NewAnalyser()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := an.Analyse(ctx, mathocr.Input{
//	    Text:    "The answer is $x^2$.",
//	    Kind:    mathocr.InputTextFormula,
//	    Targets: []mathocr.Target{mathocr.TargetLaTeX, mathocr.TargetOMML, mathocr.TargetDocument},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Outputs[mathocr.TargetLaTeX].Items)
//	// [The answer is  \begin{math}x^2\end{math} .]
//
// The result holds the segments and one Output per requested target. List
// targets (latex, mathml, omml) fill Output.Items, the document target fills
// Output.Document with a .docx package and the html target fills Output.HTML.
//
// # Analysis Pipeline
//
// Each input goes through these stages:
//
//  1. Segmentation into ordered text and math runs ($ toggles math mode)
//  2. Delimiter repair of every math run (unbalanced braces, \left without \right)
//  3. LaTeX to MathML conversion
//  4. MathML to OMML through the bundled transform rules
//  5. Output assembly (lists, Word document, HTML preview)
//
// The list targets are best effort: a formula that cannot be converted is
// returned as its LaTeX source and logged at debug level. The document
// target is strict and fails with ErrConversion instead.
//
// # Configuration
//
// Use functional options to customize the analyser:
//
//	an, err := mathocr.NewAnalyser(
//	    mathocr.WithAssetPath("/path/to/custom/assets"),
//	    mathocr.WithNormalization(),
//	    mathocr.WithLogger(slog.Default()),
//	    mathocr.WithDocumentInfo(mathocr.DocumentInfo{Title: "Homework 3"}),
//	)
//
// An Analyser is safe for concurrent use; the transform rules are loaded
// once by NewAnalyser and never modified afterwards. ResolvePoolSize picks a
// worker count for batch processing.
//
// # Custom Assets
//
// Override the transform rules or the preview style using AssetLoader:
//
//	loader, err := mathocr.NewAssetLoader("/path/to/assets")
//	an, err := mathocr.NewAnalyser(mathocr.WithAssetLoader(loader))
//
// Asset directory structure:
//
//	assets/
//	├── styles/
//	│   └── preview.css
//	└── transforms/
//	    └── mml2omml.yaml
//
// Files missing from the directory fall back to the embedded assets.
package mathocr
