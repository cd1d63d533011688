package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// documentFlags holds metadata written to documents and previews.
type documentFlags struct {
	title  string
	author string
}

// assetFlags holds asset-related flags.
type assetFlags struct {
	assetPath string // Override asset directory
	transform string // Transform rule set name
	style     string // Preview stylesheet name
}

// convertFlags holds all flags for the convert command.
type convertFlags struct {
	common    commonFlags
	kind      string
	targets   []string
	output    string
	workers   int
	normalize bool
	document  documentFlags
	assets    assetFlags
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show detailed timing")
}

// addDocumentFlags adds document metadata flags to a FlagSet.
func addDocumentFlags(fs *flag.FlagSet, f *documentFlags) {
	fs.StringVar(&f.title, "title", "", "document title (\"\" = input file name)")
	fs.StringVar(&f.author, "author", "", "document author")
}

// addAssetFlags adds asset-related flags to a FlagSet.
func addAssetFlags(fs *flag.FlagSet, f *assetFlags) {
	fs.StringVar(&f.assetPath, "asset-path", "", "custom asset directory")
	fs.StringVar(&f.transform, "transform", "", "transform rule set name")
	fs.StringVar(&f.style, "style", "", "preview style name")
}

// newConvertFlagSet registers every convert flag into f. Parsing and shell
// completion share it.
func newConvertFlagSet(f *convertFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)

	// I/O flags
	fs.StringVarP(&f.kind, "kind", "k", "", "input kind: text, formula, text_formula")
	fs.StringSliceVarP(&f.targets, "target", "t", nil, "output targets, repeated or comma-separated")
	fs.StringVarP(&f.output, "output", "o", "", "output directory")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	fs.BoolVar(&f.normalize, "normalize", false, "NFC-normalize recognizer text")

	// Flag groups
	addCommonFlags(fs, &f.common)
	addDocumentFlags(fs, &f.document)
	addAssetFlags(fs, &f.assets)

	return fs
}

// parseConvertFlags parses convert command flags and returns positional args.
// Parse errors and usage go to stderr.
func parseConvertFlags(args []string, stderr io.Writer) (*convertFlags, []string, error) {
	f := &convertFlags{}
	fs := newConvertFlagSet(f)
	fs.SetOutput(stderr)
	fs.Usage = func() { printConvertUsage(stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	return f, fs.Args(), nil
}
