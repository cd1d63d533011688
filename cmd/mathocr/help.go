package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mathocr <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  convert     Convert recognizer output to LaTeX, MathML, OMML, DOCX or HTML")
	fmt.Fprintln(w, "  doctor      Check the transform rules and the system")
	fmt.Fprintln(w, "  completion  Generate shell completion script")
	fmt.Fprintln(w, "  version     Show version information")
	fmt.Fprintln(w, "  help        Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'mathocr help <command>' for details on a specific command.")
}

// printConvertUsage prints usage for the convert command.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mathocr convert <input> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Split recognizer output into text and formulas, repair the formulas")
	fmt.Fprintln(w, "and write the requested targets next to each input.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    .txt, .tex or .md file, directory, or - for stdin")
	fmt.Fprintln(w, "           (optional if config has input.defaultDir)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Analysis:")
	fmt.Fprintln(w, "  -k, --kind <s>            Input kind: text, formula, text_formula (default)")
	fmt.Fprintln(w, "  -t, --target <s>          Targets: latex, mathml, omml, docx, html")
	fmt.Fprintln(w, "                            Repeat or separate with commas (default: latex,mathml,omml)")
	fmt.Fprintln(w, "      --normalize           NFC-normalize recognizer text")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <dir>        Output directory (default: next to input)")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel workers (0 = auto)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Outputs:")
	fmt.Fprintln(w, "  <name>.json               latex, mathml and omml lists")
	fmt.Fprintln(w, "  <name>.docx               Word document with native equations")
	fmt.Fprintln(w, "  <name>.html               HTML preview with MathML")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Document:")
	fmt.Fprintln(w, "      --title <s>           Document title (\"\" = input file name)")
	fmt.Fprintln(w, "      --author <s>          Document author")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Assets:")
	fmt.Fprintln(w, "      --asset-path <dir>    Custom asset directory")
	fmt.Fprintln(w, "      --transform <name>    Transform rule set (default: mml2omml)")
	fmt.Fprintln(w, "      --style <name>        Preview style (default: preview)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show detailed timing")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  MATHOCR_CONFIG, MATHOCR_KIND, MATHOCR_TARGETS, MATHOCR_OUTPUT_DIR,")
	fmt.Fprintln(w, "  MATHOCR_WORKERS, MATHOCR_ASSET_PATH")
	fmt.Fprintln(w, "  Precedence: flags > environment > config file > defaults")
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mathocr doctor [--json]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Load the transform rules, run a sample conversion and check that")
	fmt.Fprintln(w, "the temp directory is writable. MATHOCR_ASSET_PATH is honored.")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "convert":
		printConvertUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "completion":
		printCompletionUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: mathocr version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: mathocr help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
