package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	mathocr "github.com/alnah/go-mathocr"
	"github.com/alnah/go-mathocr/internal/hints"
)

// doctorSample is converted end to end to check the transform rules.
const doctorSample = `\frac{a}{b} + \sqrt{x^2}`

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status    string        `json:"status"` // "ready", "warnings", "errors"
	Transform transformInfo `json:"transform"`
	Env       envInfo       `json:"environment"`
	System    systemInfo    `json:"system"`
	Warnings  []string      `json:"warnings,omitempty"`
	Errors    []string      `json:"errors,omitempty"`
}

// transformInfo holds transform rule checks.
type transformInfo struct {
	Source    string `json:"source"` // "embedded" or the asset directory
	Loaded    bool   `json:"loaded"`
	SampleOK  bool   `json:"sample_ok"`
	SampleLen int    `json:"sample_bytes,omitempty"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	GoMaxProcs    int    `json:"gomaxprocs"`
	Workers       int    `json:"workers"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(args []string, env *Environment) int {
	jsonOutput := false
	for _, arg := range args {
		switch arg {
		case "--json":
			jsonOutput = true
		case "-h", "--help":
			printDoctorUsage(env.Stdout)
			return ExitSuccess
		}
	}

	result := runDoctor(os.Getenv("MATHOCR_ASSET_PATH"))

	if jsonOutput {
		_ = writeJSON(env.Stdout, result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(assetPath string) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			GoMaxProcs: runtime.GOMAXPROCS(0),
			Workers:    mathocr.ResolvePoolSize(0),
		},
	}

	checkTransform(result, assetPath)
	checkEnvironment(result)
	checkSystem(result)

	// Determine final status
	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}

	return result
}

// checkTransform loads the transform rules and converts a sample formula
// to OMML.
func checkTransform(result *doctorResult, assetPath string) {
	result.Transform.Source = "embedded"
	var opts []mathocr.Option
	if assetPath != "" {
		result.Transform.Source = assetPath
		opts = append(opts, mathocr.WithAssetPath(assetPath))
	}

	an, err := mathocr.NewAnalyser(opts...)
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Transform rules not loaded: %v%s", err, hints.ForTransformLoad(assetPath, mathocr.DefaultTransform)))
		return
	}
	result.Transform.Loaded = true

	res, err := an.Analyse(context.Background(), mathocr.Input{
		Text:    doctorSample,
		Kind:    mathocr.InputFormula,
		Targets: []mathocr.Target{mathocr.TargetOMML},
	})
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Sample conversion failed: %v", err))
		return
	}

	items := res.Outputs[mathocr.TargetOMML].Items
	if len(items) != 1 || !strings.HasPrefix(items[0], "<m:oMath") {
		result.Warnings = append(result.Warnings,
			"Sample formula kept as LaTeX; the transform rules may be incomplete")
		return
	}
	result.Transform.SampleOK = true
	result.Transform.SampleLen = len(items[0])
}

// checkEnvironment detects container and CI environments, and typos in
// MATHOCR_* variables.
func checkEnvironment(result *doctorResult) {
	result.Env.Container, result.Env.ContainerHint = isContainer()

	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	for _, name := range unknownEnvVars() {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Unknown environment variable %s (typo?)", name))
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer() (bool, string) {
	// Explicit override (highest priority)
	if os.Getenv("MATHOCR_CONTAINER") == "1" {
		return true, "MATHOCR_CONTAINER=1"
	}
	if hints.IsInContainer() {
		return true, "/.dockerenv"
	}
	// Podman / systemd-nspawn / general container indicator
	if v := os.Getenv("container"); v != "" {
		return true, "container=" + v
	}
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies that outputs can be written through a temp file.
func checkSystem(result *doctorResult) {
	tmpDir := os.TempDir()
	f, err := os.CreateTemp(tmpDir, "mathocr-doctor-*")
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", tmpDir))
		return
	}
	_ = f.Close()
	_ = os.Remove(filepath.Clean(f.Name()))
	result.System.TempWritable = true
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "mathocr doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Transform")
	if r.Transform.Loaded {
		fmt.Fprintf(w, "  [OK] Rules loaded (%s)\n", r.Transform.Source)
		if r.Transform.SampleOK {
			fmt.Fprintf(w, "  [OK] Sample formula converted to OMML (%d bytes)\n", r.Transform.SampleLen)
		}
	} else {
		fmt.Fprintf(w, "  [ERROR] Rules not loaded (%s)\n", r.Transform.Source)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	fmt.Fprintf(w, "  [OK] Workers: %d (GOMAXPROCS %d)\n", r.Env.Workers, r.Env.GoMaxProcs)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to convert")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
