package main

// Notes:
// - Container and CI detection read process-wide variables; only the
//   MATHOCR_CONTAINER override is tested.
// - An unwritable temp directory is not simulated.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestRunDoctor - Transform and system checks
// ---------------------------------------------------------------------------

func TestRunDoctor(t *testing.T) {
	t.Parallel()

	t.Run("embedded transform", func(t *testing.T) {
		t.Parallel()

		r := runDoctor("")
		if r.Transform.Source != "embedded" || !r.Transform.Loaded {
			t.Errorf("Transform = %+v, want embedded rules loaded", r.Transform)
		}
		if !r.Transform.SampleOK || r.Transform.SampleLen == 0 {
			t.Errorf("Transform = %+v, want sample converted", r.Transform)
		}
		if !r.System.TempWritable {
			t.Error("TempWritable = false")
		}
		if r.Env.Workers < 1 || r.Env.GoMaxProcs < 1 {
			t.Errorf("Env = %+v", r.Env)
		}
		if len(r.Errors) != 0 {
			t.Errorf("Errors = %v", r.Errors)
		}
	})

	t.Run("invalid asset path", func(t *testing.T) {
		t.Parallel()

		assetPath := filepath.Join(t.TempDir(), "missing")
		r := runDoctor(assetPath)
		if r.Status != "errors" {
			t.Errorf("Status = %q, want errors", r.Status)
		}
		if r.Transform.Loaded || r.Transform.Source != assetPath {
			t.Errorf("Transform = %+v", r.Transform)
		}
		if len(r.Errors) == 0 || !strings.Contains(r.Errors[0], "hint:") {
			t.Errorf("Errors = %v, want hinted error", r.Errors)
		}
	})
}

// ---------------------------------------------------------------------------
// TestRunDoctorCmd - Command output
// ---------------------------------------------------------------------------

func TestRunDoctorCmd(t *testing.T) {
	t.Parallel()

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		env, stdout, _ := testEnv("")
		runDoctorCmd([]string{"--json"}, env)

		var r doctorResult
		if err := json.Unmarshal(stdout.Bytes(), &r); err != nil {
			t.Fatalf("invalid JSON %q: %v", stdout, err)
		}
		if !r.Transform.Loaded {
			t.Errorf("Transform = %+v", r.Transform)
		}
	})

	t.Run("help", func(t *testing.T) {
		t.Parallel()

		env, stdout, _ := testEnv("")
		if code := runDoctorCmd([]string{"-h"}, env); code != ExitSuccess {
			t.Errorf("exit code = %d", code)
		}
		if !strings.Contains(stdout.String(), "Usage: mathocr doctor") {
			t.Errorf("stdout = %q", stdout)
		}
	})
}

// ---------------------------------------------------------------------------
// TestPrintDoctorResult - Human-readable report
// ---------------------------------------------------------------------------

func TestPrintDoctorResult(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		result doctorResult
		want   []string
	}{
		{
			name: "ready",
			result: doctorResult{
				Status:    "ready",
				Transform: transformInfo{Source: "embedded", Loaded: true, SampleOK: true, SampleLen: 420},
				Env:       envInfo{OS: "linux", Arch: "amd64", GoMaxProcs: 4, Workers: 4, Container: true, ContainerHint: "/.dockerenv"},
				System:    systemInfo{TempWritable: true},
			},
			want: []string{
				"[OK] Rules loaded (embedded)",
				"[OK] Sample formula converted to OMML (420 bytes)",
				"[OK] Platform: linux/amd64",
				"[OK] Container: detected (/.dockerenv)",
				"Status: Ready to convert",
			},
		},
		{
			name: "warnings",
			result: doctorResult{
				Status:    "warnings",
				Transform: transformInfo{Source: "embedded", Loaded: true},
				System:    systemInfo{TempWritable: true},
				Warnings:  []string{"Unknown environment variable MATHOCR_TARGET (typo?)"},
			},
			want: []string{
				"[WARN] Unknown environment variable MATHOCR_TARGET (typo?)",
				"Status: Ready with warnings",
			},
		},
		{
			name: "errors",
			result: doctorResult{
				Status:    "errors",
				Transform: transformInfo{Source: "assets"},
				Errors:    []string{"Transform rules not loaded"},
			},
			want: []string{
				"[ERROR] Rules not loaded (assets)",
				"[ERROR] Temp directory: not writable",
				"[ERROR] Transform rules not loaded",
				"Status: Not ready (see errors above)",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			printDoctorResult(&buf, &tt.result)
			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("output missing %q:\n%s", want, buf.String())
				}
			}
		})
	}
}

func TestIsContainer_Override(t *testing.T) {
	t.Setenv("MATHOCR_CONTAINER", "1")

	ok, hint := isContainer()
	if !ok || hint != "MATHOCR_CONTAINER=1" {
		t.Errorf("isContainer() = %v, %q, want true, MATHOCR_CONTAINER=1", ok, hint)
	}
}
