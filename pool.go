package mathocr

import "runtime"

// Worker pool sizing constants.
const (
	// MinPoolSize ensures at least one worker is available.
	MinPoolSize = 1

	// MaxPoolSize caps concurrent analyses. Each worker holds one input
	// and its outputs in memory.
	MaxPoolSize = 16
)

// ResolvePoolSize determines the number of concurrent analyses.
// Priority: explicit workers > GOMAXPROCS-based calculation.
// Exported for use by servers and CLIs.
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return workers
	}

	// Analysis is CPU bound, so one worker per available CPU
	// (GOMAXPROCS is adjusted by automaxprocs in containers).
	return min(max(runtime.GOMAXPROCS(0), MinPoolSize), MaxPoolSize)
}
