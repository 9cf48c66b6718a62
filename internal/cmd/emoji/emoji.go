// Package emoji provides status symbols for CLI output.
package emoji

// Record status symbols.
const (
	// Success marks a record that reconciled cleanly.
	Success = "✓"

	// Error marks a record that failed.
	Error = "✗"

	// Warning marks a record with rejected facts.
	Warning = "!"

	// Optional marks a record skipped by a hook.
	Optional = "-"
)
