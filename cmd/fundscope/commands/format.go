package commands

import (
	"fmt"
	"io"
	"strings"
)

// Output formatting helpers for CLI commands

// PrintSeparator prints a separator line
func PrintSeparator(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("-", 60))
}

// PrintDoubleSeparator prints a double separator line
func PrintDoubleSeparator(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("=", 60))
}

// PrintWarning prints a warning message
func PrintWarning(w io.Writer, message string) {
	fmt.Fprintf(w, "⚠️  %s\n", message)
}

// PrintSuccess prints a success message
func PrintSuccess(w io.Writer, message string) {
	fmt.Fprintf(w, "✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(w io.Writer, message string) {
	fmt.Fprintf(w, "❌ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(w io.Writer, message string) {
	fmt.Fprintf(w, "ℹ️  %s\n", message)
}

// PrintKeyValue prints a key-value pair
func PrintKeyValue(w io.Writer, key string, value interface{}) {
	fmt.Fprintf(w, "%-20s: %v\n", key, value)
}
