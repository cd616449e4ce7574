package logger

import (
	"os"

	"github.com/fatih/color" // Colored console output, one color per level
)

// Package-level printing functions that behave like fmt.Printf, colored by level.
// Callers include the semantic prefix ([INFO], [OK], [WARN], [ERROR], [DEBUG])
// in the format string so output stays readable when color is disabled.

// Info logs progress messages in green.
var Info = color.New(color.FgGreen).PrintfFunc()

// Success logs completed operations in bold green.
var Success = color.New(color.FgGreen, color.Bold).PrintfFunc()

// Warn logs recoverable problems in bright magenta.
var Warn = color.New(color.FgHiMagenta).PrintfFunc()

// Error logs failures in red.
var Error = color.New(color.FgRed).PrintfFunc()

// Muted prints secondary detail such as script bodies and command lines.
var Muted = color.New(color.Faint).PrintfFunc()

// Debug logs debug messages in cyan once enabled by Init, otherwise it is a no-op.
var Debug = func(format string, a ...any) {}

// DebugEnv is the environment toggle that enables debug output and, on
// version-extraction failures, dumps of the pattern and raw process output.
const DebugEnv = "FORGE_DEBUG"

// Init enables or disables Debug. FORGE_DEBUG enables it regardless of enableDebug.
func Init(enableDebug bool) {
	if enableDebug || DebugEnabled() {
		Debug = color.New(color.FgCyan).PrintfFunc()
	} else {
		Debug = func(format string, a ...any) {}
	}
}

// DebugEnabled reports whether the FORGE_DEBUG environment toggle is set.
func DebugEnabled() bool {
	return os.Getenv(DebugEnv) != ""
}
