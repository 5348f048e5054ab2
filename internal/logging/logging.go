// Package logging is a thin wrapper around the teacher lineage's bare
// fmt.Printf-with-glyph-prefix convention (engine.go, main.go across every
// fortuna service), kept as a small package only so the prefix/stream
// choice lives in one place rather than being repeated at every call site.
package logging

import (
	"fmt"
	"os"
)

func Info(format string, args ...interface{}) {
	fmt.Printf("✓ "+format+"\n", args...)
}

func Warn(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "⚠️  "+format+"\n", args...)
}

func Error(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "❌ "+format+"\n", args...)
}

func Fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "🛑 "+format+"\n", args...)
}

func Stat(format string, args ...interface{}) {
	fmt.Printf("📊 "+format+"\n", args...)
}
