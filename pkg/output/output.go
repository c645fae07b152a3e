// Package output renders operator-facing console messages and structured
// dumps for the hguard CLI.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	warnColor    = color.New(color.FgYellow)
)

// Stdout and Stderr are swappable for tests.
var (
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

func Success(format string, a ...interface{}) {
	successColor.Fprintf(Stdout, "✓ "+format+"\n", a...)
}

func Error(format string, a ...interface{}) {
	errorColor.Fprintf(Stderr, "✗ "+format+"\n", a...)
}

func Info(format string, a ...interface{}) {
	infoColor.Fprintf(Stdout, format+"\n", a...)
}

func Warn(format string, a ...interface{}) {
	warnColor.Fprintf(Stdout, "⚠ "+format+"\n", a...)
}

func JSON(v interface{}) error {
	enc := json.NewEncoder(Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func YAML(v interface{}) error {
	enc := yaml.NewEncoder(Stdout)
	defer enc.Close()
	return enc.Encode(v)
}

// Render dispatches on the CLI --output flag value.
func Render(format string, v interface{}, text func()) error {
	switch format {
	case "json":
		return JSON(v)
	case "yaml":
		return YAML(v)
	default:
		text()
		return nil
	}
}

// Banner prints a separator line of the given width.
func Banner(width int) {
	fmt.Fprintln(Stdout, strings.Repeat("=", width))
}
