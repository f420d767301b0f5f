// Package colors provides terminal color support for spfs's log output.
//
// Colors are detected from the terminal automatically and can be
// overridden with the NO_COLOR / FORCE_COLOR environment variables.
package colors

import (
	"os"
	"runtime"
	"strings"
)

const (
	ColorReset = "\033[0m"

	ColorYellow = "\033[33m"
	ColorGray   = "\033[90m"

	BrightRed  = "\033[91m"
	BrightCyan = "\033[96m"
)

var colorEnabled = shouldUseColor()

func shouldUseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}

	if runtime.GOOS == "windows" {
		term := strings.ToLower(os.Getenv("TERM"))
		wt := os.Getenv("WT_SESSION")
		vscode := os.Getenv("VSCODE_PID")
		if wt != "" || vscode != "" || strings.Contains(term, "color") || strings.Contains(term, "xterm") {
			return true
		}
		return false
	}

	term := strings.ToLower(os.Getenv("TERM"))
	if term == "dumb" || term == "" {
		return false
	}
	if fileInfo, err := os.Stdout.Stat(); err == nil {
		return (fileInfo.Mode() & os.ModeCharDevice) != 0
	}
	return true
}

// SetColorEnabled allows manual control of color output, overriding
// the terminal auto-detection. Wired to the color.ui config option.
func SetColorEnabled(enabled bool) {
	colorEnabled = enabled
}

func colorize(text, color string) string {
	if !colorEnabled {
		return text
	}
	return color + text + ColorReset
}

func Red(text string) string    { return colorize(text, BrightRed) }
func Yellow(text string) string { return colorize(text, ColorYellow) }
func Cyan(text string) string   { return colorize(text, BrightCyan) }
func Gray(text string) string   { return colorize(text, ColorGray) }
