// Package display prints human-facing CLI output. Everything goes to stderr
// so stdout stays free for results and the worker protocol.
package display

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ANSI color codes
const (
	reset = "\033[0m"
	bold  = "\033[1m"
	dim   = "\033[2m"

	red    = "\033[31m"
	yellow = "\033[33m"
	cyan   = "\033[36m"
	white  = "\033[37m"

	brightRed     = "\033[91m"
	brightGreen   = "\033[92m"
	brightYellow  = "\033[93m"
	brightBlue    = "\033[94m"
	brightMagenta = "\033[95m"
	brightCyan    = "\033[96m"
	brightWhite   = "\033[97m"
)

var (
	out   io.Writer = os.Stderr
	color           = term.IsTerminal(int(os.Stderr.Fd()))
)

// SetOutput redirects display output. Colors are kept only when enabled.
func SetOutput(w io.Writer, colors bool) {
	out = w
	color = colors
}

// paint wraps s in the given codes when colors are on.
func paint(s string, codes ...string) string {
	if !color || len(codes) == 0 {
		return s
	}
	return strings.Join(codes, "") + s + reset
}

// Step prints a pipeline step like "  [1/3] Opening document..."
func Step(step, total int, msg string) {
	fmt.Fprintf(out, "  %s %s\n", paint(fmt.Sprintf("[%d/%d]", step, total), bold, brightCyan), paint(msg, white))
}

// StepDetail prints an indented detail line under a step.
func StepDetail(msg string) {
	fmt.Fprintf(out, "        %s\n", paint(msg, dim, white))
}

// StepResult prints a result for a step with a highlighted value.
func StepResult(label string, value any) {
	fmt.Fprintf(out, "        %s %s\n", paint(label, dim), paint(fmt.Sprint(value), bold, brightGreen))
}

// Info prints a general info message.
func Info(msg string) {
	fmt.Fprintf(out, "  %s %s\n", paint("ℹ", brightBlue, bold), msg)
}

// Success prints a green success message.
func Success(msg string) {
	fmt.Fprintf(out, "  %s %s\n", paint("✓", brightGreen, bold), msg)
}

// Warn prints a yellow warning message.
func Warn(msg string) {
	fmt.Fprintf(out, "  %s %s\n", paint("⚠", brightYellow, bold), paint(msg, yellow))
}

// ErrorMsg prints a red error message.
func ErrorMsg(msg string) {
	fmt.Fprintf(out, "  %s %s\n", paint("✗", brightRed, bold), paint(msg, red))
}

// KeyValue prints a labeled value.
func KeyValue(key string, value any) {
	fmt.Fprintf(out, "    %s  %s\n", paint(padRight(key, 18), dim), paint(fmt.Sprint(value), brightWhite))
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}
