// Package ui prints human-facing status lines on stderr and reads prompts.
// Structured logs go through the logger instead.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"
)

// ANSI color/style codes
const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	cyan   = "\033[36m"
	green  = "\033[32m"
	yellow = "\033[33m"
	red    = "\033[31m"
	white  = "\033[97m"
)

// Out receives every status line. Tests swap it for a buffer.
var Out io.Writer = os.Stderr

// colored reports whether Out is a terminal and NO_COLOR is unset.
func colored() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := Out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func paint(codes, text string) string {
	if !colored() {
		return text
	}
	return codes + text + reset
}

func status(symbol, codes, format string, a []any) {
	fmt.Fprintf(Out, "  %s %s\n", paint(codes, symbol), fmt.Sprintf(format, a...))
}

// Banner prints the command header.
//
//	 gogvault v0.1.0
func Banner(version string) {
	fmt.Fprintf(Out, "\n  %s %s\n", paint(bold+cyan, "gogvault"), paint(dim, "v"+version))
}

// KeyValue prints a labeled line:  ▸ label  value
func KeyValue(label, value string) {
	fmt.Fprintf(Out, "  %s %-11s %s\n", paint(cyan, "▸"), paint(dim, label), paint(white, value))
}

func Info(format string, a ...any)    { status("●", cyan, format, a) }
func Success(format string, a ...any) { status("✔", green, format, a) }
func Warn(format string, a ...any)    { status("▲", yellow, format, a) }
func Error(format string, a ...any)   { status("✖", red, format, a) }

// Separator prints a dim horizontal line.
func Separator() {
	fmt.Fprintf(Out, "  %s\n", paint(dim, strings.Repeat("─", 48)))
}

// Table writes rows under header as aligned columns. It is for data output,
// so it takes its own writer (normally stdout) and is never colored.
func Table(w io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}
