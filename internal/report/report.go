// Package report writes installer progress to the console.
package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Reporter prints progress lines. Warnings and failures go to the error writer.
// A nil *Reporter discards everything.
type Reporter struct {
	out     io.Writer
	errOut  io.Writer
	verbose bool

	warnColor    *color.Color
	failColor    *color.Color
	successColor *color.Color
	debugColor   *color.Color
}

// New returns a Reporter writing to out and errOut; nil writers discard.
func New(out io.Writer, errOut io.Writer, verbose bool) *Reporter {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	return &Reporter{
		out:          out,
		errOut:       errOut,
		verbose:      verbose,
		warnColor:    color.New(color.FgYellow),
		failColor:    color.New(color.FgRed),
		successColor: color.New(color.FgGreen),
		debugColor:   color.New(color.Faint),
	}
}

// DisableColor turns off ANSI colors process-wide.
func DisableColor() {
	color.NoColor = true
}

// Out returns the standard writer.
func (r *Reporter) Out() io.Writer {
	if r == nil {
		return io.Discard
	}
	return r.out
}

// Verbose reports whether debug lines are printed.
func (r *Reporter) Verbose() bool {
	return r != nil && r.verbose
}

// Infof prints a plain line.
func (r *Reporter) Infof(format string, args ...any) {
	if r == nil {
		return
	}
	_, _ = fmt.Fprintln(r.out, fmt.Sprintf(format, args...))
}

// Println prints s followed by a newline.
func (r *Reporter) Println(s string) {
	if r == nil {
		return
	}
	_, _ = fmt.Fprintln(r.out, s)
}

// Warnf prints a yellow line to the error writer.
func (r *Reporter) Warnf(format string, args ...any) {
	if r == nil {
		return
	}
	_, _ = r.warnColor.Fprintln(r.errOut, fmt.Sprintf(format, args...))
}

// Failf prints a red line to the error writer.
func (r *Reporter) Failf(format string, args ...any) {
	if r == nil {
		return
	}
	_, _ = r.failColor.Fprintln(r.errOut, fmt.Sprintf(format, args...))
}

// Successf prints a green line.
func (r *Reporter) Successf(format string, args ...any) {
	if r == nil {
		return
	}
	_, _ = r.successColor.Fprintln(r.out, fmt.Sprintf(format, args...))
}

// Debugf prints a faint line when verbose output is enabled.
func (r *Reporter) Debugf(format string, args ...any) {
	if r == nil || !r.verbose {
		return
	}
	_, _ = r.debugColor.Fprintln(r.out, fmt.Sprintf(format, args...))
}
