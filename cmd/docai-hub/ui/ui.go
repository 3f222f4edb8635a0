// Package ui provides terminal output helpers for the docai-hub CLI.
package ui

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

var (
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
	labelColor   = color.New(color.FgCyan)

	// Out and Err are where status lines go. Tests swap them.
	Out io.Writer = os.Stdout
	Err io.Writer = os.Stderr
)

// Init applies the color setting.
func Init(noColor bool) {
	if noColor {
		color.NoColor = true
	}
}

// Success displays a success message.
func Success(format string, args ...interface{}) {
	successColor.Fprintf(Out, "✓ %s\n", fmt.Sprintf(format, args...))
}

// Warning displays a warning message.
func Warning(format string, args ...interface{}) {
	warnColor.Fprintf(Err, "⚠ %s\n", fmt.Sprintf(format, args...))
}

// Error displays an error message.
func Error(format string, args ...interface{}) {
	errorColor.Fprintf(Err, "✗ %s\n", fmt.Sprintf(format, args...))
}

// KeyValue displays an aligned label and value.
func KeyValue(key, value string) {
	labelColor.Fprintf(Out, "  %-12s", key+":")
	fmt.Fprintln(Out, value)
}

// Spinner shows indeterminate progress while a remote call runs.
type Spinner struct {
	s *spinner.Spinner
}

// NewSpinner creates a spinner writing to Err.
func NewSpinner(message string) *Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message
	s.Writer = Err
	return &Spinner{s: s}
}

// Start starts the animation.
func (s *Spinner) Start() { s.s.Start() }

// Stop stops the animation and clears the line.
func (s *Spinner) Stop() { s.s.Stop() }

// CopyWithProgress copies src into dst and renders a byte progress bar on Err.
func CopyWithProgress(dst io.Writer, src io.Reader, size int64, description string) (int64, error) {
	bar := progressbar.NewOptions64(
		size,
		progressbar.OptionSetWriter(Err),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(Err, "\n")
		}),
	)
	n, err := io.Copy(io.MultiWriter(dst, bar), src)
	if err != nil {
		return n, err
	}
	_ = bar.Finish()
	return n, nil
}
