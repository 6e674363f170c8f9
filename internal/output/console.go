// Package output renders operator-facing console output: stage lines,
// live progress and run summaries.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Console prints colored stage lines. It is safe for concurrent use.
type Console struct {
	out     io.Writer
	errOut  io.Writer
	scheme  *ColorScheme
	noColor bool
	mu      sync.Mutex
}

// ConsoleOption configures a Console.
type ConsoleOption func(*Console)

// WithNoColor disables colors regardless of terminal detection.
func WithNoColor() ConsoleOption {
	return func(c *Console) {
		c.noColor = true
	}
}

// WithForceColor enables colors even when out is not a terminal.
func WithForceColor() ConsoleOption {
	return func(c *Console) {
		c.noColor = false
	}
}

// NewConsole creates a console writing normal output to out and failures
// to errOut. Nil writers default to stdout and stderr.
func NewConsole(out, errOut io.Writer, options ...ConsoleOption) *Console {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}

	c := &Console{
		out:     out,
		errOut:  errOut,
		noColor: !(IsTerminal(out) && supportsColors()),
	}
	for _, option := range options {
		option(c)
	}

	if c.noColor {
		c.scheme = NoColorScheme()
	} else {
		c.scheme = forcedColorScheme()
	}
	return c
}

// Out returns the writer used for normal output.
func (c *Console) Out() io.Writer {
	return c.out
}

// NoColor reports whether colors are disabled.
func (c *Console) NoColor() bool {
	return c.noColor
}

// Banner prints a title framed by rules.
func (c *Console) Banner(title string) {
	line := strings.Repeat("━", 56)
	c.println(c.out, c.scheme.Title.Sprint(line))
	c.println(c.out, c.scheme.Title.Sprint(title))
	c.println(c.out, c.scheme.Title.Sprint(line))
}

// Step announces the start of a stage.
func (c *Console) Step(format string, args ...interface{}) {
	c.println(c.out, c.scheme.Stage.Sprint("▶ ")+fmt.Sprintf(format, args...))
}

// Success announces a completed stage.
func (c *Console) Success(format string, args ...interface{}) {
	c.println(c.out, SuccessIcon(c.noColor)+" "+c.scheme.Success.Sprintf(format, args...))
}

// Info prints an informational line.
func (c *Console) Info(format string, args ...interface{}) {
	c.println(c.out, InfoIcon(c.noColor)+" "+fmt.Sprintf(format, args...))
}

// Warn prints a warning line.
func (c *Console) Warn(format string, args ...interface{}) {
	c.println(c.out, WarningIcon(c.noColor)+" "+c.scheme.Warning.Sprintf(format, args...))
}

// Fail prints a failure line to the error writer.
func (c *Console) Fail(format string, args ...interface{}) {
	c.println(c.errOut, ErrorIcon(c.noColor)+" "+c.scheme.Error.Sprintf(format, args...))
}

// Detail prints an indented key/value line.
func (c *Console) Detail(label string, value interface{}) {
	c.println(c.out, fmt.Sprintf("  %s %s", c.scheme.Label.Sprintf("%-14s", label+":"), c.scheme.Value.Sprint(value)))
}

// Println prints a plain line.
func (c *Console) Println(s string) {
	c.println(c.out, s)
}

func (c *Console) println(w io.Writer, s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(w, s)
}
