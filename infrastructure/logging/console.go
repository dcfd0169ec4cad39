package logging

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Console prints operator-facing status lines, separate from the log stream
type Console struct {
	out    io.Writer
	green  *color.Color
	cyan   *color.Color
	red    *color.Color
	yellow *color.Color
	bold   *color.Color
}

// NewConsole - creates a console writing to out (color.Output when nil)
func NewConsole(out io.Writer) *Console {
	if out == nil {
		out = color.Output
	}
	return &Console{
		out:    out,
		green:  color.New(color.FgGreen),
		cyan:   color.New(color.FgCyan),
		red:    color.New(color.FgRed),
		yellow: color.New(color.FgYellow),
		bold:   color.New(color.Bold),
	}
}

// Writer - the underlying writer, for prompts
func (c *Console) Writer() io.Writer {
	return c.out
}

// Title prints a section header
func (c *Console) Title(format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	c.bold.Fprintln(c.out, msg)
	c.bold.Fprintln(c.out, repeat('=', len([]rune(msg))))
}

// Step prints a numbered step header
func (c *Console) Step(n, total int, format string, v ...interface{}) {
	c.cyan.Fprintf(c.out, "[%d/%d] ", n, total)
	fmt.Fprintf(c.out, format+"\n", v...)
}

// Success prints a completed line
func (c *Console) Success(format string, v ...interface{}) {
	c.green.Fprintf(c.out, "✓ "+format+"\n", v...)
}

// Warn prints a line needing attention
func (c *Console) Warn(format string, v ...interface{}) {
	c.yellow.Fprintf(c.out, "! "+format+"\n", v...)
}

// Fail prints a failure line
func (c *Console) Fail(format string, v ...interface{}) {
	c.red.Fprintf(c.out, "✗ "+format+"\n", v...)
}

// Info prints a plain line
func (c *Console) Info(format string, v ...interface{}) {
	fmt.Fprintf(c.out, format+"\n", v...)
}

// Prompt prints a question without a trailing newline
func (c *Console) Prompt(format string, v ...interface{}) {
	c.bold.Fprintf(c.out, format, v...)
}

func repeat(r rune, n int) string {
	out := make([]rune, n)
	for i := range out {
		out[i] = r
	}
	return string(out)
}
