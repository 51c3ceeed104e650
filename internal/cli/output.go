package cli

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"github.com/tacogips/doxx/internal/config"
	"github.com/tacogips/doxx/internal/errors"
)

// Status markers
const (
	markProgress = "→"
	markSuccess  = "✓"
	markFailure  = "✗"
	markWarning  = "⚠"
)

// printer writes status lines. It implements app.Reporter.
type printer struct {
	out     io.Writer
	errOut  io.Writer
	quiet   bool
	verbose bool

	progress lipgloss.Style
	success  lipgloss.Style
	failure  lipgloss.Style
	warning  lipgloss.Style
	muted    lipgloss.Style
}

// newPrinter creates a printer for the loaded configuration.
func newPrinter(out, errOut io.Writer, c *config.Config) *printer {
	r := lipgloss.NewRenderer(out)
	if !colorEnabled(out, c.Output.Color) {
		r.SetColorProfile(termenv.Ascii)
	}
	return &printer{
		out:      out,
		errOut:   errOut,
		quiet:    c.Output.Quiet,
		verbose:  c.Output.Verbose,
		progress: r.NewStyle().Foreground(lipgloss.Color("4")),
		success:  r.NewStyle().Foreground(lipgloss.Color("2")),
		failure:  r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		warning:  r.NewStyle().Foreground(lipgloss.Color("3")),
		muted:    r.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// colorEnabled reports whether w is a color capable terminal.
func colorEnabled(w io.Writer, configured bool) bool {
	if !configured || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		return false
	}
	return termenv.ColorProfile() != termenv.Ascii
}

// Progress prints a step that is starting.
func (p *printer) Progress(msg string) {
	if p.quiet {
		return
	}
	fmt.Fprintf(p.out, "%s %s\n", p.progress.Render(markProgress), msg)
}

// Success prints a completed item.
func (p *printer) Success(msg string) {
	if p.quiet {
		return
	}
	fmt.Fprintf(p.out, "%s %s\n", p.success.Render(markSuccess), msg)
}

// Failure prints a failed item. Failures are shown even in quiet mode.
func (p *printer) Failure(err error) {
	fmt.Fprintf(p.errOut, "%s %s\n", p.failure.Render(markFailure), formatError(err))
	if p.verbose {
		if details := detailLine(err); details != "" {
			fmt.Fprintf(p.errOut, "  %s\n", p.muted.Render(details))
		}
	}
}

// Warning prints a non-fatal problem.
func (p *printer) Warning(msg string) {
	if p.quiet {
		return
	}
	fmt.Fprintf(p.errOut, "%s %s\n", p.warning.Render(markWarning), msg)
}

// Info prints a plain line.
func (p *printer) Info(msg string) {
	if p.quiet {
		return
	}
	fmt.Fprintln(p.out, msg)
}

// formatError renders err for the terminal. Aggregated build errors show
// only their summary because each failure was already reported.
func formatError(err error) string {
	var doxxErr *errors.DoxxError
	if stderrors.As(err, &doxxErr) {
		if doxxErr.Code == errors.ErrBuildIncomplete {
			return doxxErr.Message
		}
		if doxxErr.Wrapped != nil {
			return fmt.Sprintf("%s: %v", doxxErr.Message, doxxErr.Wrapped)
		}
		return doxxErr.Message
	}
	return err.Error()
}

// detailLine formats the details of a coded error as sorted key=value pairs.
func detailLine(err error) string {
	details := errors.GetErrorDetails(err)
	if len(details) == 0 {
		return ""
	}
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, details[k]))
	}
	return fmt.Sprintf("[%s] %s", errors.GetErrorCode(err), strings.Join(parts, " "))
}
