// Package observability provides formatted terminal output for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/video-summarizer/internal/pipeline"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxDescriptionLines bounds the description preview
	maxDescriptionLines = 8
)

// Printer handles formatted output for the summarize command
type Printer struct {
	out     io.Writer
	verbose bool
}

// NewPrinter creates a new Printer that writes to the given writer. Verbose
// printers also report every state transition and the fetched description.
func NewPrinter(out io.Writer, verbose bool) *Printer {
	return &Printer{out: out, verbose: verbose}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, lines []string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title))
	fmt.Fprintf(p.out, "├%s┤\n", border)
	for _, line := range lines {
		fmt.Fprintf(p.out, "│ %s │\n", pad(line))
	}
	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintEvent outputs one transition line in verbose mode.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintEvent(ev pipeline.Event) {
	if !p.verbose || ev.From == ev.To {
		return
	}
	fmt.Fprintf(p.out, "→ %-22s (%s)\n", ev.To, shortID(ev.RunID))
}

// PrintDescription outputs the start of the fetched description in verbose mode.
func (p *Printer) PrintDescription(snap pipeline.Snapshot) {
	if !p.verbose {
		return
	}

	lines := wrap(snap.Description)
	if len(lines) == 0 {
		lines = []string{"(empty description)"}
	}
	if len(lines) > maxDescriptionLines {
		more := len(lines) - maxDescriptionLines
		lines = append(lines[:maxDescriptionLines], fmt.Sprintf("... and %d more lines", more))
	}
	p.printBox("DESCRIPTION  "+string(snap.VideoID), lines)
}

// PrintSummary outputs the summary box.
func (p *Printer) PrintSummary(snap pipeline.Snapshot) {
	lines := append([]string{"Video: " + string(snap.VideoID), ""}, wrap(snap.Summary)...)
	p.printBox("SUMMARY", lines)
}

// PrintFailure outputs the user-facing failure message, with the cause in
// verbose mode.
func (p *Printer) PrintFailure(snap pipeline.Snapshot) {
	lines := []string{snap.ErrorMessage}
	if p.verbose && snap.Err != nil {
		lines = append(lines, "", "Cause:")
		lines = append(lines, wrap(snap.Err.Error())...)
	}
	p.printBox("FAILED", lines)
}

// wrap splits text into lines that fit inside a box, breaking on spaces.
func wrap(text string) []string {
	width := boxWidth - 4
	var out []string
	for _, para := range strings.Split(strings.TrimSpace(text), "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := ""
		for _, w := range words {
			for utf8.RuneCountInString(w) > width {
				if line != "" {
					out = append(out, line)
					line = ""
				}
				r := []rune(w)
				out = append(out, string(r[:width]))
				w = string(r[width:])
			}
			switch {
			case line == "":
				line = w
			case utf8.RuneCountInString(line)+1+utf8.RuneCountInString(w) <= width:
				line += " " + w
			default:
				out = append(out, line)
				line = w
			}
		}
		if line != "" {
			out = append(out, line)
		}
	}
	if len(out) == 1 && out[0] == "" {
		return nil
	}
	return out
}

// pad right-fills s to the box's inner width, truncating if needed.
func pad(s string) string {
	width := boxWidth - 4
	n := utf8.RuneCountInString(s)
	if n > width {
		r := []rune(s)
		return string(r[:width-3]) + "..."
	}
	return s + strings.Repeat(" ", width-n)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
