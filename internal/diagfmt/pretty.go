package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"hdlelab/internal/diag"
	"hdlelab/internal/source"
)

type palette struct {
	err, warn, info, note, gutter, caret *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		note:   color.New(color.FgBlue, color.Bold),
		gutter: color.New(color.FgBlue),
		caret:  color.New(color.FgRed, color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.note, p.gutter, p.caret} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем строку исходника с подчёркиванием ^~~~ по Span, затем Notes.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	for i, d := range bag.Items() {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		var b strings.Builder
		writeHeader(&b, p, fs, opts, d)
		writeSnippet(&b, p, fs, opts, d.Primary, p.caret)
		if opts.ShowNotes || d.Code == diag.ObsTimings {
			for _, n := range d.Notes {
				writeNote(&b, p, fs, opts, n)
			}
		}
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
	}
	return nil
}

func location(fs *source.FileSet, opts PrettyOpts, span source.Span) (string, bool) {
	f := locatedFile(span, fs)
	if f == nil {
		return "", false
	}
	start, _ := fs.Resolve(span)
	return fmt.Sprintf("%s:%d:%d", formatPath(f, fs, opts.PathMode), start.Line, start.Col), true
}

func writeHeader(b *strings.Builder, p palette, fs *source.FileSet, opts PrettyOpts, d diag.Diagnostic) {
	if loc, ok := location(fs, opts, d.Primary); ok {
		b.WriteString(loc)
		b.WriteString(": ")
	}
	b.WriteString(p.severity(d.Severity).Sprint(d.Severity.String()))
	b.WriteString(" ")
	b.WriteString(d.Code.ID())
	b.WriteString(": ")
	b.WriteString(d.Message)
	b.WriteByte('\n')
}

func writeNote(b *strings.Builder, p palette, fs *source.FileSet, opts PrettyOpts, n diag.Note) {
	b.WriteString("  = ")
	b.WriteString(p.note.Sprint("note"))
	b.WriteString(": ")
	b.WriteString(n.Msg)
	b.WriteByte('\n')
	if loc, ok := location(fs, opts, n.Span); ok {
		b.WriteString("    --> ")
		b.WriteString(loc)
		b.WriteByte('\n')
		writeSnippet(b, p, fs, opts, n.Span, p.note)
	}
}

// writeSnippet prints the first line of span with a caret underline. Wide
// runes shift the underline by their display width.
func writeSnippet(b *strings.Builder, p palette, fs *source.FileSet, opts PrettyOpts, span source.Span, caret *color.Color) {
	f := locatedFile(span, fs)
	if f == nil {
		return
	}
	start, end := fs.Resolve(span)
	width := len(strconv.FormatUint(uint64(start.Line), 10))

	first := uint32(1)
	if ctx := uint32(max(opts.Context, 0)); start.Line > ctx {
		first = start.Line - ctx
	}
	for ln := first; ln <= start.Line; ln++ {
		fmt.Fprintf(b, "%s %s\n", p.gutter.Sprintf("%*d |", width, ln), expandTabs(f.GetLine(ln)))
	}

	line := expandTabs(f.GetLine(start.Line))
	col := int(start.Col) - 1
	col = min(max(col, 0), len(line))
	stop := len(line)
	if end.Line == start.Line {
		stop = min(max(int(end.Col)-1, col), len(line))
	}
	pad := runewidth.StringWidth(line[:col])
	under := max(runewidth.StringWidth(line[col:stop]), 1)

	fmt.Fprintf(b, "%s %s%s\n",
		p.gutter.Sprint(strings.Repeat(" ", width)+" |"),
		strings.Repeat(" ", pad),
		caret.Sprint("^"+strings.Repeat("~", under-1)))
}

// expandTabs keeps byte offsets valid: each tab becomes one space.
func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", " ")
}
