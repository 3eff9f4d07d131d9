// Package formatter holds the post-emission text collaborators. Every
// formatter is a pure text transform: style only, no reordering of
// declarations, composable in sequence.
package formatter

import "strings"

// Options is the style bag shared by the built-in formatters.
type Options struct {
	// Indent replaces the four-space indentation unit when non-empty.
	Indent string
	// MaxBlankRun collapses longer runs of blank lines; <=0 keeps them.
	MaxBlankRun int
}

// Formatter transforms emitted text. Implementations must be pure: the
// same input always yields the same output.
type Formatter interface {
	Format(text string) string
}

// Func adapts a plain function to the Formatter interface.
type Func func(string) string

func (f Func) Format(text string) string { return f(text) }

// Chain applies formatters left to right.
func Chain(fs ...Formatter) Formatter {
	return Func(func(text string) string {
		for _, f := range fs {
			text = f.Format(text)
		}
		return text
	})
}

// Normalize strips trailing whitespace per line, collapses blank runs per
// Options, and guarantees exactly one trailing newline.
func Normalize(opts Options) Formatter {
	return Func(func(text string) string {
		lines := strings.Split(text, "\n")
		out := make([]string, 0, len(lines))
		blanks := 0
		for _, line := range lines {
			line = strings.TrimRight(line, " \t")
			if line == "" {
				blanks++
				if opts.MaxBlankRun > 0 && blanks > opts.MaxBlankRun {
					continue
				}
			} else {
				blanks = 0
			}
			out = append(out, line)
		}
		for len(out) > 0 && out[len(out)-1] == "" {
			out = out[:len(out)-1]
		}
		return strings.Join(out, "\n") + "\n"
	})
}

// Indent rewrites leading four-space indentation units to Options.Indent.
// Lines that do not start on a four-space boundary are left alone, so the
// transform never touches string literals carrying leading spaces.
func Indent(opts Options) Formatter {
	unit := opts.Indent
	return Func(func(text string) string {
		if unit == "" || unit == "    " {
			return text
		}
		lines := strings.Split(text, "\n")
		for i, line := range lines {
			depth := 0
			for strings.HasPrefix(line, "    ") {
				depth++
				line = line[4:]
			}
			if depth > 0 {
				lines[i] = strings.Repeat(unit, depth) + line
			}
		}
		return strings.Join(lines, "\n")
	})
}
