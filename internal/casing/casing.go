// Package casing implements identifier normalization: case transforms,
// identifier checks and the reserved-word table of the output language.
package casing

import (
	"strings"
	"unicode"
)

// Mode is an identifier case policy.
type Mode int

const (
	Keep Mode = iota
	Snake
	Pascal
	Camel
)

// Transform applies the case policy to an already identifier-safe name.
func Transform(s string, m Mode) string {
	switch m {
	case Snake:
		return toSnake(s)
	case Pascal:
		return toPascal(s)
	case Camel:
		c := toPascal(s)
		if c == "" {
			return c
		}
		return strings.ToLower(c[:1]) + c[1:]
	default:
		return s
	}
}

// words splits an identifier-ish string into lowercase word runs, breaking
// on delimiters and on lower-to-upper transitions.
func words(s string) []string {
	var out []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, strings.ToLower(cur.String()))
			cur.Reset()
		}
	}
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == ' ' || r == '.' || r == '/':
			flush()
		case unicode.IsUpper(r):
			if i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])) {
				flush()
			} else if i > 0 && unicode.IsUpper(runes[i-1]) && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
				// end of an acronym run: HTTPServer -> http, server
				flush()
			}
			cur.WriteRune(r)
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}

func toSnake(s string) string { return strings.Join(words(s), "_") }

func toPascal(s string) string {
	ws := words(s)
	var b strings.Builder
	for _, w := range ws {
		if w == "" {
			continue
		}
		b.WriteString(strings.ToUpper(w[:1]))
		b.WriteString(w[1:])
	}
	return b.String()
}

// Sanitize rewrites an arbitrary string into an identifier-safe one:
// every run of non-identifier characters collapses into one underscore.
// The result may still start with a digit; callers handle prefixing.
func Sanitize(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore && b.Len() > 0 {
			b.WriteRune('_')
			lastUnderscore = true
		}
	}
	return strings.TrimRight(b.String(), "_")
}

// IsIdentifier reports whether s is a valid identifier in the output
// language (letters, digits, underscore, not digit-leading, non-empty).
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if unicode.IsDigit(r) && i > 0 {
			continue
		}
		return false
	}
	return true
}

// LeadsIdentifier reports whether s can start an identifier.
func LeadsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	r := []rune(s)[0]
	return r == '_' || unicode.IsLetter(r)
}

// reserved is the keyword table of the output language (Python), plus the
// names the generated code itself needs free.
var reserved = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true,
	"assert": true, "async": true, "await": true, "break": true,
	"class": true, "continue": true, "def": true, "del": true,
	"elif": true, "else": true, "except": true, "finally": true,
	"for": true, "from": true, "global": true, "if": true, "import": true,
	"in": true, "is": true, "lambda": true, "nonlocal": true, "not": true,
	"or": true, "pass": true, "raise": true, "return": true, "try": true,
	"while": true, "with": true, "yield": true,
	// soft keywords and generated-code collisions
	"match": true, "case": true, "type": true,
}

// IsReserved reports whether s is a reserved word in the output language.
func IsReserved(s string) bool { return reserved[s] }
