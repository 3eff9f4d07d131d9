// Package location defines the document+pointer identity used as the stable
// key for every raw schema fragment. A location renders as
// "<document>#<json-pointer>" and is the arena index for the whole engine.
package location

import (
	"fmt"
	"strings"
)

// Location identifies one schema fragment: a document identity plus a JSON
// Pointer within it. The zero value points at the root of an anonymous
// document.
type Location struct {
	Document string
	Pointer  string // RFC 6901, "" means document root
}

// Root returns the root location of a document.
func Root(document string) Location { return Location{Document: document} }

// Push returns the location of a child reached via token.
func (l Location) Push(token string) Location {
	return Location{Document: l.Document, Pointer: l.Pointer + "/" + EscapeToken(token)}
}

// PushIndex returns the location of the i-th array element.
func (l Location) PushIndex(i int) Location {
	return Location{Document: l.Document, Pointer: fmt.Sprintf("%s/%d", l.Pointer, i)}
}

// String renders "<document>#<pointer>".
func (l Location) String() string { return l.Document + "#" + l.Pointer }

// IsRoot reports whether the location addresses a document root.
func (l Location) IsRoot() bool { return l.Pointer == "" }

// Base returns the last pointer token, unescaped, or the document basename
// for a root location. Used as a reference-derived name candidate.
func (l Location) Base() string {
	if l.Pointer == "" {
		doc := l.Document
		if i := strings.LastIndexByte(doc, '/'); i >= 0 {
			doc = doc[i+1:]
		}
		if i := strings.IndexByte(doc, '.'); i > 0 {
			doc = doc[:i]
		}
		return doc
	}
	p := l.Pointer
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		p = p[i+1:]
	}
	return UnescapeToken(p)
}

// EscapeToken escapes a pointer token per RFC 6901 (~ -> ~0, / -> ~1).
func EscapeToken(s string) string {
	s = strings.ReplaceAll(s, "~", "~0")
	return strings.ReplaceAll(s, "/", "~1")
}

// UnescapeToken reverses EscapeToken.
func UnescapeToken(s string) string {
	s = strings.ReplaceAll(s, "~1", "/")
	return strings.ReplaceAll(s, "~0", "~")
}

// SplitPointer returns the unescaped tokens of a pointer. An empty pointer
// yields nil. A malformed pointer (not starting with '/') returns an error.
func SplitPointer(ptr string) ([]string, error) {
	if ptr == "" {
		return nil, nil
	}
	if ptr[0] != '/' {
		return nil, fmt.Errorf("pointer %q must start with '/'", ptr)
	}
	parts := strings.Split(ptr[1:], "/")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = UnescapeToken(p)
	}
	return out, nil
}

// ParseRef splits a reference string into a document identity (possibly
// empty for same-document refs) and a pointer. The fragment separator is
// mandatory for pointer refs; a bare identity refers to that document's
// root.
func ParseRef(ref string, from Location) (Location, error) {
	if ref == "" {
		return Location{}, fmt.Errorf("empty reference")
	}
	doc := from.Document
	ptr := ""
	if i := strings.IndexByte(ref, '#'); i >= 0 {
		if i > 0 {
			doc = resolveDocument(from.Document, ref[:i])
		}
		ptr = ref[i+1:]
	} else {
		doc = resolveDocument(from.Document, ref)
	}
	if ptr != "" && ptr[0] != '/' {
		// Anchor-style fragments are resolved by the caller against the
		// target document's anchor table; keep the raw fragment here.
		return Location{Document: doc, Pointer: "#" + ptr}, nil
	}
	return Location{Document: doc, Pointer: ptr}, nil
}

// IsAnchor reports whether the location carries an unresolved plain-name
// fragment produced by ParseRef.
func (l Location) IsAnchor() bool { return strings.HasPrefix(l.Pointer, "#") }

// AnchorName returns the plain-name fragment for anchor locations.
func (l Location) AnchorName() string { return strings.TrimPrefix(l.Pointer, "#") }

// resolveDocument resolves a relative document identity against the
// referring document. Absolute URLs and absolute paths pass through.
func resolveDocument(base, rel string) string {
	if rel == "" {
		return base
	}
	if strings.Contains(rel, "://") || strings.HasPrefix(rel, "/") {
		return rel
	}
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		return base[:i+1] + rel
	}
	return rel
}
