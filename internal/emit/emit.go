// Package emit renders a planned module graph into source text. A dialect
// is a capability set; rendering decisions flow from the capabilities and
// the policy bag, never from dialect name checks scattered through the
// renderers.
package emit

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/typeforge/typeforge/internal/diag"
	"github.com/typeforge/typeforge/internal/planner"
)

// Dialect names one rendering style.
type Dialect string

const (
	Pydantic    Dialect = "pydantic"    // validated class
	Dataclasses Dialect = "dataclasses" // frozen struct
	TypedDict   Dialect = "typeddict"   // typed mapping
	Msgspec     Dialect = "msgspec"     // tagged struct
)

// Capabilities describes what a dialect can express.
type Capabilities struct {
	Aliasing         bool // wire-name aliases on fields
	DefaultFactories bool // factory defaults for containers
	Immutability     bool // frozen declarations
	Constraints      bool // inline validation constraints
	Sentinel         bool // tri-state unset sentinel
	Defaults         bool // field defaults at all
}

// Caps returns the capability set of a dialect.
func Caps(d Dialect) Capabilities {
	switch d {
	case Dataclasses:
		return Capabilities{DefaultFactories: true, Immutability: true, Defaults: true}
	case TypedDict:
		// Keys are wire names, so aliasing is structural rather than a
		// rendered feature; nothing else applies to a plain mapping.
		return Capabilities{Aliasing: true}
	case Msgspec:
		return Capabilities{Aliasing: true, DefaultFactories: true, Immutability: true,
			Constraints: true, Sentinel: true, Defaults: true}
	default: // Pydantic
		return Capabilities{Aliasing: true, DefaultFactories: true, Immutability: true,
			Constraints: true, Defaults: true}
	}
}

// DescriptionPlacement selects where schema descriptions land.
type DescriptionPlacement int

const (
	DescDocstring DescriptionPlacement = iota
	DescFieldDoc
	DescInlineComment
	DescMetadata
)

// Header toggles the per-unit header lines. Source identity is always
// present.
type Header struct {
	Timestamp  bool
	Invocation bool
	Version    bool
}

// Options is the emission slice of the engine policy bag.
type Options struct {
	Dialect                Dialect
	FieldConstraints       bool
	Immutable              bool
	UseStandardCollections bool
	LiteralEnums           bool
	Description            DescriptionPlacement
	Header                 Header
	Version                string
	Invocation             string

	// Now supplies header timestamps; nil means time.Now.
	Now func() time.Time
}

// File is one emitted output unit.
type File struct {
	Path    string
	Content []byte
}

// Emit renders every unit and re-export surface of the graph, in unit
// order, surfaces last.
func Emit(g *planner.Graph, opts Options, d *diag.Diag) ([]File, error) {
	if opts.Dialect == "" {
		opts.Dialect = Pydantic
	}
	e := &emitter{g: g, opts: opts, caps: Caps(opts.Dialect), d: d}
	e.reportDowngrades()

	dirs := unitDirs(g)
	var files []File
	for _, u := range g.Units {
		text, err := e.renderUnit(u, dirs)
		if err != nil {
			return nil, err
		}
		files = append(files, File{Path: unitFile(u.Path, dirs), Content: []byte(text)})
	}
	for _, s := range g.Surfaces {
		if _, owned := g.Unit(s.Dir); owned {
			continue // already appended to the owning unit's file
		}
		files = append(files, File{Path: surfaceFile(s.Dir), Content: []byte(e.renderSurface(s))})
	}
	return files, nil
}

type emitter struct {
	g    *planner.Graph
	opts Options
	caps Capabilities
	d    *diag.Diag
}

// reportDowngrades surfaces one warning per requested feature the dialect
// cannot express; rendering then silently drops the feature.
func (e *emitter) reportDowngrades() {
	name := string(e.opts.Dialect)
	if e.opts.Immutable && !e.caps.Immutability {
		e.d.Warnf(diag.WarnDialectDowngrade, "",
			"immutability requested but %s cannot express it", name)
	}
	if e.opts.FieldConstraints && !e.caps.Constraints {
		e.d.Warnf(diag.WarnDialectDowngrade, "",
			"inline constraints requested but %s renders them as documentation", name)
	}
	if e.opts.Description == DescMetadata && !e.caps.Constraints {
		e.d.Warnf(diag.WarnDialectDowngrade, "",
			"metadata descriptions requested but %s falls back to docstrings", name)
	}
}

// unitDirs returns the unit paths that double as package directories for
// other units.
func unitDirs(g *planner.Graph) map[string]bool {
	dirs := map[string]bool{}
	for _, u := range g.Units {
		for _, v := range g.Units {
			if u == v {
				continue
			}
			if strings.HasPrefix(v.Path, u.Path+"/") {
				dirs[u.Path] = true
			}
		}
		for _, s := range g.Surfaces {
			if s.Dir == u.Path {
				dirs[u.Path] = true
			}
		}
	}
	return dirs
}

func unitFile(path string, dirs map[string]bool) string {
	if dirs[path] {
		return path + "/__init__.py"
	}
	return path + ".py"
}

func surfaceFile(dir string) string {
	if dir == "" {
		return "__init__.py"
	}
	return dir + "/__init__.py"
}

// renderUnit produces the full text of one unit: header, imports,
// declarations in planned order, then the finalize pass and, when the
// unit doubles as a package directory, its re-export surface.
func (e *emitter) renderUnit(u *planner.Unit, dirs map[string]bool) (string, error) {
	r := &unitRenderer{
		emitter:  e,
		unit:     u,
		imports:  newImportSet(),
		declared: map[string]bool{},
	}

	var decls []string
	for _, m := range u.Models {
		text, err := r.renderModel(m)
		if err != nil {
			return "", err
		}
		decls = append(decls, text)
		r.declared[m.Key] = true
	}

	var b strings.Builder
	b.WriteString(e.header(u))
	b.WriteString(r.imports.render())
	for _, d := range decls {
		b.WriteString("\n\n")
		b.WriteString(d)
	}
	if fin := r.finalize(); fin != "" {
		b.WriteString("\n\n")
		b.WriteString(fin)
	}
	if dirs[u.Path] {
		if s := e.surfaceFor(u.Path); s != nil {
			b.WriteString("\n\n")
			b.WriteString(e.exportLines(s, u.Path))
		}
	}
	b.WriteString("\n")
	return b.String(), nil
}

func (e *emitter) surfaceFor(dir string) *planner.Surface {
	for _, s := range e.g.Surfaces {
		if s.Dir == dir {
			return s
		}
	}
	return nil
}

// header renders the deterministic unit banner. Source identity is the
// sorted set of documents contributing models to the unit.
func (e *emitter) header(u *planner.Unit) string {
	seen := map[string]bool{}
	var sources []string
	for _, m := range u.Models {
		doc := m.Key
		if i := strings.IndexByte(doc, '#'); i >= 0 {
			doc = doc[:i]
		}
		if !seen[doc] {
			seen[doc] = true
			sources = append(sources, doc)
		}
	}
	sort.Strings(sources)

	var b strings.Builder
	b.WriteString("# generated by typeforge:\n")
	fmt.Fprintf(&b, "#   source: %s\n", strings.Join(sources, ", "))
	if e.opts.Header.Timestamp {
		now := time.Now
		if e.opts.Now != nil {
			now = e.opts.Now
		}
		fmt.Fprintf(&b, "#   timestamp: %s\n", now().UTC().Format(time.RFC3339))
	}
	if e.opts.Header.Invocation {
		fmt.Fprintf(&b, "#   invocation: %s\n", e.opts.Invocation)
	}
	if e.opts.Header.Version {
		fmt.Fprintf(&b, "#   version: %s\n", e.opts.Version)
	}
	b.WriteString("\n")
	return b.String()
}

// renderSurface produces a standalone __init__ re-export file.
func (e *emitter) renderSurface(s *planner.Surface) string {
	var b strings.Builder
	b.WriteString("# generated by typeforge:\n")
	fmt.Fprintf(&b, "#   source: re-exports for %s\n\n", surfaceName(s.Dir))
	b.WriteString(e.exportLines(s, s.Dir))
	b.WriteString("\n")
	return b.String()
}

func surfaceName(dir string) string {
	if dir == "" {
		return "the module root"
	}
	return dir
}

// exportLines renders the import-and-reexport block plus __all__.
func (e *emitter) exportLines(s *planner.Surface, fromDir string) string {
	var b strings.Builder
	var all []string
	for _, ex := range s.Exports {
		if ex.From == fromDir {
			// The owning unit already declares the name.
			all = append(all, ex.Name)
			continue
		}
		module := strings.ReplaceAll(ex.From, "/", ".")
		if ex.Alias != "" {
			fmt.Fprintf(&b, "from %s import %s as %s\n", module, ex.Name, ex.Alias)
			all = append(all, ex.Alias)
		} else {
			fmt.Fprintf(&b, "from %s import %s\n", module, ex.Name)
			all = append(all, ex.Name)
		}
	}
	b.WriteString("\n__all__ = [\n")
	for _, name := range all {
		fmt.Fprintf(&b, "    %q,\n", name)
	}
	b.WriteString("]")
	return b.String()
}
