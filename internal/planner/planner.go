// Package planner groups named models into output units, orders units by
// dependency, breaks unit-level cycles with deferred rebuilds and marks
// models that need a post-declaration rebuild pass inside their unit.
package planner

import (
	"fmt"
	"sort"
	"strings"

	"github.com/typeforge/typeforge/internal/casing"
	"github.com/typeforge/typeforge/internal/diag"
	"github.com/typeforge/typeforge/internal/ir"
)

// Layout selects how models are grouped into units.
type Layout int

const (
	Single    Layout = iota // one unit holds everything
	Dotted                  // dotted name segments become path components
	PerEntity               // one unit per model
)

// Reexport controls generated re-export surfaces.
type Reexport int

const (
	ReexportOff Reexport = iota
	MinimalPrefix
	FullPrefix
	ReexportError
)

// Options is the planning slice of the engine policy bag.
type Options struct {
	Layout   Layout
	Reexport Reexport
}

// rootUnit is the path models land in when the layout gives them no
// better home.
const rootUnit = "models"

// Unit is one output file worth of models in declaration order.
type Unit struct {
	Path    string
	Models  []*ir.Model
	Imports []string // unit paths this unit depends on, sorted
}

// Export is one name re-exported by a directory surface.
type Export struct {
	Name  string
	From  string // owning unit path
	Alias string // non-empty when the surface renames the export
}

// Surface is the re-export listing for one directory.
type Surface struct {
	Dir     string
	Exports []Export
}

// Graph is the planned module graph. Units appear in emission order:
// every unit precedes the units that import it, with declaration order
// breaking ties.
type Graph struct {
	Units    []*Unit
	Surfaces []*Surface
	Forest   *ir.Forest
}

// Unit returns the unit owning the given path.
func (g *Graph) Unit(path string) (*Unit, bool) {
	for _, u := range g.Units {
		if u.Path == path {
			return u, true
		}
	}
	return nil, false
}

// Plan assigns every live model to a unit and computes the emission
// order. It mutates only Module and NeedsRebuild on the models.
func Plan(f *ir.Forest, opts Options, d *diag.Diag) (*Graph, error) {
	p := &planner{f: f, opts: opts, d: d, owner: map[string]string{}}

	p.assign()
	p.breakCycles()
	p.orderUnits()
	for _, u := range p.units {
		p.orderWithin(u)
		for _, m := range u.Models {
			m.Module = u.Path
		}
		u.Imports = p.importsOf(u)
	}

	g := &Graph{Units: p.units, Forest: f}
	if opts.Reexport != ReexportOff && opts.Layout != Single {
		surfaces, err := p.surfaces()
		if err != nil {
			return nil, err
		}
		g.Surfaces = surfaces
	}
	return g, nil
}

type planner struct {
	f     *ir.Forest
	opts  Options
	d     *diag.Diag
	units []*Unit
	owner map[string]string // model key → unit path
}

// assign places every live model, creating units lazily in declaration
// order so the unit list is deterministic.
func (p *planner) assign() {
	byPath := map[string]*Unit{}
	for _, m := range p.f.Live() {
		path := p.pathFor(m)
		u, ok := byPath[path]
		if !ok {
			u = &Unit{Path: path}
			byPath[path] = u
			p.units = append(p.units, u)
		}
		u.Models = append(u.Models, m)
		p.owner[m.Key] = path
	}
}

func (p *planner) pathFor(m *ir.Model) string {
	switch p.opts.Layout {
	case Dotted:
		for _, cand := range m.Candidates {
			if i := strings.LastIndexByte(cand, '.'); i > 0 {
				segs := strings.Split(cand[:i], ".")
				for j, s := range segs {
					segs[j] = casing.Transform(casing.Sanitize(s), casing.Snake)
				}
				return rootUnit + "/" + strings.Join(segs, "/")
			}
		}
		return rootUnit
	case PerEntity:
		return rootUnit + "/" + casing.Transform(m.Name, casing.Snake)
	default:
		return rootUnit
	}
}

// deps returns the units a model's declaration reaches, deduplicated and
// in reference order.
func (p *planner) deps(m *ir.Model) []string {
	var keys []string
	for _, fld := range m.Fields {
		keys = append(keys, ir.Refs(fld.Type)...)
	}
	for _, base := range m.Bases {
		keys = append(keys, base.Key)
	}
	if m.ExtraValue != nil {
		keys = append(keys, ir.Refs(m.ExtraValue)...)
	}
	if m.Target != nil {
		keys = append(keys, ir.Refs(m.Target)...)
	}
	if m.AliasOf != "" {
		keys = append(keys, m.AliasOf)
	}

	var out []string
	seen := map[string]bool{}
	for _, k := range keys {
		rm, ok := p.f.Lookup(k)
		if !ok {
			continue
		}
		path := p.owner[rm.Key]
		if path == "" || seen[path] {
			continue
		}
		seen[path] = true
		out = append(out, path)
	}
	return out
}

// breakCycles finds unit-level dependency cycles and breaks them with
// forward declarations: every model whose fields reach another unit of
// the same cycle stays in its own unit and is marked for a rebuild pass
// after all units are declared. Each unit keeps importing only the names
// it uses from the others.
func (p *planner) breakCycles() {
	if p.opts.Layout == Single {
		return
	}
	cyclic := p.cyclicUnits()
	if len(cyclic) == 0 {
		return
	}
	for _, u := range p.units {
		if !cyclic[u.Path] {
			continue
		}
		for _, m := range u.Models {
			for _, dep := range p.deps(m) {
				if dep != u.Path && cyclic[dep] {
					m.NeedsRebuild = true
					p.d.Warnf(diag.WarnUnitCycle, m.Key,
						"unit cycle between %s and %s; declaration deferred to a rebuild", u.Path, dep)
					break
				}
			}
		}
	}
}

// cyclicUnits returns the unit paths left over after peeling all units
// with no unresolved dependencies, i.e. the members of dependency cycles.
func (p *planner) cyclicUnits() map[string]bool {
	edges := map[string]map[string]bool{}
	for _, u := range p.units {
		edges[u.Path] = map[string]bool{}
		for _, m := range u.Models {
			for _, dep := range p.deps(m) {
				if dep != u.Path {
					edges[u.Path][dep] = true
				}
			}
		}
	}
	remaining := map[string]bool{}
	for path := range edges {
		remaining[path] = true
	}
	for {
		progressed := false
		for _, u := range p.units {
			if !remaining[u.Path] {
				continue
			}
			blocked := false
			for dep := range edges[u.Path] {
				if remaining[dep] {
					blocked = true
					break
				}
			}
			if !blocked {
				delete(remaining, u.Path)
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}
	return remaining
}

func (p *planner) modelRefKeys(m *ir.Model) []string {
	var keys []string
	for _, fld := range m.Fields {
		keys = append(keys, ir.Refs(fld.Type)...)
	}
	for _, base := range m.Bases {
		keys = append(keys, base.Key)
	}
	if m.ExtraValue != nil {
		keys = append(keys, ir.Refs(m.ExtraValue)...)
	}
	if m.Target != nil {
		keys = append(keys, ir.Refs(m.Target)...)
	}
	if m.AliasOf != "" {
		keys = append(keys, m.AliasOf)
	}
	return keys
}

// orderUnits sorts the unit list so dependencies precede dependents,
// keeping creation order among unordered peers.
func (p *planner) orderUnits() {
	unitDeps := map[string]map[string]bool{}
	for _, u := range p.units {
		unitDeps[u.Path] = map[string]bool{}
		for _, m := range u.Models {
			for _, dep := range p.deps(m) {
				if dep != u.Path {
					unitDeps[u.Path][dep] = true
				}
			}
		}
	}
	var ordered []*Unit
	emitted := map[string]bool{}
	for len(ordered) < len(p.units) {
		progressed := false
		for _, u := range p.units {
			if emitted[u.Path] {
				continue
			}
			ready := true
			for dep := range unitDeps[u.Path] {
				if !emitted[dep] {
					ready = false
					break
				}
			}
			if ready {
				emitted[u.Path] = true
				ordered = append(ordered, u)
				progressed = true
			}
		}
		if !progressed {
			// A residual cycle: keep creation order for what is left.
			for _, u := range p.units {
				if !emitted[u.Path] {
					emitted[u.Path] = true
					ordered = append(ordered, u)
				}
			}
		}
	}
	p.units = ordered
}

// orderWithin topologically sorts a unit's models so bases and referenced
// types are declared first. Models whose declarations stay mutually
// referential keep declaration order and get the deferred-rebuild marker,
// as does anything carrying a forward reference from synthesis.
func (p *planner) orderWithin(u *Unit) {
	index := map[string]int{}
	for i, m := range u.Models {
		index[m.Key] = i
	}
	local := func(m *ir.Model) []int {
		var out []int
		for _, key := range p.modelRefKeys(m) {
			if rm, ok := p.f.Lookup(key); ok {
				if j, here := index[rm.Key]; here && rm.Key != m.Key {
					out = append(out, j)
				}
			}
		}
		return out
	}

	var ordered []*ir.Model
	placed := make([]bool, len(u.Models))
	count := 0
	for count < len(u.Models) {
		progressed := false
		for i, m := range u.Models {
			if placed[i] {
				continue
			}
			ready := true
			for _, j := range local(m) {
				if !placed[j] {
					ready = false
					break
				}
			}
			if ready {
				placed[i] = true
				ordered = append(ordered, m)
				count++
				progressed = true
			}
		}
		if !progressed {
			for i, m := range u.Models {
				if !placed[i] {
					placed[i] = true
					m.NeedsRebuild = true
					ordered = append(ordered, m)
					count++
				}
			}
		}
	}
	u.Models = ordered

	for _, m := range u.Models {
		if m.NeedsRebuild {
			continue
		}
		for _, fld := range m.Fields {
			if ir.ForwardRefs(fld.Type) {
				m.NeedsRebuild = true
				break
			}
		}
	}
}

func (p *planner) importsOf(u *Unit) []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range u.Models {
		for _, dep := range p.deps(m) {
			if dep == u.Path || seen[dep] {
				continue
			}
			seen[dep] = true
			out = append(out, dep)
		}
	}
	sort.Strings(out)
	return out
}

// surfaces computes the per-directory re-export listings. Model names are
// globally unique after naming, so collisions only arise when a caller
// feeds a hand-built forest; the policy still decides the outcome.
func (p *planner) surfaces() ([]*Surface, error) {
	dirSet := map[string]bool{}
	var dirs []string
	for _, u := range p.units {
		for dir := parentDir(u.Path); ; dir = parentDir(dir) {
			if !dirSet[dir] {
				dirSet[dir] = true
				dirs = append(dirs, dir)
			}
			if dir == "" {
				break
			}
		}
	}
	sort.Strings(dirs)

	var out []*Surface
	for _, dir := range dirs {
		s := &Surface{Dir: dir}
		claimed := map[string]string{} // export name → owning unit
		for _, u := range p.units {
			if !underDir(u.Path, dir) {
				continue
			}
			for _, m := range u.Models {
				name := m.Name
				alias := ""
				if prev, dup := claimed[name]; dup {
					switch p.opts.Reexport {
					case ReexportError:
						return nil, &diag.NamingCollisionError{
							Scope: "reexport " + dir, Name: name, A: prev, B: u.Path,
						}
					case MinimalPrefix:
						alias = minimalExport(u.Path, dir, name, claimed)
					default:
						alias = prefixedExport(u.Path, dir, name, 0)
					}
				} else if p.opts.Reexport == FullPrefix {
					alias = prefixedExport(u.Path, dir, name, 0)
				}
				exportAs := name
				if alias != "" {
					exportAs = alias
				}
				claimed[exportAs] = u.Path
				s.Exports = append(s.Exports, Export{Name: name, From: u.Path, Alias: alias})
			}
		}
		out = append(out, s)
	}
	return out, nil
}

// prefixedExport disambiguates an export with the trailing keep segments
// of its unit path relative to the surface directory; keep <= 0 takes
// the whole relative path.
func prefixedExport(unitPath, dir, name string, keep int) string {
	rel := strings.TrimPrefix(strings.TrimPrefix(unitPath, dir), "/")
	segs := strings.Split(rel, "/")
	if keep > 0 && keep < len(segs) {
		segs = segs[len(segs)-keep:]
	}
	return fmt.Sprintf("%s_%s", strings.Join(segs, "_"), name)
}

// minimalExport grows the disambiguating prefix one path segment at a
// time until the export name is free on the surface.
func minimalExport(unitPath, dir, name string, claimed map[string]string) string {
	rel := strings.TrimPrefix(strings.TrimPrefix(unitPath, dir), "/")
	max := len(strings.Split(rel, "/"))
	for keep := 1; keep <= max; keep++ {
		cand := prefixedExport(unitPath, dir, name, keep)
		if _, dup := claimed[cand]; !dup {
			return cand
		}
	}
	return prefixedExport(unitPath, dir, name, 0)
}

func parentDir(path string) string {
	if i := strings.LastIndexByte(path, '/'); i > 0 {
		return path[:i]
	}
	return ""
}

func underDir(path, dir string) bool {
	return dir == "" || path == dir || strings.HasPrefix(path, dir+"/")
}
