// Package naming assigns the final, collision-free identifiers to a
// synthesized forest and collapses structurally identical models. It is
// the only stage that mutates Name, Alias and the collapse markers; the
// forest is immutable once it returns.
package naming

import (
	"fmt"

	"github.com/typeforge/typeforge/internal/casing"
	"github.com/typeforge/typeforge/internal/diag"
	"github.com/typeforge/typeforge/internal/ir"
)

// Collision decides how a claimed-name collision is repaired.
type Collision int

const (
	// RenameField suffixes the later field and aliases it back to the wire
	// name.
	RenameField Collision = iota
	// RenameType suffixes the type instead, keeping the field name.
	RenameType
	// Error aborts on any collision.
	Error
)

// ReuseScope bounds structural deduplication.
type ReuseScope int

const (
	ReuseOff  ReuseScope = iota
	ReuseUnit            // collapse only among models from one source document
	ReuseTree            // collapse across the whole forest
)

// ReuseStyle selects how a collapsed duplicate is expressed.
type ReuseStyle int

const (
	Substitute ReuseStyle = iota // references retarget to the survivor
	AliasClass                   // the duplicate stays as an empty subclass
)

// Options is the naming slice of the engine policy bag, wired at call
// sites to keep this package dependency-light.
type Options struct {
	FieldCase     casing.Mode
	ModelCase     casing.Mode
	UseAliases    bool
	Collision     Collision
	SpecialPrefix string // injected before non-identifier-leading names
	StripPrefix   bool   // omit the prefix when the sanitized name stands alone
	Reuse         ReuseScope
	ReuseStyle    ReuseStyle
}

func (o Options) withDefaults() Options {
	if o.SpecialPrefix == "" {
		o.SpecialPrefix = "field_"
	}
	return o
}

// modelPrefix guards type names that cannot lead an identifier; it is
// fixed because type names are always produced in the model case.
const modelPrefix = "Model"

// Assign names every live model and field in the forest. Order of work:
// structural reuse first, then type names, then field names, then the
// field-shadows-type repair pass. Every step iterates in declaration or
// sorted order, never map order.
func Assign(f *ir.Forest, opts Options, d *diag.Diag) error {
	opts = opts.withDefaults()
	r := &resolver{f: f, opts: opts, d: d, taken: map[string]*ir.Model{}}

	if opts.Reuse != ReuseOff {
		r.collapse()
	}
	if err := r.nameModels(); err != nil {
		return err
	}
	if err := r.nameFields(); err != nil {
		return err
	}
	return r.repairShadowing()
}

type resolver struct {
	f     *ir.Forest
	opts  Options
	d     *diag.Diag
	taken map[string]*ir.Model // claimed type names
}

// nameModels claims one type name per live model, walking in declaration
// order so the first-declared model keeps the cleanest candidate.
func (r *resolver) nameModels() error {
	for _, m := range r.f.Live() {
		name, err := r.claimModelName(m)
		if err != nil {
			return err
		}
		m.Name = name
	}
	return nil
}

func (r *resolver) claimModelName(m *ir.Model) (string, error) {
	var first string
	for _, cand := range m.Candidates {
		norm := r.modelForm(cand)
		if norm == "" {
			continue
		}
		if first == "" {
			first = norm
		}
		if _, used := r.taken[norm]; !used {
			r.taken[norm] = m
			return norm, nil
		}
	}
	if first == "" {
		first = modelPrefix
	}
	if prev, used := r.taken[first]; used && r.opts.Collision == Error {
		return "", &diag.NamingCollisionError{
			Scope: "types", Name: first,
			A: prev.Key, B: m.Key,
		}
	}
	if _, used := r.taken[first]; !used {
		r.taken[first] = m
		return first, nil
	}
	for i := 1; ; i++ {
		norm := fmt.Sprintf("%s%d", first, i)
		if _, used := r.taken[norm]; !used {
			r.taken[norm] = m
			return norm, nil
		}
	}
}

// modelForm normalizes one candidate into a legal type name.
func (r *resolver) modelForm(cand string) string {
	name := casing.Sanitize(cand)
	if name == "" {
		return ""
	}
	name = casing.Transform(name, r.opts.ModelCase)
	if !casing.LeadsIdentifier(name) || casing.IsReserved(name) {
		name = modelPrefix + name
	}
	return name
}

// nameFields assigns field identifiers per model. Duplicates inside one
// model always suffix the later field since renaming a type cannot
// separate two fields.
func (r *resolver) nameFields() error {
	for _, m := range r.f.Live() {
		if m.Kind != ir.ModelObject {
			continue
		}
		used := map[string]bool{}
		for i := range m.Fields {
			fld := &m.Fields[i]
			name := r.fieldForm(fld.WireName)
			if used[name] {
				if r.opts.Collision == Error {
					return &diag.NamingCollisionError{
						Scope: m.Name, Name: name,
						A: "an earlier field", B: fld.WireName,
					}
				}
				name = suffixFree(name, used)
			}
			used[name] = true
			fld.Name = name
			if name != fld.WireName && r.opts.UseAliases {
				fld.Alias = fld.WireName
			}
		}
	}
	return nil
}

// fieldForm normalizes a wire name into a field identifier. The special
// prefix is injected when the wire name leads with a non-identifier rune,
// unless stripping is on and the sanitized name stands on its own.
func (r *resolver) fieldForm(wire string) string {
	name := casing.Sanitize(wire)
	if name == "" {
		name = "field"
	}
	name = casing.Transform(name, r.opts.FieldCase)
	switch {
	case !casing.LeadsIdentifier(name) || casing.IsReserved(name):
		return r.opts.SpecialPrefix + name
	case wire != "" && !casing.LeadsIdentifier(wire):
		if r.opts.StripPrefix {
			r.d.Warnf(diag.WarnNameStripped, wire,
				"special-name prefix omitted for %q; using %q", wire, name)
			return name
		}
		return r.opts.SpecialPrefix + name
	default:
		return name
	}
}

// repairShadowing separates fields whose identifier equals the name of a
// type referenced from their own annotation, which would shadow the type
// in the declaration scope.
func (r *resolver) repairShadowing() error {
	for _, m := range r.f.Live() {
		if m.Kind != ir.ModelObject {
			continue
		}
		used := map[string]bool{}
		for _, fld := range m.Fields {
			used[fld.Name] = true
		}
		for i := range m.Fields {
			fld := &m.Fields[i]
			shadowed := r.shadowedModel(fld)
			if shadowed == nil {
				continue
			}
			switch r.opts.Collision {
			case Error:
				return &diag.NamingCollisionError{
					Scope: m.Name, Name: fld.Name,
					A: shadowed.Key, B: fld.WireName,
				}
			case RenameType:
				r.resuffixModel(shadowed)
			default:
				delete(used, fld.Name)
				fld.Name = suffixFree(fld.Name, used)
				used[fld.Name] = true
				if r.opts.UseAliases && fld.Alias == "" {
					fld.Alias = fld.WireName
				}
			}
		}
	}
	return nil
}

// shadowedModel returns the referenced model whose type name the field
// identifier would shadow, if any.
func (r *resolver) shadowedModel(fld *ir.Field) *ir.Model {
	for _, key := range ir.Refs(fld.Type) {
		if rm, ok := r.f.Lookup(key); ok && rm.Name == fld.Name {
			return rm
		}
	}
	return nil
}

// resuffixModel moves a model to the next free numeric-suffixed name.
func (r *resolver) resuffixModel(m *ir.Model) {
	for i := 1; ; i++ {
		next := fmt.Sprintf("%s%d", m.Name, i)
		if _, used := r.taken[next]; !used {
			delete(r.taken, m.Name)
			r.taken[next] = m
			m.Name = next
			return
		}
	}
}

func suffixFree(base string, used map[string]bool) string {
	for i := 1; ; i++ {
		next := fmt.Sprintf("%s_%d", base, i)
		if !used[next] {
			return next
		}
	}
}
