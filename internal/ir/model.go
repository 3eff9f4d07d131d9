package ir

import "sort"

// ModelKind distinguishes the named top-level declarations.
type ModelKind int

const (
	ModelObject ModelKind = iota
	ModelEnum
	ModelUnion
	ModelAlias
)

// ExtraPolicy states how undeclared object members are treated.
type ExtraPolicy int

const (
	ExtraDefault ExtraPolicy = iota // format default, no declaration
	ExtraForbid
	ExtraAllowTyped // additionalProperties with a value schema
)

// Field is one declared object member, in declaration order.
type Field struct {
	Name       string // final identifier, assigned by the name resolver
	WireName   string // original schema name
	Alias      string // non-empty when Name differs and aliasing is on
	Type       Type
	Required   bool
	Default    any
	HasDefault bool
	Doc        string
	// Extra keeps ordered renderer-facing metadata (examples, deprecation)
	// that has no typing effect.
	Extra []ExtraKV
}

// ExtraKV is one ordered metadata entry.
type ExtraKV struct {
	Key   string
	Value any
}

// Model is one named declaration. Identity is the location-derived Key;
// the final Name is assigned exactly once by the name resolver, and the
// Module path later by the planner. Emitters treat models as immutable.
type Model struct {
	Key        string
	Kind       ModelKind
	Candidates []string // ordered name candidates, best first
	Name       string
	Doc        string

	// Object models.
	Fields     []Field
	Bases      []*ModelRef // multiple only under hierarchy-preserving merge
	Extra      ExtraPolicy
	ExtraValue Type // value type under ExtraAllowTyped

	// Enum models.
	Members  []EnumMember
	EnumBase Primitive
	// EnumPlain marks member sets that are neither all strings nor all
	// integers; the class derives from plain Enum instead of a typed base.
	EnumPlain bool
	// EnumNullable records that the source value set included null. The
	// null member is dropped and references are wrapped Optional instead.
	EnumNullable    bool
	LiteralEligible bool

	// Union and alias models.
	Target Type

	// Module is the owning unit path, assigned by the planner.
	Module string
	// NeedsRebuild marks models whose declaration contains forward
	// references requiring a finalize pass after the unit is declared.
	NeedsRebuild bool
	// CollapsedInto is set when structural reuse replaced this model; the
	// value is the surviving model's key.
	CollapsedInto string
	// AliasOf marks an empty-subclass alias produced by reuse collapse
	// under the alias style.
	AliasOf string
}

// IsCollapsed reports whether the model was removed by structural reuse.
func (m *Model) IsCollapsed() bool { return m.CollapsedInto != "" && m.AliasOf == "" }

// Forest is the ordered set of synthesized models plus an identity index.
type Forest struct {
	Models []*Model
	byKey  map[string]*Model
}

// NewForest builds a forest over the given models, preserving order.
func NewForest(models []*Model) *Forest {
	f := &Forest{Models: models, byKey: make(map[string]*Model, len(models))}
	for _, m := range models {
		f.byKey[m.Key] = m
	}
	return f
}

// Lookup returns the model with the given identity key, following reuse
// collapses to the surviving model.
func (f *Forest) Lookup(key string) (*Model, bool) {
	m, ok := f.byKey[key]
	for ok && m.IsCollapsed() {
		m, ok = f.byKey[m.CollapsedInto]
	}
	return m, ok
}

// LookupRaw returns the model without following collapses.
func (f *Forest) LookupRaw(key string) (*Model, bool) {
	m, ok := f.byKey[key]
	return m, ok
}

// Add appends a model; keys must be unique.
func (f *Forest) Add(m *Model) {
	if _, dup := f.byKey[m.Key]; dup {
		return
	}
	f.Models = append(f.Models, m)
	f.byKey[m.Key] = m
}

// Live returns the models that survived reuse collapse, in order.
func (f *Forest) Live() []*Model {
	out := make([]*Model, 0, len(f.Models))
	for _, m := range f.Models {
		if !m.IsCollapsed() {
			out = append(out, m)
		}
	}
	return out
}

// SortedKeys returns all model keys sorted, for deterministic iteration.
func (f *Forest) SortedKeys() []string {
	keys := make([]string, 0, len(f.byKey))
	for k := range f.byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Refs collects every model/enum reference inside a type, in rendering
// order. Used by the planner for dependency edges.
func Refs(t Type) []string {
	var out []string
	walkRefs(t, &out)
	return out
}

func walkRefs(t Type, out *[]string) {
	switch v := t.(type) {
	case nil:
	case *ModelRef:
		*out = append(*out, v.Key)
	case *EnumRef:
		*out = append(*out, v.Key)
	case *Array:
		walkRefs(v.Item, out)
	case *Tuple:
		for _, e := range v.Elems {
			walkRefs(e, out)
		}
	case *Map:
		walkRefs(v.Value, out)
	case *Union:
		for _, u := range v.Variants {
			walkRefs(u, out)
		}
	case *Optional:
		walkRefs(v.Inner, out)
	case *Alias:
		walkRefs(v.Target, out)
	}
}

// ForwardRefs reports whether any reference inside t is a forward edge.
func ForwardRefs(t Type) bool {
	found := false
	var walk func(Type)
	walk = func(t Type) {
		switch v := t.(type) {
		case *ModelRef:
			if v.Forward {
				found = true
			}
		case *Array:
			walk(v.Item)
		case *Tuple:
			for _, e := range v.Elems {
				walk(e)
			}
		case *Map:
			walk(v.Value)
		case *Union:
			for _, u := range v.Variants {
				walk(u)
			}
		case *Optional:
			walk(v.Inner)
		case *Alias:
			walk(v.Target)
		}
	}
	walk(t)
	return found
}
