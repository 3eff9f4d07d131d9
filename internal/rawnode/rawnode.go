// Package rawnode holds the raw, format-independent schema fragments the
// front-ends produce. Nodes are created at ingest, registered in a Set
// keyed by location, and never mutated afterwards.
package rawnode

import (
	"sort"

	"github.com/typeforge/typeforge/internal/location"
)

// Kind is the raw-node discriminator.
type Kind int

const (
	KindScalar Kind = iota
	KindObject
	KindArray
	KindRef
	KindCombinator
	KindEnum
	KindAny // no typing information at all
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindRef:
		return "ref"
	case KindCombinator:
		return "combinator"
	case KindEnum:
		return "enum"
	default:
		return "any"
	}
}

// Prop is one declared object property, in declaration order.
type Prop struct {
	Name   string
	Schema *Node
}

// Node is one raw schema fragment. The front-ends populate only the fields
// their format can express; everything else stays zero.
type Node struct {
	Loc location.Location

	Type        string // declared primitive/container type, "" when absent
	Title       string
	Description string
	Format      string
	Nullable    bool
	Deprecated  bool

	Ref string // non-empty marks a reference node

	Properties []Prop
	Required   []string
	// AdditionalSchema is the explicit additionalProperties schema;
	// AdditionalBool carries an explicit boolean form.
	AdditionalSchema *Node
	AdditionalBool   *bool

	// Items holds the single item schema (len 1, ItemsList false) or the
	// positional list form (ItemsList true).
	Items     []*Node
	ItemsList bool

	Enum     []any
	Const    any
	HasConst bool

	AllOf []*Node
	OneOf []*Node
	AnyOf []*Node

	// Discriminator is the property name selecting a union variant;
	// DiscriminatorMapping maps literal values to reference strings.
	Discriminator        string
	DiscriminatorMapping map[string]string

	Default    any
	HasDefault bool
	Examples   []any

	// OperationID is an operation-derived name candidate (OpenAPI).
	OperationID string

	// Constraints carries the scalar constraint keywords (minimum,
	// maximum, exclusiveMinimum, exclusiveMaximum, minLength, maxLength,
	// pattern, multipleOf, minItems, maxItems, uniqueItems, ...) exactly
	// as parsed.
	Constraints map[string]any

	// Defs holds named subschema tables ($defs / definitions /
	// components.schemas), in declaration order.
	Defs []Prop

	// Anchors maps plain-name anchors declared on or under this node to
	// their locations. Only populated on document roots.
	Anchors map[string]location.Location
}

// Classify derives the discriminator kind from the populated fields.
func (n *Node) Classify() Kind {
	switch {
	case n == nil:
		return KindAny
	case n.Ref != "":
		return KindRef
	case len(n.AllOf)+len(n.OneOf)+len(n.AnyOf) > 0:
		return KindCombinator
	case len(n.Enum) > 0 || n.HasConst:
		return KindEnum
	case n.Type == "object" || len(n.Properties) > 0 || n.AdditionalSchema != nil:
		return KindObject
	case n.Type == "array" || len(n.Items) > 0:
		return KindArray
	case n.Type != "":
		return KindScalar
	default:
		return KindAny
	}
}

// Constraint returns a raw constraint keyword value.
func (n *Node) Constraint(key string) (any, bool) {
	v, ok := n.Constraints[key]
	return v, ok
}

// ConstraintKeys returns the constraint keyword names in sorted order, so
// callers never depend on map iteration order.
func (n *Node) ConstraintKeys() []string {
	keys := make([]string, 0, len(n.Constraints))
	for k := range n.Constraints {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Root describes one model rooted in a document: the node plus naming hints
// collected at ingest time.
type Root struct {
	Loc         location.Location
	NameHint    string // explicit title or definition key
	OperationID string
}

// Document is one ingested document: its identity, root node, model roots
// and anchor table.
type Document struct {
	ID      string
	Root    *Node
	Roots   []Root
	Anchors map[string]location.Location
}

// Set is the arena of all ingested nodes, keyed by location string.
type Set struct {
	nodes map[string]*Node
	docs  map[string]*Document
	order []string // document ingest order
}

// NewSet returns an empty arena.
func NewSet() *Set {
	return &Set{nodes: make(map[string]*Node), docs: make(map[string]*Document)}
}

// Add registers a node under its location. Registering the same location
// twice keeps the first node; duplicates indicate a front-end bug and are
// ignored rather than overwritten so node identity stays stable.
func (s *Set) Add(n *Node) {
	if n == nil {
		return
	}
	key := n.Loc.String()
	if _, dup := s.nodes[key]; dup {
		return
	}
	s.nodes[key] = n
}

// AddDocument registers a document and walks its root registering every
// reachable node.
func (s *Set) AddDocument(d *Document) {
	if d == nil || s.docs[d.ID] != nil {
		return
	}
	s.docs[d.ID] = d
	s.order = append(s.order, d.ID)
	s.walk(d.Root)
}

func (s *Set) walk(n *Node) {
	if n == nil {
		return
	}
	s.Add(n)
	for _, p := range n.Properties {
		s.walk(p.Schema)
	}
	for _, p := range n.Defs {
		s.walk(p.Schema)
	}
	s.walk(n.AdditionalSchema)
	for _, it := range n.Items {
		s.walk(it)
	}
	for _, c := range n.AllOf {
		s.walk(c)
	}
	for _, c := range n.OneOf {
		s.walk(c)
	}
	for _, c := range n.AnyOf {
		s.walk(c)
	}
}

// Lookup returns the node at the given location.
func (s *Set) Lookup(loc location.Location) (*Node, bool) {
	n, ok := s.nodes[loc.String()]
	return n, ok
}

// Document returns an ingested document by identity.
func (s *Set) Document(id string) (*Document, bool) {
	d, ok := s.docs[id]
	return d, ok
}

// Documents returns the ingested documents in ingest order.
func (s *Set) Documents() []*Document {
	out := make([]*Document, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.docs[id])
	}
	return out
}

// Roots returns every model root across documents, in ingest order.
func (s *Set) Roots() []Root {
	var out []Root
	for _, id := range s.order {
		out = append(out, s.docs[id].Roots...)
	}
	return out
}

// Len reports the number of registered nodes.
func (s *Set) Len() int { return len(s.nodes) }
