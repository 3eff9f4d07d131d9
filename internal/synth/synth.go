// Package synth turns the resolved raw-node graph into the canonical IR
// forest: combinators are merged, constraints normalized, enums named,
// unions built, and every model-worthy fragment becomes an ir.Model keyed
// by its location. Cycles surface as forward ModelRef edges, never as
// recursive inlining.
package synth

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/typeforge/typeforge/internal/casing"
	"github.com/typeforge/typeforge/internal/diag"
	"github.com/typeforge/typeforge/internal/ir"
	"github.com/typeforge/typeforge/internal/num"
	"github.com/typeforge/typeforge/internal/rawnode"
	"github.com/typeforge/typeforge/internal/resolver"
)

// MergeMode controls how allOf parents contribute to a child schema.
type MergeMode int

const (
	MergeConstraints MergeMode = iota
	MergeAlways
	MergeNone
)

// Options is the synthesis slice of the engine policy bag, wired at call
// sites to keep this package dependency-light.
type Options struct {
	Merge           MergeMode
	UseTuples       bool
	ExactArithmetic bool
	EnumCase        casing.Mode
	EnumPrefix      string // prefix for members that cannot lead an identifier
	EmptyName       string // member name for the empty-string value
}

func (o Options) withDefaults() Options {
	if o.EnumPrefix == "" {
		o.EnumPrefix = "value_"
	}
	if o.EmptyName == "" {
		o.EmptyName = "empty"
	}
	return o
}

type synthesizer struct {
	g      *resolver.Graph
	opts   Options
	d      *diag.Diag
	forest *ir.Forest
	roots  map[string]bool // locations rooted as models at ingest
	state  map[string]int  // model build state by location key
}

const (
	stateNone = iota
	stateBuilding
	stateDone
)

// Synthesize converts the resolved graph into an IR forest.
func Synthesize(g *resolver.Graph, opts Options, d *diag.Diag) (*ir.Forest, error) {
	s := &synthesizer{
		g:      g,
		opts:   opts.withDefaults(),
		d:      d,
		forest: ir.NewForest(nil),
		roots:  map[string]bool{},
		state:  map[string]int{},
	}
	rootList := g.Set.Roots()
	for _, r := range rootList {
		s.roots[r.Loc.String()] = true
	}
	for _, r := range rootList {
		n, ok := g.Set.Lookup(r.Loc)
		if !ok {
			return nil, fmt.Errorf("root %s missing from arena", r.Loc)
		}
		hints := hintList{title: n.Title, opID: firstNonEmpty(r.OperationID, n.OperationID), path: r.NameHint}
		if _, err := s.model(n, hints); err != nil {
			return nil, err
		}
	}
	return s.forest, nil
}

// hintList carries the ordered name-candidate sources for one model.
type hintList struct {
	title string
	opID  string
	path  string // property-path derived hint
}

func (h hintList) candidates(loc string) []string {
	var out []string
	seen := map[string]bool{}
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	add(h.title)
	add(h.opID)
	add(h.path)
	add(basenameOf(loc))
	return out
}

func basenameOf(locKey string) string {
	i := strings.IndexByte(locKey, '#')
	doc, ptr := locKey[:i], locKey[i+1:]
	if ptr == "" {
		if j := strings.LastIndexByte(doc, '/'); j >= 0 {
			doc = doc[j+1:]
		}
		if j := strings.IndexByte(doc, '.'); j > 0 {
			doc = doc[:j]
		}
		return doc
	}
	if j := strings.LastIndexByte(ptr, '/'); j >= 0 {
		ptr = ptr[j+1:]
	}
	return ptr
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// model synthesizes (or returns) the named model for a node, handing back
// a reference. A node already being built returns a forward reference:
// this is the cycle-safety valve that keeps recursion bounded.
func (s *synthesizer) model(n *rawnode.Node, hints hintList) (ir.Type, error) {
	key := n.Loc.String()
	switch s.state[key] {
	case stateBuilding:
		return &ir.ModelRef{Key: key, Forward: true}, nil
	case stateDone:
		return s.refTo(key), nil
	}
	s.state[key] = stateBuilding

	m := &ir.Model{Key: key, Candidates: hints.candidates(key), Doc: n.Description}
	s.forest.Add(m)

	err := s.fillModel(m, n, hints)
	s.state[key] = stateDone
	if err != nil {
		return nil, err
	}
	return s.refTo(key), nil
}

// refTo builds the reference matching a finished model's kind.
func (s *synthesizer) refTo(key string) ir.Type {
	if m, ok := s.forest.LookupRaw(key); ok && m.Kind == ir.ModelEnum {
		var t ir.Type = &ir.EnumRef{Key: key}
		if m.EnumNullable {
			t = optional(t)
		}
		return t
	}
	return &ir.ModelRef{Key: key}
}

func (s *synthesizer) fillModel(m *ir.Model, n *rawnode.Node, hints hintList) error {
	switch n.Classify() {
	case rawnode.KindEnum:
		return s.fillEnum(m, n)
	case rawnode.KindObject:
		return s.fillObject(m, n, hints)
	case rawnode.KindCombinator:
		if len(n.AllOf) > 0 {
			return s.fillAllOf(m, n, hints)
		}
		u, err := s.unionType(n, hints)
		if err != nil {
			return err
		}
		m.Kind = ir.ModelUnion
		m.Target = u
		return nil
	case rawnode.KindRef:
		target, ok := s.g.Deref(n)
		if !ok {
			return &diag.BrokenReferenceError{Location: n.Loc.String(), Target: n.Ref}
		}
		t, err := s.typeOf(target, hints)
		if err != nil {
			return err
		}
		m.Kind = ir.ModelAlias
		m.Target = t
		return nil
	default:
		t, err := s.typeOf(n, hints)
		if err != nil {
			return err
		}
		m.Kind = ir.ModelAlias
		m.Target = t
		return nil
	}
}

// typeOf synthesizes the IR type for a fragment in field position. Nodes
// that deserve their own declaration route through model.
func (s *synthesizer) typeOf(n *rawnode.Node, hints hintList) (ir.Type, error) {
	if n == nil {
		return &ir.Any{}, nil
	}
	t, err := s.bareType(n, hints)
	if err != nil {
		return nil, err
	}
	if n.Nullable {
		t = optional(t)
	}
	return t, nil
}

func (s *synthesizer) bareType(n *rawnode.Node, hints hintList) (ir.Type, error) {
	switch n.Classify() {
	case rawnode.KindRef:
		return s.refType(n, hints)

	case rawnode.KindEnum:
		if n.HasConst && len(n.Enum) == 0 {
			return &ir.Literal{Value: n.Const}, nil
		}
		return s.model(n, hints)

	case rawnode.KindObject:
		if len(n.Properties) == 0 {
			// additionalProperties with a value schema is a typed map;
			// absence leaves values untyped.
			if n.AdditionalSchema != nil {
				vt, err := s.typeOf(n.AdditionalSchema, hints)
				if err != nil {
					return nil, err
				}
				return &ir.Map{Value: vt}, nil
			}
			return &ir.Map{}, nil
		}
		return s.model(n, hints)

	case rawnode.KindArray:
		return s.arrayType(n, hints)

	case rawnode.KindCombinator:
		if len(n.AllOf) > 0 {
			return s.model(n, hints)
		}
		return s.unionType(n, hints)

	case rawnode.KindScalar:
		return s.scalarType(n)

	default:
		return &ir.Any{}, nil
	}
}

// refType resolves a reference in field position. References marked cyclic
// by the resolver and references to models still being built come back as
// forward edges.
func (s *synthesizer) refType(n *rawnode.Node, hints hintList) (ir.Type, error) {
	target, ok := s.g.Target(n.Loc)
	if !ok {
		return nil, &diag.BrokenReferenceError{Location: n.Loc.String(), Target: n.Ref}
	}
	tn, ok := s.g.Set.Lookup(target)
	if !ok {
		return nil, &diag.BrokenReferenceError{Location: n.Loc.String(), Target: target.String()}
	}
	if tn.Ref != "" {
		// Unresolvable pure-reference cycle collapsed by the resolver.
		if s.g.Cyclic(n.Loc) || s.g.Cyclic(tn.Loc) {
			return &ir.ModelRef{Key: tn.Loc.String(), Forward: true}, nil
		}
		dn, ok := s.g.Deref(tn)
		if !ok {
			return nil, &diag.BrokenReferenceError{Location: tn.Loc.String(), Target: tn.Ref}
		}
		tn = dn
	}

	tHints := hintList{title: tn.Title, opID: tn.OperationID, path: tn.Loc.Base()}
	if s.modelWorthy(tn) {
		return s.model(tn, tHints)
	}
	// Non-model target (plain scalar, bare array): inline the type.
	return s.typeOf(tn, tHints)
}

// modelWorthy reports whether a deref'd target gets its own declaration: a
// model root, an object with properties, an enum, or a combinator.
func (s *synthesizer) modelWorthy(n *rawnode.Node) bool {
	if s.roots[n.Loc.String()] {
		return true
	}
	switch n.Classify() {
	case rawnode.KindObject:
		return len(n.Properties) > 0
	case rawnode.KindEnum:
		return len(n.Enum) > 0
	case rawnode.KindCombinator:
		return true
	}
	return false
}

func (s *synthesizer) fillObject(m *ir.Model, n *rawnode.Node, hints hintList) error {
	m.Kind = ir.ModelObject
	required := map[string]bool{}
	for _, r := range n.Required {
		required[r] = true
	}
	for _, p := range n.Properties {
		f, err := s.field(p, required[p.Name], hints)
		if err != nil {
			return err
		}
		m.Fields = append(m.Fields, f)
	}
	switch {
	case n.AdditionalSchema != nil:
		vt, err := s.typeOf(n.AdditionalSchema, hints)
		if err != nil {
			return err
		}
		m.Extra = ir.ExtraAllowTyped
		m.ExtraValue = vt
	case n.AdditionalBool != nil && !*n.AdditionalBool:
		m.Extra = ir.ExtraForbid
	}
	return nil
}

func (s *synthesizer) field(p rawnode.Prop, required bool, parent hintList) (ir.Field, error) {
	childHints := hintList{
		title: p.Schema.Title,
		opID:  p.Schema.OperationID,
		path:  pathHint(parent, p.Name),
	}
	t, err := s.typeOf(p.Schema, childHints)
	if err != nil {
		return ir.Field{}, err
	}
	f := ir.Field{
		WireName: p.Name,
		Name:     p.Name, // final identifier assigned by the name resolver
		Type:     t,
		Required: required,
		Doc:      p.Schema.Description,
	}
	if p.Schema.HasDefault {
		f.Default = p.Schema.Default
		f.HasDefault = true
	}
	if p.Schema.Deprecated {
		f.Extra = append(f.Extra, ir.ExtraKV{Key: "deprecated", Value: true})
	}
	for _, ex := range p.Schema.Examples {
		f.Extra = append(f.Extra, ir.ExtraKV{Key: "example", Value: ex})
	}
	return f, nil
}

// pathHint derives the property-path name candidate for a nested model.
func pathHint(parent hintList, field string) string {
	base := firstNonEmpty(parent.title, firstNonEmpty(parent.opID, parent.path))
	if base == "" {
		return field
	}
	return base + "_" + field
}

func (s *synthesizer) arrayType(n *rawnode.Node, hints hintList) (ir.Type, error) {
	cons, err := s.constraintsOf(n)
	if err != nil {
		return nil, err
	}
	if !n.ItemsList {
		var item ir.Type = &ir.Any{}
		if len(n.Items) == 1 {
			item, err = s.typeOf(n.Items[0], hints)
			if err != nil {
				return nil, err
			}
		}
		return &ir.Array{Item: item, Constraints: cons}, nil
	}

	// Positional items list: a fixed tuple when the length is pinned and
	// tuples are enabled, else an array of the union of branch types.
	elems := make([]ir.Type, 0, len(n.Items))
	for _, in := range n.Items {
		et, err := s.typeOf(in, hints)
		if err != nil {
			return nil, err
		}
		elems = append(elems, et)
	}
	if s.opts.UseTuples && fixedLength(n, len(elems)) {
		return &ir.Tuple{Elems: elems}, nil
	}
	var item ir.Type
	switch deduped := dedupTypes(elems); len(deduped) {
	case 0:
		item = &ir.Any{}
	case 1:
		item = deduped[0]
	default:
		item = &ir.Union{Variants: deduped}
	}
	return &ir.Array{Item: item, Constraints: cons}, nil
}

// fixedLength reports minItems == maxItems == n.
func fixedLength(n *rawnode.Node, count int) bool {
	minV, okMin := intConstraint(n, "minItems")
	maxV, okMax := intConstraint(n, "maxItems")
	return okMin && okMax && minV == count && maxV == count
}

func (s *synthesizer) scalarType(n *rawnode.Node) (ir.Type, error) {
	cons, err := s.constraintsOf(n)
	if err != nil {
		return nil, err
	}
	switch n.Type {
	case "null":
		return &ir.None{}, nil
	case "boolean":
		return &ir.Scalar{Prim: ir.PrimBool}, nil
	case "integer":
		return &ir.Scalar{Prim: ir.PrimInt, Constraints: cons, Format: n.Format}, nil
	case "number":
		if n.Format == "decimal" {
			return &ir.Scalar{Prim: ir.PrimDecimal, Constraints: cons, Format: n.Format}, nil
		}
		return &ir.Scalar{Prim: ir.PrimFloat, Constraints: cons, Format: n.Format}, nil
	case "string":
		return &ir.Scalar{Prim: stringPrim(n.Format), Constraints: cons, Format: n.Format}, nil
	default:
		return &ir.Any{}, nil
	}
}

func stringPrim(format string) ir.Primitive {
	switch format {
	case "date-time":
		return ir.PrimDateTime
	case "date":
		return ir.PrimDate
	case "time":
		return ir.PrimTime
	case "duration":
		return ir.PrimDuration
	case "uuid":
		return ir.PrimUUID
	case "uri", "url":
		return ir.PrimURI
	case "email":
		return ir.PrimEmail
	case "ipv4":
		return ir.PrimIPv4
	case "ipv6":
		return ir.PrimIPv6
	case "byte", "binary":
		return ir.PrimBytes
	default:
		return ir.PrimString
	}
}

// constraintsOf normalizes the raw constraint keywords of one node.
func (s *synthesizer) constraintsOf(n *rawnode.Node) (ir.Constraints, error) {
	return s.mergedConstraints(n.Constraints)
}

func (s *synthesizer) mergedConstraints(kw map[string]any) (ir.Constraints, error) {
	var c ir.Constraints
	if len(kw) == 0 {
		return c, nil
	}
	bounds, err := num.Normalize(kw["minimum"], kw["maximum"], kw["exclusiveMinimum"], kw["exclusiveMaximum"])
	if err != nil {
		return c, err
	}
	c.Bounds = bounds
	if mo, ok := kw["multipleOf"]; ok {
		m, err := num.NewMultipleOf(mo, s.opts.ExactArithmetic)
		if err != nil {
			return c, fmt.Errorf("multipleOf: %w", err)
		}
		c.MultipleOf = &m
	}
	c.MinLength = intPtr(kw, "minLength")
	c.MaxLength = intPtr(kw, "maxLength")
	if p, ok := kw["pattern"].(string); ok {
		c.Pattern = p
	}
	c.MinItems = intPtr(kw, "minItems")
	c.MaxItems = intPtr(kw, "maxItems")
	if u, ok := kw["uniqueItems"].(bool); ok {
		c.UniqueItems = u
	}
	return c, nil
}

func intPtr(kw map[string]any, key string) *int {
	v, ok := kw[key]
	if !ok {
		return nil
	}
	if i, ok := anyToInt(v); ok {
		return &i
	}
	return nil
}

func intConstraint(n *rawnode.Node, key string) (int, bool) {
	v, ok := n.Constraint(key)
	if !ok {
		return 0, false
	}
	return anyToInt(v)
}

// anyToInt reads a decoded constraint value as an int. Non-integral
// values are rejected rather than truncated.
func anyToInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		if t != math.Trunc(t) {
			return 0, false
		}
		return int(t), true
	case rawnode.Number:
		if i, err := strconv.Atoi(string(t)); err == nil {
			return i, true
		}
	case string:
		if i, err := strconv.Atoi(t); err == nil {
			return i, true
		}
	}
	return 0, false
}

func optional(t ir.Type) ir.Type {
	if _, ok := t.(*ir.Optional); ok {
		return t
	}
	if _, ok := t.(*ir.None); ok {
		return t
	}
	return &ir.Optional{Inner: t}
}

// dedupTypes drops structurally identical union branches, keeping order.
func dedupTypes(ts []ir.Type) []ir.Type {
	var out []ir.Type
	seen := map[string]bool{}
	for _, t := range ts {
		k := ir.Sig(t)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, t)
	}
	return out
}
