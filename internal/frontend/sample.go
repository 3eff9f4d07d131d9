package frontend

import (
	"fmt"
	"strings"

	"github.com/typeforge/typeforge/internal/location"
	"github.com/typeforge/typeforge/internal/rawnode"
)

// ParseSample infers a schema from sample JSON or YAML data: objects become
// object schemas with every seen member required, arrays unify their
// element shapes, and scalars map onto their literal types.
func ParseSample(docID string, data []byte) (*rawnode.Document, error) {
	val, err := decodeStructured(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", docID, err)
	}
	doc := &rawnode.Document{ID: docID, Anchors: map[string]location.Location{}}
	root := inferNode(val, location.Root(docID))
	doc.Root = root
	doc.Roots = []rawnode.Root{{Loc: root.Loc}}
	return doc, nil
}

func inferNode(v Value, loc location.Location) *rawnode.Node {
	switch t := v.(type) {
	case *Obj:
		n := &rawnode.Node{Loc: loc, Type: "object"}
		base := loc.Push("properties")
		for _, k := range t.Keys() {
			cv, _ := t.Get(k)
			child := inferNode(cv, base.Push(k))
			n.Properties = append(n.Properties, rawnode.Prop{Name: k, Schema: child})
			if cv != nil {
				n.Required = append(n.Required, k)
			}
		}
		return n
	case []Value:
		n := &rawnode.Node{Loc: loc, Type: "array"}
		item := unifyElements(t, loc.Push("items"))
		if item != nil {
			n.Items = []*rawnode.Node{item}
		}
		return n
	case string:
		return &rawnode.Node{Loc: loc, Type: "string"}
	case bool:
		return &rawnode.Node{Loc: loc, Type: "boolean"}
	case Number:
		if strings.ContainsAny(string(t), ".eE") {
			return &rawnode.Node{Loc: loc, Type: "number"}
		}
		return &rawnode.Node{Loc: loc, Type: "integer"}
	default: // nil
		return &rawnode.Node{Loc: loc, Nullable: true}
	}
}

// unifyElements widens heterogeneous array elements into an anyOf of the
// distinct shapes observed, merging object members across elements.
func unifyElements(elems []Value, loc location.Location) *rawnode.Node {
	if len(elems) == 0 {
		return nil
	}

	var (
		objElems []Value
		kinds    []string
		seen     = map[string]bool{}
		nullable bool
	)
	for _, e := range elems {
		k := sampleKind(e)
		if k == "null" {
			nullable = true
			continue
		}
		if k == "object" {
			objElems = append(objElems, e)
		}
		if !seen[k] {
			seen[k] = true
			kinds = append(kinds, k)
		}
	}
	if len(kinds) == 0 {
		return &rawnode.Node{Loc: loc, Nullable: true}
	}
	if len(kinds) == 1 {
		n := inferKind(kinds[0], elems, objElems, loc)
		n.Nullable = nullable
		return n
	}
	n := &rawnode.Node{Loc: loc, Nullable: nullable}
	for i, k := range kinds {
		n.AnyOf = append(n.AnyOf, inferKind(k, elems, objElems, loc.Push("anyOf").PushIndex(i)))
	}
	return n
}

func inferKind(kind string, elems, objElems []Value, loc location.Location) *rawnode.Node {
	switch kind {
	case "object":
		return mergeObjects(objElems, loc)
	case "array":
		var inner []Value
		for _, e := range elems {
			if a, ok := e.([]Value); ok {
				inner = append(inner, a...)
			}
		}
		n := &rawnode.Node{Loc: loc, Type: "array"}
		if item := unifyElements(inner, loc.Push("items")); item != nil {
			n.Items = []*rawnode.Node{item}
		}
		return n
	default:
		return &rawnode.Node{Loc: loc, Type: kind}
	}
}

// mergeObjects unions object members; members absent in some element drop
// out of required.
func mergeObjects(objs []Value, loc location.Location) *rawnode.Node {
	n := &rawnode.Node{Loc: loc, Type: "object"}
	counts := map[string]int{}
	var order []string
	samples := map[string][]Value{}
	for _, ov := range objs {
		o := ov.(*Obj)
		for _, k := range o.Keys() {
			v, _ := o.Get(k)
			if counts[k] == 0 {
				order = append(order, k)
			}
			counts[k]++
			samples[k] = append(samples[k], v)
		}
	}
	base := loc.Push("properties")
	for _, k := range order {
		child := unifyElements(samples[k], base.Push(k))
		if child == nil {
			child = &rawnode.Node{Loc: base.Push(k)}
		}
		n.Properties = append(n.Properties, rawnode.Prop{Name: k, Schema: child})
		if counts[k] == len(objs) {
			n.Required = append(n.Required, k)
		}
	}
	return n
}

func sampleKind(v Value) string {
	switch t := v.(type) {
	case *Obj:
		return "object"
	case []Value:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case Number:
		if strings.ContainsAny(string(t), ".eE") {
			return "number"
		}
		return "integer"
	default:
		return "null"
	}
}
