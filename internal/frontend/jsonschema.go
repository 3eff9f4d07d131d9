package frontend

import (
	"fmt"

	"github.com/typeforge/typeforge/internal/location"
	"github.com/typeforge/typeforge/internal/rawnode"
)

// constraint keywords copied verbatim into rawnode.Constraints; everything
// typing-relevant has a dedicated field instead.
var constraintKeywords = []string{
	"minimum", "maximum", "exclusiveMinimum", "exclusiveMaximum",
	"multipleOf", "minLength", "maxLength", "pattern",
	"minItems", "maxItems", "uniqueItems", "minProperties", "maxProperties",
}

// ParseJSONSchema parses one JSON Schema document (JSON or YAML encoded)
// into a raw document rooted at its top-level schema, with every $defs /
// definitions entry rooted as an additional model candidate.
func ParseJSONSchema(docID string, data []byte) (*rawnode.Document, error) {
	val, err := decodeStructured(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", docID, err)
	}
	obj, ok := val.(*Obj)
	if !ok {
		return nil, fmt.Errorf("parse %s: top-level value is not a schema object", docID)
	}
	doc := &rawnode.Document{ID: docID, Anchors: map[string]location.Location{}}
	root, err := schemaNode(obj, location.Root(docID), doc)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", docID, err)
	}
	doc.Root = root

	// Only schemas with structure become model roots: a bare {"$defs": ...}
	// container still roots its definitions.
	if root.Classify() != rawnode.KindAny || len(root.Defs) == 0 {
		doc.Roots = append(doc.Roots, rawnode.Root{Loc: root.Loc, NameHint: root.Title})
	}
	for _, def := range root.Defs {
		doc.Roots = append(doc.Roots, rawnode.Root{Loc: def.Schema.Loc, NameHint: def.Name})
	}
	root.Anchors = doc.Anchors
	return doc, nil
}

// schemaNode converts one ordered object into a raw node, recursing into
// subschemas and recording anchors on the document.
func schemaNode(o *Obj, loc location.Location, doc *rawnode.Document) (*rawnode.Node, error) {
	n := &rawnode.Node{Loc: loc}

	if t, ok := o.GetString("type"); ok {
		n.Type = t
	} else if list := o.GetArr("type"); len(list) > 0 {
		// A type list with "null" maps to nullable; other multi-type lists
		// are left to the synthesizer as an implicit union via anyOf.
		var rest []string
		for _, v := range list {
			s, _ := v.(string)
			if s == "null" {
				n.Nullable = true
			} else if s != "" {
				rest = append(rest, s)
			}
		}
		if len(rest) == 1 {
			n.Type = rest[0]
		} else {
			for i, s := range rest {
				n.AnyOf = append(n.AnyOf, &rawnode.Node{Loc: loc.Push("type").PushIndex(i), Type: s})
			}
		}
	}
	n.Title, _ = o.GetString("title")
	n.Description, _ = o.GetString("description")
	n.Format, _ = o.GetString("format")
	if b, ok := o.GetBool("nullable"); ok && b {
		n.Nullable = true
	}
	if b, ok := o.GetBool("deprecated"); ok && b {
		n.Deprecated = true
	}
	if ref, ok := o.GetString("$ref"); ok {
		n.Ref = ref
	}
	if anchor, ok := o.GetString("$anchor"); ok && doc != nil {
		doc.Anchors[anchor] = loc
	}

	// properties / required / additionalProperties
	if props := o.GetObj("properties"); props != nil {
		base := loc.Push("properties")
		for _, name := range props.Keys() {
			po, ok := props.Get(name)
			child, okObj := po.(*Obj)
			if !ok || !okObj {
				if bv, isBool := po.(bool); isBool {
					// boolean schema: true = anything, false = nothing useful
					child = NewObj()
					_ = bv
				} else {
					return nil, fmt.Errorf("%s: property %q is not a schema", loc, name)
				}
			}
			pn, err := schemaNode(child, base.Push(name), doc)
			if err != nil {
				return nil, err
			}
			n.Properties = append(n.Properties, rawnode.Prop{Name: name, Schema: pn})
		}
	}
	for _, rv := range o.GetArr("required") {
		if s, ok := rv.(string); ok {
			n.Required = append(n.Required, s)
		}
	}
	if ap, ok := o.Get("additionalProperties"); ok {
		switch t := ap.(type) {
		case bool:
			b := t
			n.AdditionalBool = &b
		case *Obj:
			child, err := schemaNode(t, loc.Push("additionalProperties"), doc)
			if err != nil {
				return nil, err
			}
			n.AdditionalSchema = child
		}
	}

	// items / prefixItems
	if items, ok := o.Get("items"); ok {
		switch t := items.(type) {
		case *Obj:
			child, err := schemaNode(t, loc.Push("items"), doc)
			if err != nil {
				return nil, err
			}
			n.Items = []*rawnode.Node{child}
		case []Value:
			n.ItemsList = true
			for i, iv := range t {
				io, ok := iv.(*Obj)
				if !ok {
					return nil, fmt.Errorf("%s: items[%d] is not a schema", loc, i)
				}
				child, err := schemaNode(io, loc.Push("items").PushIndex(i), doc)
				if err != nil {
					return nil, err
				}
				n.Items = append(n.Items, child)
			}
		}
	}
	if prefix := o.GetArr("prefixItems"); len(prefix) > 0 {
		n.ItemsList = true
		n.Items = nil
		for i, iv := range prefix {
			io, ok := iv.(*Obj)
			if !ok {
				return nil, fmt.Errorf("%s: prefixItems[%d] is not a schema", loc, i)
			}
			child, err := schemaNode(io, loc.Push("prefixItems").PushIndex(i), doc)
			if err != nil {
				return nil, err
			}
			n.Items = append(n.Items, child)
		}
	}

	// enum / const
	if ev := o.GetArr("enum"); len(ev) > 0 {
		n.Enum = append(n.Enum, ev...)
	}
	if cv, ok := o.Get("const"); ok {
		n.Const = cv
		n.HasConst = true
	}

	// combinators
	var err error
	if n.AllOf, err = combinator(o, "allOf", loc, doc, n.AllOf); err != nil {
		return nil, err
	}
	if n.OneOf, err = combinator(o, "oneOf", loc, doc, n.OneOf); err != nil {
		return nil, err
	}
	if n.AnyOf, err = combinator(o, "anyOf", loc, doc, n.AnyOf); err != nil {
		return nil, err
	}

	// discriminator (OpenAPI keyword, accepted in schema documents too)
	if d := o.GetObj("discriminator"); d != nil {
		n.Discriminator, _ = d.GetString("propertyName")
		if mapping := d.GetObj("mapping"); mapping != nil {
			n.DiscriminatorMapping = map[string]string{}
			for _, k := range mapping.Keys() {
				if s, ok := mapping.GetString(k); ok {
					n.DiscriminatorMapping[k] = s
				}
			}
		}
	}

	if def, ok := o.Get("default"); ok {
		n.Default = plain(def)
		n.HasDefault = true
	}
	for _, ex := range o.GetArr("examples") {
		n.Examples = append(n.Examples, plain(ex))
	}

	for _, kw := range constraintKeywords {
		if v, ok := o.Get(kw); ok {
			if n.Constraints == nil {
				n.Constraints = map[string]any{}
			}
			n.Constraints[kw] = plain(v)
		}
	}

	// $defs / definitions
	for _, table := range []string{"$defs", "definitions"} {
		defs := o.GetObj(table)
		if defs == nil {
			continue
		}
		base := loc.Push(table)
		for _, name := range defs.Keys() {
			do, ok := defs.Get(name)
			dobj, okObj := do.(*Obj)
			if !ok || !okObj {
				return nil, fmt.Errorf("%s: %s entry %q is not a schema", loc, table, name)
			}
			child, err := schemaNode(dobj, base.Push(name), doc)
			if err != nil {
				return nil, err
			}
			n.Defs = append(n.Defs, rawnode.Prop{Name: name, Schema: child})
		}
	}
	return n, nil
}

func combinator(o *Obj, key string, loc location.Location, doc *rawnode.Document, dst []*rawnode.Node) ([]*rawnode.Node, error) {
	arr := o.GetArr(key)
	for i, v := range arr {
		vo, ok := v.(*Obj)
		if !ok {
			return nil, fmt.Errorf("%s: %s[%d] is not a schema", loc, key, i)
		}
		child, err := schemaNode(vo, loc.Push(key).PushIndex(i), doc)
		if err != nil {
			return nil, err
		}
		dst = append(dst, child)
	}
	return dst, nil
}

// plain strips ordered wrappers for values that survive as data (defaults,
// enum members, examples): Obj becomes map[string]any, Number stays Number.
func plain(v Value) any {
	switch t := v.(type) {
	case *Obj:
		m := make(map[string]any, t.Len())
		for _, k := range t.Keys() {
			cv, _ := t.Get(k)
			m[k] = plain(cv)
		}
		return m
	case []Value:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plain(e)
		}
		return out
	default:
		return v
	}
}
