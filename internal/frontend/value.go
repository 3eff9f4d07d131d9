package frontend

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/typeforge/typeforge/internal/rawnode"
)

// Value is a decoded document value: *Obj, []Value, string, Number, bool,
// or nil. Objects keep declaration order because field order is
// significant all the way to emission. An alias, so decoded values flow
// into downstream []any fields without element-wise conversion.
type Value = any

// Number keeps the source text of a numeric literal so exact arithmetic
// stays possible downstream.
type Number = rawnode.Number

// Obj is an order-preserving string-keyed object.
type Obj struct {
	keys []string
	vals map[string]Value
}

// NewObj returns an empty ordered object.
func NewObj() *Obj { return &Obj{vals: make(map[string]Value)} }

// Set stores a key; re-setting keeps the original position.
func (o *Obj) Set(k string, v Value) {
	if _, ok := o.vals[k]; !ok {
		o.keys = append(o.keys, k)
	}
	o.vals[k] = v
}

// Get returns the value for a key.
func (o *Obj) Get(k string) (Value, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.vals[k]
	return v, ok
}

// Keys returns keys in declaration order.
func (o *Obj) Keys() []string {
	if o == nil {
		return nil
	}
	return o.keys
}

// Len reports the number of keys.
func (o *Obj) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// GetObj returns a child object, or nil when absent or of another shape.
func (o *Obj) GetObj(k string) *Obj {
	v, _ := o.Get(k)
	child, _ := v.(*Obj)
	return child
}

// GetString returns a string member with presence.
func (o *Obj) GetString(k string) (string, bool) {
	v, ok := o.Get(k)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetBool returns a boolean member with presence.
func (o *Obj) GetBool(k string) (bool, bool) {
	v, ok := o.Get(k)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// GetArr returns an array member, nil when absent.
func (o *Obj) GetArr(k string) []Value {
	v, _ := o.Get(k)
	a, _ := v.([]Value)
	return a
}

// DecodeJSON decodes JSON bytes into an ordered Value. Duplicate object
// keys are a hard error because silently keeping either occurrence would
// change the compiled output.
func DecodeJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	// Trailing garbage after the top-level value is malformed input.
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected content after top-level value")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeFrom(dec, tok)
}

func decodeFrom(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := NewObj()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key is %T, not string", keyTok)
				}
				if _, dup := obj.Get(key); dup {
					return nil, fmt.Errorf("duplicate object key %q", key)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				obj.Set(key, val)
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return nil, err
			}
			return obj, nil
		case '[':
			var arr []Value
			for dec.More() {
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, val)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return nil, err
			}
			if arr == nil {
				arr = []Value{}
			}
			return arr, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t)
		}
	case string:
		return t, nil
	case json.Number:
		return Number(t), nil
	case float64:
		return Number(strconv.FormatFloat(t, 'g', -1, 64)), nil
	case bool:
		return t, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("unexpected token %T", tok)
	}
}

// DecodeYAML decodes YAML bytes into an ordered Value through yaml.v3
// nodes, which preserve mapping order.
func DecodeYAML(data []byte) (Value, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return nil, nil
	}
	return yamlValue(root.Content[0])
}

func yamlValue(n *yaml.Node) (Value, error) {
	switch n.Kind {
	case yaml.MappingNode:
		obj := NewObj()
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: non-scalar mapping key", k.Line)
			}
			if _, dup := obj.Get(k.Value); dup {
				return nil, fmt.Errorf("line %d: duplicate mapping key %q", k.Line, k.Value)
			}
			v, err := yamlValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			obj.Set(k.Value, v)
		}
		return obj, nil
	case yaml.SequenceNode:
		arr := make([]Value, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := yamlValue(c)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case yaml.ScalarNode:
		switch n.Tag {
		case "!!null":
			return nil, nil
		case "!!bool":
			return n.Value == "true" || n.Value == "True" || n.Value == "TRUE", nil
		case "!!int", "!!float":
			return Number(n.Value), nil
		default:
			return n.Value, nil
		}
	case yaml.AliasNode:
		return yamlValue(n.Alias)
	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node kind %d", n.Line, n.Kind)
	}
}
