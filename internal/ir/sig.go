package ir

import (
	"fmt"
	"sort"
	"strings"
)

// Sig renders a stable structural signature for a type. Signatures drive
// union-branch dedup, allOf conflict checks, and structural model reuse;
// they deliberately ignore documentation.
func Sig(t Type) string {
	var b strings.Builder
	sigInto(&b, t, nil)
	return b.String()
}

// sigInto renders t; a non-nil resolve maps model keys to their canonical
// identity so structurally collapsed targets compare equal.
func sigInto(b *strings.Builder, t Type, resolve func(string) string) {
	switch v := t.(type) {
	case nil:
		b.WriteString("nil")
	case *Scalar:
		fmt.Fprintf(b, "scalar(%d", v.Prim)
		writeConstraints(b, v.Constraints)
		b.WriteByte(')')
	case *ModelRef:
		// Forwardness is a construction artifact, not a structural fact.
		fmt.Fprintf(b, "model(%s)", resolveKeyName(v.Key, resolve))
	case *EnumRef:
		fmt.Fprintf(b, "enum(%s)", resolveKeyName(v.Key, resolve))
	case *Array:
		b.WriteString("array(")
		sigInto(b, v.Item, resolve)
		writeConstraints(b, v.Constraints)
		b.WriteByte(')')
	case *Tuple:
		b.WriteString("tuple(")
		for i, e := range v.Elems {
			if i > 0 {
				b.WriteByte(',')
			}
			sigInto(b, e, resolve)
		}
		b.WriteByte(')')
	case *Map:
		b.WriteString("map(")
		sigInto(b, v.Value, resolve)
		b.WriteByte(')')
	case *Union:
		fmt.Fprintf(b, "union(%s;", v.Discriminator)
		for i, u := range v.Variants {
			if i > 0 {
				b.WriteByte(',')
			}
			sigInto(b, u, resolve)
		}
		b.WriteByte(')')
	case *Optional:
		b.WriteString("opt(")
		sigInto(b, v.Inner, resolve)
		b.WriteByte(')')
	case *Alias:
		b.WriteString("alias(")
		sigInto(b, v.Target, resolve)
		b.WriteByte(')')
	case *Literal:
		fmt.Fprintf(b, "lit(%v)", v.Value)
	case *Any:
		b.WriteString("any")
	case *None:
		b.WriteString("none")
	default:
		fmt.Fprintf(b, "%T", t)
	}
}

func writeConstraints(b *strings.Builder, c Constraints) {
	if c.IsZero() {
		return
	}
	b.WriteByte(';')
	if c.Bounds.Lower != nil {
		fmt.Fprintf(b, "lo=%s,%v;", c.Bounds.Lower.String(), c.Bounds.Lower.Inclusive)
	}
	if c.Bounds.Upper != nil {
		fmt.Fprintf(b, "hi=%s,%v;", c.Bounds.Upper.String(), c.Bounds.Upper.Inclusive)
	}
	if c.MultipleOf != nil {
		fmt.Fprintf(b, "mul=%s;", c.MultipleOf.String())
	}
	if c.MinLength != nil {
		fmt.Fprintf(b, "minl=%d;", *c.MinLength)
	}
	if c.MaxLength != nil {
		fmt.Fprintf(b, "maxl=%d;", *c.MaxLength)
	}
	if c.Pattern != "" {
		fmt.Fprintf(b, "pat=%s;", c.Pattern)
	}
	if c.MinItems != nil {
		fmt.Fprintf(b, "mini=%d;", *c.MinItems)
	}
	if c.MaxItems != nil {
		fmt.Fprintf(b, "maxi=%d;", *c.MaxItems)
	}
	if c.UniqueItems {
		b.WriteString("uniq;")
	}
}

// ModelSig renders the structural signature of a model: ordered field
// names, types, requiredness and constraints. Documentation and naming
// candidates are ignored so structurally identical models collapse.
func ModelSig(m *Model, resolveName func(key string) string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "kind=%d;", m.Kind)
	for _, f := range m.Fields {
		fmt.Fprintf(&b, "f(%s,%v,", f.WireName, f.Required)
		sigInto(&b, f.Type, resolveName)
		if f.HasDefault {
			fmt.Fprintf(&b, ",def=%v", f.Default)
		}
		b.WriteString(");")
	}
	if len(m.Bases) > 0 {
		names := make([]string, 0, len(m.Bases))
		for _, base := range m.Bases {
			names = append(names, resolveKeyName(base.Key, resolveName))
		}
		fmt.Fprintf(&b, "bases=%s;", strings.Join(names, ","))
	}
	fmt.Fprintf(&b, "extra=%d;", m.Extra)
	if m.ExtraValue != nil {
		b.WriteString("extraval=")
		sigInto(&b, m.ExtraValue, resolveName)
		b.WriteByte(';')
	}
	if len(m.Members) > 0 {
		members := make([]string, 0, len(m.Members))
		for _, mem := range m.Members {
			members = append(members, fmt.Sprintf("%s=%v", mem.Name, mem.Value))
		}
		sort.Strings(members)
		fmt.Fprintf(&b, "members=%s;", strings.Join(members, ","))
	}
	if m.Target != nil {
		b.WriteString("target=")
		sigInto(&b, m.Target, resolveName)
		b.WriteByte(';')
	}
	return b.String()
}

func resolveKeyName(key string, resolveName func(string) string) string {
	if resolveName == nil {
		return key
	}
	return resolveName(key)
}
