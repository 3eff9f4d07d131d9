package emit

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/typeforge/typeforge/internal/ir"
	"github.com/typeforge/typeforge/internal/num"
	"github.com/typeforge/typeforge/internal/planner"
	"github.com/typeforge/typeforge/internal/rawnode"
)

// unitRenderer holds the per-unit rendering state: the import collector
// and the set of models already declared, which decides whether a
// same-unit reference must be quoted as a forward reference.
type unitRenderer struct {
	*emitter
	unit     *planner.Unit
	imports  *importSet
	declared map[string]bool
}

// typeExpr renders an IR type as an annotation expression, registering
// whatever imports the expression needs.
func (r *unitRenderer) typeExpr(t ir.Type) string {
	switch v := t.(type) {
	case *ir.Scalar:
		return r.primExpr(v.Prim)
	case *ir.ModelRef:
		return r.refExpr(v.Key, v.Forward)
	case *ir.EnumRef:
		return r.refExpr(v.Key, false)
	case *ir.Array:
		return r.container("List", "list") + "[" + r.typeExpr(v.Item) + "]"
	case *ir.Tuple:
		elems := make([]string, 0, len(v.Elems))
		for _, e := range v.Elems {
			elems = append(elems, r.typeExpr(e))
		}
		return r.container("Tuple", "tuple") + "[" + strings.Join(elems, ", ") + "]"
	case *ir.Map:
		val := "Any"
		if v.Value != nil {
			val = r.typeExpr(v.Value)
		} else {
			r.imports.addFrom("typing", "Any")
		}
		return r.container("Dict", "dict") + "[str, " + val + "]"
	case *ir.Union:
		r.imports.addFrom("typing", "Union")
		variants := make([]string, 0, len(v.Variants))
		for _, u := range v.Variants {
			variants = append(variants, r.typeExpr(u))
		}
		return "Union[" + strings.Join(variants, ", ") + "]"
	case *ir.Optional:
		r.imports.addFrom("typing", "Optional")
		return "Optional[" + r.typeExpr(v.Inner) + "]"
	case *ir.Alias:
		return r.typeExpr(v.Target)
	case *ir.Literal:
		r.imports.addFrom("typing", "Literal")
		return "Literal[" + pyLiteral(v.Value) + "]"
	case *ir.None:
		return "None"
	default:
		r.imports.addFrom("typing", "Any")
		return "Any"
	}
}

// refExpr renders a model reference, importing it from its owning unit
// when foreign and quoting it when it is not yet resolvable.
func (r *unitRenderer) refExpr(key string, forward bool) string {
	m, ok := r.g.Forest.Lookup(key)
	if !ok {
		r.imports.addFrom("typing", "Any")
		return "Any"
	}
	if m.Module != "" && m.Module != r.unit.Path {
		r.imports.addFrom(strings.ReplaceAll(m.Module, "/", "."), m.Name)
		return m.Name
	}
	if forward || !r.declared[m.Key] {
		return strconv.Quote(m.Name)
	}
	return m.Name
}

func (r *unitRenderer) container(typed, std string) string {
	if r.opts.UseStandardCollections {
		return std
	}
	r.imports.addFrom("typing", typed)
	return typed
}

// primExpr maps a scalar primitive to its annotation, pulling in the
// owning module. Formats the dialect cannot validate degrade to str.
func (r *unitRenderer) primExpr(p ir.Primitive) string {
	switch p {
	case ir.PrimInt:
		return "int"
	case ir.PrimFloat:
		return "float"
	case ir.PrimBool:
		return "bool"
	case ir.PrimBytes:
		return "bytes"
	case ir.PrimDecimal:
		r.imports.addFrom("decimal", "Decimal")
		return "Decimal"
	case ir.PrimDate:
		r.imports.addFrom("datetime", "date")
		return "date"
	case ir.PrimDateTime:
		r.imports.addFrom("datetime", "datetime")
		return "datetime"
	case ir.PrimTime:
		r.imports.addFrom("datetime", "time")
		return "time"
	case ir.PrimDuration:
		r.imports.addFrom("datetime", "timedelta")
		return "timedelta"
	case ir.PrimUUID:
		r.imports.addFrom("uuid", "UUID")
		return "UUID"
	case ir.PrimURI:
		if r.opts.Dialect == Pydantic {
			r.imports.addFrom("pydantic", "AnyUrl")
			return "AnyUrl"
		}
		return "str"
	case ir.PrimEmail:
		if r.opts.Dialect == Pydantic {
			r.imports.addFrom("pydantic", "EmailStr")
			return "EmailStr"
		}
		return "str"
	case ir.PrimIPv4:
		r.imports.addFrom("ipaddress", "IPv4Address")
		return "IPv4Address"
	case ir.PrimIPv6:
		r.imports.addFrom("ipaddress", "IPv6Address")
		return "IPv6Address"
	default:
		return "str"
	}
}

// pyLiteral renders a decoded schema value as a Python literal.
func pyLiteral(v any) string {
	switch t := v.(type) {
	case nil:
		return "None"
	case bool:
		if t {
			return "True"
		}
		return "False"
	case string:
		return pyString(t)
	case rawnode.Number:
		return string(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case []any:
		elems := make([]string, 0, len(t))
		for _, e := range t {
			elems = append(elems, pyLiteral(e))
		}
		return "[" + strings.Join(elems, ", ") + "]"
	default:
		return pyString(fmt.Sprintf("%v", t))
	}
}

// pyString renders a single-quoted Python string.
func pyString(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// isContainerDefault reports whether a default value needs a factory
// under dialects that reject mutable defaults.
func isContainerDefault(v any) bool {
	switch v.(type) {
	case []any, map[string]any:
		return true
	}
	return false
}

// constraintKwargs renders validation keywords shared by the pydantic
// Field and msgspec Meta vocabularies.
func constraintKwargs(c ir.Constraints) []string {
	var out []string
	if c.Bounds.Lower != nil {
		kw := "gt"
		if c.Bounds.Lower.Inclusive {
			kw = "ge"
		}
		out = append(out, kw+"="+pyNumber(c.Bounds.Lower.Value))
	}
	if c.Bounds.Upper != nil {
		kw := "lt"
		if c.Bounds.Upper.Inclusive {
			kw = "le"
		}
		out = append(out, kw+"="+pyNumber(c.Bounds.Upper.Value))
	}
	if c.MultipleOf != nil {
		out = append(out, "multiple_of="+pyNumber(c.MultipleOf.Value))
	}
	if c.MinLength != nil {
		out = append(out, fmt.Sprintf("min_length=%d", *c.MinLength))
	}
	if c.MaxLength != nil {
		out = append(out, fmt.Sprintf("max_length=%d", *c.MaxLength))
	}
	if c.Pattern != "" {
		out = append(out, "pattern="+pyString(c.Pattern))
	}
	if c.MinItems != nil {
		out = append(out, fmt.Sprintf("min_length=%d", *c.MinItems))
	}
	if c.MaxItems != nil {
		out = append(out, fmt.Sprintf("max_length=%d", *c.MaxItems))
	}
	return out
}

// constraintDoc renders constraints as human-readable lines for dialects
// without inline validation.
func constraintDoc(c ir.Constraints) []string {
	var out []string
	for _, kw := range constraintKwargs(c) {
		out = append(out, strings.Replace(kw, "=", ": ", 1))
	}
	if c.UniqueItems {
		out = append(out, "unique items")
	}
	return out
}

// pyNumber renders an exact rational as Python source: integers and
// finite decimals verbatim, anything else as a float approximation.
func pyNumber(r *big.Rat) string {
	if r == nil {
		return "0"
	}
	if s := num.RenderRat(r); !strings.ContainsAny(s, "/") {
		return s
	}
	f, _ := r.Float64()
	return strconv.FormatFloat(f, 'g', -1, 64)
}
