package emit

import (
	"fmt"
	"strings"

	"github.com/typeforge/typeforge/internal/ir"
)

// renderModel dispatches one declaration. Aliases, unions and enum
// classes render the same way under every dialect; only object models
// differ per dialect.
func (r *unitRenderer) renderModel(m *ir.Model) (string, error) {
	if m.AliasOf != "" {
		return r.renderAliasClass(m), nil
	}
	switch m.Kind {
	case ir.ModelAlias, ir.ModelUnion:
		return r.renderTypeAlias(m), nil
	case ir.ModelEnum:
		return r.renderEnum(m), nil
	default:
		switch r.opts.Dialect {
		case Dataclasses:
			return r.renderDataclass(m), nil
		case TypedDict:
			return r.renderTypedDict(m), nil
		case Msgspec:
			return r.renderMsgspec(m), nil
		default:
			return r.renderPydantic(m), nil
		}
	}
}

// renderTypeAlias declares `Name = <expr>` for alias and union models.
func (r *unitRenderer) renderTypeAlias(m *ir.Model) string {
	var b strings.Builder
	if m.Doc != "" && r.opts.Description != DescMetadata {
		fmt.Fprintf(&b, "# %s\n", oneLine(m.Doc))
	}
	fmt.Fprintf(&b, "%s = %s", m.Name, r.typeExpr(m.Target))
	return b.String()
}

// renderAliasClass declares the empty subclass produced by structural
// reuse in alias-class style.
func (r *unitRenderer) renderAliasClass(m *ir.Model) string {
	base := r.refExpr(m.AliasOf, false)
	var b strings.Builder
	fmt.Fprintf(&b, "class %s(%s):\n", m.Name, base)
	if doc := r.classDocstring(m, nil); doc != "" {
		b.WriteString(doc)
	} else {
		b.WriteString("    pass")
	}
	return b.String()
}

// renderEnum declares an enum class, or a Literal alias when the model
// qualifies and literal enums are requested.
func (r *unitRenderer) renderEnum(m *ir.Model) string {
	if r.opts.LiteralEnums && m.LiteralEligible {
		r.imports.addFrom("typing", "Literal")
		values := make([]string, 0, len(m.Members))
		for _, mem := range m.Members {
			values = append(values, pyLiteral(mem.Value))
		}
		return fmt.Sprintf("%s = Literal[%s]", m.Name, strings.Join(values, ", "))
	}

	r.imports.addFrom("enum", "Enum")
	base := "str, Enum"
	switch {
	case m.EnumPlain:
		base = "Enum"
	case m.EnumBase == ir.PrimInt:
		base = "int, Enum"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "class %s(%s):\n", m.Name, base)
	if doc := r.classDocstring(m, nil); doc != "" {
		b.WriteString(doc)
		b.WriteString("\n")
	}
	for _, mem := range m.Members {
		fmt.Fprintf(&b, "    %s = %s\n", mem.Name, pyLiteral(mem.Value))
	}
	if len(m.Members) == 0 {
		b.WriteString("    pass\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// classDocstring renders the class-level docstring per the description
// placement policy; empty when nothing applies.
func (r *unitRenderer) classDocstring(m *ir.Model, extra []string) string {
	doc := m.Doc
	if r.opts.Description == DescInlineComment || r.opts.Description == DescMetadata {
		doc = ""
	}
	if doc == "" && len(extra) == 0 {
		return ""
	}
	var lines []string
	if doc != "" {
		lines = append(lines, strings.Split(strings.TrimSpace(doc), "\n")...)
	}
	if len(extra) > 0 {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, extra...)
	}
	if len(lines) == 1 {
		return fmt.Sprintf("    \"\"\"%s\"\"\"", lines[0])
	}
	var b strings.Builder
	b.WriteString("    \"\"\"\n")
	for _, l := range lines {
		if l == "" {
			b.WriteString("\n")
			continue
		}
		fmt.Fprintf(&b, "    %s\n", l)
	}
	b.WriteString("    \"\"\"")
	return b.String()
}

// fieldDocLines renders under-field documentation when the placement
// policy asks for attribute docstrings.
func (r *unitRenderer) fieldDocLines(f ir.Field, constraints []string) []string {
	var out []string
	if r.opts.Description == DescFieldDoc && f.Doc != "" {
		out = append(out, fmt.Sprintf("    \"\"\"%s\"\"\"", oneLine(f.Doc)))
	}
	for _, c := range constraints {
		out = append(out, fmt.Sprintf("    # %s", c))
	}
	return out
}

// inlineComment returns the trailing comment for a field line, if any.
func (r *unitRenderer) inlineComment(f ir.Field) string {
	if r.opts.Description == DescInlineComment && f.Doc != "" {
		return "  # " + oneLine(f.Doc)
	}
	return ""
}

// docConstraints returns the constraint documentation lines for dialects
// that cannot validate inline.
func (r *unitRenderer) docConstraints(f ir.Field) []string {
	if !r.opts.FieldConstraints || r.caps.Constraints {
		return nil
	}
	c, ok := typeConstraints(f.Type)
	if !ok || c.IsZero() {
		return nil
	}
	return constraintDoc(c)
}

// finalize renders the deferred-rebuild pass for units whose models keep
// forward references; only the validated-class dialect needs one.
func (r *unitRenderer) finalize() string {
	if r.opts.Dialect != Pydantic {
		return ""
	}
	var lines []string
	for _, m := range r.unit.Models {
		if m.NeedsRebuild && m.Kind == ir.ModelObject && m.AliasOf == "" {
			lines = append(lines, m.Name+".model_rebuild()")
		}
	}
	return strings.Join(lines, "\n")
}

// baseList renders the base-class expressions of an object model. Bases
// are stored in schema order with later entries overriding earlier ones,
// so the rendered list is reversed: Python's MRO resolves attributes
// left to right.
func (r *unitRenderer) baseList(m *ir.Model, fallback string) string {
	if len(m.Bases) == 0 {
		return fallback
	}
	names := make([]string, 0, len(m.Bases))
	for i := len(m.Bases) - 1; i >= 0; i-- {
		names = append(names, r.refExpr(m.Bases[i].Key, false))
	}
	return strings.Join(names, ", ")
}

// typeConstraints unwraps a field type down to its scalar or array
// constraints.
func typeConstraints(t ir.Type) (ir.Constraints, bool) {
	switch v := t.(type) {
	case *ir.Scalar:
		return v.Constraints, true
	case *ir.Array:
		return v.Constraints, true
	case *ir.Optional:
		return typeConstraints(v.Inner)
	}
	return ir.Constraints{}, false
}

// unionOf unwraps a field type to its union, looking through Optional.
func unionOf(t ir.Type) (*ir.Union, bool) {
	switch v := t.(type) {
	case *ir.Union:
		return v, true
	case *ir.Optional:
		return unionOf(v.Inner)
	}
	return nil, false
}

// optionalized wraps a non-required, non-optional annotation so the null
// default is admissible.
func (r *unitRenderer) optionalized(t ir.Type) string {
	if _, ok := t.(*ir.Optional); ok {
		return r.typeExpr(t)
	}
	r.imports.addFrom("typing", "Optional")
	return "Optional[" + r.typeExpr(t) + "]"
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
