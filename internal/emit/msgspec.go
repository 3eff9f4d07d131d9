package emit

import (
	"fmt"
	"strings"

	"github.com/typeforge/typeforge/internal/ir"
)

// renderMsgspec declares one tagged-struct model. Optional undefaulted
// fields use the UNSET sentinel instead of a null default, and inline
// constraints ride on Annotated metadata.
func (r *unitRenderer) renderMsgspec(m *ir.Model) string {
	r.imports.add("msgspec")

	head := r.baseList(m, "msgspec.Struct")
	var structArgs []string
	if len(m.Bases) == 0 {
		if r.opts.Immutable {
			structArgs = append(structArgs, "frozen=True")
		}
		if tag, ok := r.structTag(m); ok {
			structArgs = append(structArgs, fmt.Sprintf("tag_field=%s, tag=%s",
				pyString(tag.field), pyLiteral(tag.value)))
		}
	}
	decl := head
	if len(structArgs) > 0 {
		decl = head + ", " + strings.Join(structArgs, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "class %s(%s):\n", m.Name, decl)
	var body []string
	if doc := r.classDocstring(m, nil); doc != "" {
		body = append(body, doc)
	}
	var deferred []string
	for _, f := range m.Fields {
		line := r.msgspecField(f)
		if f.Required && !f.HasDefault {
			body = append(body, line)
		} else {
			deferred = append(deferred, line)
		}
	}
	body = append(body, deferred...)
	if len(body) == 0 {
		body = append(body, "    pass")
	}
	b.WriteString(strings.Join(body, "\n"))
	return b.String()
}

type structTag struct {
	field string
	value any
}

// structTag finds the single-literal discriminator field declared on the
// model itself, which msgspec expresses as struct-level tag configuration
// rather than a field.
func (r *unitRenderer) structTag(m *ir.Model) (structTag, bool) {
	for _, f := range m.Fields {
		if lit, ok := f.Type.(*ir.Literal); ok && f.Required {
			return structTag{field: f.WireName, value: lit.Value}, true
		}
	}
	return structTag{}, false
}

func (r *unitRenderer) msgspecField(f ir.Field) string {
	// The tag field is declared at the struct level.
	if _, ok := f.Type.(*ir.Literal); ok && f.Required {
		return fmt.Sprintf("    # %s is carried by the struct tag", f.Name)
	}

	annotation := r.typeExpr(f.Type)
	if r.opts.FieldConstraints {
		if c, ok := typeConstraints(f.Type); ok && !c.IsZero() {
			r.imports.addFrom("typing", "Annotated")
			annotation = fmt.Sprintf("Annotated[%s, msgspec.Meta(%s)]",
				annotation, strings.Join(constraintKwargs(c), ", "))
		}
	}

	var assign string
	switch {
	case f.HasDefault:
		if isContainerDefault(f.Default) {
			assign = fmt.Sprintf("msgspec.field(default_factory=lambda: %s)", pyLiteral(f.Default))
		} else {
			assign = pyLiteral(f.Default)
		}
	case !f.Required:
		r.imports.addFrom("typing", "Union")
		annotation = fmt.Sprintf("Union[%s, msgspec.UnsetType]", annotation)
		assign = "msgspec.UNSET"
	}
	if f.Alias != "" {
		if assign == "" {
			assign = fmt.Sprintf("msgspec.field(name=%s)", pyString(f.Alias))
		} else if !strings.HasPrefix(assign, "msgspec.field(") {
			assign = fmt.Sprintf("msgspec.field(default=%s, name=%s)", assign, pyString(f.Alias))
		} else {
			assign = strings.TrimSuffix(assign, ")") + ", name=" + pyString(f.Alias) + ")"
		}
	}

	line := fmt.Sprintf("    %s: %s", f.Name, annotation)
	if assign != "" {
		line += " = " + assign
	}
	line += r.inlineComment(f)

	lines := append([]string{line}, r.fieldDocLines(f, r.docConstraints(f))...)
	return strings.Join(lines, "\n")
}
