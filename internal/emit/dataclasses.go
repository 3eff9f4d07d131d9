package emit

import (
	"fmt"
	"strings"

	"github.com/typeforge/typeforge/internal/ir"
)

// renderDataclass declares one frozen-struct model. Defaulted fields sort
// after required ones because the language requires it; within each group
// declaration order is kept.
func (r *unitRenderer) renderDataclass(m *ir.Model) string {
	r.imports.addFrom("dataclasses", "dataclass")

	deco := "@dataclass"
	if r.opts.Immutable {
		deco = "@dataclass(frozen=True)"
	}

	var b strings.Builder
	b.WriteString(deco)
	b.WriteString("\n")
	if len(m.Bases) > 0 {
		fmt.Fprintf(&b, "class %s(%s):\n", m.Name, r.baseList(m, ""))
	} else {
		fmt.Fprintf(&b, "class %s:\n", m.Name)
	}

	var body []string
	if doc := r.classDocstring(m, nil); doc != "" {
		body = append(body, doc)
	}
	var deferred []string
	for _, f := range m.Fields {
		line := r.dataclassField(f)
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

func (r *unitRenderer) dataclassField(f ir.Field) string {
	annotation := r.typeExpr(f.Type)
	var assign string
	switch {
	case f.HasDefault:
		if isContainerDefault(f.Default) {
			r.imports.addFrom("dataclasses", "field")
			assign = fmt.Sprintf("field(default_factory=lambda: %s)", pyLiteral(f.Default))
		} else {
			assign = pyLiteral(f.Default)
		}
	case !f.Required:
		annotation = r.optionalized(f.Type)
		assign = "None"
	}

	line := fmt.Sprintf("    %s: %s", f.Name, annotation)
	if assign != "" {
		line += " = " + assign
	}
	line += r.inlineComment(f)

	lines := append([]string{line}, r.fieldDocLines(f, r.docConstraints(f))...)
	return strings.Join(lines, "\n")
}
