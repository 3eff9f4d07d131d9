package emit

import (
	"fmt"
	"strings"

	"github.com/typeforge/typeforge/internal/casing"
	"github.com/typeforge/typeforge/internal/ir"
)

// renderTypedDict declares one typed-mapping model. Keys are the wire
// names; when any wire name is not a legal identifier the functional
// declaration form is used instead of a class body.
func (r *unitRenderer) renderTypedDict(m *ir.Model) string {
	r.imports.addFrom("typing", "TypedDict")

	functional := false
	for _, f := range m.Fields {
		if !casing.IsIdentifier(f.WireName) || casing.IsReserved(f.WireName) {
			functional = true
			break
		}
	}
	if functional && len(m.Bases) == 0 {
		return r.renderFunctionalTypedDict(m)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "class %s(%s):\n", m.Name, r.baseList(m, "TypedDict"))
	var body []string
	if doc := r.classDocstring(m, nil); doc != "" {
		body = append(body, doc)
	}
	for _, f := range m.Fields {
		annotation := r.typeExpr(f.Type)
		if !f.Required {
			r.imports.addFrom("typing", "NotRequired")
			annotation = "NotRequired[" + annotation + "]"
		}
		line := fmt.Sprintf("    %s: %s", f.WireName, annotation) + r.inlineComment(f)
		body = append(body, strings.Join(
			append([]string{line}, r.fieldDocLines(f, r.docConstraints(f))...), "\n"))
	}
	if len(body) == 0 {
		body = append(body, "    pass")
	}
	b.WriteString(strings.Join(body, "\n"))
	return b.String()
}

func (r *unitRenderer) renderFunctionalTypedDict(m *ir.Model) string {
	var b strings.Builder
	if m.Doc != "" && r.opts.Description != DescMetadata {
		fmt.Fprintf(&b, "# %s\n", oneLine(m.Doc))
	}
	fmt.Fprintf(&b, "%s = TypedDict('%s', {\n", m.Name, m.Name)
	for _, f := range m.Fields {
		annotation := r.typeExpr(f.Type)
		if !f.Required {
			r.imports.addFrom("typing", "NotRequired")
			annotation = "NotRequired[" + annotation + "]"
		}
		fmt.Fprintf(&b, "    %s: %s,\n", pyString(f.WireName), annotation)
	}
	b.WriteString("})")
	return b.String()
}
