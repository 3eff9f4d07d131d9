package emit

import (
	"fmt"
	"strings"

	"github.com/typeforge/typeforge/internal/ir"
)

// renderPydantic declares one validated-class model.
func (r *unitRenderer) renderPydantic(m *ir.Model) string {
	r.imports.addFrom("pydantic", "BaseModel")

	var b strings.Builder
	fmt.Fprintf(&b, "class %s(%s):\n", m.Name, r.baseList(m, "BaseModel"))

	var body []string
	if doc := r.classDocstring(m, nil); doc != "" {
		body = append(body, doc)
	}
	if cfg := r.pydanticConfig(m); cfg != "" {
		body = append(body, cfg)
	}
	for _, f := range m.Fields {
		body = append(body, r.pydanticField(f))
	}
	if len(body) == 0 {
		body = append(body, "    pass")
	}
	b.WriteString(strings.Join(body, "\n"))
	return b.String()
}

// pydanticConfig renders the model_config line when any setting departs
// from the defaults.
func (r *unitRenderer) pydanticConfig(m *ir.Model) string {
	var kwargs []string
	if r.opts.Immutable {
		kwargs = append(kwargs, "frozen=True")
	}
	switch m.Extra {
	case ir.ExtraForbid:
		kwargs = append(kwargs, "extra='forbid'")
	case ir.ExtraAllowTyped:
		kwargs = append(kwargs, "extra='allow'")
	}
	for _, f := range m.Fields {
		if f.Alias != "" {
			kwargs = append(kwargs, "populate_by_name=True")
			break
		}
	}
	if len(kwargs) == 0 {
		return ""
	}
	r.imports.addFrom("pydantic", "ConfigDict")
	return fmt.Sprintf("    model_config = ConfigDict(%s)", strings.Join(kwargs, ", "))
}

// pydanticField renders one annotated attribute line plus any attribute
// docstring lines the placement policy asks for.
func (r *unitRenderer) pydanticField(f ir.Field) string {
	kwargs := r.pydanticFieldKwargs(f)

	annotation := r.typeExpr(f.Type)
	var assign string
	switch {
	case f.HasDefault:
		def := pyLiteral(f.Default)
		if len(kwargs) > 0 {
			assign = r.fieldCall(def, kwargs)
		} else {
			assign = def
		}
	case f.Required:
		if len(kwargs) > 0 {
			assign = r.fieldCall("...", kwargs)
		}
	default:
		annotation = r.optionalized(f.Type)
		if len(kwargs) > 0 {
			assign = r.fieldCall("None", kwargs)
		} else {
			assign = "None"
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

func (r *unitRenderer) fieldCall(first string, kwargs []string) string {
	r.imports.addFrom("pydantic", "Field")
	args := append([]string{first}, kwargs...)
	return "Field(" + strings.Join(args, ", ") + ")"
}

func (r *unitRenderer) pydanticFieldKwargs(f ir.Field) []string {
	var kwargs []string
	if f.Alias != "" {
		kwargs = append(kwargs, "alias="+pyString(f.Alias))
	}
	if u, ok := unionOf(f.Type); ok && u.Discriminator != "" && len(u.Tags) > 0 {
		disc := u.Discriminator
		if name, ok := r.discriminatorFieldName(u); ok {
			disc = name
		}
		kwargs = append(kwargs, "discriminator="+pyString(disc))
	}
	if r.opts.FieldConstraints {
		if c, ok := typeConstraints(f.Type); ok {
			kwargs = append(kwargs, constraintKwargs(c)...)
		}
	}
	if r.opts.Description == DescMetadata && f.Doc != "" {
		kwargs = append(kwargs, "description="+pyString(oneLine(f.Doc)))
	}
	return kwargs
}

// discriminatorFieldName maps the wire-level discriminator to the
// renamed field identifier on the first variant, since the validator
// matches on field names when aliases are in play.
func (r *unitRenderer) discriminatorFieldName(u *ir.Union) (string, bool) {
	for _, tag := range u.Tags {
		m, ok := r.g.Forest.Lookup(tag.Ref.Key)
		if !ok {
			continue
		}
		for _, f := range m.Fields {
			if f.WireName == u.Discriminator && f.Name != "" {
				return f.Name, true
			}
		}
	}
	return "", false
}
