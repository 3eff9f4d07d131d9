package synth

import (
	"fmt"
	"strings"

	"github.com/typeforge/typeforge/internal/casing"
	"github.com/typeforge/typeforge/internal/diag"
	"github.com/typeforge/typeforge/internal/ir"
	"github.com/typeforge/typeforge/internal/rawnode"
)

// fillEnum synthesizes an enum model. Member names come from sanitizing
// the raw values; values that cannot be represented as identifiers at all
// (empty string, whitespace, booleans) go through a dedicated
// literal-name table instead of generic sanitization. A null value never
// becomes a member; it makes the enum nullable at its use sites.
func (s *synthesizer) fillEnum(m *ir.Model, n *rawnode.Node) error {
	m.Kind = ir.ModelEnum

	values := n.Enum
	if n.HasConst && len(values) == 0 {
		values = []any{n.Const}
	}

	used := map[string]bool{}
	allStrings := true
	allInts := true
	for _, v := range values {
		if v == nil {
			// Python enums cannot carry a None member next to typed ones;
			// nullability moves to the referencing field instead.
			m.EnumNullable = true
			continue
		}
		name := s.memberName(v)
		if used[name] {
			base := name
			for i := 1; ; i++ {
				name = fmt.Sprintf("%s_%d", base, i)
				if !used[name] {
					break
				}
			}
			s.d.Warnf(diag.WarnEnumMemberRenamed, n.Loc.String(),
				"enum member for value %v renamed to %s", v, name)
		}
		used[name] = true
		m.Members = append(m.Members, ir.EnumMember{Name: name, Value: plainValue(v)})
		switch v.(type) {
		case string:
			allInts = false
		default:
			allStrings = false
			if !isIntValue(v) {
				allInts = false
			}
		}
	}

	switch {
	case allStrings && len(m.Members) > 0:
		m.EnumBase = ir.PrimString
		m.LiteralEligible = true
	case allInts && len(m.Members) > 0:
		m.EnumBase = ir.PrimInt
		m.LiteralEligible = true
	default:
		m.EnumPlain = true
	}
	return nil
}

// literalNameTable maps non-identifier-representable values to fixed
// member names; the empty-string name is configurable.
func (s *synthesizer) literalName(v any) (string, bool) {
	switch t := v.(type) {
	case bool:
		if t {
			return "true_", true
		}
		return "false_", true
	case string:
		if t == "" {
			return s.opts.EmptyName, true
		}
		if strings.TrimSpace(t) == "" {
			return "whitespace", true
		}
	}
	return "", false
}

// memberName derives an identifier-safe member name for one enum value.
func (s *synthesizer) memberName(v any) string {
	if name, ok := s.literalName(v); ok {
		return name
	}
	var raw string
	switch t := v.(type) {
	case string:
		raw = t
	case rawnode.Number:
		raw = strings.NewReplacer("-", "minus_", ".", "_", "+", "").Replace(string(t))
	default:
		raw = fmt.Sprintf("%v", t)
	}
	name := casing.Sanitize(raw)
	if name == "" {
		name = "member"
	}
	name = casing.Transform(name, s.opts.EnumCase)
	if !casing.LeadsIdentifier(name) || casing.IsReserved(name) {
		name = s.opts.EnumPrefix + name
	}
	return name
}

func isIntValue(v any) bool {
	switch t := v.(type) {
	case int, int64:
		return true
	case rawnode.Number:
		return t.IsInt()
	}
	return false
}

// plainValue is the identity today; enum values are stored as decoded,
// with numbers kept as rawnode.Number so emitters render them verbatim.
func plainValue(v any) any { return v }
