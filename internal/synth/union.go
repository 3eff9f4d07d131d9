package synth

import (
	"fmt"
	"sort"

	"github.com/typeforge/typeforge/internal/diag"
	"github.com/typeforge/typeforge/internal/ir"
	"github.com/typeforge/typeforge/internal/rawnode"
)

// unionType synthesizes a oneOf/anyOf node. With a discriminator keyword
// the union is promoted to a tagged union and every variant must expose
// the discriminator as a single-value literal.
func (s *synthesizer) unionType(n *rawnode.Node, hints hintList) (ir.Type, error) {
	branches := n.OneOf
	if len(branches) == 0 {
		branches = n.AnyOf
	}

	var (
		variants []ir.Type
		nullable bool
	)
	for i, branch := range branches {
		branchHints := hintList{
			title: branch.Title,
			path:  fmt.Sprintf("%s_%d", firstNonEmpty(hints.title, hints.path), i+1),
		}
		vt, err := s.typeOf(branch, branchHints)
		if err != nil {
			return nil, err
		}
		if _, isNone := vt.(*ir.None); isNone {
			nullable = true
			continue
		}
		if _, isAny := vt.(*ir.Any); isAny && branch.Classify() == rawnode.KindAny {
			s.d.Warnf(diag.WarnIncompatibleCombinator, branch.Loc.String(),
				"union branch carries no type information; widening to untyped")
		}
		variants = append(variants, vt)
	}
	variants = dedupTypes(variants)

	var result ir.Type
	switch len(variants) {
	case 0:
		result = &ir.Any{}
	case 1:
		result = variants[0]
	default:
		u := &ir.Union{Variants: variants}
		if n.Discriminator != "" {
			tags, err := s.discriminatorTags(n, u)
			if err != nil {
				return nil, err
			}
			u.Discriminator = n.Discriminator
			u.Tags = tags
		}
		result = u
	}
	if nullable {
		result = optional(result)
	}
	return result, nil
}

// discriminatorTags derives the literal-to-variant table. An explicit
// mapping wins; otherwise each variant model must declare the
// discriminator property as a const or single-member enum.
func (s *synthesizer) discriminatorTags(n *rawnode.Node, u *ir.Union) ([]ir.UnionTag, error) {
	if len(n.DiscriminatorMapping) > 0 {
		return s.mappedTags(n, u)
	}

	tags := make([]ir.UnionTag, 0, len(u.Variants))
	for _, v := range u.Variants {
		mr, ok := v.(*ir.ModelRef)
		if !ok {
			return nil, &diag.IncompatibleDiscriminatorError{
				Location:      n.Loc.String(),
				Discriminator: n.Discriminator,
				Variant:       ir.Sig(v),
			}
		}
		lit, ok := s.variantLiteral(mr, n.Discriminator)
		if !ok {
			return nil, &diag.IncompatibleDiscriminatorError{
				Location:      n.Loc.String(),
				Discriminator: n.Discriminator,
				Variant:       mr.Key,
			}
		}
		tags = append(tags, ir.UnionTag{Literal: lit, Ref: mr})
	}
	return tags, nil
}

// mappedTags matches an explicit discriminator mapping against the
// variant references, sorted by literal for determinism.
func (s *synthesizer) mappedTags(n *rawnode.Node, u *ir.Union) ([]ir.UnionTag, error) {
	byTarget := map[string]*ir.ModelRef{}
	for _, v := range u.Variants {
		if mr, ok := v.(*ir.ModelRef); ok {
			byTarget[mr.Key] = mr
		}
	}

	literals := make([]string, 0, len(n.DiscriminatorMapping))
	for lit := range n.DiscriminatorMapping {
		literals = append(literals, lit)
	}
	sort.Strings(literals)

	tags := make([]ir.UnionTag, 0, len(literals))
	for _, lit := range literals {
		refStr := n.DiscriminatorMapping[lit]
		target, err := s.mappingTarget(n, refStr)
		if err != nil {
			return nil, err
		}
		mr, ok := byTarget[target]
		if !ok {
			return nil, &diag.IncompatibleDiscriminatorError{
				Location:      n.Loc.String(),
				Discriminator: n.Discriminator,
				Variant:       refStr,
			}
		}
		tags = append(tags, ir.UnionTag{Literal: lit, Ref: mr})
	}
	return tags, nil
}

// mappingTarget resolves one mapping reference string to a model key.
func (s *synthesizer) mappingTarget(n *rawnode.Node, refStr string) (string, error) {
	probe := &rawnode.Node{Loc: n.Loc, Ref: refStr}
	// Mapping refs share the union's document context; resolve through the
	// same arena the variants were resolved against.
	for _, branch := range append(append([]*rawnode.Node{}, n.OneOf...), n.AnyOf...) {
		if branch.Ref == refStr {
			if t, ok := s.g.Target(branch.Loc); ok {
				return t.String(), nil
			}
		}
	}
	return "", &diag.BrokenReferenceError{Location: probe.Loc.String(), Target: refStr}
}

// variantLiteral extracts the single-value discriminator literal from a
// variant model, looking through its bases when needed.
func (s *synthesizer) variantLiteral(mr *ir.ModelRef, disc string) (string, bool) {
	m, ok := s.forest.Lookup(mr.Key)
	if !ok {
		return "", false
	}
	seen := map[string]bool{}
	return s.literalIn(m, disc, seen)
}

func (s *synthesizer) literalIn(m *ir.Model, disc string, seen map[string]bool) (string, bool) {
	if seen[m.Key] {
		return "", false
	}
	seen[m.Key] = true
	for _, f := range m.Fields {
		if f.WireName != disc {
			continue
		}
		switch t := f.Type.(type) {
		case *ir.Literal:
			return fmt.Sprintf("%v", t.Value), true
		case *ir.EnumRef:
			em, ok := s.forest.Lookup(t.Key)
			if ok && len(em.Members) == 1 {
				return fmt.Sprintf("%v", em.Members[0].Value), true
			}
		}
		return "", false
	}
	for _, base := range m.Bases {
		if bm, ok := s.forest.Lookup(base.Key); ok {
			if lit, ok := s.literalIn(bm, disc, seen); ok {
				return lit, true
			}
		}
	}
	return "", false
}
