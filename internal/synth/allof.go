package synth

import (
	"github.com/typeforge/typeforge/internal/diag"
	"github.com/typeforge/typeforge/internal/ir"
	"github.com/typeforge/typeforge/internal/rawnode"
)

// fillAllOf merges an allOf node into a model. Inline (non-reference)
// branches are treated as the child's own declarations; referenced
// branches are parents whose contribution depends on the merge mode.
func (s *synthesizer) fillAllOf(m *ir.Model, n *rawnode.Node, hints hintList) error {
	child := &rawnode.Node{
		Loc:        n.Loc,
		Properties: n.Properties,
		Required:   n.Required,
	}
	childKw := copyKeywords(n.Constraints)
	declaredType := n.Type

	var (
		baseNodes []*rawnode.Node // deref'd parent object nodes, declaration order
		baseRefs  []*rawnode.Node // the referencing branch nodes
	)

	for _, branch := range n.AllOf {
		isRef := branch.Ref != ""
		bn := branch
		if isRef {
			dn, ok := s.g.Deref(branch)
			if !ok {
				return &diag.BrokenReferenceError{Location: branch.Loc.String(), Target: branch.Ref}
			}
			bn = dn
		}

		switch bn.Classify() {
		case rawnode.KindObject:
			if isRef && s.modelWorthy(bn) {
				if s.opts.Merge != MergeNone {
					baseNodes = append(baseNodes, bn)
					baseRefs = append(baseRefs, branch)
				}
				continue
			}
			// Inline object branch: its properties belong to the child.
			mergeInlineObject(child, bn)
		case rawnode.KindScalar, rawnode.KindAny:
			target := childKw
			if isRef && s.opts.Merge == MergeNone {
				continue
			}
			if bn.Type != "" {
				if declaredType != "" && declaredType != bn.Type {
					s.d.Warnf(diag.WarnIncompatibleCombinator, n.Loc.String(),
						"allOf declares conflicting primitive types %q and %q; widening to untyped",
						declaredType, bn.Type)
					m.Kind = ir.ModelAlias
					m.Target = &ir.Any{}
					return nil
				}
				declaredType = bn.Type
			}
			// Scalar constraint keywords lift upward into the child; the
			// child's own spelling of a keyword wins.
			for _, k := range bn.ConstraintKeys() {
				if _, exists := target[k]; !exists {
					v, _ := bn.Constraint(k)
					target[k] = v
				}
			}
		case rawnode.KindEnum, rawnode.KindArray, rawnode.KindCombinator:
			// Branches that are not plain objects or scalars merge by
			// aliasing when they stand alone, otherwise they widen.
			if len(n.AllOf) == 1 && len(child.Properties) == 0 {
				t, err := s.typeOf(bn, hints)
				if err != nil {
					return err
				}
				m.Kind = ir.ModelAlias
				m.Target = t
				return nil
			}
			s.d.Warnf(diag.WarnIncompatibleCombinator, n.Loc.String(),
				"allOf branch %s cannot merge; widening to untyped", bn.Loc)
			m.Kind = ir.ModelAlias
			m.Target = &ir.Any{}
			return nil
		}
	}

	// Pure scalar result: no object bases and no declared properties.
	if len(baseNodes) == 0 && len(child.Properties) == 0 {
		child.Type = declaredType
		child.Constraints = childKw
		if child.Type == "" {
			m.Kind = ir.ModelAlias
			m.Target = &ir.Any{}
			return nil
		}
		t, err := s.scalarType(child)
		if err != nil {
			return err
		}
		m.Kind = ir.ModelAlias
		m.Target = t
		return nil
	}

	// Object result: synthesize the child's own fields first, then attach
	// or flatten bases per the merge mode.
	child.Constraints = childKw
	if err := s.fillObject(m, child, hints); err != nil {
		return err
	}

	baseModels := make([]*ir.Model, 0, len(baseNodes))
	for i, bn := range baseNodes {
		ref, err := s.model(bn, hintList{title: bn.Title, path: bn.Loc.Base()})
		if err != nil {
			return err
		}
		mr, ok := ref.(*ir.ModelRef)
		if !ok {
			s.d.Warnf(diag.WarnIncompatibleCombinator, baseRefs[i].Loc.String(),
				"allOf base %s is not an object model; dropping the edge", bn.Loc)
			continue
		}
		m.Bases = append(m.Bases, mr)
		if bm, ok := s.forest.LookupRaw(mr.Key); ok {
			baseModels = append(baseModels, bm)
		} else {
			baseModels = append(baseModels, nil)
		}
	}

	if s.opts.Merge == MergeConstraints && s.hasPropertyConflict(m, baseModels) {
		s.flattenBases(m, baseModels)
	}
	return nil
}

// mergeInlineObject folds an inline allOf object branch into the child
// declaration; the child's own properties win on name clashes.
func mergeInlineObject(child *rawnode.Node, branch *rawnode.Node) {
	have := map[string]bool{}
	for _, p := range child.Properties {
		have[p.Name] = true
	}
	for _, p := range branch.Properties {
		if !have[p.Name] {
			child.Properties = append(child.Properties, p)
		}
	}
	haveReq := map[string]bool{}
	for _, r := range child.Required {
		haveReq[r] = true
	}
	for _, r := range branch.Required {
		if !haveReq[r] {
			child.Required = append(child.Required, r)
		}
	}
}

// hasPropertyConflict reports whether two bases, or a base and the child,
// declare the same property with a conflicting type — the trigger for the
// if-no-conflict flattening rule. Bases still being built (cycles) cannot
// be inspected and are skipped; the remaining bases are still checked.
func (s *synthesizer) hasPropertyConflict(m *ir.Model, bases []*ir.Model) bool {
	sigs := map[string]string{}
	for _, f := range m.Fields {
		sigs[f.WireName] = ir.Sig(f.Type)
	}
	for i, base := range bases {
		if base == nil || s.state[m.Bases[i].Key] == stateBuilding {
			continue
		}
		for _, f := range base.Fields {
			if prev, ok := sigs[f.WireName]; ok {
				if prev != ir.Sig(f.Type) {
					return true
				}
				continue
			}
			sigs[f.WireName] = ir.Sig(f.Type)
		}
	}
	return false
}

// flattenBases copies base properties into the child and drops the base
// edges. Later-declared bases win among themselves; the child's own
// declaration wins over every base.
func (s *synthesizer) flattenBases(m *ir.Model, bases []*ir.Model) {
	merged := map[string]ir.Field{}
	var order []string
	for _, base := range bases {
		if base == nil {
			continue
		}
		for _, f := range base.Fields {
			if _, seen := merged[f.WireName]; !seen {
				order = append(order, f.WireName)
			}
			merged[f.WireName] = f
		}
	}
	for _, f := range m.Fields {
		if _, seen := merged[f.WireName]; !seen {
			order = append(order, f.WireName)
		}
		merged[f.WireName] = f
	}
	fields := make([]ir.Field, 0, len(order))
	for _, name := range order {
		fields = append(fields, merged[name])
	}
	m.Fields = fields
	m.Bases = nil
}

func copyKeywords(kw map[string]any) map[string]any {
	out := make(map[string]any, len(kw))
	for k, v := range kw {
		out[k] = v
	}
	return out
}
