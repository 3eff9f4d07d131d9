package naming

import (
	"strings"

	"github.com/typeforge/typeforge/internal/diag"
	"github.com/typeforge/typeforge/internal/ir"
)

// collapse folds structurally identical models before any renaming, so
// deduplication removes collision candidates instead of competing with
// them. Signatures canonicalize reference keys through the collapse map,
// and the pass repeats until no group shrinks: collapsing two leaves can
// make their parents identical on the next round.
func (r *resolver) collapse() {
	for r.collapseOnce() {
	}
}

func (r *resolver) collapseOnce() bool {
	canon := func(key string) string {
		if m, ok := r.f.Lookup(key); ok {
			return m.Key
		}
		return key
	}

	// Declaration order decides the survivor: the first-declared model of
	// each group keeps its identity, matching how names are assigned.
	groups := map[string][]*ir.Model{}
	var order []string
	for _, m := range r.f.Models {
		if m.IsCollapsed() || m.AliasOf != "" {
			continue
		}
		if m.Kind != ir.ModelObject && m.Kind != ir.ModelEnum {
			continue
		}
		sig := ir.ModelSig(m, canon)
		if r.opts.Reuse == ReuseUnit {
			sig = documentOf(m.Key) + "|" + sig
		}
		if _, seen := groups[sig]; !seen {
			order = append(order, sig)
		}
		groups[sig] = append(groups[sig], m)
	}

	changed := false
	for _, sig := range order {
		ms := groups[sig]
		if len(ms) < 2 {
			continue
		}
		survivor := ms[0]
		for _, dup := range ms[1:] {
			if r.opts.ReuseStyle == AliasClass {
				dup.AliasOf = survivor.Key
			} else {
				dup.CollapsedInto = survivor.Key
			}
			r.d.Warnf(diag.WarnReuseCollapsed, dup.Key,
				"structurally identical to %s; collapsed", survivor.Key)
			changed = true
		}
	}
	// Alias subclasses keep their own declaration, so they never make two
	// parents identical; only substitution can cascade.
	return changed && r.opts.ReuseStyle == Substitute
}

func documentOf(key string) string {
	if i := strings.IndexByte(key, '#'); i >= 0 {
		return key[:i]
	}
	return key
}
