// Package resolver turns the ingested raw documents into a resolved graph:
// every reference node is bound to exactly one target location, reference
// chains are collapsed, chain cycles are marked instead of inlined, and
// cross-document references pull their documents in through a Loader.
package resolver

import (
	"context"
	"fmt"

	"github.com/typeforge/typeforge/internal/diag"
	"github.com/typeforge/typeforge/internal/location"
	"github.com/typeforge/typeforge/internal/rawnode"
)

// Loader ingests a document on demand (local read or remote fetch plus
// front-end parse). Implementations must register the document in the
// shared rawnode.Set before returning.
type Loader interface {
	Load(ctx context.Context, docID string) (*rawnode.Document, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, docID string) (*rawnode.Document, error)

func (f LoaderFunc) Load(ctx context.Context, docID string) (*rawnode.Document, error) {
	return f(ctx, docID)
}

// Graph is the resolved reference graph over the node arena.
type Graph struct {
	Set     *rawnode.Set
	targets map[string]location.Location
	cyclic  map[string]bool
}

// Target returns the fully collapsed target location for a reference node.
func (g *Graph) Target(refLoc location.Location) (location.Location, bool) {
	t, ok := g.targets[refLoc.String()]
	return t, ok
}

// Cyclic reports whether the reference at refLoc participates in a
// reference-chain cycle and must be treated as a forward edge.
func (g *Graph) Cyclic(refLoc location.Location) bool { return g.cyclic[refLoc.String()] }

// Deref follows a node through its reference chain to the first non-ref
// node. Non-ref nodes return themselves.
func (g *Graph) Deref(n *rawnode.Node) (*rawnode.Node, bool) {
	seen := map[string]bool{}
	for n != nil && n.Ref != "" {
		key := n.Loc.String()
		if seen[key] {
			return nil, false
		}
		seen[key] = true
		t, ok := g.targets[key]
		if !ok {
			return nil, false
		}
		n, ok = g.Set.Lookup(t)
		if !ok {
			return nil, false
		}
	}
	return n, n != nil
}

// chase colors for reference-chain traversal.
const (
	colorWhite = iota
	colorGrey
	colorBlack
)

type resolveRun struct {
	ctx    context.Context
	set    *rawnode.Set
	loader Loader
	d      *diag.Diag
	g      *Graph
	color  map[string]int
}

// Resolve binds every reference in the set. Documents pulled in by
// cross-document references are resolved as well, iterating until the
// graph is closed.
func Resolve(ctx context.Context, set *rawnode.Set, loader Loader, d *diag.Diag) (*Graph, error) {
	r := &resolveRun{
		ctx:    ctx,
		set:    set,
		loader: loader,
		d:      d,
		g:      &Graph{Set: set, targets: map[string]location.Location{}, cyclic: map[string]bool{}},
		color:  map[string]int{},
	}

	// Loading a document can add more documents; loop until no new ones
	// appear. Document order is ingest order, so resolution stays
	// deterministic.
	done := map[string]bool{}
	for {
		docs := set.Documents()
		progressed := false
		for _, doc := range docs {
			if done[doc.ID] {
				continue
			}
			done[doc.ID] = true
			progressed = true
			var walkErr error
			rawnode.Walk(doc.Root, func(n *rawnode.Node) {
				if walkErr != nil || n.Ref == "" {
					return
				}
				if _, err := r.chase(n); err != nil {
					walkErr = err
				}
			})
			if walkErr != nil {
				return nil, walkErr
			}
		}
		if !progressed {
			break
		}
	}
	return r.g, nil
}

// chase resolves one reference node, following chains of references with
// grey/black coloring. A grey node seen again closes a cycle: the edge is
// recorded as cyclic and consumed downstream as a forward reference.
func (r *resolveRun) chase(n *rawnode.Node) (location.Location, error) {
	key := n.Loc.String()
	if t, ok := r.g.targets[key]; ok && r.color[key] == colorBlack {
		return t, nil
	}

	target, err := r.parseTarget(n)
	if err != nil {
		return location.Location{}, err
	}
	r.color[key] = colorGrey
	r.g.targets[key] = target

	tn, ok := r.set.Lookup(target)
	if !ok {
		r.color[key] = colorBlack
		return location.Location{}, &diag.BrokenReferenceError{Location: key, Target: target.String()}
	}

	if tn.Ref != "" {
		tkey := tn.Loc.String()
		if r.color[tkey] == colorGrey {
			// In-progress target: cycle marker instead of inlining.
			r.g.cyclic[key] = true
			r.color[key] = colorBlack
			return target, nil
		}
		if _, err := r.chase(tn); err != nil {
			return location.Location{}, err
		}
		if r.g.cyclic[tkey] {
			r.g.cyclic[key] = true
		} else {
			// Collapse the chain to its final target.
			r.g.targets[key] = r.g.targets[tkey]
		}
	}
	r.color[key] = colorBlack
	return r.g.targets[key], nil
}

// parseTarget parses the reference string, loading the target document if
// it is not ingested yet and resolving plain-name anchors.
func (r *resolveRun) parseTarget(n *rawnode.Node) (location.Location, error) {
	target, err := location.ParseRef(n.Ref, n.Loc)
	if err != nil {
		return location.Location{}, &diag.MalformedReferenceError{
			Location: n.Loc.String(), Ref: n.Ref, Detail: err.Error(),
		}
	}
	if target.Pointer != "" && !target.IsAnchor() {
		if _, err := location.SplitPointer(target.Pointer); err != nil {
			return location.Location{}, &diag.MalformedReferenceError{
				Location: n.Loc.String(), Ref: n.Ref, Detail: err.Error(),
			}
		}
	}

	doc, ok := r.set.Document(target.Document)
	if !ok {
		if r.loader == nil {
			return location.Location{}, &diag.BrokenReferenceError{
				Location: n.Loc.String(), Target: target.String(),
			}
		}
		doc, err = r.loader.Load(r.ctx, target.Document)
		if err != nil {
			return location.Location{}, fmt.Errorf("loading %s (referenced at %s): %w",
				target.Document, n.Loc, err)
		}
	}

	if target.IsAnchor() {
		anchorLoc, ok := doc.Anchors[target.AnchorName()]
		if !ok {
			return location.Location{}, &diag.BrokenReferenceError{
				Location: n.Loc.String(), Target: target.String(),
			}
		}
		target = anchorLoc
	}
	return target, nil
}
