package planner_test

import (
	"testing"

	"github.com/typeforge/typeforge/internal/diag"
	"github.com/typeforge/typeforge/internal/ir"
	"github.com/typeforge/typeforge/internal/planner"
)

func named(key, name string, fields ...ir.Field) *ir.Model {
	return &ir.Model{Key: key, Kind: ir.ModelObject, Name: name, Fields: fields}
}

func ref(key string) ir.Type { return &ir.ModelRef{Key: key} }

func TestSingleLayoutOneUnit(t *testing.T) {
	f := ir.NewForest([]*ir.Model{
		named("a.json#/$defs/A", "A"),
		named("a.json#/$defs/B", "B",
			ir.Field{WireName: "a", Name: "a", Type: ref("a.json#/$defs/A")}),
	})
	g, err := planner.Plan(f, planner.Options{Layout: planner.Single}, &diag.Diag{})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(g.Units) != 1 || g.Units[0].Path != "models" {
		t.Fatalf("units: %+v", g.Units)
	}
	if len(g.Units[0].Imports) != 0 {
		t.Fatalf("imports: %v", g.Units[0].Imports)
	}
	for _, m := range g.Units[0].Models {
		if m.Module != "models" {
			t.Fatalf("module: %q", m.Module)
		}
	}
}

func TestPerEntityDependencyOrder(t *testing.T) {
	f := ir.NewForest([]*ir.Model{
		named("a.json#/$defs/Outer", "Outer",
			ir.Field{WireName: "inner", Name: "inner", Type: ref("a.json#/$defs/Inner")}),
		named("a.json#/$defs/Inner", "Inner"),
	})
	g, err := planner.Plan(f, planner.Options{Layout: planner.PerEntity}, &diag.Diag{})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(g.Units) != 2 {
		t.Fatalf("units: %d", len(g.Units))
	}
	if g.Units[0].Path != "models/inner" || g.Units[1].Path != "models/outer" {
		t.Fatalf("order: %s %s", g.Units[0].Path, g.Units[1].Path)
	}
	if len(g.Units[1].Imports) != 1 || g.Units[1].Imports[0] != "models/inner" {
		t.Fatalf("imports: %v", g.Units[1].Imports)
	}
}

func TestBasesPrecedeSubclasses(t *testing.T) {
	base := named("a.json#/$defs/Base", "Base")
	child := named("a.json#/$defs/Child", "Child")
	child.Bases = []*ir.ModelRef{{Key: base.Key}}
	// Child declared first; the unit must still put Base on top.
	f := ir.NewForest([]*ir.Model{child, base})
	g, err := planner.Plan(f, planner.Options{Layout: planner.Single}, &diag.Diag{})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	models := g.Units[0].Models
	if models[0].Name != "Base" || models[1].Name != "Child" {
		t.Fatalf("order: %s %s", models[0].Name, models[1].Name)
	}
	if models[0].NeedsRebuild || models[1].NeedsRebuild {
		t.Fatalf("acyclic unit must not need rebuild")
	}
}

func TestMutualReferencesMarkRebuild(t *testing.T) {
	a := named("a.json#/$defs/A", "A",
		ir.Field{WireName: "b", Name: "b", Type: ref("a.json#/$defs/B")})
	b := named("a.json#/$defs/B", "B",
		ir.Field{WireName: "a", Name: "a", Type: ref("a.json#/$defs/A")})
	f := ir.NewForest([]*ir.Model{a, b})
	g, err := planner.Plan(f, planner.Options{Layout: planner.Single}, &diag.Diag{})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	for _, m := range g.Units[0].Models {
		if !m.NeedsRebuild {
			t.Fatalf("%s should carry the rebuild marker", m.Name)
		}
	}
}

func TestForwardReferenceMarksRebuild(t *testing.T) {
	n := named("a.json#/$defs/Node", "Node",
		ir.Field{WireName: "next", Name: "next",
			Type: &ir.Optional{Inner: &ir.ModelRef{Key: "a.json#/$defs/Node", Forward: true}}})
	f := ir.NewForest([]*ir.Model{n})
	g, err := planner.Plan(f, planner.Options{Layout: planner.Single}, &diag.Diag{})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if !g.Units[0].Models[0].NeedsRebuild {
		t.Fatalf("self reference should carry the rebuild marker")
	}
}

func TestUnitCycleKeepsUnitsWithRebuild(t *testing.T) {
	a := named("a.json#/$defs/A", "A",
		ir.Field{WireName: "b", Name: "b", Type: ref("a.json#/$defs/B")})
	b := named("a.json#/$defs/B", "B",
		ir.Field{WireName: "a", Name: "a", Type: ref("a.json#/$defs/A")})
	f := ir.NewForest([]*ir.Model{a, b})
	d := &diag.Diag{}
	g, err := planner.Plan(f, planner.Options{Layout: planner.PerEntity}, d)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	ua, ok := g.Unit("models/a")
	if !ok {
		t.Fatalf("unit models/a missing: %+v", g.Units)
	}
	ub, ok := g.Unit("models/b")
	if !ok {
		t.Fatalf("unit models/b missing: %+v", g.Units)
	}
	if len(ua.Models) != 1 || len(ub.Models) != 1 {
		t.Fatalf("models per unit: %d and %d", len(ua.Models), len(ub.Models))
	}
	if !ua.Models[0].NeedsRebuild || !ub.Models[0].NeedsRebuild {
		t.Fatalf("both sides of the cycle should defer to a rebuild")
	}
	if ua.Imports[0] != "models/b" || ub.Imports[0] != "models/a" {
		t.Fatalf("imports: %v and %v", ua.Imports, ub.Imports)
	}
	if !d.HasWarnings() {
		t.Fatalf("cycle deferral should warn")
	}
}

func TestDottedLayoutPaths(t *testing.T) {
	u := named("a.json#/$defs/api.v1.User", "User")
	u.Candidates = []string{"api.v1.User"}
	plain := named("a.json#/$defs/Misc", "Misc")
	plain.Candidates = []string{"Misc"}
	f := ir.NewForest([]*ir.Model{u, plain})
	g, err := planner.Plan(f, planner.Options{Layout: planner.Dotted}, &diag.Diag{})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if _, ok := g.Unit("models/api/v1"); !ok {
		t.Fatalf("dotted unit missing: %+v", g.Units)
	}
	if _, ok := g.Unit("models"); !ok {
		t.Fatalf("undotted models should land in the root unit")
	}
}

func TestReexportSurfaces(t *testing.T) {
	u := named("a.json#/$defs/api.v1.User", "User")
	u.Candidates = []string{"api.v1.User"}
	g2 := named("a.json#/$defs/api.v2.Group", "Group")
	g2.Candidates = []string{"api.v2.Group"}
	f := ir.NewForest([]*ir.Model{u, g2})
	g, err := planner.Plan(f,
		planner.Options{Layout: planner.Dotted, Reexport: planner.MinimalPrefix}, &diag.Diag{})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(g.Surfaces) == 0 {
		t.Fatalf("surfaces missing")
	}
	var root *planner.Surface
	for _, s := range g.Surfaces {
		if s.Dir == "" {
			root = s
		}
	}
	if root == nil {
		t.Fatalf("root surface missing")
	}
	if len(root.Exports) != 2 {
		t.Fatalf("root exports: %+v", root.Exports)
	}
	for _, ex := range root.Exports {
		if ex.Alias != "" {
			t.Fatalf("unique names need no alias prefix: %+v", ex)
		}
	}
}

func TestReexportFullPrefixAliases(t *testing.T) {
	u := named("a.json#/$defs/api.v1.User", "User")
	u.Candidates = []string{"api.v1.User"}
	f := ir.NewForest([]*ir.Model{u})
	g, err := planner.Plan(f,
		planner.Options{Layout: planner.Dotted, Reexport: planner.FullPrefix}, &diag.Diag{})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	for _, s := range g.Surfaces {
		if s.Dir != "" {
			continue
		}
		if len(s.Exports) != 1 || s.Exports[0].Alias != "models_api_v1_User" {
			t.Fatalf("exports: %+v", s.Exports)
		}
	}
}
