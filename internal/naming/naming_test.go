package naming_test

import (
	"errors"
	"testing"

	"github.com/typeforge/typeforge/internal/casing"
	"github.com/typeforge/typeforge/internal/diag"
	"github.com/typeforge/typeforge/internal/ir"
	"github.com/typeforge/typeforge/internal/naming"
)

func strScalar() ir.Type { return &ir.Scalar{Prim: ir.PrimString} }

func object(key string, candidates []string, fields ...ir.Field) *ir.Model {
	return &ir.Model{Key: key, Kind: ir.ModelObject, Candidates: candidates, Fields: fields}
}

func TestModelCandidateOrder(t *testing.T) {
	f := ir.NewForest([]*ir.Model{
		object("a.json#/$defs/user_record", []string{"User", "user_record"}),
	})
	if err := naming.Assign(f, naming.Options{ModelCase: casing.Pascal}, &diag.Diag{}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	m, _ := f.Lookup("a.json#/$defs/user_record")
	if m.Name != "User" {
		t.Fatalf("name: %q", m.Name)
	}
}

func TestModelCollisionSuffixes(t *testing.T) {
	f := ir.NewForest([]*ir.Model{
		object("a.json#/$defs/User", []string{"User"}),
		object("b.json#/$defs/User", []string{"User"},
			ir.Field{WireName: "id", Type: strScalar()}),
	})
	if err := naming.Assign(f, naming.Options{}, &diag.Diag{}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	a, _ := f.Lookup("a.json#/$defs/User")
	b, _ := f.Lookup("b.json#/$defs/User")
	if a.Name != "User" || b.Name != "User1" {
		t.Fatalf("names: %q %q", a.Name, b.Name)
	}
}

func TestModelCollisionErrorStrategy(t *testing.T) {
	f := ir.NewForest([]*ir.Model{
		object("a.json#/$defs/User", []string{"User"}),
		object("b.json#/$defs/User", []string{"User"},
			ir.Field{WireName: "id", Type: strScalar()}),
	})
	err := naming.Assign(f, naming.Options{Collision: naming.Error}, &diag.Diag{})
	var collision *diag.NamingCollisionError
	if !errors.As(err, &collision) {
		t.Fatalf("want NamingCollisionError, got %v", err)
	}
	if collision.Name != "User" {
		t.Fatalf("collision name: %q", collision.Name)
	}
}

func TestFieldCaseTransformRecordsAlias(t *testing.T) {
	f := ir.NewForest([]*ir.Model{
		object("a.json#/$defs/Doc", []string{"Doc"},
			ir.Field{WireName: "fooBar", Type: strScalar()},
			ir.Field{WireName: "class", Type: strScalar()},
			ir.Field{WireName: "$id", Type: strScalar()},
		),
	})
	opts := naming.Options{FieldCase: casing.Snake, UseAliases: true}
	if err := naming.Assign(f, opts, &diag.Diag{}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	m, _ := f.Lookup("a.json#/$defs/Doc")
	if m.Fields[0].Name != "foo_bar" || m.Fields[0].Alias != "fooBar" {
		t.Errorf("fooBar: %q alias %q", m.Fields[0].Name, m.Fields[0].Alias)
	}
	if m.Fields[1].Name != "field_class" {
		t.Errorf("reserved word: %q", m.Fields[1].Name)
	}
	if m.Fields[2].Name != "field_id" || m.Fields[2].Alias != "$id" {
		t.Errorf("special lead: %q alias %q", m.Fields[2].Name, m.Fields[2].Alias)
	}
}

func TestSpecialPrefixStrip(t *testing.T) {
	f := ir.NewForest([]*ir.Model{
		object("a.json#/$defs/Doc", []string{"Doc"},
			ir.Field{WireName: "$id", Type: strScalar()},
		),
	})
	d := &diag.Diag{}
	opts := naming.Options{FieldCase: casing.Snake, UseAliases: true, StripPrefix: true}
	if err := naming.Assign(f, opts, d); err != nil {
		t.Fatalf("assign: %v", err)
	}
	m, _ := f.Lookup("a.json#/$defs/Doc")
	if m.Fields[0].Name != "id" {
		t.Fatalf("stripped name: %q", m.Fields[0].Name)
	}
	if !d.HasWarnings() {
		t.Fatalf("stripping should warn")
	}
}

func TestIntraModelFieldCollision(t *testing.T) {
	f := ir.NewForest([]*ir.Model{
		object("a.json#/$defs/Doc", []string{"Doc"},
			ir.Field{WireName: "foo_bar", Type: strScalar()},
			ir.Field{WireName: "fooBar", Type: strScalar()},
		),
	})
	opts := naming.Options{FieldCase: casing.Snake, UseAliases: true}
	if err := naming.Assign(f, opts, &diag.Diag{}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	m, _ := f.Lookup("a.json#/$defs/Doc")
	if m.Fields[0].Name != "foo_bar" {
		t.Errorf("first field: %q", m.Fields[0].Name)
	}
	if m.Fields[1].Name != "foo_bar_1" || m.Fields[1].Alias != "fooBar" {
		t.Errorf("second field: %q alias %q", m.Fields[1].Name, m.Fields[1].Alias)
	}
}

func TestStructuralReuseSubstitutes(t *testing.T) {
	f := ir.NewForest([]*ir.Model{
		object("a.json#/$defs/Point", []string{"Point"},
			ir.Field{WireName: "x", Type: strScalar(), Required: true}),
		object("a.json#/$defs/Coord", []string{"Coord"},
			ir.Field{WireName: "x", Type: strScalar(), Required: true}),
	})
	d := &diag.Diag{}
	opts := naming.Options{Reuse: naming.ReuseTree}
	if err := naming.Assign(f, opts, d); err != nil {
		t.Fatalf("assign: %v", err)
	}
	dup, ok := f.Lookup("a.json#/$defs/Coord")
	if !ok || dup.Key != "a.json#/$defs/Point" {
		t.Fatalf("duplicate should resolve to the survivor, got %+v", dup)
	}
	if len(f.Live()) != 1 {
		t.Fatalf("live models: %d", len(f.Live()))
	}
	if !d.HasWarnings() {
		t.Fatalf("collapse should warn")
	}
}

func TestStructuralReuseAliasClass(t *testing.T) {
	f := ir.NewForest([]*ir.Model{
		object("a.json#/$defs/Point", []string{"Point"},
			ir.Field{WireName: "x", Type: strScalar(), Required: true}),
		object("a.json#/$defs/Coord", []string{"Coord"},
			ir.Field{WireName: "x", Type: strScalar(), Required: true}),
	})
	opts := naming.Options{Reuse: naming.ReuseTree, ReuseStyle: naming.AliasClass}
	if err := naming.Assign(f, opts, &diag.Diag{}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	dup, _ := f.Lookup("a.json#/$defs/Coord")
	if dup.AliasOf != "a.json#/$defs/Point" {
		t.Fatalf("alias target: %q", dup.AliasOf)
	}
	if len(f.Live()) != 2 {
		t.Fatalf("alias subclasses stay live, got %d", len(f.Live()))
	}
	if dup.Name != "Coord" {
		t.Fatalf("alias keeps its name, got %q", dup.Name)
	}
}

func TestStructuralReuseCascades(t *testing.T) {
	leafA := object("a.json#/$defs/LeafA", []string{"LeafA"},
		ir.Field{WireName: "v", Type: strScalar(), Required: true})
	leafB := object("a.json#/$defs/LeafB", []string{"LeafB"},
		ir.Field{WireName: "v", Type: strScalar(), Required: true})
	parentA := object("a.json#/$defs/ParentA", []string{"ParentA"},
		ir.Field{WireName: "leaf", Type: &ir.ModelRef{Key: leafA.Key}, Required: true})
	parentB := object("a.json#/$defs/ParentB", []string{"ParentB"},
		ir.Field{WireName: "leaf", Type: &ir.ModelRef{Key: leafB.Key}, Required: true})
	f := ir.NewForest([]*ir.Model{leafA, leafB, parentA, parentB})

	opts := naming.Options{Reuse: naming.ReuseTree}
	if err := naming.Assign(f, opts, &diag.Diag{}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if len(f.Live()) != 2 {
		t.Fatalf("leaves and parents should both collapse, live: %d", len(f.Live()))
	}
	pb, _ := f.Lookup(parentB.Key)
	if pb.Key != parentA.Key {
		t.Fatalf("parent collapse missing: %s", pb.Key)
	}
}

func TestReuseUnitScopeKeepsCrossDocumentTwins(t *testing.T) {
	f := ir.NewForest([]*ir.Model{
		object("a.json#/$defs/Point", []string{"Point"},
			ir.Field{WireName: "x", Type: strScalar(), Required: true}),
		object("b.json#/$defs/Point", []string{"Coord"},
			ir.Field{WireName: "x", Type: strScalar(), Required: true}),
	})
	opts := naming.Options{Reuse: naming.ReuseUnit}
	if err := naming.Assign(f, opts, &diag.Diag{}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if len(f.Live()) != 2 {
		t.Fatalf("unit scope must not collapse across documents, live: %d", len(f.Live()))
	}
}

func TestFieldShadowingRenameField(t *testing.T) {
	tag := object("a.json#/$defs/Tag", []string{"Tag"},
		ir.Field{WireName: "label", Type: strScalar()})
	doc := object("a.json#/$defs/Doc", []string{"Doc"},
		ir.Field{WireName: "Tag", Type: &ir.ModelRef{Key: tag.Key}})
	f := ir.NewForest([]*ir.Model{tag, doc})

	opts := naming.Options{UseAliases: true}
	if err := naming.Assign(f, opts, &diag.Diag{}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	m, _ := f.Lookup(doc.Key)
	if m.Fields[0].Name != "Tag_1" || m.Fields[0].Alias != "Tag" {
		t.Fatalf("field: %q alias %q", m.Fields[0].Name, m.Fields[0].Alias)
	}
}

func TestFieldShadowingRenameType(t *testing.T) {
	tag := object("a.json#/$defs/Tag", []string{"Tag"},
		ir.Field{WireName: "label", Type: strScalar()})
	doc := object("a.json#/$defs/Doc", []string{"Doc"},
		ir.Field{WireName: "Tag", Type: &ir.ModelRef{Key: tag.Key}})
	f := ir.NewForest([]*ir.Model{tag, doc})

	opts := naming.Options{Collision: naming.RenameType}
	if err := naming.Assign(f, opts, &diag.Diag{}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	tm, _ := f.Lookup(tag.Key)
	dm, _ := f.Lookup(doc.Key)
	if tm.Name != "Tag1" {
		t.Fatalf("type: %q", tm.Name)
	}
	if dm.Fields[0].Name != "Tag" {
		t.Fatalf("field: %q", dm.Fields[0].Name)
	}
}
