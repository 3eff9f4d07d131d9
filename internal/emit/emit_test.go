package emit_test

import (
	"strings"
	"testing"
	"time"

	"github.com/typeforge/typeforge/internal/diag"
	"github.com/typeforge/typeforge/internal/emit"
	"github.com/typeforge/typeforge/internal/ir"
	"github.com/typeforge/typeforge/internal/num"
	"github.com/typeforge/typeforge/internal/planner"
)

func strScalar() ir.Type { return &ir.Scalar{Prim: ir.PrimString} }
func intScalar() ir.Type { return &ir.Scalar{Prim: ir.PrimInt} }

func planOf(t *testing.T, models []*ir.Model, layout planner.Layout) *planner.Graph {
	t.Helper()
	f := ir.NewForest(models)
	g, err := planner.Plan(f, planner.Options{Layout: layout}, &diag.Diag{})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	return g
}

func emitOne(t *testing.T, g *planner.Graph, opts emit.Options, d *diag.Diag) string {
	t.Helper()
	if d == nil {
		d = &diag.Diag{}
	}
	files, err := emit.Emit(g, opts, d)
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(files) == 0 {
		t.Fatalf("no files emitted")
	}
	return string(files[0].Content)
}

func wants(t *testing.T, text string, snippets ...string) {
	t.Helper()
	for _, s := range snippets {
		if !strings.Contains(text, s) {
			t.Errorf("output missing %q:\n%s", s, text)
		}
	}
}

func TestPydanticBasicModel(t *testing.T) {
	user := &ir.Model{Key: "a.json#/$defs/User", Kind: ir.ModelObject, Name: "User",
		Doc: "A registered user.",
		Fields: []ir.Field{
			{Name: "full_name", WireName: "fullName", Alias: "fullName",
				Type: strScalar(), Required: true},
			{Name: "age", WireName: "age", Type: intScalar()},
		}}
	g := planOf(t, []*ir.Model{user}, planner.Single)

	text := emitOne(t, g, emit.Options{Dialect: emit.Pydantic}, nil)
	wants(t, text,
		"from pydantic import BaseModel, ConfigDict, Field",
		"class User(BaseModel):",
		`"""A registered user."""`,
		"model_config = ConfigDict(populate_by_name=True)",
		"full_name: str = Field(..., alias='fullName')",
		"age: Optional[int] = None",
	)
}

func TestPydanticRebuildFinalize(t *testing.T) {
	node := &ir.Model{Key: "a.json#/$defs/Node", Kind: ir.ModelObject, Name: "Node",
		Fields: []ir.Field{
			{Name: "children", WireName: "children", Required: true,
				Type: &ir.Array{Item: &ir.ModelRef{Key: "a.json#/$defs/Node", Forward: true}}},
		}}
	g := planOf(t, []*ir.Model{node}, planner.Single)

	text := emitOne(t, g, emit.Options{Dialect: emit.Pydantic}, nil)
	wants(t, text,
		`children: List["Node"]`,
		"Node.model_rebuild()",
	)
}

func TestPydanticInlineConstraints(t *testing.T) {
	lower, _ := num.NewBound(0, true)
	upper, _ := num.NewBound(100, true)
	minLen := 1
	com := &ir.Model{Key: "a.json#/$defs/Comment", Kind: ir.ModelObject, Name: "Comment",
		Fields: []ir.Field{
			{Name: "score", WireName: "score", Required: true,
				Type: &ir.Scalar{Prim: ir.PrimInt,
					Constraints: ir.Constraints{Bounds: num.Bounds{Lower: &lower, Upper: &upper}}}},
			{Name: "body", WireName: "body", Required: true,
				Type: &ir.Scalar{Prim: ir.PrimString,
					Constraints: ir.Constraints{MinLength: &minLen}}},
		}}
	g := planOf(t, []*ir.Model{com}, planner.Single)

	text := emitOne(t, g, emit.Options{Dialect: emit.Pydantic, FieldConstraints: true}, nil)
	wants(t, text,
		"score: int = Field(..., ge=0, le=100)",
		"body: str = Field(..., min_length=1)",
	)
}

func TestDataclassOrdersDefaultsLast(t *testing.T) {
	m := &ir.Model{Key: "a.json#/$defs/Cfg", Kind: ir.ModelObject, Name: "Cfg",
		Fields: []ir.Field{
			{Name: "retries", WireName: "retries", Type: intScalar(),
				HasDefault: true, Default: 3},
			{Name: "host", WireName: "host", Type: strScalar(), Required: true},
		}}
	g := planOf(t, []*ir.Model{m}, planner.Single)

	text := emitOne(t, g, emit.Options{Dialect: emit.Dataclasses, Immutable: true}, nil)
	wants(t, text,
		"@dataclass(frozen=True)",
		"class Cfg:",
		"host: str",
		"retries: int = 3",
	)
	if strings.Index(text, "host: str") > strings.Index(text, "retries: int = 3") {
		t.Errorf("defaulted field must follow required fields:\n%s", text)
	}
}

func TestTypedDictUsesWireNames(t *testing.T) {
	m := &ir.Model{Key: "a.json#/$defs/Doc", Kind: ir.ModelObject, Name: "Doc",
		Fields: []ir.Field{
			{Name: "full_name", WireName: "fullName", Type: strScalar(), Required: true},
			{Name: "age", WireName: "age", Type: intScalar()},
		}}
	g := planOf(t, []*ir.Model{m}, planner.Single)

	text := emitOne(t, g, emit.Options{Dialect: emit.TypedDict}, nil)
	wants(t, text,
		"class Doc(TypedDict):",
		"fullName: str",
		"age: NotRequired[int]",
	)
}

func TestTypedDictFunctionalForm(t *testing.T) {
	m := &ir.Model{Key: "a.json#/$defs/Doc", Kind: ir.ModelObject, Name: "Doc",
		Fields: []ir.Field{
			{Name: "field_id", WireName: "$id", Type: strScalar(), Required: true},
		}}
	g := planOf(t, []*ir.Model{m}, planner.Single)

	text := emitOne(t, g, emit.Options{Dialect: emit.TypedDict}, nil)
	wants(t, text, "Doc = TypedDict('Doc', {", "'$id': str,")
}

func TestTypedDictDowngradesImmutability(t *testing.T) {
	m := &ir.Model{Key: "a.json#/$defs/Doc", Kind: ir.ModelObject, Name: "Doc",
		Fields: []ir.Field{
			{Name: "x", WireName: "x", Type: strScalar(), Required: true},
		}}
	g := planOf(t, []*ir.Model{m}, planner.Single)

	d := &diag.Diag{}
	emitOne(t, g, emit.Options{Dialect: emit.TypedDict, Immutable: true}, d)
	found := false
	for _, w := range d.Warnings() {
		if w.Code == diag.WarnDialectDowngrade {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a dialect downgrade warning, got %v", d.Warnings())
	}
}

func TestMsgspecSentinelAndMeta(t *testing.T) {
	minLen := 1
	m := &ir.Model{Key: "a.json#/$defs/Event", Kind: ir.ModelObject, Name: "Event",
		Fields: []ir.Field{
			{Name: "kind", WireName: "kind", Required: true,
				Type: &ir.Literal{Value: "created"}},
			{Name: "name", WireName: "name", Required: true,
				Type: &ir.Scalar{Prim: ir.PrimString,
					Constraints: ir.Constraints{MinLength: &minLen}}},
			{Name: "note", WireName: "note", Type: strScalar()},
		}}
	g := planOf(t, []*ir.Model{m}, planner.Single)

	text := emitOne(t, g, emit.Options{Dialect: emit.Msgspec, FieldConstraints: true}, nil)
	wants(t, text,
		"import msgspec",
		"class Event(msgspec.Struct, tag_field='kind', tag='created'):",
		"name: Annotated[str, msgspec.Meta(min_length=1)]",
		"note: Union[str, msgspec.UnsetType] = msgspec.UNSET",
	)
}

func TestLiteralEnumRendering(t *testing.T) {
	m := &ir.Model{Key: "a.json#/$defs/Color", Kind: ir.ModelEnum, Name: "Color",
		EnumBase: ir.PrimString, LiteralEligible: true,
		Members: []ir.EnumMember{
			{Name: "red", Value: "red"},
			{Name: "blue", Value: "blue"},
		}}
	g := planOf(t, []*ir.Model{m}, planner.Single)

	text := emitOne(t, g, emit.Options{Dialect: emit.Pydantic, LiteralEnums: true}, nil)
	wants(t, text, "Color = Literal['red', 'blue']")

	text = emitOne(t, g, emit.Options{Dialect: emit.Pydantic}, nil)
	wants(t, text,
		"class Color(str, Enum):",
		"red = 'red'",
	)
}

func TestLaterBaseWinsAttributeLookup(t *testing.T) {
	first := &ir.Model{Key: "a.json#/$defs/First", Kind: ir.ModelObject, Name: "First",
		Fields: []ir.Field{{Name: "x", WireName: "x", Type: strScalar(), Required: true}}}
	second := &ir.Model{Key: "a.json#/$defs/Second", Kind: ir.ModelObject, Name: "Second",
		Fields: []ir.Field{{Name: "y", WireName: "y", Type: strScalar(), Required: true}}}
	child := &ir.Model{Key: "a.json#/$defs/Child", Kind: ir.ModelObject, Name: "Child",
		Bases: []*ir.ModelRef{{Key: first.Key}, {Key: second.Key}}}
	g := planOf(t, []*ir.Model{first, second, child}, planner.Single)

	text := emitOne(t, g, emit.Options{Dialect: emit.Pydantic}, nil)
	wants(t, text, "class Child(Second, First):")
}

func TestMixedEnumDerivesPlainEnum(t *testing.T) {
	m := &ir.Model{Key: "a.json#/$defs/Level", Kind: ir.ModelEnum, Name: "Level",
		EnumPlain: true,
		Members: []ir.EnumMember{
			{Name: "low", Value: "low"},
			{Name: "value_2", Value: 2},
		}}
	g := planOf(t, []*ir.Model{m}, planner.Single)

	text := emitOne(t, g, emit.Options{Dialect: emit.Pydantic}, nil)
	wants(t, text,
		"class Level(Enum):",
		"low = 'low'",
	)
	if strings.Contains(text, "class Level(str, Enum):") {
		t.Errorf("mixed enum rendered with str base:\n%s", text)
	}
	if strings.Contains(text, "None") {
		t.Errorf("unexpected None member:\n%s", text)
	}
}

func TestHeaderToggles(t *testing.T) {
	m := &ir.Model{Key: "a.json#/$defs/Doc", Kind: ir.ModelObject, Name: "Doc",
		Fields: []ir.Field{
			{Name: "x", WireName: "x", Type: strScalar(), Required: true},
		}}
	g := planOf(t, []*ir.Model{m}, planner.Single)

	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	opts := emit.Options{
		Dialect: emit.Pydantic,
		Header:  emit.Header{Timestamp: true, Version: true},
		Version: "1.2.3",
		Now:     func() time.Time { return fixed },
	}
	text := emitOne(t, g, opts, nil)
	wants(t, text,
		"#   source: a.json",
		"#   timestamp: 2024-05-01T12:00:00Z",
		"#   version: 1.2.3",
	)
	if strings.Contains(text, "invocation") {
		t.Errorf("invocation line should be off:\n%s", text)
	}
}

func TestCrossUnitImports(t *testing.T) {
	inner := &ir.Model{Key: "a.json#/$defs/Inner", Kind: ir.ModelObject, Name: "Inner",
		Fields: []ir.Field{
			{Name: "v", WireName: "v", Type: strScalar(), Required: true},
		}}
	outer := &ir.Model{Key: "a.json#/$defs/Outer", Kind: ir.ModelObject, Name: "Outer",
		Fields: []ir.Field{
			{Name: "inner", WireName: "inner", Required: true,
				Type: &ir.ModelRef{Key: inner.Key}},
		}}
	g := planOf(t, []*ir.Model{inner, outer}, planner.PerEntity)

	files, err := emit.Emit(g, emit.Options{Dialect: emit.Pydantic}, &diag.Diag{})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	var outerText string
	for _, f := range files {
		if f.Path == "models/outer.py" {
			outerText = string(f.Content)
		}
	}
	wants(t, outerText,
		"from models.inner import Inner",
		"inner: Inner",
	)
}

func TestEmitIsDeterministic(t *testing.T) {
	m := &ir.Model{Key: "a.json#/$defs/Doc", Kind: ir.ModelObject, Name: "Doc",
		Fields: []ir.Field{
			{Name: "a", WireName: "a", Type: strScalar(), Required: true},
			{Name: "b", WireName: "b", Type: intScalar()},
		}}
	opts := emit.Options{Dialect: emit.Pydantic}

	first := emitOne(t, planOf(t, []*ir.Model{m}, planner.Single), opts, nil)
	second := emitOne(t, planOf(t, []*ir.Model{m}, planner.Single), opts, nil)
	if first != second {
		t.Fatalf("two runs differ:\n%s\n---\n%s", first, second)
	}
}
