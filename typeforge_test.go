package typeforge_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typeforge/typeforge"
)

func writeSchema(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write schema: %v", err)
	}
	return path
}

const userSchema = `{
	"title": "User",
	"type": "object",
	"properties": {
		"name": {"type": "string"},
		"age": {"type": "integer"}
	},
	"required": ["name"]
}`

func TestRunEndToEnd(t *testing.T) {
	path := writeSchema(t, t.TempDir(), "user.json", userSchema)

	res, err := typeforge.Run(context.Background(), []typeforge.Input{{Ref: path}}, typeforge.DefaultConfig())
	require.NoError(t, err)
	require.Len(t, res.Units, 1)

	u := res.Units[0]
	assert.Equal(t, "models.py", u.Path)
	assert.Contains(t, u.Text, "class User(BaseModel):")
	assert.Contains(t, u.Text, "name: str")
	assert.Contains(t, u.Text, "age: Optional[int] = None")
	assert.Contains(t, u.Text, "# generated by typeforge:")
}

func TestRunDialects(t *testing.T) {
	path := writeSchema(t, t.TempDir(), "user.json", userSchema)

	cases := []struct {
		dialect typeforge.Dialect
		want    string
	}{
		{typeforge.DialectPydantic, "class User(BaseModel):"},
		{typeforge.DialectDataclasses, "@dataclass"},
		{typeforge.DialectTypedDict, "class User(TypedDict):"},
		{typeforge.DialectMsgspec, "class User(msgspec.Struct"},
	}
	for _, tc := range cases {
		t.Run(string(tc.dialect), func(t *testing.T) {
			cfg := typeforge.DefaultConfig()
			cfg.Dialect = tc.dialect
			res, err := typeforge.Run(context.Background(), []typeforge.Input{{Ref: path}}, cfg)
			require.NoError(t, err)
			require.Len(t, res.Units, 1)
			assert.Contains(t, res.Units[0].Text, tc.want)
		})
	}
}

func TestRunIsDeterministic(t *testing.T) {
	path := writeSchema(t, t.TempDir(), "user.json", userSchema)
	cfg := typeforge.DefaultConfig()

	first, err := typeforge.Run(context.Background(), []typeforge.Input{{Ref: path}}, cfg)
	require.NoError(t, err)
	second, err := typeforge.Run(context.Background(), []typeforge.Input{{Ref: path}}, cfg)
	require.NoError(t, err)
	assert.Equal(t, first.Units, second.Units)
}

func TestRunDirectoryIngestsEveryDocument(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "a.json", `{"title": "Alpha", "type": "object", "properties": {"x": {"type": "string"}}}`)
	writeSchema(t, dir, "b.json", `{"title": "Beta", "type": "object", "properties": {"y": {"type": "string"}}}`)

	res, err := typeforge.Run(context.Background(), []typeforge.Input{{Ref: dir}}, typeforge.DefaultConfig())
	require.NoError(t, err)
	require.Len(t, res.Units, 1)
	assert.Contains(t, res.Units[0].Text, "class Alpha(")
	assert.Contains(t, res.Units[0].Text, "class Beta(")
}

func TestRunMissingInputFailsIngesting(t *testing.T) {
	_, err := typeforge.Run(context.Background(),
		[]typeforge.Input{{Ref: filepath.Join(t.TempDir(), "absent.json")}}, typeforge.DefaultConfig())
	require.Error(t, err)

	var se *typeforge.StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, typeforge.StageIngesting, se.Stage)
}

func TestRunBrokenReferenceFailsResolving(t *testing.T) {
	path := writeSchema(t, t.TempDir(), "s.json", `{
		"title": "Holder",
		"type": "object",
		"properties": {"child": {"$ref": "#/$defs/Missing"}}
	}`)

	_, err := typeforge.Run(context.Background(), []typeforge.Input{{Ref: path}}, typeforge.DefaultConfig())
	require.Error(t, err)

	var se *typeforge.StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, typeforge.StageResolving, se.Stage)

	var broken *typeforge.BrokenReferenceError
	assert.True(t, errors.As(err, &broken))
}

func TestCheckReportsDrift(t *testing.T) {
	path := writeSchema(t, t.TempDir(), "user.json", userSchema)
	cfg := typeforge.DefaultConfig()
	out := t.TempDir()
	ctx := context.Background()

	res, err := typeforge.Run(ctx, []typeforge.Input{{Ref: path}}, cfg)
	require.NoError(t, err)
	for _, u := range res.Units {
		dst := filepath.Join(out, filepath.FromSlash(u.Path))
		require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0o755))
		require.NoError(t, os.WriteFile(dst, []byte(u.Text), 0o644))
	}

	differing, err := typeforge.Check(ctx, []typeforge.Input{{Ref: path}}, cfg, out, nil)
	require.NoError(t, err)
	assert.Empty(t, differing)

	stale := strings.Replace(res.Units[0].Text, "name: str", "name: int", 1)
	require.NoError(t, os.WriteFile(filepath.Join(out, "models.py"), []byte(stale), 0o644))

	differing, err = typeforge.Check(ctx, []typeforge.Input{{Ref: path}}, cfg, out, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"models.py"}, differing)
}

func TestPerEntityLayoutSplitsUnits(t *testing.T) {
	path := writeSchema(t, t.TempDir(), "s.json", `{
		"title": "Order",
		"type": "object",
		"properties": {"item": {"$ref": "#/$defs/Item"}},
		"$defs": {
			"Item": {"type": "object", "properties": {"sku": {"type": "string"}}}
		}
	}`)
	cfg := typeforge.DefaultConfig()
	cfg.Layout = typeforge.LayoutPerEntity

	res, err := typeforge.Run(context.Background(), []typeforge.Input{{Ref: path}}, cfg)
	require.NoError(t, err)

	paths := make([]string, 0, len(res.Units))
	for _, u := range res.Units {
		paths = append(paths, u.Path)
	}
	assert.Contains(t, paths, "models/order.py")
	assert.Contains(t, paths, "models/item.py")
}

func TestRunResolvesCrossDocumentRefs(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "common.json", `{
		"$defs": {
			"Address": {
				"type": "object",
				"properties": {"city": {"type": "string"}},
				"required": ["city"]
			}
		}
	}`)
	path := writeSchema(t, dir, "main.json", `{
		"title": "Customer",
		"type": "object",
		"properties": {"addr": {"$ref": "common.json#/$defs/Address"}},
		"required": ["addr"]
	}`)

	// Only main.json is an input; common.json must load on demand.
	res, err := typeforge.Run(context.Background(), []typeforge.Input{{Ref: path}}, typeforge.DefaultConfig())
	require.NoError(t, err)
	require.Len(t, res.Units, 1)
	assert.Contains(t, res.Units[0].Text, "class Customer(BaseModel):")
	assert.Contains(t, res.Units[0].Text, "class Address(BaseModel):")
	assert.Contains(t, res.Units[0].Text, "addr: Address")
}
