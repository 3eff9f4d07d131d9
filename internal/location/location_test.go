package location_test

import (
	"testing"

	"github.com/typeforge/typeforge/internal/location"
)

func TestPushEscapesTokens(t *testing.T) {
	l := location.Root("a.json").Push("properties").Push("foo/bar").Push("ti~lde")
	want := "a.json#/properties/foo~1bar/ti~0lde"
	if got := l.String(); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestSplitPointerRoundTrip(t *testing.T) {
	toks, err := location.SplitPointer("/properties/foo~1bar/0")
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	want := []string{"properties", "foo/bar", "0"}
	if len(toks) != len(want) {
		t.Fatalf("got %v want %v", toks, want)
	}
	for i := range want {
		if toks[i] != want[i] {
			t.Fatalf("token %d: got %q want %q", i, toks[i], want[i])
		}
	}
}

func TestSplitPointerRejectsRelative(t *testing.T) {
	if _, err := location.SplitPointer("properties/foo"); err == nil {
		t.Fatalf("expected error for relative pointer")
	}
}

func TestParseRef(t *testing.T) {
	from := location.Root("dir/a.json")
	cases := []struct {
		ref      string
		wantDoc  string
		wantPtr  string
		isAnchor bool
	}{
		{"#/defs/User", "dir/a.json", "/defs/User", false},
		{"b.json#/defs/User", "dir/b.json", "/defs/User", false},
		{"b.json", "dir/b.json", "", false},
		{"https://example.com/s.json#/a", "https://example.com/s.json", "/a", false},
		{"#userAnchor", "dir/a.json", "#userAnchor", true},
	}
	for _, c := range cases {
		got, err := location.ParseRef(c.ref, from)
		if err != nil {
			t.Fatalf("%q: %v", c.ref, err)
		}
		if got.Document != c.wantDoc || got.Pointer != c.wantPtr {
			t.Fatalf("%q: got %q#%q", c.ref, got.Document, got.Pointer)
		}
		if got.IsAnchor() != c.isAnchor {
			t.Fatalf("%q: anchor mismatch", c.ref)
		}
	}
}

func TestBase(t *testing.T) {
	if got := location.Root("dir/user.schema.json").Base(); got != "user" {
		t.Fatalf("root base: got %q", got)
	}
	l := location.Root("a.json").Push("$defs").Push("OrderItem")
	if got := l.Base(); got != "OrderItem" {
		t.Fatalf("pointer base: got %q", got)
	}
}
