package casing_test

import (
	"testing"

	"github.com/typeforge/typeforge/internal/casing"
)

func TestTransform(t *testing.T) {
	cases := []struct {
		in   string
		mode casing.Mode
		want string
	}{
		{"user_name", casing.Pascal, "UserName"},
		{"user-name", casing.Pascal, "UserName"},
		{"userName", casing.Snake, "user_name"},
		{"HTTPServer", casing.Snake, "http_server"},
		{"UserID", casing.Snake, "user_id"},
		{"order.item", casing.Pascal, "OrderItem"},
		{"UserName", casing.Camel, "userName"},
		{"already_snake", casing.Keep, "already_snake"},
	}
	for _, c := range cases {
		if got := casing.Transform(c.in, c.mode); got != c.want {
			t.Fatalf("Transform(%q, %v): got %q want %q", c.in, c.mode, got, c.want)
		}
	}
}

func TestSanitize(t *testing.T) {
	cases := map[string]string{
		"foo bar":   "foo_bar",
		"a+b":       "a_b",
		"x--y":      "x_y",
		"weird!":    "weird",
		"1st place": "1st_place",
	}
	for in, want := range cases {
		if got := casing.Sanitize(in); got != want {
			t.Fatalf("Sanitize(%q): got %q want %q", in, got, want)
		}
	}
}

func TestIdentifierChecks(t *testing.T) {
	if casing.IsIdentifier("1abc") || !casing.IsIdentifier("_abc1") {
		t.Fatalf("IsIdentifier misjudged")
	}
	if casing.LeadsIdentifier("1abc") || !casing.LeadsIdentifier("abc") {
		t.Fatalf("LeadsIdentifier misjudged")
	}
	if !casing.IsReserved("class") || casing.IsReserved("klass") {
		t.Fatalf("IsReserved misjudged")
	}
}
