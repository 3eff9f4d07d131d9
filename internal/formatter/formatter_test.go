package formatter_test

import (
	"testing"

	"github.com/typeforge/typeforge/internal/formatter"
)

func TestNormalizeTrimsAndTerminates(t *testing.T) {
	f := formatter.Normalize(formatter.Options{MaxBlankRun: 1})
	got := f.Format("class A:   \n    pass\n\n\n\nclass B:\n    pass")
	want := "class A:\n    pass\n\nclass B:\n    pass\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	f := formatter.Normalize(formatter.Options{MaxBlankRun: 2})
	once := f.Format("x = 1\n\n\n\n\ny = 2\n")
	if twice := f.Format(once); twice != once {
		t.Fatalf("second pass changed output: %q vs %q", twice, once)
	}
}

func TestIndentRewritesUnits(t *testing.T) {
	f := formatter.Indent(formatter.Options{Indent: "\t"})
	got := f.Format("class A:\n    def f(self):\n        pass\n")
	want := "class A:\n\tdef f(self):\n\t\tpass\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestChainAppliesInOrder(t *testing.T) {
	f := formatter.Chain(
		formatter.Normalize(formatter.Options{}),
		formatter.Indent(formatter.Options{Indent: "  "}),
	)
	got := f.Format("class A:\n    pass   ")
	want := "class A:\n  pass\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
