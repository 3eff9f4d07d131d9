package num_test

import (
	"math/big"
	"testing"

	"github.com/typeforge/typeforge/internal/num"
)

func TestNormalizeLegacyBooleanModifier(t *testing.T) {
	b, err := num.Normalize(float64(0), float64(100), true, nil)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if b.Lower == nil || b.Lower.Inclusive {
		t.Fatalf("lower should be exclusive: %+v", b.Lower)
	}
	if b.Upper == nil || !b.Upper.Inclusive {
		t.Fatalf("upper should be inclusive: %+v", b.Upper)
	}
}

func TestNormalizeStandaloneExclusive(t *testing.T) {
	b, err := num.Normalize(nil, nil, float64(0), float64(10))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if b.Lower == nil || b.Lower.Inclusive || b.Lower.String() != "0" {
		t.Fatalf("lower: %+v", b.Lower)
	}
	if b.Upper == nil || b.Upper.Inclusive || b.Upper.String() != "10" {
		t.Fatalf("upper: %+v", b.Upper)
	}
}

func TestBoundsAcceptEdgeValues(t *testing.T) {
	// minimum:0, maximum:100 rejects -1 and 101, accepts 0 and 100.
	b, err := num.Normalize(float64(0), float64(100), nil, nil)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	cases := []struct {
		v    int64
		want bool
	}{{-1, false}, {0, true}, {100, true}, {101, false}, {50, true}}
	for _, c := range cases {
		x := new(big.Rat).SetInt64(c.v)
		ok := b.Lower.Accepts(x, true) && b.Upper.Accepts(x, false)
		if ok != c.want {
			t.Fatalf("value %d: got %v want %v", c.v, ok, c.want)
		}
	}
}

func TestMultipleOfExactRendering(t *testing.T) {
	m, err := num.NewMultipleOf("0.1", true)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got := m.String(); got != "0.1" {
		t.Fatalf("exact render: got %q", got)
	}
	third, err := num.NewMultipleOf("1/3", true)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got := third.String(); got != "1/3" {
		t.Fatalf("fraction render: got %q", got)
	}
}

func TestTighterBoundWinsOnDoubleSpelling(t *testing.T) {
	// minimum:1 plus exclusiveMinimum:5 keeps the exclusive 5.
	b, err := num.Normalize(float64(1), nil, float64(5), nil)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if b.Lower.Inclusive || b.Lower.String() != "5" {
		t.Fatalf("lower: %+v", b.Lower)
	}
}
