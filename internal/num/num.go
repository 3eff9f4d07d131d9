// Package num normalizes numeric schema constraints. Both the legacy
// boolean-modifier exclusive-bound form and the standalone-keyword form
// collapse into one {value, inclusive} pair, and multiple-of constraints
// can be carried as exact fractions to avoid float precision loss.
package num

import (
	"fmt"
	"math/big"
	"strconv"
)

// Bound is one normalized numeric bound.
type Bound struct {
	Value     *big.Rat
	Inclusive bool
}

// NewBound builds a bound from any JSON-decoded numeric value.
func NewBound(v any, inclusive bool) (Bound, error) {
	r, err := ratOf(v)
	if err != nil {
		return Bound{}, err
	}
	return Bound{Value: r, Inclusive: inclusive}, nil
}

// Accepts reports whether x satisfies the bound as a lower (lower=true) or
// upper bound.
func (b Bound) Accepts(x *big.Rat, lower bool) bool {
	c := x.Cmp(b.Value)
	if c == 0 {
		return b.Inclusive
	}
	if lower {
		return c > 0
	}
	return c < 0
}

// String renders the bound value in canonical decimal-or-fraction form.
func (b Bound) String() string { return RenderRat(b.Value) }

// IsInt reports whether the bound value is integral.
func (b Bound) IsInt() bool { return b.Value.IsInt() }

// Bounds is the normalized {lower, upper} pair for one scalar.
type Bounds struct {
	Lower *Bound
	Upper *Bound
}

// Normalize collapses the four exclusive/inclusive keyword spellings into a
// Bounds pair. exclusiveMinimum/exclusiveMaximum may be booleans (legacy
// modifier applying to minimum/maximum) or standalone numbers.
func Normalize(minimum, maximum, exclMin, exclMax any) (Bounds, error) {
	var out Bounds

	minExclusive := false
	if b, ok := exclMin.(bool); ok {
		minExclusive = b
		exclMin = nil
	}
	maxExclusive := false
	if b, ok := exclMax.(bool); ok {
		maxExclusive = b
		exclMax = nil
	}

	if minimum != nil {
		b, err := NewBound(minimum, !minExclusive)
		if err != nil {
			return out, fmt.Errorf("minimum: %w", err)
		}
		out.Lower = &b
	}
	if exclMin != nil {
		b, err := NewBound(exclMin, false)
		if err != nil {
			return out, fmt.Errorf("exclusiveMinimum: %w", err)
		}
		// The tighter lower bound wins when both spellings appear.
		if out.Lower == nil || b.Value.Cmp(out.Lower.Value) >= 0 {
			out.Lower = &b
		}
	}
	if maximum != nil {
		b, err := NewBound(maximum, !maxExclusive)
		if err != nil {
			return out, fmt.Errorf("maximum: %w", err)
		}
		out.Upper = &b
	}
	if exclMax != nil {
		b, err := NewBound(exclMax, false)
		if err != nil {
			return out, fmt.Errorf("exclusiveMaximum: %w", err)
		}
		if out.Upper == nil || b.Value.Cmp(out.Upper.Value) <= 0 {
			out.Upper = &b
		}
	}
	return out, nil
}

// MultipleOf is an exact or floating multiple-of constraint.
type MultipleOf struct {
	Value *big.Rat
	Exact bool // render as an exact fraction/decimal, never via float64
}

// NewMultipleOf parses a multiple-of keyword value.
func NewMultipleOf(v any, exact bool) (MultipleOf, error) {
	r, err := ratOf(v)
	if err != nil {
		return MultipleOf{}, err
	}
	return MultipleOf{Value: r, Exact: exact}, nil
}

// String renders the constraint; exact mode keeps the full fraction.
func (m MultipleOf) String() string {
	if m.Exact {
		return RenderRat(m.Value)
	}
	f, _ := m.Value.Float64()
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// ratOf converts the numeric shapes front-ends produce (json.Number kept as
// string, float64, int64, int) into an exact rational.
func ratOf(v any) (*big.Rat, error) {
	switch t := v.(type) {
	case nil:
		return nil, fmt.Errorf("nil numeric value")
	case int:
		return new(big.Rat).SetInt64(int64(t)), nil
	case int64:
		return new(big.Rat).SetInt64(t), nil
	case uint64:
		return new(big.Rat).SetInt(new(big.Int).SetUint64(t)), nil
	case float64:
		r := new(big.Rat)
		if _, ok := r.SetString(strconv.FormatFloat(t, 'g', -1, 64)); !ok {
			return nil, fmt.Errorf("non-finite numeric value %v", t)
		}
		return r, nil
	case string:
		r := new(big.Rat)
		if _, ok := r.SetString(t); !ok {
			return nil, fmt.Errorf("invalid numeric literal %q", t)
		}
		return r, nil
	case fmt.Stringer:
		return ratOf(t.String())
	default:
		return nil, fmt.Errorf("unsupported numeric value %T", v)
	}
}

// RenderRat renders a rational as a plain integer, a finite decimal, or an
// exact fraction string, whichever is shortest without losing precision.
func RenderRat(r *big.Rat) string {
	if r.IsInt() {
		return r.Num().String()
	}
	if s, ok := finiteDecimal(r); ok {
		return s
	}
	return r.RatString()
}

// finiteDecimal renders r as a decimal when the denominator is of the form
// 2^a * 5^b (terminating expansion).
func finiteDecimal(r *big.Rat) (string, bool) {
	den := new(big.Int).Set(r.Denom())
	two := big.NewInt(2)
	five := big.NewInt(5)
	scale := 0
	for new(big.Int).Mod(den, two).Sign() == 0 {
		den.Div(den, two)
		scale++
	}
	fives := 0
	for new(big.Int).Mod(den, five).Sign() == 0 {
		den.Div(den, five)
		fives++
	}
	if den.Cmp(big.NewInt(1)) != 0 {
		return "", false
	}
	if fives > scale {
		scale = fives
	}
	return r.FloatString(scale), true
}
