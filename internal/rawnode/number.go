package rawnode

import "strconv"

// Number keeps the source text of a numeric literal so downstream stages
// can choose exact or floating interpretation without precision loss.
type Number string

func (n Number) String() string { return string(n) }

// Float returns the float64 reading of the literal.
func (n Number) Float() (float64, error) { return strconv.ParseFloat(string(n), 64) }

// IsInt reports whether the literal has no fractional or exponent part.
func (n Number) IsInt() bool {
	for _, r := range n {
		if r == '.' || r == 'e' || r == 'E' {
			return false
		}
	}
	return true
}
