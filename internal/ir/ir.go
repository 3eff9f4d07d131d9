package ir

// Package ir defines the canonical intermediate representation shared by
// every pipeline stage after synthesis. IR values never point back at raw
// nodes; converting a fragment finalizes all merge decisions first.

import (
	"github.com/typeforge/typeforge/internal/num"
)

// Kind identifies an IR type variant.
type Kind int

const (
	KindScalar Kind = iota
	KindModelRef
	KindArray
	KindTuple
	KindMap
	KindUnion
	KindEnumRef
	KindAlias
	KindLiteral
	KindOptional
	KindAny
	KindNone
)

// Type is the root IR variant interface.
type Type interface {
	Kind() Kind
}

// Primitive enumerates scalar base kinds.
type Primitive int

const (
	PrimString Primitive = iota
	PrimInt
	PrimFloat
	PrimBool
	PrimBytes
	PrimDecimal
	PrimDate
	PrimDateTime
	PrimTime
	PrimDuration
	PrimUUID
	PrimURI
	PrimEmail
	PrimIPv4
	PrimIPv6
)

// Constraints carries the validation keywords that survived merging, in
// normalized form.
type Constraints struct {
	Bounds      num.Bounds
	MultipleOf  *num.MultipleOf
	MinLength   *int
	MaxLength   *int
	Pattern     string
	MinItems    *int
	MaxItems    *int
	UniqueItems bool
}

// IsZero reports whether no constraint is set.
func (c Constraints) IsZero() bool {
	return c.Bounds.Lower == nil && c.Bounds.Upper == nil && c.MultipleOf == nil &&
		c.MinLength == nil && c.MaxLength == nil && c.Pattern == "" &&
		c.MinItems == nil && c.MaxItems == nil && !c.UniqueItems
}

// Scalar is a primitive type plus constraints.
type Scalar struct {
	Prim        Primitive
	Constraints Constraints
	Format      string // original format keyword, kept for documentation
}

func (*Scalar) Kind() Kind { return KindScalar }

// ModelRef points at a named model by identity key. Forward marks an edge
// that closed a cycle; emitters render it as a forward reference finalized
// after all models in the unit are declared.
type ModelRef struct {
	Key     string
	Forward bool
}

func (*ModelRef) Kind() Kind { return KindModelRef }

// EnumRef points at a named enum model.
type EnumRef struct {
	Key string
}

func (*EnumRef) Kind() Kind { return KindEnumRef }

// Array is a homogeneous sequence.
type Array struct {
	Item        Type
	Constraints Constraints // min/max items, uniqueness
}

func (*Array) Kind() Kind { return KindArray }

// Tuple is a fixed-length positional sequence.
type Tuple struct {
	Elems []Type
}

func (*Tuple) Kind() Kind { return KindTuple }

// Map is a string-keyed mapping with a typed value.
type Map struct {
	Value Type // nil means untyped values
}

func (*Map) Kind() Kind { return KindMap }

// UnionTag associates a discriminator literal with a variant.
type UnionTag struct {
	Literal string
	Ref     *ModelRef
}

// Union is a set of alternative types; a non-empty Discriminator makes it
// tagged, with Tags ordered by declaration.
type Union struct {
	Variants      []Type
	Discriminator string
	Tags          []UnionTag
}

func (*Union) Kind() Kind { return KindUnion }

// Optional wraps a type that may also be null.
type Optional struct {
	Inner Type
}

func (*Optional) Kind() Kind { return KindOptional }

// Alias names another type without changing it.
type Alias struct {
	Target Type
}

func (*Alias) Kind() Kind { return KindAlias }

// Literal is a single-value type, used for discriminator fields.
type Literal struct {
	Value any
}

func (*Literal) Kind() Kind { return KindLiteral }

// Any is the untyped placeholder.
type Any struct{}

func (*Any) Kind() Kind { return KindAny }

// None is the null-only type.
type None struct{}

func (*None) Kind() Kind { return KindNone }

// EnumMember is one named enum value.
type EnumMember struct {
	Name  string
	Value any
}
