// Package diag carries the warning collector and fatal error taxonomy
// shared by every pipeline stage. The root package re-exports these types;
// internal stages import diag directly to avoid a dependency cycle.
package diag

import (
	"fmt"
	"strings"
)

// Warning codes, stable across releases.
const (
	WarnIncompatibleCombinator = "incompatible_combinator"
	WarnDiscriminatorLess      = "discriminator_less_union"
	WarnDialectDowngrade       = "dialect_downgrade"
	WarnUnknownKeyword         = "unknown_keyword"
	WarnEnumMemberRenamed      = "enum_member_renamed"
	WarnNameStripped           = "name_prefix_stripped"
	WarnReuseCollapsed         = "structural_reuse"
	WarnUnitCycle              = "unit_cycle_deferred"
)

// Warning is a single recoverable diagnostic. Path is a document location
// rendered as "<document>#<json-pointer>".
type Warning struct {
	Code    string
	Path    string
	Message string
}

func (w Warning) String() string {
	if w.Path == "" {
		return fmt.Sprintf("%s: %s", w.Code, w.Message)
	}
	return fmt.Sprintf("%s at %s: %s", w.Code, w.Path, w.Message)
}

// Diag collects recoverable warnings produced across pipeline stages. All
// non-fatal issues funnel through it; fatal conditions are returned as
// errors instead. The zero value is ready to use.
type Diag struct {
	ws        []Warning
	suppress  map[string]bool
	suppressA bool
}

// New returns a collector that drops warnings whose code appears in
// suppressed, or all warnings when suppressAll is set.
func New(suppressed []string, suppressAll bool) *Diag {
	d := &Diag{suppressA: suppressAll}
	if len(suppressed) > 0 {
		d.suppress = make(map[string]bool, len(suppressed))
		for _, c := range suppressed {
			d.suppress[c] = true
		}
	}
	return d
}

// Warnf records a warning unless its code is suppressed.
func (d *Diag) Warnf(code, path, format string, a ...any) {
	if d == nil || d.suppressA || d.suppress[code] {
		return
	}
	d.ws = append(d.ws, Warning{Code: code, Path: path, Message: fmt.Sprintf(format, a...)})
}

// HasWarnings reports whether any warning was recorded.
func (d *Diag) HasWarnings() bool { return d != nil && len(d.ws) > 0 }

// Warnings returns a copy of the recorded warnings in emission order.
func (d *Diag) Warnings() []Warning {
	if d == nil {
		return nil
	}
	return append([]Warning(nil), d.ws...)
}

// Stage identifies the pipeline stage an error originated from.
type Stage string

const (
	StageIdle         Stage = "idle"
	StageIngesting    Stage = "ingesting"
	StageResolving    Stage = "resolving"
	StageSynthesizing Stage = "synthesizing"
	StageNaming       Stage = "naming"
	StagePlanning     Stage = "planning"
	StageEmitting     Stage = "emitting"
	StageDone         Stage = "done"
)

// StageError wraps a stage failure; the pipeline aborts on the first one.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// MalformedInputError reports a document that fails to parse under its
// declared format.
type MalformedInputError struct {
	Document string
	Format   string
	Detail   string
	Cause    error
}

func (e *MalformedInputError) Error() string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "malformed %s input %q", e.Format, e.Document)
	if e.Detail != "" {
		fmt.Fprintf(b, ": %s", e.Detail)
	}
	if e.Cause != nil {
		fmt.Fprintf(b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *MalformedInputError) Unwrap() error { return e.Cause }

// BrokenReferenceError reports a reference whose target does not exist.
type BrokenReferenceError struct {
	Location string // where the reference appears
	Target   string // what it points at
}

func (e *BrokenReferenceError) Error() string {
	return fmt.Sprintf("broken reference at %s: target %q does not resolve", e.Location, e.Target)
}

// MalformedReferenceError reports a reference with invalid syntax.
type MalformedReferenceError struct {
	Location string
	Ref      string
	Detail   string
}

func (e *MalformedReferenceError) Error() string {
	return fmt.Sprintf("malformed reference %q at %s: %s", e.Ref, e.Location, e.Detail)
}

// IncompatibleDiscriminatorError reports a tagged-union variant that cannot
// expose the discriminator as a single literal value.
type IncompatibleDiscriminatorError struct {
	Location      string
	Discriminator string
	Variant       string
}

func (e *IncompatibleDiscriminatorError) Error() string {
	return fmt.Sprintf("union at %s: variant %s does not expose discriminator %q as a single literal",
		e.Location, e.Variant, e.Discriminator)
}

// NamingCollisionError reports an unresolvable identifier collision under
// the error collision strategy.
type NamingCollisionError struct {
	Scope string
	Name  string
	A, B  string // owner identities
}

func (e *NamingCollisionError) Error() string {
	return fmt.Sprintf("name %q collides in scope %s (%s vs %s) and collision strategy is error",
		e.Name, e.Scope, e.A, e.B)
}
