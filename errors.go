package typeforge

import "github.com/typeforge/typeforge/internal/diag"

// Warning codes (exported consts for IDE completion and stable matching).
const (
	WarnIncompatibleCombinator = diag.WarnIncompatibleCombinator
	WarnDiscriminatorLess      = diag.WarnDiscriminatorLess
	WarnDialectDowngrade       = diag.WarnDialectDowngrade
	WarnUnknownKeyword         = diag.WarnUnknownKeyword
	WarnEnumMemberRenamed      = diag.WarnEnumMemberRenamed
	WarnNameStripped           = diag.WarnNameStripped
	WarnReuseCollapsed         = diag.WarnReuseCollapsed
)

// Warning is a single recoverable diagnostic.
type Warning = diag.Warning

// Diag collects recoverable warnings across pipeline stages.
type Diag = diag.Diag

// Stage identifies a pipeline stage.
type Stage = diag.Stage

// Pipeline stages, in execution order.
const (
	StageIdle         = diag.StageIdle
	StageIngesting    = diag.StageIngesting
	StageResolving    = diag.StageResolving
	StageSynthesizing = diag.StageSynthesizing
	StageNaming       = diag.StageNaming
	StagePlanning     = diag.StagePlanning
	StageEmitting     = diag.StageEmitting
	StageDone         = diag.StageDone
)

// Fatal error types. Each carries enough location context to find the
// offending schema fragment.
type (
	StageError                     = diag.StageError
	MalformedInputError            = diag.MalformedInputError
	BrokenReferenceError           = diag.BrokenReferenceError
	MalformedReferenceError        = diag.MalformedReferenceError
	IncompatibleDiscriminatorError = diag.IncompatibleDiscriminatorError
	NamingCollisionError           = diag.NamingCollisionError
)

// NewDiag returns a warning collector honoring the suppression policy.
func NewDiag(suppressed []string, suppressAll bool) *Diag {
	return diag.New(suppressed, suppressAll)
}
