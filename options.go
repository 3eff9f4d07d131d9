package typeforge

import "time"

// MergeMode controls how allOf parents contribute to a child schema.
type MergeMode int

const (
	// MergeConstraints lifts scalar constraint keywords from parents into the
	// child and keeps base edges for object properties unless a property
	// conflict forces flattening.
	MergeConstraints MergeMode = iota
	// MergeAlways keeps the hierarchy even on conflicting properties; the
	// later-declared base wins on lookup.
	MergeAlways
	// MergeNone copies nothing from parents.
	MergeNone
)

// CaseTransform is an identifier case policy.
type CaseTransform int

const (
	CaseKeep CaseTransform = iota
	CaseSnake
	CasePascal
	CaseCamel
)

// CollisionStrategy decides how a claimed-name collision is repaired.
type CollisionStrategy int

const (
	// CollisionRenameField suffixes the later field and aliases it back to
	// the original wire name.
	CollisionRenameField CollisionStrategy = iota
	// CollisionRenameType suffixes the type instead, keeping the field name.
	CollisionRenameType
	// CollisionError aborts compilation on any collision.
	CollisionError
)

// ReuseScope bounds structural deduplication of identical models.
type ReuseScope int

const (
	ReuseOff  ReuseScope = iota
	ReuseUnit            // collapse only within one output unit
	ReuseTree            // collapse across the whole module tree
)

// ReuseStyle selects how a collapsed duplicate is expressed.
type ReuseStyle int

const (
	ReuseSubstitute ReuseStyle = iota // replace references with the survivor
	ReuseAliasClass                   // keep an empty subclass alias
)

// ModuleLayout selects how models are grouped into output units.
type ModuleLayout int

const (
	LayoutSingle    ModuleLayout = iota // one unit holds everything
	LayoutDotted                        // dotted model-name segments become paths
	LayoutPerEntity                     // one unit per model
)

// ReexportPolicy controls generated re-export surfaces and how colliding
// child exports are disambiguated under a recursive scope.
type ReexportPolicy int

const (
	ReexportOff ReexportPolicy = iota
	ReexportMinimalPrefix
	ReexportFullPrefix
	ReexportError
)

// Dialect selects the output rendering style.
type Dialect string

const (
	DialectPydantic    Dialect = "pydantic"    // validated class
	DialectDataclasses Dialect = "dataclasses" // frozen struct
	DialectTypedDict   Dialect = "typeddict"   // typed mapping
	DialectMsgspec     Dialect = "msgspec"     // tagged struct
)

// DescriptionPlacement is a pure rendering choice for schema descriptions.
type DescriptionPlacement int

const (
	DescDocstring DescriptionPlacement = iota
	DescFieldDoc
	DescInlineComment
	DescMetadata
)

// HeaderOptions toggles the deterministic per-unit header lines
// independently. Source identity is always included.
type HeaderOptions struct {
	Timestamp  bool
	Invocation bool
	Version    bool
}

// FetchOptions configures the remote-document collaborator.
type FetchOptions struct {
	Headers       map[string]string
	QueryParams   map[string]string
	SkipTLSVerify bool
	Timeout       time.Duration
	CacheSize     int // distinct document identities kept; <=0 means default
}

// NamingOptions groups identifier policies.
type NamingOptions struct {
	FieldCase     CaseTransform
	ModelCase     CaseTransform
	EnumCase      CaseTransform
	UseAliases    bool // record wire-name aliases for transformed fields
	Collision     CollisionStrategy
	SpecialPrefix string // injected before non-identifier-leading names
	StripPrefix   bool   // drop the injected prefix when still unique
	EnumPrefix    string // prefix for enum members that cannot lead an identifier
	EmptyName     string // member name for the empty-string enum value
	ReuseScope    ReuseScope
	ReuseStyle    ReuseStyle
}

// Config is the one immutable policy bag threaded through every stage.
// Provenance (CLI flags, config file, profile) is external to the engine.
type Config struct {
	Dialect  Dialect
	Merge    MergeMode
	Naming   NamingOptions
	Layout   ModuleLayout
	Reexport ReexportPolicy

	// UseStandardCollections renders list/dict over List/Dict where the
	// dialect allows a container-style choice.
	UseStandardCollections bool
	// FieldConstraints renders validation constraints inline when the
	// dialect supports them; otherwise they land in documentation.
	FieldConstraints bool
	// Immutable requests frozen models; dialects without immutability
	// downgrade with a warning.
	Immutable bool
	// UseTuples synthesizes fixed tuples for positional items lists.
	UseTuples bool
	// ExactArithmetic routes multiple-of constraints through exact
	// fractions instead of floats.
	ExactArithmetic bool
	// LiteralEnums renders eligible enums as literal unions instead of
	// enum classes.
	LiteralEnums bool

	Description DescriptionPlacement
	Header      HeaderOptions
	Fetch       FetchOptions

	// Version is stamped into headers when Header.Version is set.
	Version string
	// Invocation is the reproducing command line for headers.
	Invocation string

	SuppressWarnings    bool
	SuppressedWarnCodes []string

	// WatchDebounce coalesces file-change events in watch mode.
	WatchDebounce time.Duration
}

// DefaultConfig returns the policy bag with the documented defaults.
func DefaultConfig() Config {
	return Config{
		Dialect: DialectPydantic,
		Merge:   MergeConstraints,
		Naming: NamingOptions{
			FieldCase:     CaseSnake,
			ModelCase:     CasePascal,
			EnumCase:      CaseKeep,
			UseAliases:    true,
			SpecialPrefix: "field_",
			EnumPrefix:    "value_",
			EmptyName:     "empty",
		},
		Layout:        LayoutSingle,
		UseTuples:     true,
		Description:   DescDocstring,
		WatchDebounce: 300 * time.Millisecond,
	}
}
