// Command typeforge compiles schema documents into typed model source.
//
//	typeforge -o models api.yaml
//	typeforge --check -o models api.yaml
//	typeforge --watch -o models schemas/
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"gopkg.in/yaml.v3"

	"github.com/typeforge/typeforge"
	"github.com/typeforge/typeforge/internal/formatter"
	"github.com/typeforge/typeforge/internal/watch"
	"github.com/typeforge/typeforge/internal/writer"
)

// version is stamped by the release build.
var version = "dev"

type options struct {
	Output  string `short:"o" long:"output" description:"output directory, or .py file for a single blob" default:"models"`
	Dialect string `short:"d" long:"dialect" description:"output dialect" choice:"pydantic" choice:"dataclasses" choice:"typeddict" choice:"msgspec" default:"pydantic"`
	Format  string `short:"f" long:"input-format" description:"input format, empty autodetects" choice:"jsonschema" choice:"openapi" choice:"graphql" choice:"sample"`
	Profile string `short:"p" long:"profile" description:"YAML config profile"`

	Check bool `long:"check" description:"compare against existing output, write nothing"`
	Watch bool `long:"watch" description:"re-run when inputs change"`

	Layout      string `long:"layout" description:"module layout" choice:"single" choice:"dotted" choice:"per-entity" default:"single"`
	Collision   string `long:"collision" description:"name collision repair" choice:"rename-field" choice:"rename-type" choice:"error" default:"rename-field"`
	Reuse       string `long:"reuse" description:"structural dedup scope" choice:"off" choice:"unit" choice:"tree" default:"off"`
	Immutable   bool   `long:"frozen" description:"request immutable models"`
	Constraints bool   `long:"field-constraints" description:"render validation constraints inline"`
	Literals    bool   `long:"use-literals" description:"render eligible enums as literal unions"`
	Timestamp   bool   `long:"timestamp" description:"stamp generation time into headers"`

	Indent  string `long:"indent" description:"indentation unit for output" default:"    "`
	Verbose bool   `short:"v" long:"verbose" description:"debug logging"`
	LogJSON bool   `long:"log-json" description:"JSON log output"`
	Version bool   `long:"version" description:"print version and exit"`

	Args struct {
		Inputs []string `positional-arg-name:"input" description:"schema file, directory, or URL"`
	} `positional-args:"yes"`
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "typeforge:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var opts options
	if _, err := flags.ParseArgs(&opts, args); err != nil {
		if flags.WroteHelp(err) {
			return nil
		}
		return err
	}
	if opts.Version {
		fmt.Printf("typeforge %s\n", version)
		return nil
	}
	if len(opts.Args.Inputs) == 0 {
		return fmt.Errorf("no inputs given")
	}
	if opts.Check && opts.Watch {
		return fmt.Errorf("--check and --watch are mutually exclusive")
	}

	logger := newLogger(opts)
	cfg, err := buildConfig(opts)
	if err != nil {
		return err
	}
	inputs := make([]typeforge.Input, 0, len(opts.Args.Inputs))
	for _, ref := range opts.Args.Inputs {
		inputs = append(inputs, typeforge.Input{Ref: ref, Format: typeforge.Format(opts.Format)})
	}
	format := formatter.Chain(
		formatter.Normalize(formatter.Options{MaxBlankRun: 2}),
		formatter.Indent(formatter.Options{Indent: opts.Indent}),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case opts.Check:
		differing, err := typeforge.Check(ctx, inputs, cfg, opts.Output, format.Format)
		if err != nil {
			return err
		}
		if len(differing) > 0 {
			return fmt.Errorf("output out of date: %s", strings.Join(differing, ", "))
		}
		logger.Info("output up to date", "units", "all")
		return nil
	case opts.Watch:
		err := watch.Run(ctx, opts.Args.Inputs, watch.Options{
			Debounce: cfg.WatchDebounce,
			Logger:   logger,
		}, func(ctx context.Context) error {
			return generate(ctx, inputs, cfg, opts, format, logger)
		})
		if err == context.Canceled {
			return nil
		}
		return err
	default:
		return generate(ctx, inputs, cfg, opts, format, logger)
	}
}

func generate(ctx context.Context, inputs []typeforge.Input, cfg typeforge.Config,
	opts options, format formatter.Formatter, logger *slog.Logger) error {
	start := time.Now()
	res, err := typeforge.RunWithLogger(ctx, inputs, cfg, logger)
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		logger.Warn(w.Message, "code", w.Code, "path", w.Path)
	}

	files := make([]writer.File, 0, len(res.Units))
	for _, u := range res.Units {
		files = append(files, writer.File{Path: u.Path, Content: []byte(format.Format(u.Text))})
	}
	if strings.HasSuffix(opts.Output, ".py") {
		err = writer.Blob(opts.Output, files)
	} else {
		err = writer.Tree(opts.Output, files)
	}
	if err != nil {
		return err
	}
	logger.Info("generated", "units", len(files), "output", opts.Output,
		"elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

func newLogger(opts options) *slog.Logger {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	ho := &slog.HandlerOptions{Level: level}
	if opts.LogJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, ho))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, ho))
}

// profile mirrors the Config knobs a YAML profile may set. Flags given on
// the command line win over profile values.
type profile struct {
	Dialect       string            `yaml:"dialect"`
	Layout        string            `yaml:"layout"`
	Merge         string            `yaml:"merge"`
	Collision     string            `yaml:"collision"`
	Reuse         string            `yaml:"reuse"`
	ReuseStyle    string            `yaml:"reuseStyle"`
	Reexport      string            `yaml:"reexport"`
	Immutable     *bool             `yaml:"immutable"`
	Constraints   *bool             `yaml:"fieldConstraints"`
	LiteralEnums  *bool             `yaml:"literalEnums"`
	UseStdColl    *bool             `yaml:"useStandardCollections"`
	SnakeFields   *bool             `yaml:"snakeCaseFields"`
	SpecialPrefix string            `yaml:"specialFieldPrefix"`
	StripPrefix   *bool             `yaml:"stripFieldPrefix"`
	Headers       map[string]string `yaml:"httpHeaders"`
	WatchDebounce time.Duration     `yaml:"watchDebounce"`
}

func buildConfig(opts options) (typeforge.Config, error) {
	cfg := typeforge.DefaultConfig()

	if opts.Profile != "" {
		data, err := os.ReadFile(opts.Profile)
		if err != nil {
			return cfg, fmt.Errorf("read profile: %w", err)
		}
		var p profile
		if err := yaml.Unmarshal(data, &p); err != nil {
			return cfg, fmt.Errorf("parse profile: %w", err)
		}
		applyProfile(&cfg, p)
	}

	cfg.Dialect = typeforge.Dialect(opts.Dialect)
	switch opts.Layout {
	case "dotted":
		cfg.Layout = typeforge.LayoutDotted
	case "per-entity":
		cfg.Layout = typeforge.LayoutPerEntity
	case "single":
		cfg.Layout = typeforge.LayoutSingle
	}
	switch opts.Collision {
	case "rename-type":
		cfg.Naming.Collision = typeforge.CollisionRenameType
	case "error":
		cfg.Naming.Collision = typeforge.CollisionError
	}
	switch opts.Reuse {
	case "unit":
		cfg.Naming.ReuseScope = typeforge.ReuseUnit
	case "tree":
		cfg.Naming.ReuseScope = typeforge.ReuseTree
	}
	if opts.Immutable {
		cfg.Immutable = true
	}
	if opts.Constraints {
		cfg.FieldConstraints = true
	}
	if opts.Literals {
		cfg.LiteralEnums = true
	}
	cfg.Header.Timestamp = cfg.Header.Timestamp || opts.Timestamp
	cfg.Header.Version = true
	cfg.Version = version
	cfg.Invocation = "typeforge " + strings.Join(os.Args[1:], " ")
	return cfg, nil
}

func applyProfile(cfg *typeforge.Config, p profile) {
	if p.Dialect != "" {
		cfg.Dialect = typeforge.Dialect(p.Dialect)
	}
	switch p.Layout {
	case "dotted":
		cfg.Layout = typeforge.LayoutDotted
	case "per-entity":
		cfg.Layout = typeforge.LayoutPerEntity
	case "single":
		cfg.Layout = typeforge.LayoutSingle
	}
	switch p.Merge {
	case "always":
		cfg.Merge = typeforge.MergeAlways
	case "none":
		cfg.Merge = typeforge.MergeNone
	case "constraints":
		cfg.Merge = typeforge.MergeConstraints
	}
	switch p.Collision {
	case "rename-field":
		cfg.Naming.Collision = typeforge.CollisionRenameField
	case "rename-type":
		cfg.Naming.Collision = typeforge.CollisionRenameType
	case "error":
		cfg.Naming.Collision = typeforge.CollisionError
	}
	switch p.Reuse {
	case "off":
		cfg.Naming.ReuseScope = typeforge.ReuseOff
	case "unit":
		cfg.Naming.ReuseScope = typeforge.ReuseUnit
	case "tree":
		cfg.Naming.ReuseScope = typeforge.ReuseTree
	}
	switch p.ReuseStyle {
	case "substitute":
		cfg.Naming.ReuseStyle = typeforge.ReuseSubstitute
	case "alias-class":
		cfg.Naming.ReuseStyle = typeforge.ReuseAliasClass
	}
	switch p.Reexport {
	case "minimal":
		cfg.Reexport = typeforge.ReexportMinimalPrefix
	case "full":
		cfg.Reexport = typeforge.ReexportFullPrefix
	case "error":
		cfg.Reexport = typeforge.ReexportError
	case "off":
		cfg.Reexport = typeforge.ReexportOff
	}
	if p.Immutable != nil {
		cfg.Immutable = *p.Immutable
	}
	if p.Constraints != nil {
		cfg.FieldConstraints = *p.Constraints
	}
	if p.LiteralEnums != nil {
		cfg.LiteralEnums = *p.LiteralEnums
	}
	if p.UseStdColl != nil {
		cfg.UseStandardCollections = *p.UseStdColl
	}
	if p.SnakeFields != nil && !*p.SnakeFields {
		cfg.Naming.FieldCase = typeforge.CaseKeep
	}
	if p.SpecialPrefix != "" {
		cfg.Naming.SpecialPrefix = p.SpecialPrefix
	}
	if p.StripPrefix != nil {
		cfg.Naming.StripPrefix = *p.StripPrefix
	}
	if len(p.Headers) > 0 {
		cfg.Fetch.Headers = p.Headers
	}
	if p.WatchDebounce > 0 {
		cfg.WatchDebounce = p.WatchDebounce
	}
}
