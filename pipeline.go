package typeforge

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/typeforge/typeforge/internal/casing"
	"github.com/typeforge/typeforge/internal/diag"
	"github.com/typeforge/typeforge/internal/emit"
	"github.com/typeforge/typeforge/internal/naming"
	"github.com/typeforge/typeforge/internal/planner"
	"github.com/typeforge/typeforge/internal/resolver"
	"github.com/typeforge/typeforge/internal/synth"
)

// Unit is one emitted output unit.
type Unit struct {
	Path string
	Text string
}

// Result carries the outputs of one pipeline run.
type Result struct {
	Units    []Unit
	Warnings []Warning
}

// Run compiles the inputs into output units under the given policy. The
// pipeline is single-threaded and deterministic: each stage consumes the
// complete output of the previous one, and any stage failure aborts the
// run with a StageError naming the stage.
func Run(ctx context.Context, inputs []Input, cfg Config) (*Result, error) {
	return RunWithLogger(ctx, inputs, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// RunWithLogger is Run with stage-boundary debug logging on the given
// logger. The engine never logs anywhere else.
func RunWithLogger(ctx context.Context, inputs []Input, cfg Config, logger *slog.Logger) (*Result, error) {
	d := diag.New(cfg.SuppressedWarnCodes, cfg.SuppressWarnings)
	stageStart := time.Now()
	mark := func(s Stage) {
		logger.Debug("stage complete", "stage", string(s),
			"elapsed", time.Since(stageStart), "warnings", len(d.Warnings()))
		stageStart = time.Now()
	}
	fail := func(s Stage, err error) (*Result, error) {
		logger.Debug("stage failed", "stage", string(s), "error", err)
		return nil, &StageError{Stage: s, Err: err}
	}

	loader, err := newSourceLoader(cfg.Fetch)
	if err != nil {
		return fail(StageIngesting, err)
	}
	set, err := loader.ingest(ctx, inputs)
	if err != nil {
		return fail(StageIngesting, err)
	}
	mark(StageIngesting)

	graph, err := resolver.Resolve(ctx, set, loader, d)
	if err != nil {
		return fail(StageResolving, err)
	}
	mark(StageResolving)

	forest, err := synth.Synthesize(graph, synthOptions(cfg), d)
	if err != nil {
		return fail(StageSynthesizing, err)
	}
	mark(StageSynthesizing)

	if err := naming.Assign(forest, namingOptions(cfg), d); err != nil {
		return fail(StageNaming, err)
	}
	mark(StageNaming)

	plan, err := planner.Plan(forest, plannerOptions(cfg), d)
	if err != nil {
		return fail(StagePlanning, err)
	}
	mark(StagePlanning)

	files, err := emit.Emit(plan, emitOptions(cfg), d)
	if err != nil {
		return fail(StageEmitting, err)
	}
	mark(StageEmitting)

	res := &Result{Warnings: d.Warnings()}
	for _, f := range files {
		res.Units = append(res.Units, Unit{Path: f.Path, Text: string(f.Content)})
	}
	return res, nil
}

func caseMode(c CaseTransform) casing.Mode {
	switch c {
	case CaseSnake:
		return casing.Snake
	case CasePascal:
		return casing.Pascal
	case CaseCamel:
		return casing.Camel
	}
	return casing.Keep
}

func synthOptions(cfg Config) synth.Options {
	var merge synth.MergeMode
	switch cfg.Merge {
	case MergeAlways:
		merge = synth.MergeAlways
	case MergeNone:
		merge = synth.MergeNone
	default:
		merge = synth.MergeConstraints
	}
	return synth.Options{
		Merge:           merge,
		UseTuples:       cfg.UseTuples,
		ExactArithmetic: cfg.ExactArithmetic,
		EnumCase:        caseMode(cfg.Naming.EnumCase),
		EnumPrefix:      cfg.Naming.EnumPrefix,
		EmptyName:       cfg.Naming.EmptyName,
	}
}

func namingOptions(cfg Config) naming.Options {
	var collision naming.Collision
	switch cfg.Naming.Collision {
	case CollisionRenameType:
		collision = naming.RenameType
	case CollisionError:
		collision = naming.Error
	default:
		collision = naming.RenameField
	}
	var reuse naming.ReuseScope
	switch cfg.Naming.ReuseScope {
	case ReuseUnit:
		reuse = naming.ReuseUnit
	case ReuseTree:
		reuse = naming.ReuseTree
	default:
		reuse = naming.ReuseOff
	}
	style := naming.Substitute
	if cfg.Naming.ReuseStyle == ReuseAliasClass {
		style = naming.AliasClass
	}
	return naming.Options{
		FieldCase:     caseMode(cfg.Naming.FieldCase),
		ModelCase:     caseMode(cfg.Naming.ModelCase),
		UseAliases:    cfg.Naming.UseAliases,
		Collision:     collision,
		SpecialPrefix: cfg.Naming.SpecialPrefix,
		StripPrefix:   cfg.Naming.StripPrefix,
		Reuse:         reuse,
		ReuseStyle:    style,
	}
}

func plannerOptions(cfg Config) planner.Options {
	var layout planner.Layout
	switch cfg.Layout {
	case LayoutDotted:
		layout = planner.Dotted
	case LayoutPerEntity:
		layout = planner.PerEntity
	default:
		layout = planner.Single
	}
	var reexport planner.Reexport
	switch cfg.Reexport {
	case ReexportMinimalPrefix:
		reexport = planner.MinimalPrefix
	case ReexportFullPrefix:
		reexport = planner.FullPrefix
	case ReexportError:
		reexport = planner.ReexportError
	default:
		reexport = planner.ReexportOff
	}
	return planner.Options{Layout: layout, Reexport: reexport}
}

func emitOptions(cfg Config) emit.Options {
	return emit.Options{
		Dialect:                emit.Dialect(cfg.Dialect),
		FieldConstraints:       cfg.FieldConstraints,
		Immutable:              cfg.Immutable,
		UseStandardCollections: cfg.UseStandardCollections,
		LiteralEnums:           cfg.LiteralEnums,
		Description:            emit.DescriptionPlacement(cfg.Description),
		Header: emit.Header{
			Timestamp:  cfg.Header.Timestamp,
			Invocation: cfg.Header.Invocation,
			Version:    cfg.Header.Version,
		},
		Version:    cfg.Version,
		Invocation: cfg.Invocation,
	}
}
