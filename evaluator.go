package statebox

import (
	"errors"
	"time"
)

// ErrNoEvaluator is returned when no evaluator could be resolved.
var ErrNoEvaluator = errors.New("statebox: evaluator not configured")

// RuleContext carries the inputs of one rule evaluation. Top-level keys of
// Snapshot are exposed as variables, next to now, args, metadata and, when
// Path is set, value (the sub-tree at Path).
type RuleContext struct {
	Snapshot map[string]any
	Path     string
	Value    any
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
}

// Evaluator runs expressions against a rule context. Evaluators never write
// to the store.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string) (CompiledRule, error)
}

// CompiledRule is a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

func (ctx RuleContext) withDefaults() RuleContext {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	if ctx.Snapshot == nil {
		ctx.Snapshot = map[string]any{}
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	if ctx.Now == nil {
		return time.Now()
	}
	return *ctx.Now
}

func (ctx RuleContext) pathLabel() string {
	if ctx.Path == "" {
		return RootPath
	}
	return ctx.Path
}

// variables flattens ctx into the name/value pairs every engine exposes.
// Snapshot keys never shadow the built-in names.
func (ctx RuleContext) variables() map[string]any {
	vars := make(map[string]any, len(ctx.Snapshot)+4)
	for key, value := range ctx.Snapshot {
		vars[key] = value
	}
	vars["now"] = ctx.timestamp()
	vars["args"] = ctx.Args
	vars["metadata"] = ctx.Metadata
	if ctx.Path != "" {
		vars["value"] = ctx.Value
	}
	return vars
}

type engineNamer interface {
	Engine() string
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	if named, ok := e.(engineNamer); ok {
		return named.Engine()
	}
	return "custom"
}
