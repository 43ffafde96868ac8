package statebox

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Evaluate runs expression against a snapshot of the tree using the
// configured evaluator (expr by default). Top-level keys are variables, so
// `user.active && count > 2` reads user.active and count.
func (s *Store) Evaluate(expression string) (any, error) {
	return s.EvaluateWith(RuleContext{}, expression)
}

// EvaluateAt runs expression with value bound to the sub-tree at path.
func (s *Store) EvaluateAt(path, expression string) (any, error) {
	p, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	value, _ := s.GetPath(p)
	return s.EvaluateWith(RuleContext{Path: p.String(), Value: value}, expression)
}

// EvaluateWith runs expression using ctx, filling a nil Snapshot from the
// store.
func (s *Store) EvaluateWith(ctx RuleContext, expression string) (any, error) {
	if expression == "" {
		return nil, fmt.Errorf("statebox: expression must not be empty")
	}
	evaluator, err := s.resolveEvaluator()
	if err != nil {
		return nil, err
	}
	if ctx.Snapshot == nil {
		ctx.Snapshot = s.Snapshot()
	}
	if ctx.Now == nil {
		now := s.cfg.now()
		ctx.Now = &now
	}
	ctx = ctx.withDefaults()

	engine := evaluatorEngineName(evaluator)
	start := time.Now()
	value, evalErr := evaluator.Evaluate(ctx, expression)
	evalErr = wrapEvaluationError(engine, expression, ctx.pathLabel(), evalErr)
	s.cfg.logger.Debug("state rule evaluated",
		zap.String("engine", engine),
		zap.String("expr", expression),
		zap.String("path", ctx.pathLabel()),
		zap.Duration("duration", time.Since(start)),
		zap.Error(evalErr),
	)
	if evalErr != nil {
		return nil, evalErr
	}
	return value, nil
}

// Compile compiles expression with the configured evaluator for repeated
// evaluation via EvaluateRule.
func (s *Store) Compile(expression string) (CompiledRule, error) {
	evaluator, err := s.resolveEvaluator()
	if err != nil {
		return nil, err
	}
	return evaluator.Compile(expression)
}

// EvaluateRule runs a compiled rule against the current snapshot.
func (s *Store) EvaluateRule(rule CompiledRule) (any, error) {
	if rule == nil {
		return nil, fmt.Errorf("statebox: rule is nil")
	}
	now := s.cfg.now()
	return rule.Evaluate(RuleContext{Snapshot: s.Snapshot(), Now: &now})
}

func (s *Store) resolveEvaluator() (Evaluator, error) {
	s.evalOnce.Do(func() {
		if s.cfg.evaluator != nil {
			s.evaluator = s.cfg.evaluator
			return
		}
		var opts []ExprEvaluatorOption
		if s.cfg.programCache != nil {
			opts = append(opts, ExprWithProgramCache(s.cfg.programCache))
		}
		if s.cfg.functions != nil {
			opts = append(opts, ExprWithFunctionRegistry(s.cfg.functions))
		}
		s.evaluator = NewExprEvaluator(opts...)
	})
	if s.evaluator == nil {
		return nil, ErrNoEvaluator
	}
	return s.evaluator, nil
}
