package pipeline

import (
	"fmt"
	"strings"
)

// Evaluator decides condition step results against the run context.
type Evaluator interface {
	Evaluate(condition string, runCtx map[string]any) bool
}

// ClauseEvaluator evaluates a minimal AND-only condition language:
//
//	ConditionExpr ::= Clause ( '&&' Clause )*
//	Clause        ::= Key '!=' Literal | Key '=' Literal | Key
//
// Keys resolve against the context top level and compare as exact strings.
// A bare key is truthy unless missing, empty, "false", "0" or "no". The
// empty condition and "true" are always satisfied.
type ClauseEvaluator struct{}

func (ClauseEvaluator) Evaluate(condition string, runCtx map[string]any) bool {
	condition = strings.TrimSpace(condition)
	if condition == "" || condition == "true" {
		return true
	}
	for _, clause := range strings.Split(condition, "&&") {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		if !evalClause(clause, runCtx) {
			return false
		}
	}
	return true
}

func evalClause(clause string, runCtx map[string]any) bool {
	if strings.Contains(clause, "!=") {
		parts := strings.SplitN(clause, "!=", 2)
		key := strings.TrimSpace(parts[0])
		want := strings.TrimSpace(parts[1])
		return resolveKey(key, runCtx) != want
	}
	if strings.Contains(clause, "=") {
		parts := strings.SplitN(clause, "=", 2)
		key := strings.TrimSpace(parts[0])
		want := strings.TrimSpace(parts[1])
		return resolveKey(key, runCtx) == want
	}
	switch strings.ToLower(resolveKey(clause, runCtx)) {
	case "", "false", "0", "no":
		return false
	}
	return true
}

func resolveKey(key string, runCtx map[string]any) string {
	if v, ok := runCtx[key]; ok && v != nil {
		return fmt.Sprint(v)
	}
	return ""
}

// AlwaysTrue treats every condition as satisfied.
type AlwaysTrue struct{}

func (AlwaysTrue) Evaluate(string, map[string]any) bool { return true }
