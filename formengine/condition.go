// Package formengine implements the conditional form engine behind the
// patient intake flow: condition evaluation, dynamic follow-up generation,
// visibility resolution and answer formatting. All functions are pure over
// (template, answer snapshot, mode) so re-evaluation after any answer change
// is deterministic.
package formengine

import (
	"github.com/anamnesportalen/anamnese-api/formengine/entities"
)

// EvaluateCondition reports whether cond is satisfied by the current answer
// snapshot. A nil condition is always satisfied; a condition whose referenced
// question has no answer yet fails closed so dependent items never show
// before their dependency is answered.
func EvaluateCondition(cond *entities.Condition, answers entities.AnswerSet) bool {
	if cond == nil {
		return true
	}

	current, ok := answers.Value(cond.Question)
	if !ok || current == nil {
		return false
	}

	if cond.Contains != nil {
		return evaluateContains(cond.Contains, current)
	}

	if cond.Equals != nil {
		return evaluateEquals(cond.Equals, current)
	}

	// Bare condition: any truthy answer satisfies it.
	return entities.IsTruthy(current)
}

// evaluateContains checks membership when the current value is a list, and
// falls back to plain equality for scalar answers so legacy single-select
// data keeps working against checkbox conditions.
func evaluateContains(target, current any) bool {
	if list, ok := current.([]any); ok {
		for _, item := range list {
			if valuesEqual(entities.UnwrapValue(item), target) {
				return true
			}
		}
		return false
	}
	return valuesEqual(current, target)
}

// evaluateEquals checks membership when the expected value is a list, and
// strict equality otherwise.
func evaluateEquals(expected, current any) bool {
	if list, ok := expected.([]any); ok {
		for _, candidate := range list {
			if valuesEqual(current, candidate) {
				return true
			}
		}
		return false
	}
	return valuesEqual(current, expected)
}

// valuesEqual compares two answer values. Strings compare exactly (no case
// folding), numbers numerically across int/float64 so hand-written template
// constants match decoded JSON numbers.
func valuesEqual(a, b any) bool {
	a = entities.UnwrapValue(a)
	b = entities.UnwrapValue(b)

	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			return af == bf
		}
		return false
	}

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case nil:
		return b == nil
	}
	return false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
