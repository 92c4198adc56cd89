package entities

// AnswerSet is an immutable snapshot of the in-progress answers, keyed by
// question id (or runtime follow-up id). Values are whatever the client
// submitted as JSON: string, float64, bool, []any, or a legacy wrapper map
// carrying the real value under "value". Mutations go through With/Without,
// which copy; the visibility resolver and formatter treat any snapshot they
// receive as read-only.
type AnswerSet map[string]any

// With returns a new snapshot with the given answer set.
func (a AnswerSet) With(id string, value any) AnswerSet {
	next := make(AnswerSet, len(a)+1)
	for k, v := range a {
		next[k] = v
	}
	next[id] = value
	return next
}

// Without returns a new snapshot with the given answer removed.
func (a AnswerSet) Without(id string) AnswerSet {
	next := make(AnswerSet, len(a))
	for k, v := range a {
		if k != id {
			next[k] = v
		}
	}
	return next
}

// Value returns the answer for id with any legacy {"value": ...} wrapper
// unwrapped. The second return is false when the question was never
// answered.
func (a AnswerSet) Value(id string) (any, bool) {
	raw, ok := a[id]
	if !ok {
		return nil, false
	}
	return UnwrapValue(raw), true
}

// UnwrapValue strips the nested answer-wrapper object some older clients
// send, returning the inner value. Non-wrapper values pass through.
func UnwrapValue(raw any) any {
	if m, ok := raw.(map[string]any); ok {
		if inner, exists := m["value"]; exists {
			return UnwrapValue(inner)
		}
	}
	return raw
}

// IsAnswered reports whether value counts as a real answer for formatting
// purposes. Boolean false and numeric 0 are valid answers; nil and the empty
// string are not.
func IsAnswered(value any) bool {
	switch v := UnwrapValue(value).(type) {
	case nil:
		return false
	case string:
		return v != ""
	case []any:
		return len(v) > 0
	default:
		return true
	}
}

// IsTruthy reports whether value satisfies a bare condition (one with a
// question reference but neither equals nor contains). Unlike IsAnswered,
// false and 0 do not count.
func IsTruthy(value any) bool {
	switch v := UnwrapValue(value).(type) {
	case nil:
		return false
	case string:
		return v != ""
	case bool:
		return v
	case float64:
		return v != 0
	case int:
		return v != 0
	case []any:
		return len(v) > 0
	default:
		return true
	}
}

// SelectedValues normalizes an answer into the list of selected values:
// multi-select answers as-is, scalars wrapped in a single-element list.
// Unanswered or empty answers yield nil.
func SelectedValues(value any) []any {
	v := UnwrapValue(value)
	if v == nil {
		return nil
	}
	if list, ok := v.([]any); ok {
		return list
	}
	if s, ok := v.(string); ok && s == "" {
		return nil
	}
	return []any{v}
}
