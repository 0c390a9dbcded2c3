// Package rules implements the boolean predicate language used to validate
// free-text answers and to gate melding creation against the primary form.
//
// An expression is a JSON tree over a closed operator set. Operators take the
// json-logic shape {"op": [args...]}; anything else is a literal. The
// evaluator is pure: same expression plus same context always yields the same
// result, and nothing outside the two inputs is consulted.
package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidExpression marks a malformed expression: unknown operator, bad
// node shape, a variable path absent from the context, or a root that does
// not evaluate to a boolean (or a message string via "if"). These are schema
// configuration bugs, not normal validation rejections.
var ErrInvalidExpression = errors.New("invalid rule expression")

// PredicateError is the normal rejection: the predicate evaluated to false.
// Message carries the schema author's else-branch text when the expression
// supplies one.
type PredicateError struct {
	Message string
}

func (e *PredicateError) Error() string {
	if e == nil || e.Message == "" {
		return "predicate not satisfied"
	}
	return e.Message
}

// ErrPredicateNotSatisfied is the errors.Is target for PredicateError.
var ErrPredicateNotSatisfied = errors.New("predicate not satisfied")

func (e *PredicateError) Unwrap() error { return ErrPredicateNotSatisfied }

// Evaluate parses raw as a JSON expression and walks it against ctx.
// The result is one of: bool, float64, string, nil, or a JSON array/object
// literal passed through untouched.
func Evaluate(raw []byte, ctx map[string]any) (any, error) {
	var node any
	if err := json.Unmarshal(raw, &node); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExpression, err)
	}
	return eval(node, ctx)
}

// Parse verifies that raw is well formed without evaluating it: valid JSON,
// single-key operator nodes, known operators. Variable references cannot be
// checked here; they resolve at evaluation time.
func Parse(raw []byte) (any, error) {
	var node any
	if err := json.Unmarshal(raw, &node); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExpression, err)
	}
	if err := checkShape(node); err != nil {
		return nil, err
	}
	return node, nil
}

func checkShape(node any) error {
	m, ok := node.(map[string]any)
	if !ok {
		if list, isList := node.([]any); isList {
			for _, item := range list {
				if err := checkShape(item); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if len(m) != 1 {
		return fmt.Errorf("%w: operator node must have exactly one key", ErrInvalidExpression)
	}
	var op string
	var arg any
	for k, v := range m {
		op, arg = k, v
	}
	switch op {
	case "var", "==", "!=", "<", ">", "<=", ">=", "and", "or", "!", "if", "strlen":
		return checkShape(arg)
	default:
		return fmt.Errorf("%w: unknown operator %q", ErrInvalidExpression, op)
	}
}

// Check evaluates raw and requires the root to resolve to boolean true.
// A false root or a string root (the author's rejection message) yields a
// *PredicateError; any other root type is an ErrInvalidExpression.
func Check(raw []byte, ctx map[string]any) error {
	out, err := Evaluate(raw, ctx)
	if err != nil {
		return err
	}
	switch v := out.(type) {
	case bool:
		if v {
			return nil
		}
		return &PredicateError{}
	case string:
		return &PredicateError{Message: v}
	default:
		return fmt.Errorf("%w: root evaluates to %T, want bool", ErrInvalidExpression, out)
	}
}

func eval(node any, ctx map[string]any) (any, error) {
	m, ok := node.(map[string]any)
	if !ok || len(m) != 1 {
		// Literal: numbers, strings, bools, null, arrays. Objects are only
		// operators, so a multi-key object is malformed.
		if ok {
			return nil, fmt.Errorf("%w: operator node must have exactly one key", ErrInvalidExpression)
		}
		return node, nil
	}

	var op string
	var arg any
	for k, v := range m {
		op, arg = k, v
	}

	switch op {
	case "var":
		return lookupVar(arg, ctx)
	case "==", "!=":
		return evalEquality(op, arg, ctx)
	case "<", ">", "<=", ">=":
		return evalComparison(op, arg, ctx)
	case "and", "or":
		return evalLogical(op, arg, ctx)
	case "!":
		return evalNot(arg, ctx)
	case "if":
		return evalIf(arg, ctx)
	case "strlen":
		return evalStrlen(arg, ctx)
	default:
		return nil, fmt.Errorf("%w: unknown operator %q", ErrInvalidExpression, op)
	}
}

func lookupVar(arg any, ctx map[string]any) (any, error) {
	path, ok := arg.(string)
	if !ok {
		// json-logic also allows {"var": ["path"]}.
		if list, isList := arg.([]any); isList && len(list) >= 1 {
			path, ok = list[0].(string)
		}
	}
	if !ok || path == "" {
		return nil, fmt.Errorf("%w: var requires a non-empty string path", ErrInvalidExpression)
	}

	var cur any = ctx
	for _, part := range strings.Split(path, ".") {
		m, isMap := cur.(map[string]any)
		if !isMap {
			return nil, fmt.Errorf("%w: variable %q not present in context", ErrInvalidExpression, path)
		}
		next, found := m[part]
		if !found {
			return nil, fmt.Errorf("%w: variable %q not present in context", ErrInvalidExpression, path)
		}
		cur = next
	}
	return cur, nil
}

func args(op string, arg any, want int) ([]any, error) {
	list, ok := arg.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %q requires an argument list", ErrInvalidExpression, op)
	}
	if want > 0 && len(list) != want {
		return nil, fmt.Errorf("%w: %q requires %d arguments, got %d", ErrInvalidExpression, op, want, len(list))
	}
	return list, nil
}

func evalEquality(op string, arg any, ctx map[string]any) (any, error) {
	list, err := args(op, arg, 2)
	if err != nil {
		return nil, err
	}
	left, err := eval(list[0], ctx)
	if err != nil {
		return nil, err
	}
	right, err := eval(list[1], ctx)
	if err != nil {
		return nil, err
	}
	eq, err := scalarEqual(op, left, right)
	if err != nil {
		return nil, err
	}
	if op == "!=" {
		return !eq, nil
	}
	return eq, nil
}

func scalarEqual(op string, a, b any) (bool, error) {
	// Equality is defined over the language's scalars only. Arrays and
	// objects pass through eval as literals, but comparing them with == on
	// the interface values would panic, so they are rejected here.
	if !comparableScalar(a) {
		return false, fmt.Errorf("%w: %q operand evaluates to %T, want scalar", ErrInvalidExpression, op, a)
	}
	if !comparableScalar(b) {
		return false, fmt.Errorf("%w: %q operand evaluates to %T, want scalar", ErrInvalidExpression, op, b)
	}
	if a == nil || b == nil {
		return a == nil && b == nil, nil
	}
	// Numbers always decode as float64, so direct comparison is safe for
	// every scalar the language produces.
	return a == b, nil
}

func comparableScalar(v any) bool {
	switch v.(type) {
	case nil, bool, float64, string:
		return true
	default:
		return false
	}
}

func evalComparison(op string, arg any, ctx map[string]any) (any, error) {
	list, err := args(op, arg, 2)
	if err != nil {
		return nil, err
	}
	left, err := evalNumber(list[0], ctx, op)
	if err != nil {
		return nil, err
	}
	right, err := evalNumber(list[1], ctx, op)
	if err != nil {
		return nil, err
	}
	switch op {
	case "<":
		return left < right, nil
	case ">":
		return left > right, nil
	case "<=":
		return left <= right, nil
	default:
		return left >= right, nil
	}
}

func evalNumber(node any, ctx map[string]any, op string) (float64, error) {
	out, err := eval(node, ctx)
	if err != nil {
		return 0, err
	}
	f, ok := out.(float64)
	if !ok {
		return 0, fmt.Errorf("%w: %q operand evaluates to %T, want number", ErrInvalidExpression, op, out)
	}
	return f, nil
}

func evalLogical(op string, arg any, ctx map[string]any) (any, error) {
	list, err := args(op, arg, 0)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: %q requires at least one argument", ErrInvalidExpression, op)
	}
	for _, item := range list {
		out, err := eval(item, ctx)
		if err != nil {
			return nil, err
		}
		b, ok := out.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: %q operand evaluates to %T, want bool", ErrInvalidExpression, op, out)
		}
		if op == "and" && !b {
			return false, nil
		}
		if op == "or" && b {
			return true, nil
		}
	}
	return op == "and", nil
}

func evalNot(arg any, ctx map[string]any) (any, error) {
	operand := arg
	if list, ok := arg.([]any); ok {
		if len(list) != 1 {
			return nil, fmt.Errorf("%w: %q requires exactly one argument", ErrInvalidExpression, "!")
		}
		operand = list[0]
	}
	out, err := eval(operand, ctx)
	if err != nil {
		return nil, err
	}
	b, ok := out.(bool)
	if !ok {
		return nil, fmt.Errorf("%w: %q operand evaluates to %T, want bool", ErrInvalidExpression, "!", out)
	}
	return !b, nil
}

func evalIf(arg any, ctx map[string]any) (any, error) {
	list, err := args("if", arg, 3)
	if err != nil {
		return nil, err
	}
	cond, err := eval(list[0], ctx)
	if err != nil {
		return nil, err
	}
	b, ok := cond.(bool)
	if !ok {
		return nil, fmt.Errorf("%w: %q condition evaluates to %T, want bool", ErrInvalidExpression, "if", cond)
	}
	if b {
		return eval(list[1], ctx)
	}
	return eval(list[2], ctx)
}

func evalStrlen(arg any, ctx map[string]any) (any, error) {
	operand := arg
	if list, ok := arg.([]any); ok {
		if len(list) != 1 {
			return nil, fmt.Errorf("%w: %q requires exactly one argument", ErrInvalidExpression, "strlen")
		}
		operand = list[0]
	}
	out, err := eval(operand, ctx)
	if err != nil {
		return nil, err
	}
	s, ok := out.(string)
	if !ok {
		return nil, fmt.Errorf("%w: %q operand evaluates to %T, want string", ErrInvalidExpression, "strlen", out)
	}
	return float64(len([]rune(s))), nil
}
