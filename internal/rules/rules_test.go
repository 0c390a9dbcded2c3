package rules

import (
	"errors"
	"testing"
)

func TestCheckEquality(t *testing.T) {
	expr := []byte(`{"==":[{"var":"text"},"Water"]}`)

	if err := Check(expr, map[string]any{"text": "Water"}); err != nil {
		t.Fatalf("Check match: %v", err)
	}

	err := Check(expr, map[string]any{"text": "Fire"})
	if !errors.Is(err, ErrPredicateNotSatisfied) {
		t.Fatalf("Check mismatch: got %v, want predicate failure", err)
	}
}

func TestCheckIfMessage(t *testing.T) {
	expr := []byte(`{"if":[{"==":[{"var":"text"},"Water"]},true,"You must type 'Water'!"]}`)

	if err := Check(expr, map[string]any{"text": "Water"}); err != nil {
		t.Fatalf("Check satisfied: %v", err)
	}

	err := Check(expr, map[string]any{"text": "Fire"})
	var pe *PredicateError
	if !errors.As(err, &pe) {
		t.Fatalf("Check rejection: got %v, want *PredicateError", err)
	}
	if pe.Message != "You must type 'Water'!" {
		t.Fatalf("Check rejection message: got %q", pe.Message)
	}
}

func TestCheckStrlen(t *testing.T) {
	expr := []byte(`{">=":[{"strlen":{"var":"text"}},10]}`)

	if err := Check(expr, map[string]any{"text": "long enough text"}); err != nil {
		t.Fatalf("Check long: %v", err)
	}
	if err := Check(expr, map[string]any{"text": "short"}); !errors.Is(err, ErrPredicateNotSatisfied) {
		t.Fatalf("Check short: got %v", err)
	}
}

func TestCheckLogical(t *testing.T) {
	expr := []byte(`{"and":[{"==":[{"var":"text"},"a"]},{"!":[{"==":[{"var":"text"},"b"]}]}]}`)
	if err := Check(expr, map[string]any{"text": "a"}); err != nil {
		t.Fatalf("and: %v", err)
	}

	expr = []byte(`{"or":[{"==":[{"var":"text"},"x"]},{"==":[{"var":"text"},"y"]}]}`)
	if err := Check(expr, map[string]any{"text": "z"}); !errors.Is(err, ErrPredicateNotSatisfied) {
		t.Fatalf("or: got %v", err)
	}
}

func TestCheckDottedPath(t *testing.T) {
	expr := []byte(`{"==":[{"var":"melding.text"},"ok"]}`)
	ctx := map[string]any{"melding": map[string]any{"text": "ok"}}
	if err := Check(expr, ctx); err != nil {
		t.Fatalf("dotted path: %v", err)
	}
}

func TestInvalidExpressions(t *testing.T) {
	cases := []struct {
		name string
		expr string
		ctx  map[string]any
	}{
		{"unknown operator", `{"frob":[1,2]}`, map[string]any{}},
		{"missing variable", `{"==":[{"var":"nope"},"x"]}`, map[string]any{"text": "x"}},
		{"non-boolean root", `{"strlen":{"var":"text"}}`, map[string]any{"text": "abc"}},
		{"multi-key node", `{"==":[1,1],"!=":[1,2]}`, map[string]any{}},
		{"comparison on string", `{"<":[{"var":"text"},5]}`, map[string]any{"text": "abc"}},
		{"bad json", `{"==":`, map[string]any{}},
		{"if condition not bool", `{"if":["yes",true,false]}`, map[string]any{}},
		{"equality on arrays", `{"==":[[1,2],[1,2]]}`, map[string]any{}},
		{"equality on objects", `{"==":[{"var":"loc"},{"var":"loc"}]}`, map[string]any{"loc": map[string]any{"lat": 52.0}}},
		{"inequality on array", `{"!=":[[1],"x"]}`, map[string]any{}},
	}
	for _, tc := range cases {
		if err := Check([]byte(tc.expr), tc.ctx); !errors.Is(err, ErrInvalidExpression) {
			t.Fatalf("%s: got %v, want ErrInvalidExpression", tc.name, err)
		}
	}
}

func TestEvaluateLiteralPassthrough(t *testing.T) {
	out, err := Evaluate([]byte(`"plain"`), nil)
	if err != nil || out != "plain" {
		t.Fatalf("literal: out=%v err=%v", out, err)
	}
	out, err = Evaluate([]byte(`{"if":[true,1,2]}`), nil)
	if err != nil || out != float64(1) {
		t.Fatalf("if literal branch: out=%v err=%v", out, err)
	}
}
