package filter

import "github.com/lexidb/lexidb/pkg/types"

// Expr is a node of the parsed filter AST.
type Expr interface {
	isExpr()
}

// Compare is a single field comparison: field OP value.
type Compare struct {
	Field string
	Op    string // "=", "!=", "<", "<=", ">", ">="
	Value Value
}

// In is `field IN [v1, v2, ...]`.
type In struct {
	Field  string
	Values []Value
}

// Exists is `field EXISTS` or, with Negate, `field NOT EXISTS`.
type Exists struct {
	Field  string
	Negate bool
}

// And/Or/Not compose sub-expressions.
type And struct{ Left, Right Expr }
type Or struct{ Left, Right Expr }
type Not struct{ Inner Expr }

func (Compare) isExpr() {}
func (In) isExpr()      {}
func (Exists) isExpr()  {}
func (And) isExpr()     {}
func (Or) isExpr()      {}
func (Not) isExpr()     {}

// Value is a parsed filter literal: exactly one of Str/Num is set,
// distinguished by IsNumber.
type Value struct {
	Str      string
	Num      float64
	IsNumber bool
}

func stringValue(s string) Value { return Value{Str: s} }
func numberValue(n float64) Value { return Value{Num: n, IsNumber: true} }

// RequiredFields walks expr and returns every field name a Compare, In,
// or Exists leaf references, deduplicated, used to resolve field ids up
// front before evaluating against the facet stores.
func RequiredFields(expr Expr) []string {
	seen := map[string]struct{}{}
	var walk func(Expr)
	walk = func(e Expr) {
		switch t := e.(type) {
		case Compare:
			seen[t.Field] = struct{}{}
		case In:
			seen[t.Field] = struct{}{}
		case Exists:
			seen[t.Field] = struct{}{}
		case And:
			walk(t.Left)
			walk(t.Right)
		case Or:
			walk(t.Left)
			walk(t.Right)
		case Not:
			walk(t.Inner)
		}
	}
	walk(expr)
	fields := make([]string, 0, len(seen))
	for f := range seen {
		fields = append(fields, f)
	}
	return fields
}

// validateAttributes checks every referenced field is filterable,
// matching §7's ErrAttributeNotFilterable.
func validateAttributes(expr Expr, filterable []string) error {
	allowed := map[string]struct{}{}
	for _, f := range filterable {
		allowed[f] = struct{}{}
	}
	for _, f := range RequiredFields(expr) {
		if _, ok := allowed[f]; !ok {
			return types.ErrAttributeNotFilterable
		}
	}
	return nil
}
