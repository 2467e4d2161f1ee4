// Copyright 2020-2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package expression

import (
	"github.com/dolthub/go-query-compiler/sql"
)

// IsUnary returns whether the expression is unary or not.
func IsUnary(e sql.Expression) bool {
	return len(e.Children()) == 1
}

// IsBinary returns whether the expression is binary or not.
func IsBinary(e sql.Expression) bool {
	return len(e.Children()) == 2
}

// UnaryExpression is an expression that has only one child.
type UnaryExpression struct {
	Child sql.Expression
}

// Children implements the Expression interface.
func (p *UnaryExpression) Children() []sql.Expression {
	return []sql.Expression{p.Child}
}

// Resolved implements the Expression interface.
func (p *UnaryExpression) Resolved() bool {
	return p.Child.Resolved()
}

// IsNullable returns whether the expression can be null.
func (p *UnaryExpression) IsNullable() bool {
	return p.Child.IsNullable()
}

// BinaryExpression is an expression that has two children.
type BinaryExpression struct {
	Left  sql.Expression
	Right sql.Expression
}

// Children implements the Expression interface.
func (p *BinaryExpression) Children() []sql.Expression {
	return []sql.Expression{p.Left, p.Right}
}

// Resolved implements the Expression interface.
func (p *BinaryExpression) Resolved() bool {
	return p.Left.Resolved() && p.Right.Resolved()
}

// IsNullable returns whether the expression can be null.
func (p *BinaryExpression) IsNullable() bool {
	return p.Left.IsNullable() || p.Right.IsNullable()
}

// Receiver identifies the operand on which the runtime method of a binary
// operator is invoked.
type Receiver byte

const (
	// ReceiverUnset is the receiver of an unbound operator.
	ReceiverUnset Receiver = iota
	ReceiverLeft
	ReceiverRight
)

func (r Receiver) String() string {
	switch r {
	case ReceiverLeft:
		return "left"
	case ReceiverRight:
		return "right"
	default:
		return "unset"
	}
}

// chooseReceiver picks the operand whose type has the strictly higher
// precedence. Ties go to the left operand.
func chooseReceiver(ts sql.TypeService, left, right sql.Type) Receiver {
	if ts.Precedence(right) > ts.Precedence(left) {
		return ReceiverRight
	}
	return ReceiverLeft
}

func booleanType(nullable bool) sql.Type {
	return sql.NewType(sql.Boolean).WithNullable(nullable)
}

// isUntypedParameter reports whether e is a parameter that has not been
// given a type yet.
func isUntypedParameter(e sql.Expression) bool {
	p, ok := e.(*Parameter)
	return ok && p.Type().IsUnknown()
}

// isUntypedNull reports whether e is a NULL literal with no type.
func isUntypedNull(e sql.Expression) bool {
	l, ok := e.(*Literal)
	return ok && l.IsUntypedNull()
}

// isUntyped reports whether e still needs a type from its context.
func isUntyped(e sql.Expression) bool {
	return isUntypedParameter(e) || isUntypedNull(e)
}

// withInferredType gives an untyped parameter or NULL literal the type t.
// Other expressions are returned unchanged.
func withInferredType(e sql.Expression, t sql.Type) sql.Expression {
	switch e := e.(type) {
	case *Parameter:
		if e.Type().IsUnknown() {
			return e.WithType(t.WithNullable(true))
		}
	case *Literal:
		if e.IsUntypedNull() {
			return e.WithType(t.WithNullable(true))
		}
	}
	return e
}

// isConstant reports whether e is a literal or a parameter.
func isConstant(e sql.Expression) bool {
	switch e.(type) {
	case *Literal, *Parameter:
		return true
	}
	return false
}

// constantString returns the value of a non-NULL character string literal.
func constantString(e sql.Expression) (string, bool) {
	l, ok := e.(*Literal)
	if !ok || l.Value() == nil || !l.Type().ID.IsString() {
		return "", false
	}
	s, ok := l.Value().(string)
	return s, ok
}

// newComparison builds a bound comparison, choosing its receiver.
func newComparison(ts sql.TypeService, op ComparisonOp, left, right sql.Expression) *Comparison {
	c := NewComparison(op, left, right)
	c.Receiver = chooseReceiver(ts, left.Type(), right.Type())
	c.typ = booleanType(left.IsNullable() || right.IsNullable())
	return c
}

// newAnd builds a bound conjunction.
func newAnd(left, right sql.Expression) *And {
	a := NewAnd(left, right).(*And)
	a.typ = booleanType(left.IsNullable() || right.IsNullable())
	return a
}

// newOr builds a bound disjunction.
func newOr(left, right sql.Expression) *Or {
	o := NewOr(left, right).(*Or)
	o.typ = booleanType(left.IsNullable() || right.IsNullable())
	return o
}

// dominantOf folds the dominant type over a list of expressions, ignoring
// untyped ones.
func dominantOf(ts sql.TypeService, exprs ...sql.Expression) sql.Type {
	var t sql.Type
	for _, e := range exprs {
		if isUntyped(e) {
			continue
		}
		t = ts.DominantType(t, e.Type())
	}
	return t
}
