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
	"fmt"

	"github.com/dolthub/go-query-compiler/sql"
)

// And checks whether two expressions are true.
type And struct {
	BinaryExpression
	typ sql.Type
}

var _ sql.Expression = (*And)(nil)

// NewAnd creates a new And expression.
func NewAnd(left, right sql.Expression) sql.Expression {
	return &And{BinaryExpression: BinaryExpression{Left: left, Right: right}}
}

// JoinAnd joins several expressions with And.
func JoinAnd(exprs ...sql.Expression) sql.Expression {
	switch len(exprs) {
	case 0:
		return nil
	case 1:
		return exprs[0]
	default:
		result := newAnd(exprs[0], exprs[1])
		for _, e := range exprs[2:] {
			result = newAnd(result, e)
		}
		return result
	}
}

// SplitConjunction breaks AND expressions into their left and right parts,
// recursively.
func SplitConjunction(expr sql.Expression) []sql.Expression {
	and, ok := expr.(*And)
	if !ok {
		return []sql.Expression{expr}
	}

	return append(
		SplitConjunction(and.Left),
		SplitConjunction(and.Right)...,
	)
}

// Type implements the Expression interface.
func (a *And) Type() sql.Type {
	if a.typ.IsUnknown() {
		return booleanType(a.BinaryExpression.IsNullable())
	}
	return a.typ
}

func (a *And) String() string {
	return fmt.Sprintf("(%s AND %s)", a.Left, a.Right)
}

// WithChildren implements the Expression interface.
func (a *And) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 2 {
		return nil, sql.ErrInvalidChildrenNumber.New(a, len(children), 2)
	}
	na := *a
	na.Left, na.Right = children[0], children[1]
	return &na, nil
}

// Or checks whether one of the two given expressions is true.
type Or struct {
	BinaryExpression
	typ sql.Type
}

var _ sql.Expression = (*Or)(nil)

// NewOr creates a new Or expression.
func NewOr(left, right sql.Expression) sql.Expression {
	return &Or{BinaryExpression: BinaryExpression{Left: left, Right: right}}
}

// Type implements the Expression interface.
func (o *Or) Type() sql.Type {
	if o.typ.IsUnknown() {
		return booleanType(o.BinaryExpression.IsNullable())
	}
	return o.typ
}

func (o *Or) String() string {
	return fmt.Sprintf("(%s OR %s)", o.Left, o.Right)
}

// WithChildren implements the Expression interface.
func (o *Or) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 2 {
		return nil, sql.ErrInvalidChildrenNumber.New(o, len(children), 2)
	}
	no := *o
	no.Left, no.Right = children[0], children[1]
	return &no, nil
}

// Not is a node that negates an expression.
type Not struct {
	UnaryExpression
}

var _ sql.Expression = (*Not)(nil)

// NewNot returns a new Not node.
func NewNot(child sql.Expression) *Not {
	return &Not{UnaryExpression{child}}
}

// Type implements the Expression interface.
func (n *Not) Type() sql.Type {
	return booleanType(n.Child.IsNullable())
}

func (n *Not) String() string {
	return fmt.Sprintf("NOT(%s)", n.Child)
}

// WithChildren implements the Expression interface.
func (n *Not) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvalidChildrenNumber.New(n, len(children), 1)
	}
	return NewNot(children[0]), nil
}

// IsNull checks whether an expression is NULL, or is not NULL when Negated.
type IsNull struct {
	UnaryExpression
	Negated bool
}

var _ sql.Expression = (*IsNull)(nil)

// NewIsNull creates a new IS NULL expression.
func NewIsNull(child sql.Expression) *IsNull {
	return &IsNull{UnaryExpression: UnaryExpression{child}}
}

// NewIsNotNull creates a new IS NOT NULL expression.
func NewIsNotNull(child sql.Expression) *IsNull {
	return &IsNull{UnaryExpression: UnaryExpression{child}, Negated: true}
}

// Type implements the Expression interface.
func (*IsNull) Type() sql.Type {
	return booleanType(false)
}

// IsNullable implements the Expression interface.
func (*IsNull) IsNullable() bool {
	return false
}

func (e *IsNull) String() string {
	if e.Negated {
		return e.Child.String() + " IS NOT NULL"
	}
	return e.Child.String() + " IS NULL"
}

// WithChildren implements the Expression interface.
func (e *IsNull) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvalidChildrenNumber.New(e, len(children), 1)
	}
	return &IsNull{UnaryExpression: UnaryExpression{children[0]}, Negated: e.Negated}, nil
}

// Cast converts the value of its child to Target.
type Cast struct {
	UnaryExpression
	Target sql.Type
	// Implicit marks casts added by binding, which are not shown in the
	// statement text.
	Implicit bool
}

var _ sql.Expression = (*Cast)(nil)

// NewCast creates a new cast expression.
func NewCast(child sql.Expression, target sql.Type) *Cast {
	return &Cast{UnaryExpression: UnaryExpression{child}, Target: target}
}

// Type implements the Expression interface.
func (c *Cast) Type() sql.Type {
	return c.Target.WithNullable(c.Child.IsNullable())
}

// IsNullable implements the Expression interface.
func (c *Cast) IsNullable() bool {
	return c.Child.IsNullable()
}

func (c *Cast) String() string {
	if c.Implicit {
		return c.Child.String()
	}
	return fmt.Sprintf("CAST(%s AS %s)", c.Child, c.Target)
}

// WithChildren implements the Expression interface.
func (c *Cast) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvalidChildrenNumber.New(c, len(children), 1)
	}
	nc := *c
	nc.Child = children[0]
	return &nc, nil
}
