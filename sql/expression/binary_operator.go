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

// BinaryOp is the operator of a BinaryOperator.
type BinaryOp byte

const (
	Plus BinaryOp = iota
	Minus
	Times
	Divide
	Concatenate
	// XMLExists tests whether an XML query returns any item.
	XMLExists
	// XMLQuery evaluates an XML query against a context item.
	XMLQuery
)

var binaryOps = []struct {
	symbol string
	method string
}{
	Plus:        {"+", "plus"},
	Minus:       {"-", "minus"},
	Times:       {"*", "times"},
	Divide:      {"/", "divide"},
	Concatenate: {"||", "concatenate"},
	XMLExists:   {"XMLEXISTS", "XMLExists"},
	XMLQuery:    {"XMLQUERY", "XMLQuery"},
}

func (op BinaryOp) String() string {
	return binaryOps[op].symbol
}

// Method returns the name of the runtime method implementing the operator.
func (op BinaryOp) Method() string {
	return binaryOps[op].method
}

// IsXML reports whether the operator is an XML operator.
func (op BinaryOp) IsXML() bool {
	return op == XMLExists || op == XMLQuery
}

// BinaryOperator is an arithmetic, concatenation or XML operator. For XML
// operators Left is the query text and Right the context item.
type BinaryOperator struct {
	BinaryExpression
	Op       BinaryOp
	Receiver Receiver
	typ      sql.Type
}

var _ sql.Expression = (*BinaryOperator)(nil)

// NewBinaryOperator creates an unbound operator.
func NewBinaryOperator(op BinaryOp, left, right sql.Expression) *BinaryOperator {
	return &BinaryOperator{
		BinaryExpression: BinaryExpression{Left: left, Right: right},
		Op:               op,
	}
}

// NewPlus creates a + operator.
func NewPlus(left, right sql.Expression) *BinaryOperator {
	return NewBinaryOperator(Plus, left, right)
}

// NewMinus creates a - operator.
func NewMinus(left, right sql.Expression) *BinaryOperator {
	return NewBinaryOperator(Minus, left, right)
}

// NewTimes creates a * operator.
func NewTimes(left, right sql.Expression) *BinaryOperator {
	return NewBinaryOperator(Times, left, right)
}

// NewDivide creates a / operator.
func NewDivide(left, right sql.Expression) *BinaryOperator {
	return NewBinaryOperator(Divide, left, right)
}

// NewConcat creates a || operator.
func NewConcat(left, right sql.Expression) *BinaryOperator {
	return NewBinaryOperator(Concatenate, left, right)
}

// Resolved implements the Expression interface.
func (b *BinaryOperator) Resolved() bool {
	return b.Receiver != ReceiverUnset && b.BinaryExpression.Resolved()
}

// Type implements the Expression interface.
func (b *BinaryOperator) Type() sql.Type {
	return b.typ
}

// IsNullable implements the Expression interface.
func (b *BinaryOperator) IsNullable() bool {
	return b.typ.Nullable || b.BinaryExpression.IsNullable()
}

func (b *BinaryOperator) String() string {
	if b.Op.IsXML() {
		return fmt.Sprintf("%s(%s PASSING BY REF %s)", b.Op, b.Left, b.Right)
	}
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

// WithChildren implements the Expression interface.
func (b *BinaryOperator) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 2 {
		return nil, sql.ErrInvalidChildrenNumber.New(b, len(children), 2)
	}
	nb := *b
	nb.Left, nb.Right = children[0], children[1]
	return &nb, nil
}

// ComparisonOp is the operator of a Comparison.
type ComparisonOp byte

const (
	Equals ComparisonOp = iota
	NotEquals
	LessThan
	LessThanOrEqual
	GreaterThan
	GreaterThanOrEqual
)

var comparisonOps = []struct {
	symbol string
	method string
}{
	Equals:             {"=", "equals"},
	NotEquals:          {"<>", "notEquals"},
	LessThan:           {"<", "lessThan"},
	LessThanOrEqual:    {"<=", "lessOrEquals"},
	GreaterThan:        {">", "greaterThan"},
	GreaterThanOrEqual: {">=", "greaterOrEquals"},
}

func (op ComparisonOp) String() string {
	return comparisonOps[op].symbol
}

// Method returns the name of the runtime method implementing the operator.
func (op ComparisonOp) Method() string {
	return comparisonOps[op].method
}

// Negate returns the operator of the negated comparison.
func (op ComparisonOp) Negate() ComparisonOp {
	switch op {
	case Equals:
		return NotEquals
	case NotEquals:
		return Equals
	case LessThan:
		return GreaterThanOrEqual
	case LessThanOrEqual:
		return GreaterThan
	case GreaterThan:
		return LessThanOrEqual
	default:
		return LessThan
	}
}

// Swap returns the operator with its operands exchanged.
func (op ComparisonOp) Swap() ComparisonOp {
	switch op {
	case LessThan:
		return GreaterThan
	case LessThanOrEqual:
		return GreaterThanOrEqual
	case GreaterThan:
		return LessThan
	case GreaterThanOrEqual:
		return LessThanOrEqual
	default:
		return op
	}
}

// IsRange reports whether the operator is an inequality usable as a scan
// bound.
func (op ComparisonOp) IsRange() bool {
	return op >= LessThan
}

// Comparison is a binary comparison. When Probe is set the comparison is the
// probe predicate standing for that IN list: its right operand is a
// placeholder bound to each of the list values in turn.
type Comparison struct {
	BinaryExpression
	Op       ComparisonOp
	Receiver Receiver
	Probe    *InList
	typ      sql.Type
}

var _ sql.Expression = (*Comparison)(nil)

// NewComparison creates an unbound comparison.
func NewComparison(op ComparisonOp, left, right sql.Expression) *Comparison {
	return &Comparison{
		BinaryExpression: BinaryExpression{Left: left, Right: right},
		Op:               op,
	}
}

// NewEquals creates an equality comparison.
func NewEquals(left, right sql.Expression) *Comparison {
	return NewComparison(Equals, left, right)
}

// NewNotEquals creates an inequality comparison.
func NewNotEquals(left, right sql.Expression) *Comparison {
	return NewComparison(NotEquals, left, right)
}

// NewLessThan creates a < comparison.
func NewLessThan(left, right sql.Expression) *Comparison {
	return NewComparison(LessThan, left, right)
}

// NewGreaterThan creates a > comparison.
func NewGreaterThan(left, right sql.Expression) *Comparison {
	return NewComparison(GreaterThan, left, right)
}

// NewLessThanOrEqual creates a <= comparison.
func NewLessThanOrEqual(left, right sql.Expression) *Comparison {
	return NewComparison(LessThanOrEqual, left, right)
}

// NewGreaterThanOrEqual creates a >= comparison.
func NewGreaterThanOrEqual(left, right sql.Expression) *Comparison {
	return NewComparison(GreaterThanOrEqual, left, right)
}

// IsProbe reports whether the comparison is a probe predicate.
func (c *Comparison) IsProbe() bool {
	return c.Probe != nil
}

// Resolved implements the Expression interface.
func (c *Comparison) Resolved() bool {
	return c.Receiver != ReceiverUnset && c.BinaryExpression.Resolved()
}

// Type implements the Expression interface.
func (c *Comparison) Type() sql.Type {
	if c.typ.IsUnknown() {
		return booleanType(true)
	}
	return c.typ
}

func (c *Comparison) String() string {
	if c.Probe != nil {
		return fmt.Sprintf("%s = %s IN %s", c.Left, c.Right, listString(c.Probe.List))
	}
	return fmt.Sprintf("%s %s %s", c.Left, c.Op, c.Right)
}

// WithChildren implements the Expression interface.
func (c *Comparison) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 2 {
		return nil, sql.ErrInvalidChildrenNumber.New(c, len(children), 2)
	}
	nc := *c
	nc.Left, nc.Right = children[0], children[1]
	return &nc, nil
}
