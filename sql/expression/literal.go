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
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dolthub/go-query-compiler/sql"
	"github.com/dolthub/go-query-compiler/sql/types"
)

// Literal represents a constant. A NULL literal with the unknown type is
// untyped until binding reconciles it with a sibling operand.
type Literal struct {
	value interface{}
	typ   sql.Type
	Pos   sql.Pos
}

var _ sql.Expression = (*Literal)(nil)

// NewLiteral creates a new Literal expression.
func NewLiteral(value interface{}, typ sql.Type) *Literal {
	if value != nil {
		typ = typ.WithNullable(false)
	}
	return &Literal{value: value, typ: typ}
}

// NewConstant creates a literal typed after its Go value.
func NewConstant(value interface{}) *Literal {
	return NewLiteral(value, types.TypeFromValue(value))
}

// NewNullLiteral creates an untyped NULL.
func NewNullLiteral() *Literal {
	return &Literal{typ: sql.Type{Nullable: true}}
}

// Value returns the literal value.
func (l *Literal) Value() interface{} {
	return l.value
}

// IsNull reports whether the literal is NULL.
func (l *Literal) IsNull() bool {
	return l.value == nil
}

// IsUntypedNull reports whether the literal is a NULL that has not been
// given a type.
func (l *Literal) IsUntypedNull() bool {
	return l.value == nil && l.typ.IsUnknown()
}

// WithType returns a copy of the literal with the given type.
func (l *Literal) WithType(t sql.Type) *Literal {
	nl := *l
	nl.typ = t
	if nl.value != nil {
		nl.typ.Nullable = false
	}
	return &nl
}

// Resolved implements the Expression interface.
func (l *Literal) Resolved() bool {
	return true
}

// IsNullable implements the Expression interface.
func (l *Literal) IsNullable() bool {
	return l.value == nil
}

// Type implements the Expression interface.
func (l *Literal) Type() sql.Type {
	return l.typ
}

func (l *Literal) String() string {
	switch v := l.value.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	case time.Time:
		return fmt.Sprintf("%s '%s'", l.typ.ID, types.FormatDateTime(l.typ.ID, v))
	case decimal.Decimal:
		return v.String()
	case []byte:
		return fmt.Sprintf("X'%X'", v)
	default:
		return fmt.Sprint(v)
	}
}

// Children implements the Expression interface.
func (*Literal) Children() []sql.Expression {
	return nil
}

// WithChildren implements the Expression interface.
func (l *Literal) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvalidChildrenNumber.New(l, len(children), 0)
	}
	return l, nil
}

// Parameter is a ? placeholder. It takes its type from the operator it
// appears in.
type Parameter struct {
	// Index is the 0-based position of the parameter in the statement.
	Index int
	// Probe marks the placeholder of a probe predicate, which is bound to
	// each value of an IN list in turn.
	Probe bool
	typ   sql.Type
	Pos   sql.Pos
}

var _ sql.Expression = (*Parameter)(nil)

// NewParameter creates an untyped parameter.
func NewParameter(index int) *Parameter {
	return &Parameter{Index: index, typ: sql.Type{Nullable: true}}
}

// NewTypedParameter creates a parameter of a known type.
func NewTypedParameter(index int, t sql.Type) *Parameter {
	return &Parameter{Index: index, typ: t}
}

// WithType returns a copy of the parameter with the given type.
func (p *Parameter) WithType(t sql.Type) *Parameter {
	np := *p
	np.typ = t
	return &np
}

// Resolved implements the Expression interface.
func (*Parameter) Resolved() bool {
	return true
}

// IsNullable implements the Expression interface.
func (*Parameter) IsNullable() bool {
	return true
}

// Type implements the Expression interface.
func (p *Parameter) Type() sql.Type {
	return p.typ
}

func (p *Parameter) String() string {
	if p.Probe {
		return "?probe"
	}
	return "?"
}

// Children implements the Expression interface.
func (*Parameter) Children() []sql.Expression {
	return nil
}

// WithChildren implements the Expression interface.
func (p *Parameter) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvalidChildrenNumber.New(p, len(children), 0)
	}
	return p, nil
}
