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

	"github.com/dolthub/go-query-compiler/sql"
)

// AggregateFunc identifies an aggregate function.
type AggregateFunc byte

const (
	Count AggregateFunc = iota
	CountStar
	Sum
	Avg
	Min
	Max
)

func (f AggregateFunc) String() string {
	switch f {
	case Count, CountStar:
		return "COUNT"
	case Sum:
		return "SUM"
	case Avg:
		return "AVG"
	case Min:
		return "MIN"
	default:
		return "MAX"
	}
}

// Aggregator returns the name of the runtime class accumulating the
// function.
func (f AggregateFunc) Aggregator() string {
	switch f {
	case Count:
		return "CountAggregator"
	case CountStar:
		return "CountStarAggregator"
	case Sum:
		return "SumAggregator"
	case Avg:
		return "AvgAggregator"
	default:
		return "MaxMinAggregator"
	}
}

// Aggregate is an aggregate function application. Child is nil for
// COUNT(*).
type Aggregate struct {
	Func     AggregateFunc
	Child    sql.Expression
	Distinct bool
	typ      sql.Type
}

var _ sql.Expression = (*Aggregate)(nil)

// NewAggregate creates a new aggregate expression.
func NewAggregate(fn AggregateFunc, child sql.Expression, distinct bool) *Aggregate {
	return &Aggregate{Func: fn, Child: child, Distinct: distinct}
}

// NewCountStar creates a COUNT(*) expression.
func NewCountStar() *Aggregate {
	return &Aggregate{Func: CountStar}
}

// Resolved implements the Expression interface.
func (a *Aggregate) Resolved() bool {
	return !a.typ.IsUnknown() && (a.Child == nil || a.Child.Resolved())
}

// Type implements the Expression interface.
func (a *Aggregate) Type() sql.Type {
	return a.typ
}

// IsNullable implements the Expression interface.
func (a *Aggregate) IsNullable() bool {
	return a.typ.Nullable
}

func (a *Aggregate) String() string {
	if a.Child == nil {
		return "COUNT(*)"
	}
	var sb strings.Builder
	sb.WriteString(a.Func.String())
	sb.WriteRune('(')
	if a.Distinct {
		sb.WriteString("DISTINCT ")
	}
	sb.WriteString(a.Child.String())
	sb.WriteRune(')')
	return sb.String()
}

// Children implements the Expression interface.
func (a *Aggregate) Children() []sql.Expression {
	if a.Child == nil {
		return nil
	}
	return []sql.Expression{a.Child}
}

// WithChildren implements the Expression interface.
func (a *Aggregate) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	n := len(a.Children())
	if len(children) != n {
		return nil, sql.ErrInvalidChildrenNumber.New(a, len(children), n)
	}
	na := *a
	if n == 1 {
		na.Child = children[0]
	}
	return &na, nil
}

// MethodCall is a call of a user defined function.
type MethodCall struct {
	Name string
	Args []sql.Expression
	// Deterministic functions return the same result for the same
	// arguments.
	Deterministic bool
	typ           sql.Type
}

var _ sql.Expression = (*MethodCall)(nil)

// NewMethodCall creates a call of a function returning returnType.
func NewMethodCall(name string, returnType sql.Type, args ...sql.Expression) *MethodCall {
	return &MethodCall{Name: name, Args: args, typ: returnType}
}

// Resolved implements the Expression interface.
func (m *MethodCall) Resolved() bool {
	for _, a := range m.Args {
		if !a.Resolved() {
			return false
		}
	}
	return true
}

// Type implements the Expression interface.
func (m *MethodCall) Type() sql.Type {
	return m.typ
}

// IsNullable implements the Expression interface.
func (m *MethodCall) IsNullable() bool {
	return m.typ.Nullable
}

func (m *MethodCall) String() string {
	return fmt.Sprintf("%s%s", m.Name, listString(m.Args))
}

// Children implements the Expression interface.
func (m *MethodCall) Children() []sql.Expression {
	return m.Args
}

// WithChildren implements the Expression interface.
func (m *MethodCall) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != len(m.Args) {
		return nil, sql.ErrInvalidChildrenNumber.New(m, len(children), len(m.Args))
	}
	nm := *m
	nm.Args = append([]sql.Expression(nil), children...)
	return &nm, nil
}
