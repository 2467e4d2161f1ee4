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
	"strings"

	"github.com/dolthub/go-query-compiler/sql"
)

// Categorize adds the numbers of the tables e references to tables and
// reports whether e can be pushed down as a predicate. With simple set,
// function calls are not pushable. Every operand is visited even after one
// of them turns out not to be pushable, so that tables is complete.
func Categorize(e sql.Expression, tables *sql.TableSet, simple bool) bool {
	switch e := e.(type) {
	case *ColumnReference:
		if e.TableNumber >= 0 {
			tables.Add(e.TableNumber)
		}
		return !e.Correlated()
	case *BaseColumn:
		tables.Add(e.TableNumber)
		return true
	case *Literal, *Parameter, *VirtualColumn:
		return true
	case *Aggregate:
		categorizeChildren(e, tables, simple)
		return false
	case *MethodCall:
		pushable := categorizeChildren(e, tables, simple)
		return pushable && !simple
	default:
		return categorizeChildren(e, tables, simple)
	}
}

func categorizeChildren(e sql.Expression, tables *sql.TableSet, simple bool) bool {
	pushable := true
	for _, c := range e.Children() {
		pushable = Categorize(c, tables, simple) && pushable
	}
	return pushable
}

// ReferencedTables returns the tables referenced by e.
func ReferencedTables(e sql.Expression) sql.TableSet {
	var tables sql.TableSet
	Categorize(e, &tables, false)
	return tables
}

// Clone returns a deep copy of e. Column references in the copy have their
// own remap history.
func Clone(e sql.Expression) sql.Expression {
	switch e := e.(type) {
	case nil:
		return nil
	case *ColumnReference:
		return e.copy()
	case *Literal:
		nl := *e
		return &nl
	case *Parameter:
		np := *e
		return &np
	case *VirtualColumn:
		nv := *e
		return &nv
	case *BaseColumn:
		nb := *e
		return &nb
	case *Comparison:
		nc := *e
		nc.Left, nc.Right = Clone(e.Left), Clone(e.Right)
		if e.Probe != nil {
			nc.Probe = Clone(e.Probe).(*InList)
		}
		return &nc
	}

	children := e.Children()
	cloned := make([]sql.Expression, len(children))
	for i, c := range children {
		cloned[i] = Clone(c)
	}
	ne, err := e.WithChildren(cloned...)
	sql.Assert(err == nil, "cloning %T: %v", e, err)
	return ne
}

// Equivalent reports whether a and b always produce the same value for the
// same row. Parameters and non-deterministic function calls are never
// equivalent to anything.
func Equivalent(a, b sql.Expression) bool {
	switch a := a.(type) {
	case *ColumnReference:
		b, ok := b.(*ColumnReference)
		if !ok {
			return false
		}
		if !a.Resolved() || !b.Resolved() {
			return strings.EqualFold(a.table, b.table) && strings.EqualFold(a.name, b.name)
		}
		return a.TableNumber == b.TableNumber && a.ColumnNumber == b.ColumnNumber &&
			strings.EqualFold(a.name, b.name)
	case *VirtualColumn:
		b, ok := b.(*VirtualColumn)
		return ok && a.Source == b.Source
	case *BaseColumn:
		b, ok := b.(*BaseColumn)
		return ok && a.TableNumber == b.TableNumber && a.ColumnNumber == b.ColumnNumber
	case *Literal:
		b, ok := b.(*Literal)
		if !ok || a.Type().ID != b.Type().ID {
			return false
		}
		if a.IsNull() || b.IsNull() {
			return a.IsNull() && b.IsNull()
		}
		return valuesEqual(a.Type(), a.Value(), b.Value())
	case *Parameter:
		return false
	case *BinaryOperator:
		b, ok := b.(*BinaryOperator)
		return ok && a.Op == b.Op && childrenEquivalent(a, b)
	case *Comparison:
		b, ok := b.(*Comparison)
		if !ok || a.Op != b.Op || (a.Probe == nil) != (b.Probe == nil) {
			return false
		}
		if a.Probe != nil {
			return Equivalent(a.Probe, b.Probe)
		}
		return childrenEquivalent(a, b)
	case *And:
		_, ok := b.(*And)
		return ok && childrenEquivalent(a, b)
	case *Or:
		_, ok := b.(*Or)
		return ok && childrenEquivalent(a, b)
	case *Alias:
		b, ok := b.(*Alias)
		return ok && strings.EqualFold(a.name, b.name) && childrenEquivalent(a, b)
	case *Not:
		_, ok := b.(*Not)
		return ok && childrenEquivalent(a, b)
	case *IsNull:
		b, ok := b.(*IsNull)
		return ok && a.Negated == b.Negated && childrenEquivalent(a, b)
	case *Cast:
		b, ok := b.(*Cast)
		return ok && sameType(a.Target, b.Target) && childrenEquivalent(a, b)
	case *InList:
		_, ok := b.(*InList)
		return ok && childrenEquivalent(a, b)
	case *LikeEscape:
		_, ok := b.(*LikeEscape)
		return ok && childrenEquivalent(a, b)
	case *Between:
		_, ok := b.(*Between)
		return ok && childrenEquivalent(a, b)
	case *Aggregate:
		b, ok := b.(*Aggregate)
		return ok && a.Func == b.Func && a.Distinct == b.Distinct && childrenEquivalent(a, b)
	case *MethodCall:
		b, ok := b.(*MethodCall)
		return ok && a.Deterministic && b.Deterministic && a.Name == b.Name && childrenEquivalent(a, b)
	}
	return false
}

func childrenEquivalent(a, b sql.Expression) bool {
	ac, bc := a.Children(), b.Children()
	if len(ac) != len(bc) {
		return false
	}
	for i := range ac {
		if !Equivalent(ac[i], bc[i]) {
			return false
		}
	}
	return true
}

func sameType(a, b sql.Type) bool {
	return a.ID == b.ID && a.Precision == b.Precision && a.Scale == b.Scale &&
		a.MaxWidth == b.MaxWidth && a.UserClass == b.UserClass
}
