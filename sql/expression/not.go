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
	"github.com/dolthub/go-query-compiler/sql/types"
)

// EliminateNots pushes negations down to the leaves of a boolean
// expression. underNot is set when e appears under an odd number of NOTs.
// Comparisons are negated, AND and OR are swapped, and a negated IN list
// becomes a conjunction of inequalities. Expressions that cannot absorb a
// negation keep a Not on top.
func EliminateNots(ctx *sql.Context, e sql.Expression, underNot bool) sql.Expression {
	return eliminateNots(types.Service(ctx), e, underNot)
}

func eliminateNots(ts sql.TypeService, e sql.Expression, underNot bool) sql.Expression {
	switch e := e.(type) {
	case *Not:
		return eliminateNots(ts, e.Child, !underNot)
	case *And:
		l := eliminateNots(ts, e.Left, underNot)
		r := eliminateNots(ts, e.Right, underNot)
		if underNot {
			return newOr(l, r)
		}
		return newAnd(l, r)
	case *Or:
		l := eliminateNots(ts, e.Left, underNot)
		r := eliminateNots(ts, e.Right, underNot)
		if underNot {
			return newAnd(l, r)
		}
		return newOr(l, r)
	case *Comparison:
		if !underNot {
			return e
		}
		if e.Probe != nil {
			return eliminateNots(ts, RevertProbe(e), true)
		}
		return newComparison(ts, e.Op.Negate(), e.Left, e.Right)
	case *IsNull:
		if !underNot {
			return e
		}
		return &IsNull{UnaryExpression: UnaryExpression{e.Child}, Negated: !e.Negated}
	case *Literal:
		if b, ok := e.Value().(bool); ok && underNot {
			return NewLiteral(!b, e.Type())
		}
		if underNot && !e.IsNull() {
			return NewNot(e)
		}
		return e
	case *InList:
		if !underNot {
			return e
		}
		return notInList(ts, e)
	case *Between:
		if !underNot {
			return e
		}
		return newOr(
			newComparison(ts, LessThan, e.Val, e.Lower),
			newComparison(ts, GreaterThan, cloneOperand(e.Val), e.Upper),
		)
	default:
		if underNot {
			return NewNot(e)
		}
		return e
	}
}

// notInList rewrites NOT (x IN (v1, ..., vn)) into
// x <> v1 AND x <> v2 AND ... AND x <> vn, built left deep.
func notInList(ts sql.TypeService, in *InList) sql.Expression {
	var result sql.Expression = newComparison(ts, NotEquals, in.Left, in.List[0])
	for _, e := range in.List[1:] {
		result = newAnd(result, newComparison(ts, NotEquals, cloneOperand(in.Left), e))
	}
	return result
}
