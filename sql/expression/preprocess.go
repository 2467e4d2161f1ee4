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
	"github.com/dolthub/go-query-compiler/sql/codegen"
	"github.com/dolthub/go-query-compiler/sql/transform"
	"github.com/dolthub/go-query-compiler/sql/types"
)

// Preprocess applies the structural rewrites that run between binding and
// optimization: BETWEEN becomes a pair of comparisons, constant IN lists
// are sorted and turned into probe predicates, and LIKE with a constant
// prefix gets range predicates. tableCount is the number of tables in the
// FROM list of the query e belongs to, and outer the scope of the
// enclosing query, if any. Running Preprocess again on its own result is a
// no-op.
func Preprocess(ctx *sql.Context, tableCount int, outer sql.Scope, e sql.Expression) (sql.Expression, error) {
	ts := types.Service(ctx)
	res, _, err := transform.Expr(e, func(e sql.Expression) (sql.Expression, transform.TreeIdentity, error) {
		var ne sql.Expression
		var err error
		switch e := e.(type) {
		case *InList:
			ne, err = preprocessInList(ts, e)
		case *LikeEscape:
			ne, err = preprocessLike(ts, e)
		case *Between:
			ne = preprocessBetween(ts, e)
		default:
			return e, transform.SameTree, nil
		}
		if err != nil {
			return nil, transform.SameTree, err
		}
		if ne == e {
			return e, transform.SameTree, nil
		}
		return ne, transform.NewTree, nil
	})
	return res, err
}

// cloneOperand returns a copy of e if it is a column reference, so that the
// copies can be remapped independently.
func cloneOperand(e sql.Expression) sql.Expression {
	if c, ok := e.(*ColumnReference); ok {
		return c.copy()
	}
	return e
}

func preprocessInList(ts sql.TypeService, in *InList) (sql.Expression, error) {
	if in.Transformed {
		return in, nil
	}

	if len(in.List) == 1 {
		return newComparison(ts, Equals, in.Left, in.List[0]), nil
	}

	nin := *in
	nin.List = append([]sql.Expression(nil), in.List...)
	nin.Transformed = true

	if in.AllConstants() {
		nin.Dominant = dominantOf(ts, in.Children()...)
		values := make([]interface{}, len(in.List))
		for i, e := range in.List {
			values[i] = e.(*Literal).Value()
		}
		sorted, err := sortDistinct(nin.Dominant, values)
		if err != nil {
			return nil, err
		}

		byValue := make([]sql.Expression, len(sorted))
		for i, v := range sorted {
			for _, e := range in.List {
				if cmp, err := types.Compare(nin.Dominant, e.(*Literal).Value(), v); err == nil && cmp == 0 {
					byValue[i] = e
					break
				}
			}
		}
		if len(byValue) == 1 {
			return newComparison(ts, Equals, in.Left, byValue[0]), nil
		}
		nin.List = byValue
		nin.Sorted = true
		nin.State = InListSorted
	}

	if _, ok := in.Left.(*ColumnReference); ok && allConstantOperands(nin.List) {
		nin.State = InListProbe
		probe := NewTypedParameter(codegen.ProbeParameter, in.Left.Type().WithNullable(true))
		probe.Probe = true
		c := newComparison(ts, Equals, cloneOperand(in.Left), probe)
		c.Probe = &nin
		return c, nil
	}

	return &nin, nil
}

func allConstantOperands(list []sql.Expression) bool {
	for _, e := range list {
		if !isConstant(e) {
			return false
		}
	}
	return true
}

// RevertProbe restores the IN list a probe predicate stands for.
func RevertProbe(c *Comparison) *InList {
	sql.Assert(c.Probe != nil, "%s is not a probe predicate", c)
	in := *c.Probe
	in.Left = c.Left
	in.State = InListReverted
	return &in
}

// SubstituteProbe turns an IN list reverted by RevertProbe back into its
// probe predicate. Other expressions are returned unchanged.
func SubstituteProbe(ctx *sql.Context, in *InList) sql.Expression {
	if in.State != InListReverted {
		return in
	}
	ts := types.Service(ctx)
	nin := *in
	nin.State = InListProbe
	probe := NewTypedParameter(codegen.ProbeParameter, in.Left.Type().WithNullable(true))
	probe.Probe = true
	c := newComparison(ts, Equals, in.Left, probe)
	c.Probe = &nin
	return c
}

func preprocessLike(ts sql.TypeService, l *LikeEscape) (sql.Expression, error) {
	if l.Transformed {
		return l, nil
	}
	nl := *l
	nl.Transformed = true

	col, ok := l.Left.(*ColumnReference)
	if !ok {
		return &nl, nil
	}
	s, ok := constantString(l.Pattern)
	if !ok {
		return &nl, nil
	}
	esc, ok, err := escapeRune(l.Escape)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &nl, nil
	}

	lt := col.Type()
	if lt.ID == sql.Clob || lt.ID == sql.LongVarchar ||
		lt.Collation != sql.CollationUCSBasic || lt.MaxWidth > MaxLikeRangeWidth {
		return &nl, nil
	}

	lp, err := parseLikePattern(s, esc)
	if err != nil {
		return nil, err
	}
	if lp.prefix == "" {
		return &nl, nil
	}

	width := lt.MaxWidth
	lower := greaterEqualString(lp.prefix, width)
	var tail sql.Expression = NewLiteral(true, sql.NewType(sql.Boolean))
	if upper, ok := lessThanString(lp.prefix, width); ok {
		lit := NewLiteral(upper, sql.VarcharType(len([]rune(upper))))
		tail = newAnd(newComparison(ts, LessThan, cloneOperand(col), lit), tail)
	}
	lit := NewLiteral(lower, sql.VarcharType(len([]rune(lower))))
	var result sql.Expression = newAnd(newComparison(ts, GreaterThanOrEqual, cloneOperand(col), lit), tail)

	if !lp.trailingPercent {
		result = newAnd(&nl, result)
	}
	return result, nil
}

func preprocessBetween(ts sql.TypeService, b *Between) sql.Expression {
	return newAnd(
		newComparison(ts, GreaterThanOrEqual, b.Val, b.Lower),
		newComparison(ts, LessThanOrEqual, cloneOperand(b.Val), b.Upper),
	)
}
