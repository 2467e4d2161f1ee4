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

package plan

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dolthub/go-query-compiler/sql"
	"github.com/dolthub/go-query-compiler/sql/expression"
)

func TestDecomposeGroupBy(t *testing.T) {
	require := require.New(t)
	ctx := newTestContext(t)
	a := ctx.Arena()

	sumDistinct := expression.NewAggregate(expression.Sum, col("", "b"), true)
	maxB := expression.NewAggregate(expression.Max, col("", "b"), false)
	n := NewProjectRestrict(
		[]sql.Expression{col("", "a"), expression.NewCountStar(), sumDistinct},
		expression.NewGreaterThan(maxB, intLit(1)),
		NewGroupBy([]sql.Expression{col("", "a")}, table("t")),
	)
	top := mustBind(t, ctx, n).(*ProjectRestrict)
	require.Equal([]string{"a", "2", "3"}, columnNames(ctx, top))

	gb := top.Child.(*GroupBy)
	bottom := gb.Bottom()
	require.NotNil(bottom)
	require.IsType(&BaseTable{}, bottom.Child)

	names := columnNames(ctx, bottom)
	require.Len(names, 10)
	require.Equal("a", names[0])
	require.False(a.Get(bottom.ResultColumns()[0]).Generated)
	for i := 1; i < len(names); i += 3 {
		require.Equal([]string{AggregateInputColumn, AggregateResultColumn, AggregateAggregatorColumn}, names[i:i+3])
		for _, id := range bottom.ResultColumns()[i : i+3] {
			require.True(a.Get(id).Generated)
		}
	}
	require.Len(gb.ResultColumns(), len(names))

	require.Len(gb.Aggregates, 3)
	count := gb.Aggregates[0]
	require.Equal(expression.CountStar, count.Aggregate.Func)
	input := a.Get(count.Input).Expr.(*expression.Literal)
	require.Equal(int32(1), input.Value())
	result := a.Get(count.Result).Expr.(*expression.Literal)
	require.True(result.IsNull())
	require.Equal(sql.Integer, result.Type().ID)
	aggregator := a.Get(count.Aggregator).Expr.(*expression.MethodCall)
	require.Equal("CountStarAggregator", aggregator.Name)
	require.Equal(AggregatorType, aggregator.Type())
	require.Equal("MaxMinAggregator", a.Get(gb.Aggregates[2].Aggregator).Expr.(*expression.MethodCall).Name)

	// grouping keys first, the distinct aggregate input last
	require.Equal(sql.ResultColumnList{gb.ResultColumns()[0], gb.ResultColumns()[4]}, gb.SortKeys)
	require.Equal(gb.Aggregates[1].Input, a.Get(gb.SortKeys[1]).Expr.(*expression.VirtualColumn).Source)
	require.Equal(&gb.Aggregates[1], gb.DistinctAggregate())

	refs := make([]sql.ColumnID, len(top.Projection))
	for i, e := range top.Projection {
		refs[i] = expression.Unalias(e).(*expression.ColumnReference).Source
	}
	require.Equal([]sql.ColumnID{gb.ResultColumns()[0], count.Mirror, gb.Aggregates[1].Mirror}, refs)

	having := top.Restriction.(*expression.Comparison)
	require.Equal(gb.Aggregates[2].Mirror, having.Left.(*expression.ColumnReference).Source)
	require.Equal(7, having.Left.(*expression.ColumnReference).Index)
}

func TestDecomposeGroupBySharesAggregates(t *testing.T) {
	require := require.New(t)
	ctx := newTestContext(t)

	sum := func() sql.Expression { return expression.NewAggregate(expression.Sum, col("", "b"), false) }
	top := mustBind(t, ctx, NewProjectRestrict(
		[]sql.Expression{sum(), expression.NewPlus(sum(), intLit(1))},
		expression.NewGreaterThan(sum(), intLit(0)),
		NewGroupBy(nil, table("t")),
	)).(*ProjectRestrict)
	gb := top.Child.(*GroupBy)
	require.Len(gb.Aggregates, 1)
	require.Empty(gb.SortKeys)
}

func TestGroupBySingleDistinct(t *testing.T) {
	require := require.New(t)
	ctx := newTestContext(t)

	n := NewProjectRestrict(
		[]sql.Expression{
			expression.NewAggregate(expression.Count, col("", "a"), true),
			expression.NewAggregate(expression.Sum, col("", "b"), true),
		},
		nil,
		NewGroupBy(nil, table("t")),
	)

	defer func() {
		r := recover()
		require.NotNil(r, "two distinct aggregates must not decompose")
		err, ok := r.(error)
		require.True(ok)
		require.True(sql.ErrSanity.Is(err), "unexpected panic %v", err)
	}()
	_, _ = Bind(ctx, n, nil)
}

func TestGroupByWhereStaysBelow(t *testing.T) {
	require := require.New(t)
	ctx := newTestContext(t)

	top := mustBind(t, ctx, NewProjectRestrict(
		[]sql.Expression{expression.NewCountStar()},
		expression.NewGreaterThan(col("", "a"), intLit(1)),
		table("t"),
	)).(*ProjectRestrict)
	require.Nil(top.Restriction)

	bottom := top.Child.(*GroupBy).Bottom()
	where := bottom.Child.(*ProjectRestrict)
	require.True(where.IsRestrictOnly())
	require.NotNil(where.Restriction)
}

func TestConsiderMinMax(t *testing.T) {
	testCases := []struct {
		name           string
		agg            *expression.Aggregate
		grouping       []sql.Expression
		index          int
		filtered       bool
		expected       MinMaxScan
		singleInputRow bool
	}{
		{"min ascending", expression.NewAggregate(expression.Min, col("", "a"), false), nil, 0, false, FirstKeyScan, true},
		{"min ascending filtered", expression.NewAggregate(expression.Min, col("", "a"), false), nil, 0, true, FirstKeyScan, true},
		{"max ascending", expression.NewAggregate(expression.Max, col("", "a"), false), nil, 0, false, LastKeyScan, true},
		{"max ascending filtered", expression.NewAggregate(expression.Max, col("", "a"), false), nil, 0, true, NoMinMaxScan, false},
		{"max descending", expression.NewAggregate(expression.Max, col("", "b"), false), nil, 1, true, FirstKeyScan, true},
		{"min descending", expression.NewAggregate(expression.Min, col("", "b"), false), nil, 1, false, LastKeyScan, true},
		{"other column", expression.NewAggregate(expression.Min, col("", "b"), false), nil, 0, false, NoMinMaxScan, false},
		{"table scan", expression.NewAggregate(expression.Min, col("", "a"), false), nil, -1, false, NoMinMaxScan, false},
		{"grouped", expression.NewAggregate(expression.Min, col("", "a"), false), []sql.Expression{col("", "b")}, 0, false, NoMinMaxScan, false},
		{"count", expression.NewAggregate(expression.Count, col("", "a"), false), nil, 0, false, NoMinMaxScan, false},
		{"constant", expression.NewAggregate(expression.Max, intLit(3), false), nil, -1, false, NoMinMaxScan, true},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			ctx := newTestContext(t)

			proj := []sql.Expression{tt.agg}
			if tt.grouping != nil {
				proj = append(tt.grouping, tt.agg)
			}
			top := mustBind(t, ctx, NewProjectRestrict(proj, nil, NewGroupBy(tt.grouping, table("t")))).(*ProjectRestrict)
			gb := top.Child.(*GroupBy)
			bt := gb.Bottom().Child.(*BaseTable)
			bt.paths.TrulyTheBest = AccessPath{JoinStrategy: NestedLoopJoin}
			if tt.index >= 0 {
				bt.paths.TrulyTheBest.Index = bt.Info.Indexes[tt.index]
			}
			if tt.filtered {
				bt.Filters = []sql.Expression{expression.NewGreaterThan(col("", "a"), intLit(0))}
			}

			res := gb.ConsiderMinMax()
			require.Equal(tt.expected, res.MinMax)
			require.Equal(tt.singleInputRow, res.SingleInputRow)
			require.Equal(NoMinMaxScan, gb.MinMax, "the input node is not modified")
		})
	}
}
