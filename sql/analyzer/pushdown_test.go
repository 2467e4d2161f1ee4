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

package analyzer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dolthub/go-query-compiler/sql"
	"github.com/dolthub/go-query-compiler/sql/expression"
	"github.com/dolthub/go-query-compiler/sql/plan"
	"github.com/dolthub/go-query-compiler/sql/transform"
)

func filterStrings(bt *plan.BaseTable) []string {
	var out []string
	for _, f := range bt.Filters {
		out = append(out, f.String())
	}
	return out
}

func TestPushdownFilters(t *testing.T) {
	require := require.New(t)
	ctx := newTestContext(t)

	bound := mustBind(t, ctx, plan.NewRestrict(
		expression.JoinAnd(
			expression.NewGreaterThan(col("t", "a"), intLit(5)),
			expression.NewEquals(col("v", "f"), intLit(1)),
			expression.NewEquals(col("t", "b"), col("v", "f")),
		),
		plan.NewInnerJoin(table("t"), table("v"), expression.NewEquals(col("t", "a"), col("v", "e"))),
	))

	res, same := applyRule(t, ctx, pushdownFilters, bound)
	require.Equal(transform.NewTree, same)

	r := res.(*plan.ProjectRestrict)
	require.Nil(r.Restriction)
	require.Equal([]string{"t.a > 5"}, filterStrings(findTable(t, res, "t")))
	require.Equal([]string{"v.f = 1"}, filterStrings(findTable(t, res, "v")))

	j := r.Child.(*plan.Join)
	require.Equal("(t.a = v.e AND t.b = v.f)", j.Cond.String())

	// the input is not modified
	require.Empty(findTable(t, bound, "t").Filters)
	require.NotNil(bound.(*plan.ProjectRestrict).Restriction)

	_, same = applyRule(t, ctx, pushdownFilters, res)
	require.Equal(transform.SameTree, same)
}

func TestPushdownFiltersKeepsUnpushable(t *testing.T) {
	testCases := []struct {
		name string
		pred sql.Expression
	}{
		{"constant", expression.NewEquals(intLit(1), intLit(1))},
		{"function call", expression.NewEquals(
			expression.NewMethodCall("abs", sql.NewType(sql.Integer), col("t", "a")), intLit(1),
		)},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			ctx := newTestContext(t)

			bound := mustBind(t, ctx, plan.NewRestrict(tt.pred, table("t")))
			res, same := applyRule(t, ctx, pushdownFilters, bound)
			require.Equal(transform.SameTree, same)
			require.Empty(findTable(t, res, "t").Filters)
		})
	}
}

func TestPushdownOuterJoin(t *testing.T) {
	require := require.New(t)
	ctx := newTestContext(t)

	bound := mustBind(t, ctx, plan.NewRestrict(
		expression.NewAnd(
			expression.NewEquals(col("t", "b"), intLit(2)),
			expression.NewIsNull(col("v", "f")),
		),
		plan.NewLeftOuterJoin(table("t"), table("v"), expression.NewEquals(col("t", "a"), col("v", "e"))),
	))

	res, _ := applyRule(t, ctx, pushdownFilters, bound)

	require.Equal([]string{"t.b = 2"}, filterStrings(findTable(t, res, "t")))
	require.Empty(findTable(t, res, "v").Filters, "the null producing side keeps its rows")
	require.Equal("v.f IS NULL", res.(*plan.ProjectRestrict).Restriction.String())
}

func TestPushdownJoinFilters(t *testing.T) {
	require := require.New(t)
	ctx := newTestContext(t)

	bound := mustBind(t, ctx, plan.NewInnerJoin(
		table("t"), table("u"),
		expression.JoinAnd(
			expression.NewEquals(col("t", "a"), col("u", "c")),
			expression.NewLessThan(col("u", "d"), intLit(10)),
		),
	))

	res, same := applyRule(t, ctx, pushdownJoinFilters, bound)
	require.Equal(transform.NewTree, same)
	require.Equal("t.a = u.c", res.(*plan.Join).Cond.String())
	require.Equal([]string{"u.d < 10"}, filterStrings(findTable(t, res, "u")))
}

func TestPushdownDerivedTable(t *testing.T) {
	require := require.New(t)
	ctx := newTestContext(t)

	pred := expression.NewGreaterThan(col("dt", "x"), intLit(5))
	bound := mustBind(t, ctx, plan.NewRestrict(pred, plan.NewDerivedTable("dt",
		plan.NewProjectRestrict([]sql.Expression{
			expression.NewAlias("x", col("t", "a")),
			col("t", "b"),
		}, nil, table("t")),
	)))
	outerRef := bound.(*plan.ProjectRestrict).Restriction.(*expression.Comparison).Left.(*expression.ColumnReference)
	dt := findNode[*plan.DerivedTable](bound)

	res, same := applyRule(t, ctx, pushdownFilters, bound)
	require.Equal(transform.NewTree, same)
	require.Nil(res.(*plan.ProjectRestrict).Restriction)

	tbl := findTable(t, res, "t")
	require.Len(tbl.Filters, 1)
	ref := tbl.Filters[0].(*expression.Comparison).Left.(*expression.ColumnReference)
	require.Equal("a", ref.Name())
	require.Equal(tbl.TableNumber(), ref.TableNumber)
	require.Equal(1, ref.NestingLevel)
	require.False(ref.Correlated())
	require.Equal(2, ref.RemapDepth())

	// the outer reference is untouched
	require.Equal("x", outerRef.Name())
	require.Equal(dt.TableNumber(), outerRef.TableNumber)
	require.Zero(outerRef.RemapDepth())
}

func TestPushdownDerivedTableRejected(t *testing.T) {
	testCases := []struct {
		name  string
		inner sql.Node
		pred  sql.Expression
	}{
		{
			"computed column",
			plan.NewProjectRestrict([]sql.Expression{
				expression.NewAlias("x", expression.NewPlus(col("t", "a"), intLit(1))),
			}, nil, table("t")),
			expression.NewGreaterThan(col("dt", "x"), intLit(5)),
		},
		{
			"grouped",
			plan.NewGroupBy([]sql.Expression{col("t", "b")}, table("t")),
			expression.NewGreaterThan(col("dt", "b"), intLit(5)),
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			ctx := newTestContext(t)

			bound := mustBind(t, ctx, plan.NewRestrict(tt.pred, plan.NewDerivedTable("dt", tt.inner)))
			res, same := applyRule(t, ctx, pushdownFilters, bound)
			require.Equal(transform.SameTree, same)
			require.NotNil(res.(*plan.ProjectRestrict).Restriction)
			require.Empty(findTable(t, res, "t").Filters)
		})
	}
}
