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

func joinTestData(ctx *sql.Context) *evaluator {
	return &evaluator{ctx: ctx, data: map[string][]sql.Row{
		"t": {
			{int32(1), int32(10), "x", "c1"},
			{int32(2), nil, "y", "c2"},
			{int32(3), int32(30), nil, nil},
		},
		"u": {
			{int32(1), int32(5), "n1"},
			{int32(1), nil, "n2"},
			{int32(4), int32(7), "n3"},
			{int32(3), int32(7), "n4"},
		},
		"v": {
			{int32(5), int32(1)},
			{int32(7), int32(2)},
			{nil, int32(3)},
		},
	}}
}

func eq(l, r sql.Expression) sql.Expression { return expression.NewEquals(l, r) }

func TestTransformOuterJoins(t *testing.T) {
	testCases := []struct {
		name     string
		join     *Join
		where    sql.Expression
		expected JoinType
	}{
		{
			"comparison on the null producing side",
			NewLeftOuterJoin(table("t"), table("u"), eq(col("t", "a"), col("u", "c"))),
			expression.NewGreaterThan(col("u", "d"), intLit(1)),
			InnerJoin,
		},
		{
			"is null keeps the outer join",
			NewLeftOuterJoin(table("t"), table("u"), eq(col("t", "a"), col("u", "c"))),
			expression.NewIsNull(col("u", "d")),
			LeftOuterJoin,
		},
		{
			"comparison on the preserved side",
			NewLeftOuterJoin(table("t"), table("u"), eq(col("t", "a"), col("u", "c"))),
			expression.NewGreaterThan(col("t", "b"), intLit(1)),
			LeftOuterJoin,
		},
		{
			"disjunction keeps the outer join",
			NewLeftOuterJoin(table("t"), table("u"), eq(col("t", "a"), col("u", "c"))),
			expression.NewOr(
				expression.NewGreaterThan(col("u", "d"), intLit(1)),
				expression.NewIsNull(col("u", "c")),
			),
			LeftOuterJoin,
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			ctx := newTestContext(t)
			ev := joinTestData(ctx)

			top := mustBind(t, ctx, NewProjectRestrict(nil, tt.where, tt.join)).(*ProjectRestrict)
			join := top.Child.(*Join)
			before := sortedRows(ev.filter(t, ev.rows(t, join), top.Restriction))

			transformed := join.TransformOuterJoins(top.Restriction).(*Join)
			require.Equal(tt.expected, transformed.Type)
			require.Equal(LeftOuterJoin, join.Type, "the input join is not modified")

			after := sortedRows(ev.filter(t, ev.rows(t, transformed), top.Restriction))
			require.Equal(before, after)
		})
	}
}

func TestTransformOuterJoinsNested(t *testing.T) {
	require := require.New(t)
	ctx := newTestContext(t)

	// t LEFT JOIN (u LEFT JOIN v ON u.d = v.e) ON t.a = u.c WHERE v.f > 1
	top := mustBind(t, ctx, NewProjectRestrict(nil,
		expression.NewGreaterThan(col("v", "f"), intLit(1)),
		NewLeftOuterJoin(
			table("t"),
			NewLeftOuterJoin(table("u"), table("v"), eq(col("u", "d"), col("v", "e"))),
			eq(col("t", "a"), col("u", "c")),
		),
	)).(*ProjectRestrict)

	transformed := top.Child.(*Join).TransformOuterJoins(top.Restriction).(*Join)
	require.Equal(InnerJoin, transformed.Type)
	nested := transformed.Right().(*Join)
	require.Equal(InnerJoin, nested.Type, "the outer predicate rejects nulls of v through both joins")

	// without a predicate on v only the outer join over u is kept
	top = mustBind(t, ctx, NewProjectRestrict(nil,
		expression.NewGreaterThan(col("u", "c"), intLit(1)),
		NewLeftOuterJoin(
			table("t"),
			NewLeftOuterJoin(table("u"), table("v"), eq(col("u", "d"), col("v", "e"))),
			eq(col("t", "a"), col("u", "c")),
		),
	)).(*ProjectRestrict)
	transformed = top.Child.(*Join).TransformOuterJoins(top.Restriction).(*Join)
	require.Equal(InnerJoin, transformed.Type)
	nested = transformed.Right().(*Join)
	require.Equal(LeftOuterJoin, nested.Type)

	ev := joinTestData(ctx)
	require.Equal(
		sortedRows(ev.filter(t, ev.rows(t, top.Child), top.Restriction)),
		sortedRows(ev.filter(t, ev.rows(t, transformed), top.Restriction)),
	)
}

func TestTransformRightOuterJoin(t *testing.T) {
	require := require.New(t)
	ctx := newTestContext(t)

	top := mustBind(t, ctx, NewProjectRestrict(nil,
		expression.NewGreaterThan(col("t", "b"), intLit(0)),
		NewRightOuterJoin(table("t"), table("u"), eq(col("t", "a"), col("u", "c"))),
	)).(*ProjectRestrict)
	join := top.Child.(*Join)
	require.Equal(LeftOuterJoin, join.Type)
	require.True(join.WasRightOuter)

	transformed := join.TransformOuterJoins(top.Restriction).(*Join)
	require.Equal(InnerJoin, transformed.Type)
	require.False(transformed.WasRightOuter)
}

func TestLOJReorderable(t *testing.T) {
	testCases := []struct {
		name string
		cond sql.Expression
	}{
		{"single comparison", eq(col("t", "a"), col("u", "c"))},
		{"conjunction of comparisons", expression.NewAnd(
			eq(col("t", "a"), col("u", "c")),
			expression.NewGreaterThan(col("u", "d"), col("t", "a")),
		)},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			ctx := newTestContext(t)
			ev := joinTestData(ctx)

			bound := mustBind(t, ctx, NewLeftOuterJoin(
				table("t"),
				NewLeftOuterJoin(table("u"), table("v"), eq(col("u", "d"), col("v", "e"))),
				tt.cond,
			))
			before := sortedRows(ev.rows(t, bound))

			n, changed, err := bound.(*Join).LOJReorderable(ctx, CountTables(bound))
			require.NoError(err)
			require.True(changed)

			reordered := n.(*Join)
			require.IsType(&Join{}, reordered.Left())
			require.IsType(&BaseTable{}, reordered.Right())
			require.Equal([]string{"t", "u"}, relationNames(reordered.Left()))
			require.Equal(
				bound.ResultColumns().Names(ctx.Arena()),
				reordered.ResultColumns().Names(ctx.Arena()),
			)

			fixed, err := FixFieldIndexes(ctx, reordered)
			require.NoError(err)
			require.Equal(before, sortedRows(ev.rows(t, fixed)))
		})
	}
}

func TestLOJReorderableRefused(t *testing.T) {
	testCases := []struct {
		name string
		join *Join
	}{
		{
			"right outer join",
			NewLeftOuterJoin(
				table("t"),
				NewRightOuterJoin(table("v"), table("u"), eq(col("u", "d"), col("v", "e"))),
				eq(col("t", "a"), col("u", "c")),
			),
		},
		{
			"inner condition does not join both sides",
			NewLeftOuterJoin(
				table("t"),
				NewLeftOuterJoin(table("u"), table("v"), expression.NewGreaterThan(col("v", "e"), intLit(1))),
				eq(col("t", "a"), col("u", "c")),
			),
		},
		{
			"outer condition is not a comparison",
			NewLeftOuterJoin(
				table("t"),
				NewLeftOuterJoin(table("u"), table("v"), eq(col("u", "d"), col("v", "e"))),
				expression.NewAnd(eq(col("t", "a"), col("u", "c")), expression.NewIsNull(col("u", "d"))),
			),
		},
		{
			"outer condition reads the third table",
			NewLeftOuterJoin(
				table("t"),
				NewLeftOuterJoin(table("u"), table("v"), eq(col("u", "d"), col("v", "e"))),
				expression.NewAnd(
					eq(col("t", "a"), col("u", "c")),
					expression.NewGreaterThan(col("v", "f"), intLit(1)),
				),
			),
		},
		{
			"outer condition compares the outer and third tables",
			NewLeftOuterJoin(
				table("t"),
				NewLeftOuterJoin(table("u"), table("v"), eq(col("u", "d"), col("v", "e"))),
				expression.NewAnd(eq(col("t", "a"), col("u", "c")), eq(col("t", "b"), col("v", "e"))),
			),
		},
		{
			"outer condition compares a column with a constant",
			NewLeftOuterJoin(
				table("t"),
				NewLeftOuterJoin(table("u"), table("v"), eq(col("u", "d"), col("v", "e"))),
				expression.NewAnd(eq(col("t", "a"), col("u", "c")), eq(col("u", "d"), intLit(5))),
			),
		},
		{
			"inner join",
			NewLeftOuterJoin(
				table("t"),
				NewInnerJoin(table("u"), table("v"), eq(col("u", "d"), col("v", "e"))),
				eq(col("t", "a"), col("u", "c")),
			),
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			ctx := newTestContext(t)
			bound := mustBind(t, ctx, tt.join)

			n, changed, err := bound.(*Join).LOJReorderable(ctx, CountTables(bound))
			require.NoError(err)
			require.False(changed)
			require.Equal(bound, n)
		})
	}
}

func relationNames(n sql.Node) []string {
	var names []string
	for _, r := range relationsOf(n, false) {
		names = append(names, r.name)
	}
	return names
}
