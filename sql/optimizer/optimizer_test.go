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

package optimizer

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/dolthub/go-query-compiler/memory"
	"github.com/dolthub/go-query-compiler/sql"
	"github.com/dolthub/go-query-compiler/sql/expression"
	"github.com/dolthub/go-query-compiler/sql/plan"
	"github.com/dolthub/go-query-compiler/sql/transform"
)

func newTestContext(t *testing.T) *sql.Context {
	t.Helper()
	c, err := memory.LoadCatalogFile("../../memory/testdata/catalog.yaml")
	require.NoError(t, err)
	return sql.NewContext(context.Background(), sql.WithCatalog(c))
}

func col(table, name string) *expression.ColumnReference {
	return expression.NewColumnReference(table, name)
}

func table(name string) *plan.UnresolvedTable {
	return plan.NewUnresolvedTable(name, "")
}

func mustBind(t *testing.T, ctx *sql.Context, n sql.Node) sql.Node {
	t.Helper()
	bound, err := plan.Bind(ctx, n, nil)
	require.NoError(t, err)
	return bound
}

// baseTables returns the base tables of n in join order.
func baseTables(n sql.Node) []*plan.BaseTable {
	var tables []*plan.BaseTable
	transform.Inspect(n, func(n sql.Node) bool {
		if bt, ok := n.(*plan.BaseTable); ok {
			tables = append(tables, bt)
		}
		return true
	})
	return tables
}

func tableNames(n sql.Node) []string {
	var names []string
	for _, bt := range baseTables(n) {
		names = append(names, bt.Name())
	}
	return names
}

func TestJoinOrder(t *testing.T) {
	testCases := []struct {
		name     string
		max      int
		expected []string
		strategy []plan.JoinStrategy
	}{
		{"permuted", DefaultMaxPermutedTables, []string{"v", "t"}, []plan.JoinStrategy{plan.NestedLoopJoin, plan.HashJoin}},
		{"greedy", 1, []string{"v", "t"}, []plan.JoinStrategy{plan.NestedLoopJoin, plan.HashJoin}},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			ctx := newTestContext(t)

			bound := mustBind(t, ctx, plan.NewInnerJoin(
				table("t"), table("v"),
				expression.NewEquals(col("t", "a"), col("v", "e")),
			))
			res, err := New(tt.max).Optimize(ctx, bound)
			require.NoError(err)

			require.Empty(cmp.Diff(tt.expected, tableNames(res)))
			var strategies []plan.JoinStrategy
			for _, bt := range baseTables(res) {
				strategies = append(strategies, bt.AccessPaths().TrulyTheBest.JoinStrategy)
			}
			require.Equal(tt.strategy, strategies)

			j := res.(*plan.Join)
			require.Equal(bound.(*plan.Join).TableNumber(), j.TableNumber())
			require.NotNil(j.Cond)

			for _, bt := range baseTables(bound) {
				require.False(bt.AccessPaths().TrulyTheBest.IsSet(), "the input tree is not modified")
			}
		})
	}
}

func TestJoinOrderKeepsCheapestOriginal(t *testing.T) {
	require := require.New(t)
	ctx := newTestContext(t)

	bound := mustBind(t, ctx, plan.NewInnerJoin(
		table("v"), table("t"),
		expression.NewEquals(col("t", "a"), col("v", "e")),
	))
	res, err := Optimize(ctx, bound)
	require.NoError(err)
	require.Equal([]string{"v", "t"}, tableNames(res))
}

func TestJoinPredicatePlacement(t *testing.T) {
	require := require.New(t)
	ctx := newTestContext(t)

	bound := mustBind(t, ctx, plan.NewInnerJoin(
		plan.NewInnerJoin(table("t"), table("u"), expression.NewEquals(col("t", "a"), col("u", "c"))),
		table("v"),
		expression.NewEquals(col("u", "d"), col("v", "e")),
	))
	res, err := Optimize(ctx, bound)
	require.NoError(err)
	require.ElementsMatch([]string{"t", "u", "v"}, tableNames(res))

	// each predicate sits on the lowest join holding both its tables
	var conds int
	transform.Inspect(res, func(n sql.Node) bool {
		j, ok := n.(*plan.Join)
		if !ok {
			return true
		}
		require.NotNil(j.Cond)
		conds += len(expression.SplitConjunction(j.Cond))
		tables := plan.ReferencedTables(j)
		require.True(expression.ReferencedTables(j.Cond).SubsetOf(tables))
		return true
	})
	require.Equal(2, conds)
}

func TestSortAvoidance(t *testing.T) {
	testCases := []struct {
		name    string
		filter  sql.Expression
		avoided bool
		index   string
	}{
		{"range on leading column", expression.NewGreaterThan(col("", "a"), expression.NewConstant(int32(5))), true, "t_a"},
		{"no filter", nil, false, ""},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			ctx := newTestContext(t)

			s := mustBind(t, ctx, plan.NewSort(
				[]plan.SortField{{Expr: col("", "a")}},
				plan.NewProjectRestrict([]sql.Expression{col("", "a"), col("", "s")}, tt.filter, table("t")),
			)).(*plan.Sort)

			// push the restriction into the table
			pr := s.Child.(*plan.ProjectRestrict)
			bt := pr.Child.(*plan.BaseTable)
			if pr.Restriction != nil {
				bt = bt.WithFilters(expression.SplitConjunction(pr.Restriction))
			}
			npr := *pr
			npr.Restriction = nil
			npr.Child = bt
			ns := *s
			ns.Child = &npr

			res, err := Optimize(ctx, &ns)
			require.NoError(err)
			require.Equal(tt.avoided, res.(*plan.Sort).Avoided)

			best := baseTables(res)[0].AccessPaths().TrulyTheBest
			if tt.index == "" {
				require.Nil(best.Index)
			} else {
				require.Equal(tt.index, best.Index.Name)
			}
		})
	}
}

func TestMinMaxAccessPath(t *testing.T) {
	testCases := []struct {
		name     string
		agg      *expression.Aggregate
		index    string
		expected plan.MinMaxScan
	}{
		{"max ascending", expression.NewAggregate(expression.Max, col("", "a"), false), "t_a", plan.LastKeyScan},
		{"min ascending", expression.NewAggregate(expression.Min, col("", "a"), false), "t_a", plan.FirstKeyScan},
		{"max descending", expression.NewAggregate(expression.Max, col("", "b"), false), "t_b_desc", plan.FirstKeyScan},
		{"no index", expression.NewAggregate(expression.Max, col("", "s"), false), "", plan.NoMinMaxScan},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			ctx := newTestContext(t)

			top := mustBind(t, ctx, plan.NewProjectRestrict(
				[]sql.Expression{tt.agg}, nil, plan.NewGroupBy(nil, table("t")),
			))
			res, err := Optimize(ctx, top)
			require.NoError(err)

			gb := res.(*plan.ProjectRestrict).Child.(*plan.GroupBy)
			bt := gb.Bottom().Child.(*plan.BaseTable)
			best := bt.AccessPaths().TrulyTheBest
			if tt.index == "" {
				require.Nil(best.Index)
			} else {
				require.Equal(tt.index, best.Index.Name)
			}
			require.Equal(tt.expected, gb.ConsiderMinMax().MinMax)
		})
	}
}

func TestOuterJoinInputsOptimizedSeparately(t *testing.T) {
	require := require.New(t)
	ctx := newTestContext(t)

	bound := mustBind(t, ctx, plan.NewLeftOuterJoin(
		plan.NewInnerJoin(table("t"), table("v"), expression.NewEquals(col("t", "a"), col("v", "e"))),
		table("u"),
		expression.NewEquals(col("t", "b"), col("u", "c")),
	))
	res, err := Optimize(ctx, bound)
	require.NoError(err)

	loj := res.(*plan.Join)
	require.Equal(plan.LeftOuterJoin, loj.Type)
	require.Equal([]string{"v", "t"}, tableNames(loj.Left()))
	require.Equal([]string{"u"}, tableNames(loj.Right()))
	for _, bt := range baseTables(res) {
		require.True(bt.AccessPaths().TrulyTheBest.IsSet(), "no access path for %s", bt.Name())
	}
}

func TestOptimizeCancelled(t *testing.T) {
	require := require.New(t)
	ctx := newTestContext(t)

	bound := mustBind(t, ctx, plan.NewInnerJoin(table("t"), table("v"), nil))
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Optimize(ctx.WithContext(cancelled), bound)
	require.Error(err)
	require.True(sql.ErrQueryCancelled.Is(err))
}

func TestRestoreColumnOrderAfterReorder(t *testing.T) {
	require := require.New(t)
	ctx := newTestContext(t)

	bound := mustBind(t, ctx, plan.NewRestrict(
		expression.NewEquals(col("t", "a"), col("v", "e")),
		plan.NewInnerJoin(table("t"), table("v"), nil),
	))
	res, err := Optimize(ctx, bound)
	require.NoError(err)
	require.Equal([]string{"v", "t"}, tableNames(res))

	res, err = plan.RestoreColumnOrder(ctx, res)
	require.NoError(err)
	res, err = plan.FixFieldIndexes(ctx, res)
	require.NoError(err)

	a := ctx.Arena()
	require.Equal(bound.ResultColumns().Names(a), res.ResultColumns().Names(a))
	pr := res.(*plan.ProjectRestrict)
	require.Len(pr.Projection, 6)
	require.Equal(2, pr.Projection[0].(*expression.ColumnReference).Index)
	require.Equal(0, pr.Projection[4].(*expression.ColumnReference).Index)
}
