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
	"github.com/dolthub/go-query-compiler/sql"
	"github.com/dolthub/go-query-compiler/sql/expression"
	"github.com/dolthub/go-query-compiler/sql/plan"
	"github.com/dolthub/go-query-compiler/sql/transform"
)

// BindRules resolve names and types.
var BindRules = []Rule{
	{bindId, bind},
}

// PreprocessRules apply the structural rewrites of expressions.
var PreprocessRules = []Rule{
	{preprocessId, preprocess},
}

// OuterJoinRules simplify outer joins.
var OuterJoinRules = []Rule{
	{transformOuterJoinsId, transformOuterJoins},
}

// ReorderRules reassociate nested left outer joins until no more can be.
var ReorderRules = []Rule{
	{reorderOuterJoinsId, reorderOuterJoins},
}

// UnionRules normalize set operations and the sorts above them.
var UnionRules = []Rule{
	{normalizeUnionsId, normalizeUnions},
	{avoidDistinctSortsId, avoidDistinctSorts},
}

// PushdownRules move predicates next to the tables they filter.
var PushdownRules = []Rule{
	{pushdownFiltersId, pushdownFilters},
	{pushdownJoinFiltersId, pushdownJoinFilters},
}

// OptimizeRules choose join orders and access paths.
var OptimizeRules = []Rule{
	{resubstituteProbesId, resubstituteProbes},
	{optimizeJoinsId, optimizeJoins},
}

// PostOptimizeRules adapt the tree to the chosen plan.
var PostOptimizeRules = []Rule{
	{considerMinMaxId, considerMinMax},
	{revertUnusedProbesId, revertUnusedProbes},
	{restoreColumnOrderId, restoreColumnOrder},
	{fixFieldIndexesId, fixFieldIndexes},
}

func bind(ctx *sql.Context, a *Analyzer, n sql.Node) (sql.Node, transform.TreeIdentity, error) {
	if n.Resolved() {
		return n, transform.SameTree, nil
	}
	bound, err := plan.Bind(ctx, n, nil)
	if err != nil {
		return nil, transform.SameTree, err
	}
	return bound, transform.NewTree, nil
}

// preprocess pushes negations down to comparisons and applies the
// expression rewrites of expression.Preprocess to every expression of the
// tree.
func preprocess(ctx *sql.Context, a *Analyzer, n sql.Node) (sql.Node, transform.TreeIdentity, error) {
	tableCount := plan.CountTables(n)
	return withDependents(n, func(n sql.Node) (sql.Node, transform.TreeIdentity, error) {
		return topExprs(n, func(e sql.Expression) (sql.Expression, error) {
			return expression.Preprocess(ctx, tableCount, nil, expression.EliminateNots(ctx, e, false))
		})
	})
}

func transformOuterJoins(ctx *sql.Context, a *Analyzer, n sql.Node) (sql.Node, transform.TreeIdentity, error) {
	before := outerJoinShape(n)
	res, _, err := withDependents(n, func(n sql.Node) (sql.Node, transform.TreeIdentity, error) {
		return transform.NodeWithCtx(n, func(c transform.Ctx) (sql.Node, transform.TreeIdentity, error) {
			j, ok := c.Node.(*plan.Join)
			if !ok {
				return c.Node, transform.SameTree, nil
			}
			if _, nested := c.Parent.(*plan.Join); nested {
				return c.Node, transform.SameTree, nil
			}
			var predicates sql.Expression
			if p, ok := c.Parent.(*plan.ProjectRestrict); ok {
				predicates = p.Restriction
			}
			return j.TransformOuterJoins(predicates), transform.NewTree, nil
		})
	})
	if err != nil {
		return nil, transform.SameTree, err
	}
	if outerJoinShape(res) == before {
		return n, transform.SameTree, nil
	}
	a.Log(ctx, "outer joins simplified: %s", outerJoinShape(res))
	return res, transform.NewTree, nil
}

// outerJoinShape describes the join types and flags of n in pre-order.
func outerJoinShape(n sql.Node) string {
	var shape []byte
	transform.Inspect(n, func(n sql.Node) bool {
		if j, ok := n.(*plan.Join); ok {
			shape = append(shape, byte('0'+j.Type))
			if j.NotFlattenable {
				shape = append(shape, '!')
			}
			if j.WasRightOuter {
				shape = append(shape, 'r')
			}
		}
		return true
	})
	return string(shape)
}

func reorderOuterJoins(ctx *sql.Context, a *Analyzer, n sql.Node) (sql.Node, transform.TreeIdentity, error) {
	numTables := plan.CountTables(n)
	return withDependents(n, func(n sql.Node) (sql.Node, transform.TreeIdentity, error) {
		return transform.NodeWithCtx(n, func(c transform.Ctx) (sql.Node, transform.TreeIdentity, error) {
			j, ok := c.Node.(*plan.Join)
			if !ok {
				return c.Node, transform.SameTree, nil
			}
			if _, nested := c.Parent.(*plan.Join); nested {
				return c.Node, transform.SameTree, nil
			}
			res, changed, err := j.LOJReorderable(ctx, numTables)
			if err != nil || !changed {
				return c.Node, transform.SameTree, err
			}
			return res, transform.NewTree, nil
		})
	})
}

func normalizeUnions(ctx *sql.Context, a *Analyzer, n sql.Node) (sql.Node, transform.TreeIdentity, error) {
	return withDependents(n, func(n sql.Node) (sql.Node, transform.TreeIdentity, error) {
		return transform.Node(n, func(n sql.Node) (sql.Node, transform.TreeIdentity, error) {
			u, ok := n.(*plan.Union)
			if !ok || u.All && !unlimitedSort(u.Left()) && !unlimitedSort(u.Right()) {
				return n, transform.SameTree, nil
			}
			return plan.NormalizeUnion(u), transform.NewTree, nil
		})
	})
}

func unlimitedSort(n sql.Node) bool {
	s, ok := n.(*plan.Sort)
	return ok && s.Limit == plan.NoLimit
}

func avoidDistinctSorts(ctx *sql.Context, a *Analyzer, n sql.Node) (sql.Node, transform.TreeIdentity, error) {
	return withDependents(n, func(n sql.Node) (sql.Node, transform.TreeIdentity, error) {
		return transform.Node(n, func(n sql.Node) (sql.Node, transform.TreeIdentity, error) {
			s, ok := n.(*plan.Sort)
			if !ok {
				return n, transform.SameTree, nil
			}
			if ns := plan.AvoidDistinctSort(s); ns != s {
				return ns, transform.NewTree, nil
			}
			return n, transform.SameTree, nil
		})
	})
}

// topExprs applies f to every top level expression of every node of n.
func topExprs(n sql.Node, f func(sql.Expression) (sql.Expression, error)) (sql.Node, transform.TreeIdentity, error) {
	return transform.Node(n, func(n sql.Node) (sql.Node, transform.TreeIdentity, error) {
		ne, ok := n.(sql.Expressioner)
		if !ok {
			return n, transform.SameTree, nil
		}
		exprs := ne.Expressions()
		var newExprs []sql.Expression
		for i, e := range exprs {
			res, err := f(e)
			if err != nil {
				return nil, transform.SameTree, err
			}
			if res == e {
				continue
			}
			if newExprs == nil {
				newExprs = append([]sql.Expression(nil), exprs...)
			}
			newExprs[i] = res
		}
		if newExprs == nil {
			return n, transform.SameTree, nil
		}
		nn, err := ne.WithExpressions(newExprs...)
		if err != nil {
			return nil, transform.SameTree, err
		}
		return nn, transform.NewTree, nil
	})
}

// withDependents applies rule to n and to the statements that cascade the
// changes of the data modification statements of n. Dependent statements
// are not children of the statement that causes them.
func withDependents(n sql.Node, rule transform.NodeFunc) (sql.Node, transform.TreeIdentity, error) {
	res, same, err := rule(n)
	if err != nil {
		return nil, transform.SameTree, err
	}
	res, depsSame, err := transform.Node(res, func(n sql.Node) (sql.Node, transform.TreeIdentity, error) {
		c := closureOf(n)
		if c == nil || len(c.Dependents) == 0 {
			return n, transform.SameTree, nil
		}
		deps := make([]sql.Node, len(c.Dependents))
		allSame := transform.SameTree
		for i, d := range c.Dependents {
			nd, s, err := withDependents(d, rule)
			if err != nil {
				return nil, transform.SameTree, err
			}
			deps[i] = nd
			allSame = allSame && s
		}
		if allSame {
			return n, transform.SameTree, nil
		}
		return withDependentStatements(n, deps), transform.NewTree, nil
	})
	if err != nil {
		return nil, transform.SameTree, err
	}
	return res, same && depsSame, nil
}

func closureOf(n sql.Node) *plan.Closure {
	switch n := n.(type) {
	case *plan.Insert:
		return &n.Closure
	case *plan.Update:
		return &n.Closure
	case *plan.Delete:
		return &n.Closure
	}
	return nil
}

func withDependentStatements(n sql.Node, deps []sql.Node) sql.Node {
	switch n := n.(type) {
	case *plan.Insert:
		nn := *n
		nn.Closure.Dependents = deps
		return &nn
	case *plan.Update:
		nn := *n
		nn.Closure.Dependents = deps
		return &nn
	case *plan.Delete:
		nn := *n
		nn.Closure.Dependents = deps
		return &nn
	}
	return n
}
