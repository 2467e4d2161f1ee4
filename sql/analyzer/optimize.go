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

// resubstituteProbes turns IN lists reverted by a previous optimization
// back into probe predicates, so that a new join order can use them as
// index keys again.
func resubstituteProbes(ctx *sql.Context, a *Analyzer, n sql.Node) (sql.Node, transform.TreeIdentity, error) {
	return withDependents(n, func(n sql.Node) (sql.Node, transform.TreeIdentity, error) {
		return transform.NodeExprs(n, func(e sql.Expression) (sql.Expression, transform.TreeIdentity, error) {
			in, ok := e.(*expression.InList)
			if !ok || in.State != expression.InListReverted {
				return e, transform.SameTree, nil
			}
			return expression.SubstituteProbe(ctx, in), transform.NewTree, nil
		})
	})
}

func optimizeJoins(ctx *sql.Context, a *Analyzer, n sql.Node) (sql.Node, transform.TreeIdentity, error) {
	return withDependents(n, func(n sql.Node) (sql.Node, transform.TreeIdentity, error) {
		optimized, err := a.Optimizer.Optimize(ctx, n)
		if err != nil {
			return nil, transform.SameTree, err
		}
		return optimized, transform.NewTree, nil
	})
}

func considerMinMax(ctx *sql.Context, a *Analyzer, n sql.Node) (sql.Node, transform.TreeIdentity, error) {
	return withDependents(n, func(n sql.Node) (sql.Node, transform.TreeIdentity, error) {
		return transform.Node(n, func(n sql.Node) (sql.Node, transform.TreeIdentity, error) {
			g, ok := n.(*plan.GroupBy)
			if !ok {
				return n, transform.SameTree, nil
			}
			ng := g.ConsiderMinMax()
			if ng == g {
				return n, transform.SameTree, nil
			}
			if ng.MinMax != plan.NoMinMaxScan {
				a.Log(ctx, "single row access for aggregate: %s", ng.MinMax)
			}
			return ng, transform.NewTree, nil
		})
	})
}

// revertUnusedProbes turns every probe predicate that is not a start or
// stop key of the chosen index of its table back into its IN list.
func revertUnusedProbes(ctx *sql.Context, a *Analyzer, n sql.Node) (sql.Node, transform.TreeIdentity, error) {
	return withDependents(n, func(n sql.Node) (sql.Node, transform.TreeIdentity, error) {
		return transform.Node(n, func(n sql.Node) (sql.Node, transform.TreeIdentity, error) {
			var keys []sql.Expression
			if t, ok := n.(*plan.BaseTable); ok {
				keys = t.AccessPaths().TrulyTheBest.Keys
			}
			return topExprs(n, func(e sql.Expression) (sql.Expression, error) {
				if isKey(keys, e) {
					return e, nil
				}
				res, _, err := transform.Expr(e, func(e sql.Expression) (sql.Expression, transform.TreeIdentity, error) {
					c, ok := e.(*expression.Comparison)
					if !ok || !c.IsProbe() {
						return e, transform.SameTree, nil
					}
					return expression.RevertProbe(c), transform.NewTree, nil
				})
				return res, err
			})
		})
	})
}

func isKey(keys []sql.Expression, e sql.Expression) bool {
	for _, k := range keys {
		if k == e {
			return true
		}
	}
	return false
}

func restoreColumnOrder(ctx *sql.Context, a *Analyzer, n sql.Node) (sql.Node, transform.TreeIdentity, error) {
	return withDependents(n, func(n sql.Node) (sql.Node, transform.TreeIdentity, error) {
		res, err := plan.RestoreColumnOrder(ctx, n)
		if err != nil {
			return nil, transform.SameTree, err
		}
		return res, transform.TreeIdentity(res == n), nil
	})
}

func fixFieldIndexes(ctx *sql.Context, a *Analyzer, n sql.Node) (sql.Node, transform.TreeIdentity, error) {
	return withDependents(n, func(n sql.Node) (sql.Node, transform.TreeIdentity, error) {
		res, err := plan.FixFieldIndexes(ctx, n)
		if err != nil {
			return nil, transform.SameTree, err
		}
		return res, transform.TreeIdentity(res == n), nil
	})
}
