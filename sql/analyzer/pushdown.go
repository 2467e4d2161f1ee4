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

// pushdownFilters moves the conjuncts of restrictions to the lowest node
// that can evaluate them: single table predicates become filters of their
// table, and join predicates become conditions of the inner join that
// covers their tables.
func pushdownFilters(ctx *sql.Context, a *Analyzer, n sql.Node) (sql.Node, transform.TreeIdentity, error) {
	return withDependents(n, func(n sql.Node) (sql.Node, transform.TreeIdentity, error) {
		return transform.Node(n, func(n sql.Node) (sql.Node, transform.TreeIdentity, error) {
			p, ok := n.(*plan.ProjectRestrict)
			if !ok || p.Restriction == nil {
				return n, transform.SameTree, nil
			}
			return pushRestriction(ctx, a, p)
		})
	})
}

// pushdownJoinFilters moves the single table conjuncts of inner join
// conditions into the side of the join that reads the table.
func pushdownJoinFilters(ctx *sql.Context, a *Analyzer, n sql.Node) (sql.Node, transform.TreeIdentity, error) {
	return withDependents(n, func(n sql.Node) (sql.Node, transform.TreeIdentity, error) {
		return transform.Node(n, func(n sql.Node) (sql.Node, transform.TreeIdentity, error) {
			j, ok := n.(*plan.Join)
			if !ok || j.Type != plan.InnerJoin || j.Cond == nil {
				return n, transform.SameTree, nil
			}

			var kept []sql.Expression
			children := []sql.Node{j.Left(), j.Right()}
			changed := false
			for _, conj := range expression.SplitConjunction(j.Cond) {
				tables, pushable := pushableTables(conj)
				if !pushable || tables.Len() != 1 {
					kept = append(kept, conj)
					continue
				}
				pushed := false
				for i, child := range children {
					if !tables.SubsetOf(plan.ReferencedTables(child)) {
						continue
					}
					nc, ok, err := push(ctx, a, child, conj, tables)
					if err != nil {
						return nil, transform.SameTree, err
					}
					if ok {
						children[i] = nc
						pushed = true
					}
					break
				}
				if !pushed {
					kept = append(kept, conj)
				}
				changed = changed || pushed
			}
			if !changed {
				return n, transform.SameTree, nil
			}

			nj, err := j.WithCond(expression.JoinAnd(kept...)).WithChildren(children...)
			if err != nil {
				return nil, transform.SameTree, err
			}
			a.Log(ctx, "pushed join predicates of join %d into its inputs", j.TableNumber())
			return nj, transform.NewTree, nil
		})
	})
}

// pushableTables returns the tables e references and whether e is a
// candidate for pushing. Predicates without table references stay where
// they are.
func pushableTables(e sql.Expression) (sql.TableSet, bool) {
	var tables sql.TableSet
	pushable := expression.Categorize(e, &tables, true)
	return tables, pushable && !tables.Empty()
}

func pushRestriction(ctx *sql.Context, a *Analyzer, p *plan.ProjectRestrict) (sql.Node, transform.TreeIdentity, error) {
	var kept []sql.Expression
	child := p.Child
	changed := false
	for _, conj := range expression.SplitConjunction(p.Restriction) {
		tables, pushable := pushableTables(conj)
		if !pushable {
			kept = append(kept, conj)
			continue
		}
		nc, ok, err := push(ctx, a, child, conj, tables)
		if err != nil {
			return nil, transform.SameTree, err
		}
		if !ok {
			kept = append(kept, conj)
			continue
		}
		child = nc
		changed = true
	}
	if !changed {
		return p, transform.SameTree, nil
	}

	np := p.WithRestriction(expression.JoinAnd(kept...))
	np.Child = child
	a.Log(ctx, "pushed %d predicates below restriction", len(expression.SplitConjunction(p.Restriction))-len(kept))
	return np, transform.NewTree, nil
}

// push places predicate e, which reads tables, in n or below it. It
// reports false when no node of n can take it.
func push(ctx *sql.Context, a *Analyzer, n sql.Node, e sql.Expression, tables sql.TableSet) (sql.Node, bool, error) {
	switch n := n.(type) {
	case *plan.BaseTable:
		if tables.Len() != 1 || !tables.Contains(n.TableNumber()) {
			return n, false, nil
		}
		filters := append(append([]sql.Expression(nil), n.Filters...), e)
		return n.WithFilters(filters), true, nil
	case *plan.ProjectRestrict:
		if !n.IsRestrictOnly() {
			return n, false, nil
		}
		nc, ok, err := push(ctx, a, n.Child, e, tables)
		if err != nil || !ok {
			return n, false, err
		}
		np := *n
		np.Child = nc
		return &np, true, nil
	case *plan.Join:
		return pushIntoJoin(ctx, a, n, e, tables)
	case *plan.DerivedTable:
		if tables.Len() != 1 || !tables.Contains(n.TableNumber()) {
			return n, false, nil
		}
		return pushIntoDerivedTable(ctx, a, n, e)
	}
	return n, false, nil
}

// pushIntoJoin pushes e into the input of j that reads all its tables, or
// makes it part of the condition of an inner join. Predicates are never
// pushed into the null producing side of an outer join.
func pushIntoJoin(ctx *sql.Context, a *Analyzer, j *plan.Join, e sql.Expression, tables sql.TableSet) (sql.Node, bool, error) {
	left, right := plan.ReferencedTables(j.Left()), plan.ReferencedTables(j.Right())
	children := []sql.Node{j.Left(), j.Right()}

	side := -1
	switch {
	case tables.SubsetOf(left) && j.Type != plan.RightOuterJoin:
		side = 0
	case tables.SubsetOf(right) && j.Type != plan.LeftOuterJoin:
		side = 1
	}
	if side >= 0 {
		nc, ok, err := push(ctx, a, children[side], e, tables)
		if err != nil {
			return j, false, err
		}
		if ok {
			children[side] = nc
			nj, err := j.WithChildren(children...)
			return nj, err == nil, err
		}
	}

	if j.Type != plan.InnerJoin || !tables.SubsetOf(left.Union(right)) {
		return j, false, nil
	}
	var cond sql.Expression = e
	if j.Cond != nil {
		cond = expression.NewAnd(j.Cond, e)
	}
	return j.WithCond(cond), true, nil
}

// pushIntoDerivedTable adds e to the restriction of the select list under
// a derived table. Every column reference of e must read a column of the
// derived table that is itself a plain column of the inner query. The
// references of the pushed copy are remapped to the inner columns.
func pushIntoDerivedTable(ctx *sql.Context, a *Analyzer, d *plan.DerivedTable, e sql.Expression) (sql.Node, bool, error) {
	pr, ok := d.Child.(*plan.ProjectRestrict)
	if !ok || pr.IsRestrictOnly() {
		return d, false, nil
	}
	if _, ok := pr.Child.(*plan.GroupBy); ok {
		return d, false, nil
	}

	arena := ctx.Arena()
	pushed := expression.Clone(e)
	var refs []*expression.ColumnReference
	transform.InspectExpr(pushed, func(e sql.Expression) bool {
		if c, ok := e.(*expression.ColumnReference); ok {
			refs = append(refs, c)
		}
		return false
	})

	for _, c := range refs {
		depth := c.RemapDepth()
		c.Remap(arena)
		inner, ok := arena.Get(c.Source).Expr.(*expression.ColumnReference)
		if c.RemapDepth() != depth+1 || !ok || inner.Correlated() {
			return d, false, nil
		}
		c.Remap(arena)
		if c.RemapDepth() != depth+2 {
			return d, false, nil
		}
		c.NestingLevel = inner.NestingLevel
		c.SourceLevel = inner.SourceLevel
	}

	var restriction sql.Expression = pushed
	if pr.Restriction != nil {
		restriction = expression.NewAnd(pr.Restriction, pushed)
	}
	inner, _, err := pushRestriction(ctx, a, pr.WithRestriction(restriction))
	if err != nil {
		return d, false, err
	}
	nd, err := d.WithChildren(inner)
	if err != nil {
		return d, false, err
	}
	a.Log(ctx, "pushed %s into derived table %s", e, d.Name())
	return nd, true, nil
}
