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
	"github.com/dolthub/go-query-compiler/sql"
	"github.com/dolthub/go-query-compiler/sql/expression"
	"github.com/dolthub/go-query-compiler/sql/transform"
)

// CopyTree returns a copy of n that can be rewritten without affecting n.
// Every node is copied and every expression cloned; result columns are
// shared.
func CopyTree(n sql.Node) (sql.Node, error) {
	copied, _, err := transform.Node(n, func(n sql.Node) (sql.Node, transform.TreeIdentity, error) {
		if e, ok := n.(sql.Expressioner); ok {
			exprs := e.Expressions()
			cloned := make([]sql.Expression, len(exprs))
			for i, ex := range exprs {
				cloned[i] = expression.Clone(ex)
			}
			nn, err := e.WithExpressions(cloned...)
			if err != nil {
				return nil, transform.SameTree, err
			}
			return nn, transform.NewTree, nil
		}
		nn, err := n.WithChildren(n.Children()...)
		if err != nil {
			return nil, transform.SameTree, err
		}
		return nn, transform.NewTree, nil
	})
	return copied, err
}

// FixFieldIndexes recomputes the row offset of every column reference from
// the position of its source column in the row the node reads. References
// to columns of enclosing queries are left alone.
func FixFieldIndexes(ctx *sql.Context, n sql.Node) (sql.Node, error) {
	fixed, _, err := transform.Node(n, func(n sql.Node) (sql.Node, transform.TreeIdentity, error) {
		e, ok := n.(sql.Expressioner)
		if !ok || len(e.Expressions()) == 0 {
			return n, transform.SameTree, nil
		}
		input := inputOf(ctx, n)
		if input == nil {
			return n, transform.SameTree, nil
		}

		same := transform.SameTree
		exprs := e.Expressions()
		fixedExprs := make([]sql.Expression, len(exprs))
		for i, ex := range exprs {
			fe, s, err := fixIndexes(input, ex)
			if err != nil {
				return nil, transform.SameTree, err
			}
			fixedExprs[i] = fe
			same = same && s
		}
		if same {
			return n, transform.SameTree, nil
		}
		nn, err := e.WithExpressions(fixedExprs...)
		if err != nil {
			return nil, transform.SameTree, err
		}
		return nn, transform.NewTree, nil
	})
	return fixed, err
}

// inputOf returns the scope describing the row the expressions of n read.
func inputOf(ctx *sql.Context, n sql.Node) *Scope {
	switch n := n.(type) {
	case *BaseTable:
		return NewScope(ctx, n, 0, nil)
	case *Join:
		return newJoinScope(ctx, n, 0, nil)
	case *GroupBy:
		if b := n.Bottom(); b != nil {
			return NewScope(ctx, b.Child, 0, nil)
		}
		return NewScope(ctx, n.Child, 0, nil)
	case *Insert:
		return NewScope(ctx, n.Child, 0, nil)
	case *Values:
		return nil
	}
	if children := n.Children(); len(children) == 1 {
		return NewScope(ctx, children[0], 0, nil)
	}
	return nil
}

func fixIndexes(input *Scope, e sql.Expression) (sql.Expression, transform.TreeIdentity, error) {
	return transform.Expr(e, func(e sql.Expression) (sql.Expression, transform.TreeIdentity, error) {
		c, ok := e.(*expression.ColumnReference)
		if !ok || c.Correlated() || !c.Resolved() {
			return e, transform.SameTree, nil
		}
		idx, ok := input.IndexOf(c.Source)
		if !ok || idx == c.Index {
			return e, transform.SameTree, nil
		}
		nc := expression.Clone(c).(*expression.ColumnReference)
		nc.Index = idx
		return nc, transform.NewTree, nil
	})
}

// RestoreColumnOrder gives an explicit projection to every restrict-only
// node whose input no longer produces its columns in order, as happens
// after a join order change. The node keeps its result columns.
func RestoreColumnOrder(ctx *sql.Context, n sql.Node) (sql.Node, error) {
	a := ctx.Arena()
	restored, _, err := transform.Node(n, func(n sql.Node) (sql.Node, transform.TreeIdentity, error) {
		p, ok := n.(*ProjectRestrict)
		if !ok || !p.IsRestrictOnly() || p.columns == nil {
			return n, transform.SameTree, nil
		}

		type flatColumn struct {
			id    sql.ColumnID
			table string
			tn    int
			index int
		}
		var flat []flatColumn
		for _, r := range relationsOf(p.Child, false) {
			for _, id := range r.columns {
				flat = append(flat, flatColumn{id, r.name, r.tableNumber, len(flat)})
			}
		}
		if len(flat) != len(p.columns) {
			return n, transform.SameTree, nil
		}

		byLeaf := make(map[sql.ColumnID]flatColumn, len(flat))
		inOrder := true
		for i, f := range flat {
			byLeaf[leafColumn(a, f.id)] = f
			inOrder = inOrder && leafColumn(a, p.columns[i]) == leafColumn(a, f.id)
		}
		if inOrder {
			return n, transform.SameTree, nil
		}

		proj := make([]sql.Expression, len(p.columns))
		for i, id := range p.columns {
			f, ok := byLeaf[leafColumn(a, id)]
			sql.Assert(ok, "column %d of %s is not produced by its input", i+1, p)
			rc := a.Get(f.id)
			proj[i] = expression.NewBoundColumnReference(rc.Name, &sql.ColumnBinding{
				Source:       f.id,
				TableNumber:  f.tn,
				ColumnNumber: rc.Position,
				Index:        f.index,
				Type:         a.Get(id).Type,
				Table:        f.table,
			}, 0)
		}
		np := *p
		np.Projection = proj
		np.bindColumns(a)
		return &np, transform.NewTree, nil
	})
	return restored, err
}

// leafColumn follows the chain of pass-through columns that ends in id.
func leafColumn(a *sql.Arena, id sql.ColumnID) sql.ColumnID {
	for {
		vc, ok := a.Get(id).Expr.(*expression.VirtualColumn)
		if !ok || vc.Source == 0 {
			return id
		}
		id = vc.Source
	}
}
