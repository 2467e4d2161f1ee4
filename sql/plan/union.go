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
	"github.com/dolthub/go-query-compiler/sql/types"
)

// Union returns the rows of both its children. Without All, duplicate rows
// are removed.
type Union struct {
	BinaryNode
	All         bool
	tableNumber int
	columns     sql.ResultColumnList
}

var _ TableNode = (*Union)(nil)

// NewUnion creates a new unbound union.
func NewUnion(left, right sql.Node, all bool) *Union {
	return &Union{BinaryNode: BinaryNode{left: left, right: right}, All: all, tableNumber: -1}
}

// TableNumber implements the TableNode interface.
func (u *Union) TableNumber() int { return u.tableNumber }

// Resolved implements the Resolvable interface.
func (u *Union) Resolved() bool {
	return u.columns != nil && u.BinaryNode.Resolved()
}

// ResultColumns implements the Node interface.
func (u *Union) ResultColumns() sql.ResultColumnList { return u.columns }

// WithChildren implements the Node interface.
func (u *Union) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 2 {
		return nil, sql.ErrInvalidChildrenNumber.New(u, len(children), 2)
	}
	nu := *u
	nu.left, nu.right = children[0], children[1]
	return &nu, nil
}

func (u *Union) String() string {
	pr := sql.NewTreePrinter()
	if u.All {
		_ = pr.WriteNode("Union all")
	} else {
		_ = pr.WriteNode("Union distinct")
	}
	_ = pr.WriteChildren(u.left.String(), u.right.String())
	return pr.String()
}

// bindColumns reconciles the column types of both branches and creates the
// result columns of the union. A column that is an untyped NULL in one
// branch takes the type of the other branch. A branch column of another type
// than the union column is cast to it.
func (u *Union) bindColumns(ctx *sql.Context) (*Union, error) {
	a := ctx.Arena()
	ts := types.Service(ctx)
	left, right := u.left.ResultColumns(), u.right.ResultColumns()
	if len(left) != len(right) {
		return nil, sql.ErrUnionColumnCount.New(len(left), len(right))
	}

	nu := *u
	nu.columns = make(sql.ResultColumnList, len(left))
	var err error
	for i := range left {
		lc, rc := a.Get(left[i]), a.Get(right[i])
		if !ts.Comparable(lc.Type, rc.Type, false) {
			return nil, sql.ErrTypeIncompatible.New("UNION", lc.Type, rc.Type)
		}
		if isUntypedNull(lc.Expr) {
			if nu.left, err = coerceColumn(ts, a, nu.left, i, rc.Type); err != nil {
				return nil, err
			}
		}
		if isUntypedNull(rc.Expr) {
			if nu.right, err = coerceColumn(ts, a, nu.right, i, lc.Type); err != nil {
				return nil, err
			}
		}

		typ := ts.DominantType(a.Get(left[i]).Type, a.Get(right[i]).Type)
		if !sameRepresentation(a.Get(left[i]).Type, typ) {
			if nu.left, err = coerceColumn(ts, a, nu.left, i, typ); err != nil {
				return nil, err
			}
		}
		if !sameRepresentation(a.Get(right[i]).Type, typ) {
			if nu.right, err = coerceColumn(ts, a, nu.right, i, typ); err != nil {
				return nil, err
			}
		}

		nu.columns[i] = a.Add(sql.ResultColumn{
			Name:            lc.Name,
			Expr:            expression.NewVirtualColumn(a, left[i]),
			Type:            typ,
			Position:        i + 1,
			VirtualColumnID: i + 1,
		})
	}
	return &nu, nil
}

func isUntypedNull(e sql.Expression) bool {
	l, ok := e.(*expression.Literal)
	return ok && l.IsUntypedNull()
}

// sameRepresentation reports whether values of x need no conversion to be
// values of y. Nullability does not matter.
func sameRepresentation(x, y sql.Type) bool {
	return x.ID == y.ID && x.MaxWidth == y.MaxWidth && x.Precision == y.Precision && x.Scale == y.Scale
}

// coerceColumn makes the select list item producing the i-th column of n
// return values of type t. Columns read straight from a base table are left
// as they are.
func coerceColumn(ts sql.TypeService, a *sql.Arena, n sql.Node, i int, t sql.Type) (sql.Node, error) {
	switch n := n.(type) {
	case *ProjectRestrict:
		np := *n
		if n.Projection == nil {
			nc, err := coerceColumn(ts, a, n.Child, i, t)
			if err != nil {
				return nil, err
			}
			np.Child = nc
			a.Get(np.columns[i]).Type = a.Get(nc.ResultColumns()[i]).Type
			return &np, nil
		}
		np.Projection = append([]sql.Expression(nil), n.Projection...)
		cast, err := expression.ImplicitCast(ts, expression.Unalias(np.Projection[i]), t)
		if err != nil {
			return nil, err
		}
		if named, ok := np.Projection[i].(sql.Nameable); ok {
			cast = expression.NewAlias(named.Name(), cast)
		}
		np.Projection[i] = cast
		np.bindColumns(a)
		return &np, nil
	case *Union:
		nu := *n
		var err error
		if nu.left, err = coerceColumn(ts, a, n.left, i, t); err != nil {
			return nil, err
		}
		if nu.right, err = coerceColumn(ts, a, n.right, i, t); err != nil {
			return nil, err
		}
		lt, rt := a.Get(nu.left.ResultColumns()[i]).Type, a.Get(nu.right.ResultColumns()[i]).Type
		a.Get(nu.columns[i]).Type = t.WithNullable(lt.Nullable || rt.Nullable)
		return &nu, nil
	case *Sort:
		ns := *n
		nc, err := coerceColumn(ts, a, n.Child, i, t)
		if err != nil {
			return nil, err
		}
		ns.Child = nc
		return &ns, nil
	case *Distinct:
		nd := *n
		nc, err := coerceColumn(ts, a, n.Child, i, t)
		if err != nil {
			return nil, err
		}
		nd.Child = nc
		return &nd, nil
	}
	return n, nil
}

// NormalizeUnion rewrites a union so that duplicate elimination happens once
// above it: a UNION becomes a Distinct over a UNION ALL. An ORDER BY
// directly under a branch without FETCH FIRST is dropped, since a union does
// not preserve the order of its branches.
func NormalizeUnion(u *Union) sql.Node {
	nu := *u
	nu.left = dropBranchSort(u.left)
	nu.right = dropBranchSort(u.right)
	if u.All {
		return &nu
	}
	nu.All = true
	return NewDistinct(&nu)
}

func dropBranchSort(n sql.Node) sql.Node {
	if s, ok := n.(*Sort); ok && s.Limit == NoLimit {
		return s.Child
	}
	return n
}

// AvoidDistinctSort marks s as avoided when its child is a sort based
// Distinct over a union and the sort keys are a prefix of the union columns
// in ascending order. The sort that removes duplicates already produces that
// order.
func AvoidDistinctSort(s *Sort) *Sort {
	d, ok := s.Child.(*Distinct)
	if !ok || d.Hash || s.Avoided {
		return s
	}
	if _, ok := d.Child.(*Union); !ok {
		return s
	}
	columns := d.ResultColumns()
	if len(s.Fields) > len(columns) {
		return s
	}
	for i, f := range s.Fields {
		c, ok := f.Expr.(*expression.ColumnReference)
		if !ok || f.Descending || c.Source != columns[i] {
			return s
		}
	}
	ns := *s
	ns.Avoided = true
	return &ns
}
