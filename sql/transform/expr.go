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

package transform

import (
	"errors"

	"github.com/dolthub/go-query-compiler/sql"
)

// Expr applies a transformation function to the given expression
// tree from the bottom up. Each callback [f] returns a TreeIdentity
// that is aggregated into a final output indicating whether the
// expression tree was changed.
func Expr(e sql.Expression, f ExprFunc) (sql.Expression, TreeIdentity, error) {
	children := e.Children()
	if len(children) == 0 {
		return f(e)
	}

	var (
		newChildren []sql.Expression
		err         error
	)

	for i := 0; i < len(children); i++ {
		c := children[i]
		c, same, err := Expr(c, f)
		if err != nil {
			return nil, SameTree, err
		}
		if !same {
			if newChildren == nil {
				newChildren = make([]sql.Expression, len(children))
				copy(newChildren, children)
			}
			newChildren[i] = c
		}
	}

	sameC := SameTree
	if len(newChildren) > 0 {
		sameC = NewTree
		e, err = e.WithChildren(newChildren...)
		if err != nil {
			return nil, SameTree, err
		}
	}

	e, sameN, err := f(e)
	if err != nil {
		return nil, SameTree, err
	}
	return e, sameC && sameN, nil
}

// ExprTopDown applies f to the given expression before its children. The
// children visited are those of the expression returned by f.
func ExprTopDown(e sql.Expression, f ExprFunc) (sql.Expression, TreeIdentity, error) {
	e, sameN, err := f(e)
	if err != nil {
		return nil, SameTree, err
	}

	children := e.Children()
	var newChildren []sql.Expression
	for i, c := range children {
		nc, same, err := ExprTopDown(c, f)
		if err != nil {
			return nil, SameTree, err
		}
		if !same {
			if newChildren == nil {
				newChildren = make([]sql.Expression, len(children))
				copy(newChildren, children)
			}
			newChildren[i] = nc
		}
	}

	if newChildren == nil {
		return e, sameN, nil
	}
	e, err = e.WithChildren(newChildren...)
	if err != nil {
		return nil, SameTree, err
	}
	return e, NewTree, nil
}

// InspectExpr traverses the given expression tree from the bottom up, breaking if
// stop = true. Returns a bool indicating whether traversal was interrupted.
func InspectExpr(node sql.Expression, f func(sql.Expression) bool) bool {
	stop := errors.New("stop")
	_, _, err := Expr(node, func(e sql.Expression) (sql.Expression, TreeIdentity, error) {
		ok := f(e)
		if ok {
			return nil, SameTree, stop
		}
		return e, SameTree, nil
	})
	return errors.Is(err, stop)
}

// Conjuncts splits an expression on its top level AND operators. The split
// function decides whether an expression is a conjunction and returns its
// operands.
func Conjuncts(e sql.Expression, split func(sql.Expression) (sql.Expression, sql.Expression, bool)) []sql.Expression {
	l, r, ok := split(e)
	if !ok {
		return []sql.Expression{e}
	}
	return append(Conjuncts(l, split), Conjuncts(r, split)...)
}
