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
	"github.com/dolthub/go-query-compiler/sql"
)

// Node applies a transformation function to the given tree from the
// bottom up.
func Node(node sql.Node, f NodeFunc) (sql.Node, TreeIdentity, error) {
	children := node.Children()
	if len(children) == 0 {
		return f(node)
	}

	var (
		newChildren []sql.Node
		child       sql.Node
	)

	for i := range children {
		child = children[i]
		child, same, err := Node(child, f)
		if err != nil {
			return nil, SameTree, err
		}
		if !same {
			if newChildren == nil {
				newChildren = make([]sql.Node, len(children))
				copy(newChildren, children)
			}
			newChildren[i] = child
		}
	}

	var err error
	sameC := SameTree
	if len(newChildren) > 0 {
		sameC = NewTree
		node, err = node.WithChildren(newChildren...)
		if err != nil {
			return nil, SameTree, err
		}
	}

	node, sameN, err := f(node)
	if err != nil {
		return nil, SameTree, err
	}
	return node, sameC && sameN, nil
}

// NodeWithCtx transforms a node bottom up, passing each node its parent and
// position among the parent's children.
func NodeWithCtx(n sql.Node, f CtxFunc) (sql.Node, TreeIdentity, error) {
	return transformUpCtx(Ctx{Node: n, ChildNum: -1}, f)
}

func transformUpCtx(c Ctx, f CtxFunc) (sql.Node, TreeIdentity, error) {
	children := c.Node.Children()
	if len(children) == 0 {
		return f(c)
	}

	var newChildren []sql.Node
	for i, child := range children {
		nc, same, err := transformUpCtx(Ctx{Node: child, Parent: c.Node, ChildNum: i}, f)
		if err != nil {
			return nil, SameTree, err
		}
		if !same {
			if newChildren == nil {
				newChildren = make([]sql.Node, len(children))
				copy(newChildren, children)
			}
			newChildren[i] = nc
		}
	}

	sameC := SameTree
	if newChildren != nil {
		sameC = NewTree
		n, err := c.Node.WithChildren(newChildren...)
		if err != nil {
			return nil, SameTree, err
		}
		c.Node = n
	}

	n, sameN, err := f(c)
	if err != nil {
		return nil, SameTree, err
	}
	return n, sameC && sameN, nil
}

// NodeExprs applies a transformation function to all expressions
// on the given plan tree from the bottom up.
func NodeExprs(node sql.Node, f ExprFunc) (sql.Node, TreeIdentity, error) {
	return Node(node, func(n sql.Node) (sql.Node, TreeIdentity, error) {
		return OneNodeExprs(n, f)
	})
}

// OneNodeExprs applies a transformation function to all expressions
// on the given node.
func OneNodeExprs(n sql.Node, f ExprFunc) (sql.Node, TreeIdentity, error) {
	ne, ok := n.(sql.Expressioner)
	if !ok {
		return n, SameTree, nil
	}

	exprs := ne.Expressions()
	if len(exprs) == 0 {
		return n, SameTree, nil
	}

	var (
		newExprs []sql.Expression
		err      error
	)

	for i := range exprs {
		e := exprs[i]
		e, same, err := Expr(e, f)
		if err != nil {
			return nil, SameTree, err
		}
		if !same {
			if newExprs == nil {
				newExprs = make([]sql.Expression, len(exprs))
				copy(newExprs, exprs)
			}
			newExprs[i] = e
		}
	}

	if len(newExprs) > 0 {
		n, err = ne.WithExpressions(newExprs...)
		if err != nil {
			return nil, SameTree, err
		}
		return n, NewTree, nil
	}
	return n, SameTree, nil
}
