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

// IsUnary returns whether the node is unary or not.
func IsUnary(node sql.Node) bool {
	return len(node.Children()) == 1
}

// IsBinary returns whether the node is binary or not.
func IsBinary(node sql.Node) bool {
	return len(node.Children()) == 2
}

// NillaryWithChildren is a common WithChildren implementation for all nodes
// that have none.
func NillaryWithChildren(node sql.Node, children ...sql.Node) (sql.Node, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvalidChildrenNumber.New(node, len(children), 0)
	}
	return node, nil
}

// UnaryNode is a node that has only one child.
type UnaryNode struct {
	Child sql.Node
}

// Resolved implements the Resolvable interface.
func (n UnaryNode) Resolved() bool {
	return n.Child.Resolved()
}

// Children implements the Node interface.
func (n UnaryNode) Children() []sql.Node {
	return []sql.Node{n.Child}
}

// BinaryNode is a node with two children.
type BinaryNode struct {
	left  sql.Node
	right sql.Node
}

func (n BinaryNode) Left() sql.Node {
	return n.left
}

func (n BinaryNode) Right() sql.Node {
	return n.right
}

// Children implements the Node interface.
func (n BinaryNode) Children() []sql.Node {
	return []sql.Node{n.left, n.right}
}

// Resolved implements the Resolvable interface.
func (n BinaryNode) Resolved() bool {
	return n.left.Resolved() && n.right.Resolved()
}

// TableNode is a node that occupies an entry of a FROM list and has a
// table number.
type TableNode interface {
	sql.Node
	TableNumber() int
}

// ReferencedTables returns the numbers of the FROM list entries that make up
// the rows of n.
func ReferencedTables(n sql.Node) sql.TableSet {
	var tables sql.TableSet
	for _, r := range relationsOf(n, false) {
		if r.tableNumber >= 0 {
			tables.Add(r.tableNumber)
		}
	}
	return tables
}

// CountTables returns one more than the highest table number in the tree.
func CountTables(n sql.Node) int {
	count := 0
	transform.Inspect(n, func(n sql.Node) bool {
		if t, ok := n.(TableNode); ok && t.TableNumber() >= count {
			count = t.TableNumber() + 1
		}
		return true
	})
	return count
}

// and joins two optional predicates.
func and(left, right sql.Expression) sql.Expression {
	switch {
	case left == nil:
		return right
	case right == nil:
		return left
	default:
		return expression.NewAnd(left, right)
	}
}

// exprStrings returns the SQL text of each expression.
func exprStrings(exprs []sql.Expression) []string {
	s := make([]string, len(exprs))
	for i, e := range exprs {
		s[i] = e.String()
	}
	return s
}
