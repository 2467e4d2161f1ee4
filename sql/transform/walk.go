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

// Inspect performs a pre-order traversal of the sql.Node tree;
// First, it does f(node) and if cont = true, then Inspect is recursively called on node's children.
func Inspect(node sql.Node, f func(sql.Node) bool) (cont bool) {
	if !f(node) {
		return false
	}

	switch n := node.(type) {
	case sql.UnaryNode:
		if !Inspect(n.Child(), f) {
			return false
		}
	case sql.BinaryNode:
		if !Inspect(n.Left(), f) {
			return false
		}
		if !Inspect(n.Right(), f) {
			return false
		}
	default:
		for _, child := range n.Children() {
			if !Inspect(child, f) {
				return false
			}
		}
	}
	return true
}

// InspectExpressions traverses the plan and calls InspectExpr on every
// expression it finds. Traversal stops once f returns true.
func InspectExpressions(node sql.Node, f func(sql.Expression) bool) (stopped bool) {
	Inspect(node, func(n sql.Node) bool {
		if e, ok := n.(sql.Expressioner); ok {
			for _, expr := range e.Expressions() {
				if InspectExpr(expr, f) {
					stopped = true
					return false
				}
			}
		}
		return true
	})
	return stopped
}
