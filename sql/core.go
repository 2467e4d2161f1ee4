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

package sql

import "fmt"

// Expression is a typed, value producing node of a query tree.
type Expression interface {
	// Resolved returns whether the expression and all its children have been
	// bound.
	Resolved() bool
	// String returns the SQL text of the expression.
	String() string
	// Type returns the resolved type. It is the unknown type before binding
	// and for untyped NULL literals.
	Type() Type
	// IsNullable returns whether the expression can produce NULL.
	IsNullable() bool
	// Children returns the children expressions of this expression.
	Children() []Expression
	// WithChildren returns a copy of the expression with children replaced.
	// It will return an error if the number of children is different than
	// the current number of children. They must be given in the same order
	// as they are returned by Children.
	WithChildren(children ...Expression) (Expression, error)
}

// Node is a result producing node of a query tree.
type Node interface {
	// Resolved returns whether the node has been bound.
	Resolved() bool
	// String returns a tree representation of the node.
	String() string
	// Children nodes.
	Children() []Node
	// WithChildren returns a copy of the node with children replaced.
	// It will return an error if the number of children is different than
	// the current number of children. They must be given in the same order
	// as they are returned by Children.
	WithChildren(children ...Node) (Node, error)
	// ResultColumns returns the columns produced by the node, as handles
	// into the compilation arena.
	ResultColumns() ResultColumnList
}

// Expressioner is a node that contains expressions.
type Expressioner interface {
	// Expressions returns the list of expressions contained by the node.
	Expressions() []Expression
	// WithExpressions returns a copy of the node with expressions replaced.
	// It will return an error if the number of expressions is different than
	// the current number of expressions. They must be given in the same order
	// as they are returned by Expressions.
	WithExpressions(exprs ...Expression) (Node, error)
}

// UnaryNode is a node that has only one child.
type UnaryNode interface {
	Node
	Child() Node
}

// BinaryNode is a node with two children.
type BinaryNode interface {
	Node
	Left() Node
	Right() Node
}

// Nameable is something that has a name.
type Nameable interface {
	Name() string
}

// Tableable is something that has a table.
type Tableable interface {
	Table() string
}

// Row is a flat tuple of column values. NULL is nil.
type Row []interface{}

// NewRow creates a row from the given values.
func NewRow(values ...interface{}) Row {
	row := make(Row, len(values))
	copy(row, values)
	return row
}

// Append returns a new row with the values of both rows.
func (r Row) Append(r2 Row) Row {
	row := make(Row, len(r)+len(r2))
	copy(row, r)
	copy(row[len(r):], r2)
	return row
}

// Pos is a position in the statement text.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Col)
}

// ColumnBinding is the outcome of resolving a column name against a scope.
type ColumnBinding struct {
	// Source is the result column the reference reads from.
	Source ColumnID
	// TableNumber identifies the table in the FROM list.
	TableNumber int
	// ColumnNumber is the 1-based position of the column in its table.
	ColumnNumber int
	// Index is the offset of the column in the flat row seen by the scope.
	Index int
	// Level is the nesting level of the scope that produced the column.
	Level int
	Type  Type
	Table string
}

// Scope resolves column names during binding.
type Scope interface {
	// ResolveColumn looks up a column, optionally qualified with a table
	// name. It returns ErrColumnNotFound if no table provides the column and
	// ErrIllegalColumnReference if the reference is ambiguous or names an
	// unknown table.
	ResolveColumn(table, column string) (*ColumnBinding, error)
	// Level returns the nesting level of the scope.
	Level() int
	// Outer returns the enclosing scope, or nil.
	Outer() Scope
}
