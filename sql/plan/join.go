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
)

// JoinType is the type of a join.
type JoinType byte

const (
	InnerJoin JoinType = iota
	LeftOuterJoin
	RightOuterJoin
)

func (t JoinType) String() string {
	switch t {
	case LeftOuterJoin:
		return "LeftOuterJoin"
	case RightOuterJoin:
		return "RightOuterJoin"
	default:
		return "InnerJoin"
	}
}

// IsOuter reports whether the join preserves unmatched rows of one side.
func (t JoinType) IsOuter() bool {
	return t != InnerJoin
}

// Join joins the rows of its children that satisfy its condition. The
// columns of a join are the columns of its left child followed by the
// columns of its right child.
type Join struct {
	BinaryNode
	Type JoinType
	Cond sql.Expression
	// WasRightOuter is set on a left outer join obtained by swapping the
	// children of a right outer join. Its columns keep the original order.
	WasRightOuter bool
	// NotFlattenable keeps an inner join out of the join order of the
	// enclosing query.
	NotFlattenable bool
	tableNumber    int
	columns        sql.ResultColumnList
}

var _ TableNode = (*Join)(nil)
var _ sql.BinaryNode = (*Join)(nil)
var _ sql.Expressioner = (*Join)(nil)

// NewJoin creates a new unbound join.
func NewJoin(typ JoinType, left, right sql.Node, cond sql.Expression) *Join {
	return &Join{
		BinaryNode:  BinaryNode{left: left, right: right},
		Type:        typ,
		Cond:        cond,
		tableNumber: -1,
	}
}

// NewInnerJoin creates a new unbound inner join.
func NewInnerJoin(left, right sql.Node, cond sql.Expression) *Join {
	return NewJoin(InnerJoin, left, right, cond)
}

// NewLeftOuterJoin creates a new unbound left outer join.
func NewLeftOuterJoin(left, right sql.Node, cond sql.Expression) *Join {
	return NewJoin(LeftOuterJoin, left, right, cond)
}

// NewRightOuterJoin creates a new unbound right outer join.
func NewRightOuterJoin(left, right sql.Node, cond sql.Expression) *Join {
	return NewJoin(RightOuterJoin, left, right, cond)
}

// NewBoundJoin creates an inner join of two bound inputs with the given
// table number, and creates its result columns.
func NewBoundJoin(a *sql.Arena, left, right sql.Node, cond sql.Expression, tableNumber int) *Join {
	j := NewInnerJoin(left, right, cond)
	j.tableNumber = tableNumber
	j.bindColumns(a)
	return j
}

// TableNumber implements the TableNode interface.
func (j *Join) TableNumber() int { return j.tableNumber }

// Resolved implements the Resolvable interface.
func (j *Join) Resolved() bool {
	return j.columns != nil && j.BinaryNode.Resolved() && (j.Cond == nil || j.Cond.Resolved())
}

// ResultColumns implements the Node interface.
func (j *Join) ResultColumns() sql.ResultColumnList { return j.columns }

// Expressions implements the Expressioner interface.
func (j *Join) Expressions() []sql.Expression {
	if j.Cond == nil {
		return nil
	}
	return []sql.Expression{j.Cond}
}

// WithExpressions implements the Expressioner interface.
func (j *Join) WithExpressions(exprs ...sql.Expression) (sql.Node, error) {
	expected := len(j.Expressions())
	if len(exprs) != expected {
		return nil, sql.ErrInvalidChildrenNumber.New(j, len(exprs), expected)
	}
	nj := *j
	if expected == 1 {
		nj.Cond = exprs[0]
	}
	return &nj, nil
}

// WithChildren implements the Node interface.
func (j *Join) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 2 {
		return nil, sql.ErrInvalidChildrenNumber.New(j, len(children), 2)
	}
	nj := *j
	nj.left, nj.right = children[0], children[1]
	return &nj, nil
}

// WithCond returns a copy of the join with the given condition.
func (j *Join) WithCond(cond sql.Expression) *Join {
	nj := *j
	nj.Cond = cond
	return &nj
}

func (j *Join) String() string {
	pr := sql.NewTreePrinter()
	_ = pr.WriteNode("%s", j.Type)
	var children []string
	if j.Cond != nil {
		children = append(children, j.Cond.String())
	}
	children = append(children, j.left.String(), j.right.String())
	_ = pr.WriteChildren(children...)
	return pr.String()
}

// normalize turns a right outer join into a left outer join by swapping its
// children.
func (j *Join) normalize() *Join {
	if j.Type != RightOuterJoin {
		return j
	}
	nj := *j
	nj.Type = LeftOuterJoin
	nj.WasRightOuter = true
	nj.left, nj.right = j.right, j.left
	return &nj
}

// bindColumns creates the result columns of the join over the columns of
// its children. The columns of the null producing side are nullable.
func (j *Join) bindColumns(a *sql.Arena) {
	first, second := j.left, j.right
	if j.WasRightOuter {
		first, second = j.right, j.left
	}
	nullable := func(n sql.Node) bool {
		return j.Type == LeftOuterJoin && n == j.right || j.Type == RightOuterJoin && n == j.left
	}

	var specs []sql.ResultColumn
	for _, side := range []sql.Node{first, second} {
		for _, id := range side.ResultColumns() {
			rc := a.Get(id)
			typ := rc.Type
			if nullable(side) {
				typ = typ.WithNullable(true)
			}
			vc := expression.NewVirtualColumn(a, id)
			specs = append(specs, sql.ResultColumn{
				Name:      rc.Name,
				TableName: rc.TableName,
				Expr:      vc,
				Type:      typ,
				Generated: rc.Generated,
			})
		}
	}

	update := len(j.columns) == len(specs)
	if !update {
		j.columns = make(sql.ResultColumnList, len(specs))
	}
	for i, rc := range specs {
		rc.Position = i + 1
		rc.VirtualColumnID = i + 1
		if update {
			existing := a.Get(j.columns[i])
			rc.ID = existing.ID
			*existing = rc
		} else {
			j.columns[i] = a.Add(rc)
		}
	}
}

// TransformOuterJoins turns outer joins into inner joins where predicates
// evaluated above the join reject the rows an outer join adds. predicates
// are the conjuncts that filter the output of j. An outer join becomes an
// inner join when one of them compares a column of its null producing side.
// Nested outer joins are transformed with the predicates that filter them,
// including join conditions. An outer join left intact makes its children
// not flattenable.
func (j *Join) TransformOuterJoins(predicates sql.Expression) sql.Node {
	switch j.Type {
	case InnerJoin:
		filters := and(predicates, j.Cond)
		nj := *j
		nj.left = transformOuterJoins(j.left, filters)
		nj.right = transformOuterJoins(j.right, filters)
		return &nj
	case LeftOuterJoin:
		if predicates != nil && rejectsNulls(predicates, ReferencedTables(j.right)) {
			nj := *j
			nj.Type = InnerJoin
			nj.WasRightOuter = false
			return nj.TransformOuterJoins(predicates)
		}
		nj := *j
		nj.left = notFlattenable(transformOuterJoins(j.left, predicates))
		nj.right = notFlattenable(transformOuterJoins(j.right, j.Cond))
		return &nj
	default:
		return j.normalize().TransformOuterJoins(predicates)
	}
}

func transformOuterJoins(n sql.Node, predicates sql.Expression) sql.Node {
	if j, ok := n.(*Join); ok {
		return j.TransformOuterJoins(predicates)
	}
	return n
}

func notFlattenable(n sql.Node) sql.Node {
	j, ok := n.(*Join)
	if !ok || j.NotFlattenable {
		return n
	}
	nj := *j
	nj.NotFlattenable = true
	return &nj
}

// rejectsNulls reports whether one of the conjuncts of predicates is a
// comparison with a column of the given tables as an operand. Such a
// comparison is never true when the column is NULL.
func rejectsNulls(predicates sql.Expression, tables sql.TableSet) bool {
	for _, p := range expression.SplitConjunction(predicates) {
		c, ok := p.(*expression.Comparison)
		if !ok {
			continue
		}
		if columnOf(c.Left, tables) || columnOf(c.Right, tables) {
			return true
		}
	}
	return false
}

func columnOf(e sql.Expression, tables sql.TableSet) bool {
	c, ok := e.(*expression.ColumnReference)
	return ok && c.TableNumber >= 0 && tables.Contains(c.TableNumber)
}

// LOJReorderable reassociates nested left outer joins. A join of the form
// A LEFT JOIN (B LEFT JOIN C ON p2) ON p1, where every conjunct of p1
// compares a column of A with a column of B and every conjunct of p2
// compares a column of B with a column of C, becomes (A LEFT JOIN B ON p1) LEFT
// JOIN C ON p2. Joins that were right outer joins are never reordered. The
// result columns of the rewritten joins are rebuilt. It reports whether any
// join of the tree was reordered.
func (j *Join) LOJReorderable(ctx *sql.Context, numTables int) (sql.Node, bool, error) {
	if err := ctx.CheckCancelled(); err != nil {
		return nil, false, err
	}

	var (
		n       sql.Node = j
		changed bool
	)
	if nested, ok := j.right.(*Join); ok && j.Type == LeftOuterJoin && !j.WasRightOuter &&
		nested.Type == LeftOuterJoin && !nested.WasRightOuter && j.Cond != nil && nested.Cond != nil {
		a, b, c := j.left, nested.left, nested.right
		aTables, bTables, cTables := ReferencedTables(a), ReferencedTables(b), ReferencedTables(c)
		for _, ts := range []sql.TableSet{aTables, bTables, cTables} {
			for _, t := range ts.Tables() {
				sql.Assert(t < numTables, "table number %d out of range %d", t, numTables)
			}
		}

		if isNullRejecting(j.Cond, aTables, bTables) && isNullRejecting(nested.Cond, bTables, cTables) {
			inner := NewLeftOuterJoin(a, b, j.Cond)
			inner.tableNumber = nested.tableNumber
			inner.bindColumns(ctx.Arena())

			outer := *j
			outer.left, outer.right = inner, c
			outer.Cond = nested.Cond
			outer.bindColumns(ctx.Arena())
			n, changed = &outer, true
		}
	}

	children := n.Children()
	newChildren := make([]sql.Node, len(children))
	for i, child := range children {
		newChildren[i] = child
		if cj, ok := child.(*Join); ok {
			nc, ok, err := cj.LOJReorderable(ctx, numTables)
			if err != nil {
				return nil, false, err
			}
			if ok {
				newChildren[i], changed = nc, true
			}
		}
	}
	if !changed {
		return j, false, nil
	}
	n, err := n.WithChildren(newChildren...)
	if err != nil {
		return nil, false, err
	}
	return n, true, nil
}

// isNullRejecting reports whether cond is a conjunction of comparisons, each
// one between a column of left and a column of right.
func isNullRejecting(cond sql.Expression, left, right sql.TableSet) bool {
	conjuncts := expression.SplitConjunction(cond)
	if len(conjuncts) == 0 {
		return false
	}
	for _, p := range conjuncts {
		c, ok := p.(*expression.Comparison)
		if !ok || c.IsProbe() {
			return false
		}
		if !(columnOf(c.Left, left) && columnOf(c.Right, right) ||
			columnOf(c.Left, right) && columnOf(c.Right, left)) {
			return false
		}
	}
	return true
}
